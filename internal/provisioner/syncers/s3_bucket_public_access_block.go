package syncers

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/claria-ai/provisioner/internal/provisioner"
)

// S3BucketPublicAccessBlockSyncer manages the four public-access-block
// booleans on the data bucket. Like encryption, an unreadable configuration
// means "exists with everything false" rather than "does not exist".
type S3BucketPublicAccessBlockSyncer struct {
	spec   provisioner.ResourceSpec
	client *s3.Client
}

func NewS3BucketPublicAccessBlockSyncer(spec provisioner.ResourceSpec, client *s3.Client) *S3BucketPublicAccessBlockSyncer {
	return &S3BucketPublicAccessBlockSyncer{spec: spec, client: client}
}

func (s *S3BucketPublicAccessBlockSyncer) Spec() provisioner.ResourceSpec { return s.spec }

var pabFields = []string{"block_public_acls", "ignore_public_acls", "block_public_policy", "restrict_public_buckets"}

func (s *S3BucketPublicAccessBlockSyncer) Read(ctx context.Context) (map[string]any, bool, error) {
	out, err := s.client.GetPublicAccessBlock(ctx, &s3.GetPublicAccessBlockInput{
		Bucket: aws.String(s.spec.LogicalName),
	})
	if err != nil {
		return map[string]any{
			"block_public_acls":       false,
			"ignore_public_acls":      false,
			"block_public_policy":     false,
			"restrict_public_buckets": false,
		}, true, nil
	}
	cfg := out.PublicAccessBlockConfiguration
	return map[string]any{
		"block_public_acls":       aws.ToBool(cfg.BlockPublicAcls),
		"ignore_public_acls":      aws.ToBool(cfg.IgnorePublicAcls),
		"block_public_policy":     aws.ToBool(cfg.BlockPublicPolicy),
		"restrict_public_buckets": aws.ToBool(cfg.RestrictPublicBuckets),
	}, true, nil
}

func (s *S3BucketPublicAccessBlockSyncer) desired(field string) bool {
	if v, ok := s.spec.Desired[field].(bool); ok {
		return v
	}
	return true
}

func (s *S3BucketPublicAccessBlockSyncer) Diff(actual map[string]any) []provisioner.FieldDrift {
	var drift []provisioner.FieldDrift
	for _, field := range pabFields {
		want := s.desired(field)
		got, _ := actual[field].(bool)
		if got != want {
			drift = append(drift, provisioner.FieldDrift{Field: field, Label: "Public access block: " + field, Expected: want, Actual: got})
		}
	}
	return drift
}

func (s *S3BucketPublicAccessBlockSyncer) put(ctx context.Context) (map[string]any, error) {
	props := map[string]any{}
	cfg := &types.PublicAccessBlockConfiguration{}
	for _, field := range pabFields {
		want := s.desired(field)
		props[field] = want
		switch field {
		case "block_public_acls":
			cfg.BlockPublicAcls = aws.Bool(want)
		case "ignore_public_acls":
			cfg.IgnorePublicAcls = aws.Bool(want)
		case "block_public_policy":
			cfg.BlockPublicPolicy = aws.Bool(want)
		case "restrict_public_buckets":
			cfg.RestrictPublicBuckets = aws.Bool(want)
		}
	}
	_, err := s.client.PutPublicAccessBlock(ctx, &s3.PutPublicAccessBlockInput{
		Bucket:                         aws.String(s.spec.LogicalName),
		PublicAccessBlockConfiguration: cfg,
	})
	if err != nil {
		return nil, err
	}
	return props, nil
}

func (s *S3BucketPublicAccessBlockSyncer) Create(ctx context.Context) (map[string]any, error) { return s.put(ctx) }
func (s *S3BucketPublicAccessBlockSyncer) Update(ctx context.Context) (map[string]any, error) { return s.put(ctx) }

// Destroy removes the public-access-block entirely, ignoring any error —
// it is purely a hardening toggle, not a resource with its own lifecycle.
func (s *S3BucketPublicAccessBlockSyncer) Destroy(ctx context.Context) error {
	_, _ = s.client.DeletePublicAccessBlock(ctx, &s3.DeletePublicAccessBlockInput{Bucket: aws.String(s.spec.LogicalName)})
	return nil
}
