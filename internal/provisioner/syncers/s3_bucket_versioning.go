package syncers

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/claria-ai/provisioner/internal/provisioner"
)

// S3BucketVersioningSyncer toggles object versioning on the data bucket.
type S3BucketVersioningSyncer struct {
	spec   provisioner.ResourceSpec
	client *s3.Client
}

func NewS3BucketVersioningSyncer(spec provisioner.ResourceSpec, client *s3.Client) *S3BucketVersioningSyncer {
	return &S3BucketVersioningSyncer{spec: spec, client: client}
}

func (s *S3BucketVersioningSyncer) Spec() provisioner.ResourceSpec { return s.spec }

func (s *S3BucketVersioningSyncer) Read(ctx context.Context) (map[string]any, bool, error) {
	out, err := s.client.GetBucketVersioning(ctx, &s3.GetBucketVersioningInput{
		Bucket: aws.String(s.spec.LogicalName),
	})
	if err != nil {
		return nil, false, nil
	}
	return map[string]any{"status": string(out.Status)}, true, nil
}

func (s *S3BucketVersioningSyncer) desiredStatus() string {
	if status, ok := s.spec.Desired["status"].(string); ok && status != "" {
		return status
	}
	return "Enabled"
}

func (s *S3BucketVersioningSyncer) Diff(actual map[string]any) []provisioner.FieldDrift {
	status, _ := actual["status"].(string)
	if status == s.desiredStatus() {
		return nil
	}
	return []provisioner.FieldDrift{{Field: "status", Label: "Bucket versioning", Expected: s.desiredStatus(), Actual: status}}
}

func (s *S3BucketVersioningSyncer) put(ctx context.Context, status types.BucketVersioningStatus) (map[string]any, error) {
	_, err := s.client.PutBucketVersioning(ctx, &s3.PutBucketVersioningInput{
		Bucket:                  aws.String(s.spec.LogicalName),
		VersioningConfiguration: &types.VersioningConfiguration{Status: status},
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{"status": string(status)}, nil
}

func (s *S3BucketVersioningSyncer) Create(ctx context.Context) (map[string]any, error) {
	return s.put(ctx, types.BucketVersioningStatus(s.desiredStatus()))
}

func (s *S3BucketVersioningSyncer) Update(ctx context.Context) (map[string]any, error) {
	return s.put(ctx, types.BucketVersioningStatus(s.desiredStatus()))
}

func (s *S3BucketVersioningSyncer) Destroy(ctx context.Context) error {
	_, err := s.put(ctx, types.BucketVersioningStatusSuspended)
	return err
}
