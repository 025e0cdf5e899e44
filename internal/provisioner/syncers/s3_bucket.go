package syncers

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/claria-ai/provisioner/internal/provisioner"
)

const defaultBucketRegion = "us-east-1"

// S3BucketSyncer manages the primary data bucket: binary existence, no
// in-place mutation, full content wipe before removal.
type S3BucketSyncer struct {
	spec   provisioner.ResourceSpec
	client *s3.Client
}

func NewS3BucketSyncer(spec provisioner.ResourceSpec, client *s3.Client) *S3BucketSyncer {
	return &S3BucketSyncer{spec: spec, client: client}
}

func (s *S3BucketSyncer) Spec() provisioner.ResourceSpec { return s.spec }

func (s *S3BucketSyncer) bucketName() string { return s.spec.LogicalName }

func (s *S3BucketSyncer) region() string {
	if region, ok := s.spec.Desired["region"].(string); ok && region != "" {
		return region
	}
	return defaultBucketRegion
}

func (s *S3BucketSyncer) Read(ctx context.Context) (map[string]any, bool, error) {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucketName())})
	if err != nil {
		var notFound *types.NotFound
		if isErrAs(err, &notFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return map[string]any{"region": s.region()}, true, nil
}

// Diff is always empty: existence and region are immutable after creation.
func (s *S3BucketSyncer) Diff(actual map[string]any) []provisioner.FieldDrift {
	return nil
}

func (s *S3BucketSyncer) Create(ctx context.Context) (map[string]any, error) {
	input := &s3.CreateBucketInput{Bucket: aws.String(s.bucketName())}
	if region := s.region(); region != defaultBucketRegion {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(region),
		}
	}
	if _, err := s.client.CreateBucket(ctx, input); err != nil {
		var alreadyOwned *types.BucketAlreadyOwnedByYou
		var alreadyExists *types.BucketAlreadyExists
		if !isErrAs(err, &alreadyOwned) && !isErrAs(err, &alreadyExists) {
			return nil, err
		}
	}
	return map[string]any{"region": s.region()}, nil
}

// Update converges to the current region: the bucket's region is immutable
// once created, so this returns the desired region without calling AWS.
func (s *S3BucketSyncer) Update(ctx context.Context) (map[string]any, error) {
	return map[string]any{"region": s.region()}, nil
}

// Destroy paginates every object in the bucket, deletes them, then removes
// the (now-empty) bucket.
func (s *S3BucketSyncer) Destroy(ctx context.Context) error {
	bucket := aws.String(s.bucketName())

	var continuationToken *string
	for {
		listOut, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            bucket,
			ContinuationToken: continuationToken,
		})
		if err != nil {
			var notFound *types.NotFound
			if isErrAs(err, &notFound) {
				return nil
			}
			return err
		}
		for _, obj := range listOut.Contents {
			if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: bucket, Key: obj.Key}); err != nil {
				return err
			}
		}
		if listOut.IsTruncated == nil || !*listOut.IsTruncated {
			break
		}
		continuationToken = listOut.NextContinuationToken
	}

	if _, err := s.client.DeleteBucket(ctx, &s3.DeleteBucketInput{Bucket: bucket}); err != nil {
		var notFound *types.NotFound
		if isErrAs(err, &notFound) {
			return nil
		}
		return err
	}
	return nil
}
