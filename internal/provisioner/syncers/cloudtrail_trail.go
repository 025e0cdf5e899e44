package syncers

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudtrail"
	"github.com/aws/aws-sdk-go-v2/service/cloudtrail/types"

	"github.com/claria-ai/provisioner/internal/provisioner"
)

// CloudTrailTrailSyncer manages the trail object itself (its target bucket,
// key prefix, and multi-region scope). It does not control whether the
// trail is actively logging — that is CloudTrailTrailLoggingSyncer's job.
type CloudTrailTrailSyncer struct {
	spec   provisioner.ResourceSpec
	client *cloudtrail.Client
}

func NewCloudTrailTrailSyncer(spec provisioner.ResourceSpec, client *cloudtrail.Client) *CloudTrailTrailSyncer {
	return &CloudTrailTrailSyncer{spec: spec, client: client}
}

func (s *CloudTrailTrailSyncer) Spec() provisioner.ResourceSpec { return s.spec }

func (s *CloudTrailTrailSyncer) trailName() string { return s.spec.LogicalName }

func (s *CloudTrailTrailSyncer) Read(ctx context.Context) (map[string]any, bool, error) {
	out, err := s.client.GetTrail(ctx, &cloudtrail.GetTrailInput{Name: aws.String(s.trailName())})
	if err != nil {
		var notFound *types.TrailNotFoundException
		if isErrAs(err, &notFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	trail := out.Trail
	return map[string]any{
		"s3_bucket":       aws.ToString(trail.S3BucketName),
		"s3_key_prefix":   aws.ToString(trail.S3KeyPrefix),
		"is_multi_region": aws.ToBool(trail.IsMultiRegionTrail),
	}, true, nil
}

func (s *CloudTrailTrailSyncer) desired() (bucket, prefix string, multiRegion bool) {
	bucket, _ = s.spec.Desired["s3_bucket"].(string)
	prefix, _ = s.spec.Desired["s3_key_prefix"].(string)
	multiRegion, _ = s.spec.Desired["is_multi_region"].(bool)
	return
}

func (s *CloudTrailTrailSyncer) Diff(actual map[string]any) []provisioner.FieldDrift {
	wantBucket, wantPrefix, wantMultiRegion := s.desired()
	var drift []provisioner.FieldDrift
	if bucket, _ := actual["s3_bucket"].(string); bucket != wantBucket {
		drift = append(drift, provisioner.FieldDrift{Field: "s3_bucket", Label: "Trail target bucket", Expected: wantBucket, Actual: bucket})
	}
	if prefix, _ := actual["s3_key_prefix"].(string); prefix != wantPrefix {
		drift = append(drift, provisioner.FieldDrift{Field: "s3_key_prefix", Label: "Trail key prefix", Expected: wantPrefix, Actual: prefix})
	}
	if multiRegion, _ := actual["is_multi_region"].(bool); multiRegion != wantMultiRegion {
		drift = append(drift, provisioner.FieldDrift{Field: "is_multi_region", Label: "Trail multi-region scope", Expected: wantMultiRegion, Actual: multiRegion})
	}
	return drift
}

func (s *CloudTrailTrailSyncer) Create(ctx context.Context) (map[string]any, error) {
	bucket, prefix, multiRegion := s.desired()
	_, err := s.client.CreateTrail(ctx, &cloudtrail.CreateTrailInput{
		Name:                       aws.String(s.trailName()),
		S3BucketName:               aws.String(bucket),
		S3KeyPrefix:                aws.String(prefix),
		IsMultiRegionTrail:         aws.Bool(multiRegion),
		IncludeGlobalServiceEvents: aws.Bool(true),
	})
	if err != nil {
		var alreadyExists *types.TrailAlreadyExistsException
		if !isErrAs(err, &alreadyExists) {
			return nil, &provisioner.CreateFailedError{Label: s.spec.Label, Name: s.trailName(), Err: err}
		}
	}
	props := map[string]any{"s3_bucket": bucket, "s3_key_prefix": prefix, "is_multi_region": multiRegion}
	return props, nil
}

// Update applies the full desired field set (bucket, prefix, scope) to the
// existing trail via UpdateTrail, so repeated calls converge on the same
// configuration. It does not recreate a missing trail: UpdateTrail fails and
// that error is returned.
func (s *CloudTrailTrailSyncer) Update(ctx context.Context) (map[string]any, error) {
	bucket, prefix, multiRegion := s.desired()
	_, err := s.client.UpdateTrail(ctx, &cloudtrail.UpdateTrailInput{
		Name:               aws.String(s.trailName()),
		S3BucketName:       aws.String(bucket),
		S3KeyPrefix:        aws.String(prefix),
		IsMultiRegionTrail: aws.Bool(multiRegion),
	})
	if err != nil {
		return nil, &provisioner.UpdateFailedError{Label: s.spec.Label, Name: s.trailName(), Err: err}
	}
	return map[string]any{"s3_bucket": bucket, "s3_key_prefix": prefix, "is_multi_region": multiRegion}, nil
}

// Destroy stops logging before deleting: CloudTrail accepts DeleteTrail on
// an actively-logging trail, but stopping first avoids a dangling delivery
// in flight against a bucket policy this destroy sequence may also remove.
func (s *CloudTrailTrailSyncer) Destroy(ctx context.Context) error {
	_, _ = s.client.StopLogging(ctx, &cloudtrail.StopLoggingInput{Name: aws.String(s.trailName())})
	_, err := s.client.DeleteTrail(ctx, &cloudtrail.DeleteTrailInput{Name: aws.String(s.trailName())})
	if err != nil {
		var notFound *types.TrailNotFoundException
		if isErrAs(err, &notFound) {
			return nil
		}
		return err
	}
	return nil
}
