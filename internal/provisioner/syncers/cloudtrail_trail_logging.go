package syncers

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudtrail"
	"github.com/aws/aws-sdk-go-v2/service/cloudtrail/types"

	"github.com/claria-ai/provisioner/internal/provisioner"
)

// CloudTrailTrailLoggingSyncer toggles whether a trail is actively
// recording, independent of the trail object's own configuration.
type CloudTrailTrailLoggingSyncer struct {
	spec   provisioner.ResourceSpec
	client *cloudtrail.Client
}

func NewCloudTrailTrailLoggingSyncer(spec provisioner.ResourceSpec, client *cloudtrail.Client) *CloudTrailTrailLoggingSyncer {
	return &CloudTrailTrailLoggingSyncer{spec: spec, client: client}
}

func (s *CloudTrailTrailLoggingSyncer) Spec() provisioner.ResourceSpec { return s.spec }

func (s *CloudTrailTrailLoggingSyncer) trailName() string { return s.spec.LogicalName }

func (s *CloudTrailTrailLoggingSyncer) Read(ctx context.Context) (map[string]any, bool, error) {
	out, err := s.client.GetTrailStatus(ctx, &cloudtrail.GetTrailStatusInput{Name: aws.String(s.trailName())})
	if err != nil {
		var notFound *types.TrailNotFoundException
		if isErrAs(err, &notFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return map[string]any{"enabled": aws.ToBool(out.IsLogging)}, true, nil
}

func (s *CloudTrailTrailLoggingSyncer) desiredEnabled() bool {
	enabled, _ := s.spec.Desired["enabled"].(bool)
	return enabled
}

func (s *CloudTrailTrailLoggingSyncer) Diff(actual map[string]any) []provisioner.FieldDrift {
	enabled, _ := actual["enabled"].(bool)
	want := s.desiredEnabled()
	if enabled == want {
		return nil
	}
	return []provisioner.FieldDrift{{Field: "enabled", Label: "Audit trail logging", Expected: want, Actual: enabled}}
}

func (s *CloudTrailTrailLoggingSyncer) set(ctx context.Context, enabled bool) (map[string]any, error) {
	var err error
	if enabled {
		_, err = s.client.StartLogging(ctx, &cloudtrail.StartLoggingInput{Name: aws.String(s.trailName())})
	} else {
		_, err = s.client.StopLogging(ctx, &cloudtrail.StopLoggingInput{Name: aws.String(s.trailName())})
	}
	if err != nil {
		return nil, err
	}
	return map[string]any{"enabled": enabled}, nil
}

func (s *CloudTrailTrailLoggingSyncer) Create(ctx context.Context) (map[string]any, error) {
	return s.set(ctx, s.desiredEnabled())
}

func (s *CloudTrailTrailLoggingSyncer) Update(ctx context.Context) (map[string]any, error) {
	return s.set(ctx, s.desiredEnabled())
}

// Destroy stops logging; the trail object itself is removed by
// CloudTrailTrailSyncer's own Destroy.
func (s *CloudTrailTrailLoggingSyncer) Destroy(ctx context.Context) error {
	_, err := s.client.StopLogging(ctx, &cloudtrail.StopLoggingInput{Name: aws.String(s.trailName())})
	if err != nil {
		var notFound *types.TrailNotFoundException
		if isErrAs(err, &notFound) {
			return nil
		}
		return err
	}
	return nil
}
