package syncers

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/claria-ai/provisioner/internal/provisioner"
)

func TestS3BucketRegionDefaultsToUSEast1(t *testing.T) {
	syncer := NewS3BucketSyncer(provisioner.ResourceSpec{LogicalName: "acct-claria-data"}, nil)
	assert.Equal(t, defaultBucketRegion, syncer.region())
}

func TestS3BucketRegionHonorsOverride(t *testing.T) {
	spec := provisioner.ResourceSpec{
		LogicalName: "acct-claria-data",
		Desired:     map[string]any{"region": "us-west-2"},
	}
	syncer := NewS3BucketSyncer(spec, nil)
	assert.Equal(t, "us-west-2", syncer.region())
}

func TestS3BucketDiffIsAlwaysEmpty(t *testing.T) {
	syncer := NewS3BucketSyncer(provisioner.ResourceSpec{LogicalName: "acct-claria-data"}, nil)
	assert.Empty(t, syncer.Diff(map[string]any{"region": "eu-west-1"}))
}
