package provisioner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSyncer is an in-memory Syncer used across planner and executor tests,
// grounded in the same "fake over mock" test style the scheduler package
// uses for node selection: plain structs holding canned results rather than
// a generated mock.
type fakeSyncer struct {
	spec      ResourceSpec
	exists    bool
	actual    map[string]any
	drift     []FieldDrift
	createErr error
	updateErr error
	destroyed bool
}

func (f *fakeSyncer) Spec() ResourceSpec { return f.spec }

func (f *fakeSyncer) Read(ctx context.Context) (map[string]any, bool, error) {
	return f.actual, f.exists, nil
}

func (f *fakeSyncer) Diff(actual map[string]any) []FieldDrift { return f.drift }

func (f *fakeSyncer) Create(ctx context.Context) (map[string]any, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.exists = true
	return map[string]any{"created": true}, nil
}

func (f *fakeSyncer) Update(ctx context.Context) (map[string]any, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return map[string]any{"updated": true}, nil
}

func (f *fakeSyncer) Destroy(ctx context.Context) error {
	f.destroyed = true
	return nil
}

func managedSpec(typeTag, name string) ResourceSpec {
	return ResourceSpec{TypeTag: typeTag, LogicalName: name, Lifecycle: LifecycleManaged, Label: typeTag}
}

func TestPlanFirstProvisionOnEmptyState(t *testing.T) {
	syncer := &fakeSyncer{spec: managedSpec("s3_bucket", "b"), exists: false}
	state := NewProvisionerState("us-west-2", "b")
	version := uint32(ManifestVersion)
	state.ManifestVersion = &version

	entries, err := Plan(context.Background(), []Syncer{syncer}, state)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ActionCreate, entries[0].Action)
	assert.Equal(t, CauseFirstProvision, entries[0].Cause)
}

func TestPlanInSyncWhenNoDrift(t *testing.T) {
	syncer := &fakeSyncer{spec: managedSpec("s3_bucket", "b"), exists: true, actual: map[string]any{"region": "us-west-2"}}
	state := NewProvisionerState("us-west-2", "b")
	version := uint32(ManifestVersion)
	state.ManifestVersion = &version

	entries, err := Plan(context.Background(), []Syncer{syncer}, state)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ActionOk, entries[0].Action)
	assert.Equal(t, CauseInSync, entries[0].Cause)
}

func TestPlanModifyOnDrift(t *testing.T) {
	syncer := &fakeSyncer{
		spec:   managedSpec("s3_bucket_encryption", "b"),
		exists: true,
		actual: map[string]any{"sse_algorithm": "aws:kms"},
		drift:  []FieldDrift{{Field: "sse_algorithm", Expected: "AES256", Actual: "aws:kms"}},
	}
	state := NewProvisionerState("us-west-2", "b")
	version := uint32(ManifestVersion)
	state.ManifestVersion = &version

	entries, err := Plan(context.Background(), []Syncer{syncer}, state)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ActionModify, entries[0].Action)
	assert.Equal(t, CauseDrift, entries[0].Cause)
}

func TestPlanDataLifecyclePreconditionFailedWhenMissing(t *testing.T) {
	spec := ResourceSpec{TypeTag: "iam_user", LogicalName: "claria-admin", Lifecycle: LifecycleData}
	syncer := &fakeSyncer{spec: spec, exists: false}
	state := NewProvisionerState("us-west-2", "b")
	version := uint32(ManifestVersion)
	state.ManifestVersion = &version

	entries, err := Plan(context.Background(), []Syncer{syncer}, state)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ActionPreconditionFailed, entries[0].Action)
}

func TestPlanOrphanedResourceProducesDeleteEntry(t *testing.T) {
	state := NewProvisionerState("us-west-2", "b")
	version := uint32(ManifestVersion)
	state.ManifestVersion = &version
	orphanAddr := ResourceAddress{TypeTag: "s3_bucket_policy", LogicalName: "old-bucket"}
	state.Resources[orphanAddr] = ResourceRecord{ResourceType: "s3_bucket_policy", ResourceID: "old-bucket", Status: StatusCreated}

	entries, err := Plan(context.Background(), []Syncer{}, state)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ActionDelete, entries[0].Action)
	assert.Equal(t, CauseOrphaned, entries[0].Cause)
	assert.Equal(t, SeverityDestructive, entries[0].Spec.Severity)
}

func TestPlanManifestUpgradeMarksUnknownAddressAsManifestChanged(t *testing.T) {
	syncer := &fakeSyncer{spec: managedSpec("s3_bucket", "b"), exists: false}
	state := NewProvisionerState("us-west-2", "b") // ManifestVersion nil: treated as upgraded

	entries, err := Plan(context.Background(), []Syncer{syncer}, state)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ActionCreate, entries[0].Action)
	assert.Equal(t, CauseManifestChange, entries[0].Cause)
}

func TestPlanIsDeterministicAcrossRepeatedCalls(t *testing.T) {
	state := NewProvisionerState("us-west-2", "b")
	version := uint32(ManifestVersion)
	state.ManifestVersion = &version
	for _, name := range []string{"z-orphan", "a-orphan", "m-orphan"} {
		addr := ResourceAddress{TypeTag: "s3_bucket_policy", LogicalName: name}
		state.Resources[addr] = ResourceRecord{ResourceType: "s3_bucket_policy", ResourceID: name}
	}

	first, err := Plan(context.Background(), []Syncer{}, state)
	require.NoError(t, err)
	second, err := Plan(context.Background(), []Syncer{}, state)
	require.NoError(t, err)

	require.Len(t, first, 3)
	for i := range first {
		assert.Equal(t, first[i].Spec.Addr(), second[i].Spec.Addr())
	}
}
