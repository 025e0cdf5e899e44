package provisioner

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeObjectStore is an in-memory ObjectStore used by persistence and
// executor tests.
type fakeObjectStore struct {
	objects map[string][]byte
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{objects: make(map[string][]byte)}
}

func (f *fakeObjectStore) Put(ctx context.Context, key string, body []byte) error {
	f.objects[key] = body
	return nil
}

func (f *fakeObjectStore) PutIfMatch(ctx context.Context, key string, body []byte, etag string) error {
	return f.Put(ctx, key, body)
}

func (f *fakeObjectStore) Get(ctx context.Context, key string) ([]byte, error) {
	body, ok := f.objects[key]
	if !ok {
		return nil, ErrObjectNotFound
	}
	return body, nil
}

func (f *fakeObjectStore) Delete(ctx context.Context, key string) error {
	delete(f.objects, key)
	return nil
}

func testPersistence(t *testing.T) Persistence {
	t.Helper()
	return Persistence{Remote: newFakeObjectStore(), LocalPath: t.TempDir() + "/state.json"}
}

func TestExecuteCreatePhaseInsertsRecordAndFlushes(t *testing.T) {
	syncer := &fakeSyncer{spec: managedSpec("s3_bucket", "b")}
	entries := []PlanEntry{{Spec: syncer.spec, Action: ActionCreate, Cause: CauseFirstProvision}}
	state := NewProvisionerState("us-west-2", "b")
	persistence := testPersistence(t)

	err := Execute(context.Background(), entries, []Syncer{syncer}, &state, persistence)
	require.NoError(t, err)

	rec, ok := state.Resources[syncer.spec.Addr()]
	require.True(t, ok)
	assert.Equal(t, StatusCreated, rec.Status)
	assert.Equal(t, uint32(ManifestVersion), *state.ManifestVersion)
}

func TestExecuteModifyPhaseUpdatesExistingRecord(t *testing.T) {
	syncer := &fakeSyncer{spec: managedSpec("s3_bucket_encryption", "b"), exists: true}
	entries := []PlanEntry{{Spec: syncer.spec, Action: ActionModify, Cause: CauseDrift}}
	state := NewProvisionerState("us-west-2", "b")
	state.Resources[syncer.spec.Addr()] = ResourceRecord{ResourceType: syncer.spec.TypeTag, Status: StatusCreated}
	persistence := testPersistence(t)

	err := Execute(context.Background(), entries, []Syncer{syncer}, &state, persistence)
	require.NoError(t, err)

	rec := state.Resources[syncer.spec.Addr()]
	assert.Equal(t, StatusUpdated, rec.Status)
}

func TestExecuteDeletePhaseRunsOrphansAndRemovesFromState(t *testing.T) {
	orphanSpecValue := orphanSpec(ResourceAddress{TypeTag: "s3_bucket_policy", LogicalName: "old"})
	syncer := &fakeSyncer{spec: orphanSpecValue}
	entries := []PlanEntry{{Spec: orphanSpecValue, Action: ActionDelete, Cause: CauseOrphaned}}
	state := NewProvisionerState("us-west-2", "b")
	state.Resources[orphanSpecValue.Addr()] = ResourceRecord{ResourceType: "s3_bucket_policy"}
	persistence := testPersistence(t)

	err := Execute(context.Background(), entries, []Syncer{syncer}, &state, persistence)
	require.NoError(t, err)

	assert.True(t, syncer.destroyed)
	_, stillPresent := state.Resources[orphanSpecValue.Addr()]
	assert.False(t, stillPresent)
}

func TestExecuteAbortsOnSyncerFailureWithoutRollback(t *testing.T) {
	ok := &fakeSyncer{spec: managedSpec("s3_bucket", "b")}
	failing := &fakeSyncer{spec: managedSpec("s3_bucket_encryption", "b"), createErr: errors.New("access denied")}
	entries := []PlanEntry{
		{Spec: ok.spec, Action: ActionCreate, Cause: CauseFirstProvision},
		{Spec: failing.spec, Action: ActionCreate, Cause: CauseFirstProvision},
	}
	state := NewProvisionerState("us-west-2", "b")
	persistence := testPersistence(t)

	err := Execute(context.Background(), entries, []Syncer{ok, failing}, &state, persistence)
	require.Error(t, err)

	_, created := state.Resources[ok.spec.Addr()]
	assert.True(t, created, "the successful create before the failure must remain in state")
	_, failedRecord := state.Resources[failing.spec.Addr()]
	assert.False(t, failedRecord)
}

func TestDestroyAllClearsStateAndManifestVersion(t *testing.T) {
	syncer := &fakeSyncer{spec: managedSpec("s3_bucket", "b")}
	state := NewProvisionerState("us-west-2", "b")
	state.Resources[syncer.spec.Addr()] = ResourceRecord{ResourceType: "s3_bucket"}
	version := uint32(ManifestVersion)
	state.ManifestVersion = &version
	persistence := testPersistence(t)

	err := DestroyAll(context.Background(), []Syncer{syncer}, &state, persistence)
	require.NoError(t, err)

	assert.True(t, syncer.destroyed)
	assert.Empty(t, state.Resources)
	assert.Nil(t, state.ManifestVersion)
}

func TestDestroyAllSkipsAddressesNotInState(t *testing.T) {
	syncer := &fakeSyncer{spec: managedSpec("s3_bucket", "b")}
	state := NewProvisionerState("us-west-2", "b")
	persistence := testPersistence(t)

	err := DestroyAll(context.Background(), []Syncer{syncer}, &state, persistence)
	require.NoError(t, err)
	assert.False(t, syncer.destroyed)
}
