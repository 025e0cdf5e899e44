package provisioner

import (
	"context"
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlushThenLoadRoundTrips(t *testing.T) {
	persistence := testPersistence(t)
	state := NewProvisionerState("us-west-2", "b")
	state.Resources[ResourceAddress{TypeTag: "s3_bucket", LogicalName: "b"}] = ResourceRecord{
		ResourceType: "s3_bucket", ResourceID: "b", Status: StatusCreated,
	}

	require.NoError(t, persistence.Flush(context.Background(), state))

	loaded, err := persistence.Load(context.Background(), "us-west-2", "b")
	require.NoError(t, err)
	assert.Equal(t, state.Resources, loaded.Resources)
}

func TestFlushWritesLocalFileWithRestrictivePermissions(t *testing.T) {
	persistence := testPersistence(t)
	state := NewProvisionerState("us-west-2", "b")

	require.NoError(t, persistence.Flush(context.Background(), state))

	info, err := os.Stat(persistence.LocalPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestLoadFallsBackToLocalWhenRemoteObjectMissing(t *testing.T) {
	remote := newFakeObjectStore()
	persistence := Persistence{Remote: remote, LocalPath: t.TempDir() + "/state.json"}

	state := NewProvisionerState("us-west-2", "b")
	require.NoError(t, persistence.Flush(context.Background(), state))

	// Simulate the remote object having disappeared out from under us.
	delete(remote.objects, RemoteStateKey)

	loaded, err := persistence.Load(context.Background(), "us-west-2", "b")
	require.NoError(t, err)
	assert.Equal(t, "us-west-2", loaded.Region)
}

func TestLoadReturnsFreshStateWhenNeitherSinkHasData(t *testing.T) {
	persistence := testPersistence(t)

	loaded, err := persistence.Load(context.Background(), "us-west-2", "b")
	require.NoError(t, err)
	assert.Equal(t, "us-west-2", loaded.Region)
	assert.Empty(t, loaded.Resources)
}

func TestLoadMigratesV1StateFoundOnDisk(t *testing.T) {
	persistence := testPersistence(t)
	v1 := []byte(`{"region": "us-west-2", "bucket": "b", "resources": {
		"s3_bucket": {"resource_type": "s3_bucket", "resource_id": "b", "status": "created"}
	}}`)
	require.NoError(t, os.WriteFile(persistence.LocalPath, v1, 0o600))

	loaded, err := persistence.Load(context.Background(), "us-west-2", "b")
	require.NoError(t, err)
	assert.Nil(t, loaded.ManifestVersion)
	require.Contains(t, loaded.Resources, ResourceAddress{TypeTag: "s3_bucket", LogicalName: "b"})

	// Migration re-flushes, so the on-disk copy should now be v2 shaped.
	onDisk, err := os.ReadFile(persistence.LocalPath)
	require.NoError(t, err)
	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(onDisk, &raw))
	assert.Contains(t, raw, "manifest_version")
}

func TestDeleteToleratesMissingSinks(t *testing.T) {
	persistence := testPersistence(t)
	// Neither sink has ever been written to.
	assert.NoError(t, persistence.Delete(context.Background()))
}

func TestDeleteRemovesBothSinks(t *testing.T) {
	persistence := testPersistence(t)
	state := NewProvisionerState("us-west-2", "b")
	require.NoError(t, persistence.Flush(context.Background(), state))

	require.NoError(t, persistence.Delete(context.Background()))

	_, err := os.Stat(persistence.LocalPath)
	assert.True(t, os.IsNotExist(err))
}
