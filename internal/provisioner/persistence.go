package provisioner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

// ObjectStore is the narrow remote-storage capability the persistence layer
// needs: put/get/delete of a single named object. Production code backs it
// with an S3 client scoped to the managed bucket; tests back it with an
// in-memory fake. PutIfMatch exists so the conditional-write primitive is
// visible at the boundary even though the executor never calls it — see the
// optimistic-locking open question.
type ObjectStore interface {
	Put(ctx context.Context, key string, body []byte) error
	PutIfMatch(ctx context.Context, key string, body []byte, etag string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// ErrObjectNotFound is the sentinel an ObjectStore.Get implementation must
// return (wrapped or bare) when the object does not exist.
var ErrObjectNotFound = errors.New("object not found")

// RemoteStateKey is the fixed key the engine claims inside the managed
// bucket for its own persisted state.
const RemoteStateKey = "_state/provisioner.json"

// Persistence is the dual-write state sink described in spec §4.5: an
// authoritative remote object plus a local file under an OS-appropriate
// config directory, the local copy acting as the safety net when the
// remote upload fails.
type Persistence struct {
	Remote    ObjectStore
	LocalPath string
}

// NewPersistence builds a Persistence for the given system name, rooting the
// local file at <config-dir>/com.claria.desktop/<system_name>/provisioner-state.json
// the same way the teacher resolves its checkpoint directory: home first,
// falling back to the OS temp directory if the home directory can't be
// resolved.
func NewPersistence(remote ObjectStore, systemName string) Persistence {
	return Persistence{Remote: remote, LocalPath: localStatePath(systemName)}
}

func localStatePath(systemName string) string {
	base, err := os.UserHomeDir()
	if err != nil {
		base = os.TempDir()
	}
	return filepath.Join(base, ".config", "com.claria.desktop", systemName, "provisioner-state.json")
}

// Flush serialises state to stable pretty JSON, writes it to local disk via
// a sibling temp-file-then-rename (mode 0600), and then best-effort uploads
// it to the remote object. Remote failures are logged, never propagated —
// the local copy is authoritative for the next Load.
func (p Persistence) Flush(ctx context.Context, state ProvisionerState) error {
	payload, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return &StateError{Message: "marshal state", Err: err}
	}

	if err := writeLocalAtomic(p.LocalPath, payload); err != nil {
		return &StateError{Message: "write local state", Err: err}
	}

	if p.Remote != nil {
		if err := p.Remote.Put(ctx, RemoteStateKey, payload); err != nil {
			log.Warn().Err(err).Str("key", RemoteStateKey).Msg("remote state upload failed, local copy remains authoritative")
		}
	}
	return nil
}

func writeLocalAtomic(path string, payload []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, payload, 0o600); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}

// Load tries the remote object first, falling back to the local file, and
// finally to a fresh empty state. Either sink may carry a v1 payload; Load
// migrates transparently and re-flushes remote-sourced migrations so future
// loads take the fast path, matching §4.5.
func (p Persistence) Load(ctx context.Context, region, bucket string) (ProvisionerState, error) {
	if p.Remote != nil {
		data, err := p.Remote.Get(ctx, RemoteStateKey)
		if err == nil {
			state, migrated, loadErr := decodeWithMigration(data)
			if loadErr != nil {
				return ProvisionerState{}, loadErr
			}
			if migrated {
				if flushErr := p.Flush(ctx, state); flushErr != nil {
					log.Warn().Err(flushErr).Msg("re-flush after remote state migration failed")
				}
			}
			return state, nil
		}
		if !errors.Is(err, ErrObjectNotFound) {
			log.Warn().Err(err).Msg("remote state load failed, falling back to local")
		}
	}

	data, err := os.ReadFile(p.LocalPath)
	if err == nil {
		state, migrated, loadErr := decodeWithMigration(data)
		if loadErr != nil {
			return ProvisionerState{}, loadErr
		}
		if migrated {
			if flushErr := p.Flush(ctx, state); flushErr != nil {
				log.Warn().Err(flushErr).Msg("re-flush after local state migration failed")
			}
		}
		return state, nil
	}
	if !os.IsNotExist(err) {
		return ProvisionerState{}, &StateError{Message: "read local state", Err: err}
	}

	return NewProvisionerState(region, bucket), nil
}

// decodeWithMigration attempts a direct decode first; on failure it parses
// the payload as raw JSON, attempts v1->v2 migration, and retries the direct
// decode once. A payload that still fails to decode after migration surfaces
// ErrIncompatible.
func decodeWithMigration(data []byte) (ProvisionerState, bool, error) {
	var state ProvisionerState
	if err := json.Unmarshal(data, &state); err == nil {
		return state, false, nil
	}

	migrated, changed, err := migrateV1ToV2(data)
	if err != nil {
		return ProvisionerState{}, false, fmt.Errorf("%w: %s", ErrIncompatible, err)
	}
	if err := json.Unmarshal(migrated, &state); err != nil {
		return ProvisionerState{}, false, fmt.Errorf("%w: %s", ErrIncompatible, err)
	}
	return state, changed, nil
}

// Delete removes both sinks. NotFound at either sink is not an error.
func (p Persistence) Delete(ctx context.Context) error {
	if err := os.Remove(p.LocalPath); err != nil && !os.IsNotExist(err) {
		return &StateError{Message: "delete local state", Err: err}
	}
	if p.Remote != nil {
		if err := p.Remote.Delete(ctx, RemoteStateKey); err != nil && !errors.Is(err, ErrObjectNotFound) {
			log.Warn().Err(err).Msg("remote state delete failed")
		}
	}
	return nil
}
