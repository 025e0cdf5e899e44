package provisioner

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

// syncersByAddr indexes a syncer list by resource address for the lookups
// the executor's delete phase needs (an orphan entry may have no syncer).
func syncersByAddr(syncers []Syncer) map[ResourceAddress]Syncer {
	out := make(map[ResourceAddress]Syncer, len(syncers))
	for _, s := range syncers {
		out[s.Spec().Addr()] = s
	}
	return out
}

// Execute applies a previously computed plan against state in the four
// ordered phases of spec §4.4: creates in manifest order, modifies in
// manifest order, deletes in reverse manifest order (orphans first), then a
// final manifest-version stamp. State is flushed after every mutation, and a
// syncer failure aborts the remainder of the run immediately — the executor
// performs no rollback.
func Execute(ctx context.Context, entries []PlanEntry, syncers []Syncer, state *ProvisionerState, persistence Persistence) error {
	for _, e := range entries {
		if e.Action == ActionPreconditionFailed {
			return fmt.Errorf("%w: %s %q is not satisfied", ErrPreconditionFailed, e.Spec.Label, e.Spec.LogicalName)
		}
	}

	byAddr := syncersByAddr(syncers)

	creates := make([]PlanEntry, 0)
	modifies := make([]PlanEntry, 0)
	deletes := make([]PlanEntry, 0)
	for _, e := range entries {
		switch e.Action {
		case ActionCreate:
			creates = append(creates, e)
		case ActionModify:
			modifies = append(modifies, e)
		case ActionDelete:
			deletes = append(deletes, e)
		}
	}

	// Phase 1: creates, manifest order (entries already carry manifest order).
	for _, e := range creates {
		addr := e.Spec.Addr()
		syncer, ok := byAddr[addr]
		if !ok {
			return fmt.Errorf("no syncer registered for %s", addr)
		}
		props, err := syncer.Create(ctx)
		if err != nil {
			return &CreateFailedError{Label: e.Spec.Label, Name: e.Spec.LogicalName, Err: err}
		}
		state.Resources[addr] = ResourceRecord{
			ResourceType: e.Spec.TypeTag,
			ResourceID:   e.Spec.LogicalName,
			Status:       StatusCreated,
			Properties:   props,
		}
		if err := persistence.Flush(ctx, *state); err != nil {
			return err
		}
		log.Info().Str("addr", addr.String()).Msg("created")
	}

	// Phase 2: modifies, manifest order.
	for _, e := range modifies {
		addr := e.Spec.Addr()
		syncer, ok := byAddr[addr]
		if !ok {
			return fmt.Errorf("no syncer registered for %s", addr)
		}
		props, err := syncer.Update(ctx)
		if err != nil {
			return &UpdateFailedError{Label: e.Spec.Label, Name: e.Spec.LogicalName, Err: err}
		}
		rec := state.Resources[addr]
		rec.ResourceType = e.Spec.TypeTag
		rec.ResourceID = e.Spec.LogicalName
		rec.Status = StatusUpdated
		rec.Properties = props
		state.Resources[addr] = rec
		if err := persistence.Flush(ctx, *state); err != nil {
			return err
		}
		log.Info().Str("addr", addr.String()).Msg("updated")
	}

	// Phase 3: deletes, reverse order, orphans included. entries preserves
	// manifest order for non-orphans and appends orphans last; reversing the
	// whole delete slice therefore runs orphans first, exactly as §4.4 requires.
	for i := len(deletes) - 1; i >= 0; i-- {
		e := deletes[i]
		addr := e.Spec.Addr()
		if syncer, ok := byAddr[addr]; ok {
			if err := syncer.Destroy(ctx); err != nil {
				return &DeleteFailedError{Label: e.Spec.Label, Name: e.Spec.LogicalName, Err: err}
			}
		}
		delete(state.Resources, addr)
		if err := persistence.Flush(ctx, *state); err != nil {
			return err
		}
		log.Info().Str("addr", addr.String()).Msg("deleted")
	}

	version := uint32(ManifestVersion)
	state.ManifestVersion = &version
	return persistence.Flush(ctx, *state)
}

// DestroyAll tears down every resource that both has a syncer and is present
// in state, in reverse manifest order, then clears state entirely; state
// records with no syncer are dropped without any AWS call. Used for full
// teardown rather than a single reconciliation pass.
func DestroyAll(ctx context.Context, syncers []Syncer, state *ProvisionerState, persistence Persistence) error {
	for i := len(syncers) - 1; i >= 0; i-- {
		syncer := syncers[i]
		addr := syncer.Spec().Addr()
		if _, present := state.Resources[addr]; !present {
			continue
		}
		if err := syncer.Destroy(ctx); err != nil {
			return &DeleteFailedError{Label: syncer.Spec().Label, Name: syncer.Spec().LogicalName, Err: err}
		}
		delete(state.Resources, addr)
		if err := persistence.Flush(ctx, *state); err != nil {
			return err
		}
		log.Info().Str("addr", addr.String()).Msg("destroyed")
	}
	state.Resources = map[ResourceAddress]ResourceRecord{}
	state.ManifestVersion = nil
	return persistence.Flush(ctx, *state)
}
