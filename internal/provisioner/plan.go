package provisioner

import (
	"context"
	"sort"
)

// Action is the reconciliation verb the planner assigns a spec.
type Action string

const (
	ActionOk                 Action = "ok"
	ActionCreate             Action = "create"
	ActionModify             Action = "modify"
	ActionDelete             Action = "delete"
	ActionPreconditionFailed Action = "precondition_failed"
)

// Cause is why the planner chose a given Action.
type Cause string

const (
	CauseInSync         Cause = "in_sync"
	CauseFirstProvision Cause = "first_provision"
	CauseDrift          Cause = "drift"
	CauseManifestChange Cause = "manifest_changed"
	CauseOrphaned       Cause = "orphaned"
)

// PlanEntry is one line of a computed plan. The embedded spec makes the
// entry self-describing: callers never need a second lookup by address.
type PlanEntry struct {
	Spec   ResourceSpec `json:"spec"`
	Action Action       `json:"action"`
	Cause  Cause        `json:"cause"`
	Drift  []FieldDrift `json:"drift,omitempty"`
}

// Plan walks every syncer in order, reads its live AWS state, diffs it
// against the spec, and emits one PlanEntry per syncer plus one per orphaned
// state record. It performs no mutations and its output depends only on
// (syncers, state, and the AWS reads it performs).
func Plan(ctx context.Context, syncers []Syncer, state ProvisionerState) ([]PlanEntry, error) {
	manifestUpgraded := state.ManifestVersion == nil || *state.ManifestVersion < ManifestVersion
	knownAddrs := make(map[ResourceAddress]struct{}, len(state.Resources))
	for addr := range state.Resources {
		knownAddrs[addr] = struct{}{}
	}

	entries := make([]PlanEntry, 0, len(syncers)+1)
	seen := make(map[ResourceAddress]struct{}, len(syncers))

	for _, syncer := range syncers {
		spec := syncer.Spec()
		addr := spec.Addr()
		seen[addr] = struct{}{}

		actual, exists, err := syncer.Read(ctx)
		if err != nil {
			return nil, &AwsError{Message: "reading " + spec.Label, Err: err}
		}

		switch {
		case spec.Lifecycle == LifecycleData && !exists:
			entries = append(entries, PlanEntry{Spec: spec, Action: ActionPreconditionFailed, Cause: CauseDrift})

		case spec.Lifecycle == LifecycleData && exists:
			drift := syncer.Diff(actual)
			if len(drift) == 0 {
				entries = append(entries, PlanEntry{Spec: spec, Action: ActionOk, Cause: CauseInSync})
			} else {
				cause := CauseDrift
				if manifestUpgraded {
					cause = CauseManifestChange
				}
				entries = append(entries, PlanEntry{Spec: spec, Action: ActionPreconditionFailed, Cause: cause, Drift: drift})
			}

		case spec.Lifecycle == LifecycleManaged && !exists:
			cause := CauseFirstProvision
			if _, known := knownAddrs[addr]; manifestUpgraded && !known {
				cause = CauseManifestChange
			}
			entries = append(entries, PlanEntry{Spec: spec, Action: ActionCreate, Cause: cause})

		default: // Managed && exists
			drift := syncer.Diff(actual)
			if len(drift) == 0 {
				entries = append(entries, PlanEntry{Spec: spec, Action: ActionOk, Cause: CauseInSync})
			} else {
				cause := CauseDrift
				if manifestUpgraded {
					cause = CauseManifestChange
				}
				entries = append(entries, PlanEntry{Spec: spec, Action: ActionModify, Cause: cause, Drift: drift})
			}
		}
	}

	orphans := make([]ResourceAddress, 0)
	for addr := range state.Resources {
		if _, inManifest := seen[addr]; inManifest {
			continue
		}
		orphans = append(orphans, addr)
	}
	sort.Slice(orphans, func(i, j int) bool { return orphans[i].String() < orphans[j].String() })
	for _, addr := range orphans {
		entries = append(entries, PlanEntry{Spec: orphanSpec(addr), Action: ActionDelete, Cause: CauseOrphaned})
	}

	return entries, nil
}
