package provisioner

import "context"

// Syncer is the polymorphic unit of the engine: it binds exactly one
// ResourceSpec to the AWS service client(s) needed to reconcile it. One
// concrete implementation exists per resource type tag under
// internal/provisioner/syncers.
type Syncer interface {
	// Spec returns the spec this syncer was built from.
	Spec() ResourceSpec

	// Read fetches the live AWS state for this resource. The second
	// return value is false when the resource does not exist; errors
	// are reserved for transport or access failures distinct from
	// not-found.
	Read(ctx context.Context) (properties map[string]any, exists bool, err error)

	// Diff is a pure function of the spec's desired value and a Read
	// result. An empty slice means "in sync".
	Diff(actual map[string]any) []FieldDrift

	// Create must be idempotent: AlreadyExists-class errors are treated
	// as success after a re-read.
	Create(ctx context.Context) (properties map[string]any, err error)

	// Update must be idempotent and convergent: applying it twice with
	// the same spec is equivalent to applying it once.
	Update(ctx context.Context) (properties map[string]any, err error)

	// Destroy must be idempotent against not-found and safe to call on
	// partially-created resources.
	Destroy(ctx context.Context) error
}
