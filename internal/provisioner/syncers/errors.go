package syncers

import "errors"

// errNotAutomatable wraps a fixed operator-facing message for legal or
// marketplace actions AWS does not expose a programmatic path for.
func errNotAutomatable(msg string) error {
	return errors.New(msg)
}

// isErrAs is a small errors.As wrapper so create/destroy paths can treat a
// handful of AlreadyExists/NotFound service exceptions as success without
// repeating the errors.As boilerplate at every call site.
func isErrAs(err error, target any) bool {
	return errors.As(err, target)
}
