package access

import (
	"errors"
	"fmt"
)

// ErrAccessDenied means the object exists but is outside the actor's scope.
// Callers that must not leak existence may map it to a not-found response,
// but inside the core the distinction is kept for auditing.
var ErrAccessDenied = errors.New("access denied")

// PermissionError is returned when a role/permission check fails. It names
// the missing permission and nothing else, so surfacing it to a client never
// reveals scope internals.
type PermissionError struct {
	Action   Action
	Resource Resource
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("insufficient permissions: %s on %s", e.Action, e.Resource)
}

// ErrInsufficientPermissions matches any PermissionError via errors.Is.
var ErrInsufficientPermissions = errors.New("insufficient permissions")

func (e *PermissionError) Is(target error) bool {
	return target == ErrInsufficientPermissions
}
