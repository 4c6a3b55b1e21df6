package samples

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound means the referenced sample does not exist.
	ErrNotFound = errors.New("sample not found")

	// ErrConflict means a concurrent update won the compare-and-swap. The
	// service retries once with a fresh read before surfacing it.
	ErrConflict = errors.New("sample was modified concurrently")
)

// AuthorizationError rejects an edit that touches locked fields while the
// sample has validated results. The whole update fails; RejectedFields names
// every offending field so the caller knows exactly what was blocked.
type AuthorizationError struct {
	RejectedFields []FieldName
}

func (e *AuthorizationError) Error() string {
	names := make([]string, len(e.RejectedFields))
	for i, f := range e.RejectedFields {
		names[i] = string(f)
	}
	return fmt.Sprintf("sample has validated results; fields locked: %s", strings.Join(names, ", "))
}

// ValidationError rejects a write missing required fields. Nothing is
// persisted.
type ValidationError struct {
	Missing []FieldName
}

func (e *ValidationError) Error() string {
	names := make([]string, len(e.Missing))
	for i, f := range e.Missing {
		names[i] = string(f)
	}
	return fmt.Sprintf("missing required fields: %s", strings.Join(names, ", "))
}
