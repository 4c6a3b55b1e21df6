package results

import "errors"

var (
	// ErrNotFound means the referenced result does not exist.
	ErrNotFound = errors.New("result not found")

	// ErrConflict means a concurrent update won the compare-and-swap.
	ErrConflict = errors.New("result was modified concurrently")

	// ErrValidatedLocked rejects edits to a validated result by anyone
	// without the validator role.
	ErrValidatedLocked = errors.New("result is validated and locked")

	// ErrValidatorRole rejects a validation attempt (or a validated_by
	// change) by a caller without the validator role.
	ErrValidatorRole = errors.New("validator role required")

	// ErrNotCompleted rejects validating a result that has not been
	// submitted yet.
	ErrNotCompleted = errors.New("only completed results can be validated")
)
