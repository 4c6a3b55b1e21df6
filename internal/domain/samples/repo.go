package samples

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists samples, their requested tests, and the status audit
// trail. Update is a compare-and-swap keyed on version_id; implementations
// must apply the row update, the optional transition append, and the
// validated-results re-check as one atomic unit.
type Repository interface {
	Create(ctx context.Context, s *Sample, tests []*SampleTest) error
	GetByID(ctx context.Context, id uuid.UUID) (*Sample, error)
	List(ctx context.Context, limit, offset int) ([]*Sample, int, error)

	// Update writes s where version_id = expectedVersion, appending
	// transition when non-nil. When recheckUnlocked is set the write only
	// proceeds if the sample still has no validated results; a stale
	// authorization surfaces as ErrConflict so the caller re-authorizes.
	Update(ctx context.Context, s *Sample, expectedVersion int, transition *StatusTransition, recheckUnlocked bool) error

	// Purge deletes the sample and every dependent child record,
	// child-before-parent, in a single transaction.
	Purge(ctx context.Context, id uuid.UUID) error

	ListTests(ctx context.Context, sampleID uuid.UUID) ([]*SampleTest, error)
	ListTransitions(ctx context.Context, sampleID uuid.UUID) ([]*StatusTransition, error)
	HasValidatedResults(ctx context.Context, sampleID uuid.UUID) (bool, error)
}
