package results

import (
	"context"

	"github.com/google/uuid"

	"github.com/labtrack/labtrack/internal/domain/findings"
)

// Repository persists results. Update is a compare-and-swap keyed on
// version_id and returns ErrConflict when the expected version is stale.
type Repository interface {
	Create(ctx context.Context, r *Result) error
	GetByID(ctx context.Context, id uuid.UUID) (*Result, error)
	ListBySample(ctx context.Context, sampleID uuid.UUID) ([]*Result, error)
	Update(ctx context.Context, r *Result, expectedVersion int) error
	Delete(ctx context.Context, id uuid.UUID) error

	// AreaForSampleTest resolves the analysis area of the catalog test a
	// sample-test refers to; findings encoding dispatches on it.
	AreaForSampleTest(ctx context.Context, sampleTestID uuid.UUID) (findings.Area, error)
}
