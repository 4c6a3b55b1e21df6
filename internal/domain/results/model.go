package results

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Status is the result lifecycle state. pending → completed → validated;
// validated is terminal for everyone but validators.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusValidated Status = "validated"
)

// Classification is the analytical outcome of a test.
type Classification string

const (
	ClassificationPositive     Classification = "positive"
	ClassificationNegative     Classification = "negative"
	ClassificationInconclusive Classification = "inconclusive"
)

var validClassifications = map[Classification]bool{
	ClassificationPositive:     true,
	ClassificationNegative:     true,
	ClassificationInconclusive: true,
}

// ValidClassification reports whether c is a known classification.
func ValidClassification(c Classification) bool {
	return validClassifications[c]
}

// Result is the outcome of performing one SampleTest. Findings holds the
// encoded per-area payload as persisted JSON; nil until a complete draft is
// encoded. ValidatedBy and ValidatedAt are always set and cleared together.
type Result struct {
	ID           uuid.UUID `db:"id" json:"id"`
	SampleID     uuid.UUID `db:"sample_id" json:"sample_id"`
	SampleTestID uuid.UUID `db:"sample_test_id" json:"sample_test_id"`
	Status       Status    `db:"status" json:"status"`

	Classification  *Classification `db:"classification" json:"classification,omitempty"`
	Severity        *string         `db:"severity" json:"severity,omitempty"`
	Confidence      *string         `db:"confidence" json:"confidence,omitempty"`
	Diagnosis       *string         `db:"diagnosis" json:"diagnosis,omitempty"`
	Conclusion      *string         `db:"conclusion" json:"conclusion,omitempty"`
	Recommendations *string         `db:"recommendations" json:"recommendations,omitempty"`

	Findings json.RawMessage `db:"findings" json:"findings,omitempty"`

	PerformedBy *string    `db:"performed_by" json:"performed_by,omitempty"`
	PerformedAt *time.Time `db:"performed_at" json:"performed_at,omitempty"`
	ValidatedBy *string    `db:"validated_by" json:"validated_by,omitempty"`
	ValidatedAt *time.Time `db:"validated_at" json:"validated_at,omitempty"`

	VersionID int       `db:"version_id" json:"version_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
