package results

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/labtrack/labtrack/internal/domain/findings"
	"github.com/labtrack/labtrack/internal/platform/auth"
)

// LookupSource supplies the fully loaded method/analyte tables. Findings are
// only encoded against a complete table set, so encode paths always fetch
// lookups first and abort on failure.
type LookupSource interface {
	Lookups(ctx context.Context) (findings.Lookups, error)
}

// Service implements the result lifecycle: creation in pending, gated edits,
// submission, and the privileged validation transition.
type Service struct {
	repo    Repository
	lookups LookupSource
	logger  zerolog.Logger
	now     func() time.Time
}

func NewService(repo Repository, lookups LookupSource, logger zerolog.Logger) *Service {
	return &Service{repo: repo, lookups: lookups, logger: logger, now: time.Now}
}

// Patch carries a partial result update. Status may only move between
// pending and completed here; validation goes through Validate. Setting
// ValidatedBy to the empty string clears the validator stamp, and
// validated_at with it.
type Patch struct {
	Classification  *Classification `json:"classification"`
	Severity        *string         `json:"severity"`
	Confidence      *string         `json:"confidence"`
	Diagnosis       *string         `json:"diagnosis"`
	Conclusion      *string         `json:"conclusion"`
	Recommendations *string         `json:"recommendations"`
	Status          *Status         `json:"status"`
	ValidatedBy     *string         `json:"validated_by"`

	Draft *findings.Draft `json:"draft"`
}

// Create registers a result in pending. A supplied draft is encoded right
// away; an incomplete draft leaves findings null without failing the create.
func (s *Service) Create(ctx context.Context, r *Result, draft *findings.Draft) error {
	if r.SampleID == uuid.Nil || r.SampleTestID == uuid.Nil {
		return fmt.Errorf("sample_id and sample_test_id are required")
	}
	if r.Classification != nil && !ValidClassification(*r.Classification) {
		return fmt.Errorf("unknown classification %q", *r.Classification)
	}

	r.Status = StatusPending
	r.ValidatedBy = nil
	r.ValidatedAt = nil

	if draft != nil {
		encoded, err := s.encodeFindings(ctx, r.SampleTestID, draft)
		if err != nil {
			return err
		}
		r.Findings = encoded
	}

	if err := s.repo.Create(ctx, r); err != nil {
		return err
	}
	s.logger.Info().
		Str("result_id", r.ID.String()).
		Str("sample_id", r.SampleID.String()).
		Msg("result created")
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Result, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListBySample(ctx context.Context, sampleID uuid.UUID) ([]*Result, error) {
	return s.repo.ListBySample(ctx, sampleID)
}

// Update applies a gated partial edit. Validated results reject every edit
// from non-validators; pending→completed stamps performed_by/performed_at on
// first submission.
func (s *Service) Update(ctx context.Context, id uuid.UUID, patch *Patch, actor string) (*Result, error) {
	if patch.Status != nil && *patch.Status != StatusPending && *patch.Status != StatusCompleted {
		return nil, fmt.Errorf("status must move through the validate operation to become %q", *patch.Status)
	}
	if patch.Classification != nil && !ValidClassification(*patch.Classification) {
		return nil, fmt.Errorf("unknown classification %q", *patch.Classification)
	}

	isValidator := auth.HasRole(ctx, auth.RoleValidator)
	if patch.ValidatedBy != nil && !isValidator {
		return nil, ErrValidatorRole
	}

	for attempt := 0; ; attempt++ {
		updated, err := s.applyUpdate(ctx, id, patch, actor, isValidator)
		if errors.Is(err, ErrConflict) && attempt == 0 {
			continue
		}
		return updated, err
	}
}

func (s *Service) applyUpdate(ctx context.Context, id uuid.UUID, patch *Patch, actor string, isValidator bool) (*Result, error) {
	cur, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if cur.Status == StatusValidated && !isValidator {
		return nil, ErrValidatedLocked
	}

	next := *cur
	if patch.Classification != nil {
		next.Classification = patch.Classification
	}
	if patch.Severity != nil {
		next.Severity = patch.Severity
	}
	if patch.Confidence != nil {
		next.Confidence = patch.Confidence
	}
	if patch.Diagnosis != nil {
		next.Diagnosis = patch.Diagnosis
	}
	if patch.Conclusion != nil {
		next.Conclusion = patch.Conclusion
	}
	if patch.Recommendations != nil {
		next.Recommendations = patch.Recommendations
	}

	if patch.Draft != nil {
		encoded, err := s.encodeFindings(ctx, next.SampleTestID, patch.Draft)
		if err != nil {
			return nil, err
		}
		if encoded != nil {
			next.Findings = encoded
		}
	}

	if patch.Status != nil && *patch.Status != cur.Status {
		next.Status = *patch.Status
		if next.Status == StatusCompleted && next.PerformedBy == nil {
			now := s.now()
			next.PerformedBy = &actor
			next.PerformedAt = &now
		}
	}

	if patch.ValidatedBy != nil {
		if *patch.ValidatedBy == "" {
			// Clearing the validator clears the timestamp with it.
			next.ValidatedBy = nil
			next.ValidatedAt = nil
		} else {
			next.ValidatedBy = patch.ValidatedBy
		}
	}

	if err := s.repo.Update(ctx, &next, cur.VersionID); err != nil {
		return nil, err
	}
	return &next, nil
}

// Validate promotes a completed result. The caller must hold the validator
// role; validated_by defaults to the acting user and validated_at to now,
// stamped together, when not already set.
func (s *Service) Validate(ctx context.Context, id uuid.UUID, actor string) (*Result, error) {
	if !auth.HasRole(ctx, auth.RoleValidator) {
		return nil, ErrValidatorRole
	}

	for attempt := 0; ; attempt++ {
		cur, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if cur.Status == StatusValidated {
			return cur, nil
		}
		if cur.Status != StatusCompleted {
			return nil, ErrNotCompleted
		}

		next := *cur
		next.Status = StatusValidated
		if next.ValidatedBy == nil {
			now := s.now()
			next.ValidatedBy = &actor
			next.ValidatedAt = &now
		} else if next.ValidatedAt == nil {
			now := s.now()
			next.ValidatedAt = &now
		}

		err = s.repo.Update(ctx, &next, cur.VersionID)
		if errors.Is(err, ErrConflict) && attempt == 0 {
			continue
		}
		if err != nil {
			return nil, err
		}
		s.logger.Info().
			Str("result_id", id.String()).
			Str("validated_by", *next.ValidatedBy).
			Msg("result validated")
		return &next, nil
	}
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

// RenderFindings decodes a result's persisted findings into the structured
// table shape used by report views.
func (s *Service) RenderFindings(ctx context.Context, id uuid.UUID) (*findings.Table, error) {
	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(r.Findings) == 0 {
		return nil, nil
	}
	return findings.Render(r.Findings)
}

func (s *Service) encodeFindings(ctx context.Context, sampleTestID uuid.UUID, draft *findings.Draft) (json.RawMessage, error) {
	area, err := s.repo.AreaForSampleTest(ctx, sampleTestID)
	if err != nil {
		return nil, err
	}
	lk, err := s.lookups.Lookups(ctx)
	if err != nil {
		return nil, fmt.Errorf("load lookups: %w", err)
	}
	f := findings.Encode(area, *draft, lk)
	if f == nil {
		return nil, nil
	}
	return json.Marshal(f)
}
