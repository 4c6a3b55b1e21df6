package samples

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Service implements sample intake, gated edits, the status machine, and the
// cascading purge. Every mutation runs read → authorize → compute → CAS
// write; a lost CAS is retried once with a fresh read and authorization.
type Service struct {
	repo   Repository
	logger zerolog.Logger
	now    func() time.Time
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// Create performs intake: required-field validation, due-date computation,
// and the initial `received` status. Requested tests are attached here and
// are immutable afterwards.
func (s *Service) Create(ctx context.Context, sample *Sample, tests []*SampleTest) error {
	if sample.SLAType == "" {
		sample.SLAType = SLANormal
	}
	if sample.SLAType != SLANormal && sample.SLAType != SLAExpress {
		return fmt.Errorf("unknown sla_type %q", sample.SLAType)
	}
	if missing := MissingRequired(sample); len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}

	sample.DueDate = DueDate(sample.ReceivedDate, sample.SLAType)
	sample.Status = StatusReceived
	sample.SLAStatus = DeriveSLAStatus(sample.DueDate, s.now(), false)

	if err := s.repo.Create(ctx, sample, tests); err != nil {
		return err
	}
	s.logger.Info().
		Str("sample_id", sample.ID.String()).
		Str("code", sample.Code).
		Str("sla_type", string(sample.SLAType)).
		Time("due_date", sample.DueDate).
		Msg("sample received")
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Sample, error) {
	return s.repo.GetByID(ctx, id)
}

// View is the full sample read: the row plus its requested tests, audit
// trail, and the live validated-results flag.
type View struct {
	Sample              *Sample             `json:"sample"`
	Tests               []*SampleTest       `json:"tests"`
	Transitions         []*StatusTransition `json:"transitions"`
	HasValidatedResults bool                `json:"has_validated_results"`
}

func (s *Service) GetView(ctx context.Context, id uuid.UUID) (*View, error) {
	sample, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	tests, err := s.repo.ListTests(ctx, id)
	if err != nil {
		return nil, err
	}
	transitions, err := s.repo.ListTransitions(ctx, id)
	if err != nil {
		return nil, err
	}
	hasValidated, err := s.repo.HasValidatedResults(ctx, id)
	if err != nil {
		return nil, err
	}
	return &View{Sample: sample, Tests: tests, Transitions: transitions, HasValidatedResults: hasValidated}, nil
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Sample, int, error) {
	items, total, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	now := s.now()
	for _, it := range items {
		it.SLAStatus = DeriveSLAStatus(it.DueDate, now, it.Status == StatusCompleted)
	}
	return items, total, nil
}

// Update applies a gated partial edit. Locked fields are rejected in full
// while validated results exist; required fields must survive the patch; a
// due-date recompute rides along whenever received_date or sla_type changes.
func (s *Service) Update(ctx context.Context, id uuid.UUID, patch *Patch, actor string) (*Sample, error) {
	if patch.Status != nil && !ValidStatus(*patch.Status) {
		return nil, fmt.Errorf("unknown status %q", *patch.Status)
	}
	if patch.SLAType != nil && *patch.SLAType != SLANormal && *patch.SLAType != SLAExpress {
		return nil, fmt.Errorf("unknown sla_type %q", *patch.SLAType)
	}

	for attempt := 0; ; attempt++ {
		updated, err := s.applyUpdate(ctx, id, patch, actor)
		if errors.Is(err, ErrConflict) && attempt == 0 {
			s.logger.Warn().Str("sample_id", id.String()).Msg("concurrent sample update, retrying")
			continue
		}
		return updated, err
	}
}

func (s *Service) applyUpdate(ctx context.Context, id uuid.UUID, patch *Patch, actor string) (*Sample, error) {
	cur, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	hasValidated, err := s.repo.HasValidatedResults(ctx, id)
	if err != nil {
		return nil, err
	}

	if rejected := BuildAuthorizedPatch(patch, hasValidated); len(rejected) > 0 {
		return nil, &AuthorizationError{RejectedFields: rejected}
	}

	next := *cur
	patch.Apply(&next)

	if !next.ReceivedDate.Equal(cur.ReceivedDate) || next.SLAType != cur.SLAType {
		next.DueDate = DueDate(next.ReceivedDate, next.SLAType)
	}
	next.SLAStatus = DeriveSLAStatus(next.DueDate, s.now(), next.Status == StatusCompleted)

	if !hasValidated {
		if missing := MissingRequired(&next); len(missing) > 0 {
			return nil, &ValidationError{Missing: missing}
		}
	}

	var transition *StatusTransition
	if next.Status != cur.Status {
		transition = &StatusTransition{
			SampleID:   id,
			FromStatus: cur.Status,
			ToStatus:   next.Status,
			ByUser:     actor,
		}
	}

	touchesLocked := false
	for _, f := range patch.Fields() {
		if fieldCaps[f].LockedWhenValidated {
			touchesLocked = true
			break
		}
	}

	if err := s.repo.Update(ctx, &next, cur.VersionID, transition, touchesLocked && !hasValidated); err != nil {
		return nil, err
	}
	return &next, nil
}

// ChangeStatus moves the sample to a new workflow status, appending exactly
// one transition record in the same write. A same-status call is a no-op and
// appends nothing.
func (s *Service) ChangeStatus(ctx context.Context, id uuid.UUID, to Status, reason *string, actor string) (*Sample, error) {
	if !ValidStatus(to) {
		return nil, fmt.Errorf("unknown status %q", to)
	}

	for attempt := 0; ; attempt++ {
		cur, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if cur.Status == to {
			return cur, nil
		}

		next := *cur
		next.Status = to
		next.SLAStatus = DeriveSLAStatus(next.DueDate, s.now(), to == StatusCompleted)
		transition := &StatusTransition{
			SampleID:   id,
			FromStatus: cur.Status,
			ToStatus:   to,
			ByUser:     actor,
			Reason:     reason,
		}

		err = s.repo.Update(ctx, &next, cur.VersionID, transition, false)
		if errors.Is(err, ErrConflict) && attempt == 0 {
			continue
		}
		if err != nil {
			return nil, err
		}
		s.logger.Info().
			Str("sample_id", id.String()).
			Str("from", string(cur.Status)).
			Str("to", string(to)).
			Str("by", actor).
			Msg("sample status changed")
		return &next, nil
	}
}

// Delete purges the sample and all dependents in one transaction.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Purge(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Str("sample_id", id.String()).Msg("sample purged")
	return nil
}

func (s *Service) ListTransitions(ctx context.Context, id uuid.UUID) ([]*StatusTransition, error) {
	return s.repo.ListTransitions(ctx, id)
}

func (s *Service) HasValidatedResults(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.repo.HasValidatedResults(ctx, id)
}
