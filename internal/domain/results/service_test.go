package results

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/labtrack/labtrack/internal/domain/findings"
	"github.com/labtrack/labtrack/internal/platform/auth"
)

type mockRepo struct {
	results map[uuid.UUID]*Result
	areas   map[uuid.UUID]findings.Area

	updateCalls   int
	conflictsLeft int
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		results: make(map[uuid.UUID]*Result),
		areas:   make(map[uuid.UUID]findings.Area),
	}
}

func (m *mockRepo) Create(_ context.Context, r *Result) error {
	r.ID = uuid.New()
	r.VersionID = 1
	cp := *r
	m.results[r.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Result, error) {
	r, ok := m.results[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *mockRepo) ListBySample(_ context.Context, sampleID uuid.UUID) ([]*Result, error) {
	var items []*Result
	for _, r := range m.results {
		if r.SampleID == sampleID {
			cp := *r
			items = append(items, &cp)
		}
	}
	return items, nil
}

func (m *mockRepo) Update(_ context.Context, r *Result, expectedVersion int) error {
	m.updateCalls++
	if m.conflictsLeft > 0 {
		m.conflictsLeft--
		return ErrConflict
	}
	cur, ok := m.results[r.ID]
	if !ok {
		return ErrNotFound
	}
	if cur.VersionID != expectedVersion {
		return ErrConflict
	}
	cp := *r
	cp.VersionID = expectedVersion + 1
	m.results[r.ID] = &cp
	r.VersionID = cp.VersionID
	return nil
}

func (m *mockRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.results[id]; !ok {
		return ErrNotFound
	}
	delete(m.results, id)
	return nil
}

func (m *mockRepo) AreaForSampleTest(_ context.Context, sampleTestID uuid.UUID) (findings.Area, error) {
	area, ok := m.areas[sampleTestID]
	if !ok {
		return findings.AreaUnknown, ErrNotFound
	}
	return area, nil
}

type staticLookups struct{ lk findings.Lookups }

func (s staticLookups) Lookups(_ context.Context) (findings.Lookups, error) {
	return s.lk, nil
}

func testLookups() findings.Lookups {
	return findings.Lookups{
		Methods: map[string]string{"m1": "ELISA"},
		Analytes: map[string]map[string]string{
			findings.CategoryVirus: {"v1": "Potato virus Y"},
		},
	}
}

func newTestService(repo *mockRepo) *Service {
	svc := NewService(repo, staticLookups{lk: testLookups()}, zerolog.Nop())
	svc.now = func() time.Time { return time.Date(2024, time.February, 1, 10, 0, 0, 0, time.UTC) }
	return svc
}

func ctxWithRoles(roles ...string) context.Context {
	ctx := context.WithValue(context.Background(), auth.UserIDKey, "user-1")
	return context.WithValue(ctx, auth.UserRolesKey, roles)
}

func pendingResult(t *testing.T, svc *Service, repo *mockRepo) *Result {
	t.Helper()
	r := &Result{SampleID: uuid.New(), SampleTestID: uuid.New()}
	if err := svc.Create(context.Background(), r, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return r
}

func completedResult(t *testing.T, svc *Service, repo *mockRepo) *Result {
	t.Helper()
	r := pendingResult(t, svc, repo)
	completed := StatusCompleted
	updated, err := svc.Update(ctxWithRoles(auth.RoleTechnician), r.ID, &Patch{Status: &completed}, "tech-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return updated
}

func TestCreate_StartsPending(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)

	r := pendingResult(t, svc, repo)
	if r.Status != StatusPending {
		t.Errorf("status = %q, want pending", r.Status)
	}
	if r.ValidatedBy != nil || r.ValidatedAt != nil {
		t.Error("new results must not carry validation stamps")
	}
}

func TestCreate_EncodesCompleteDraft(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)

	sampleTestID := uuid.New()
	repo.areas[sampleTestID] = findings.AreaVirology

	r := &Result{SampleID: uuid.New(), SampleTestID: sampleTestID}
	draft := &findings.Draft{
		Virology: []findings.VirologyRow{
			{Identification: "leaf-1", Method: "m1", Virus: "v1", Result: "positive"},
		},
	}
	if err := svc.Create(context.Background(), r, draft); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(r.Findings) == 0 {
		t.Fatal("expected encoded findings")
	}

	var f findings.Findings
	if err := json.Unmarshal(r.Findings, &f); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Type != findings.TypeVirology {
		t.Errorf("type = %q", f.Type)
	}
	if len(f.Virology) != 1 || f.Virology[0].Method != "ELISA" || f.Virology[0].Virus != "Potato virus Y" {
		t.Errorf("unexpected rows: %+v", f.Virology)
	}
}

func TestCreate_IncompleteDraftLeavesFindingsNull(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)

	sampleTestID := uuid.New()
	repo.areas[sampleTestID] = findings.AreaVirology

	r := &Result{SampleID: uuid.New(), SampleTestID: sampleTestID}
	draft := &findings.Draft{
		Virology: []findings.VirologyRow{{Method: "m1"}}, // no virus, no result
	}
	if err := svc.Create(context.Background(), r, draft); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Findings != nil {
		t.Errorf("expected nil findings, got %s", r.Findings)
	}
}

func TestUpdate_SubmitStampsPerformer(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)
	r := pendingResult(t, svc, repo)

	completed := StatusCompleted
	updated, err := svc.Update(ctxWithRoles(auth.RoleTechnician), r.ID, &Patch{Status: &completed}, "tech-7")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != StatusCompleted {
		t.Errorf("status = %q", updated.Status)
	}
	if updated.PerformedBy == nil || *updated.PerformedBy != "tech-7" {
		t.Errorf("performed_by = %v", updated.PerformedBy)
	}
	if updated.PerformedAt == nil {
		t.Error("performed_at not stamped")
	}
}

func TestUpdate_RejectsValidatedForNonValidators(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)
	r := completedResult(t, svc, repo)
	if _, err := svc.Validate(ctxWithRoles(auth.RoleValidator), r.ID, "val-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	diag := "late edit"
	_, err := svc.Update(ctxWithRoles(auth.RoleTechnician), r.ID, &Patch{Diagnosis: &diag}, "tech-1")
	if !errors.Is(err, ErrValidatedLocked) {
		t.Fatalf("expected ErrValidatedLocked, got %v", err)
	}
}

func TestUpdate_ValidatorMayEditValidated(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)
	r := completedResult(t, svc, repo)
	if _, err := svc.Validate(ctxWithRoles(auth.RoleValidator), r.ID, "val-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	diag := "confirmed"
	updated, err := svc.Update(ctxWithRoles(auth.RoleValidator), r.ID, &Patch{Diagnosis: &diag}, "val-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Diagnosis == nil || *updated.Diagnosis != "confirmed" {
		t.Errorf("diagnosis = %v", updated.Diagnosis)
	}
}

func TestUpdate_RejectsStatusValidated(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)
	r := completedResult(t, svc, repo)

	validated := StatusValidated
	if _, err := svc.Update(ctxWithRoles(auth.RoleValidator), r.ID, &Patch{Status: &validated}, "val-1"); err == nil {
		t.Fatal("expected error: validation must go through Validate")
	}
}

func TestValidate_StampsBothOrNeither(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)
	r := completedResult(t, svc, repo)

	validated, err := svc.Validate(ctxWithRoles(auth.RoleValidator), r.ID, "val-9")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if validated.Status != StatusValidated {
		t.Errorf("status = %q", validated.Status)
	}
	if validated.ValidatedBy == nil || *validated.ValidatedBy != "val-9" {
		t.Errorf("validated_by = %v", validated.ValidatedBy)
	}
	if validated.ValidatedAt == nil {
		t.Fatal("validated_at not stamped")
	}
	if !validated.ValidatedAt.Equal(time.Date(2024, time.February, 1, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("validated_at = %v", validated.ValidatedAt)
	}
}

func TestValidate_RequiresValidatorRole(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)
	r := completedResult(t, svc, repo)

	_, err := svc.Validate(ctxWithRoles(auth.RoleTechnician), r.ID, "tech-1")
	if !errors.Is(err, ErrValidatorRole) {
		t.Fatalf("expected ErrValidatorRole, got %v", err)
	}
}

func TestValidate_AdminPasses(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)
	r := completedResult(t, svc, repo)

	if _, err := svc.Validate(ctxWithRoles(auth.RoleAdmin), r.ID, "admin-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_RejectsPending(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)
	r := pendingResult(t, svc, repo)

	_, err := svc.Validate(ctxWithRoles(auth.RoleValidator), r.ID, "val-1")
	if !errors.Is(err, ErrNotCompleted) {
		t.Fatalf("expected ErrNotCompleted, got %v", err)
	}
}

func TestValidate_Idempotent(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)
	r := completedResult(t, svc, repo)

	first, err := svc.Validate(ctxWithRoles(auth.RoleValidator), r.ID, "val-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := svc.Validate(ctxWithRoles(auth.RoleValidator), r.ID, "val-2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *second.ValidatedBy != *first.ValidatedBy {
		t.Errorf("re-validation replaced validated_by: %q", *second.ValidatedBy)
	}
}

func TestUpdate_ClearingValidatorClearsTimestamp(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)
	r := completedResult(t, svc, repo)
	if _, err := svc.Validate(ctxWithRoles(auth.RoleValidator), r.ID, "val-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	empty := ""
	updated, err := svc.Update(ctxWithRoles(auth.RoleValidator), r.ID, &Patch{ValidatedBy: &empty}, "val-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.ValidatedBy != nil {
		t.Errorf("validated_by = %v, want cleared", updated.ValidatedBy)
	}
	if updated.ValidatedAt != nil {
		t.Errorf("validated_at = %v, want cleared with validated_by", updated.ValidatedAt)
	}
}

func TestUpdate_NonValidatorCannotTouchValidatedBy(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)
	r := pendingResult(t, svc, repo)

	who := "tech-1"
	_, err := svc.Update(ctxWithRoles(auth.RoleTechnician), r.ID, &Patch{ValidatedBy: &who}, "tech-1")
	if !errors.Is(err, ErrValidatorRole) {
		t.Fatalf("expected ErrValidatorRole, got %v", err)
	}
}

func TestUpdate_RetriesOnceOnConflict(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)
	r := pendingResult(t, svc, repo)
	repo.conflictsLeft = 1

	diag := "x"
	if _, err := svc.Update(ctxWithRoles(auth.RoleTechnician), r.ID, &Patch{Diagnosis: &diag}, "tech-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.updateCalls != 2 {
		t.Errorf("update calls = %d, want 2", repo.updateCalls)
	}
}

func TestHasValidated_TracksDeleteAndCascade(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)
	r := completedResult(t, svc, repo)
	if _, err := svc.Validate(ctxWithRoles(auth.RoleValidator), r.ID, "val-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	list, err := svc.ListBySample(context.Background(), r.SampleID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != 1 || list[0].Status != StatusValidated {
		t.Fatalf("unexpected list: %+v", list)
	}

	if err := svc.Delete(context.Background(), r.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	list, err = svc.ListBySample(context.Background(), r.SampleID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("expected no results after delete, got %d", len(list))
	}
}
