package followups

import (
	"context"
	"testing"
	"time"

	"adoption-manager/internal/apperr"
)

// -------------------------
// Fakes (in-memory)
// -------------------------

type fakeRepo struct {
	byID map[string]FollowUp
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{byID: map[string]FollowUp{}}
}

func (r *fakeRepo) Create(ctx context.Context, f FollowUp) error {
	r.byID[f.ID] = f
	return nil
}

func (r *fakeRepo) GetByID(ctx context.Context, id string) (FollowUp, error) {
	f, ok := r.byID[id]
	if !ok {
		return FollowUp{}, ErrNotFound
	}
	return f, nil
}

func (r *fakeRepo) List(ctx context.Context, filter ListFilter) ([]FollowUp, error) {
	out := make([]FollowUp, 0)
	for _, f := range r.byID {
		if filter.AdoptionID != "" && f.AdoptionID != filter.AdoptionID {
			continue
		}
		out = append(out, f)
	}
	return out, nil
}

func (r *fakeRepo) Update(ctx context.Context, f FollowUp) error {
	if _, ok := r.byID[f.ID]; !ok {
		return ErrNotFound
	}
	r.byID[f.ID] = f
	return nil
}

func (r *fakeRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.byID[id]; !ok {
		return ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

type fakeDirectory struct {
	existing map[string]bool
}

func (d *fakeDirectory) Exists(ctx context.Context, adoptionID string) (bool, error) {
	return d.existing[adoptionID], nil
}

type fakeTypes struct{}

func (fakeTypes) FollowUpTypeExists(ctx context.Context, code string) (bool, error) {
	switch Kind(code) {
	case KindHomeVisit, KindEmail, KindVirtualMeeting:
		return true, nil
	}
	return false, nil
}

func newTestService() (*Service, *fakeRepo, time.Time) {
	repo := newFakeRepo()
	dir := &fakeDirectory{existing: map[string]bool{"adoption-1": true}}
	svc := NewService(repo, dir, fakeTypes{})

	now := time.Date(2026, 2, 2, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	return svc, repo, now
}

// -------------------------
// Create
// -------------------------

func TestCreate_Active(t *testing.T) {
	svc, _, now := newTestService()

	scheduled := now.AddDate(0, 0, 3)
	f, err := svc.Create(context.Background(), CreateInput{
		AdoptionID:  "adoption-1",
		Kind:        KindEmail,
		ScheduledAt: &scheduled,
		Description: "primer contacto",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if f.ID == "" {
		t.Fatal("expected generated id")
	}
	if f.State != StateActive {
		t.Fatalf("expected active, got %s", f.State)
	}
	if f.ScheduledAt == nil || !f.ScheduledAt.Equal(scheduled) {
		t.Fatalf("unexpected schedule %v", f.ScheduledAt)
	}
	if !f.CreatedAt.Equal(now) {
		t.Fatalf("created_at not from clock: %v", f.CreatedAt)
	}
}

func TestCreate_UnknownKind(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Create(context.Background(), CreateInput{
		AdoptionID: "adoption-1",
		Kind:       Kind("telepatia"),
	})
	if !apperr.IsNotFound(err) {
		t.Fatalf("expected not-found, got %v", err)
	}
	if err.Error() != "Tipo de seguimiento no encontrado" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestCreate_AdoptionMissing(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Create(context.Background(), CreateInput{
		AdoptionID: "nope",
		Kind:       KindEmail,
	})
	if !apperr.IsNotFound(err) {
		t.Fatalf("expected not-found, got %v", err)
	}
	if err.Error() != "Adopcion no encontrada" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

// -------------------------
// Edit
// -------------------------

func TestEdit_OnlyScheduleAndDescription(t *testing.T) {
	svc, _, now := newTestService()

	f, err := svc.Create(context.Background(), CreateInput{
		AdoptionID:  "adoption-1",
		Kind:        KindHomeVisit,
		Description: "original",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	newSchedule := now.AddDate(0, 1, 0)
	edited, err := svc.Edit(context.Background(), f.ID, EditInput{
		ScheduledAt: &newSchedule,
		Description: "reprogramada",
	})
	if err != nil {
		t.Fatalf("edit: %v", err)
	}

	if edited.Description != "reprogramada" {
		t.Fatalf("unexpected description %q", edited.Description)
	}
	if edited.ScheduledAt == nil || !edited.ScheduledAt.Equal(newSchedule) {
		t.Fatalf("unexpected schedule %v", edited.ScheduledAt)
	}
	if edited.Kind != KindHomeVisit || edited.State != StateActive {
		t.Fatal("edit must not touch kind or state")
	}
}

func TestEdit_ClosedIsStillEditable(t *testing.T) {
	svc, _, _ := newTestService()

	f, err := svc.Create(context.Background(), CreateInput{AdoptionID: "adoption-1", Kind: KindEmail})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Close(context.Background(), f.ID, "ok"); err != nil {
		t.Fatalf("close: %v", err)
	}

	edited, err := svc.Edit(context.Background(), f.ID, EditInput{Description: "nota tardía"})
	if err != nil {
		t.Fatalf("edit closed: %v", err)
	}
	if edited.State != StateClosed {
		t.Fatal("edit must keep state closed")
	}
	if edited.Description != "nota tardía" {
		t.Fatalf("unexpected description %q", edited.Description)
	}
}

func TestEdit_NotFound(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Edit(context.Background(), "nope", EditInput{})
	if !apperr.IsNotFound(err) {
		t.Fatalf("expected not-found, got %v", err)
	}
	if err.Error() != "Seguimiento no encontrado" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

// -------------------------
// Close
// -------------------------

func TestClose_OneWay(t *testing.T) {
	svc, _, now := newTestService()

	f, err := svc.Create(context.Background(), CreateInput{AdoptionID: "adoption-1", Kind: KindVirtualMeeting})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	closed, err := svc.Close(context.Background(), f.ID, "visita realizada")
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if closed.State != StateClosed {
		t.Fatalf("expected closed, got %s", closed.State)
	}
	if closed.ClosingNote != "visita realizada" {
		t.Fatalf("unexpected note %q", closed.ClosingNote)
	}
	if closed.ClosedAt == nil || !closed.ClosedAt.Equal(now) {
		t.Fatalf("unexpected closed_at %v", closed.ClosedAt)
	}

	_, err = svc.Close(context.Background(), f.ID, "otra vez")
	if !apperr.IsInvalidState(err) {
		t.Fatalf("expected invalid-state, got %v", err)
	}
	if err.Error() != "Seguimiento ya fue cerrado" {
		t.Fatalf("unexpected message %q", err.Error())
	}

	// el primer cierre queda intacto
	got, err := svc.get(context.Background(), f.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ClosingNote != "visita realizada" || !got.ClosedAt.Equal(now) {
		t.Fatal("failed close attempt must not alter the original closure")
	}
}

// -------------------------
// Delete
// -------------------------

func TestDelete_AnyState(t *testing.T) {
	svc, repo, _ := newTestService()

	f, err := svc.Create(context.Background(), CreateInput{AdoptionID: "adoption-1", Kind: KindEmail})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Close(context.Background(), f.ID, ""); err != nil {
		t.Fatalf("close: %v", err)
	}

	if err := svc.Delete(context.Background(), f.ID); err != nil {
		t.Fatalf("delete closed: %v", err)
	}
	if _, ok := repo.byID[f.ID]; ok {
		t.Fatal("expected follow-up gone")
	}
}

func TestDelete_NotFound(t *testing.T) {
	svc, _, _ := newTestService()

	err := svc.Delete(context.Background(), "nope")
	if !apperr.IsNotFound(err) {
		t.Fatalf("expected not-found, got %v", err)
	}
	if err.Error() != "Seguimiento no encontrado" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}
