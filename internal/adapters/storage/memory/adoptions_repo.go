package memory

import (
	"context"
	"errors"
	"sort"
	"strings"

	"adoption-manager/internal/domain/adoptions"
	"adoption-manager/internal/domain/followups"
	"adoption-manager/internal/ports/capabilities"
)

type adoptionRepo struct {
	store *Store
}

func (r *adoptionRepo) Create(ctx context.Context, a adoptions.Adoption) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if strings.TrimSpace(a.ID) == "" {
		return errors.New("adoption id required")
	}
	if _, exists := r.store.adoptions[a.ID]; exists {
		return errors.New("adoption already exists")
	}

	// Se guarda plano; animal y adoptante se hidratan en cada lectura.
	a.Animal = nil
	a.Requester = nil
	r.store.adoptions[a.ID] = a
	return nil
}

func (r *adoptionRepo) GetByID(ctx context.Context, id string) (adoptions.Adoption, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.get(id)
}

func (r *adoptionRepo) get(id string) (adoptions.Adoption, error) {
	a, ok := r.store.adoptions[id]
	if !ok {
		return adoptions.Adoption{}, adoptions.ErrNotFound
	}
	return r.hydrate(a), nil
}

func (r *adoptionRepo) hydrate(a adoptions.Adoption) adoptions.Adoption {
	if animal, ok := r.store.animals[a.AnimalID]; ok {
		a.Animal = &animal
	}
	if user, ok := r.store.users[a.RequesterID]; ok {
		a.Requester = &user
	}
	return a
}

func (r *adoptionRepo) List(ctx context.Context, filter adoptions.ListFilter) ([]adoptions.Adoption, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	out := make([]adoptions.Adoption, 0)
	for _, a := range r.store.adoptions {
		a = r.hydrate(a)
		if !matchesFilter(a, filter) || !inScope(a, filter.Scope) {
			continue
		}
		out = append(out, a)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func matchesFilter(a adoptions.Adoption, f adoptions.ListFilter) bool {
	if f.RequesterID != "" && a.RequesterID != f.RequesterID {
		return false
	}
	if f.State != "" && a.State != f.State {
		return false
	}
	if f.OrganizationID != "" {
		if a.Animal == nil || a.Animal.OrganizationID != f.OrganizationID {
			return false
		}
	}
	return true
}

func inScope(a adoptions.Adoption, scope capabilities.AccessScope) bool {
	switch scope.Kind {
	case capabilities.ScopeUnrestricted:
		return true
	case capabilities.ScopeOwner:
		return a.RequesterID == scope.UserID
	case capabilities.ScopeAffiliate:
		if a.Animal == nil {
			return false
		}
		for _, org := range scope.OrgIDs {
			if org == a.Animal.OrganizationID {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func (r *adoptionRepo) Delete(ctx context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.adoptions[id]; !ok {
		return adoptions.ErrNotFound
	}
	delete(r.store.adoptions, id)
	return nil
}

// Mutate toma el lock del store completo mientras corre fn: es el
// equivalente in-memory del FOR UPDATE sobre el animal. Los cambios se
// acumulan en memTx y se aplican solo si fn termina sin error.
func (r *adoptionRepo) Mutate(ctx context.Context, id string, fn func(tx adoptions.Tx) error) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	a, err := r.get(id)
	if err != nil {
		return err
	}

	tx := &memTx{store: r.store, adoption: a}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	tx.apply()
	return nil
}

type memTx struct {
	store    *Store
	adoption adoptions.Adoption

	saved        *adoptions.Adoption
	unpublish    bool
	newFollowUps []followups.FollowUp
}

func (t *memTx) Adoption() adoptions.Adoption {
	return t.adoption
}

func (t *memTx) HasOtherApproved() (bool, error) {
	for _, other := range t.store.adoptions {
		if other.ID == t.adoption.ID {
			continue
		}
		if other.AnimalID == t.adoption.AnimalID && other.State == adoptions.StateApproved {
			return true, nil
		}
	}
	return false, nil
}

func (t *memTx) SaveAdoption(a adoptions.Adoption) error {
	a.Animal = nil
	a.Requester = nil
	t.saved = &a
	return nil
}

func (t *memTx) UnpublishAnimal() error {
	t.unpublish = true
	return nil
}

func (t *memTx) CreateFollowUp(f followups.FollowUp) error {
	t.newFollowUps = append(t.newFollowUps, f)
	return nil
}

func (t *memTx) apply() {
	if t.saved != nil {
		t.store.adoptions[t.saved.ID] = *t.saved
	}
	if t.unpublish {
		if animal, ok := t.store.animals[t.adoption.AnimalID]; ok {
			animal.Published = false
			t.store.animals[animal.ID] = animal
		}
	}
	for _, f := range t.newFollowUps {
		// Los campos denormalizados se recalculan en lecturas.
		f.RequesterID = ""
		f.AnimalID = ""
		f.OrganizationID = ""
		t.store.followUps[f.ID] = f
	}
}
