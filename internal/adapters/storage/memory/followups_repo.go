package memory

import (
	"context"
	"errors"
	"sort"
	"strings"

	"adoption-manager/internal/domain/followups"
	"adoption-manager/internal/ports/capabilities"
)

type followUpRepo struct {
	store *Store
}

func (r *followUpRepo) Create(ctx context.Context, f followups.FollowUp) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if strings.TrimSpace(f.ID) == "" {
		return errors.New("follow-up id required")
	}
	if _, exists := r.store.followUps[f.ID]; exists {
		return errors.New("follow-up already exists")
	}

	f.RequesterID = ""
	f.AnimalID = ""
	f.OrganizationID = ""
	r.store.followUps[f.ID] = f
	return nil
}

func (r *followUpRepo) GetByID(ctx context.Context, id string) (followups.FollowUp, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	f, ok := r.store.followUps[id]
	if !ok {
		return followups.FollowUp{}, followups.ErrNotFound
	}
	return r.hydrate(f), nil
}

// hydrate llena el contexto denormalizado desde la adopción y su animal.
func (r *followUpRepo) hydrate(f followups.FollowUp) followups.FollowUp {
	a, ok := r.store.adoptions[f.AdoptionID]
	if !ok {
		return f
	}
	f.RequesterID = a.RequesterID
	f.AnimalID = a.AnimalID
	if animal, ok := r.store.animals[a.AnimalID]; ok {
		f.OrganizationID = animal.OrganizationID
	}
	return f
}

func (r *followUpRepo) List(ctx context.Context, filter followups.ListFilter) ([]followups.FollowUp, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	out := make([]followups.FollowUp, 0)
	for _, f := range r.store.followUps {
		f = r.hydrate(f)
		if filter.AdoptionID != "" && f.AdoptionID != filter.AdoptionID {
			continue
		}
		if filter.RequesterID != "" && f.RequesterID != filter.RequesterID {
			continue
		}
		if !followUpInScope(f, filter.Scope) {
			continue
		}
		out = append(out, f)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func followUpInScope(f followups.FollowUp, scope capabilities.AccessScope) bool {
	switch scope.Kind {
	case capabilities.ScopeUnrestricted:
		return true
	case capabilities.ScopeOwner:
		return f.RequesterID == scope.UserID
	case capabilities.ScopeAffiliate:
		for _, org := range scope.OrgIDs {
			if org == f.OrganizationID {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func (r *followUpRepo) Update(ctx context.Context, f followups.FollowUp) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, exists := r.store.followUps[f.ID]; !exists {
		return followups.ErrNotFound
	}

	f.RequesterID = ""
	f.AnimalID = ""
	f.OrganizationID = ""
	r.store.followUps[f.ID] = f
	return nil
}

func (r *followUpRepo) Delete(ctx context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.followUps[id]; !ok {
		return followups.ErrNotFound
	}
	delete(r.store.followUps, id)
	return nil
}
