package memory

import (
	"context"

	"adoption-manager/internal/domain/animals"
	"adoption-manager/internal/domain/catalog"
	"adoption-manager/internal/domain/users"
)

type animalRepo struct {
	store *Store
}

func (r *animalRepo) GetByID(ctx context.Context, id string) (animals.Animal, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	a, ok := r.store.animals[id]
	if !ok {
		return animals.Animal{}, animals.ErrNotFound
	}
	return a, nil
}

type userRepo struct {
	store *Store
}

func (r *userRepo) GetByID(ctx context.Context, id string) (users.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	u, ok := r.store.users[id]
	if !ok {
		return users.User{}, users.ErrNotFound
	}
	return u, nil
}

// OrgRepo resuelve membresías organización-usuario.
type OrgRepo struct {
	store *Store
}

func (r *OrgRepo) OrganizationsForUser(ctx context.Context, userID string) ([]string, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	orgs := r.store.affiliations[userID]
	out := make([]string, len(orgs))
	copy(out, orgs)
	return out, nil
}

type catalogRepo struct {
	store *Store
}

func (r *catalogRepo) AdoptionStates(ctx context.Context) ([]catalog.Entry, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return cloneEntries(r.store.adoptionStates), nil
}

func (r *catalogRepo) FollowUpTypes(ctx context.Context) ([]catalog.Entry, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return cloneEntries(r.store.followUpTypes), nil
}

func (r *catalogRepo) FollowUpStates(ctx context.Context) ([]catalog.Entry, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return cloneEntries(r.store.followUpStates), nil
}

func cloneEntries(in []catalog.Entry) []catalog.Entry {
	out := make([]catalog.Entry, len(in))
	copy(out, in)
	return out
}
