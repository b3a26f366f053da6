package postgres

import (
	"context"
	"database/sql"
	"strings"

	"adoption-manager/internal/domain/animals"
	"adoption-manager/internal/domain/catalog"
	"adoption-manager/internal/domain/users"
)

type AnimalsRepo struct {
	db *sql.DB
}

func NewAnimalsRepo(db *sql.DB) *AnimalsRepo {
	return &AnimalsRepo{db: db}
}

func (r *AnimalsRepo) GetByID(ctx context.Context, id string) (animals.Animal, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return animals.Animal{}, animals.ErrNotFound
	}

	var (
		a       animals.Animal
		deleted sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, organization_id, published, deleted_at, registered_at
		FROM animals
		WHERE id = $1
	`, id).Scan(&a.ID, &a.Name, &a.OrganizationID, &a.Published, &deleted, &a.RegisteredAt)
	if err == sql.ErrNoRows {
		return animals.Animal{}, animals.ErrNotFound
	}
	if err != nil {
		return animals.Animal{}, err
	}
	if deleted.Valid {
		t := deleted.Time
		a.DeletedAt = &t
	}
	return a, nil
}

type UsersRepo struct {
	db *sql.DB
}

func NewUsersRepo(db *sql.DB) *UsersRepo {
	return &UsersRepo{db: db}
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (users.User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return users.User{}, users.ErrNotFound
	}

	var u users.User
	err := r.db.QueryRowContext(ctx, `
		SELECT id, email, first_name, last_name, active
		FROM users
		WHERE id = $1
	`, id).Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.Active)
	if err == sql.ErrNoRows {
		return users.User{}, users.ErrNotFound
	}
	if err != nil {
		return users.User{}, err
	}
	return u, nil
}

type OrgsRepo struct {
	db *sql.DB
}

func NewOrgsRepo(db *sql.DB) *OrgsRepo {
	return &OrgsRepo{db: db}
}

func (r *OrgsRepo) OrganizationsForUser(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT organization_id
		FROM organization_users
		WHERE user_id = $1
		ORDER BY organization_id ASC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var org string
		if err := rows.Scan(&org); err != nil {
			return nil, err
		}
		out = append(out, org)
	}
	return out, rows.Err()
}

type CatalogRepo struct {
	db *sql.DB
}

func NewCatalogRepo(db *sql.DB) *CatalogRepo {
	return &CatalogRepo{db: db}
}

func (r *CatalogRepo) AdoptionStates(ctx context.Context) ([]catalog.Entry, error) {
	return r.entries(ctx, "adoption_states")
}

func (r *CatalogRepo) FollowUpTypes(ctx context.Context) ([]catalog.Entry, error) {
	return r.entries(ctx, "follow_up_types")
}

func (r *CatalogRepo) FollowUpStates(ctx context.Context) ([]catalog.Entry, error) {
	return r.entries(ctx, "follow_up_states")
}

func (r *CatalogRepo) entries(ctx context.Context, table string) ([]catalog.Entry, error) {
	// table viene de un set fijo interno, nunca de input del usuario.
	rows, err := r.db.QueryContext(ctx, `SELECT code, name FROM `+table+` ORDER BY code ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]catalog.Entry, 0)
	for rows.Next() {
		var e catalog.Entry
		if err := rows.Scan(&e.Code, &e.Name); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
