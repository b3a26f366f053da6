package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"adoption-manager/internal/domain/adoptions"
	"adoption-manager/internal/domain/animals"
	"adoption-manager/internal/domain/followups"
	"adoption-manager/internal/domain/users"
	"adoption-manager/internal/ports/capabilities"
)

type AdoptionsRepo struct {
	db *sql.DB
}

func NewAdoptionsRepo(db *sql.DB) *AdoptionsRepo {
	return &AdoptionsRepo{db: db}
}

// selectAdoption trae la solicitud con animal y adoptante en un solo
// round-trip; las lecturas siempre los necesitan.
const selectAdoption = `
	SELECT
		a.id, a.animal_id, a.requester_id,
		a.state, a.family_description,
		a.created_at, a.updated_at,
		an.id, an.name, an.organization_id, an.published, an.deleted_at, an.registered_at,
		u.id, u.email, u.first_name, u.last_name, u.active
	FROM adoptions a
	JOIN animals an ON an.id = a.animal_id
	JOIN users u ON u.id = a.requester_id
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAdoption(row rowScanner) (adoptions.Adoption, error) {
	var (
		a       adoptions.Adoption
		animal  animals.Animal
		user    users.User
		deleted sql.NullTime
	)
	err := row.Scan(
		&a.ID, &a.AnimalID, &a.RequesterID,
		&a.State, &a.FamilyDescription,
		&a.CreatedAt, &a.UpdatedAt,
		&animal.ID, &animal.Name, &animal.OrganizationID, &animal.Published, &deleted, &animal.RegisteredAt,
		&user.ID, &user.Email, &user.FirstName, &user.LastName, &user.Active,
	)
	if err != nil {
		return adoptions.Adoption{}, err
	}
	if deleted.Valid {
		t := deleted.Time
		animal.DeletedAt = &t
	}
	a.Animal = &animal
	a.Requester = &user
	return a, nil
}

func (r *AdoptionsRepo) Create(ctx context.Context, a adoptions.Adoption) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO adoptions (
			id, animal_id, requester_id,
			state, family_description,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7)
	`,
		a.ID,
		a.AnimalID,
		a.RequesterID,
		a.State,
		a.FamilyDescription,
		a.CreatedAt,
		a.UpdatedAt,
	)
	return err
}

func (r *AdoptionsRepo) GetByID(ctx context.Context, id string) (adoptions.Adoption, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return adoptions.Adoption{}, adoptions.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, selectAdoption+` WHERE a.id = $1`, id)
	a, err := scanAdoption(row)
	if err == sql.ErrNoRows {
		return adoptions.Adoption{}, adoptions.ErrNotFound
	}
	return a, err
}

func (r *AdoptionsRepo) List(ctx context.Context, filter adoptions.ListFilter) ([]adoptions.Adoption, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, val any) {
		args = append(args, val)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}

	if filter.RequesterID != "" {
		add("a.requester_id = $%d", filter.RequesterID)
	}
	if filter.State != "" {
		add("a.state = $%d", string(filter.State))
	}
	if filter.OrganizationID != "" {
		add("an.organization_id = $%d", filter.OrganizationID)
	}

	switch filter.Scope.Kind {
	case capabilities.ScopeUnrestricted:
		// sin restricción extra
	case capabilities.ScopeOwner:
		add("a.requester_id = $%d", filter.Scope.UserID)
	case capabilities.ScopeAffiliate:
		if len(filter.Scope.OrgIDs) == 0 {
			return []adoptions.Adoption{}, nil
		}
		placeholders := make([]string, 0, len(filter.Scope.OrgIDs))
		for _, org := range filter.Scope.OrgIDs {
			args = append(args, org)
			placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)))
		}
		where = append(where, "an.organization_id IN ("+strings.Join(placeholders, ",")+")")
	default:
		return []adoptions.Adoption{}, nil
	}

	query := selectAdoption
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY a.updated_at DESC, a.id ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]adoptions.Adoption, 0)
	for rows.Next() {
		a, err := scanAdoption(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *AdoptionsRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM adoptions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return adoptions.ErrNotFound
	}
	return nil
}

// Mutate corre fn dentro de una transacción con el animal bloqueado
// (SELECT ... FOR UPDATE). Dos aprobaciones concurrentes del mismo
// animal se serializan aquí: la segunda ve el estado ya confirmado.
func (r *AdoptionsRepo) Mutate(ctx context.Context, id string, fn func(tx adoptions.Tx) error) error {
	sqlTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = sqlTx.Rollback() }()

	row := sqlTx.QueryRowContext(ctx, selectAdoption+` WHERE a.id = $1`, strings.TrimSpace(id))
	a, err := scanAdoption(row)
	if err == sql.ErrNoRows {
		return adoptions.ErrNotFound
	}
	if err != nil {
		return err
	}

	if _, err := sqlTx.ExecContext(ctx, `SELECT 1 FROM animals WHERE id = $1 FOR UPDATE`, a.AnimalID); err != nil {
		return err
	}

	// Releer el animal ya con el lock tomado: otra transacción pudo
	// despublicarlo o borrarlo entre el primer SELECT y el lock.
	var (
		animal  animals.Animal
		deleted sql.NullTime
	)
	err = sqlTx.QueryRowContext(ctx, `
		SELECT id, name, organization_id, published, deleted_at, registered_at
		FROM animals
		WHERE id = $1
	`, a.AnimalID).Scan(
		&animal.ID, &animal.Name, &animal.OrganizationID, &animal.Published, &deleted, &animal.RegisteredAt,
	)
	if err != nil {
		return err
	}
	if deleted.Valid {
		t := deleted.Time
		animal.DeletedAt = &t
	}
	a.Animal = &animal

	// Releer también la solicitud: el primer SELECT corrió antes del
	// lock, y otra transacción pudo aprobarla mientras esperábamos.
	// Sin esto, dos Approve concurrentes del mismo id pasan ambos el
	// chequeo de estado pendiente.
	err = sqlTx.QueryRowContext(ctx, `
		SELECT state, family_description, created_at, updated_at
		FROM adoptions
		WHERE id = $1
	`, a.ID).Scan(&a.State, &a.FamilyDescription, &a.CreatedAt, &a.UpdatedAt)
	if err == sql.ErrNoRows {
		return adoptions.ErrNotFound
	}
	if err != nil {
		return err
	}

	if err := fn(&pgTx{ctx: ctx, tx: sqlTx, adoption: a}); err != nil {
		return err
	}
	return sqlTx.Commit()
}

type pgTx struct {
	ctx      context.Context
	tx       *sql.Tx
	adoption adoptions.Adoption
}

func (t *pgTx) Adoption() adoptions.Adoption {
	return t.adoption
}

func (t *pgTx) HasOtherApproved() (bool, error) {
	var exists bool
	err := t.tx.QueryRowContext(t.ctx, `
		SELECT EXISTS (
			SELECT 1 FROM adoptions
			WHERE animal_id = $1 AND id <> $2 AND state = $3
		)
	`, t.adoption.AnimalID, t.adoption.ID, adoptions.StateApproved).Scan(&exists)
	return exists, err
}

func (t *pgTx) SaveAdoption(a adoptions.Adoption) error {
	res, err := t.tx.ExecContext(t.ctx, `
		UPDATE adoptions
		SET state = $2, family_description = $3, updated_at = $4
		WHERE id = $1
	`, a.ID, a.State, a.FamilyDescription, a.UpdatedAt)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return adoptions.ErrNotFound
	}
	return nil
}

func (t *pgTx) UnpublishAnimal() error {
	_, err := t.tx.ExecContext(t.ctx, `
		UPDATE animals SET published = FALSE WHERE id = $1
	`, t.adoption.AnimalID)
	return err
}

func (t *pgTx) CreateFollowUp(f followups.FollowUp) error {
	_, err := t.tx.ExecContext(t.ctx, `
		INSERT INTO follow_ups (
			id, adoption_id, kind, state,
			scheduled_at, description,
			closing_note, closed_at,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`,
		f.ID,
		f.AdoptionID,
		f.Kind,
		f.State,
		f.ScheduledAt,
		f.Description,
		f.ClosingNote,
		f.ClosedAt,
		f.CreatedAt,
		f.UpdatedAt,
	)
	return err
}
