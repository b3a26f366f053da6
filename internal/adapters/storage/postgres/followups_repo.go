package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"adoption-manager/internal/domain/followups"
	"adoption-manager/internal/ports/capabilities"
)

type FollowUpsRepo struct {
	db *sql.DB
}

func NewFollowUpsRepo(db *sql.DB) *FollowUpsRepo {
	return &FollowUpsRepo{db: db}
}

// El join trae el contexto denormalizado (adoptante, animal, org) que
// piden los listados y la visibilidad por organización.
const selectFollowUp = `
	SELECT
		f.id, f.adoption_id, f.kind, f.state,
		f.scheduled_at, f.description,
		f.closing_note, f.closed_at,
		f.created_at, f.updated_at,
		a.requester_id, a.animal_id, an.organization_id
	FROM follow_ups f
	JOIN adoptions a ON a.id = f.adoption_id
	JOIN animals an ON an.id = a.animal_id
`

func scanFollowUp(row rowScanner) (followups.FollowUp, error) {
	var (
		f         followups.FollowUp
		scheduled sql.NullTime
		closed    sql.NullTime
	)
	err := row.Scan(
		&f.ID, &f.AdoptionID, &f.Kind, &f.State,
		&scheduled, &f.Description,
		&f.ClosingNote, &closed,
		&f.CreatedAt, &f.UpdatedAt,
		&f.RequesterID, &f.AnimalID, &f.OrganizationID,
	)
	if err != nil {
		return followups.FollowUp{}, err
	}
	if scheduled.Valid {
		t := scheduled.Time
		f.ScheduledAt = &t
	}
	if closed.Valid {
		t := closed.Time
		f.ClosedAt = &t
	}
	return f, nil
}

func (r *FollowUpsRepo) Create(ctx context.Context, f followups.FollowUp) error {
	_, err := r.db.ExecContext(ctx, `
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

func (r *FollowUpsRepo) GetByID(ctx context.Context, id string) (followups.FollowUp, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return followups.FollowUp{}, followups.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, selectFollowUp+` WHERE f.id = $1`, id)
	f, err := scanFollowUp(row)
	if err == sql.ErrNoRows {
		return followups.FollowUp{}, followups.ErrNotFound
	}
	return f, err
}

func (r *FollowUpsRepo) List(ctx context.Context, filter followups.ListFilter) ([]followups.FollowUp, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, val any) {
		args = append(args, val)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}

	if filter.AdoptionID != "" {
		add("f.adoption_id = $%d", filter.AdoptionID)
	}
	if filter.RequesterID != "" {
		add("a.requester_id = $%d", filter.RequesterID)
	}

	switch filter.Scope.Kind {
	case capabilities.ScopeUnrestricted:
		// sin restricción extra
	case capabilities.ScopeOwner:
		add("a.requester_id = $%d", filter.Scope.UserID)
	case capabilities.ScopeAffiliate:
		if len(filter.Scope.OrgIDs) == 0 {
			return []followups.FollowUp{}, nil
		}
		placeholders := make([]string, 0, len(filter.Scope.OrgIDs))
		for _, org := range filter.Scope.OrgIDs {
			args = append(args, org)
			placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)))
		}
		where = append(where, "an.organization_id IN ("+strings.Join(placeholders, ",")+")")
	default:
		return []followups.FollowUp{}, nil
	}

	query := selectFollowUp
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY f.updated_at DESC, f.id ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]followups.FollowUp, 0)
	for rows.Next() {
		f, err := scanFollowUp(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (r *FollowUpsRepo) Update(ctx context.Context, f followups.FollowUp) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE follow_ups
		SET
			kind = $2,
			state = $3,
			scheduled_at = $4,
			description = $5,
			closing_note = $6,
			closed_at = $7,
			updated_at = $8
		WHERE id = $1
	`,
		f.ID,
		f.Kind,
		f.State,
		f.ScheduledAt,
		f.Description,
		f.ClosingNote,
		f.ClosedAt,
		f.UpdatedAt,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return followups.ErrNotFound
	}
	return nil
}

func (r *FollowUpsRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM follow_ups WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return followups.ErrNotFound
	}
	return nil
}
