package postgres

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adoption-manager/internal/domain/adoptions"
)

var (
	selectAdoptionRe = regexp.QuoteMeta("JOIN users u ON u.id = a.requester_id WHERE a.id = $1")
	lockAnimalRe     = regexp.QuoteMeta("SELECT 1 FROM animals WHERE id = $1 FOR UPDATE")
	rereadAnimalRe   = regexp.QuoteMeta("SELECT id, name, organization_id, published, deleted_at, registered_at FROM animals WHERE id = $1")
	rereadAdoptionRe = regexp.QuoteMeta("SELECT state, family_description, created_at, updated_at FROM adoptions WHERE id = $1")
)

func adoptionRow(now time.Time, state adoptions.State) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "animal_id", "requester_id", "state", "family_description", "created_at", "updated_at",
		"an_id", "an_name", "an_organization_id", "an_published", "an_deleted_at", "an_registered_at",
		"u_id", "u_email", "u_first_name", "u_last_name", "u_active",
	}).AddRow(
		"adoption-1", "animal-1", "user-1", string(state), "familia con patio", now, now,
		"animal-1", "Luna", "org-1", true, nil, now,
		"user-1", "ana@example.com", "Ana", "Gómez", true,
	)
}

// El primer SELECT de la solicitud corre antes del lock del animal; lo
// que decide es la relectura posterior. Dos Approve concurrentes del
// mismo id: el segundo espera el lock y debe ver el estado ya
// confirmado, no su snapshot previo.
func TestMutate_SeesCommittedStateAfterLock(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Date(2026, 1, 7, 10, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(selectAdoptionRe).
		WithArgs("adoption-1").
		WillReturnRows(adoptionRow(now, adoptions.StatePending))
	mock.ExpectExec(lockAnimalRe).
		WithArgs("animal-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(rereadAnimalRe).
		WithArgs("animal-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "organization_id", "published", "deleted_at", "registered_at"}).
			AddRow("animal-1", "Luna", "org-1", false, nil, now))
	// Otra transacción aprobó mientras esperábamos el lock.
	mock.ExpectQuery(rereadAdoptionRe).
		WithArgs("adoption-1").
		WillReturnRows(sqlmock.NewRows([]string{"state", "family_description", "created_at", "updated_at"}).
			AddRow(string(adoptions.StateApproved), "familia con patio", now, now.Add(time.Minute)))
	mock.ExpectRollback()

	errAlreadyDecided := errors.New("already decided")

	var seen adoptions.State
	repo := NewAdoptionsRepo(db)
	err = repo.Mutate(context.Background(), "adoption-1", func(tx adoptions.Tx) error {
		seen = tx.Adoption().State
		if seen != adoptions.StatePending {
			return errAlreadyDecided
		}
		return nil
	})

	require.ErrorIs(t, err, errAlreadyDecided)
	assert.Equal(t, adoptions.StateApproved, seen, "fn must observe the committed state, not the pre-lock snapshot")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMutate_RolledBackOnFnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Date(2026, 1, 7, 10, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(selectAdoptionRe).
		WithArgs("adoption-1").
		WillReturnRows(adoptionRow(now, adoptions.StatePending))
	mock.ExpectExec(lockAnimalRe).
		WithArgs("animal-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(rereadAnimalRe).
		WithArgs("animal-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "organization_id", "published", "deleted_at", "registered_at"}).
			AddRow("animal-1", "Luna", "org-1", true, nil, now))
	mock.ExpectQuery(rereadAdoptionRe).
		WithArgs("adoption-1").
		WillReturnRows(sqlmock.NewRows([]string{"state", "family_description", "created_at", "updated_at"}).
			AddRow(string(adoptions.StatePending), "familia con patio", now, now))
	mock.ExpectRollback()

	boom := errors.New("boom")

	repo := NewAdoptionsRepo(db)
	err = repo.Mutate(context.Background(), "adoption-1", func(tx adoptions.Tx) error {
		return boom
	})

	require.ErrorIs(t, err, boom)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMutate_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(selectAdoptionRe).
		WithArgs("nope").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	repo := NewAdoptionsRepo(db)
	err = repo.Mutate(context.Background(), "nope", func(tx adoptions.Tx) error {
		t.Fatal("fn must not run when the adoption does not exist")
		return nil
	})

	require.ErrorIs(t, err, adoptions.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
