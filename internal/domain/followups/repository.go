package followups

import (
	"context"
	"errors"

	"adoption-manager/internal/ports/capabilities"
)

var ErrNotFound = errors.New("follow-up not found")

// ListFilter combina filtros explícitos con el alcance de visibilidad
// del caller. Todos los criterios aplican en AND.
type ListFilter struct {
	AdoptionID  string
	RequesterID string

	Scope capabilities.AccessScope
}

type Repository interface {
	Create(ctx context.Context, f FollowUp) error
	GetByID(ctx context.Context, id string) (FollowUp, error)
	// List retorna ordenado por UpdatedAt descendente, desempate por ID ascendente.
	List(ctx context.Context, filter ListFilter) ([]FollowUp, error)
	Update(ctx context.Context, f FollowUp) error
	Delete(ctx context.Context, id string) error
}
