package adoptions

import (
	"context"
	"errors"

	"adoption-manager/internal/domain/followups"
	"adoption-manager/internal/ports/capabilities"
)

var ErrNotFound = errors.New("adoption not found")

// ListFilter combina filtros explícitos con el alcance del caller.
// Todos los criterios aplican en AND.
type ListFilter struct {
	RequesterID    string
	State          State
	OrganizationID string

	Scope capabilities.AccessScope
}

// Tx expone las operaciones disponibles dentro de una unidad Mutate.
// Todo lo que se haga aquí se confirma o revierte como un solo bloque.
type Tx interface {
	// Adoption es la solicitud cargada con animal y adoptante.
	Adoption() Adoption
	// HasOtherApproved indica si otra solicitud del mismo animal ya está
	// aprobada. Se evalúa con el animal bloqueado, así dos aprobaciones
	// concurrentes no pueden pasar ambas el chequeo.
	HasOtherApproved() (bool, error)
	SaveAdoption(a Adoption) error
	UnpublishAnimal() error
	CreateFollowUp(f followups.FollowUp) error
}

type Repository interface {
	Create(ctx context.Context, a Adoption) error
	GetByID(ctx context.Context, id string) (Adoption, error)
	// List retorna ordenado por UpdatedAt descendente, desempate por ID ascendente.
	List(ctx context.Context, filter ListFilter) ([]Adoption, error)
	Delete(ctx context.Context, id string) error

	// Mutate ejecuta fn dentro de una transacción con la solicitud cargada
	// y su animal bloqueado en exclusiva hasta el commit. Si fn retorna
	// error (o el contexto se cancela) se revierte todo.
	Mutate(ctx context.Context, id string, fn func(tx Tx) error) error
}
