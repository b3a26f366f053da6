package adoptions

import (
	"time"

	"adoption-manager/internal/domain/animals"
	"adoption-manager/internal/domain/users"
)

// Adoption es la solicitud de un adoptante sobre un animal publicado,
// con su propia máquina de estados de aprobación.
type Adoption struct {
	ID          string
	AnimalID    string
	RequesterID string

	State             State
	FamilyDescription string

	CreatedAt time.Time
	UpdatedAt time.Time

	// Cargados eager en lecturas: hacen falta para renderizar alertas
	// y para la visibilidad por organización.
	Animal    *animals.Animal
	Requester *users.User
}

// Terminal indica si la solicitud ya no admite transiciones.
func (a Adoption) Terminal() bool {
	return a.State == StateApproved || a.State == StateRejected
}
