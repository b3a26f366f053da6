package followups

import "time"

// FollowUp es una interacción de seguimiento post-aprobación
// (visita, correo, reunión) asociada a una adopción.
type FollowUp struct {
	ID         string
	AdoptionID string

	Kind  Kind
	State State

	ScheduledAt *time.Time
	Description string

	ClosingNote string
	ClosedAt    *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time

	// Contexto denormalizado para listados y visibilidad (se llena en lecturas).
	RequesterID    string
	AnimalID       string
	OrganizationID string
}

func (f FollowUp) Closed() bool {
	return f.State == StateClosed
}
