package adoptions

// State es el estado de la solicitud. Pendiente es el único estado no
// terminal: de ahí solo se pasa a aprobada o rechazada, nunca de vuelta.
type State string

const (
	StatePending  State = "pending"
	StateApproved State = "approved"
	StateRejected State = "rejected"
)

// Tipos de evento publicados al bus de alertas. Solicitada conserva el
// nombre histórico; los demás distinguen el desenlace.
const (
	EventRequested         = "Adopcion.Solicitada"
	EventApproved          = "Adopcion.Aprobada"
	EventRejected          = "Adopcion.Rechazada"
	EventFollowUpScheduled = "Seguimiento.Programado"
)
