package followups

type Kind string

const (
	KindHomeVisit      Kind = "home_visit"
	KindEmail          Kind = "email"
	KindVirtualMeeting Kind = "virtual_meeting"
)

type State string

const (
	StateActive State = "active"
	StateClosed State = "closed"
)

// InitialDescription es la descripción del seguimiento que se agenda
// automáticamente al aprobar una adopción.
const InitialDescription = "Seguimiento inicial"
