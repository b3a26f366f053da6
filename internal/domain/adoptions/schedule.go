package adoptions

import "time"

// VisitHour es la hora (UTC) a la que se agenda la visita inicial.
const VisitHour = 17

// NextVisitSlot calcula la fecha de la visita de seguimiento inicial:
// una semana después de hoy a las 17:00 UTC, corriendo sábado y domingo
// al lunes siguiente. Determinística: depende solo de now.
func NextVisitSlot(now time.Time) time.Time {
	today := now.UTC().Truncate(24 * time.Hour)
	candidate := today.AddDate(0, 0, 7).Add(VisitHour * time.Hour)

	switch candidate.Weekday() {
	case time.Saturday:
		candidate = candidate.AddDate(0, 0, 2)
	case time.Sunday:
		candidate = candidate.AddDate(0, 0, 1)
	}
	return candidate
}
