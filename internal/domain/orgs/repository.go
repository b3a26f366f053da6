// Package orgs expone las afiliaciones organización-usuario que
// administra UserManager. Solo lectura: acá nadie crea ni borra
// membresías, solo se consultan para resolver visibilidad.
package orgs

import "context"

type Repository interface {
	// OrganizationsForUser retorna los IDs de organizaciones a las que el
	// usuario está afiliado. Vacío si no tiene afiliaciones.
	OrganizationsForUser(ctx context.Context, userID string) ([]string, error)
}
