package animals

import "time"

// Animal es el perfil publicado por una organización. Lo administra
// PetsManager; este servicio solo lo lee, salvo el flag Published que se
// apaga dentro de la transacción de aprobación.
type Animal struct {
	ID             string
	Name           string
	OrganizationID string

	Published bool
	DeletedAt *time.Time // soft delete

	RegisteredAt time.Time
}

func (a Animal) Deleted() bool {
	return a.DeletedAt != nil
}
