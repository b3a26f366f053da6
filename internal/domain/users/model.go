package users

import "strings"

// User es el adoptante registrado en UserManager. Solo lectura aquí:
// aporta identidad y el correo al que se dirigen las alertas.
type User struct {
	ID        string
	Email     string
	FirstName string
	LastName  string
	Active    bool
}

func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
