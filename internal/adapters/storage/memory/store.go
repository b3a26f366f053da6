// Package memory implementa los repositorios sobre mapas en memoria.
// Un solo Store con un solo mutex: las unidades Mutate tocan varias
// entidades y necesitan atomicidad entre todas.
package memory

import (
	"sync"

	"adoption-manager/internal/domain/adoptions"
	"adoption-manager/internal/domain/animals"
	"adoption-manager/internal/domain/catalog"
	"adoption-manager/internal/domain/followups"
	"adoption-manager/internal/domain/users"
)

type Store struct {
	mu sync.Mutex

	adoptions map[string]adoptions.Adoption
	followUps map[string]followups.FollowUp
	animals   map[string]animals.Animal
	users     map[string]users.User

	// userID -> organizaciones a las que pertenece
	affiliations map[string][]string

	adoptionStates []catalog.Entry
	followUpTypes  []catalog.Entry
	followUpStates []catalog.Entry
}

func NewStore() *Store {
	return &Store{
		adoptions:    make(map[string]adoptions.Adoption),
		followUps:    make(map[string]followups.FollowUp),
		animals:      make(map[string]animals.Animal),
		users:        make(map[string]users.User),
		affiliations: make(map[string][]string),

		adoptionStates: []catalog.Entry{
			{Code: string(adoptions.StatePending), Name: "Pendiente"},
			{Code: string(adoptions.StateApproved), Name: "Aprobada"},
			{Code: string(adoptions.StateRejected), Name: "Rechazada"},
		},
		followUpTypes: []catalog.Entry{
			{Code: string(followups.KindHomeVisit), Name: "Visita domiciliaria"},
			{Code: string(followups.KindEmail), Name: "Correo electrónico"},
			{Code: string(followups.KindVirtualMeeting), Name: "Reunión virtual"},
		},
		followUpStates: []catalog.Entry{
			{Code: string(followups.StateActive), Name: "Activo"},
			{Code: string(followups.StateClosed), Name: "Cerrado"},
		},
	}
}

// Seeding para dev y tests.

func (s *Store) PutAnimal(a animals.Animal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.animals[a.ID] = a
}

func (s *Store) PutUser(u users.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

func (s *Store) AddAffiliation(orgID, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.affiliations[userID] {
		if existing == orgID {
			return
		}
	}
	s.affiliations[userID] = append(s.affiliations[userID], orgID)
}

// Vistas repositorio sobre el mismo store.

func (s *Store) Adoptions() adoptions.Repository { return &adoptionRepo{store: s} }
func (s *Store) FollowUps() followups.Repository { return &followUpRepo{store: s} }
func (s *Store) Animals() animals.Repository     { return &animalRepo{store: s} }
func (s *Store) Users() users.Repository         { return &userRepo{store: s} }
func (s *Store) Catalog() catalog.Repository     { return &catalogRepo{store: s} }

// Orgs implementa orgs.Repository.
func (s *Store) Orgs() *OrgRepo { return &OrgRepo{store: s} }
