package followups

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"adoption-manager/internal/apperr"
	"adoption-manager/internal/ports/capabilities"
)

// Mensajes de contrato (se muestran al usuario tal cual).
const (
	msgNotFound         = "Seguimiento no encontrado"
	msgAlreadyClosed    = "Seguimiento ya fue cerrado"
	msgTypeNotFound     = "Tipo de seguimiento no encontrado"
	msgAdoptionNotFound = "Adopcion no encontrada"
)

// AdoptionDirectory expone la existencia de adopciones sin importar el
// paquete adoptions (evita el ciclo adoptions -> followups -> adoptions).
type AdoptionDirectory interface {
	Exists(ctx context.Context, adoptionID string) (bool, error)
}

// TypeCatalog valida códigos de tipo de seguimiento contra el catálogo.
type TypeCatalog interface {
	FollowUpTypeExists(ctx context.Context, code string) (bool, error)
}

type Service struct {
	repo      Repository
	adoptions AdoptionDirectory
	types     TypeCatalog
	now       func() time.Time
}

func NewService(repo Repository, adoptions AdoptionDirectory, types TypeCatalog) *Service {
	return &Service{
		repo:      repo,
		adoptions: adoptions,
		types:     types,
		now:       time.Now,
	}
}

type CreateInput struct {
	AdoptionID  string
	Kind        Kind
	ScheduledAt *time.Time
	Description string
}

func (s *Service) Create(ctx context.Context, in CreateInput) (FollowUp, error) {
	ok, err := s.types.FollowUpTypeExists(ctx, string(in.Kind))
	if err != nil {
		return FollowUp{}, err
	}
	if !ok {
		return FollowUp{}, apperr.NotFound(msgTypeNotFound)
	}

	exists, err := s.adoptions.Exists(ctx, strings.TrimSpace(in.AdoptionID))
	if err != nil {
		return FollowUp{}, err
	}
	if !exists {
		return FollowUp{}, apperr.NotFound(msgAdoptionNotFound)
	}

	now := s.now()
	f := FollowUp{
		ID:          uuid.NewString(),
		AdoptionID:  strings.TrimSpace(in.AdoptionID),
		Kind:        in.Kind,
		State:       StateActive,
		ScheduledAt: in.ScheduledAt,
		Description: strings.TrimSpace(in.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, f); err != nil {
		return FollowUp{}, err
	}
	return s.get(ctx, f.ID)
}

type EditInput struct {
	ScheduledAt *time.Time
	Description string
}

// Edit solo toca agenda y descripción; nunca el estado. Editar un
// seguimiento cerrado está permitido (comportamiento observado).
func (s *Service) Edit(ctx context.Context, id string, in EditInput) (FollowUp, error) {
	f, err := s.get(ctx, id)
	if err != nil {
		return FollowUp{}, err
	}

	f.ScheduledAt = in.ScheduledAt
	f.Description = strings.TrimSpace(in.Description)
	f.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, f); err != nil {
		return FollowUp{}, err
	}
	return s.get(ctx, id)
}

// Close es transición de una sola vía: un seguimiento cerrado no se
// vuelve a cerrar ni se reabre.
func (s *Service) Close(ctx context.Context, id, closingNote string) (FollowUp, error) {
	f, err := s.get(ctx, id)
	if err != nil {
		return FollowUp{}, err
	}

	if f.Closed() {
		return FollowUp{}, apperr.InvalidState(msgAlreadyClosed)
	}

	now := s.now()
	f.State = StateClosed
	f.ClosedAt = &now
	f.ClosingNote = closingNote
	f.UpdatedAt = now

	if err := s.repo.Update(ctx, f); err != nil {
		return FollowUp{}, err
	}
	return s.get(ctx, id)
}

// Delete elimina sin mirar el estado, igual que la eliminación de
// adopciones.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return apperr.NotFound(msgNotFound)
		}
		return err
	}
	return nil
}

func (s *Service) GetByID(ctx context.Context, id string, scope capabilities.AccessScope) (FollowUp, error) {
	f, err := s.get(ctx, id)
	if err != nil {
		return FollowUp{}, err
	}
	if !visible(f, scope) {
		return FollowUp{}, apperr.NotFound(msgNotFound)
	}
	return f, nil
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]FollowUp, error) {
	return s.repo.List(ctx, filter)
}

func (s *Service) get(ctx context.Context, id string) (FollowUp, error) {
	f, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return FollowUp{}, apperr.NotFound(msgNotFound)
		}
		return FollowUp{}, err
	}
	return f, nil
}

func visible(f FollowUp, scope capabilities.AccessScope) bool {
	switch scope.Kind {
	case capabilities.ScopeUnrestricted:
		return true
	case capabilities.ScopeOwner:
		return f.RequesterID == scope.UserID
	case capabilities.ScopeAffiliate:
		for _, org := range scope.OrgIDs {
			if org == f.OrganizationID {
				return true
			}
		}
		return false
	default:
		return false
	}
}
