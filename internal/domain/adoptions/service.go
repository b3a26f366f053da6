package adoptions

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"adoption-manager/internal/apperr"
	"adoption-manager/internal/domain/animals"
	"adoption-manager/internal/domain/followups"
	"adoption-manager/internal/domain/users"
	"adoption-manager/internal/platform/logger"
	"adoption-manager/internal/ports/capabilities"
	"adoption-manager/internal/ports/notify"
)

// Mensajes de contrato: se muestran tal cual al usuario final.
const (
	msgAnimalNotFound    = "Animal no encontrado"
	msgUserNotFound      = "Usuario no encontrado"
	msgAnimalUnavailable = "El Animal ya no se encuentra disponible"
	msgAdoptionNotFound  = "Adopcion no encontrada"
	msgNotPendingApprove = "No se posible aprobar esta solicitud. La solicitud no se encuentra en estado pendiente."
	msgNotPendingReject  = "No se posible rechazar esta solicitud. La solicitud no se encuentra en estado pendiente."
	msgAnimalDeleted     = "El Animal fue eliminado"
	msgAlreadyAdopted    = "El Animal ya cuenta con una adopcion aprobada"
)

const dispatchTimeout = 10 * time.Second

// Service orquesta el ciclo de vida de las solicitudes de adopción.
type Service struct {
	repo      Repository
	animals   animals.Repository
	users     users.Repository
	publisher notify.Publisher
	log       logger.Logger

	now func() time.Time

	// dispatch corre las notificaciones post-commit. Por defecto es
	// asíncrono con contexto propio; los tests lo vuelven síncrono.
	dispatch func(fn func(ctx context.Context))
}

func NewService(repo Repository, an animals.Repository, us users.Repository, pub notify.Publisher, log logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	s := &Service{
		repo:      repo,
		animals:   an,
		users:     us,
		publisher: pub,
		log:       log,
		now:       time.Now,
	}
	s.dispatch = s.asyncDispatch
	return s
}

func (s *Service) asyncDispatch(fn func(ctx context.Context)) {
	go func() {
		// Contexto propio: la notificación no depende del request que
		// disparó el cambio de estado.
		ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
		defer cancel()
		fn(ctx)
	}()
}

// SubmitInput es lo mínimo para registrar una solicitud.
type SubmitInput struct {
	AnimalID          string
	RequesterID       string
	FamilyDescription string
}

// Submit registra una solicitud pendiente sobre un animal publicado y
// dispara la alerta de recepción al adoptante.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (Adoption, error) {
	animal, err := s.animals.GetByID(ctx, in.AnimalID)
	if err != nil {
		if err == animals.ErrNotFound {
			return Adoption{}, apperr.NotFound(msgAnimalNotFound)
		}
		return Adoption{}, err
	}
	if animal.Deleted() {
		return Adoption{}, apperr.NotFound(msgAnimalNotFound)
	}
	if !animal.Published {
		return Adoption{}, apperr.InvalidState(msgAnimalUnavailable)
	}

	requester, err := s.users.GetByID(ctx, in.RequesterID)
	if err != nil {
		if err == users.ErrNotFound {
			return Adoption{}, apperr.NotFound(msgUserNotFound)
		}
		return Adoption{}, err
	}

	now := s.now()
	a := Adoption{
		ID:                uuid.NewString(),
		AnimalID:          animal.ID,
		RequesterID:       requester.ID,
		State:             StatePending,
		FamilyDescription: in.FamilyDescription,
		CreatedAt:         now,
		UpdatedAt:         now,
		Animal:            &animal,
		Requester:         &requester,
	}

	if err := s.repo.Create(ctx, a); err != nil {
		return Adoption{}, err
	}

	s.notifyLater(EventRequested, a, notify.TrackingAlert{
		Asunto: "Rukayun: Solicitud de adopción recibida",
		Contenido: fmt.Sprintf(
			"Hola %s,<br/>Recibimos tu solicitud de adopción por %s. Te avisaremos cuando sea revisada.",
			requester.FullName(), animal.Name),
		EmailAdoptante: requester.Email,
	})

	return a, nil
}

// Approve aprueba una solicitud pendiente. En la misma transacción se
// despublica el animal y se agenda el seguimiento inicial; las alertas
// salen solo si el commit fue exitoso.
func (s *Service) Approve(ctx context.Context, id string) (Adoption, error) {
	var approved Adoption
	var visit followups.FollowUp

	err := s.repo.Mutate(ctx, id, func(tx Tx) error {
		a := tx.Adoption()

		if a.State != StatePending {
			return apperr.InvalidState(msgNotPendingApprove)
		}
		if a.Animal == nil || a.Animal.Deleted() {
			return apperr.InvalidState(msgAnimalDeleted)
		}
		// Carga eager incompleta (adoptante borrado): misma semántica
		// que el JOIN de postgres, la solicitud no se encuentra.
		if a.Requester == nil {
			return ErrNotFound
		}

		taken, err := tx.HasOtherApproved()
		if err != nil {
			return err
		}
		if taken {
			return apperr.Conflict(msgAlreadyAdopted)
		}

		now := s.now()
		a.State = StateApproved
		a.UpdatedAt = now
		if err := tx.SaveAdoption(a); err != nil {
			return err
		}
		if err := tx.UnpublishAnimal(); err != nil {
			return err
		}

		slot := NextVisitSlot(now)
		visit = followups.FollowUp{
			ID:             uuid.NewString(),
			AdoptionID:     a.ID,
			Kind:           followups.KindHomeVisit,
			State:          followups.StateActive,
			ScheduledAt:    &slot,
			Description:    followups.InitialDescription,
			CreatedAt:      now,
			UpdatedAt:      now,
			RequesterID:    a.RequesterID,
			AnimalID:       a.AnimalID,
			OrganizationID: a.Animal.OrganizationID,
		}
		if err := tx.CreateFollowUp(visit); err != nil {
			return err
		}

		approved = a
		return nil
	})
	if err != nil {
		if err == ErrNotFound {
			return Adoption{}, apperr.NotFound(msgAdoptionNotFound)
		}
		return Adoption{}, err
	}

	s.notifyLater(EventApproved, approved, notify.TrackingAlert{
		Asunto: "Rukayun: Solicitud de adopción aprobada",
		Contenido: fmt.Sprintf(
			"Hola %s,<br/>¡Felicitaciones! Tu solicitud de adopción por %s fue aprobada.",
			approved.Requester.FullName(), approved.Animal.Name),
		EmailAdoptante: approved.Requester.Email,
	})
	s.notifyLater(EventFollowUpScheduled, approved, notify.TrackingAlert{
		Asunto: "Rukayun: Visita de seguimiento programada",
		Contenido: fmt.Sprintf(
			"Hola %s,<br/>Agendamos una %s para el %s: %s.",
			approved.Requester.FullName(),
			"visita domiciliaria",
			visit.ScheduledAt.Format("02/01/2006 15:04"),
			visit.Description),
		EmailAdoptante: approved.Requester.Email,
	})

	return approved, nil
}

// Reject rechaza una solicitud pendiente. Mismas precondiciones que
// Approve (pendiente, animal vigente); no toca al animal: sigue
// publicado y disponible para otras solicitudes.
func (s *Service) Reject(ctx context.Context, id string) (Adoption, error) {
	var rejected Adoption

	err := s.repo.Mutate(ctx, id, func(tx Tx) error {
		a := tx.Adoption()

		if a.State != StatePending {
			return apperr.InvalidState(msgNotPendingReject)
		}
		if a.Animal == nil || a.Animal.Deleted() {
			return apperr.InvalidState(msgAnimalDeleted)
		}
		if a.Requester == nil {
			return ErrNotFound
		}

		a.State = StateRejected
		a.UpdatedAt = s.now()
		if err := tx.SaveAdoption(a); err != nil {
			return err
		}

		rejected = a
		return nil
	})
	if err != nil {
		if err == ErrNotFound {
			return Adoption{}, apperr.NotFound(msgAdoptionNotFound)
		}
		return Adoption{}, err
	}

	s.notifyLater(EventRejected, rejected, notify.TrackingAlert{
		Asunto: "Rukayun: Solicitud de adopción rechazada",
		Contenido: fmt.Sprintf(
			"Hola %s,<br/>Lamentamos informarte que tu solicitud de adopción por %s fue rechazada.",
			rejected.Requester.FullName(), rejected.Animal.Name),
		EmailAdoptante: rejected.Requester.Email,
	})

	return rejected, nil
}

// Delete elimina la solicitud sin importar su estado. Si estaba aprobada
// el animal queda despublicado: la re-publicación es manual.
// TODO: reconciliar la publicación del animal al borrar una aprobada.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if err == ErrNotFound {
			return apperr.NotFound(msgAdoptionNotFound)
		}
		return err
	}
	return nil
}

// GetByID retorna la solicitud solo si el alcance del caller la cubre.
// Fuera de alcance se reporta como no encontrada, no como prohibida.
func (s *Service) GetByID(ctx context.Context, id string, scope capabilities.AccessScope) (Adoption, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if err == ErrNotFound {
			return Adoption{}, apperr.NotFound(msgAdoptionNotFound)
		}
		return Adoption{}, err
	}
	if !visible(a, scope) {
		return Adoption{}, apperr.NotFound(msgAdoptionNotFound)
	}
	return a, nil
}

// List aplica el filtro y el alcance en el repositorio.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Adoption, error) {
	return s.repo.List(ctx, filter)
}

// Exists reporta si la solicitud existe, sin restricciones de alcance.
func (s *Service) Exists(ctx context.Context, id string) (bool, error) {
	_, err := s.repo.GetByID(ctx, id)
	if err == ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func visible(a Adoption, scope capabilities.AccessScope) bool {
	switch scope.Kind {
	case capabilities.ScopeUnrestricted:
		return true
	case capabilities.ScopeOwner:
		return a.RequesterID == scope.UserID
	case capabilities.ScopeAffiliate:
		if a.Animal == nil {
			return false
		}
		for _, org := range scope.OrgIDs {
			if org == a.Animal.OrganizationID {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func (s *Service) notifyLater(eventType string, a Adoption, alert notify.TrackingAlert) {
	subject := "adopciones/" + a.ID
	s.dispatch(func(ctx context.Context) {
		if err := s.publisher.Publish(ctx, eventType, alert, subject); err != nil {
			s.log.Error("publish event failed", map[string]any{
				"type":    eventType,
				"subject": subject,
				"error":   err.Error(),
			})
		}
	})
}
