package adoptions

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"adoption-manager/internal/apperr"
	"adoption-manager/internal/domain/catalog"
	"adoption-manager/internal/middleware"
	"adoption-manager/internal/ports/capabilities"
)

var validate = validator.New()

func RegisterRoutes(r chi.Router, svc *Service, catalogSvc *catalog.Service, scopes capabilities.ScopeResolver) {
	r.Route("/adopciones", func(ar chi.Router) {
		ar.Get("/", listAdoptionsHandler(svc, scopes))
		ar.Post("/solicitar", submitAdoptionHandler(svc))
		ar.Get("/estados", adoptionStatesHandler(catalogSvc))

		ar.Get("/{adoptionID}", getAdoptionHandler(svc, scopes))
		ar.Post("/{adoptionID}/aprobar", approveAdoptionHandler(svc, scopes))
		ar.Post("/{adoptionID}/rechazar", rejectAdoptionHandler(svc, scopes))
		ar.Delete("/{adoptionID}", deleteAdoptionHandler(svc, scopes))
	})
}

type submitAdoptionRequest struct {
	AnimalID          string `json:"animal_id" validate:"required"`
	FamilyDescription string `json:"family_description" validate:"required"`
}

type animalSummary struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	OrganizationID string `json:"organization_id"`
	Published      bool   `json:"published"`
}

type requesterSummary struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type adoptionResponse struct {
	ID                string    `json:"id"`
	AnimalID          string    `json:"animal_id"`
	RequesterID       string    `json:"requester_id"`
	State             State     `json:"state"`
	FamilyDescription string    `json:"family_description"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`

	Animal    *animalSummary    `json:"animal,omitempty"`
	Requester *requesterSummary `json:"requester,omitempty"`
}

func toAdoptionResponse(a Adoption) adoptionResponse {
	out := adoptionResponse{
		ID:                a.ID,
		AnimalID:          a.AnimalID,
		RequesterID:       a.RequesterID,
		State:             a.State,
		FamilyDescription: a.FamilyDescription,
		CreatedAt:         a.CreatedAt,
		UpdatedAt:         a.UpdatedAt,
	}
	if a.Animal != nil {
		out.Animal = &animalSummary{
			ID:             a.Animal.ID,
			Name:           a.Animal.Name,
			OrganizationID: a.Animal.OrganizationID,
			Published:      a.Animal.Published,
		}
	}
	if a.Requester != nil {
		out.Requester = &requesterSummary{
			ID:    a.Requester.ID,
			Email: a.Requester.Email,
			Name:  a.Requester.FullName(),
		}
	}
	return out
}

func submitAdoptionHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		var req submitAdoptionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		a, err := svc.Submit(r.Context(), SubmitInput{
			AnimalID:          req.AnimalID,
			RequesterID:       claims.UserID,
			FamilyDescription: req.FamilyDescription,
		})
		if err != nil {
			writeBusinessError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toAdoptionResponse(a))
	}
}

func listAdoptionsHandler(svc *Service, scopes capabilities.ScopeResolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, ok := resolveScope(w, r, scopes)
		if !ok {
			return
		}

		q := r.URL.Query()
		filter := ListFilter{
			RequesterID:    strings.TrimSpace(q.Get("requester_id")),
			State:          State(strings.TrimSpace(q.Get("state"))),
			OrganizationID: strings.TrimSpace(q.Get("organization_id")),
			Scope:          scope,
		}

		items, err := svc.List(r.Context(), filter)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		out := make([]adoptionResponse, 0, len(items))
		for _, a := range items {
			out = append(out, toAdoptionResponse(a))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func getAdoptionHandler(svc *Service, scopes capabilities.ScopeResolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, ok := resolveScope(w, r, scopes)
		if !ok {
			return
		}

		a, err := svc.GetByID(r.Context(), chi.URLParam(r, "adoptionID"), scope)
		if err != nil {
			writeBusinessError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAdoptionResponse(a))
	}
}

func approveAdoptionHandler(svc *Service, scopes capabilities.ScopeResolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := authorizeMutation(w, r, svc, scopes)
		if !ok {
			return
		}

		a, err := svc.Approve(r.Context(), id)
		if err != nil {
			writeBusinessError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAdoptionResponse(a))
	}
}

func rejectAdoptionHandler(svc *Service, scopes capabilities.ScopeResolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := authorizeMutation(w, r, svc, scopes)
		if !ok {
			return
		}

		a, err := svc.Reject(r.Context(), id)
		if err != nil {
			writeBusinessError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAdoptionResponse(a))
	}
}

func deleteAdoptionHandler(svc *Service, scopes capabilities.ScopeResolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := authorizeMutation(w, r, svc, scopes)
		if !ok {
			return
		}

		if err := svc.Delete(r.Context(), id); err != nil {
			writeBusinessError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func adoptionStatesHandler(catalogSvc *catalog.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := catalogSvc.AdoptionStates(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, items)
	}
}

// authorizeMutation resuelve el alcance y decide si el caller puede
// operar sobre la solicitud: owner no muta, affiliate solo dentro de
// sus organizaciones (fuera de alcance => 404, no 403).
func authorizeMutation(w http.ResponseWriter, r *http.Request, svc *Service, scopes capabilities.ScopeResolver) (string, bool) {
	scope, ok := resolveScope(w, r, scopes)
	if !ok {
		return "", false
	}
	if scope.Kind == capabilities.ScopeOwner {
		writeError(w, http.StatusForbidden, "forbidden")
		return "", false
	}

	id := chi.URLParam(r, "adoptionID")
	if scope.Kind == capabilities.ScopeAffiliate {
		if _, err := svc.GetByID(r.Context(), id, scope); err != nil {
			writeBusinessError(w, err)
			return "", false
		}
	}
	return id, true
}

func resolveScope(w http.ResponseWriter, r *http.Request, scopes capabilities.ScopeResolver) (capabilities.AccessScope, bool) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok || strings.TrimSpace(claims.UserID) == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return capabilities.AccessScope{}, false
	}

	scope, err := scopes.ResolveScope(r.Context(), claims)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return capabilities.AccessScope{}, false
	}
	return scope, true
}

func writeBusinessError(w http.ResponseWriter, err error) {
	status := apperr.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		writeError(w, status, "internal error")
		return
	}
	writeError(w, status, err.Error())
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
