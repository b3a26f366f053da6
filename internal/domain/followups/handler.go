package followups

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
	r.Route("/seguimientos", func(fr chi.Router) {
		fr.Post("/", createFollowUpHandler(svc, scopes))
		fr.Get("/", listFollowUpsHandler(svc, scopes))
		fr.Get("/tipos", followUpTypesHandler(catalogSvc))
		fr.Get("/estados", followUpStatesHandler(catalogSvc))

		fr.Get("/{followUpID}", getFollowUpHandler(svc, scopes))
		fr.Put("/{followUpID}", editFollowUpHandler(svc, scopes))
		fr.Post("/{followUpID}/cerrar", closeFollowUpHandler(svc, scopes))
		fr.Delete("/{followUpID}", deleteFollowUpHandler(svc, scopes))
	})
}

type createFollowUpRequest struct {
	AdoptionID  string `json:"adoption_id" validate:"required"`
	Kind        string `json:"kind" validate:"required"`
	ScheduledAt string `json:"scheduled_at"` // RFC3339, opcional
	Description string `json:"description"`
}

type editFollowUpRequest struct {
	ScheduledAt string `json:"scheduled_at"` // RFC3339, opcional; vacío limpia
	Description string `json:"description"`
}

type closeFollowUpRequest struct {
	ClosingNote string `json:"closing_note"`
}

type followUpResponse struct {
	ID          string     `json:"id"`
	AdoptionID  string     `json:"adoption_id"`
	Kind        Kind       `json:"kind"`
	State       State      `json:"state"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
	Description string     `json:"description"`
	ClosingNote string     `json:"closing_note,omitempty"`
	ClosedAt    *time.Time `json:"closed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func toFollowUpResponse(f FollowUp) followUpResponse {
	return followUpResponse{
		ID:          f.ID,
		AdoptionID:  f.AdoptionID,
		Kind:        f.Kind,
		State:       f.State,
		ScheduledAt: f.ScheduledAt,
		Description: f.Description,
		ClosingNote: f.ClosingNote,
		ClosedAt:    f.ClosedAt,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}

func createFollowUpHandler(svc *Service, scopes capabilities.ScopeResolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requireMutationScope(w, r, scopes); !ok {
			return
		}

		var req createFollowUpRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		scheduledAt, ok := parseSchedule(w, req.ScheduledAt)
		if !ok {
			return
		}

		f, err := svc.Create(r.Context(), CreateInput{
			AdoptionID:  req.AdoptionID,
			Kind:        Kind(req.Kind),
			ScheduledAt: scheduledAt,
			Description: req.Description,
		})
		if err != nil {
			writeBusinessError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toFollowUpResponse(f))
	}
}

func listFollowUpsHandler(svc *Service, scopes capabilities.ScopeResolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, ok := resolveScope(w, r, scopes)
		if !ok {
			return
		}

		q := r.URL.Query()
		items, err := svc.List(r.Context(), ListFilter{
			AdoptionID:  strings.TrimSpace(q.Get("adoption_id")),
			RequesterID: strings.TrimSpace(q.Get("requester_id")),
			Scope:       scope,
		})
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		out := make([]followUpResponse, 0, len(items))
		for _, f := range items {
			out = append(out, toFollowUpResponse(f))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func getFollowUpHandler(svc *Service, scopes capabilities.ScopeResolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, ok := resolveScope(w, r, scopes)
		if !ok {
			return
		}

		f, err := svc.GetByID(r.Context(), chi.URLParam(r, "followUpID"), scope)
		if err != nil {
			writeBusinessError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toFollowUpResponse(f))
	}
}

func editFollowUpHandler(svc *Service, scopes capabilities.ScopeResolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := authorizeMutation(w, r, svc, scopes)
		if !ok {
			return
		}

		var req editFollowUpRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}

		scheduledAt, ok := parseSchedule(w, req.ScheduledAt)
		if !ok {
			return
		}

		f, err := svc.Edit(r.Context(), id, EditInput{
			ScheduledAt: scheduledAt,
			Description: req.Description,
		})
		if err != nil {
			writeBusinessError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toFollowUpResponse(f))
	}
}

func closeFollowUpHandler(svc *Service, scopes capabilities.ScopeResolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := authorizeMutation(w, r, svc, scopes)
		if !ok {
			return
		}

		var req closeFollowUpRequest
		if r.Body != nil {
			// Body opcional: cerrar sin nota es válido.
			_ = json.NewDecoder(r.Body).Decode(&req)
		}

		f, err := svc.Close(r.Context(), id, req.ClosingNote)
		if err != nil {
			writeBusinessError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toFollowUpResponse(f))
	}
}

func deleteFollowUpHandler(svc *Service, scopes capabilities.ScopeResolver) http.HandlerFunc {
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

func followUpTypesHandler(catalogSvc *catalog.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := catalogSvc.FollowUpTypes(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, items)
	}
}

func followUpStatesHandler(catalogSvc *catalog.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := catalogSvc.FollowUpStates(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, items)
	}
}

// authorizeMutation: owner no muta seguimientos; affiliate solo los de
// sus organizaciones (fuera de alcance => 404).
func authorizeMutation(w http.ResponseWriter, r *http.Request, svc *Service, scopes capabilities.ScopeResolver) (string, bool) {
	scope, ok := requireMutationScope(w, r, scopes)
	if !ok {
		return "", false
	}

	id := chi.URLParam(r, "followUpID")
	if scope.Kind == capabilities.ScopeAffiliate {
		if _, err := svc.GetByID(r.Context(), id, scope); err != nil {
			writeBusinessError(w, err)
			return "", false
		}
	}
	return id, true
}

func requireMutationScope(w http.ResponseWriter, r *http.Request, scopes capabilities.ScopeResolver) (capabilities.AccessScope, bool) {
	scope, ok := resolveScope(w, r, scopes)
	if !ok {
		return capabilities.AccessScope{}, false
	}
	if scope.Kind == capabilities.ScopeOwner {
		writeError(w, http.StatusForbidden, "forbidden")
		return capabilities.AccessScope{}, false
	}
	return scope, true
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

func parseSchedule(w http.ResponseWriter, raw string) (*time.Time, bool) {
	if strings.TrimSpace(raw) == "" {
		return nil, true
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "scheduled_at must be RFC3339")
		return nil, false
	}
	return &t, true
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
