package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ravenhq/raven/internal/auth"
	"github.com/ravenhq/raven/internal/houses"
	"github.com/ravenhq/raven/internal/models"
	"github.com/ravenhq/raven/internal/permissions"
	"github.com/ravenhq/raven/internal/store"
)

type HouseHandler struct {
	svc *houses.Service
}

func NewHouseHandler(svc *houses.Service) *HouseHandler {
	return &HouseHandler{svc: svc}
}

func (h *HouseHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Emblem      string `json:"emblem"`
		IsPrivate   bool   `json:"is_private"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	user := auth.UserFromContext(r.Context())
	if user == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "no user in context"})
		return
	}

	house, err := h.svc.Create(r.Context(), *user, req.Name, req.Description, req.Emblem, req.IsPrivate)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusCreated, house)
}

func (h *HouseHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.List(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if list == nil {
		list = []models.House{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *HouseHandler) Get(w http.ResponseWriter, r *http.Request) {
	house, err := h.svc.Get(r.Context(), chi.URLParam(r, "houseID"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "house not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, house)
}

// Join adds the acting user to a public house.
func (h *HouseHandler) Join(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	if user == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "no user in context"})
		return
	}

	house, err := h.svc.Join(r.Context(), *user, chi.URLParam(r, "houseID"))
	if err != nil {
		writeHouseError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, house)
}

// Catalog lists every grantable permission.
func (h *HouseHandler) Catalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, permissions.Catalog())
}

func (h *HouseHandler) AddRole(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	if user == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "no user in context"})
		return
	}

	house, err := h.svc.AddRole(r.Context(), chi.URLParam(r, "houseID"), user.ID)
	if err != nil {
		writeHouseError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, house)
}

func (h *HouseHandler) DeleteRole(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	if user == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "no user in context"})
		return
	}

	house, err := h.svc.DeleteRole(r.Context(), chi.URLParam(r, "houseID"), user.ID, chi.URLParam(r, "roleID"))
	if err != nil {
		writeHouseError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, house)
}

func (h *HouseHandler) TogglePermission(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Permission string `json:"permission"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Permission == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "permission required"})
		return
	}

	user := auth.UserFromContext(r.Context())
	if user == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "no user in context"})
		return
	}

	house, err := h.svc.TogglePermission(r.Context(),
		chi.URLParam(r, "houseID"), user.ID, chi.URLParam(r, "roleID"),
		permissions.Permission(req.Permission),
	)
	if err != nil {
		writeHouseError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, house)
}

func (h *HouseHandler) ReassignMember(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RoleID string `json:"role_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RoleID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "role_id required"})
		return
	}

	user := auth.UserFromContext(r.Context())
	if user == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "no user in context"})
		return
	}

	house, err := h.svc.ReassignMember(r.Context(),
		chi.URLParam(r, "houseID"), user.ID, chi.URLParam(r, "memberID"), req.RoleID,
	)
	if err != nil {
		writeHouseError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, house)
}

func writeHouseError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, houses.ErrForbidden):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "insufficient permissions"})
	case errors.Is(err, houses.ErrPrivateHouse):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "house is private"})
	case errors.Is(err, houses.ErrAlreadyMember):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "already a member"})
	case errors.Is(err, store.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "house not found"})
	case errors.Is(err, permissions.ErrUnknownRole), errors.Is(err, permissions.ErrLastRole):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}
