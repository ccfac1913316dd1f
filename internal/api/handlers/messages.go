package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ravenhq/raven/internal/auth"
	"github.com/ravenhq/raven/internal/lifecycle"
	"github.com/ravenhq/raven/internal/models"
	"github.com/ravenhq/raven/internal/store"
)

type MessageHandler struct {
	manager *lifecycle.Manager
}

func NewMessageHandler(manager *lifecycle.Manager) *MessageHandler {
	return &MessageHandler{manager: manager}
}

func threadFromRequest(r *http.Request) (models.ThreadRef, error) {
	thread := models.ThreadRef{
		Kind: models.ThreadKind(chi.URLParam(r, "kind")),
		ID:   chi.URLParam(r, "threadID"),
	}
	return thread, thread.Validate()
}

// Send appends a message optimistically and returns it with status
// "sending"; the terminal status lands via moderation reconciliation.
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	thread, err := threadFromRequest(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	var req struct {
		Content string `json:"content"`
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

	msg, err := h.manager.Send(r.Context(), thread, *user, req.Content)
	if err != nil {
		if errors.Is(err, lifecycle.ErrEmptyMessage) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "message text is empty"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusAccepted, msg)
}

func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	thread, err := threadFromRequest(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	msgs, err := h.manager.Messages(r.Context(), thread)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if msgs == nil {
		msgs = []models.Message{}
	}

	writeJSON(w, http.StatusOK, msgs)
}

func (h *MessageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	thread, err := threadFromRequest(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	user := auth.UserFromContext(r.Context())
	if user == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "no user in context"})
		return
	}

	err = h.manager.Delete(r.Context(), thread, chi.URLParam(r, "messageID"), user.ID)
	if err != nil {
		switch {
		case errors.Is(err, lifecycle.ErrForbidden):
			writeJSON(w, http.StatusForbidden, map[string]string{"error": "insufficient permissions"})
		case errors.Is(err, store.ErrNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "house not found"})
		default:
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *MessageHandler) React(w http.ResponseWriter, r *http.Request) {
	thread, err := threadFromRequest(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	var req struct {
		Emoji string `json:"emoji"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Emoji == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "emoji required"})
		return
	}

	if err := h.manager.React(r.Context(), thread, chi.URLParam(r, "messageID"), req.Emoji); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
