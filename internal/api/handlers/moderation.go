package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/ravenhq/raven/internal/models"
	"github.com/ravenhq/raven/internal/moderation"
	"github.com/ravenhq/raven/internal/store"
)

type ModerationHandler struct {
	client *moderation.Client
	store  *store.Store
}

func NewModerationHandler(client *moderation.Client, st *store.Store) *ModerationHandler {
	return &ModerationHandler{client: client, store: st}
}

// Classify runs an ad-hoc safety check on arbitrary text. Like the message
// pipeline, it fails open.
func (h *ModerationHandler) Classify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Text == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "text required"})
		return
	}

	writeJSON(w, http.StatusOK, h.client.Classify(r.Context(), req.Text))
}

// Log returns the record of flagged messages.
func (h *ModerationHandler) Log(w http.ResponseWriter, r *http.Request) {
	entries, err := h.store.GetModerationLog(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if entries == nil {
		entries = []models.ModerationEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}
