package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ravenhq/raven/internal/auth"
	"github.com/ravenhq/raven/internal/friends"
	"github.com/ravenhq/raven/internal/models"
)

type FriendHandler struct {
	svc *friends.Service
}

func NewFriendHandler(svc *friends.Service) *FriendHandler {
	return &FriendHandler{svc: svc}
}

func (h *FriendHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username  string `json:"username"`
		CommsCode string `json:"comms_code"`
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

	friend, err := h.svc.Add(r.Context(), *user, req.Username, req.CommsCode)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, friends.ErrAlreadyFriended) {
			status = http.StatusConflict
		}
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusCreated, friend)
}

func (h *FriendHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.List(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if list == nil {
		list = []models.Friend{}
	}
	writeJSON(w, http.StatusOK, list)
}
