// Package friends manages the direct-message contact list.
package friends

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/ravenhq/raven/internal/models"
	"github.com/ravenhq/raven/internal/store"
)

var (
	ErrSelfFriend      = errors.New("cannot add yourself as a friend")
	ErrAlreadyFriended = errors.New("friend with this comms code already exists")
)

type Service struct {
	store *store.Store
}

func NewService(st *store.Store) *Service {
	return &Service{store: st}
}

// Add registers a counterparty by comms code. Adding your own code is
// rejected before any state changes, as is a duplicate code.
func (s *Service) Add(ctx context.Context, user models.User, username, commsCode string) (models.Friend, error) {
	username = strings.TrimSpace(username)
	commsCode = strings.TrimSpace(commsCode)
	if username == "" || commsCode == "" {
		return models.Friend{}, errors.New("username and comms code are required")
	}
	if commsCode == user.CommsCode {
		return models.Friend{}, ErrSelfFriend
	}

	friend := models.Friend{
		ID:        uuid.NewString(),
		Username:  username,
		Avatar:    fmt.Sprintf("https://picsum.photos/seed/%s/50", commsCode),
		CommsCode: commsCode,
	}

	// Duplicate check and append run in one atomic update, so two adds of
	// the same code cannot both slip in.
	err := s.store.UpdateFriends(ctx, func(list []models.Friend) ([]models.Friend, error) {
		for _, f := range list {
			if f.CommsCode == commsCode {
				return nil, ErrAlreadyFriended
			}
		}
		return append(list, friend), nil
	})
	if err != nil {
		return models.Friend{}, err
	}
	return friend, nil
}

func (s *Service) List(ctx context.Context) ([]models.Friend, error) {
	return s.store.GetFriends(ctx)
}
