// Package store persists the client's conversation state as keyed JSON
// blobs: message collections per thread, the house list, the friend list,
// and the moderation log. Every write replaces a whole collection. Writers
// that depend on current state go through Update, an atomic
// read-modify-write that each backend serializes within and across
// processes, so no Get/Set pair can lose a concurrent writer's update.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ravenhq/raven/internal/models"
)

// ErrNotFound is returned by Blob.Get when the key has never been written.
var ErrNotFound = errors.New("store: key not found")

// Blob is the low-level keyed persistence contract. Values are JSON
// round-tripped by the implementation.
//
// Update applies fn to the current raw value (nil when the key has never
// been written) and persists the result atomically with respect to every
// other Update on the same key, including ones from other processes. An
// error from fn aborts the update and is returned unchanged.
type Blob interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any) error
	Update(ctx context.Context, key string, fn func(current json.RawMessage) (json.RawMessage, error)) error
}

const (
	keyHouses        = "houses"
	keyFriends       = "friends"
	keyModerationLog = "modlog"
)

// Store exposes typed collections over a Blob backend.
type Store struct {
	blob Blob
}

func New(blob Blob) *Store {
	return &Store{blob: blob}
}

// update round-trips one typed collection through Blob.Update. An absent
// key presents as the zero value of T.
func update[T any](ctx context.Context, blob Blob, key string, fn func(T) (T, error)) error {
	return blob.Update(ctx, key, func(raw json.RawMessage) (json.RawMessage, error) {
		var current T
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &current); err != nil {
				return nil, fmt.Errorf("decode %s: %w", key, err)
			}
		}
		next, err := fn(current)
		if err != nil {
			return nil, err
		}
		data, err := json.Marshal(next)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", key, err)
		}
		return data, nil
	})
}

// GetMessages returns the current collection for a thread. A thread that
// has never been written is an empty collection, not an error.
func (s *Store) GetMessages(ctx context.Context, thread models.ThreadRef) ([]models.Message, error) {
	var msgs []models.Message
	if err := s.blob.Get(ctx, thread.Key(), &msgs); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get messages %s: %w", thread.Key(), err)
	}
	return msgs, nil
}

func (s *Store) SetMessages(ctx context.Context, thread models.ThreadRef, msgs []models.Message) error {
	if err := s.blob.Set(ctx, thread.Key(), msgs); err != nil {
		return fmt.Errorf("set messages %s: %w", thread.Key(), err)
	}
	return nil
}

// UpdateMessages atomically transforms a thread's collection. fn sees the
// current collection and returns the replacement.
func (s *Store) UpdateMessages(ctx context.Context, thread models.ThreadRef, fn func([]models.Message) ([]models.Message, error)) error {
	return update(ctx, s.blob, thread.Key(), fn)
}

func (s *Store) GetHouses(ctx context.Context) ([]models.House, error) {
	var houses []models.House
	if err := s.blob.Get(ctx, keyHouses, &houses); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get houses: %w", err)
	}
	return houses, nil
}

// GetHouse returns one house by id, or ErrNotFound.
func (s *Store) GetHouse(ctx context.Context, id string) (models.House, error) {
	houses, err := s.GetHouses(ctx)
	if err != nil {
		return models.House{}, err
	}
	for _, h := range houses {
		if h.ID == id {
			return h, nil
		}
	}
	return models.House{}, ErrNotFound
}

// SetHouse replaces the house with the same id, or appends it if new. The
// rest of the house list is untouched even under concurrent writers.
func (s *Store) SetHouse(ctx context.Context, house models.House) error {
	return update(ctx, s.blob, keyHouses, func(houses []models.House) ([]models.House, error) {
		for i, h := range houses {
			if h.ID == house.ID {
				houses[i] = house
				return houses, nil
			}
		}
		return append(houses, house), nil
	})
}

// UpdateHouse atomically transforms one house. fn sees the current house
// and returns the replacement; ErrNotFound when the id is unknown.
func (s *Store) UpdateHouse(ctx context.Context, id string, fn func(models.House) (models.House, error)) error {
	return update(ctx, s.blob, keyHouses, func(houses []models.House) ([]models.House, error) {
		for i, h := range houses {
			if h.ID != id {
				continue
			}
			next, err := fn(h)
			if err != nil {
				return nil, err
			}
			houses[i] = next
			return houses, nil
		}
		return nil, ErrNotFound
	})
}

func (s *Store) GetFriends(ctx context.Context) ([]models.Friend, error) {
	var friends []models.Friend
	if err := s.blob.Get(ctx, keyFriends, &friends); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get friends: %w", err)
	}
	return friends, nil
}

func (s *Store) SetFriends(ctx context.Context, friends []models.Friend) error {
	if err := s.blob.Set(ctx, keyFriends, friends); err != nil {
		return fmt.Errorf("set friends: %w", err)
	}
	return nil
}

// UpdateFriends atomically transforms the friend list.
func (s *Store) UpdateFriends(ctx context.Context, fn func([]models.Friend) ([]models.Friend, error)) error {
	return update(ctx, s.blob, keyFriends, fn)
}

func (s *Store) GetModerationLog(ctx context.Context) ([]models.ModerationEntry, error) {
	var entries []models.ModerationEntry
	if err := s.blob.Get(ctx, keyModerationLog, &entries); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get moderation log: %w", err)
	}
	return entries, nil
}

// AppendModerationEntry atomically appends to the moderation log.
func (s *Store) AppendModerationEntry(ctx context.Context, entry models.ModerationEntry) error {
	return update(ctx, s.blob, keyModerationLog, func(entries []models.ModerationEntry) ([]models.ModerationEntry, error) {
		return append(entries, entry), nil
	})
}
