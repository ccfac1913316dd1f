// Package houses manages house aggregates: creation, joining, role
// administration, and member assignment. All role math is delegated to the
// pure evaluator in internal/permissions; this service only loads,
// transforms, and saves.
package houses

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/ravenhq/raven/internal/models"
	"github.com/ravenhq/raven/internal/permissions"
	"github.com/ravenhq/raven/internal/store"
)

var (
	ErrForbidden     = errors.New("acting user lacks the required capability")
	ErrPrivateHouse  = errors.New("house is private")
	ErrAlreadyMember = errors.New("already a member of this house")
)

// Role defaults for newly created houses: the creator's role carries every
// permission, the member role none. Joiners land on the member role.
const (
	ownerRoleName   = "Founder"
	ownerRoleColor  = "#b91c1c"
	memberRoleName  = "New Operative"
	memberRoleColor = "#444444"
)

type Service struct {
	store *store.Store
}

func NewService(st *store.Store) *Service {
	return &Service{store: st}
}

// Create builds a house owned by the creator. It is seeded with two roles,
// a founder role holding every permission and an empty member role, with
// the creator as the founder role's first member.
func (s *Service) Create(ctx context.Context, creator models.User, name, description, emblem string, isPrivate bool) (models.House, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.House{}, errors.New("house name is required")
	}

	founder := models.HouseRole{
		ID:          uuid.NewString(),
		Name:        ownerRoleName,
		Color:       ownerRoleColor,
		Permissions: make([]string, 0, len(permissions.Catalog())),
	}
	for _, p := range permissions.Catalog() {
		founder.Permissions = append(founder.Permissions, string(p))
	}
	member := models.HouseRole{
		ID:          uuid.NewString(),
		Name:        memberRoleName,
		Color:       memberRoleColor,
		Permissions: []string{},
	}

	house := models.House{
		ID:           uuid.NewString(),
		Name:         name,
		Description:  strings.TrimSpace(description),
		Emblem:       emblem,
		OwnerID:      creator.ID,
		MembersCount: 1,
		IsPrivate:    isPrivate,
		Roles:        []models.HouseRole{founder, member},
		Members: []models.HouseMember{{
			ID:       creator.ID,
			Username: creator.Username,
			Avatar:   creator.Avatar,
			RoleID:   founder.ID,
			JoinedAt: creator.JoinedAt,
		}},
	}

	if err := s.store.SetHouse(ctx, house); err != nil {
		return models.House{}, fmt.Errorf("save house: %w", err)
	}
	return house, nil
}

func (s *Service) Get(ctx context.Context, id string) (models.House, error) {
	return s.store.GetHouse(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]models.House, error) {
	return s.store.GetHouses(ctx)
}

// Join adds the user to a public house as a member of the house's last
// role, the lowest-privilege one by convention. Private houses cannot be
// joined, and joining twice is rejected.
func (s *Service) Join(ctx context.Context, user models.User, houseID string) (models.House, error) {
	return s.updateHouse(ctx, houseID, func(house models.House) (models.House, error) {
		if house.IsPrivate {
			return models.House{}, ErrPrivateHouse
		}
		if _, ok := house.Member(user.ID); ok || house.OwnerID == user.ID {
			return models.House{}, ErrAlreadyMember
		}
		if len(house.Roles) == 0 {
			return models.House{}, permissions.ErrUnknownRole
		}

		house.Members = append(house.Members, models.HouseMember{
			ID:       user.ID,
			Username: user.Username,
			Avatar:   user.Avatar,
			RoleID:   house.Roles[len(house.Roles)-1].ID,
			JoinedAt: user.JoinedAt,
		})
		house.MembersCount = len(house.Members)
		return house, nil
	})
}

// TogglePermission flips one permission on one role. Gated on the acting
// user holding manage-roles.
func (s *Service) TogglePermission(ctx context.Context, houseID, actingUserID, roleID string, perm permissions.Permission) (models.House, error) {
	if !permissions.Known(perm) {
		return models.House{}, fmt.Errorf("unknown permission %q", perm)
	}

	return s.updateHouse(ctx, houseID, func(house models.House) (models.House, error) {
		if !permissions.HasCapability(house, actingUserID, permissions.PermManageRoles) {
			return models.House{}, ErrForbidden
		}

		role, ok := house.Role(roleID)
		if !ok {
			return models.House{}, permissions.ErrUnknownRole
		}

		updated := permissions.TogglePermission(role, perm)
		for i, r := range house.Roles {
			if r.ID == roleID {
				house.Roles[i] = updated
				break
			}
		}
		return house, nil
	})
}

// AddRole appends a fresh default role to the house.
func (s *Service) AddRole(ctx context.Context, houseID, actingUserID string) (models.House, error) {
	return s.updateHouse(ctx, houseID, func(house models.House) (models.House, error) {
		if !permissions.HasCapability(house, actingUserID, permissions.PermManageRoles) {
			return models.House{}, ErrForbidden
		}
		return permissions.AddRole(house), nil
	})
}

// DeleteRole removes a role, migrating its members to the default role.
func (s *Service) DeleteRole(ctx context.Context, houseID, actingUserID, roleID string) (models.House, error) {
	return s.updateHouse(ctx, houseID, func(house models.House) (models.House, error) {
		if !permissions.HasCapability(house, actingUserID, permissions.PermManageRoles) {
			return models.House{}, ErrForbidden
		}
		return permissions.DeleteRole(house, roleID)
	})
}

// ReassignMember moves a member to another existing role.
func (s *Service) ReassignMember(ctx context.Context, houseID, actingUserID, memberID, roleID string) (models.House, error) {
	return s.updateHouse(ctx, houseID, func(house models.House) (models.House, error) {
		if !permissions.HasCapability(house, actingUserID, permissions.PermManageMembers) {
			return models.House{}, ErrForbidden
		}
		return permissions.ReassignMember(house, memberID, roleID)
	})
}

// updateHouse runs fn inside the store's atomic house update and returns
// the transformed house. The check-then-mutate runs against the house as
// currently stored, so concurrent administration never loses updates.
func (s *Service) updateHouse(ctx context.Context, houseID string, fn func(models.House) (models.House, error)) (models.House, error) {
	var out models.House
	err := s.store.UpdateHouse(ctx, houseID, func(house models.House) (models.House, error) {
		next, err := fn(house)
		if err != nil {
			return models.House{}, err
		}
		out = next
		return next, nil
	})
	if err != nil {
		return models.House{}, err
	}
	return out, nil
}
