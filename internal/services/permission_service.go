package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"aquaserve-backend/internal/cache"
	"aquaserve-backend/internal/models"
	"aquaserve-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// PermissionService resolves a user's effective permission set:
// role permissions plus per-user additions minus per-user removals.
// Resolved sets are cached in Redis; Super Admin bypasses all checks.
type PermissionService struct {
	directory repository.DirectoryRepositoryInterface
	cache     *cache.PermissionCache
	logger    *logrus.Entry
}

// NewPermissionService creates a new PermissionService
func NewPermissionService(directory repository.DirectoryRepositoryInterface, permCache *cache.PermissionCache, logger *logrus.Logger) *PermissionService {
	return &PermissionService{
		directory: directory,
		cache:     permCache,
		logger:    logger.WithField("component", "permissions"),
	}
}

// UserPermissions describes how a user's effective set was derived.
type UserPermissions struct {
	RolePermissions    []string `json:"rolePermissions"`
	PermissionsAdded   []string `json:"permissionsAdded"`
	PermissionsRemoved []string `json:"permissionsRemoved"`
	Effective          []string `json:"effective"`
}

// EffectivePermissions resolves and caches the user's effective set.
func (s *PermissionService) EffectivePermissions(ctx context.Context, userID uuid.UUID) ([]string, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, userID)
		if err != nil {
			s.logger.WithError(err).Warn("permission cache read failed")
		} else if cached != nil {
			return cached, nil
		}
	}

	resolved, err := s.resolve(ctx, userID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, userID, resolved.Effective); err != nil {
			s.logger.WithError(err).Warn("permission cache write failed")
		}
	}
	return resolved.Effective, nil
}

// HasAnyPermission reports whether the user holds at least one of the keys.
// A Super Admin always passes.
func (s *PermissionService) HasAnyPermission(ctx context.Context, userID uuid.UUID, keys ...string) (bool, error) {
	user, err := s.directory.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, notFoundf("User not found")
		}
		return false, err
	}
	if !user.IsActive() {
		return false, nil
	}
	if user.RoleName() == models.RoleSuperAdmin {
		return true, nil
	}

	effective, err := s.EffectivePermissions(ctx, userID)
	if err != nil {
		return false, err
	}

	held := make(map[string]bool, len(effective))
	for _, p := range effective {
		held[p] = true
	}
	for _, k := range keys {
		if held[k] {
			return true, nil
		}
	}
	return false, nil
}

// GetUserPermissions returns the full breakdown for a user.
func (s *PermissionService) GetUserPermissions(ctx context.Context, userID uuid.UUID) (*UserPermissions, error) {
	return s.resolve(ctx, userID)
}

// UpdateUserPermissions replaces a user's per-user overrides. The actor
// must be allowed to manage the target's role.
func (s *PermissionService) UpdateUserPermissions(ctx context.Context, actorID, userID uuid.UUID, added, removed []string) (*UserPermissions, error) {
	actor, err := s.directory.GetUserByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFoundf("Actor not found")
		}
		return nil, err
	}

	user, err := s.directory.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFoundf("User not found")
		}
		return nil, err
	}

	if actor.RoleName() != models.RoleSuperAdmin && !models.CanManageRole(actor.RoleName(), user.RoleName()) {
		return nil, forbiddenf("You cannot manage permissions for a %s", user.RoleName())
	}

	for _, key := range append(append([]string{}, added...), removed...) {
		if !models.IsKnownPermission(key) {
			return nil, validationf("Unknown permission key: %s", key)
		}
	}

	user.PermissionsAdded = added
	user.PermissionsRemoved = removed
	if err := s.directory.UpdateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user permissions: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, userID); err != nil {
			s.logger.WithError(err).Warn("permission cache invalidation failed")
		}
	}

	return s.resolve(ctx, userID)
}

func (s *PermissionService) resolve(ctx context.Context, userID uuid.UUID) (*UserPermissions, error) {
	user, err := s.directory.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFoundf("User not found")
		}
		return nil, err
	}
	if user.Role == nil {
		return nil, fmt.Errorf("user %s has no role loaded", userID)
	}

	var rolePerms []string
	if len(user.Role.Permissions) > 0 {
		if err := json.Unmarshal(user.Role.Permissions, &rolePerms); err != nil {
			return nil, fmt.Errorf("failed to parse role permissions: %w", err)
		}
	}

	removed := make(map[string]bool, len(user.PermissionsRemoved))
	for _, p := range user.PermissionsRemoved {
		removed[p] = true
	}

	effective := make([]string, 0, len(rolePerms)+len(user.PermissionsAdded))
	seen := make(map[string]bool)
	for _, p := range rolePerms {
		if !removed[p] && !seen[p] {
			effective = append(effective, p)
			seen[p] = true
		}
	}
	for _, p := range user.PermissionsAdded {
		if !removed[p] && !seen[p] {
			effective = append(effective, p)
			seen[p] = true
		}
	}

	return &UserPermissions{
		RolePermissions:    rolePerms,
		PermissionsAdded:   user.PermissionsAdded,
		PermissionsRemoved: user.PermissionsRemoved,
		Effective:          effective,
	}, nil
}
