package services

import (
	"context"
	"errors"
	"fmt"

	"aquaserve-backend/internal/cache"
	"aquaserve-backend/internal/models"
	"aquaserve-backend/internal/repository"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// UserService manages staff accounts. Creation is bounded by the role
// hierarchy: an actor may only create users holding roles it manages.
type UserService struct {
	directory repository.DirectoryRepositoryInterface
	permCache *cache.PermissionCache
}

// NewUserService creates a new UserService
func NewUserService(directory repository.DirectoryRepositoryInterface, permCache *cache.PermissionCache) *UserService {
	return &UserService{directory: directory, permCache: permCache}
}

// CreateUserInput carries the fields for a new staff account.
type CreateUserInput struct {
	Name     string     `json:"name" binding:"required"`
	Email    string     `json:"email" binding:"required,email"`
	Phone    string     `json:"phone"`
	Password string     `json:"password" binding:"required,min=8"`
	RoleName string     `json:"roleName" binding:"required"`
	RegionID *uuid.UUID `json:"regionId"`
}

// CreateUser creates a staff account after checking the actor may manage
// the target role.
func (s *UserService) CreateUser(ctx context.Context, actorID uuid.UUID, input CreateUserInput) (*models.User, error) {
	actor, err := s.directory.GetUserByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFoundf("Actor not found")
		}
		return nil, err
	}

	if actor.RoleName() != models.RoleSuperAdmin && !models.CanManageRole(actor.RoleName(), input.RoleName) {
		return nil, forbiddenf("You cannot create users with the %s role", input.RoleName)
	}

	role, err := s.directory.GetRoleByName(ctx, input.RoleName)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, validationf("Unknown role: %s", input.RoleName)
		}
		return nil, err
	}

	if input.RegionID != nil {
		if _, err := s.directory.GetRegionByID(ctx, *input.RegionID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, notFoundf("Region not found")
			}
			return nil, err
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Name:         input.Name,
		Email:        input.Email,
		Phone:        input.Phone,
		PasswordHash: string(hash),
		RoleID:       role.ID,
		RegionID:     input.RegionID,
		Status:       models.UserActive,
	}

	if err := s.directory.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	user.Role = role
	return user, nil
}

// GetUser retrieves a user by ID.
func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.directory.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFoundf("User not found")
		}
		return nil, err
	}
	return user, nil
}

// SetUserStatus activates or deactivates an account. Deactivation drops
// the cached permission set so the change takes effect immediately.
func (s *UserService) SetUserStatus(ctx context.Context, actorID, userID uuid.UUID, status models.UserStatus) (*models.User, error) {
	if status != models.UserActive && status != models.UserInactive {
		return nil, validationf("Unknown status: %s", status)
	}

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
		return nil, forbiddenf("You cannot manage users with the %s role", user.RoleName())
	}

	user.Status = status
	if err := s.directory.UpdateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user status: %w", err)
	}

	if s.permCache != nil {
		_ = s.permCache.Invalidate(ctx, userID)
	}
	return user, nil
}

// ListTechnicians retrieves technicians, optionally by region and status.
func (s *UserService) ListTechnicians(ctx context.Context, regionID *uuid.UUID, status models.UserStatus) ([]models.User, error) {
	return s.directory.ListUsersByRole(ctx, models.RoleTechnician, regionID, status)
}
