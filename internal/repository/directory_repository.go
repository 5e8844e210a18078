package repository

import (
	"context"
	"errors"

	"aquaserve-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DirectoryRepositoryInterface serves master data reads for the lifecycle
// engine plus the handful of writes the user and product endpoints need.
type DirectoryRepositoryInterface interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsersByRole(ctx context.Context, roleName string, regionID *uuid.UUID, status models.UserStatus) ([]models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	UpdateUser(ctx context.Context, user *models.User) error

	GetRoleByID(ctx context.Context, id uuid.UUID) (*models.Role, error)
	GetRoleByName(ctx context.Context, name string) (*models.Role, error)
	ListRoles(ctx context.Context) ([]models.Role, error)

	GetCustomerByID(ctx context.Context, id uuid.UUID) (*models.Customer, error)
	GetRegionByID(ctx context.Context, id uuid.UUID) (*models.Region, error)
	GetInstallationByID(ctx context.Context, id uuid.UUID) (*models.Installation, error)
	GetProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	ListProducts(ctx context.Context, limit, offset int) ([]models.Product, int64, error)
}

// DirectoryRepository handles database operations for master data
type DirectoryRepository struct {
	db *gorm.DB
}

var _ DirectoryRepositoryInterface = (*DirectoryRepository)(nil)

// NewDirectoryRepository creates a new DirectoryRepository
func NewDirectoryRepository(db *gorm.DB) *DirectoryRepository {
	return &DirectoryRepository{db: db}
}

// GetUserByID retrieves a user with role and region loaded
func (r *DirectoryRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Preload("Role").
		Preload("Region").
		Where("id = ?", id).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetUserByEmail retrieves a user by email for authentication
func (r *DirectoryRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Preload("Role").
		Where("email = ?", email).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// ListUsersByRole retrieves users holding the named role, optionally
// narrowed by region and account status.
func (r *DirectoryRepository) ListUsersByRole(ctx context.Context, roleName string, regionID *uuid.UUID, status models.UserStatus) ([]models.User, error) {
	var users []models.User

	query := r.db.WithContext(ctx).
		Preload("Role").
		Joins("JOIN roles ON roles.id = users.role_id").
		Where("roles.name = ?", roleName)

	if regionID != nil {
		query = query.Where("users.region_id = ?", *regionID)
	}
	if status != "" {
		query = query.Where("users.status = ?", status)
	}

	err := query.Order("users.created_at ASC").Find(&users).Error
	return users, err
}

// CreateUser creates a new user
func (r *DirectoryRepository) CreateUser(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// UpdateUser saves changes to a user
func (r *DirectoryRepository) UpdateUser(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

// GetRoleByID retrieves a role by ID
func (r *DirectoryRepository) GetRoleByID(ctx context.Context, id uuid.UUID) (*models.Role, error) {
	var role models.Role
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&role).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &role, nil
}

// GetRoleByName retrieves a role by its unique name
func (r *DirectoryRepository) GetRoleByName(ctx context.Context, name string) (*models.Role, error) {
	var role models.Role
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&role).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &role, nil
}

// ListRoles retrieves all roles
func (r *DirectoryRepository) ListRoles(ctx context.Context) ([]models.Role, error) {
	var roles []models.Role
	err := r.db.WithContext(ctx).Order("name ASC").Find(&roles).Error
	return roles, err
}

// GetCustomerByID retrieves a customer
func (r *DirectoryRepository) GetCustomerByID(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	var customer models.Customer
	err := r.db.WithContext(ctx).Preload("Region").Where("id = ?", id).First(&customer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &customer, nil
}

// GetRegionByID retrieves a region
func (r *DirectoryRepository) GetRegionByID(ctx context.Context, id uuid.UUID) (*models.Region, error) {
	var region models.Region
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&region).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &region, nil
}

// GetInstallationByID retrieves an installation
func (r *DirectoryRepository) GetInstallationByID(ctx context.Context, id uuid.UUID) (*models.Installation, error) {
	var installation models.Installation
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&installation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &installation, nil
}

// GetProductByID retrieves a product
func (r *DirectoryRepository) GetProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &product, nil
}

// ListProducts retrieves products with a total count
func (r *DirectoryRepository) ListProducts(ctx context.Context, limit, offset int) ([]models.Product, int64, error) {
	var products []models.Product
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Product{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit <= 0 {
		limit = 20
	}

	err := query.Order("name ASC").Limit(limit).Offset(offset).Find(&products).Error
	return products, total, err
}
