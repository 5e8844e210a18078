package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// User is a staff member: admin, manager, team lead, technician or salesman.
type User struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Name         string     `gorm:"type:varchar(255);not null" json:"name"`
	Email        string     `gorm:"type:varchar(255);not null;uniqueIndex" json:"email"`
	Phone        string     `gorm:"type:varchar(30)" json:"phone,omitempty"`
	PasswordHash string     `gorm:"type:varchar(255);not null" json:"-"`
	RoleID       uuid.UUID  `gorm:"type:uuid;not null;index" json:"roleId"`
	RegionID     *uuid.UUID `gorm:"type:uuid;index" json:"regionId,omitempty"`
	Status       UserStatus `gorm:"type:varchar(20);not null;default:'ACTIVE';index" json:"status"`

	// Per-user overrides on top of the role's permission set.
	PermissionsAdded   pq.StringArray `gorm:"type:text[]" json:"permissionsAdded,omitempty"`
	PermissionsRemoved pq.StringArray `gorm:"type:text[]" json:"permissionsRemoved,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`

	Role   *Role   `gorm:"foreignKey:RoleID" json:"role,omitempty"`
	Region *Region `gorm:"foreignKey:RegionID" json:"region,omitempty"`
}

// TableName returns the table name for User
func (User) TableName() string {
	return "users"
}

// UserStatus represents account state
type UserStatus string

const (
	UserActive   UserStatus = "ACTIVE"
	UserInactive UserStatus = "INACTIVE"
)

// IsActive reports whether the user can act in the system.
func (u *User) IsActive() bool {
	return u.Status == UserActive
}

// RoleName returns the user's role name, or empty if the role is not loaded.
func (u *User) RoleName() string {
	if u.Role == nil {
		return ""
	}
	return u.Role.Name
}

// Role carries a named permission set.
type Role struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Name        string         `gorm:"type:varchar(50);not null;uniqueIndex" json:"name"`
	Description string         `gorm:"type:text" json:"description,omitempty"`
	Permissions datatypes.JSON `gorm:"type:jsonb;not null" json:"permissions"` // array of permission keys
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName returns the table name for Role
func (Role) TableName() string {
	return "roles"
}

// Region is a geographic service area.
type Region struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Name      string    `gorm:"type:varchar(100);not null;uniqueIndex" json:"name"`
	Code      string    `gorm:"type:varchar(20);not null;uniqueIndex" json:"code"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// TableName returns the table name for Region
func (Region) TableName() string {
	return "regions"
}

// Customer is a person or business the company services.
type Customer struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Phone     string    `gorm:"type:varchar(30);not null;index" json:"phone"`
	Email     string    `gorm:"type:varchar(255)" json:"email,omitempty"`
	Address   string    `gorm:"type:text" json:"address,omitempty"`
	RegionID  uuid.UUID `gorm:"type:uuid;not null;index" json:"regionId"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`

	Region *Region `gorm:"foreignKey:RegionID" json:"region,omitempty"`
}

// TableName returns the table name for Customer
func (Customer) TableName() string {
	return "customers"
}

// Installation is a filter unit installed at a customer site.
type Installation struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CustomerID  uuid.UUID  `gorm:"type:uuid;not null;index" json:"customerId"`
	ProductID   uuid.UUID  `gorm:"type:uuid;not null" json:"productId"`
	SerialNo    string     `gorm:"type:varchar(100);uniqueIndex" json:"serialNo"`
	InstalledAt *time.Time `json:"installedAt,omitempty"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"createdAt"`

	Customer *Customer `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Product  *Product  `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

// TableName returns the table name for Installation
func (Installation) TableName() string {
	return "installations"
}
