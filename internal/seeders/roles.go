package seeders

import (
	"encoding/json"
	"fmt"

	"aquaserve-backend/internal/models"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// rolePermissions is the default permission set per role. Per-user
// overrides are layered on top at resolution time.
var rolePermissions = map[string][]string{
	models.RoleSuperAdmin: models.AllPermissions,
	models.RoleServiceAdmin: {
		models.PermServicesView, models.PermServicesCreate, models.PermServicesEdit,
		models.PermServicesDelete, models.PermServicesApprove, models.PermServicesAssign,
		models.PermCustomersView, models.PermCustomersCreate, models.PermCustomersEdit,
		models.PermUsersView, models.PermUsersCreate, models.PermUsersEdit,
		models.PermRegionsView, models.PermReportsView, models.PermReportsExport,
		models.PermDashboardView,
	},
	models.RoleSalesAdmin: {
		models.PermServicesView, models.PermServicesCreate, models.PermServicesApprove,
		models.PermCustomersView, models.PermCustomersCreate, models.PermCustomersEdit,
		models.PermUsersView, models.PermUsersCreate, models.PermUsersEdit,
		models.PermRegionsView, models.PermReportsView, models.PermReportsExport,
		models.PermDashboardView,
	},
	models.RoleServiceManager: {
		models.PermServicesView, models.PermServicesCreate, models.PermServicesEdit,
		models.PermServicesApprove, models.PermServicesAssign,
		models.PermCustomersView, models.PermUsersView,
		models.PermRegionsView, models.PermReportsView, models.PermDashboardView,
	},
	models.RoleSalesManager: {
		models.PermServicesView, models.PermServicesCreate,
		models.PermCustomersView, models.PermCustomersCreate,
		models.PermUsersView, models.PermRegionsView,
		models.PermReportsView, models.PermDashboardView,
	},
	models.RoleServiceTeamLead: {
		models.PermServicesView, models.PermServicesCreate, models.PermServicesEdit,
		models.PermServicesApprove, models.PermServicesAssign,
		models.PermCustomersView, models.PermDashboardView,
	},
	models.RoleSalesTeamLead: {
		models.PermServicesView, models.PermServicesCreate,
		models.PermCustomersView, models.PermCustomersCreate,
		models.PermDashboardView,
	},
	models.RoleTechnician: {
		models.PermServicesView, models.PermDashboardView,
	},
	models.RoleSalesman: {
		models.PermServicesView, models.PermServicesCreate,
		models.PermCustomersView, models.PermCustomersCreate,
		models.PermDashboardView,
	},
}

// SeedRoles creates any missing roles with their default permission sets.
// Existing roles are left untouched.
func SeedRoles(db *gorm.DB, logger *logrus.Logger) error {
	for _, name := range models.AllRoles {
		var count int64
		if err := db.Model(&models.Role{}).Where("name = ?", name).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check role %s: %w", name, err)
		}
		if count > 0 {
			continue
		}

		permsJSON, err := json.Marshal(rolePermissions[name])
		if err != nil {
			return fmt.Errorf("failed to marshal permissions for %s: %w", name, err)
		}

		role := &models.Role{
			Name:        name,
			Permissions: permsJSON,
		}
		if err := db.Create(role).Error; err != nil {
			return fmt.Errorf("failed to seed role %s: %w", name, err)
		}
		logger.Infof("Seeded role: %s", name)
	}
	return nil
}

// SeedAdminUser creates the initial Super Admin account if no user with
// the given email exists.
func SeedAdminUser(db *gorm.DB, logger *logrus.Logger, email, password string) error {
	if email == "" || password == "" {
		return nil
	}

	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check admin user: %w", err)
	}
	if count > 0 {
		return nil
	}

	var role models.Role
	if err := db.Where("name = ?", models.RoleSuperAdmin).First(&role).Error; err != nil {
		return fmt.Errorf("super admin role missing: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	admin := &models.User{
		Name:         "System Administrator",
		Email:        email,
		PasswordHash: string(hash),
		RoleID:       role.ID,
		Status:       models.UserActive,
	}
	if err := db.Create(admin).Error; err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}

	logger.Infof("Seeded admin user: %s", email)
	return nil
}
