package models

// Permission keys. The resolver computes a user's effective set as
// role permissions plus per-user additions minus per-user removals.
const (
	PermServicesView    = "services.view"
	PermServicesCreate  = "services.create"
	PermServicesEdit    = "services.edit"
	PermServicesDelete  = "services.delete"
	PermServicesApprove = "services.approve"
	PermServicesAssign  = "services.assign"

	PermCustomersView   = "customers.view"
	PermCustomersCreate = "customers.create"
	PermCustomersEdit   = "customers.edit"
	PermCustomersDelete = "customers.delete"

	PermUsersView   = "users.view"
	PermUsersCreate = "users.create"
	PermUsersEdit   = "users.edit"
	PermUsersDelete = "users.delete"

	PermRegionsView   = "regions.view"
	PermRegionsCreate = "regions.create"
	PermRegionsEdit   = "regions.edit"
	PermRegionsDelete = "regions.delete"

	PermReportsView   = "reports.view"
	PermReportsExport = "reports.export"

	PermDashboardView = "dashboard.view"
)

// AllPermissions is the full catalog, used by seeding and validation.
var AllPermissions = []string{
	PermServicesView, PermServicesCreate, PermServicesEdit,
	PermServicesDelete, PermServicesApprove, PermServicesAssign,
	PermCustomersView, PermCustomersCreate, PermCustomersEdit, PermCustomersDelete,
	PermUsersView, PermUsersCreate, PermUsersEdit, PermUsersDelete,
	PermRegionsView, PermRegionsCreate, PermRegionsEdit, PermRegionsDelete,
	PermReportsView, PermReportsExport,
	PermDashboardView,
}

// IsKnownPermission reports whether key exists in the catalog.
func IsKnownPermission(key string) bool {
	for _, p := range AllPermissions {
		if p == key {
			return true
		}
	}
	return false
}
