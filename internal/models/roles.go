package models

// Role names. Authorization decisions go through the permission resolver;
// role names are only consulted for workflow-track rules (sales vs service)
// and the assignable-role hierarchy.
const (
	RoleSuperAdmin      = "Super Admin"
	RoleServiceAdmin    = "Service Admin"
	RoleSalesAdmin      = "Sales Admin"
	RoleServiceManager  = "Service Manager"
	RoleSalesManager    = "Sales Manager"
	RoleServiceTeamLead = "Service Team Lead"
	RoleSalesTeamLead   = "Sales Team Lead"
	RoleTechnician      = "Technician"
	RoleSalesman        = "Salesman"
)

// AllRoles lists every role the system knows about.
var AllRoles = []string{
	RoleSuperAdmin,
	RoleServiceAdmin,
	RoleSalesAdmin,
	RoleServiceManager,
	RoleSalesManager,
	RoleServiceTeamLead,
	RoleSalesTeamLead,
	RoleTechnician,
	RoleSalesman,
}

// SalesTrackRoles are the roles whose service requests need a Sales Admin
// sign-off before service approval.
var SalesTrackRoles = map[string]bool{
	RoleSalesman:      true,
	RoleSalesTeamLead: true,
	RoleSalesManager:  true,
}

// ServiceApproverRoles may approve a pending request on the service track.
var ServiceApproverRoles = map[string]bool{
	RoleSuperAdmin:      true,
	RoleServiceAdmin:    true,
	RoleServiceManager:  true,
	RoleServiceTeamLead: true,
}

// SalesApproverRoles may record the sales-track sign-off.
var SalesApproverRoles = map[string]bool{
	RoleSalesAdmin: true,
	RoleSuperAdmin: true,
}

// RejectRoles may reject a pending request.
var RejectRoles = map[string]bool{
	RoleSuperAdmin:      true,
	RoleServiceAdmin:    true,
	RoleSalesAdmin:      true,
	RoleServiceManager:  true,
	RoleServiceTeamLead: true,
}

// ManagementRoles see the full dashboard rather than a personal slice.
var ManagementRoles = map[string]bool{
	RoleSuperAdmin:      true,
	RoleServiceAdmin:    true,
	RoleSalesAdmin:      true,
	RoleServiceManager:  true,
	RoleSalesManager:    true,
	RoleServiceTeamLead: true,
	RoleSalesTeamLead:   true,
}

// RoleHierarchy maps each role to the roles it may create or manage.
var RoleHierarchy = map[string][]string{
	RoleSuperAdmin: {
		RoleServiceAdmin, RoleSalesAdmin,
		RoleServiceManager, RoleSalesManager,
		RoleServiceTeamLead, RoleSalesTeamLead,
		RoleTechnician, RoleSalesman,
	},
	RoleServiceAdmin:    {RoleServiceManager, RoleServiceTeamLead, RoleTechnician},
	RoleSalesAdmin:      {RoleSalesManager, RoleSalesTeamLead, RoleSalesman},
	RoleServiceManager:  {RoleServiceTeamLead, RoleTechnician},
	RoleSalesManager:    {RoleSalesTeamLead, RoleSalesman},
	RoleServiceTeamLead: {RoleTechnician},
	RoleSalesTeamLead:   {RoleSalesman},
	RoleTechnician:      {},
	RoleSalesman:        {},
}

// CanManageRole reports whether actorRole may create or manage users
// holding targetRole.
func CanManageRole(actorRole, targetRole string) bool {
	for _, r := range RoleHierarchy[actorRole] {
		if r == targetRole {
			return true
		}
	}
	return false
}
