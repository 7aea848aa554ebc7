package permissions

import "github.com/guildforge/guildforge/internal/models"

// StaffPositionThreshold is the hierarchy rank at or above which a role is
// treated as staff regardless of its permission list.
const StaffPositionThreshold = 12

// IsStaff reports whether a role counts as staff: rank at or above the
// threshold, or an administrator/guild-management capability in its
// permission list. The classification is derived, never stored.
func IsStaff(role models.Role) bool {
	if role.Position >= StaffPositionThreshold {
		return true
	}
	mask := Resolve(role.Permissions)
	return mask.Has(Administrator) || mask.Has(ManageGuild)
}

// StaffRoles filters the template roster down to roles satisfying the staff
// predicate, preserving document order.
func StaffRoles(roles []models.Role) []models.Role {
	var staff []models.Role
	for _, role := range roles {
		if IsStaff(role) {
			staff = append(staff, role)
		}
	}
	return staff
}
