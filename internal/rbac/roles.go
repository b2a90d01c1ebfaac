package rbac

// Role names as stored in users.role. Keep these stable.
const (
	RoleAdmin      = "Admin"
	RoleSuperAdmin = "Super Admin"
)

func IsSuperAdmin(role string) bool { return role == RoleSuperAdmin }

func IsKnownRole(role string) bool {
	return role == RoleAdmin || role == RoleSuperAdmin
}

// CanAccess reports whether a caller may act on a row owned by ownerID.
// Super Admin sees every row; everyone else only their own.
func CanAccess(role string, callerID, ownerID int64) bool {
	if IsSuperAdmin(role) {
		return true
	}
	return callerID != 0 && callerID == ownerID
}
