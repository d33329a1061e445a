package user

import "time"

// Role is one of the four account tiers. The ordering
// Superadmin > Admin > Superuser > User is product copy; route
// authorization is exact-match (see CanAccess).
type Role string

const (
	RoleSuperadmin Role = "Superadmin"
	RoleAdmin      Role = "Admin"
	RoleSuperuser  Role = "Superuser"
	RoleUser       Role = "User"
)

var allRoles = []Role{RoleSuperadmin, RoleAdmin, RoleSuperuser, RoleUser}

// adminAssignable is the subset an Admin may set on accounts they created.
var adminAssignable = []Role{RoleUser, RoleSuperuser}

func ParseRole(s string) (Role, bool) {
	for _, r := range allRoles {
		if string(r) == s {
			return r, true
		}
	}

	return "", false
}

func (r Role) Valid() bool {
	_, ok := ParseRole(string(r))
	return ok
}

// AdminAssignable reports whether an Admin may assign this role.
func (r Role) AdminAssignable() bool {
	for _, a := range adminAssignable {
		if r == a {
			return true
		}
	}

	return false
}

// CanAccess decides whether callerRole may pass a gate requiring
// requiredRole. This is deliberately exact equality, not a privilege
// ordering: a Superadmin calling an Admin-only route is rejected. Any
// future hierarchy semantics change this one function, not its call sites.
func CanAccess(callerRole, requiredRole Role) bool {
	return callerRole == requiredRole
}

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // never expose hash in JSON
	Role         Role      `json:"role"`
	CreatedBy    *string   `json:"createdBy,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
