package auth

import "github.com/LuisEmilioVP/NexuViaticos/internal/models"

// Principal is the authenticated caller of a request. It is resolved per
// request from the bearer token and passed explicitly into every core
// call; there is no ambient session state.
type Principal struct {
	UserID   int64
	Username string
	Role     string
}

// IsAdmin reports whether the caller holds the admin role.
func (p Principal) IsAdmin() bool {
	return p.Role == models.RoleAdmin
}

// CanActFor reports whether the caller may operate on the target
// employee's data: admins may act for anyone, others only for themselves.
func (p Principal) CanActFor(employeeID int64) bool {
	return p.IsAdmin() || p.UserID == employeeID
}
