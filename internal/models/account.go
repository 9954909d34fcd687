package models

import "time"

// Role is one of the three flat operator roles. There is no permission
// engine behind them; callers compare roles directly.
type Role string

const (
	RoleSuperAdmin      Role = "Super Admin"
	RoleSystemAdmin     Role = "System Admin"
	RoleServiceEngineer Role = "Service Engineer"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleSystemAdmin, RoleServiceEngineer:
		return true
	}
	return false
}

// ParseRole maps a stored role string to a Role.
func ParseRole(s string) (Role, bool) {
	r := Role(s)
	return r, r.Valid()
}

// BootstrapUsername is the sentinel username of the hard-coded superuser.
// The row is stored in clear, unlike every other username, so it stays
// recognizable without a decrypt pass.
const BootstrapUsername = "super_admin"

// BootstrapPassword is the fixed credential of the bootstrap account. It is
// accepted regardless of the stored hash and can never be changed at runtime.
const BootstrapPassword = "Admin_123?"

// Account is one operator record as held by the credential store.
// Username is cipher-encrypted at rest for every account except the
// bootstrap sentinel.
type Account struct {
	ID           string    `json:"id"` // UUIDv7, immutable
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	TempPassword bool      `json:"temp_password"`
	CreatedAt    time.Time `json:"created_at"`
}

// IsBootstrap reports whether this is the protected superuser row.
// Deletion and role edits of this account must always fail.
func (a *Account) IsBootstrap() bool {
	return a.Username == BootstrapUsername
}
