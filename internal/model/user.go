package model

import "time"

// Role is the account type a user registers with
type Role string

const (
	// RoleMaster owns and manages its own catalog
	RoleMaster Role = "master"
	// RoleAdmin has read access across every master's catalog
	RoleAdmin Role = "admin"
)

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	return r == RoleMaster || r == RoleAdmin
}

// User represents a registered account
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Identity is the authenticated caller of a catalog operation.
// It is resolved once per request from the credential and passed explicitly.
type Identity struct {
	UserID string `json:"user_id"`
	Role   Role   `json:"role"`
}

// Anonymous reports whether the identity carries no user
func (i Identity) Anonymous() bool {
	return i.UserID == ""
}
