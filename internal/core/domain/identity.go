package domain

import "time"

// Principal mirrors the persisted representation in the principals table.
// PasswordHash never leaves the service layer. RoleID is mandatory.
type Principal struct {
	ID           string
	Email        string
	PasswordHash string
	FirstName    *string
	LastName     *string
	IsActive     bool
	RoleID       string
	RegisteredAt time.Time
}
