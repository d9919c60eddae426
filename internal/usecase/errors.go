package usecase

import "errors"

var (
	// ErrInvalidCredentials indicates the provided email or password are incorrect.
	// Unknown email and wrong password deliberately share this error.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken indicates the presented token is malformed, expired, or badly signed.
	ErrInvalidToken = errors.New("invalid token")
	// ErrPrincipalNotFound indicates the token references a principal that no longer exists.
	ErrPrincipalNotFound = errors.New("principal not found")
	// ErrPrincipalInactive indicates the principal is soft-deleted.
	ErrPrincipalInactive = errors.New("principal is not active")
	// ErrEmailTaken indicates the registration email is already in use.
	ErrEmailTaken = errors.New("email already registered")
	// ErrPasswordMismatch indicates the password and confirmation differ.
	ErrPasswordMismatch = errors.New("password confirmation does not match")
	// ErrRoleNotFound indicates the referenced role does not exist.
	ErrRoleNotFound = errors.New("role not found")
	// ErrResourceNotFound indicates the referenced resource type does not exist.
	ErrResourceNotFound = errors.New("resource type not found")
)
