package cqrs

import "github.com/eaglebank/console/shared/models"

// GetProfileQuery fetches a profile. An empty UserID means the caller's own.
type GetProfileQuery struct {
	Principal models.Principal
	UserID    string
}

// VerifyPasswordQuery checks a plaintext password against the caller's stored hash.
type VerifyPasswordQuery struct {
	Principal models.Principal
	Password  string
}

// ListAccountsQuery fetches the first page of all accounts.
type ListAccountsQuery struct {
	Principal models.Principal
}
