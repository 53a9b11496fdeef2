package cqrs

import "github.com/eaglebank/console/shared/models"

// UpdateProfileCommand changes the caller's own name and login.
type UpdateProfileCommand struct {
	Principal models.Principal
	Name      string
	UserName  string
}

// ChangePasswordCommand replaces the caller's password after proving the old one.
type ChangePasswordCommand struct {
	Principal   models.Principal
	Password    string
	NewPassword string
}

// AdminUpdateAccountCommand edits any account; Password is optional.
type AdminUpdateAccountCommand struct {
	Principal models.Principal
	UserID    string
	Name      string
	UserName  string
	Password  string
}
