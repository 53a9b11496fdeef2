// Package errs holds the sentinel errors shared by the console services.
// Callers match them with errors.Is; repositories wrap them with context.
package errs

import "errors"

var (
	// repository errors
	ErrAccountNotFound = errors.New("account not found")
	ErrUserNameTaken   = errors.New("username already taken")

	// service errors
	ErrInvalidParams        = errors.New("invalid parameters")
	ErrForbidden            = errors.New("permission denied")
	ErrPasswordMismatch     = errors.New("password incorrect")
	ErrOldPasswordIncorrect = errors.New("old password incorrect")
	ErrNotModified          = errors.New("update affected no rows")
)
