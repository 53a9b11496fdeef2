package models

import "time"

// Access levels. Zero is the super-admin level; anything else is restricted.
const (
	AccessSuperAdmin = 0
)

// Principal is the authenticated caller of a console request.
type Principal struct {
	UserID string `json:"userId"`
	Access int    `json:"access"`
}

// IsAdmin reports whether the principal may perform admin-only edits.
func (p Principal) IsAdmin() bool {
	return p.Access == AccessSuperAdmin && p.UserID != ""
}

type Account struct {
	UserID    string     `json:"userId"`
	Name      string     `json:"name"`
	UserName  string     `json:"userName"`
	Password  string     `json:"-"`
	Access    int        `json:"access"`
	Avator    string     `json:"avator"`
	LastTime  *time.Time `json:"lastTime"`
	LastIP    string     `json:"lastIp"`
	CreatedAt time.Time  `json:"-"`
}

// AccountUpdate is the column set written by an update. Nil fields are left
// untouched; UserID is never part of it.
type AccountUpdate struct {
	Name     *string
	UserName *string
	Password *string
}

func (u AccountUpdate) Empty() bool {
	return u.Name == nil && u.UserName == nil && u.Password == nil
}
