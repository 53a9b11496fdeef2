package models

import "time"

// ProfileView is the profile projection returned by GetProfile.
// It never exposes the stored password.
type ProfileView struct {
	Name     string     `json:"name"`
	Avator   string     `json:"avator"`
	UserID   string     `json:"userId"`
	UserName string     `json:"userName"`
	Access   int        `json:"access"`
	LastTime *time.Time `json:"lastTime"`
	LastIP   string     `json:"lastIp"`
}

// AccountSummary is one row of the account listing.
type AccountSummary struct {
	Name     string     `json:"name"`
	UserID   string     `json:"userId"`
	UserName string     `json:"userName"`
	LastTime *time.Time `json:"lastTime"`
	LastIP   string     `json:"lastIp"`
}

func ProfileFromAccount(a *Account) *ProfileView {
	return &ProfileView{
		Name:     a.Name,
		Avator:   a.Avator,
		UserID:   a.UserID,
		UserName: a.UserName,
		Access:   a.Access,
		LastTime: a.LastTime,
		LastIP:   a.LastIP,
	}
}
