package models

import (
	"strings"
	"time"
)

// Identity is a copy of the user taken at login. Later profile edits do not
// reach sessions that already hold it.
type Identity struct {
	Firstname  string `json:"firstname"`
	Middlename string `json:"middlename"`
	Lastname   string `json:"lastname"`
	Email      string `json:"email"`
	Address    string `json:"address"`
	Contact    string `json:"contact"`
	Role       string `json:"role"`
}

// DisplayName joins the non-empty name parts with single spaces.
func (i Identity) DisplayName() string {
	return strings.Join(strings.Fields(i.Firstname+" "+i.Middlename+" "+i.Lastname), " ")
}

type Session struct {
	ID        string    `json:"id"`
	User      Identity  `json:"user"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *Session) IsAdmin() bool {
	return s != nil && s.User.Role == RoleAdmin
}

func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}
