package user

import (
	"github.com/frahmantamala/servicebook/internal"
	"github.com/frahmantamala/servicebook/internal/access"
)

// Account is a row of the user directory. PasswordHash never leaves this package's callers.
type Account struct {
	ID           int64  `db:"id"`
	Username     string `db:"username"`
	FirstName    string `db:"first_name"`
	LastName     string `db:"last_name"`
	PasswordHash string `db:"password_hash"`
	IsStaff      bool   `db:"is_staff"`
	IsActive     bool   `db:"is_active"`
}

// Profile is the /me/ response.
type Profile struct {
	ID        int64    `json:"id"`
	Username  string   `json:"username"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	IsStaff   bool     `json:"is_staff"`
	Groups    []string `json:"groups"`
}

func NewProfile(a *Account, groups []string) *Profile {
	if groups == nil {
		groups = []string{}
	}
	return &Profile{
		ID:        a.ID,
		Username:  a.Username,
		FirstName: a.FirstName,
		LastName:  a.LastName,
		IsStaff:   a.IsStaff,
		Groups:    groups,
	}
}

// Principal resolves the caller's role from the profile.
func (p *Profile) Principal() *internal.Principal {
	return &internal.Principal{
		ID:       p.ID,
		Username: p.Username,
		IsStaff:  p.IsStaff,
		Groups:   p.Groups,
		Role:     access.Resolve(&access.Profile{IsStaff: p.IsStaff, Groups: p.Groups}),
	}
}
