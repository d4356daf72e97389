package query

import (
	"context"
	"fmt"

	"github.com/frahmantamala/servicebook/internal"
	"github.com/frahmantamala/servicebook/internal/access"
	"github.com/frahmantamala/servicebook/internal/core/datamodel/equipment"
	"gorm.io/gorm"
)

// Visibility is the row-level restriction for one caller. Managers see every machine,
// service organizations the machines they service, clients the machines they own. Everyone
// else sees nothing.
type Visibility struct {
	Role          access.Role
	UserID        int64
	Authenticated bool
}

func VisibilityFrom(ctx context.Context) Visibility {
	p, ok := internal.PrincipalFromContext(ctx)
	if !ok {
		return Visibility{Role: access.RoleUnknown}
	}
	return Visibility{Role: p.Role, UserID: p.ID, Authenticated: true}
}

// Machines restricts rows through the machines table (or its alias in a join).
func (v Visibility) Machines(machinesTable string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		switch v.Role {
		case access.RoleManager:
			return db
		case access.RoleService:
			return db.Where(fmt.Sprintf("%s.service_org_id = ?", machinesTable), v.UserID)
		case access.RoleClient:
			return db.Where(fmt.Sprintf("%s.client_id = ?", machinesTable), v.UserID)
		default:
			return db.Where("1 = 0")
		}
	}
}

// Search is like Machines except anonymous visitors see the public catalogue.
func (v Visibility) Search(machinesTable string) func(*gorm.DB) *gorm.DB {
	if !v.Authenticated {
		return func(db *gorm.DB) *gorm.DB { return db }
	}
	return v.Machines(machinesTable)
}

// Owns reports whether the caller may write records attached to m.
func (v Visibility) Owns(m *equipment.Machine) bool {
	if m == nil {
		return false
	}
	switch v.Role {
	case access.RoleManager:
		return true
	case access.RoleService:
		return m.ServiceOrgID != nil && *m.ServiceOrgID == v.UserID
	case access.RoleClient:
		return m.ClientID != nil && *m.ClientID == v.UserID
	}
	return false
}
