package access

type Collection string

const (
	Machines    Collection = "machines"
	Maintenance Collection = "maintenance"
	Claims      Collection = "claims"
)

var Collections = []Collection{Machines, Maintenance, Claims}

type Action string

const (
	ActionCreate Action = "create"
	ActionEdit   Action = "edit"
	ActionDelete Action = "delete"
)

var writable = map[Role]map[Collection]bool{
	RoleManager: {Machines: true, Maintenance: true, Claims: true},
	RoleService: {Maintenance: true, Claims: true},
	RoleClient:  {Maintenance: true},
}

// Can reports whether role may perform action on collection. Every role may read.
// Writes are all-or-nothing per collection.
func Can(role Role, collection Collection, action Action) bool {
	switch action {
	case ActionCreate, ActionEdit, ActionDelete:
		return writable[role][collection]
	}
	return false
}

// Permissions is the per-collection affordance set a view renders from.
type Permissions struct {
	CanCreate bool
	CanEdit   bool
	CanDelete bool
}

// Actions is true when the row action column should exist at all.
func (p Permissions) Actions() bool {
	return p.CanEdit || p.CanDelete
}

func For(role Role, collection Collection) Permissions {
	return Permissions{
		CanCreate: Can(role, collection, ActionCreate),
		CanEdit:   Can(role, collection, ActionEdit),
		CanDelete: Can(role, collection, ActionDelete),
	}
}
