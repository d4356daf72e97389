package access

// Role is the permission class derived from a user profile. It is never stored.
type Role string

const (
	RoleManager Role = "manager"
	RoleService Role = "service"
	RoleClient  Role = "client"
	RoleUnknown Role = "unknown"
)

// Group names as they are provisioned in the user directory. English aliases are accepted
// for installations seeded from English fixtures.
var (
	ManagerGroups = []string{"Менеджер", "Managers"}
	ServiceGroups = []string{"Сервисная организация", "Service organization"}
	ClientGroups  = []string{"Клиент", "Client"}
)

// Profile is the minimal view of a user that role resolution needs.
type Profile struct {
	IsStaff bool
	Groups  []string
}

// Resolve maps a profile to exactly one role. Precedence is manager, service, client.
// A nil profile (failed fetch) resolves to RoleUnknown.
func Resolve(p *Profile) Role {
	if p == nil {
		return RoleUnknown
	}
	if p.IsStaff || memberOf(p.Groups, ManagerGroups) {
		return RoleManager
	}
	if memberOf(p.Groups, ServiceGroups) {
		return RoleService
	}
	if memberOf(p.Groups, ClientGroups) {
		return RoleClient
	}
	return RoleUnknown
}

func memberOf(groups, candidates []string) bool {
	for _, g := range groups {
		for _, c := range candidates {
			if g == c {
				return true
			}
		}
	}
	return false
}

// Label is the heading shown next to the username.
func (r Role) Label() string {
	switch r {
	case RoleManager:
		return "Менеджер"
	case RoleService:
		return "Сервисная организация"
	case RoleClient:
		return "Клиент"
	default:
		return "Гость"
	}
}
