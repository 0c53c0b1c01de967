package entity

// Role is a named bundle of permissions. Exactly one role is the default
// assigned to new accounts.
type Role struct {
	ID          int64
	Name        string
	Permissions Permission
	IsDefault   bool
}

const (
	RoleUser          = "User"
	RoleModerator     = "Moderator"
	RoleAdministrator = "Administrator"
)

// RoleSeed describes a role provisioned at deploy time.
type RoleSeed struct {
	Name        string
	Permissions Permission
	IsDefault   bool
}

// DefaultRoles returns the fixed role table upserted by name on every deploy.
func DefaultRoles() []RoleSeed {
	return []RoleSeed{
		{Name: RoleUser, Permissions: PermFollow | PermComment | PermWriteArticles, IsDefault: true},
		{Name: RoleModerator, Permissions: PermFollow | PermComment | PermWriteArticles | PermModerateComments},
		{Name: RoleAdministrator, Permissions: PermAll},
	}
}

func (r *Role) HasPermission(p Permission) bool {
	return r.Permissions.Has(p)
}

func (r *Role) AddPermission(p Permission) {
	r.Permissions |= p
}

func (r *Role) ResetPermissions() {
	r.Permissions = 0
}

// Apply replaces the role's permissions and default flag with the seed's.
func (r *Role) Apply(seed RoleSeed) {
	r.ResetPermissions()
	r.AddPermission(seed.Permissions)
	r.IsDefault = seed.IsDefault
}
