package domain

// Action enumerates the operations the permission matrix gates.
type Action string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Role defines a named permission group. Every principal holds exactly one role.
type Role struct {
	ID          string
	Name        string
	Description *string
}

// ResourceType is a protected business element. Only Key is compared at
// decision time; ID exists for foreign keys.
type ResourceType struct {
	ID   string
	Key  string
	Name string
}

// GrantFlags holds the per-action permission bits of a matrix cell. Create has
// no global variant because there is no record to own yet. Local and global
// flags are independently assignable and must not be collapsed into a level.
type GrantFlags struct {
	Create    bool
	Read      bool
	ReadAll   bool
	Update    bool
	UpdateAll bool
	Delete    bool
	DeleteAll bool
}

// PermissionGrant is one (role, resource type) cell of the permission matrix.
// At most one grant exists per pair; an absent row means default-deny.
type PermissionGrant struct {
	ID         string
	RoleID     string
	ResourceID string
	Flags      GrantFlags
}

// RuleView is a denormalized matrix row for administrative listing.
type RuleView struct {
	RoleName     string
	ResourceKey  string
	ResourceName string
	Flags        GrantFlags
}
