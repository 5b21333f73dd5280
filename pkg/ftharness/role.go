package ftharness

import "strings"

// Role selects how a run treats a missing checkpoint.
type Role int

const (
	// RolePrimary starts fresh when no checkpoint exists.
	RolePrimary Role = iota

	// RoleReplica requires a checkpoint left by a primary.
	RoleReplica
)

// String returns the role name.
func (r Role) String() string {
	switch r {
	case RolePrimary:
		return "primary"
	case RoleReplica:
		return "replica"
	default:
		return "unknown"
	}
}

// ParseRole maps a job name to a role. "replica" (any case) selects the
// replica role; every other name, including "main" and "primary", is primary.
func ParseRole(name string) Role {
	if strings.EqualFold(strings.TrimSpace(name), "replica") {
		return RoleReplica
	}
	return RolePrimary
}
