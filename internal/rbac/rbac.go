// Package rbac holds the permission matrix carried by every role and the
// resolver that merges the matrices of an identity's roles into a single
// allow/deny decision.
//
// Resource types and actions are closed enumerations. Matrices are still data:
// they are built at bootstrap or loaded from the role store, never hardcoded
// per role at the call site.
package rbac

import (
	"fmt"
	"strings"
)

// ResourceType tags a kind of record that permissions are granted on.
type ResourceType string

const (
	ResourceUser                   ResourceType = "User"
	ResourceRolePermission         ResourceType = "RolePermission"
	ResourceOrganizationPermission ResourceType = "OrganizationPermission"
	ResourceOrganization           ResourceType = "Organization"
)

// ResourceTypes lists every known resource type.
var ResourceTypes = []ResourceType{
	ResourceUser,
	ResourceRolePermission,
	ResourceOrganizationPermission,
	ResourceOrganization,
}

// Valid reports whether r is one of ResourceTypes.
func (r ResourceType) Valid() bool {
	for _, known := range ResourceTypes {
		if r == known {
			return true
		}
	}
	return false
}

// Action is an operation a permission grants on a resource type.
type Action string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Actions lists every known action.
var Actions = []Action{ActionCreate, ActionRead, ActionUpdate, ActionDelete}

// Valid reports whether a is one of Actions.
func (a Action) Valid() bool {
	switch a {
	case ActionCreate, ActionRead, ActionUpdate, ActionDelete:
		return true
	}
	return false
}

// Possession distinguishes grants over the identity's own records from grants
// over any record.
type Possession string

const (
	PossessionAny Possession = "any"
	PossessionOwn Possession = "own"
)

// Permission is the matrix key, e.g. "update:own".
type Permission string

// PermissionFor builds the matrix key for an action and possession.
func PermissionFor(action Action, possession Possession) Permission {
	return Permission(string(action) + ":" + string(possession))
}

// Parse splits a permission key into its action and possession.
func (p Permission) Parse() (Action, Possession, error) {
	action, possession, ok := strings.Cut(string(p), ":")
	if !ok {
		return "", "", fmt.Errorf("permission %q: missing possession", p)
	}
	a, pos := Action(action), Possession(possession)
	if !a.Valid() {
		return "", "", fmt.Errorf("permission %q: unknown action %q", p, action)
	}
	if pos != PossessionAny && pos != PossessionOwn {
		return "", "", fmt.Errorf("permission %q: unknown possession %q", p, possession)
	}
	return a, pos, nil
}

// Wildcard grants every record of a resource type.
const Wildcard = "*"
