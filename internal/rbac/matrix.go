package rbac

import (
	"errors"
	"fmt"
	"slices"
)

// Grants maps a permission key to its scope tokens: Wildcard or record ids.
type Grants map[Permission][]string

// Matrix is the per-role grant table. A resource type missing from the matrix
// denies every action on it.
type Matrix map[ResourceType]Grants

// Grant adds scope tokens for one action/possession pair. Calling it without
// ids grants Wildcard.
func (m Matrix) Grant(resource ResourceType, action Action, possession Possession, ids ...string) Matrix {
	if len(ids) == 0 {
		ids = []string{Wildcard}
	}
	grants, ok := m[resource]
	if !ok {
		grants = Grants{}
		m[resource] = grants
	}
	key := PermissionFor(action, possession)
	for _, id := range ids {
		if !slices.Contains(grants[key], id) {
			grants[key] = append(grants[key], id)
		}
	}
	return m
}

// Lookup returns the scope tokens for a permission and whether the entry exists.
func (m Matrix) Lookup(resource ResourceType, action Action, possession Possession) ([]string, bool) {
	grants, ok := m[resource]
	if !ok {
		return nil, false
	}
	ids, ok := grants[PermissionFor(action, possession)]
	if !ok || len(ids) == 0 {
		return nil, false
	}
	return ids, true
}

// Validate rejects unknown resource types and malformed permission keys so a
// stored matrix cannot silently grant on a tag the code does not know.
func (m Matrix) Validate() error {
	var errs []error
	for resource, grants := range m {
		if !resource.Valid() {
			errs = append(errs, fmt.Errorf("unknown resource type %q", resource))
			continue
		}
		for permission := range grants {
			if _, _, err := permission.Parse(); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", resource, err))
			}
		}
	}
	return errors.Join(errs...)
}

// Equal reports whether both matrices grant the same scopes.
func (m Matrix) Equal(other Matrix) bool {
	if len(m) != len(other) {
		return false
	}
	for resource, grants := range m {
		otherGrants, ok := other[resource]
		if !ok || len(grants) != len(otherGrants) {
			return false
		}
		for permission, ids := range grants {
			otherIDs, ok := otherGrants[permission]
			if !ok || len(ids) != len(otherIDs) {
				return false
			}
			for _, id := range ids {
				if !slices.Contains(otherIDs, id) {
					return false
				}
			}
		}
	}
	return true
}

func (m Matrix) Clone() Matrix {
	out := make(Matrix, len(m))
	for resource, grants := range m {
		g := make(Grants, len(grants))
		for permission, ids := range grants {
			g[permission] = slices.Clone(ids)
		}
		out[resource] = g
	}
	return out
}

// FullAccess grants Wildcard on every action of every known resource type.
func FullAccess() Matrix {
	m := Matrix{}
	for _, resource := range ResourceTypes {
		for _, action := range Actions {
			m.Grant(resource, action, PossessionAny)
		}
	}
	return m
}

// FromMap converts the stored JSON shape into a Matrix.
func FromMap(raw map[string]map[string][]string) Matrix {
	m := make(Matrix, len(raw))
	for resource, grants := range raw {
		g := make(Grants, len(grants))
		for permission, ids := range grants {
			g[Permission(permission)] = slices.Clone(ids)
		}
		m[ResourceType(resource)] = g
	}
	return m
}

// ToMap converts a Matrix into the stored JSON shape.
func (m Matrix) ToMap() map[string]map[string][]string {
	raw := make(map[string]map[string][]string, len(m))
	for resource, grants := range m {
		g := make(map[string][]string, len(grants))
		for permission, ids := range grants {
			g[string(permission)] = slices.Clone(ids)
		}
		raw[string(resource)] = g
	}
	return raw
}
