package rbac

import "slices"

// Role is a hydrated role reference: its matrix plus optional organization
// scope. An empty OrganizationID marks a global role.
type Role struct {
	ID             string
	Name           string
	OrganizationID string
	Matrix         Matrix
}

func (r Role) IsGlobal() bool {
	return r.OrganizationID == ""
}

// AppliesTo reports whether the role participates in a check made in the
// given organization context. Global roles always apply; scoped roles only
// apply inside their own organization.
func (r Role) AppliesTo(organizationID string) bool {
	if r.IsGlobal() {
		return true
	}
	return organizationID != "" && r.OrganizationID == organizationID
}

// Request is the target of a permission check.
type Request struct {
	Resource       ResourceType
	Action         Action
	OrganizationID string
	// IsOwner is consulted only when a role grants the "own" variant.
	IsOwner func() bool
}

// Scope is the effective set of records a decision covers.
type Scope struct {
	Unrestricted bool
	IDs          []string
}

// Allows reports whether the record id is covered.
func (s Scope) Allows(id string) bool {
	return s.Unrestricted || slices.Contains(s.IDs, id)
}

func (s Scope) union(tokens []string) Scope {
	if s.Unrestricted {
		return s
	}
	for _, token := range tokens {
		if token == Wildcard {
			return Scope{Unrestricted: true}
		}
		if !slices.Contains(s.IDs, token) {
			s.IDs = append(s.IDs, token)
		}
	}
	return s
}

// Decision is the outcome of Resolve. The zero value is a denial.
type Decision struct {
	Granted bool
	// Possession is PossessionAny when at least one role granted the "any"
	// variant, PossessionOwn when only ownership-based grants applied.
	Possession Possession
	Scope      Scope
}

// Resolve merges the roles applicable to req and decides. Grants are
// additive: a broader scope from any role wins, and nothing subtracts.
func Resolve(roles []Role, req Request) Decision {
	var (
		decision Decision
		owner    *bool
	)

	isOwner := func() bool {
		if owner == nil {
			v := req.IsOwner != nil && req.IsOwner()
			owner = &v
		}
		return *owner
	}

	for _, role := range roles {
		if !role.AppliesTo(req.OrganizationID) {
			continue
		}

		if ids, ok := role.Matrix.Lookup(req.Resource, req.Action, PossessionAny); ok {
			decision.Granted = true
			decision.Possession = PossessionAny
			decision.Scope = decision.Scope.union(ids)
			continue
		}

		if ids, ok := role.Matrix.Lookup(req.Resource, req.Action, PossessionOwn); ok && isOwner() {
			decision.Granted = true
			if decision.Possession == "" {
				decision.Possession = PossessionOwn
			}
			decision.Scope = decision.Scope.union(ids)
		}
	}

	return decision
}
