package rbac_test

import (
	"testing"

	"github.com/Kauel-Chile/MERN-Boilerplate/internal/rbac"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestRBAC(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "RBAC Suite")
}

var _ = Describe("Resolve", func() {
	var (
		superAdmin rbac.Role
		orgUser    rbac.Role
		reader     rbac.Role
	)

	BeforeEach(func() {
		superAdmin = rbac.Role{ID: "r-super", Name: "SuperAdmin", Matrix: rbac.FullAccess()}
		orgUser = rbac.Role{
			ID:             "r-user",
			Name:           "user",
			OrganizationID: "org-1",
			Matrix: rbac.Matrix{}.
				Grant(rbac.ResourceUser, rbac.ActionCreate, rbac.PossessionAny).
				Grant(rbac.ResourceUser, rbac.ActionRead, rbac.PossessionAny).
				Grant(rbac.ResourceOrganization, rbac.ActionUpdate, rbac.PossessionAny),
		}
		reader = rbac.Role{
			ID:   "r-reader",
			Name: "reader",
			Matrix: rbac.Matrix{}.
				Grant(rbac.ResourceOrganization, rbac.ActionRead, rbac.PossessionAny, "org-1", "org-2"),
		}
	})

	Context("deny by default", func() {
		It("denies when no role has an entry for the resource type", func() {
			d := rbac.Resolve([]rbac.Role{reader}, rbac.Request{
				Resource: rbac.ResourceUser,
				Action:   rbac.ActionRead,
			})
			Expect(d.Granted).To(BeFalse())
		})

		It("denies an identity without roles", func() {
			for _, resource := range rbac.ResourceTypes {
				for _, action := range rbac.Actions {
					d := rbac.Resolve(nil, rbac.Request{Resource: resource, Action: action})
					Expect(d.Granted).To(BeFalse())
				}
			}
		})

		It("denies an action the entry does not list", func() {
			d := rbac.Resolve([]rbac.Role{reader}, rbac.Request{
				Resource: rbac.ResourceOrganization,
				Action:   rbac.ActionDelete,
			})
			Expect(d.Granted).To(BeFalse())
		})
	})

	Context("organization scoping", func() {
		It("never grants a scoped role's permissions in another organization", func() {
			d := rbac.Resolve([]rbac.Role{orgUser}, rbac.Request{
				Resource:       rbac.ResourceOrganization,
				Action:         rbac.ActionUpdate,
				OrganizationID: "org-2",
			})
			Expect(d.Granted).To(BeFalse())
		})

		It("does not grant a scoped role for a check without organization context", func() {
			d := rbac.Resolve([]rbac.Role{orgUser}, rbac.Request{
				Resource: rbac.ResourceUser,
				Action:   rbac.ActionRead,
			})
			Expect(d.Granted).To(BeFalse())
		})

		It("grants a scoped role inside its own organization", func() {
			d := rbac.Resolve([]rbac.Role{orgUser}, rbac.Request{
				Resource:       rbac.ResourceOrganization,
				Action:         rbac.ActionUpdate,
				OrganizationID: "org-1",
			})
			Expect(d.Granted).To(BeTrue())
			Expect(d.Scope.Unrestricted).To(BeTrue())
		})

		It("applies global roles in any organization context", func() {
			d := rbac.Resolve([]rbac.Role{superAdmin}, rbac.Request{
				Resource:       rbac.ResourceOrganization,
				Action:         rbac.ActionDelete,
				OrganizationID: "org-9",
			})
			Expect(d.Granted).To(BeTrue())
			Expect(d.Possession).To(Equal(rbac.PossessionAny))
		})
	})

	Context("union of scopes", func() {
		It("unions explicit allow-lists across roles", func() {
			other := rbac.Role{
				ID:     "r-other",
				Matrix: rbac.Matrix{}.Grant(rbac.ResourceOrganization, rbac.ActionRead, rbac.PossessionAny, "org-2", "org-3"),
			}
			d := rbac.Resolve([]rbac.Role{reader, other}, rbac.Request{
				Resource: rbac.ResourceOrganization,
				Action:   rbac.ActionRead,
			})
			Expect(d.Granted).To(BeTrue())
			Expect(d.Scope.Unrestricted).To(BeFalse())
			Expect(d.Scope.IDs).To(ConsistOf("org-1", "org-2", "org-3"))
			Expect(d.Scope.Allows("org-3")).To(BeTrue())
			Expect(d.Scope.Allows("org-4")).To(BeFalse())
		})

		It("lets a wildcard from one role win over an allow-list from another", func() {
			d := rbac.Resolve([]rbac.Role{reader, superAdmin}, rbac.Request{
				Resource: rbac.ResourceOrganization,
				Action:   rbac.ActionRead,
			})
			Expect(d.Scope.Unrestricted).To(BeTrue())
			Expect(d.Scope.Allows("anything")).To(BeTrue())
		})

		It("is monotonic when roles are added", func() {
			req := rbac.Request{Resource: rbac.ResourceOrganization, Action: rbac.ActionRead}
			before := rbac.Resolve([]rbac.Role{reader}, req)
			Expect(before.Granted).To(BeTrue())

			for _, extra := range []rbac.Role{orgUser, superAdmin, {ID: "empty", Matrix: rbac.Matrix{}}} {
				after := rbac.Resolve([]rbac.Role{reader, extra}, req)
				Expect(after.Granted).To(BeTrue())
				for _, id := range before.Scope.IDs {
					Expect(after.Scope.Allows(id)).To(BeTrue())
				}
			}
		})
	})

	Context("own variant", func() {
		var selfEditor rbac.Role

		BeforeEach(func() {
			selfEditor = rbac.Role{
				ID:     "r-self",
				Matrix: rbac.Matrix{}.Grant(rbac.ResourceUser, rbac.ActionUpdate, rbac.PossessionOwn),
			}
		})

		It("grants when the caller owns the target", func() {
			d := rbac.Resolve([]rbac.Role{selfEditor}, rbac.Request{
				Resource: rbac.ResourceUser,
				Action:   rbac.ActionUpdate,
				IsOwner:  func() bool { return true },
			})
			Expect(d.Granted).To(BeTrue())
			Expect(d.Possession).To(Equal(rbac.PossessionOwn))
		})

		It("denies when the caller does not own the target", func() {
			d := rbac.Resolve([]rbac.Role{selfEditor}, rbac.Request{
				Resource: rbac.ResourceUser,
				Action:   rbac.ActionUpdate,
				IsOwner:  func() bool { return false },
			})
			Expect(d.Granted).To(BeFalse())
		})

		It("denies when no ownership predicate is supplied", func() {
			d := rbac.Resolve([]rbac.Role{selfEditor}, rbac.Request{
				Resource: rbac.ResourceUser,
				Action:   rbac.ActionUpdate,
			})
			Expect(d.Granted).To(BeFalse())
		})

		It("prefers the any variant and skips the ownership predicate", func() {
			both := rbac.Role{
				ID: "r-both",
				Matrix: rbac.Matrix{}.
					Grant(rbac.ResourceUser, rbac.ActionUpdate, rbac.PossessionAny).
					Grant(rbac.ResourceUser, rbac.ActionUpdate, rbac.PossessionOwn),
			}
			calls := 0
			d := rbac.Resolve([]rbac.Role{both}, rbac.Request{
				Resource: rbac.ResourceUser,
				Action:   rbac.ActionUpdate,
				IsOwner:  func() bool { calls++; return false },
			})
			Expect(d.Granted).To(BeTrue())
			Expect(d.Possession).To(Equal(rbac.PossessionAny))
			Expect(calls).To(BeZero())
		})
	})
})

var _ = Describe("Matrix", func() {
	It("grants wildcard when no ids are given", func() {
		m := rbac.Matrix{}.Grant(rbac.ResourceUser, rbac.ActionRead, rbac.PossessionAny)
		ids, ok := m.Lookup(rbac.ResourceUser, rbac.ActionRead, rbac.PossessionAny)
		Expect(ok).To(BeTrue())
		Expect(ids).To(Equal([]string{rbac.Wildcard}))
	})

	It("covers every resource type and action in FullAccess", func() {
		m := rbac.FullAccess()
		Expect(m.Validate()).To(Succeed())
		for _, resource := range rbac.ResourceTypes {
			for _, action := range rbac.Actions {
				_, ok := m.Lookup(resource, action, rbac.PossessionAny)
				Expect(ok).To(BeTrue())
			}
		}
	})

	It("rejects unknown resource types and permission keys", func() {
		m := rbac.FromMap(map[string]map[string][]string{
			"Invoice": {"read:any": {"*"}},
			"User":    {"read:all": {"*"}, "fly:any": {"*"}},
		})
		err := m.Validate()
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("Invoice"))
		Expect(err.Error()).To(ContainSubstring("read:all"))
		Expect(err.Error()).To(ContainSubstring("fly"))
	})

	It("round-trips through the stored map shape", func() {
		m := rbac.Matrix{}.
			Grant(rbac.ResourceOrganization, rbac.ActionRead, rbac.PossessionAny, "org-1").
			Grant(rbac.ResourceUser, rbac.ActionUpdate, rbac.PossessionOwn)
		Expect(rbac.FromMap(m.ToMap()).Equal(m)).To(BeTrue())
		Expect(m.Equal(rbac.FullAccess())).To(BeFalse())
	})
})
