package access_test

import (
	"testing"

	"github.com/frahmantamala/servicebook/internal/access"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestAccess(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Access Suite")
}

var _ = Describe("Resolve", func() {
	It("should treat staff as manager regardless of groups", func() {
		Expect(access.Resolve(&access.Profile{IsStaff: true})).To(Equal(access.RoleManager))
		Expect(access.Resolve(&access.Profile{IsStaff: true, Groups: []string{"Клиент"}})).To(Equal(access.RoleManager))
	})

	It("should resolve the manager group without the staff flag", func() {
		Expect(access.Resolve(&access.Profile{Groups: []string{"Менеджер"}})).To(Equal(access.RoleManager))
		Expect(access.Resolve(&access.Profile{Groups: []string{"Managers"}})).To(Equal(access.RoleManager))
	})

	It("should resolve service and client groups", func() {
		Expect(access.Resolve(&access.Profile{Groups: []string{"Сервисная организация"}})).To(Equal(access.RoleService))
		Expect(access.Resolve(&access.Profile{Groups: []string{"Клиент"}})).To(Equal(access.RoleClient))
	})

	It("should prefer service over client when both groups are present", func() {
		Expect(access.Resolve(&access.Profile{Groups: []string{"Клиент", "Сервисная организация"}})).To(Equal(access.RoleService))
	})

	It("should fall back to unknown", func() {
		Expect(access.Resolve(&access.Profile{})).To(Equal(access.RoleUnknown))
		Expect(access.Resolve(&access.Profile{Groups: []string{"Бухгалтерия"}})).To(Equal(access.RoleUnknown))
		Expect(access.Resolve(nil)).To(Equal(access.RoleUnknown))
	})
})

var _ = Describe("Permissions", func() {
	DescribeTable("write access per role and collection",
		func(role access.Role, collection access.Collection, expected bool) {
			p := access.For(role, collection)
			Expect(p.CanCreate).To(Equal(expected))
			Expect(p.CanEdit).To(Equal(expected))
			Expect(p.CanDelete).To(Equal(expected))
			Expect(p.Actions()).To(Equal(expected))
		},
		Entry("manager machines", access.RoleManager, access.Machines, true),
		Entry("manager maintenance", access.RoleManager, access.Maintenance, true),
		Entry("manager claims", access.RoleManager, access.Claims, true),
		Entry("service machines", access.RoleService, access.Machines, false),
		Entry("service maintenance", access.RoleService, access.Maintenance, true),
		Entry("service claims", access.RoleService, access.Claims, true),
		Entry("client machines", access.RoleClient, access.Machines, false),
		Entry("client maintenance", access.RoleClient, access.Maintenance, true),
		Entry("client claims", access.RoleClient, access.Claims, false),
		Entry("unknown machines", access.RoleUnknown, access.Machines, false),
		Entry("unknown maintenance", access.RoleUnknown, access.Maintenance, false),
		Entry("unknown claims", access.RoleUnknown, access.Claims, false),
	)
})
