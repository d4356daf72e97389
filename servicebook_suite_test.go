package main_test

import (
	"context"
	"testing"

	"github.com/frahmantamala/servicebook/api"
	"github.com/frahmantamala/servicebook/internal/transport/swagger"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestServicebook(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Servicebook Suite")
}

var _ = Describe("API document", func() {
	It("should load and describe every collection the dashboard calls", func() {
		doc, err := swagger.Load(context.Background(), api.OpenAPI)
		Expect(err).NotTo(HaveOccurred())

		for _, path := range []string{
			"/auth/token/",
			"/me/",
			"/machines/",
			"/machines/{id}/",
			"/machines/facets/",
			"/maintenance/",
			"/maintenance/{id}/",
			"/maintenance/facets/",
			"/maintenance-types/",
			"/claims/",
			"/claims/{id}/",
			"/claims/facets/",
			"/search",
		} {
			Expect(doc.Paths.Find(path)).NotTo(BeNil(), path)
		}
	})

	It("should offer PATCH on every record path", func() {
		doc, err := swagger.Load(context.Background(), api.OpenAPI)
		Expect(err).NotTo(HaveOccurred())

		for _, path := range []string{"/machines/{id}/", "/maintenance/{id}/", "/claims/{id}/"} {
			item := doc.Paths.Find(path)
			Expect(item).NotTo(BeNil(), path)
			Expect(item.Patch).NotTo(BeNil(), path)
		}
	})
})
