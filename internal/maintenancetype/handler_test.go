package maintenancetype_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"

	"github.com/frahmantamala/servicebook/internal/core/datamodel/equipment"
	"github.com/frahmantamala/servicebook/internal/maintenancetype"
	typePostgres "github.com/frahmantamala/servicebook/internal/maintenancetype/postgres"
	"github.com/frahmantamala/servicebook/internal/transport"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var _ = Describe("Maintenance Type Handler Integration", func() {
	var (
		db      *gorm.DB
		handler *maintenancetype.Handler
	)

	BeforeEach(func() {
		var err error
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		sqlDB.SetMaxOpenConns(1)
		Expect(db.AutoMigrate(&equipment.MaintenanceType{})).To(Succeed())

		repo := typePostgres.NewMaintenanceTypeRepository(db)
		for _, name := range []string{"ТО-2", "ТО-1", "Сезонное"} {
			Expect(repo.Create(context.Background(), &equipment.MaintenanceType{Name: name})).To(Succeed())
		}

		service := maintenancetype.NewService(repo, slogger)
		handler = maintenancetype.NewHandler(&transport.BaseHandler{Logger: slogger}, service)
	})

	It("should handle GET /maintenance-types/ with a bare array ordered by name", func() {
		req := httptest.NewRequest(http.MethodGet, "/maintenance-types/", nil)
		w := httptest.NewRecorder()

		handler.List(w, req)

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Header().Get("Content-Type")).To(ContainSubstring("application/json"))

		var response []maintenancetype.Type
		Expect(json.NewDecoder(w.Body).Decode(&response)).To(Succeed())
		Expect(response).To(HaveLen(3))
		Expect(response[0].Name).To(Equal("Сезонное"))
		Expect(response[1].Name).To(Equal("ТО-1"))
		Expect(response[0].ID).To(BeNumerically(">", 0))
	})
})
