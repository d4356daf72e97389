package postgres_test

import (
	"context"
	"net/url"
	"testing"

	"github.com/frahmantamala/servicebook/internal"
	"github.com/frahmantamala/servicebook/internal/access"
	"github.com/frahmantamala/servicebook/internal/core/datamodel/equipment"
	"github.com/frahmantamala/servicebook/internal/core/datamodel/user"
	"github.com/frahmantamala/servicebook/internal/machine"
	machinePostgres "github.com/frahmantamala/servicebook/internal/machine/postgres"
	"github.com/frahmantamala/servicebook/internal/query"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestMachinePostgres(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Machine Postgres Suite")
}

func int64Ptr(v int64) *int64 { return &v }

var _ = Describe("Machine Repository", func() {
	var (
		ctx     context.Context
		db      *gorm.DB
		repo    machine.RepositoryAPI
		client  *user.User
		service *user.User
		manager query.Visibility
	)

	BeforeEach(func() {
		var err error
		ctx = context.Background()
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		sqlDB.SetMaxOpenConns(1)
		Expect(db.AutoMigrate(user.Models()...)).To(Succeed())
		Expect(db.AutoMigrate(equipment.Models()...)).To(Succeed())

		client = &user.User{Username: "client1", PasswordHash: "x", IsActive: true}
		service = &user.User{Username: "service1", PasswordHash: "x", IsActive: true}
		Expect(db.Create(client).Error).To(Succeed())
		Expect(db.Create(service).Error).To(Succeed())

		repo = machinePostgres.NewMachineRepository(db)
		manager = query.Visibility{Role: access.RoleManager, UserID: 99, Authenticated: true}

		fixtures := []*equipment.Machine{
			{SerialNumber: "00042", ModelName: "ПД1,5", EngineModel: "Kubota D1803", ShipmentDate: equipment.MustDate("2022-03-01"), Buyer: "ООО Ромашка", ServiceCompany: "Силант", ClientID: int64Ptr(client.ID), ServiceOrgID: int64Ptr(service.ID)},
			{SerialNumber: "42", ModelName: "ПД3,0", EngineModel: "ММЗ Д-245", ShipmentDate: equipment.MustDate("2023-01-15"), Buyer: "АО Вектор", ServiceCompany: "ФНС"},
			{SerialNumber: "0017", ModelName: "ПД1,5", EngineModel: "", ShipmentDate: nil, Recipient: "North Warehouse", ServiceOrgID: int64Ptr(service.ID)},
		}
		for _, m := range fixtures {
			Expect(repo.Create(ctx, m)).To(Succeed())
		}
	})

	Describe("serial numbers", func() {
		It("should keep leading zeros significant", func() {
			m, err := repo.GetBySerial(ctx, "00042")
			Expect(err).NotTo(HaveOccurred())
			Expect(m).NotTo(BeNil())
			Expect(m.SerialNumber).To(Equal("00042"))
			Expect(m.ModelName).To(Equal("ПД1,5"))

			other, err := repo.GetBySerial(ctx, "42")
			Expect(err).NotTo(HaveOccurred())
			Expect(other.ID).NotTo(Equal(m.ID))
		})

		It("should return nil for an unknown serial", func() {
			m, err := repo.GetBySerial(ctx, "999")
			Expect(err).NotTo(HaveOccurred())
			Expect(m).To(BeNil())
		})
	})

	Describe("List", func() {
		It("should order by shipment date descending by default", func() {
			rows, total, err := repo.List(ctx, manager, url.Values{}, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(total).To(BeEquivalentTo(3))
			Expect(rows[0].SerialNumber).To(Equal("42"))
			Expect(rows[1].SerialNumber).To(Equal("00042"))
		})

		It("should honour an explicit ordering and ignore unknown fields", func() {
			rows, _, err := repo.List(ctx, manager, url.Values{"ordering": {"serial_number,bogus"}}, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(rows[0].SerialNumber).To(Equal("00042"))
			Expect(rows[1].SerialNumber).To(Equal("0017"))
			Expect(rows[2].SerialNumber).To(Equal("42"))
		})

		It("should apply exact and icontains filters", func() {
			rows, _, err := repo.List(ctx, manager, url.Values{"model_name": {"ПД1,5"}}, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(HaveLen(2))

			rows, _, err = repo.List(ctx, manager, url.Values{"engine_model__icontains": {"kubota"}}, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(HaveLen(1))
			Expect(rows[0].SerialNumber).To(Equal("00042"))
		})

		It("should search across buyer and recipient", func() {
			rows, _, err := repo.List(ctx, manager, url.Values{"search": {"WAREHOUSE"}}, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(HaveLen(1))
			Expect(rows[0].SerialNumber).To(Equal("0017"))
		})

		It("should count maintenance and claims per machine", func() {
			m, _ := repo.GetBySerial(ctx, "00042")
			mt := &equipment.MaintenanceType{Name: "ТО-1"}
			Expect(db.Create(mt).Error).To(Succeed())
			Expect(db.Create(&equipment.Maintenance{MachineID: m.ID, MaintenanceTypeID: mt.ID}).Error).To(Succeed())
			Expect(db.Create(&equipment.Maintenance{MachineID: m.ID, MaintenanceTypeID: mt.ID}).Error).To(Succeed())
			Expect(db.Create(&equipment.Claim{MachineID: m.ID, FailureNode: "Двигатель"}).Error).To(Succeed())

			rows, _, err := repo.List(ctx, manager, url.Values{"serial_number": {"00042"}}, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(HaveLen(1))
			Expect(rows[0].MaintenanceCount).To(BeEquivalentTo(2))
			Expect(rows[0].ClaimsCount).To(BeEquivalentTo(1))
		})

		It("should restrict rows by role", func() {
			asClient := query.Visibility{Role: access.RoleClient, UserID: client.ID, Authenticated: true}
			rows, _, err := repo.List(ctx, asClient, url.Values{}, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(HaveLen(1))
			Expect(rows[0].SerialNumber).To(Equal("00042"))

			asService := query.Visibility{Role: access.RoleService, UserID: service.ID, Authenticated: true}
			rows, _, err = repo.List(ctx, asService, url.Values{}, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(HaveLen(2))

			rows, _, err = repo.List(ctx, query.Visibility{Role: access.RoleUnknown}, url.Values{}, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(BeEmpty())
		})

		It("should paginate with a total count", func() {
			rows, total, err := repo.List(ctx, manager, url.Values{"ordering": {"serial_number"}}, &query.Page{Number: 2, Size: 2})
			Expect(err).NotTo(HaveOccurred())
			Expect(total).To(BeEquivalentTo(3))
			Expect(rows).To(HaveLen(1))
			Expect(rows[0].SerialNumber).To(Equal("42"))
		})

		It("should reject malformed numeric filters", func() {
			_, err := query.Spec{Filters: []query.Filter{{Param: "n", Column: "machines.id", Numeric: true}}}.
				Where(db.Model(&equipment.Machine{}), url.Values{"n": {"abc"}})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeValidationFailed))
		})
	})

	Describe("Delete", func() {
		It("should cascade to maintenance and claims", func() {
			m, _ := repo.GetBySerial(ctx, "00042")
			mt := &equipment.MaintenanceType{Name: "ТО-1"}
			Expect(db.Create(mt).Error).To(Succeed())
			Expect(db.Create(&equipment.Maintenance{MachineID: m.ID, MaintenanceTypeID: mt.ID}).Error).To(Succeed())
			Expect(db.Create(&equipment.Claim{MachineID: m.ID}).Error).To(Succeed())

			Expect(repo.Delete(ctx, m.ID)).To(Succeed())

			var maint, claims int64
			db.Model(&equipment.Maintenance{}).Where("machine_id = ?", m.ID).Count(&maint)
			db.Model(&equipment.Claim{}).Where("machine_id = ?", m.ID).Count(&claims)
			Expect(maint).To(BeZero())
			Expect(claims).To(BeZero())

			gone, err := repo.GetByID(ctx, manager, m.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(gone).To(BeNil())
		})
	})

	Describe("Facets", func() {
		It("should list distinct non-empty values in order", func() {
			f, err := repo.Facets(ctx, manager)
			Expect(err).NotTo(HaveOccurred())
			Expect(f.ModelName).To(Equal([]string{"ПД1,5", "ПД3,0"}))
			Expect(f.EngineModel).To(HaveLen(2))
			Expect(f.ServiceCompany).To(ConsistOf("Силант", "ФНС"))
			Expect(f.SteerAxleModel).To(BeEmpty())
		})
	})

	Describe("Search", func() {
		It("should match digit terms exactly against the serial", func() {
			found, err := repo.Search(ctx, query.Visibility{}, "42", true)
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(HaveLen(1))
			Expect(found[0].SerialNumber).To(Equal("42"))
		})

		It("should match text terms across descriptive fields", func() {
			found, err := repo.Search(ctx, query.Visibility{}, "kubota", false)
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(HaveLen(1))
			Expect(found[0].SerialNumber).To(Equal("00042"))
		})

		It("should restrict authenticated callers to their machines", func() {
			asClient := query.Visibility{Role: access.RoleClient, UserID: client.ID, Authenticated: true}
			found, err := repo.Search(ctx, asClient, "42", true)
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(BeEmpty())
		})
	})

	It("should report whether a user exists", func() {
		ok, err := repo.UserExists(ctx, client.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())

		ok, err = repo.UserExists(ctx, 12345)
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeFalse())
	})
})
