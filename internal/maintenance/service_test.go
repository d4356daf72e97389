package maintenance_test

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"testing"

	"github.com/frahmantamala/servicebook/internal"
	"github.com/frahmantamala/servicebook/internal/access"
	"github.com/frahmantamala/servicebook/internal/core/common/nullable"
	"github.com/frahmantamala/servicebook/internal/core/datamodel/equipment"
	"github.com/frahmantamala/servicebook/internal/core/datamodel/user"
	"github.com/frahmantamala/servicebook/internal/maintenance"
	maintenancePostgres "github.com/frahmantamala/servicebook/internal/maintenance/postgres"
	"github.com/frahmantamala/servicebook/internal/maintenancetype"
	typePostgres "github.com/frahmantamala/servicebook/internal/maintenancetype/postgres"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestMaintenanceService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Maintenance Service Suite")
}

func int64Ptr(v int64) *int64 { return &v }

func as(role access.Role, id int64) context.Context {
	return internal.ContextWithPrincipal(context.Background(), &internal.Principal{ID: id, Role: role})
}

var _ = Describe("Maintenance Service", func() {
	var (
		db                  *gorm.DB
		service             *maintenance.Service
		clientUser, svcUser *user.User
		owned, foreign      *equipment.Machine
		to1, to2            *equipment.MaintenanceType
		managerCtx          context.Context
	)

	BeforeEach(func() {
		var err error
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		sqlDB.SetMaxOpenConns(1)
		Expect(db.AutoMigrate(user.Models()...)).To(Succeed())
		Expect(db.AutoMigrate(equipment.Models()...)).To(Succeed())

		clientUser = &user.User{Username: "client", PasswordHash: "x"}
		svcUser = &user.User{Username: "service", PasswordHash: "x"}
		Expect(db.Create(clientUser).Error).To(Succeed())
		Expect(db.Create(svcUser).Error).To(Succeed())

		owned = &equipment.Machine{SerialNumber: "00042", ModelName: "ПД1,5", ClientID: int64Ptr(clientUser.ID), ServiceOrgID: int64Ptr(svcUser.ID)}
		foreign = &equipment.Machine{SerialNumber: "17", ModelName: "ПД3,0"}
		Expect(db.Create(owned).Error).To(Succeed())
		Expect(db.Create(foreign).Error).To(Succeed())

		to1 = &equipment.MaintenanceType{Name: "ТО-1"}
		to2 = &equipment.MaintenanceType{Name: "ТО-2"}
		Expect(db.Create(to1).Error).To(Succeed())
		Expect(db.Create(to2).Error).To(Succeed())

		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		types := maintenancetype.NewService(typePostgres.NewMaintenanceTypeRepository(db), slogger)
		service = maintenance.NewService(maintenancePostgres.NewMaintenanceRepository(db), types, nil, slogger)
		managerCtx = as(access.RoleManager, 1000)
	})

	dto := func(machineID, typeID int64, date string) maintenance.WriteDTO {
		return maintenance.WriteDTO{
			MachineID:       nullable.Of(machineID),
			MaintenanceType: nullable.Of(typeID),
			Date:            nullable.Of(*equipment.MustDate(date)),
			OperatingHours:  nullable.Of(int64(120)),
			ServiceCompany:  nullable.Of("Силант"),
		}
	}

	Describe("Create", func() {
		It("should return the denormalized read shape", func() {
			rec, err := service.Create(managerCtx, dto(owned.ID, to1.ID, "2024-05-01"))
			Expect(err).NotTo(HaveOccurred())
			Expect(rec.MachineSerial).To(Equal("00042"))
			Expect(rec.MachineID).To(Equal(owned.ID))
			Expect(rec.MaintenanceType.Name).To(Equal("ТО-1"))
			Expect(rec.Date.String()).To(Equal("2024-05-01"))
		})

		It("should let a client add maintenance to their own machine only", func() {
			ctx := as(access.RoleClient, clientUser.ID)
			_, err := service.Create(ctx, dto(owned.ID, to1.ID, "2024-05-01"))
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Create(ctx, dto(foreign.ID, to1.ID, "2024-05-01"))
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(400))
			Expect(appErr.Details.(internal.ValidationErrors).Errors[0].Field).To(Equal("machine_id"))
		})

		It("should reject a service organization on a machine it does not service", func() {
			Expect(db.Model(foreign).Update("client_id", svcUser.ID).Error).To(Succeed())
			_, err := service.Create(as(access.RoleService, svcUser.ID), dto(foreign.ID, to1.ID, "2024-05-01"))
			Expect(err).To(HaveOccurred())
		})

		It("should require machine and maintenance type", func() {
			_, err := service.Create(managerCtx, maintenance.WriteDTO{})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			fields := []string{}
			for _, fe := range appErr.Details.(internal.ValidationErrors).Errors {
				fields = append(fields, fe.Field)
			}
			Expect(fields).To(ConsistOf("machine_id", "maintenance_type"))
		})

		It("should reject an unknown maintenance type and negative hours", func() {
			_, err := service.Create(managerCtx, dto(owned.ID, 999, "2024-05-01"))
			Expect(err).To(MatchError(ContainSubstring("Вид ТО не найден")))

			bad := dto(owned.ID, to1.ID, "2024-05-01")
			bad.OperatingHours = nullable.Of(int64(-1))
			_, err = service.Create(managerCtx, bad)
			Expect(err).To(MatchError(ContainSubstring("operating_hours")))
		})
	})

	Describe("List", func() {
		BeforeEach(func() {
			for _, d := range []maintenance.WriteDTO{
				dto(owned.ID, to1.ID, "2024-01-10"),
				dto(owned.ID, to2.ID, "2024-06-10"),
				dto(foreign.ID, to1.ID, "2024-03-10"),
			} {
				_, err := service.Create(managerCtx, d)
				Expect(err).NotTo(HaveOccurred())
			}
		})

		It("should order by machine serial then newest date first", func() {
			records, total, err := service.List(managerCtx, url.Values{}, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(total).To(BeEquivalentTo(3))
			Expect(records[0].MachineSerial).To(Equal("00042"))
			Expect(records[0].Date.String()).To(Equal("2024-06-10"))
			Expect(records[1].Date.String()).To(Equal("2024-01-10"))
			Expect(records[2].MachineSerial).To(Equal("17"))
		})

		It("should filter by maintenance type id and machine serial", func() {
			records, _, err := service.List(managerCtx, url.Values{"maintenance_type": {"2"}}, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(HaveLen(1))
			Expect(records[0].MaintenanceType.Name).To(Equal("ТО-2"))

			records, _, err = service.List(managerCtx, url.Values{"machine__serial_number": {"17"}}, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(HaveLen(1))
		})

		It("should show clients the records of their machines only", func() {
			records, _, err := service.List(as(access.RoleClient, clientUser.ID), url.Values{}, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(HaveLen(2))
		})

		It("should show anonymous callers nothing", func() {
			records, _, err := service.List(context.Background(), url.Values{}, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(BeEmpty())
		})

		It("should build facets from visible records", func() {
			f, err := service.Facets(as(access.RoleClient, clientUser.ID))
			Expect(err).NotTo(HaveOccurred())
			Expect(f.MachineSerial).To(Equal([]string{"00042"}))
			Expect(f.MaintenanceType).To(HaveLen(2))
			Expect(f.MaintenanceType[0].Name).To(Equal("ТО-1"))
			Expect(f.ServiceCompany).To(Equal([]string{"Силант"}))
		})

		It("should return the history of one machine newest first", func() {
			records, err := service.ListByMachine(managerCtx, owned.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(HaveLen(2))
			Expect(records[0].Date.String()).To(Equal("2024-06-10"))
		})
	})

	Describe("Update and Delete", func() {
		var rec *maintenance.Record

		BeforeEach(func() {
			var err error
			rec, err = service.Create(managerCtx, dto(owned.ID, to1.ID, "2024-01-10"))
			Expect(err).NotTo(HaveOccurred())
		})

		It("should patch only the fields sent", func() {
			updated, err := service.Update(managerCtx, rec.ID, maintenance.WriteDTO{OrderNumber: nullable.Of("ЗН-7")}, false)
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.OrderNumber).To(Equal("ЗН-7"))
			Expect(*updated.OperatingHours).To(BeEquivalentTo(120))
		})

		It("should refuse to move a record onto a machine the caller does not own", func() {
			ctx := as(access.RoleClient, clientUser.ID)
			_, err := service.Update(ctx, rec.ID, maintenance.WriteDTO{MachineID: nullable.Of(foreign.ID)}, false)
			Expect(err).To(HaveOccurred())
		})

		It("should hide records of other machines as not found", func() {
			other, err := service.Create(managerCtx, dto(foreign.ID, to1.ID, "2024-01-10"))
			Expect(err).NotTo(HaveOccurred())
			err = service.Delete(as(access.RoleClient, clientUser.ID), other.ID)
			Expect(err).To(Equal(internal.ErrMaintenanceNotFound))
		})

		It("should delete a record", func() {
			Expect(service.Delete(as(access.RoleService, svcUser.ID), rec.ID)).To(Succeed())
			_, err := service.Get(managerCtx, rec.ID)
			Expect(err).To(Equal(internal.ErrMaintenanceNotFound))
		})
	})
})

var _ = Describe("TypeOption", func() {
	It("should encode as an [id, name] pair", func() {
		b, err := maintenance.TypeOption{ID: 3, Name: "ТО-1"}.MarshalJSON()
		Expect(err).NotTo(HaveOccurred())
		Expect(string(b)).To(Equal(`[3,"ТО-1"]`))

		var o maintenance.TypeOption
		Expect(o.UnmarshalJSON(b)).To(Succeed())
		Expect(o).To(Equal(maintenance.TypeOption{ID: 3, Name: "ТО-1"}))
		Expect(o.UnmarshalJSON([]byte(`[1]`))).NotTo(Succeed())
	})
})
