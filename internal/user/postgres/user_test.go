package postgres_test

import (
	"context"
	"testing"

	userModel "github.com/frahmantamala/servicebook/internal/core/datamodel/user"
	"github.com/frahmantamala/servicebook/internal/user"
	userPostgres "github.com/frahmantamala/servicebook/internal/user/postgres"
	"github.com/jmoiron/sqlx"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestUserPostgres(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "User Postgres Suite")
}

var _ = Describe("User Repository", func() {
	var (
		ctx  context.Context
		repo user.RepositoryAPI
	)

	BeforeEach(func() {
		ctx = context.Background()
		db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		sqlDB.SetMaxOpenConns(1)
		Expect(db.AutoMigrate(userModel.Models()...)).To(Succeed())

		repo = userPostgres.NewUserRepository(sqlx.NewDb(sqlDB, "sqlite3"))
	})

	It("should create an account and read it back by id and username", func() {
		a := &user.Account{Username: "service1", FirstName: "Иван", PasswordHash: "hash", IsActive: true}
		Expect(repo.Create(ctx, a)).To(Succeed())
		Expect(a.ID).To(BeNumerically(">", 0))

		byID, err := repo.GetByID(ctx, a.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(byID.Username).To(Equal("service1"))
		Expect(byID.FirstName).To(Equal("Иван"))
		Expect(byID.IsActive).To(BeTrue())
		Expect(byID.IsStaff).To(BeFalse())

		byName, err := repo.GetByUsername(ctx, "service1")
		Expect(err).NotTo(HaveOccurred())
		Expect(byName.ID).To(Equal(a.ID))
		Expect(byName.PasswordHash).To(Equal("hash"))
	})

	It("should return nil for unknown accounts", func() {
		a, err := repo.GetByID(ctx, 404)
		Expect(err).NotTo(HaveOccurred())
		Expect(a).To(BeNil())

		a, err = repo.GetByUsername(ctx, "nobody")
		Expect(err).NotTo(HaveOccurred())
		Expect(a).To(BeNil())
	})

	It("should ensure groups idempotently and list membership by name", func() {
		a := &user.Account{Username: "client1", PasswordHash: "hash", IsActive: true}
		Expect(repo.Create(ctx, a)).To(Succeed())

		clientID, err := repo.EnsureGroup(ctx, "Клиент")
		Expect(err).NotTo(HaveOccurred())
		again, err := repo.EnsureGroup(ctx, "Клиент")
		Expect(err).NotTo(HaveOccurred())
		Expect(again).To(Equal(clientID))

		serviceID, err := repo.EnsureGroup(ctx, "Сервисная организация")
		Expect(err).NotTo(HaveOccurred())

		Expect(repo.AddToGroup(ctx, a.ID, serviceID)).To(Succeed())
		Expect(repo.AddToGroup(ctx, a.ID, clientID)).To(Succeed())
		Expect(repo.AddToGroup(ctx, a.ID, clientID)).To(Succeed())

		names, err := repo.GroupNames(ctx, a.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(names).To(Equal([]string{"Клиент", "Сервисная организация"}))
	})

	It("should return an empty group list for users without groups", func() {
		a := &user.Account{Username: "lonely", PasswordHash: "hash", IsActive: true}
		Expect(repo.Create(ctx, a)).To(Succeed())

		names, err := repo.GroupNames(ctx, a.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(names).NotTo(BeNil())
		Expect(names).To(BeEmpty())
	})
})
