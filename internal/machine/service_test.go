package machine_test

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"os"
	"sync"
	"testing"

	"github.com/frahmantamala/servicebook/internal"
	"github.com/frahmantamala/servicebook/internal/access"
	"github.com/frahmantamala/servicebook/internal/claim"
	"github.com/frahmantamala/servicebook/internal/core/common/nullable"
	"github.com/frahmantamala/servicebook/internal/core/datamodel/equipment"
	"github.com/frahmantamala/servicebook/internal/core/events"
	"github.com/frahmantamala/servicebook/internal/machine"
	"github.com/frahmantamala/servicebook/internal/maintenance"
	"github.com/frahmantamala/servicebook/internal/query"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestMachineService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Machine Service Suite")
}

// MockRepository implements machine.RepositoryAPI for testing
type MockRepository struct {
	machines   map[int64]*equipment.Machine
	users      map[int64]bool
	nextID     int64
	shouldFail bool
	failError  error
	lastSearch struct {
		term  string
		exact bool
	}
}

func NewMockRepository() *MockRepository {
	return &MockRepository{
		machines: make(map[int64]*equipment.Machine),
		users:    make(map[int64]bool),
		nextID:   1,
	}
}

func (m *MockRepository) List(ctx context.Context, vis query.Visibility, q url.Values, page *query.Page) ([]machine.ListRow, int64, error) {
	if m.shouldFail {
		return nil, 0, m.failError
	}
	var rows []machine.ListRow
	for _, mach := range m.machines {
		if vis.Owns(mach) {
			rows = append(rows, machine.ListRow{Machine: *mach})
		}
	}
	return rows, int64(len(rows)), nil
}

func (m *MockRepository) GetByID(ctx context.Context, vis query.Visibility, id int64) (*equipment.Machine, error) {
	if m.shouldFail {
		return nil, m.failError
	}
	mach, ok := m.machines[id]
	if !ok || !vis.Owns(mach) {
		return nil, nil
	}
	cp := *mach
	return &cp, nil
}

func (m *MockRepository) GetBySerial(ctx context.Context, serial string) (*equipment.Machine, error) {
	for _, mach := range m.machines {
		if mach.SerialNumber == serial {
			return mach, nil
		}
	}
	return nil, nil
}

func (m *MockRepository) UserExists(ctx context.Context, id int64) (bool, error) {
	return m.users[id], nil
}

func (m *MockRepository) Create(ctx context.Context, mach *equipment.Machine) error {
	if m.shouldFail {
		return m.failError
	}
	mach.ID = m.nextID
	m.nextID++
	m.machines[mach.ID] = mach
	return nil
}

func (m *MockRepository) Update(ctx context.Context, mach *equipment.Machine) error {
	if m.shouldFail {
		return m.failError
	}
	m.machines[mach.ID] = mach
	return nil
}

func (m *MockRepository) Delete(ctx context.Context, id int64) error {
	delete(m.machines, id)
	return nil
}

func (m *MockRepository) Facets(ctx context.Context, vis query.Visibility) (*machine.Facets, error) {
	return &machine.Facets{}, nil
}

func (m *MockRepository) Search(ctx context.Context, vis query.Visibility, term string, exact bool) ([]*equipment.Machine, error) {
	m.lastSearch.term, m.lastSearch.exact = term, exact
	var out []*equipment.Machine
	for _, mach := range m.machines {
		if exact && mach.SerialNumber == term {
			out = append(out, mach)
		}
	}
	return out, nil
}

type maintenanceHistory []maintenance.Record

func (h maintenanceHistory) ListByMachine(ctx context.Context, id int64) ([]maintenance.Record, error) {
	return h, nil
}

type claimHistory []claim.Record

func (h claimHistory) ListByMachine(ctx context.Context, id int64) ([]claim.Record, error) {
	return h, nil
}

// recordingPublisher keeps every event it was handed.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) PublishSync(ctx context.Context, e events.Event) error {
	return p.Publish(ctx, e)
}

func asRole(role access.Role, id int64) context.Context {
	return internal.ContextWithPrincipal(context.Background(), &internal.Principal{ID: id, Username: "u", Role: role})
}

func validDTO(serial string) machine.WriteDTO {
	return machine.WriteDTO{
		ModelName:    nullable.Of("ПД1,5"),
		SerialNumber: nullable.Of(serial),
		ShipmentDate: nullable.Of(*equipment.MustDate("2022-03-01")),
	}
}

var _ = Describe("Machine Service", func() {
	var (
		mockRepo   *MockRepository
		publisher  *recordingPublisher
		service    *machine.Service
		managerCtx context.Context
	)

	BeforeEach(func() {
		mockRepo = NewMockRepository()
		publisher = &recordingPublisher{}
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		maint := maintenanceHistory{{ID: 2, MachineSerial: "00042"}, {ID: 1, MachineSerial: "00042"}}
		claims := claimHistory{{ID: 5, MachineSerial: "00042"}}
		service = machine.NewService(mockRepo, maint, claims, publisher, logger)
		managerCtx = asRole(access.RoleManager, 1)
	})

	Describe("Create", func() {
		It("should store the serial number verbatim", func() {
			m, err := service.Create(managerCtx, validDTO("00042"))
			Expect(err).NotTo(HaveOccurred())
			Expect(m.SerialNumber).To(Equal("00042"))
			Expect(m.ShipmentDate.String()).To(Equal("2022-03-01"))
			Expect(publisher.events).To(HaveLen(1))
			Expect(publisher.events[0].EventType()).To(Equal(events.EventTypeRecordChanged))
		})

		It("should reject non-digit serial numbers", func() {
			_, err := service.Create(managerCtx, validDTO("A-17"))
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(400))
			Expect(appErr.Error()).To(ContainSubstring("serial_number"))
		})

		It("should require a model name", func() {
			dto := validDTO("1")
			dto.ModelName = nullable.Null[string]()
			_, err := service.Create(managerCtx, dto)
			Expect(err).To(MatchError(ContainSubstring("model_name: обязательное поле")))
		})

		It("should reject a duplicate serial but accept one differing only by leading zeros", func() {
			_, err := service.Create(managerCtx, validDTO("00042"))
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Create(managerCtx, validDTO("00042"))
			Expect(err).To(MatchError(ContainSubstring("заводским номером")))

			_, err = service.Create(managerCtx, validDTO("42"))
			Expect(err).NotTo(HaveOccurred())
		})

		It("should reject references to unknown users", func() {
			dto := validDTO("7")
			dto.ClientID = nullable.Of(int64(77))
			_, err := service.Create(managerCtx, dto)
			Expect(err).To(MatchError(ContainSubstring("client")))

			mockRepo.users[77] = true
			_, err = service.Create(managerCtx, dto)
			Expect(err).NotTo(HaveOccurred())
		})

		It("should wrap repository failures as internal errors", func() {
			mockRepo.shouldFail, mockRepo.failError = true, errors.New("disk full")
			_, err := service.Create(managerCtx, validDTO("1"))
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(500))
		})
	})

	Describe("Update", func() {
		var created *machine.Machine

		BeforeEach(func() {
			dto := validDTO("100")
			dto.Buyer = nullable.Of("ООО Ромашка")
			var err error
			created, err = service.Create(managerCtx, dto)
			Expect(err).NotTo(HaveOccurred())
		})

		It("should leave absent fields alone on PATCH", func() {
			m, err := service.Update(managerCtx, created.ID, machine.WriteDTO{EngineModel: nullable.Of("Kubota")}, false)
			Expect(err).NotTo(HaveOccurred())
			Expect(m.EngineModel).To(Equal("Kubota"))
			Expect(m.Buyer).To(Equal("ООО Ромашка"))
		})

		It("should reset absent fields on PUT", func() {
			m, err := service.Update(managerCtx, created.ID, validDTO("100"), true)
			Expect(err).NotTo(HaveOccurred())
			Expect(m.Buyer).To(BeEmpty())
		})

		It("should not let PATCH blank a required field", func() {
			_, err := service.Update(managerCtx, created.ID, machine.WriteDTO{ModelName: nullable.Of("")}, false)
			Expect(err).To(MatchError(ContainSubstring("model_name")))
		})

		It("should return not found for machines outside the caller's scope", func() {
			_, err := service.Update(asRole(access.RoleClient, 5), created.ID, machine.WriteDTO{}, false)
			Expect(err).To(Equal(internal.ErrMachineNotFound))
		})
	})

	Describe("Get", func() {
		It("should embed both histories in the order they were given", func() {
			created, err := service.Create(managerCtx, validDTO("00042"))
			Expect(err).NotTo(HaveOccurred())

			detail, err := service.Get(managerCtx, created.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(detail.SerialNumber).To(Equal("00042"))
			Expect(detail.Maintenance).To(HaveLen(2))
			Expect(detail.Maintenance[0].ID).To(BeEquivalentTo(2))
			Expect(detail.Claims).To(HaveLen(1))
		})
	})

	Describe("Delete", func() {
		It("should remove the machine and publish a delete event", func() {
			created, err := service.Create(managerCtx, validDTO("5"))
			Expect(err).NotTo(HaveOccurred())

			Expect(service.Delete(managerCtx, created.ID)).To(Succeed())
			Expect(mockRepo.machines).To(BeEmpty())

			last := publisher.events[len(publisher.events)-1].(*events.RecordChangedEvent)
			Expect(last.Operation).To(Equal(events.OpDelete))
			Expect(last.ActorID).To(BeEquivalentTo(1))
		})
	})

	Describe("Search", func() {
		It("should use exact serial matching for digit-only terms", func() {
			_, err := service.Search(context.Background(), " 00042 ")
			Expect(err).NotTo(HaveOccurred())
			Expect(mockRepo.lastSearch.term).To(Equal("00042"))
			Expect(mockRepo.lastSearch.exact).To(BeTrue())
		})

		It("should use text matching otherwise", func() {
			_, err := service.Search(context.Background(), "Kubota")
			Expect(err).NotTo(HaveOccurred())
			Expect(mockRepo.lastSearch.exact).To(BeFalse())
		})

		It("should reject an empty term", func() {
			_, err := service.Search(context.Background(), "  ")
			Expect(err).To(MatchError(ContainSubstring("Введите строку поиска")))
		})

		It("should return only public fields", func() {
			_, err := service.Create(managerCtx, validDTO("00042"))
			Expect(err).NotTo(HaveOccurred())

			found, err := service.Search(context.Background(), "00042")
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(HaveLen(1))
			Expect(found[0].SerialNumber).To(Equal("00042"))
		})
	})
})
