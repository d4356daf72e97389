package machine

import (
	"context"
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	errors "github.com/frahmantamala/servicebook/internal"
	"github.com/frahmantamala/servicebook/internal/claim"
	"github.com/frahmantamala/servicebook/internal/core/datamodel/equipment"
	"github.com/frahmantamala/servicebook/internal/core/events"
	"github.com/frahmantamala/servicebook/internal/maintenance"
	"github.com/frahmantamala/servicebook/internal/query"
)

const collectionName = "machines"

// EmptySearchMessage is returned for /search without a term.
const EmptySearchMessage = "Введите строку поиска (параметр ?q=...)"

var digitsOnly = regexp.MustCompile(`^[0-9]+$`)

// ListRow is a machine joined with its history counters.
type ListRow struct {
	equipment.Machine
	MaintenanceCount int64 `gorm:"column:maintenance_count"`
	ClaimsCount      int64 `gorm:"column:claims_count"`
}

type RepositoryAPI interface {
	List(ctx context.Context, vis query.Visibility, q url.Values, page *query.Page) ([]ListRow, int64, error)
	GetByID(ctx context.Context, vis query.Visibility, id int64) (*equipment.Machine, error)
	GetBySerial(ctx context.Context, serial string) (*equipment.Machine, error)
	UserExists(ctx context.Context, id int64) (bool, error)
	Create(ctx context.Context, m *equipment.Machine) error
	Update(ctx context.Context, m *equipment.Machine) error
	Delete(ctx context.Context, id int64) error
	Facets(ctx context.Context, vis query.Visibility) (*Facets, error)
	Search(ctx context.Context, vis query.Visibility, term string, exactSerial bool) ([]*equipment.Machine, error)
}

type MaintenanceHistory interface {
	ListByMachine(ctx context.Context, machineID int64) ([]maintenance.Record, error)
}

type ClaimHistory interface {
	ListByMachine(ctx context.Context, machineID int64) ([]claim.Record, error)
}

type Service struct {
	repo        RepositoryAPI
	maintenance MaintenanceHistory
	claims      ClaimHistory
	publisher   events.Publisher
	logger      *slog.Logger
}

func NewService(repo RepositoryAPI, maint MaintenanceHistory, claims ClaimHistory, publisher events.Publisher, logger *slog.Logger) *Service {
	return &Service{
		repo:        repo,
		maintenance: maint,
		claims:      claims,
		publisher:   publisher,
		logger:      logger,
	}
}

// List returns the visible machines. page is nil for an unpaginated list.
func (s *Service) List(ctx context.Context, q url.Values, page *query.Page) ([]ListItem, int64, error) {
	rows, total, err := s.repo.List(ctx, query.VisibilityFrom(ctx), q, page)
	if err != nil {
		if _, ok := errors.IsAppError(err); ok {
			return nil, 0, err
		}
		s.logger.Error("failed to list machines", "error", err)
		return nil, 0, errors.NewInternalError("failed to list machines", err)
	}

	items := make([]ListItem, 0, len(rows))
	for i := range rows {
		items = append(items, ListItem{
			Machine:          *FromDataModel(&rows[i].Machine),
			MaintenanceCount: rows[i].MaintenanceCount,
			ClaimsCount:      rows[i].ClaimsCount,
		})
	}
	return items, total, nil
}

// Get returns the machine with both histories embedded.
func (s *Service) Get(ctx context.Context, id int64) (*Detail, error) {
	m, err := s.visible(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := &Detail{Machine: *m, Maintenance: []maintenance.Record{}, Claims: []claim.Record{}}
	if s.maintenance != nil {
		records, err := s.maintenance.ListByMachine(ctx, id)
		if err != nil {
			return nil, err
		}
		detail.Maintenance = records
	}
	if s.claims != nil {
		records, err := s.claims.ListByMachine(ctx, id)
		if err != nil {
			return nil, err
		}
		detail.Claims = records
	}
	return detail, nil
}

func (s *Service) Create(ctx context.Context, dto WriteDTO) (*Machine, error) {
	m := &Machine{}
	dto.ApplyTo(m, true)

	if err := s.validate(ctx, m); err != nil {
		return nil, err
	}

	data := ToDataModel(m)
	if err := s.repo.Create(ctx, data); err != nil {
		s.logger.Error("failed to create machine", "serial_number", m.SerialNumber, "error", err)
		return nil, errors.NewInternalError("failed to create machine", err)
	}

	s.logger.Info("machine created", "machine_id", data.ID, "serial_number", data.SerialNumber)
	s.publish(ctx, data.ID, events.OpCreate)
	return FromDataModel(data), nil
}

// Update applies dto to an existing machine. full selects PUT semantics, otherwise PATCH.
func (s *Service) Update(ctx context.Context, id int64, dto WriteDTO, full bool) (*Machine, error) {
	m, err := s.visible(ctx, id)
	if err != nil {
		return nil, err
	}

	dto.ApplyTo(m, full)
	m.ID = id

	if err := s.validate(ctx, m); err != nil {
		return nil, err
	}

	data := ToDataModel(m)
	if err := s.repo.Update(ctx, data); err != nil {
		s.logger.Error("failed to update machine", "machine_id", id, "error", err)
		return nil, errors.NewInternalError("failed to update machine", err)
	}

	s.logger.Info("machine updated", "machine_id", id, "full", full)
	s.publish(ctx, id, events.OpUpdate)
	return m, nil
}

// Delete removes the machine together with its maintenance and claims.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.visible(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("failed to delete machine", "machine_id", id, "error", err)
		return errors.NewInternalError("failed to delete machine", err)
	}
	s.logger.Info("machine deleted", "machine_id", id)
	s.publish(ctx, id, events.OpDelete)
	return nil
}

func (s *Service) Facets(ctx context.Context) (*Facets, error) {
	f, err := s.repo.Facets(ctx, query.VisibilityFrom(ctx))
	if err != nil {
		s.logger.Error("failed to build machine facets", "error", err)
		return nil, errors.NewInternalError("failed to build facets", err)
	}
	return f, nil
}

// Search is the public lookup. All-digit terms match the serial number exactly, anything
// else is a case-insensitive match over descriptive fields.
func (s *Service) Search(ctx context.Context, term string) ([]Public, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, errors.NewValidationFieldError("q", EmptySearchMessage, errors.ErrCodeRequired)
	}

	found, err := s.repo.Search(ctx, query.VisibilityFrom(ctx), term, digitsOnly.MatchString(term))
	if err != nil {
		s.logger.Error("machine search failed", "error", err)
		return nil, errors.NewInternalError("search failed", err)
	}

	out := make([]Public, 0, len(found))
	for _, m := range found {
		out = append(out, FromDataModel(m).ToPublic())
	}
	return out, nil
}

func (s *Service) visible(ctx context.Context, id int64) (*Machine, error) {
	data, err := s.repo.GetByID(ctx, query.VisibilityFrom(ctx), id)
	if err != nil {
		s.logger.Error("failed to load machine", "machine_id", id, "error", err)
		return nil, errors.NewInternalError("failed to load machine", err)
	}
	if data == nil {
		return nil, errors.ErrMachineNotFound
	}
	return FromDataModel(data), nil
}

func (s *Service) validate(ctx context.Context, m *Machine) error {
	if verr := Validate(m); verr != nil {
		return verr
	}

	existing, err := s.repo.GetBySerial(ctx, m.SerialNumber)
	if err != nil {
		return errors.NewInternalError("failed to check serial number", err)
	}
	if existing != nil && existing.ID != m.ID {
		return errors.NewValidationFieldError("serial_number", "Машина с таким заводским номером уже существует.", errors.ErrCodeDuplicateSerial)
	}

	for field, ref := range map[string]*int64{"client": m.ClientID, "service_org": m.ServiceOrgID} {
		if ref == nil {
			continue
		}
		ok, err := s.repo.UserExists(ctx, *ref)
		if err != nil {
			return errors.NewInternalError("failed to check user reference", err)
		}
		if !ok {
			return errors.NewValidationFieldError(field, field+": пользователь не найден", errors.ErrCodeInvalidReference)
		}
	}
	return nil
}

func (s *Service) publish(ctx context.Context, id int64, op events.Operation) {
	if s.publisher == nil {
		return
	}
	var actor int64
	if p, ok := errors.PrincipalFromContext(ctx); ok {
		actor = p.ID
	}
	_ = s.publisher.Publish(ctx, events.NewRecordChangedEvent(collectionName, id, op, actor))
}
