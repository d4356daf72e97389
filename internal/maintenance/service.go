package maintenance

import (
	"context"
	"log/slog"
	"net/url"

	errors "github.com/frahmantamala/servicebook/internal"
	"github.com/frahmantamala/servicebook/internal/access"
	"github.com/frahmantamala/servicebook/internal/core/datamodel/equipment"
	"github.com/frahmantamala/servicebook/internal/core/events"
	"github.com/frahmantamala/servicebook/internal/maintenancetype"
	"github.com/frahmantamala/servicebook/internal/query"
)

const collectionName = "maintenance"

type RepositoryAPI interface {
	List(ctx context.Context, vis query.Visibility, q url.Values, page *query.Page) ([]Row, int64, error)
	ListByMachine(ctx context.Context, machineID int64) ([]Row, error)
	GetByID(ctx context.Context, vis query.Visibility, id int64) (*Row, error)
	Machine(ctx context.Context, vis query.Visibility, id int64) (*equipment.Machine, error)
	Create(ctx context.Context, m *equipment.Maintenance) error
	Update(ctx context.Context, m *equipment.Maintenance) error
	Delete(ctx context.Context, id int64) error
	Facets(ctx context.Context, vis query.Visibility) (*Facets, error)
}

type TypeLookup interface {
	Get(ctx context.Context, id int64) (*maintenancetype.Type, error)
}

type Service struct {
	repo      RepositoryAPI
	types     TypeLookup
	publisher events.Publisher
	logger    *slog.Logger
}

func NewService(repo RepositoryAPI, types TypeLookup, publisher events.Publisher, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		types:     types,
		publisher: publisher,
		logger:    logger,
	}
}

func (s *Service) List(ctx context.Context, q url.Values, page *query.Page) ([]Record, int64, error) {
	rows, total, err := s.repo.List(ctx, query.VisibilityFrom(ctx), q, page)
	if err != nil {
		if _, ok := errors.IsAppError(err); ok {
			return nil, 0, err
		}
		s.logger.Error("failed to list maintenance", "error", err)
		return nil, 0, errors.NewInternalError("failed to list maintenance", err)
	}
	return toRecords(rows), total, nil
}

// ListByMachine returns the history of one machine, newest first. The caller has already
// checked that the machine is visible.
func (s *Service) ListByMachine(ctx context.Context, machineID int64) ([]Record, error) {
	rows, err := s.repo.ListByMachine(ctx, machineID)
	if err != nil {
		s.logger.Error("failed to load maintenance history", "machine_id", machineID, "error", err)
		return nil, errors.NewInternalError("failed to load maintenance history", err)
	}
	return toRecords(rows), nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Record, error) {
	row, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	rec := FromRow(row)
	return &rec, nil
}

func (s *Service) Create(ctx context.Context, dto WriteDTO) (*Record, error) {
	m := &equipment.Maintenance{}
	dto.ApplyTo(m, true)

	if verr := Validate(m); verr != nil {
		return nil, verr
	}
	if err := s.checkMachine(ctx, m.MachineID); err != nil {
		return nil, err
	}
	if err := s.checkType(ctx, m.MaintenanceTypeID); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, m); err != nil {
		s.logger.Error("failed to create maintenance", "machine_id", m.MachineID, "error", err)
		return nil, errors.NewInternalError("failed to create maintenance record", err)
	}

	s.logger.Info("maintenance created", "maintenance_id", m.ID, "machine_id", m.MachineID)
	s.publish(ctx, m.ID, events.OpCreate)
	return s.Get(ctx, m.ID)
}

// Update applies dto to an existing record. full selects PUT semantics, otherwise PATCH.
// Moving a record to another machine requires write access to both machines.
func (s *Service) Update(ctx context.Context, id int64, dto WriteDTO, full bool) (*Record, error) {
	row, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkMachine(ctx, row.MachineID); err != nil {
		return nil, err
	}

	m := row.Maintenance
	dto.ApplyTo(&m, full)
	m.ID = id

	if verr := Validate(&m); verr != nil {
		return nil, verr
	}
	if m.MachineID != row.MachineID {
		if err := s.checkMachine(ctx, m.MachineID); err != nil {
			return nil, err
		}
	}
	if err := s.checkType(ctx, m.MaintenanceTypeID); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, &m); err != nil {
		s.logger.Error("failed to update maintenance", "maintenance_id", id, "error", err)
		return nil, errors.NewInternalError("failed to update maintenance record", err)
	}

	s.logger.Info("maintenance updated", "maintenance_id", id, "full", full)
	s.publish(ctx, id, events.OpUpdate)
	return s.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	row, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.checkMachine(ctx, row.MachineID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("failed to delete maintenance", "maintenance_id", id, "error", err)
		return errors.NewInternalError("failed to delete maintenance record", err)
	}
	s.logger.Info("maintenance deleted", "maintenance_id", id)
	s.publish(ctx, id, events.OpDelete)
	return nil
}

func (s *Service) Facets(ctx context.Context) (*Facets, error) {
	f, err := s.repo.Facets(ctx, query.VisibilityFrom(ctx))
	if err != nil {
		s.logger.Error("failed to build maintenance facets", "error", err)
		return nil, errors.NewInternalError("failed to build facets", err)
	}
	return f, nil
}

func (s *Service) load(ctx context.Context, id int64) (*Row, error) {
	row, err := s.repo.GetByID(ctx, query.VisibilityFrom(ctx), id)
	if err != nil {
		s.logger.Error("failed to load maintenance", "maintenance_id", id, "error", err)
		return nil, errors.NewInternalError("failed to load maintenance record", err)
	}
	if row == nil {
		return nil, errors.ErrMaintenanceNotFound
	}
	return row, nil
}

// checkMachine resolves machineID among the caller's visible machines and checks the caller
// may attach records to it.
func (s *Service) checkMachine(ctx context.Context, machineID int64) error {
	vis := query.VisibilityFrom(ctx)
	m, err := s.repo.Machine(ctx, vis, machineID)
	if err != nil {
		return errors.NewInternalError("failed to load machine", err)
	}
	if m == nil {
		return errors.NewValidationFieldError("machine_id", "Машина не найдена.", errors.ErrCodeInvalidReference)
	}
	if access.Can(vis.Role, access.Maintenance, access.ActionEdit) && vis.Owns(m) {
		return nil
	}
	switch vis.Role {
	case access.RoleService:
		return errors.NewForbiddenError("Эта машина не относится к вашей сервисной организации.", errors.ErrCodePermissionDenied)
	case access.RoleClient:
		return errors.NewForbiddenError("Эта машина не относится к вам как к клиенту.", errors.ErrCodePermissionDenied)
	}
	return errors.NewForbiddenError("Недостаточно прав.", errors.ErrCodePermissionDenied)
}

func (s *Service) checkType(ctx context.Context, typeID int64) error {
	if s.types == nil {
		return nil
	}
	t, err := s.types.Get(ctx, typeID)
	if err != nil {
		return errors.NewInternalError("failed to load maintenance type", err)
	}
	if t == nil {
		return errors.NewValidationFieldError("maintenance_type", "Вид ТО не найден.", errors.ErrCodeInvalidReference)
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

func toRecords(rows []Row) []Record {
	out := make([]Record, 0, len(rows))
	for i := range rows {
		out = append(out, FromRow(&rows[i]))
	}
	return out
}
