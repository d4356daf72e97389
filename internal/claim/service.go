package claim

import (
	"context"
	"log/slog"
	"net/url"

	errors "github.com/frahmantamala/servicebook/internal"
	"github.com/frahmantamala/servicebook/internal/access"
	"github.com/frahmantamala/servicebook/internal/core/datamodel/equipment"
	"github.com/frahmantamala/servicebook/internal/core/events"
	"github.com/frahmantamala/servicebook/internal/query"
)

const collectionName = "claims"

type RepositoryAPI interface {
	List(ctx context.Context, vis query.Visibility, q url.Values, page *query.Page) ([]Row, int64, error)
	ListByMachine(ctx context.Context, machineID int64) ([]Row, error)
	GetByID(ctx context.Context, vis query.Visibility, id int64) (*Row, error)
	Machine(ctx context.Context, vis query.Visibility, id int64) (*equipment.Machine, error)
	Create(ctx context.Context, c *equipment.Claim) error
	Update(ctx context.Context, c *equipment.Claim) error
	Delete(ctx context.Context, id int64) error
	Facets(ctx context.Context, vis query.Visibility) (*Facets, error)
}

type Service struct {
	repo      RepositoryAPI
	publisher events.Publisher
	logger    *slog.Logger
}

func NewService(repo RepositoryAPI, publisher events.Publisher, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
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
		s.logger.Error("failed to list claims", "error", err)
		return nil, 0, errors.NewInternalError("failed to list claims", err)
	}
	return toRecords(rows), total, nil
}

// ListByMachine returns the history of one machine, newest failure first. The caller has already
// checked that the machine is visible.
func (s *Service) ListByMachine(ctx context.Context, machineID int64) ([]Record, error) {
	rows, err := s.repo.ListByMachine(ctx, machineID)
	if err != nil {
		s.logger.Error("failed to load claim history", "machine_id", machineID, "error", err)
		return nil, errors.NewInternalError("failed to load claim history", err)
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
	c := &equipment.Claim{}
	dto.ApplyTo(c, true)

	if verr := Validate(c); verr != nil {
		return nil, verr
	}
	if err := s.checkMachine(ctx, c.MachineID); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, c); err != nil {
		s.logger.Error("failed to create claim", "machine_id", c.MachineID, "error", err)
		return nil, errors.NewInternalError("failed to create claim", err)
	}

	s.logger.Info("claim created", "claim_id", c.ID, "machine_id", c.MachineID)
	s.publish(ctx, c.ID, events.OpCreate)
	return s.Get(ctx, c.ID)
}

// Update moves the claim to another machine only when the caller may write claims there too.
func (s *Service) Update(ctx context.Context, id int64, dto WriteDTO, full bool) (*Record, error) {
	row, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkMachine(ctx, row.MachineID); err != nil {
		return nil, err
	}

	c := row.Claim
	dto.ApplyTo(&c, full)
	c.ID = id

	if verr := Validate(&c); verr != nil {
		return nil, verr
	}
	if c.MachineID != row.MachineID {
		if err := s.checkMachine(ctx, c.MachineID); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Update(ctx, &c); err != nil {
		s.logger.Error("failed to update claim", "claim_id", id, "error", err)
		return nil, errors.NewInternalError("failed to update claim", err)
	}

	s.logger.Info("claim updated", "claim_id", id, "full", full)
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
		s.logger.Error("failed to delete claim", "claim_id", id, "error", err)
		return errors.NewInternalError("failed to delete claim", err)
	}
	s.logger.Info("claim deleted", "claim_id", id)
	s.publish(ctx, id, events.OpDelete)
	return nil
}

func (s *Service) Facets(ctx context.Context) (*Facets, error) {
	f, err := s.repo.Facets(ctx, query.VisibilityFrom(ctx))
	if err != nil {
		s.logger.Error("failed to build claim facets", "error", err)
		return nil, errors.NewInternalError("failed to build facets", err)
	}
	return f, nil
}

func (s *Service) load(ctx context.Context, id int64) (*Row, error) {
	row, err := s.repo.GetByID(ctx, query.VisibilityFrom(ctx), id)
	if err != nil {
		s.logger.Error("failed to load claim", "claim_id", id, "error", err)
		return nil, errors.NewInternalError("failed to load claim", err)
	}
	if row == nil {
		return nil, errors.ErrClaimNotFound
	}
	return row, nil
}

// checkMachine resolves machineID among the caller's visible machines. Claims are written by
// managers and by the machine's service organization.
func (s *Service) checkMachine(ctx context.Context, machineID int64) error {
	vis := query.VisibilityFrom(ctx)
	m, err := s.repo.Machine(ctx, vis, machineID)
	if err != nil {
		return errors.NewInternalError("failed to load machine", err)
	}
	if m == nil {
		return errors.NewValidationFieldError("machine_id", "Машина не найдена.", errors.ErrCodeInvalidReference)
	}
	if !access.Can(vis.Role, access.Claims, access.ActionEdit) || !vis.Owns(m) {
		return errors.NewForbiddenError("Недостаточно прав для создания/изменения рекламации.", errors.ErrCodePermissionDenied)
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
