package maintenancetype

import (
	"context"
	"log/slog"

	errors "github.com/frahmantamala/servicebook/internal"
	"github.com/frahmantamala/servicebook/internal/core/common/validation"
	"github.com/frahmantamala/servicebook/internal/core/datamodel/equipment"
)

type RepositoryAPI interface {
	GetAll(ctx context.Context) ([]*equipment.MaintenanceType, error)
	GetByID(ctx context.Context, id int64) (*equipment.MaintenanceType, error)
	GetByName(ctx context.Context, name string) (*equipment.MaintenanceType, error)
	Create(ctx context.Context, t *equipment.MaintenanceType) error
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// List returns every type ordered by name.
func (s *Service) List(ctx context.Context) ([]Type, error) {
	rows, err := s.repo.GetAll(ctx)
	if err != nil {
		s.logger.Error("failed to get maintenance types from repository", "error", err)
		return nil, err
	}

	types := make([]Type, 0, len(rows))
	for _, row := range rows {
		types = append(types, *FromDataModel(row))
	}

	s.logger.Debug("retrieved maintenance types", "count", len(types))
	return types, nil
}

// Get returns nil, nil when id is unknown.
func (s *Service) Get(ctx context.Context, id int64) (*Type, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to get maintenance type", "id", id, "error", err)
		return nil, err
	}
	if row == nil {
		return nil, nil
	}
	return FromDataModel(row), nil
}

// Ensure returns the type named name, creating it first if needed.
func (s *Service) Ensure(ctx context.Context, name string) (*Type, error) {
	t := NewType(name)
	v := validation.NewValidator()
	v.Field("name", t.Name).Required().MaxLength(100)
	if verr := v.Validate(); verr != nil {
		return nil, verr
	}

	existing, err := s.repo.GetByName(ctx, t.Name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return FromDataModel(existing), nil
	}

	row := ToDataModel(t)
	if err := s.repo.Create(ctx, row); err != nil {
		s.logger.Error("failed to create maintenance type", "name", t.Name, "error", err)
		return nil, errors.NewInternalError("failed to create maintenance type", err)
	}
	s.logger.Info("maintenance type created", "id", row.ID, "name", row.Name)
	return FromDataModel(row), nil
}
