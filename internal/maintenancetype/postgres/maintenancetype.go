package postgres

import (
	"context"
	"errors"

	"github.com/frahmantamala/servicebook/internal/core/datamodel/equipment"
	"github.com/frahmantamala/servicebook/internal/maintenancetype"
	"gorm.io/gorm"
)

type MaintenanceTypeRepository struct {
	db *gorm.DB
}

func NewMaintenanceTypeRepository(db *gorm.DB) maintenancetype.RepositoryAPI {
	return &MaintenanceTypeRepository{db: db}
}

func (r *MaintenanceTypeRepository) GetAll(ctx context.Context) ([]*equipment.MaintenanceType, error) {
	var types []*equipment.MaintenanceType
	err := r.db.WithContext(ctx).Order("name ASC").Find(&types).Error
	return types, err
}

func (r *MaintenanceTypeRepository) GetByID(ctx context.Context, id int64) (*equipment.MaintenanceType, error) {
	var t equipment.MaintenanceType
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (r *MaintenanceTypeRepository) GetByName(ctx context.Context, name string) (*equipment.MaintenanceType, error) {
	var t equipment.MaintenanceType
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (r *MaintenanceTypeRepository) Create(ctx context.Context, t *equipment.MaintenanceType) error {
	return r.db.WithContext(ctx).Create(t).Error
}
