package postgres

import (
	"context"
	"errors"
	"net/url"

	"github.com/frahmantamala/servicebook/internal/core/datamodel/equipment"
	"github.com/frahmantamala/servicebook/internal/maintenance"
	"github.com/frahmantamala/servicebook/internal/query"
	"gorm.io/gorm"
)

var listSpec = query.Spec{
	Filters: []query.Filter{
		{Param: "maintenance_type", Column: "maintenance_records.maintenance_type_id", Numeric: true},
		{Param: "machine__serial_number", Column: "machines.serial_number"},
		{Param: "service_company", Column: "maintenance_records.service_company"},
		{Param: "service_company__icontains", Column: "maintenance_records.service_company", Lookup: query.IContains},
	},
	Ordering: map[string]string{
		"date":                   "maintenance_records.date",
		"operating_hours":        "maintenance_records.operating_hours",
		"order_date":             "maintenance_records.order_date",
		"machine__serial_number": "machines.serial_number",
	},
	DefaultOrdering: "machine__serial_number,-date",
	SearchColumns: []string{
		"machines.serial_number", "maintenance_records.order_number", "maintenance_records.service_company",
	},
	TieBreaker: "maintenance_records.id ASC",
}

const rowColumns = "maintenance_records.*, " +
	"machines.serial_number AS machine_serial, " +
	"maintenance_types.name AS maintenance_type_name"

type MaintenanceRepository struct {
	db *gorm.DB
}

func NewMaintenanceRepository(db *gorm.DB) maintenance.RepositoryAPI {
	return &MaintenanceRepository{db: db}
}

func (r *MaintenanceRepository) joined(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&equipment.Maintenance{}).
		Joins("JOIN machines ON machines.id = maintenance_records.machine_id").
		Joins("LEFT JOIN maintenance_types ON maintenance_types.id = maintenance_records.maintenance_type_id")
}

func (r *MaintenanceRepository) List(ctx context.Context, vis query.Visibility, q url.Values, page *query.Page) ([]maintenance.Row, int64, error) {
	base, err := listSpec.Where(r.joined(ctx).Scopes(vis.Machines("machines")), q)
	if err != nil {
		return nil, 0, err
	}

	var total int64
	if page != nil {
		if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
			return nil, 0, err
		}
	}

	stmt := listSpec.Order(base.Session(&gorm.Session{}).Select(rowColumns), q.Get("ordering"))
	if page != nil {
		stmt = stmt.Offset(page.Offset()).Limit(page.Size)
	}

	rows := make([]maintenance.Row, 0)
	if err := stmt.Scan(&rows).Error; err != nil {
		return nil, 0, err
	}
	if page == nil {
		total = int64(len(rows))
	}
	return rows, total, nil
}

func (r *MaintenanceRepository) ListByMachine(ctx context.Context, machineID int64) ([]maintenance.Row, error) {
	rows := make([]maintenance.Row, 0)
	err := r.joined(ctx).
		Select(rowColumns).
		Where("maintenance_records.machine_id = ?", machineID).
		Order("maintenance_records.date DESC").
		Order("maintenance_records.id DESC").
		Scan(&rows).Error
	return rows, err
}

func (r *MaintenanceRepository) GetByID(ctx context.Context, vis query.Visibility, id int64) (*maintenance.Row, error) {
	var rows []maintenance.Row
	err := r.joined(ctx).
		Scopes(vis.Machines("machines")).
		Select(rowColumns).
		Where("maintenance_records.id = ?", id).
		Limit(1).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (r *MaintenanceRepository) Machine(ctx context.Context, vis query.Visibility, id int64) (*equipment.Machine, error) {
	var m equipment.Machine
	err := r.db.WithContext(ctx).Scopes(vis.Machines("machines")).Where("machines.id = ?", id).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

func (r *MaintenanceRepository) Create(ctx context.Context, m *equipment.Maintenance) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *MaintenanceRepository) Update(ctx context.Context, m *equipment.Maintenance) error {
	return r.db.WithContext(ctx).Omit("created_at").Save(m).Error
}

func (r *MaintenanceRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&equipment.Maintenance{}, id).Error
}

func (r *MaintenanceRepository) Facets(ctx context.Context, vis query.Visibility) (*maintenance.Facets, error) {
	scoped := func() *gorm.DB { return r.joined(ctx).Scopes(vis.Machines("machines")) }

	types := make([]maintenance.TypeOption, 0)
	err := scoped().
		Distinct("maintenance_types.id AS id", "maintenance_types.name AS name").
		Where("maintenance_types.id IS NOT NULL").
		Order("maintenance_types.name").
		Scan(&types).Error
	if err != nil {
		return nil, err
	}

	serials := make([]string, 0)
	if err := scoped().Distinct().Order("machines.serial_number").Pluck("machines.serial_number", &serials).Error; err != nil {
		return nil, err
	}

	companies := make([]string, 0)
	err = scoped().
		Where("maintenance_records.service_company IS NOT NULL AND maintenance_records.service_company <> ''").
		Distinct().
		Order("maintenance_records.service_company").
		Pluck("maintenance_records.service_company", &companies).Error
	if err != nil {
		return nil, err
	}

	return &maintenance.Facets{MaintenanceType: types, MachineSerial: serials, ServiceCompany: companies}, nil
}
