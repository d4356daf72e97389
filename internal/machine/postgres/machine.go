package postgres

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/frahmantamala/servicebook/internal/core/datamodel/equipment"
	"github.com/frahmantamala/servicebook/internal/core/datamodel/user"
	"github.com/frahmantamala/servicebook/internal/machine"
	"github.com/frahmantamala/servicebook/internal/query"
	"gorm.io/gorm"
)

var listSpec = query.Spec{
	Filters: []query.Filter{
		{Param: "model_name", Column: "machines.model_name"},
		{Param: "model_name__icontains", Column: "machines.model_name", Lookup: query.IContains},
		{Param: "engine_model", Column: "machines.engine_model"},
		{Param: "engine_model__icontains", Column: "machines.engine_model", Lookup: query.IContains},
		{Param: "transmission_model", Column: "machines.transmission_model"},
		{Param: "transmission_model__icontains", Column: "machines.transmission_model", Lookup: query.IContains},
		{Param: "steer_axle_model", Column: "machines.steer_axle_model"},
		{Param: "steer_axle_model__icontains", Column: "machines.steer_axle_model", Lookup: query.IContains},
		{Param: "drive_axle_model", Column: "machines.drive_axle_model"},
		{Param: "drive_axle_model__icontains", Column: "machines.drive_axle_model", Lookup: query.IContains},
		{Param: "serial_number", Column: "machines.serial_number"},
		{Param: "serial_number__icontains", Column: "machines.serial_number", Lookup: query.IContains},
		{Param: "service_company", Column: "machines.service_company"},
		{Param: "service_company__icontains", Column: "machines.service_company", Lookup: query.IContains},
	},
	Ordering: map[string]string{
		"serial_number": "machines.serial_number",
		"shipment_date": "machines.shipment_date",
		"model_name":    "machines.model_name",
	},
	DefaultOrdering: "-shipment_date",
	SearchColumns: []string{
		"machines.serial_number", "machines.engine_serial", "machines.transmission_serial",
		"machines.buyer", "machines.recipient", "machines.delivery_address",
	},
	TieBreaker: "machines.id ASC",
}

// publicSearchColumns are matched by non-numeric terms on /api/search.
var publicSearchColumns = []string{
	"machines.model_name", "machines.engine_model", "machines.engine_serial",
	"machines.transmission_model", "machines.transmission_serial", "machines.buyer",
	"machines.recipient", "machines.delivery_address", "machines.service_company",
}

var facetColumns = []string{
	"model_name", "engine_model", "transmission_model", "steer_axle_model", "drive_axle_model", "service_company",
}

const countColumns = "machines.*, " +
	"(SELECT COUNT(*) FROM maintenance_records mr WHERE mr.machine_id = machines.id) AS maintenance_count, " +
	"(SELECT COUNT(*) FROM claims c WHERE c.machine_id = machines.id) AS claims_count"

type MachineRepository struct {
	db *gorm.DB
}

func NewMachineRepository(db *gorm.DB) machine.RepositoryAPI {
	return &MachineRepository{db: db}
}

func (r *MachineRepository) List(ctx context.Context, vis query.Visibility, q url.Values, page *query.Page) ([]machine.ListRow, int64, error) {
	base, err := listSpec.Where(r.db.WithContext(ctx).Model(&equipment.Machine{}).Scopes(vis.Machines("machines")), q)
	if err != nil {
		return nil, 0, err
	}

	var total int64
	if page != nil {
		if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
			return nil, 0, err
		}
	}

	stmt := listSpec.Order(base.Session(&gorm.Session{}).Select(countColumns), q.Get("ordering"))
	if page != nil {
		stmt = stmt.Offset(page.Offset()).Limit(page.Size)
	}

	rows := make([]machine.ListRow, 0)
	if err := stmt.Scan(&rows).Error; err != nil {
		return nil, 0, err
	}
	if page == nil {
		total = int64(len(rows))
	}
	return rows, total, nil
}

func (r *MachineRepository) GetByID(ctx context.Context, vis query.Visibility, id int64) (*equipment.Machine, error) {
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

func (r *MachineRepository) GetBySerial(ctx context.Context, serial string) (*equipment.Machine, error) {
	var m equipment.Machine
	err := r.db.WithContext(ctx).Where("serial_number = ?", serial).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

func (r *MachineRepository) UserExists(ctx context.Context, id int64) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&user.User{}).Where("id = ?", id).Count(&n).Error
	return n > 0, err
}

func (r *MachineRepository) Create(ctx context.Context, m *equipment.Machine) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *MachineRepository) Update(ctx context.Context, m *equipment.Machine) error {
	return r.db.WithContext(ctx).Omit("created_at").Save(m).Error
}

// Delete removes dependants explicitly so the cascade holds on databases without FK enforcement.
func (r *MachineRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("machine_id = ?", id).Delete(&equipment.Maintenance{}).Error; err != nil {
			return err
		}
		if err := tx.Where("machine_id = ?", id).Delete(&equipment.Claim{}).Error; err != nil {
			return err
		}
		return tx.Delete(&equipment.Machine{}, id).Error
	})
}

func (r *MachineRepository) Facets(ctx context.Context, vis query.Visibility) (*machine.Facets, error) {
	values := make(map[string][]string, len(facetColumns))
	for _, col := range facetColumns {
		out := make([]string, 0)
		err := r.db.WithContext(ctx).Model(&equipment.Machine{}).
			Scopes(vis.Machines("machines")).
			Where(fmt.Sprintf("%s IS NOT NULL AND %s <> ''", col, col)).
			Distinct().
			Order(col).
			Pluck(col, &out).Error
		if err != nil {
			return nil, err
		}
		values[col] = out
	}

	return &machine.Facets{
		ModelName:         values["model_name"],
		EngineModel:       values["engine_model"],
		TransmissionModel: values["transmission_model"],
		SteerAxleModel:    values["steer_axle_model"],
		DriveAxleModel:    values["drive_axle_model"],
		ServiceCompany:    values["service_company"],
	}, nil
}

func (r *MachineRepository) Search(ctx context.Context, vis query.Visibility, term string, exactSerial bool) ([]*equipment.Machine, error) {
	db := r.db.WithContext(ctx).Model(&equipment.Machine{}).Scopes(vis.Search("machines"))
	if exactSerial {
		db = db.Where("machines.serial_number = ?", term)
	} else {
		clause, args := query.ContainsAny(publicSearchColumns, term)
		db = db.Where(clause, args...)
	}

	var found []*equipment.Machine
	if err := db.Order("machines.serial_number ASC").Find(&found).Error; err != nil {
		return nil, err
	}
	return found, nil
}
