package postgres

import (
	"context"
	"errors"
	"net/url"

	"github.com/frahmantamala/servicebook/internal/core/datamodel/equipment"
	"github.com/frahmantamala/servicebook/internal/claim"
	"github.com/frahmantamala/servicebook/internal/query"
	"gorm.io/gorm"
)

var listSpec = query.Spec{
	Filters: []query.Filter{
		{Param: "failure_node", Column: "claims.failure_node"},
		{Param: "failure_node__icontains", Column: "claims.failure_node", Lookup: query.IContains},
		{Param: "recovery_method", Column: "claims.recovery_method", Lookup: query.IContains},
		{Param: "recovery_method__icontains", Column: "claims.recovery_method", Lookup: query.IContains},
		{Param: "machine__serial_number", Column: "machines.serial_number"},
		{Param: "machine__service_company", Column: "machines.service_company"},
		{Param: "machine__service_company__icontains", Column: "machines.service_company", Lookup: query.IContains},
	},
	Ordering: map[string]string{
		"failure_date":           "claims.failure_date",
		"downtime_hours":         "claims.downtime_hours",
		"operating_hours":        "claims.operating_hours",
		"machine__serial_number": "machines.serial_number",
	},
	DefaultOrdering: "machine__serial_number,-failure_date",
	SearchColumns:   []string{"machines.serial_number", "claims.failure_node", "claims.failure_description"},
	TieBreaker:      "claims.id ASC",
}

const rowColumns = "claims.*, machines.serial_number AS machine_serial"

type ClaimRepository struct {
	db *gorm.DB
}

func NewClaimRepository(db *gorm.DB) claim.RepositoryAPI {
	return &ClaimRepository{db: db}
}

func (r *ClaimRepository) joined(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&equipment.Claim{}).
		Joins("JOIN machines ON machines.id = claims.machine_id")
}

func (r *ClaimRepository) List(ctx context.Context, vis query.Visibility, q url.Values, page *query.Page) ([]claim.Row, int64, error) {
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

	rows := make([]claim.Row, 0)
	if err := stmt.Scan(&rows).Error; err != nil {
		return nil, 0, err
	}
	if page == nil {
		total = int64(len(rows))
	}
	return rows, total, nil
}

func (r *ClaimRepository) ListByMachine(ctx context.Context, machineID int64) ([]claim.Row, error) {
	rows := make([]claim.Row, 0)
	err := r.joined(ctx).
		Select(rowColumns).
		Where("claims.machine_id = ?", machineID).
		Order("claims.failure_date DESC").
		Order("claims.id DESC").
		Scan(&rows).Error
	return rows, err
}

func (r *ClaimRepository) GetByID(ctx context.Context, vis query.Visibility, id int64) (*claim.Row, error) {
	var rows []claim.Row
	err := r.joined(ctx).
		Scopes(vis.Machines("machines")).
		Select(rowColumns).
		Where("claims.id = ?", id).
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

func (r *ClaimRepository) Machine(ctx context.Context, vis query.Visibility, id int64) (*equipment.Machine, error) {
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

func (r *ClaimRepository) Create(ctx context.Context, c *equipment.Claim) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *ClaimRepository) Update(ctx context.Context, c *equipment.Claim) error {
	return r.db.WithContext(ctx).Omit("created_at").Save(c).Error
}

func (r *ClaimRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&equipment.Claim{}, id).Error
}

func (r *ClaimRepository) Facets(ctx context.Context, vis query.Visibility) (*claim.Facets, error) {
	scoped := func() *gorm.DB { return r.joined(ctx).Scopes(vis.Machines("machines")) }
	pluck := func(column string, skipEmpty bool) ([]string, error) {
		out := make([]string, 0)
		db := scoped()
		if skipEmpty {
			db = db.Where(column + " IS NOT NULL AND " + column + " <> ''")
		}
		err := db.Distinct().Order(column).Pluck(column, &out).Error
		return out, err
	}

	nodes, err := pluck("claims.failure_node", true)
	if err != nil {
		return nil, err
	}
	serials, err := pluck("machines.serial_number", false)
	if err != nil {
		return nil, err
	}
	companies, err := pluck("machines.service_company", true)
	if err != nil {
		return nil, err
	}
	return &claim.Facets{FailureNode: nodes, MachineSerial: serials, ServiceCompany: companies}, nil
}
