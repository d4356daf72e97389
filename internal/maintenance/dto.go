package maintenance

import (
	"strings"

	errors "github.com/frahmantamala/servicebook/internal"
	"github.com/frahmantamala/servicebook/internal/core/common/nullable"
	"github.com/frahmantamala/servicebook/internal/core/common/validation"
	"github.com/frahmantamala/servicebook/internal/core/datamodel/equipment"
)

// WriteDTO is the body of POST, PUT and PATCH. The machine is always referenced by id.
type WriteDTO struct {
	MachineID       nullable.Field[int64]          `json:"machine_id"`
	MaintenanceType nullable.Field[int64]          `json:"maintenance_type"`
	Date            nullable.Field[equipment.Date] `json:"date"`
	OperatingHours  nullable.Field[int64]          `json:"operating_hours"`
	OrderNumber     nullable.Field[string]         `json:"order_number"`
	OrderDate       nullable.Field[equipment.Date] `json:"order_date"`
	ServiceCompany  nullable.Field[string]         `json:"service_company"`
}

func (d *WriteDTO) ApplyTo(m *equipment.Maintenance, full bool) {
	d.MachineID.Apply(&m.MachineID, full)
	d.MaintenanceType.Apply(&m.MaintenanceTypeID, full)
	d.Date.ApplyPtr(&m.Date, full)
	d.OperatingHours.ApplyPtr(&m.OperatingHours, full)
	d.OrderNumber.Apply(&m.OrderNumber, full)
	d.OrderDate.ApplyPtr(&m.OrderDate, full)
	d.ServiceCompany.Apply(&m.ServiceCompany, full)

	if m.Date != nil && m.Date.IsZero() {
		m.Date = nil
	}
	if m.OrderDate != nil && m.OrderDate.IsZero() {
		m.OrderDate = nil
	}
	m.OrderNumber = strings.TrimSpace(m.OrderNumber)
	m.ServiceCompany = strings.TrimSpace(m.ServiceCompany)
}

func Validate(m *equipment.Maintenance) *errors.AppError {
	v := validation.NewValidator()
	v.Field("machine_id", m.MachineID).Required()
	v.Field("maintenance_type", m.MaintenanceTypeID).Required()
	v.Field("operating_hours", m.OperatingHours).NonNegative()
	v.Field("order_number", m.OrderNumber).MaxLength(100)
	v.Field("service_company", m.ServiceCompany).MaxLength(255)
	return v.Validate()
}
