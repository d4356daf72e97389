package form

import (
	"net/url"

	"github.com/frahmantamala/servicebook/internal/client"
	"github.com/frahmantamala/servicebook/internal/core/common/validation"
)

const (
	MessageSelectMachine = "Выберите машину"
	MessageSelectType    = "Выберите вид ТО"
)

// Maintenance keeps ids as strings, the way select inputs post them. An empty MachineID or
// MaintenanceType means unset.
type Maintenance struct {
	MachineID       string
	MaintenanceType string
	Date            string
	OperatingHours  string
	OrderNumber     string
	OrderDate       string
	ServiceCompany  string
}

// NewMaintenance derives the form from a list row. The row names its machine by serial, so
// the id is looked up in machines; an unresolved machine stays unset.
func NewMaintenance(initial *client.MaintenanceRecord, machines []MachineOption) Maintenance {
	if initial == nil {
		return Maintenance{}
	}
	return Maintenance{
		MachineID:       resolveMachine(initial.Machine, initial.MachineSerial, machines),
		MaintenanceType: formatID(initial.MaintenanceType.ID),
		Date:            initial.Date,
		OperatingHours:  formatOptionalInt(initial.OperatingHours),
		OrderNumber:     initial.OrderNumber,
		OrderDate:       initial.OrderDate,
		ServiceCompany:  initial.ServiceCompany,
	}
}

// MaintenanceFromValues accepts the machine under "machine_id" or "machine".
func MaintenanceFromValues(v url.Values) Maintenance {
	machineID := value(v, "machine_id")
	if machineID == "" {
		machineID = value(v, "machine")
	}
	return Maintenance{
		MachineID:       machineID,
		MaintenanceType: value(v, "maintenance_type"),
		Date:            value(v, "date"),
		OperatingHours:  value(v, "operating_hours"),
		OrderNumber:     value(v, "order_number"),
		OrderDate:       value(v, "order_date"),
		ServiceCompany:  value(v, "service_company"),
	}
}

func (m Maintenance) Validate() error {
	v := validation.NewValidator()
	v.Field("machine", m.MachineID).Custom(missing("machine", MessageSelectMachine))
	v.Field("maintenance_type", m.MaintenanceType).Custom(missing("maintenance_type", MessageSelectType))
	v.Field("operating_hours", m.OperatingHours).Custom(count("operating_hours", "Наработка, м/ч"))
	return alert(v.Validate())
}

func (m Maintenance) Payload() client.Payload {
	return client.Payload{
		"machine_id":       requiredID(m.MachineID),
		"maintenance_type": requiredID(m.MaintenanceType),
		"date":             optionalString(m.Date),
		"operating_hours":  optionalInt(m.OperatingHours),
		"order_number":     m.OrderNumber,
		"order_date":       optionalString(m.OrderDate),
		"service_company":  m.ServiceCompany,
	}
}
