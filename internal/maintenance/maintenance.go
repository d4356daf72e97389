package maintenance

import (
	"encoding/json"
	"fmt"

	"github.com/frahmantamala/servicebook/internal/core/datamodel/equipment"
	"github.com/frahmantamala/servicebook/internal/maintenancetype"
)

// Record is the read shape. The machine and the type are denormalized so tables need no
// second request.
type Record struct {
	ID              int64                `json:"id"`
	MachineID       int64                `json:"machine"`
	MachineSerial   string               `json:"machine_serial"`
	MaintenanceType maintenancetype.Type `json:"maintenance_type"`
	Date            *equipment.Date      `json:"date"`
	OperatingHours  *int64               `json:"operating_hours"`
	OrderNumber     string               `json:"order_number"`
	OrderDate       *equipment.Date      `json:"order_date"`
	ServiceCompany  string               `json:"service_company"`
}

// Row is a maintenance record joined with its machine serial and type name.
type Row struct {
	equipment.Maintenance
	MachineSerial       string `gorm:"column:machine_serial"`
	MaintenanceTypeName string `gorm:"column:maintenance_type_name"`
}

func FromRow(r *Row) Record {
	return Record{
		ID:              r.ID,
		MachineID:       r.MachineID,
		MachineSerial:   r.MachineSerial,
		MaintenanceType: maintenancetype.Type{ID: r.MaintenanceTypeID, Name: r.MaintenanceTypeName},
		Date:            r.Date,
		OperatingHours:  r.OperatingHours,
		OrderNumber:     r.OrderNumber,
		OrderDate:       r.OrderDate,
		ServiceCompany:  r.ServiceCompany,
	}
}

// TypeOption is one maintenance_type facet entry, encoded as [id, name].
type TypeOption struct {
	ID   int64
	Name string
}

func (o TypeOption) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{o.ID, o.Name})
}

func (o *TypeOption) UnmarshalJSON(b []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(b, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("maintenance type option: expected [id, name], got %d items", len(pair))
	}
	if err := json.Unmarshal(pair[0], &o.ID); err != nil {
		return err
	}
	return json.Unmarshal(pair[1], &o.Name)
}

type Facets struct {
	MaintenanceType []TypeOption `json:"maintenance_type"`
	MachineSerial   []string     `json:"machine_serial"`
	ServiceCompany  []string     `json:"service_company"`
}
