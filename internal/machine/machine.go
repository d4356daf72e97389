package machine

import (
	"github.com/frahmantamala/servicebook/internal/claim"
	"github.com/frahmantamala/servicebook/internal/core/datamodel/equipment"
	"github.com/frahmantamala/servicebook/internal/maintenance"
)

// Machine is the full record. Serial numbers are strings: "00042" and "42" are different machines.
type Machine struct {
	ID                 int64           `json:"id"`
	SerialNumber       string          `json:"serial_number"`
	ModelName          string          `json:"model_name"`
	EngineModel        string          `json:"engine_model"`
	EngineSerial       string          `json:"engine_serial"`
	TransmissionModel  string          `json:"transmission_model"`
	TransmissionSerial string          `json:"transmission_serial"`
	DriveAxleModel     string          `json:"drive_axle_model"`
	DriveAxleSerial    string          `json:"drive_axle_serial"`
	SteerAxleModel     string          `json:"steer_axle_model"`
	SteerAxleSerial    string          `json:"steer_axle_serial"`
	ShipmentDate       *equipment.Date `json:"shipment_date"`
	Buyer              string          `json:"buyer"`
	Recipient          string          `json:"recipient"`
	DeliveryAddress    string          `json:"delivery_address"`
	Options            string          `json:"options"`
	ServiceCompany     string          `json:"service_company"`
	ClientID           *int64          `json:"client"`
	ServiceOrgID       *int64          `json:"service_org"`
}

// ListItem is a table row: the machine plus history counters.
type ListItem struct {
	Machine
	MaintenanceCount int64 `json:"maintenance_count"`
	ClaimsCount      int64 `json:"claims_count"`
}

// Detail embeds the full maintenance (newest first) and claim (newest failure first) histories.
type Detail struct {
	Machine
	Maintenance []maintenance.Record `json:"maintenance"`
	Claims      []claim.Record       `json:"claims"`
}

// Public is what the unauthenticated serial lookup may reveal.
type Public struct {
	SerialNumber       string `json:"serial_number"`
	ModelName          string `json:"model_name"`
	EngineModel        string `json:"engine_model"`
	EngineSerial       string `json:"engine_serial"`
	TransmissionModel  string `json:"transmission_model"`
	TransmissionSerial string `json:"transmission_serial"`
	DriveAxleModel     string `json:"drive_axle_model"`
	DriveAxleSerial    string `json:"drive_axle_serial"`
	SteerAxleModel     string `json:"steer_axle_model"`
	SteerAxleSerial    string `json:"steer_axle_serial"`
}

// Facets lists the distinct non-empty values per filterable field.
type Facets struct {
	ModelName         []string `json:"model_name"`
	EngineModel       []string `json:"engine_model"`
	TransmissionModel []string `json:"transmission_model"`
	SteerAxleModel    []string `json:"steer_axle_model"`
	DriveAxleModel    []string `json:"drive_axle_model"`
	ServiceCompany    []string `json:"service_company"`
}

func (m *Machine) ToPublic() Public {
	return Public{
		SerialNumber:       m.SerialNumber,
		ModelName:          m.ModelName,
		EngineModel:        m.EngineModel,
		EngineSerial:       m.EngineSerial,
		TransmissionModel:  m.TransmissionModel,
		TransmissionSerial: m.TransmissionSerial,
		DriveAxleModel:     m.DriveAxleModel,
		DriveAxleSerial:    m.DriveAxleSerial,
		SteerAxleModel:     m.SteerAxleModel,
		SteerAxleSerial:    m.SteerAxleSerial,
	}
}

func ToDataModel(m *Machine) *equipment.Machine {
	return &equipment.Machine{
		ID:                 m.ID,
		SerialNumber:       m.SerialNumber,
		ModelName:          m.ModelName,
		EngineModel:        m.EngineModel,
		EngineSerial:       m.EngineSerial,
		TransmissionModel:  m.TransmissionModel,
		TransmissionSerial: m.TransmissionSerial,
		DriveAxleModel:     m.DriveAxleModel,
		DriveAxleSerial:    m.DriveAxleSerial,
		SteerAxleModel:     m.SteerAxleModel,
		SteerAxleSerial:    m.SteerAxleSerial,
		ShipmentDate:       m.ShipmentDate,
		Buyer:              m.Buyer,
		Recipient:          m.Recipient,
		DeliveryAddress:    m.DeliveryAddress,
		Options:            m.Options,
		ServiceCompany:     m.ServiceCompany,
		ClientID:           m.ClientID,
		ServiceOrgID:       m.ServiceOrgID,
	}
}

func FromDataModel(m *equipment.Machine) *Machine {
	return &Machine{
		ID:                 m.ID,
		SerialNumber:       m.SerialNumber,
		ModelName:          m.ModelName,
		EngineModel:        m.EngineModel,
		EngineSerial:       m.EngineSerial,
		TransmissionModel:  m.TransmissionModel,
		TransmissionSerial: m.TransmissionSerial,
		DriveAxleModel:     m.DriveAxleModel,
		DriveAxleSerial:    m.DriveAxleSerial,
		SteerAxleModel:     m.SteerAxleModel,
		SteerAxleSerial:    m.SteerAxleSerial,
		ShipmentDate:       m.ShipmentDate,
		Buyer:              m.Buyer,
		Recipient:          m.Recipient,
		DeliveryAddress:    m.DeliveryAddress,
		Options:            m.Options,
		ServiceCompany:     m.ServiceCompany,
		ClientID:           m.ClientID,
		ServiceOrgID:       m.ServiceOrgID,
	}
}
