package machine

import (
	"strings"

	errors "github.com/frahmantamala/servicebook/internal"
	"github.com/frahmantamala/servicebook/internal/core/common/nullable"
	"github.com/frahmantamala/servicebook/internal/core/common/validation"
	"github.com/frahmantamala/servicebook/internal/core/datamodel/equipment"
)

// WriteDTO is the body of POST, PUT and PATCH. With PUT every absent field is reset;
// with PATCH only the fields present in the body change.
type WriteDTO struct {
	ModelName          nullable.Field[string]         `json:"model_name"`
	SerialNumber       nullable.Field[string]         `json:"serial_number"`
	EngineModel        nullable.Field[string]         `json:"engine_model"`
	EngineSerial       nullable.Field[string]         `json:"engine_serial"`
	TransmissionModel  nullable.Field[string]         `json:"transmission_model"`
	TransmissionSerial nullable.Field[string]         `json:"transmission_serial"`
	DriveAxleModel     nullable.Field[string]         `json:"drive_axle_model"`
	DriveAxleSerial    nullable.Field[string]         `json:"drive_axle_serial"`
	SteerAxleModel     nullable.Field[string]         `json:"steer_axle_model"`
	SteerAxleSerial    nullable.Field[string]         `json:"steer_axle_serial"`
	ShipmentDate       nullable.Field[equipment.Date] `json:"shipment_date"`
	Buyer              nullable.Field[string]         `json:"buyer"`
	Recipient          nullable.Field[string]         `json:"recipient"`
	DeliveryAddress    nullable.Field[string]         `json:"delivery_address"`
	Options            nullable.Field[string]         `json:"options"`
	ServiceCompany     nullable.Field[string]         `json:"service_company"`
	ClientID           nullable.Field[int64]          `json:"client"`
	ServiceOrgID       nullable.Field[int64]          `json:"service_org"`
}

// ApplyTo copies the DTO onto m; full selects PUT semantics.
func (d *WriteDTO) ApplyTo(m *Machine, full bool) {
	d.ModelName.Apply(&m.ModelName, full)
	d.SerialNumber.Apply(&m.SerialNumber, full)
	d.EngineModel.Apply(&m.EngineModel, full)
	d.EngineSerial.Apply(&m.EngineSerial, full)
	d.TransmissionModel.Apply(&m.TransmissionModel, full)
	d.TransmissionSerial.Apply(&m.TransmissionSerial, full)
	d.DriveAxleModel.Apply(&m.DriveAxleModel, full)
	d.DriveAxleSerial.Apply(&m.DriveAxleSerial, full)
	d.SteerAxleModel.Apply(&m.SteerAxleModel, full)
	d.SteerAxleSerial.Apply(&m.SteerAxleSerial, full)
	d.ShipmentDate.ApplyPtr(&m.ShipmentDate, full)
	if m.ShipmentDate != nil && m.ShipmentDate.IsZero() {
		m.ShipmentDate = nil
	}
	d.Buyer.Apply(&m.Buyer, full)
	d.Recipient.Apply(&m.Recipient, full)
	d.DeliveryAddress.Apply(&m.DeliveryAddress, full)
	d.Options.Apply(&m.Options, full)
	d.ServiceCompany.Apply(&m.ServiceCompany, full)
	d.ClientID.ApplyPtr(&m.ClientID, full)
	d.ServiceOrgID.ApplyPtr(&m.ServiceOrgID, full)

	m.SerialNumber = strings.TrimSpace(m.SerialNumber)
	m.ModelName = strings.TrimSpace(m.ModelName)
}

// Validate checks the merged record, not the DTO, so PATCH cannot blank a required field.
func Validate(m *Machine) *errors.AppError {
	v := validation.NewValidator()
	v.Field("model_name", m.ModelName).Required().MaxLength(100)
	v.Field("serial_number", m.SerialNumber).Required().Digits().MaxLength(32)
	v.Field("engine_model", m.EngineModel).MaxLength(100)
	v.Field("transmission_model", m.TransmissionModel).MaxLength(150)
	v.Field("buyer", m.Buyer).MaxLength(255)
	v.Field("recipient", m.Recipient).MaxLength(255)
	v.Field("delivery_address", m.DeliveryAddress).MaxLength(255)
	v.Field("service_company", m.ServiceCompany).MaxLength(255)
	return v.Validate()
}
