package form

import (
	"net/url"
	"regexp"

	"github.com/frahmantamala/servicebook/internal"
	"github.com/frahmantamala/servicebook/internal/client"
	"github.com/frahmantamala/servicebook/internal/core/common/validation"
)

// SerialPattern is the HTML pattern of the serial number input.
const SerialPattern = "[0-9]+"

var serialRe = regexp.MustCompile("^" + SerialPattern + "$")

type Machine struct {
	ModelName          string
	SerialNumber       string
	EngineModel        string
	EngineSerial       string
	TransmissionModel  string
	TransmissionSerial string
	DriveAxleModel     string
	DriveAxleSerial    string
	SteerAxleModel     string
	SteerAxleSerial    string
	ShipmentDate       string
	Buyer              string
	Recipient          string
	DeliveryAddress    string
	Options            string
	ServiceCompany     string
}

// NewMachine derives the form from initial; nil gives an empty create form.
func NewMachine(initial *client.Machine) Machine {
	if initial == nil {
		return Machine{}
	}
	return Machine{
		ModelName:          initial.ModelName,
		SerialNumber:       initial.SerialNumber,
		EngineModel:        initial.EngineModel,
		EngineSerial:       initial.EngineSerial,
		TransmissionModel:  initial.TransmissionModel,
		TransmissionSerial: initial.TransmissionSerial,
		DriveAxleModel:     initial.DriveAxleModel,
		DriveAxleSerial:    initial.DriveAxleSerial,
		SteerAxleModel:     initial.SteerAxleModel,
		SteerAxleSerial:    initial.SteerAxleSerial,
		ShipmentDate:       initial.ShipmentDate,
		Buyer:              initial.Buyer,
		Recipient:          initial.Recipient,
		DeliveryAddress:    initial.DeliveryAddress,
		Options:            initial.Options,
		ServiceCompany:     initial.ServiceCompany,
	}
}

func MachineFromValues(v url.Values) Machine {
	return Machine{
		ModelName:          value(v, "model_name"),
		SerialNumber:       value(v, "serial_number"),
		EngineModel:        value(v, "engine_model"),
		EngineSerial:       value(v, "engine_serial"),
		TransmissionModel:  value(v, "transmission_model"),
		TransmissionSerial: value(v, "transmission_serial"),
		DriveAxleModel:     value(v, "drive_axle_model"),
		DriveAxleSerial:    value(v, "drive_axle_serial"),
		SteerAxleModel:     value(v, "steer_axle_model"),
		SteerAxleSerial:    value(v, "steer_axle_serial"),
		ShipmentDate:       value(v, "shipment_date"),
		Buyer:              value(v, "buyer"),
		Recipient:          value(v, "recipient"),
		DeliveryAddress:    value(v, "delivery_address"),
		// multi-line, keep inner whitespace as typed
		Options:        v.Get("options"),
		ServiceCompany: value(v, "service_company"),
	}
}

func (m Machine) Validate() error {
	v := validation.NewValidator()
	v.Field("model_name", m.ModelName).Custom(missing("model_name", "Заполните поле «Модель техники»"))
	v.Field("serial_number", m.SerialNumber).
		Custom(missing("serial_number", "Заполните поле «Зав. № машины»")).
		Custom(func(interface{}) *internal.AppError {
			if !serialRe.MatchString(m.SerialNumber) {
				return internal.NewValidationFieldError("serial_number", "Зав. № машины: только цифры", internal.ErrCodeInvalidSerial)
			}
			return nil
		})
	return alert(v.Validate())
}

// Payload keeps the serial number as typed; leading zeros are significant.
func (m Machine) Payload() client.Payload {
	return client.Payload{
		"model_name":          m.ModelName,
		"serial_number":       m.SerialNumber,
		"engine_model":        m.EngineModel,
		"engine_serial":       m.EngineSerial,
		"transmission_model":  m.TransmissionModel,
		"transmission_serial": m.TransmissionSerial,
		"drive_axle_model":    m.DriveAxleModel,
		"drive_axle_serial":   m.DriveAxleSerial,
		"steer_axle_model":    m.SteerAxleModel,
		"steer_axle_serial":   m.SteerAxleSerial,
		"shipment_date":       optionalString(m.ShipmentDate),
		"buyer":               m.Buyer,
		"recipient":           m.Recipient,
		"delivery_address":    m.DeliveryAddress,
		"options":             m.Options,
		"service_company":     m.ServiceCompany,
	}
}
