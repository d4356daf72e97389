package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

type Tokens struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}

type Profile struct {
	ID        int64    `json:"id"`
	Username  string   `json:"username"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	IsStaff   bool     `json:"is_staff"`
	Groups    []string `json:"groups"`
}

// Machine is a list row or the head of a detail response. Dates stay strings; the API owns
// their format. Serial numbers are never converted to numbers.
type Machine struct {
	ID                 int64  `json:"id"`
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
	ShipmentDate       string `json:"shipment_date"`
	Buyer              string `json:"buyer"`
	Recipient          string `json:"recipient"`
	DeliveryAddress    string `json:"delivery_address"`
	Options            string `json:"options"`
	ServiceCompany     string `json:"service_company"`
	MaintenanceCount   int64  `json:"maintenance_count"`
	ClaimsCount        int64  `json:"claims_count"`
}

// MachineDetail carries the full histories, newest first.
type MachineDetail struct {
	Machine
	Maintenance []MaintenanceRecord `json:"maintenance"`
	Claims      []Claim             `json:"claims"`
}

type PublicMachine struct {
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

// TypeRef is a maintenance type sent either as {"id", "name"} or as a bare id.
type TypeRef struct {
	ID   int64
	Name string
}

func (t *TypeRef) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*t = TypeRef{}
		return nil
	case len(b) > 0 && b[0] == '{':
		var obj struct {
			ID   int64  `json:"id"`
			Name string `json:"name"`
		}
		if err := json.Unmarshal(b, &obj); err != nil {
			return err
		}
		*t = TypeRef{ID: obj.ID, Name: obj.Name}
		return nil
	}
	id, err := unmarshalID(b)
	if err != nil {
		return fmt.Errorf("maintenance_type: %w", err)
	}
	*t = TypeRef{ID: id}
	return nil
}

func (t TypeRef) MarshalJSON() ([]byte, error) {
	if t.ID == 0 {
		return []byte("null"), nil
	}
	return json.Marshal(map[string]interface{}{"id": t.ID, "name": t.Name})
}

// MachineRef is a machine reference sent as a numeric id, as a serial number string or as
// {"id", "serial_number"}. A JSON string is always a serial number, even when it is all digits.
type MachineRef struct {
	ID     int64
	Serial string
}

func (m *MachineRef) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*m = MachineRef{}
		return nil
	}
	switch b[0] {
	case '{':
		var obj struct {
			ID           int64  `json:"id"`
			SerialNumber string `json:"serial_number"`
		}
		if err := json.Unmarshal(b, &obj); err != nil {
			return err
		}
		*m = MachineRef{ID: obj.ID, Serial: obj.SerialNumber}
	case '"':
		var serial string
		if err := json.Unmarshal(b, &serial); err != nil {
			return err
		}
		*m = MachineRef{Serial: serial}
	default:
		var id int64
		if err := json.Unmarshal(b, &id); err != nil {
			return fmt.Errorf("machine: %w", err)
		}
		*m = MachineRef{ID: id}
	}
	return nil
}

func (m MachineRef) MarshalJSON() ([]byte, error) {
	if m.ID == 0 {
		return []byte("null"), nil
	}
	return json.Marshal(m.ID)
}

func unmarshalID(b []byte) (int64, error) {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return 0, err
		}
		if s == "" {
			return 0, nil
		}
		return strconv.ParseInt(s, 10, 64)
	}
	var id int64
	err := json.Unmarshal(b, &id)
	return id, err
}

type MaintenanceRecord struct {
	ID              int64      `json:"id"`
	Machine         MachineRef `json:"machine"`
	MachineSerial   string     `json:"machine_serial"`
	MaintenanceType TypeRef    `json:"maintenance_type"`
	Date            string     `json:"date"`
	OperatingHours  *int64     `json:"operating_hours"`
	OrderNumber     string     `json:"order_number"`
	OrderDate       string     `json:"order_date"`
	ServiceCompany  string     `json:"service_company"`
}

func (r *MaintenanceRecord) UnmarshalJSON(b []byte) error {
	type plain MaintenanceRecord
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*r = MaintenanceRecord(p)
	r.Machine, r.MachineSerial = reconcileMachine(r.Machine, r.MachineSerial)
	return nil
}

type Claim struct {
	ID                 int64      `json:"id"`
	Machine            MachineRef `json:"machine"`
	MachineSerial      string     `json:"machine_serial"`
	FailureDate        string     `json:"failure_date"`
	OperatingHours     *int64     `json:"operating_hours"`
	FailureNode        string     `json:"failure_node"`
	FailureDescription string     `json:"failure_description"`
	RecoveryMethod     string     `json:"recovery_method"`
	UsedSpare          *string    `json:"used_spare"`
	RestoredDate       string     `json:"restored_date"`
	DowntimeHours      *int64     `json:"downtime_hours"`
}

func (c *Claim) UnmarshalJSON(b []byte) error {
	type plain Claim
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*c = Claim(p)
	c.Machine, c.MachineSerial = reconcileMachine(c.Machine, c.MachineSerial)
	return nil
}

// reconcileMachine fills whichever of the ref serial and the denormalized serial is missing.
func reconcileMachine(ref MachineRef, serial string) (MachineRef, string) {
	if serial == "" {
		serial = ref.Serial
	}
	if ref.Serial == "" {
		ref.Serial = serial
	}
	return ref, serial
}

type MaintenanceType struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Payload is a write body produced by a form. Keys are wire names.
type Payload map[string]interface{}

// withMachineID returns a copy in which a "machine" key is renamed to "machine_id". When both
// are present "machine_id" wins.
func (p Payload) withMachineID() Payload {
	out := make(Payload, len(p))
	for k, v := range p {
		out[k] = v
	}
	if v, ok := out["machine"]; ok {
		if _, has := out["machine_id"]; !has {
			out["machine_id"] = v
		}
		delete(out, "machine")
	}
	return out
}
