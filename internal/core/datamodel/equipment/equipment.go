package equipment

import "time"

type Machine struct {
	ID                 int64     `gorm:"primaryKey"`
	SerialNumber       string    `gorm:"column:serial_number;size:32;uniqueIndex;not null"`
	ModelName          string    `gorm:"column:model_name;size:100;not null"`
	EngineModel        string    `gorm:"column:engine_model;size:100"`
	EngineSerial       string    `gorm:"column:engine_serial;size:100"`
	TransmissionModel  string    `gorm:"column:transmission_model;size:150"`
	TransmissionSerial string    `gorm:"column:transmission_serial;size:100"`
	DriveAxleModel     string    `gorm:"column:drive_axle_model;size:100"`
	DriveAxleSerial    string    `gorm:"column:drive_axle_serial;size:100"`
	SteerAxleModel     string    `gorm:"column:steer_axle_model;size:100"`
	SteerAxleSerial    string    `gorm:"column:steer_axle_serial;size:100"`
	ShipmentDate       *Date     `gorm:"column:shipment_date"`
	Buyer              string    `gorm:"column:buyer;size:255"`
	Recipient          string    `gorm:"column:recipient;size:255"`
	DeliveryAddress    string    `gorm:"column:delivery_address;size:255"`
	Options            string    `gorm:"column:options"`
	ServiceCompany     string    `gorm:"column:service_company;size:255"`
	ClientID           *int64    `gorm:"column:client_id;index"`
	ServiceOrgID       *int64    `gorm:"column:service_org_id;index"`
	CreatedAt          time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Machine) TableName() string { return "machines" }

type MaintenanceType struct {
	ID   int64  `gorm:"primaryKey"`
	Name string `gorm:"column:name;size:100;uniqueIndex;not null"`
}

func (MaintenanceType) TableName() string { return "maintenance_types" }

type Maintenance struct {
	ID                int64     `gorm:"primaryKey"`
	MachineID         int64     `gorm:"column:machine_id;index;not null"`
	MaintenanceTypeID int64     `gorm:"column:maintenance_type_id;index;not null"`
	Date              *Date     `gorm:"column:date"`
	OperatingHours    *int64    `gorm:"column:operating_hours"`
	OrderNumber       string    `gorm:"column:order_number;size:100"`
	OrderDate         *Date     `gorm:"column:order_date"`
	ServiceCompany    string    `gorm:"column:service_company;size:255"`
	CreatedAt         time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Maintenance) TableName() string { return "maintenance_records" }

type Claim struct {
	ID                 int64     `gorm:"primaryKey"`
	MachineID          int64     `gorm:"column:machine_id;index;not null"`
	FailureDate        *Date     `gorm:"column:failure_date"`
	OperatingHours     *int64    `gorm:"column:operating_hours"`
	FailureNode        string    `gorm:"column:failure_node;size:255"`
	FailureDescription string    `gorm:"column:failure_description"`
	RecoveryMethod     string    `gorm:"column:recovery_method"`
	UsedSpare          *string   `gorm:"column:used_spare"`
	RestoredDate       *Date     `gorm:"column:restored_date"`
	DowntimeHours      *int64    `gorm:"column:downtime_hours"`
	CreatedAt          time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Claim) TableName() string { return "claims" }

// Models lists every table in dependency order, for AutoMigrate in tests.
func Models() []interface{} {
	return []interface{}{&Machine{}, &MaintenanceType{}, &Maintenance{}, &Claim{}}
}
