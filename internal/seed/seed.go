// Package seed loads YAML fixtures: users with their groups, maintenance types and machines
// with their maintenance and claim histories.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/frahmantamala/servicebook/internal/core/datamodel/equipment"
	"github.com/frahmantamala/servicebook/internal/maintenancetype"
	"github.com/frahmantamala/servicebook/internal/user"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

type Fixture struct {
	Users            []user.RegisterDTO `yaml:"users"`
	MaintenanceTypes []string           `yaml:"maintenance_types"`
	Machines         []MachineFixture   `yaml:"machines"`
}

type MachineFixture struct {
	SerialNumber       string               `yaml:"serial_number"`
	ModelName          string               `yaml:"model_name"`
	EngineModel        string               `yaml:"engine_model"`
	EngineSerial       string               `yaml:"engine_serial"`
	TransmissionModel  string               `yaml:"transmission_model"`
	TransmissionSerial string               `yaml:"transmission_serial"`
	DriveAxleModel     string               `yaml:"drive_axle_model"`
	DriveAxleSerial    string               `yaml:"drive_axle_serial"`
	SteerAxleModel     string               `yaml:"steer_axle_model"`
	SteerAxleSerial    string               `yaml:"steer_axle_serial"`
	ShipmentDate       string               `yaml:"shipment_date"`
	Buyer              string               `yaml:"buyer"`
	Recipient          string               `yaml:"recipient"`
	DeliveryAddress    string               `yaml:"delivery_address"`
	Options            string               `yaml:"options"`
	ServiceCompany     string               `yaml:"service_company"`
	Client             string               `yaml:"client"`
	ServiceOrg         string               `yaml:"service_org"`
	Maintenance        []MaintenanceFixture `yaml:"maintenance"`
	Claims             []ClaimFixture       `yaml:"claims"`
}

type MaintenanceFixture struct {
	Type           string `yaml:"type"`
	Date           string `yaml:"date"`
	OperatingHours *int64 `yaml:"operating_hours"`
	OrderNumber    string `yaml:"order_number"`
	OrderDate      string `yaml:"order_date"`
	ServiceCompany string `yaml:"service_company"`
}

type ClaimFixture struct {
	FailureDate        string  `yaml:"failure_date"`
	OperatingHours     *int64  `yaml:"operating_hours"`
	FailureNode        string  `yaml:"failure_node"`
	FailureDescription string  `yaml:"failure_description"`
	RecoveryMethod     string  `yaml:"recovery_method"`
	UsedSpare          *string `yaml:"used_spare"`
	RestoredDate       string  `yaml:"restored_date"`
	DowntimeHours      *int64  `yaml:"downtime_hours"`
}

func LoadFile(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture file: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse fixture: %w", err)
	}
	return &f, nil
}

type Users interface {
	Register(ctx context.Context, dto user.RegisterDTO) (*user.Account, bool, error)
}

type Types interface {
	Ensure(ctx context.Context, name string) (*maintenancetype.Type, error)
}

type Machines interface {
	GetBySerial(ctx context.Context, serial string) (*equipment.Machine, error)
	Create(ctx context.Context, m *equipment.Machine) error
}

type MaintenanceWriter interface {
	Create(ctx context.Context, m *equipment.Maintenance) error
}

type ClaimWriter interface {
	Create(ctx context.Context, c *equipment.Claim) error
}

type Seeder struct {
	Users       Users
	Types       Types
	Machines    Machines
	Maintenance MaintenanceWriter
	Claims      ClaimWriter
	Logger      *slog.Logger
}

// Report counts what Run created; existing users and machines are skipped.
type Report struct {
	Users       int
	Types       int
	Machines    int
	Maintenance int
	Claims      int
}

// Run is idempotent on usernames and machine serial numbers. A machine that already exists
// keeps its histories untouched.
func (s *Seeder) Run(ctx context.Context, f *Fixture) (*Report, error) {
	report := &Report{}

	userIDs := make(map[string]int64, len(f.Users))
	for _, dto := range f.Users {
		a, created, err := s.Users.Register(ctx, dto)
		if err != nil {
			return report, fmt.Errorf("user %s: %w", dto.Username, err)
		}
		userIDs[a.Username] = a.ID
		if created {
			report.Users++
		}
	}

	typeIDs := make(map[string]int64, len(f.MaintenanceTypes))
	for _, name := range f.MaintenanceTypes {
		t, err := s.Types.Ensure(ctx, name)
		if err != nil {
			return report, fmt.Errorf("maintenance type %s: %w", name, err)
		}
		typeIDs[name] = t.ID
		report.Types++
	}

	for _, mf := range f.Machines {
		existing, err := s.Machines.GetBySerial(ctx, mf.SerialNumber)
		if err != nil {
			return report, err
		}
		if existing != nil {
			s.Logger.Debug("machine already seeded", "serial_number", mf.SerialNumber)
			continue
		}

		m, err := mf.toDataModel(userIDs)
		if err != nil {
			return report, fmt.Errorf("machine %s: %w", mf.SerialNumber, err)
		}
		if err := s.Machines.Create(ctx, m); err != nil {
			return report, fmt.Errorf("machine %s: %w", mf.SerialNumber, err)
		}
		report.Machines++

		for _, rf := range mf.Maintenance {
			rec, err := rf.toDataModel(m.ID, typeIDs)
			if err != nil {
				return report, fmt.Errorf("machine %s maintenance: %w", mf.SerialNumber, err)
			}
			if err := s.Maintenance.Create(ctx, rec); err != nil {
				return report, fmt.Errorf("machine %s maintenance: %w", mf.SerialNumber, err)
			}
			report.Maintenance++
		}

		for _, cf := range mf.Claims {
			c, err := cf.toDataModel(m.ID)
			if err != nil {
				return report, fmt.Errorf("machine %s claim: %w", mf.SerialNumber, err)
			}
			if err := s.Claims.Create(ctx, c); err != nil {
				return report, fmt.Errorf("machine %s claim: %w", mf.SerialNumber, err)
			}
			report.Claims++
		}
	}

	s.Logger.Info("seed finished",
		"users", report.Users,
		"maintenance_types", report.Types,
		"machines", report.Machines,
		"maintenance", report.Maintenance,
		"claims", report.Claims)
	return report, nil
}

// Clear empties every table the fixtures write to, children first.
func Clear(ctx context.Context, db *gorm.DB) error {
	tables := []string{"claims", "maintenance_records", "machines", "maintenance_types", "user_groups", `"groups"`, "users"}
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, table := range tables {
			if err := tx.Exec("DELETE FROM " + table).Error; err != nil {
				return fmt.Errorf("failed to clear %s: %w", table, err)
			}
		}
		return nil
	})
}

func (mf MachineFixture) toDataModel(userIDs map[string]int64) (*equipment.Machine, error) {
	shipment, err := optionalDate(mf.ShipmentDate)
	if err != nil {
		return nil, err
	}
	clientID, err := userRef(mf.Client, userIDs)
	if err != nil {
		return nil, err
	}
	serviceOrgID, err := userRef(mf.ServiceOrg, userIDs)
	if err != nil {
		return nil, err
	}
	return &equipment.Machine{
		SerialNumber:       mf.SerialNumber,
		ModelName:          mf.ModelName,
		EngineModel:        mf.EngineModel,
		EngineSerial:       mf.EngineSerial,
		TransmissionModel:  mf.TransmissionModel,
		TransmissionSerial: mf.TransmissionSerial,
		DriveAxleModel:     mf.DriveAxleModel,
		DriveAxleSerial:    mf.DriveAxleSerial,
		SteerAxleModel:     mf.SteerAxleModel,
		SteerAxleSerial:    mf.SteerAxleSerial,
		ShipmentDate:       shipment,
		Buyer:              mf.Buyer,
		Recipient:          mf.Recipient,
		DeliveryAddress:    mf.DeliveryAddress,
		Options:            mf.Options,
		ServiceCompany:     mf.ServiceCompany,
		ClientID:           clientID,
		ServiceOrgID:       serviceOrgID,
	}, nil
}

func (rf MaintenanceFixture) toDataModel(machineID int64, typeIDs map[string]int64) (*equipment.Maintenance, error) {
	typeID, ok := typeIDs[rf.Type]
	if !ok {
		return nil, fmt.Errorf("unknown maintenance type %q", rf.Type)
	}
	date, err := optionalDate(rf.Date)
	if err != nil {
		return nil, err
	}
	orderDate, err := optionalDate(rf.OrderDate)
	if err != nil {
		return nil, err
	}
	return &equipment.Maintenance{
		MachineID:         machineID,
		MaintenanceTypeID: typeID,
		Date:              date,
		OperatingHours:    rf.OperatingHours,
		OrderNumber:       rf.OrderNumber,
		OrderDate:         orderDate,
		ServiceCompany:    rf.ServiceCompany,
	}, nil
}

func (cf ClaimFixture) toDataModel(machineID int64) (*equipment.Claim, error) {
	failure, err := optionalDate(cf.FailureDate)
	if err != nil {
		return nil, err
	}
	restored, err := optionalDate(cf.RestoredDate)
	if err != nil {
		return nil, err
	}
	return &equipment.Claim{
		MachineID:          machineID,
		FailureDate:        failure,
		OperatingHours:     cf.OperatingHours,
		FailureNode:        cf.FailureNode,
		FailureDescription: cf.FailureDescription,
		RecoveryMethod:     cf.RecoveryMethod,
		UsedSpare:          cf.UsedSpare,
		RestoredDate:       restored,
		DowntimeHours:      cf.DowntimeHours,
	}, nil
}

func optionalDate(s string) (*equipment.Date, error) {
	if s == "" {
		return nil, nil
	}
	d, err := equipment.ParseDate(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func userRef(username string, userIDs map[string]int64) (*int64, error) {
	if username == "" {
		return nil, nil
	}
	id, ok := userIDs[username]
	if !ok {
		return nil, fmt.Errorf("unknown user %q", username)
	}
	return &id, nil
}
