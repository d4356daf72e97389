package claim

import "github.com/frahmantamala/servicebook/internal/core/datamodel/equipment"

// Record is the read shape of a failure claim.
type Record struct {
	ID                 int64           `json:"id"`
	MachineID          int64           `json:"machine"`
	MachineSerial      string          `json:"machine_serial"`
	FailureDate        *equipment.Date `json:"failure_date"`
	OperatingHours     *int64          `json:"operating_hours"`
	FailureNode        string          `json:"failure_node"`
	FailureDescription string          `json:"failure_description"`
	RecoveryMethod     string          `json:"recovery_method"`
	UsedSpare          *string         `json:"used_spare"`
	RestoredDate       *equipment.Date `json:"restored_date"`
	DowntimeHours      *int64          `json:"downtime_hours"`
}

type Row struct {
	equipment.Claim
	MachineSerial string `gorm:"column:machine_serial"`
}

func FromRow(r *Row) Record {
	return Record{
		ID:                 r.ID,
		MachineID:          r.MachineID,
		MachineSerial:      r.MachineSerial,
		FailureDate:        r.FailureDate,
		OperatingHours:     r.OperatingHours,
		FailureNode:        r.FailureNode,
		FailureDescription: r.FailureDescription,
		RecoveryMethod:     r.RecoveryMethod,
		UsedSpare:          r.UsedSpare,
		RestoredDate:       r.RestoredDate,
		DowntimeHours:      r.DowntimeHours,
	}
}

// Facets come from the visible claims; service_company is the machine's.
type Facets struct {
	FailureNode    []string `json:"failure_node"`
	MachineSerial  []string `json:"machine_serial"`
	ServiceCompany []string `json:"service_company"`
}
