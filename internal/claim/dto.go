package claim

import (
	"strings"

	errors "github.com/frahmantamala/servicebook/internal"
	"github.com/frahmantamala/servicebook/internal/core/common/nullable"
	"github.com/frahmantamala/servicebook/internal/core/common/validation"
	"github.com/frahmantamala/servicebook/internal/core/datamodel/equipment"
)

type WriteDTO struct {
	MachineID          nullable.Field[int64]          `json:"machine_id"`
	FailureDate        nullable.Field[equipment.Date] `json:"failure_date"`
	OperatingHours     nullable.Field[int64]          `json:"operating_hours"`
	FailureNode        nullable.Field[string]         `json:"failure_node"`
	FailureDescription nullable.Field[string]         `json:"failure_description"`
	RecoveryMethod     nullable.Field[string]         `json:"recovery_method"`
	UsedSpare          nullable.Field[string]         `json:"used_spare"`
	RestoredDate       nullable.Field[equipment.Date] `json:"restored_date"`
	DowntimeHours      nullable.Field[int64]          `json:"downtime_hours"`
}

func (d *WriteDTO) ApplyTo(c *equipment.Claim, full bool) {
	d.MachineID.Apply(&c.MachineID, full)
	d.FailureDate.ApplyPtr(&c.FailureDate, full)
	d.OperatingHours.ApplyPtr(&c.OperatingHours, full)
	d.FailureNode.Apply(&c.FailureNode, full)
	d.FailureDescription.Apply(&c.FailureDescription, full)
	d.RecoveryMethod.Apply(&c.RecoveryMethod, full)
	d.UsedSpare.ApplyPtr(&c.UsedSpare, full)
	d.RestoredDate.ApplyPtr(&c.RestoredDate, full)
	d.DowntimeHours.ApplyPtr(&c.DowntimeHours, full)

	if c.FailureDate != nil && c.FailureDate.IsZero() {
		c.FailureDate = nil
	}
	if c.RestoredDate != nil && c.RestoredDate.IsZero() {
		c.RestoredDate = nil
	}
	c.FailureNode = strings.TrimSpace(c.FailureNode)
}

func Validate(c *equipment.Claim) *errors.AppError {
	v := validation.NewValidator()
	v.Field("machine_id", c.MachineID).Required()
	v.Field("operating_hours", c.OperatingHours).NonNegative()
	v.Field("failure_node", c.FailureNode).MaxLength(255)
	v.Field("downtime_hours", c.DowntimeHours).NonNegative()
	v.Field("restored_date", c.RestoredDate).Custom(func(interface{}) *errors.AppError {
		if c.FailureDate != nil && c.RestoredDate != nil && c.RestoredDate.Before(c.FailureDate.Time) {
			return errors.NewValidationFieldError("restored_date", "restored_date: дата восстановления раньше даты отказа", errors.ErrCodeInvalidDate)
		}
		return nil
	})
	return v.Validate()
}
