package form

import (
	"net/url"

	"github.com/frahmantamala/servicebook/internal/client"
	"github.com/frahmantamala/servicebook/internal/core/common/validation"
)

type Claim struct {
	MachineID          string
	FailureDate        string
	OperatingHours     string
	FailureNode        string
	FailureDescription string
	RecoveryMethod     string
	UsedSpare          string
	RestoredDate       string
	DowntimeHours      string
}

// NewClaim reconciles the machine the same way NewMaintenance does.
func NewClaim(initial *client.Claim, machines []MachineOption) Claim {
	if initial == nil {
		return Claim{}
	}
	c := Claim{
		MachineID:          resolveMachine(initial.Machine, initial.MachineSerial, machines),
		FailureDate:        initial.FailureDate,
		OperatingHours:     formatOptionalInt(initial.OperatingHours),
		FailureNode:        initial.FailureNode,
		FailureDescription: initial.FailureDescription,
		RecoveryMethod:     initial.RecoveryMethod,
		RestoredDate:       initial.RestoredDate,
		DowntimeHours:      formatOptionalInt(initial.DowntimeHours),
	}
	if initial.UsedSpare != nil {
		c.UsedSpare = *initial.UsedSpare
	}
	return c
}

func ClaimFromValues(v url.Values) Claim {
	machineID := value(v, "machine_id")
	if machineID == "" {
		machineID = value(v, "machine")
	}
	return Claim{
		MachineID:          machineID,
		FailureDate:        value(v, "failure_date"),
		OperatingHours:     value(v, "operating_hours"),
		FailureNode:        value(v, "failure_node"),
		FailureDescription: value(v, "failure_description"),
		RecoveryMethod:     value(v, "recovery_method"),
		UsedSpare:          value(v, "used_spare"),
		RestoredDate:       value(v, "restored_date"),
		DowntimeHours:      value(v, "downtime_hours"),
	}
}

func (c Claim) Validate() error {
	v := validation.NewValidator()
	v.Field("machine", c.MachineID).Custom(missing("machine", MessageSelectMachine))
	v.Field("failure_date", c.FailureDate).Custom(missing("failure_date", "Заполните поле «Дата отказа»"))
	v.Field("failure_node", c.FailureNode).Custom(missing("failure_node", "Заполните поле «Узел отказа»"))
	v.Field("operating_hours", c.OperatingHours).Custom(count("operating_hours", "Наработка, м/ч"))
	v.Field("downtime_hours", c.DowntimeHours).Custom(count("downtime_hours", "Время простоя, ч"))
	return alert(v.Validate())
}

func (c Claim) Payload() client.Payload {
	return client.Payload{
		"machine_id":          requiredID(c.MachineID),
		"failure_date":        optionalString(c.FailureDate),
		"operating_hours":     optionalInt(c.OperatingHours),
		"failure_node":        c.FailureNode,
		"failure_description": c.FailureDescription,
		"recovery_method":     c.RecoveryMethod,
		"used_spare":          optionalString(c.UsedSpare),
		"restored_date":       optionalString(c.RestoredDate),
		"downtime_hours":      optionalInt(c.DowntimeHours),
	}
}
