// Package form holds the edit state of the machine, maintenance and claim forms.
//
// A form is derived in full from an initial record (editing) or from nothing (creating), read
// back from a posted url.Values, checked for empty required fields, and turned into a typed
// payload for the API. Everything deeper than "required" is left to the API, whose messages
// are shown as they come.
package form

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/frahmantamala/servicebook/internal"
	"github.com/frahmantamala/servicebook/internal/client"
)

// Error is the blocking alert for the first field that stops submission.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// MachineOption is an entry of the machine select of the maintenance and claim forms.
type MachineOption struct {
	ID           int64
	SerialNumber string
	ModelName    string
}

func MachineOptions(machines []client.Machine) []MachineOption {
	options := make([]MachineOption, 0, len(machines))
	for _, m := range machines {
		options = append(options, MachineOption{ID: m.ID, SerialNumber: m.SerialNumber, ModelName: m.ModelName})
	}
	return options
}

type TypeOption struct {
	ID   int64
	Name string
}

// resolveMachine finds the canonical machine id for a list row: by serial against the loaded
// options first, then a numeric id the row already carried. It returns "" when neither works.
func resolveMachine(ref client.MachineRef, serial string, options []MachineOption) string {
	if serial == "" {
		serial = ref.Serial
	}
	if serial != "" {
		for _, o := range options {
			if o.SerialNumber == serial {
				return formatID(o.ID)
			}
		}
	}
	if ref.ID > 0 {
		return formatID(ref.ID)
	}
	return ""
}

func formatID(id int64) string {
	if id == 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}

func formatOptionalInt(n *int64) string {
	if n == nil {
		return ""
	}
	return strconv.FormatInt(*n, 10)
}

func value(v url.Values, key string) string {
	return strings.TrimSpace(v.Get(key))
}

// missing builds a required rule with the alert shown to the user.
func missing(field, message string) func(interface{}) *internal.AppError {
	return func(v interface{}) *internal.AppError {
		if s, _ := v.(string); strings.TrimSpace(s) == "" {
			return internal.NewValidationFieldError(field, message, internal.ErrCodeRequired)
		}
		return nil
	}
}

// count accepts "" or a non-negative integer.
func count(field, label string) func(interface{}) *internal.AppError {
	return func(v interface{}) *internal.AppError {
		s, _ := v.(string)
		if s == "" {
			return nil
		}
		if n, err := strconv.ParseInt(s, 10, 64); err != nil || n < 0 {
			return internal.NewValidationFieldError(field, label+": введите целое неотрицательное число", internal.ErrCodeValidationFailed)
		}
		return nil
	}
}

// alert reduces a validation result to its first field error.
func alert(appErr *internal.AppError) error {
	if appErr == nil {
		return nil
	}
	if details, ok := appErr.Details.(internal.ValidationErrors); ok && len(details.Errors) > 0 {
		first := details.Errors[0]
		return &Error{Field: first.Field, Message: first.Message}
	}
	return &Error{Message: appErr.Message}
}

func requiredID(s string) int64 {
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}

// optionalInt is nil for "" so the API stores NULL.
func optionalInt(s string) interface{} {
	if s == "" {
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil
	}
	return n
}

func optionalString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
