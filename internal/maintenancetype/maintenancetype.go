// Package maintenancetype is the catalogue of maintenance kinds (ТО-1, ТО-2, ...).
package maintenancetype

import (
	"strings"

	"github.com/frahmantamala/servicebook/internal/core/datamodel/equipment"
)

type Type struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func NewType(name string) *Type {
	return &Type{Name: strings.TrimSpace(name)}
}

func ToDataModel(t *Type) *equipment.MaintenanceType {
	return &equipment.MaintenanceType{ID: t.ID, Name: t.Name}
}

func FromDataModel(t *equipment.MaintenanceType) *Type {
	return &Type{ID: t.ID, Name: t.Name}
}
