package web

import (
	"net/url"

	"github.com/frahmantamala/servicebook/internal/access"
	"github.com/frahmantamala/servicebook/internal/client"
	"github.com/frahmantamala/servicebook/internal/filter"
)

// fieldSpec is a filter field whose select options come from a facet.
type fieldSpec struct {
	filter.Field
	Facet string
}

// Tab is one dashboard collection.
type Tab struct {
	Collection access.Collection
	Title      string
	// Ordering is always sent; filters are added to it.
	Ordering string
	fields   []fieldSpec
}

var tabs = []Tab{
	{
		Collection: access.Machines,
		Title:      "Общая информация",
		Ordering:   "-shipment_date",
		fields: []fieldSpec{
			{Field: filter.Field{Name: "model_name", Label: "Модель техники", Kind: filter.Select}, Facet: "model_name"},
			{Field: filter.Field{Name: "engine_model", Label: "Модель двигателя", Kind: filter.Select}, Facet: "engine_model"},
			{Field: filter.Field{Name: "transmission_model", Label: "Модель трансмиссии", Kind: filter.Select}, Facet: "transmission_model"},
			{Field: filter.Field{Name: "steer_axle_model", Label: "Модель управляемого моста", Kind: filter.Select}, Facet: "steer_axle_model"},
			{Field: filter.Field{Name: "drive_axle_model", Label: "Модель ведущего моста", Kind: filter.Select}, Facet: "drive_axle_model"},
		},
	},
	{
		Collection: access.Maintenance,
		Title:      "ТО",
		Ordering:   "machine__serial_number,-date",
		fields: []fieldSpec{
			{Field: filter.Field{Name: "maintenance_type", Label: "Вид ТО", Kind: filter.Select}, Facet: "maintenance_type"},
			{Field: filter.Field{Name: "machine__serial_number", Label: "Зав. № машины", Kind: filter.Select}, Facet: "machine_serial"},
			{Field: filter.Field{Name: "service_company", Label: "Сервисная компания", Kind: filter.Select}, Facet: "service_company"},
		},
	},
	{
		Collection: access.Claims,
		Title:      "Рекламации",
		Ordering:   "machine__serial_number,-failure_date",
		fields: []fieldSpec{
			{Field: filter.Field{Name: "failure_node", Label: "Узел отказа", Kind: filter.Select}, Facet: "failure_node"},
			{Field: filter.Field{Name: "recovery_method", Label: "Способ восстановления", Kind: filter.Text, Placeholder: "содержит…"}},
			{Field: filter.Field{Name: "machine__serial_number", Label: "Зав. № машины", Kind: filter.Select}, Facet: "machine_serial"},
			{Field: filter.Field{Name: "machine__service_company", Label: "Сервисная компания", Kind: filter.Select}, Facet: "service_company"},
		},
	},
}

func tabFor(name string) Tab {
	for _, t := range tabs {
		if string(t.Collection) == name {
			return t
		}
	}
	return tabs[0]
}

// names is the field set without options. It decides what is forwarded to the API and what
// is dropped on a tab switch, whether or not facets loaded.
func (t Tab) names() *filter.Controller {
	fields := make([]filter.Field, len(t.fields))
	for i, f := range t.fields {
		fields[i] = f.Field
	}
	return filter.New(fields...)
}

// controller fills select options from facets. Without facets no filters are offered.
func (t Tab) controller(facets client.Facets) *filter.Controller {
	if facets == nil {
		return filter.New()
	}
	fields := make([]filter.Field, len(t.fields))
	for i, f := range t.fields {
		field := f.Field
		if f.Facet != "" {
			for _, o := range facets[f.Facet] {
				field.Options = append(field.Options, filter.Option{Value: o.Value, Label: o.Label})
			}
		}
		fields[i] = field
	}
	return filter.New(fields...)
}

// listQuery is the ordering plus the active filters of q.
func (t Tab) listQuery(q url.Values) url.Values {
	out := t.names().Active(q)
	out.Set("ordering", t.Ordering)
	return out
}

// switchTo is the query for the tab link to next: this tab's filters and any open modal are
// dropped.
func (t Tab) switchTo(q url.Values, next Tab) url.Values {
	out := t.names().SwitchTo(q, next.names())
	for _, k := range []string{"edit", "new"} {
		out.Del(k)
	}
	out.Set("tab", string(next.Collection))
	return out
}
