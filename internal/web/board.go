package web

import (
	"context"
	"net/url"
	"strconv"

	"github.com/frahmantamala/servicebook/internal/access"
	"github.com/frahmantamala/servicebook/internal/client"
	"github.com/frahmantamala/servicebook/internal/filter"
	"github.com/frahmantamala/servicebook/internal/form"
	"github.com/frahmantamala/servicebook/internal/web/view"
)

// board is the list of the active tab. Exactly one of the lists is set.
type board struct {
	tab         Tab
	machines    *view.List[client.Machine]
	maintenance *view.List[client.MaintenanceRecord]
	claims      *view.List[client.Claim]
}

func newBoard(api *client.Client, tab Tab, q url.Values) *board {
	lq := tab.listQuery(q)
	b := &board{tab: tab}
	switch tab.Collection {
	case access.Maintenance:
		b.maintenance = view.NewList(func(ctx context.Context) ([]client.MaintenanceRecord, error) {
			return api.ListMaintenance(ctx, lq)
		})
	case access.Claims:
		b.claims = view.NewList(func(ctx context.Context) ([]client.Claim, error) {
			return api.ListClaims(ctx, lq)
		})
	default:
		b.machines = view.NewList(func(ctx context.Context) ([]client.Machine, error) {
			return api.ListMachines(ctx, lq)
		})
	}
	return b
}

func (b *board) Load(ctx context.Context) error {
	switch {
	case b.maintenance != nil:
		return b.maintenance.Load(ctx)
	case b.claims != nil:
		return b.claims.Load(ctx)
	default:
		return b.machines.Load(ctx)
	}
}

func (b *board) Mutate(ctx context.Context, op func(ctx context.Context) error) error {
	switch {
	case b.maintenance != nil:
		return b.maintenance.Mutate(ctx, op)
	case b.claims != nil:
		return b.claims.Mutate(ctx, op)
	default:
		return b.machines.Mutate(ctx, op)
	}
}

type cell struct {
	Text string
	Href string
}

type row struct {
	ID        int64
	Cells     []cell
	EditURL   string
	DeleteURL string
}

type tableView struct {
	Collection string
	State      view.State
	Error      string
	Columns    []string
	Rows       []row
	Perms      access.Permissions
}

var columns = map[access.Collection][]string{
	access.Machines: {
		"Зав. № машины", "Модель техники", "Модель двигателя", "Зав. № двигателя",
		"Модель трансмиссии", "Зав. № трансмиссии", "Модель ведущего моста", "Зав. № ведущего моста",
		"Модель управляемого моста", "Зав. № управляемого моста", "Дата отгрузки", "Покупатель",
		"Грузополучатель", "Адрес поставки", "Комплектация", "Сервисная компания", "ТО", "Рекламации",
	},
	access.Maintenance: {
		"Машина", "Вид ТО", "Дата ТО", "Наработка, м/час", "№ заказ-наряда", "Дата заказ-наряда",
		"Сервисная компания",
	},
	access.Claims: {
		"Машина", "Дата отказа", "Наработка, м/час", "Узел отказа", "Описание отказа",
		"Способ восстановления", "Используемые запасные части", "Дата восстановления", "Время простоя",
	},
}

// table builds the table for q. typeNames resolves maintenance types sent as bare ids.
func (b *board) table(perms access.Permissions, q url.Values, typeNames map[int64]string) tableView {
	t := tableView{
		Collection: string(b.tab.Collection),
		Columns:    columns[b.tab.Collection],
		Perms:      perms,
	}

	switch {
	case b.maintenance != nil:
		s := b.maintenance.Snapshot()
		t.State, t.Error = s.State, errText(s.Err)
		for _, m := range s.Rows {
			typeName := m.MaintenanceType.Name
			if typeName == "" {
				typeName = typeNames[m.MaintenanceType.ID]
			}
			if typeName == "" && m.MaintenanceType.ID > 0 {
				typeName = strconv.FormatInt(m.MaintenanceType.ID, 10)
			}
			t.Rows = append(t.Rows, b.row(m.ID, q, perms,
				machineCell(m.Machine.ID, m.MachineSerial),
				cell{Text: typeName},
				cell{Text: m.Date},
				cell{Text: hoursText(m.OperatingHours)},
				cell{Text: m.OrderNumber},
				cell{Text: m.OrderDate},
				cell{Text: m.ServiceCompany},
			))
		}
	case b.claims != nil:
		s := b.claims.Snapshot()
		t.State, t.Error = s.State, errText(s.Err)
		for _, c := range s.Rows {
			spare := ""
			if c.UsedSpare != nil {
				spare = *c.UsedSpare
			}
			t.Rows = append(t.Rows, b.row(c.ID, q, perms,
				machineCell(c.Machine.ID, c.MachineSerial),
				cell{Text: c.FailureDate},
				cell{Text: hoursText(c.OperatingHours)},
				cell{Text: c.FailureNode},
				cell{Text: c.FailureDescription},
				cell{Text: c.RecoveryMethod},
				cell{Text: spare},
				cell{Text: c.RestoredDate},
				cell{Text: hoursText(c.DowntimeHours)},
			))
		}
	default:
		s := b.machines.Snapshot()
		t.State, t.Error = s.State, errText(s.Err)
		for _, m := range s.Rows {
			t.Rows = append(t.Rows, b.row(m.ID, q, perms,
				machineCell(m.ID, m.SerialNumber),
				cell{Text: m.ModelName},
				cell{Text: m.EngineModel},
				cell{Text: m.EngineSerial},
				cell{Text: m.TransmissionModel},
				cell{Text: m.TransmissionSerial},
				cell{Text: m.DriveAxleModel},
				cell{Text: m.DriveAxleSerial},
				cell{Text: m.SteerAxleModel},
				cell{Text: m.SteerAxleSerial},
				cell{Text: m.ShipmentDate},
				cell{Text: m.Buyer},
				cell{Text: m.Recipient},
				cell{Text: m.DeliveryAddress},
				cell{Text: m.Options},
				cell{Text: m.ServiceCompany},
				cell{Text: strconv.FormatInt(m.MaintenanceCount, 10)},
				cell{Text: strconv.FormatInt(m.ClaimsCount, 10)},
			))
		}
	}
	return t
}

func (b *board) row(id int64, q url.Values, perms access.Permissions, cells ...cell) row {
	r := row{ID: id, Cells: cells}
	if perms.CanEdit {
		eq := modalQuery(q)
		eq.Set("edit", strconv.FormatInt(id, 10))
		r.EditURL = "/?" + eq.Encode()
	}
	if perms.CanDelete {
		r.DeleteURL = "/ui/" + string(b.tab.Collection) + "/" + strconv.FormatInt(id, 10) + "/delete"
	}
	return r
}

func machineCell(id int64, serial string) cell {
	c := cell{Text: serial}
	if id > 0 {
		c.Href = "/machines/" + strconv.FormatInt(id, 10)
	}
	return c
}

func hoursText(n *int64) string {
	if n == nil {
		return ""
	}
	return strconv.FormatInt(*n, 10)
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// modalQuery is q without any open modal.
func modalQuery(q url.Values) url.Values {
	out := url.Values{}
	for k, v := range q {
		if k == "edit" || k == "new" {
			continue
		}
		out[k] = append([]string(nil), v...)
	}
	return out
}

type input struct {
	Name     string
	Label    string
	Type     string
	Value    string
	Pattern  string
	Required bool
	Options  []filter.Option
}

type modalView struct {
	Title    string
	Action   string
	CloseURL string
	Fields   []input
}

// choices are the select options of the maintenance and claim forms.
type choices struct {
	machines []form.MachineOption
	types    []form.TypeOption
}

func (c choices) machineOptions() []filter.Option {
	out := make([]filter.Option, 0, len(c.machines))
	for _, m := range c.machines {
		out = append(out, filter.Option{Value: strconv.FormatInt(m.ID, 10), Label: m.SerialNumber + " · " + m.ModelName})
	}
	return out
}

func (c choices) typeOptions() []filter.Option {
	out := make([]filter.Option, 0, len(c.types))
	for _, t := range c.types {
		out = append(out, filter.Option{Value: strconv.FormatInt(t.ID, 10), Label: t.Name})
	}
	return out
}

// modal opens from ?new=1 or ?edit={id}. An edit target that is not among the loaded rows
// opens nothing.
func (b *board) modal(perms access.Permissions, q url.Values, ch choices) *modalView {
	collection := string(b.tab.Collection)
	m := &modalView{CloseURL: "/?" + modalQuery(q).Encode()}

	var id int64
	switch {
	case q.Get("new") != "" && perms.CanCreate:
		m.Title = "Добавить"
		m.Action = "/ui/" + collection
	case q.Get("edit") != "" && perms.CanEdit:
		n, err := strconv.ParseInt(q.Get("edit"), 10, 64)
		if err != nil || n <= 0 {
			return nil
		}
		id = n
		m.Title = "Редактировать"
		m.Action = "/ui/" + collection + "/" + strconv.FormatInt(id, 10)
	default:
		return nil
	}

	switch {
	case b.maintenance != nil:
		var initial *client.MaintenanceRecord
		if id > 0 {
			for _, r := range b.maintenance.Snapshot().Rows {
				if r.ID == id {
					initial = &r
					break
				}
			}
			if initial == nil {
				return nil
			}
		}
		m.Fields = maintenanceInputs(form.NewMaintenance(initial, ch.machines), ch)
	case b.claims != nil:
		var initial *client.Claim
		if id > 0 {
			for _, r := range b.claims.Snapshot().Rows {
				if r.ID == id {
					initial = &r
					break
				}
			}
			if initial == nil {
				return nil
			}
		}
		m.Fields = claimInputs(form.NewClaim(initial, ch.machines), ch)
	default:
		var initial *client.Machine
		if id > 0 {
			for _, r := range b.machines.Snapshot().Rows {
				if r.ID == id {
					initial = &r
					break
				}
			}
			if initial == nil {
				return nil
			}
		}
		m.Fields = machineInputs(form.NewMachine(initial))
	}
	return m
}

func machineInputs(f form.Machine) []input {
	return []input{
		{Name: "model_name", Label: "Модель техники", Type: "text", Value: f.ModelName, Required: true},
		{Name: "serial_number", Label: "Зав. № машины", Type: "text", Value: f.SerialNumber, Required: true, Pattern: form.SerialPattern},
		{Name: "engine_model", Label: "Модель двигателя", Type: "text", Value: f.EngineModel},
		{Name: "engine_serial", Label: "Зав. № двигателя", Type: "text", Value: f.EngineSerial},
		{Name: "transmission_model", Label: "Модель трансмиссии", Type: "text", Value: f.TransmissionModel},
		{Name: "transmission_serial", Label: "Зав. № трансмиссии", Type: "text", Value: f.TransmissionSerial},
		{Name: "drive_axle_model", Label: "Модель ведущего моста", Type: "text", Value: f.DriveAxleModel},
		{Name: "drive_axle_serial", Label: "Зав. № ведущего моста", Type: "text", Value: f.DriveAxleSerial},
		{Name: "steer_axle_model", Label: "Модель управляемого моста", Type: "text", Value: f.SteerAxleModel},
		{Name: "steer_axle_serial", Label: "Зав. № управляемого моста", Type: "text", Value: f.SteerAxleSerial},
		{Name: "shipment_date", Label: "Дата отгрузки", Type: "date", Value: f.ShipmentDate},
		{Name: "buyer", Label: "Покупатель", Type: "text", Value: f.Buyer},
		{Name: "recipient", Label: "Грузополучатель", Type: "text", Value: f.Recipient},
		{Name: "delivery_address", Label: "Адрес поставки", Type: "text", Value: f.DeliveryAddress},
		{Name: "options", Label: "Комплектация", Type: "textarea", Value: f.Options},
		{Name: "service_company", Label: "Сервисная компания", Type: "text", Value: f.ServiceCompany},
	}
}

func maintenanceInputs(f form.Maintenance, ch choices) []input {
	return []input{
		{Name: "machine_id", Label: "Машина", Type: "select", Value: f.MachineID, Required: true, Options: ch.machineOptions()},
		{Name: "maintenance_type", Label: "Вид ТО", Type: "select", Value: f.MaintenanceType, Required: true, Options: ch.typeOptions()},
		{Name: "date", Label: "Дата ТО", Type: "date", Value: f.Date},
		{Name: "operating_hours", Label: "Наработка, м/час", Type: "number", Value: f.OperatingHours},
		{Name: "order_number", Label: "№ заказ-наряда", Type: "text", Value: f.OrderNumber},
		{Name: "order_date", Label: "Дата заказ-наряда", Type: "date", Value: f.OrderDate},
		{Name: "service_company", Label: "Сервисная компания", Type: "text", Value: f.ServiceCompany},
	}
}

func claimInputs(f form.Claim, ch choices) []input {
	return []input{
		{Name: "machine_id", Label: "Машина", Type: "select", Value: f.MachineID, Required: true, Options: ch.machineOptions()},
		{Name: "failure_date", Label: "Дата отказа", Type: "date", Value: f.FailureDate, Required: true},
		{Name: "operating_hours", Label: "Наработка, м/час", Type: "number", Value: f.OperatingHours},
		{Name: "failure_node", Label: "Узел отказа", Type: "text", Value: f.FailureNode, Required: true},
		{Name: "failure_description", Label: "Описание отказа", Type: "textarea", Value: f.FailureDescription},
		{Name: "recovery_method", Label: "Способ восстановления", Type: "text", Value: f.RecoveryMethod},
		{Name: "used_spare", Label: "Используемые запасные части", Type: "text", Value: f.UsedSpare},
		{Name: "restored_date", Label: "Дата восстановления", Type: "date", Value: f.RestoredDate},
		{Name: "downtime_hours", Label: "Время простоя", Type: "number", Value: f.DowntimeHours},
	}
}
