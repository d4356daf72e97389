package form_test

import (
	"net/url"
	"testing"

	"github.com/frahmantamala/servicebook/internal/client"
	"github.com/frahmantamala/servicebook/internal/form"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestForm(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Form Suite")
}

func int64p(n int64) *int64 { return &n }

var machines = []form.MachineOption{
	{ID: 7, SerialNumber: "12345", ModelName: "ПД1,5"},
	{ID: 8, SerialNumber: "00042", ModelName: "ПД3,0"},
	{ID: 9, SerialNumber: "42", ModelName: "ПД3,0"},
}

var _ = Describe("Machine form", func() {
	It("should start empty without an initial record", func() {
		Expect(form.NewMachine(nil)).To(Equal(form.Machine{}))
	})

	It("should re-derive every field from a new initial record", func() {
		first := form.NewMachine(&client.Machine{SerialNumber: "0017", ModelName: "ПД1,5", Buyer: "ООО Ромашка"})
		second := form.NewMachine(&client.Machine{SerialNumber: "00042", ModelName: "ПД3,0"})
		Expect(first.Buyer).To(Equal("ООО Ромашка"))
		Expect(second.Buyer).To(BeEmpty())
		Expect(second.SerialNumber).To(Equal("00042"))
	})

	It("should require the model and a digits-only serial", func() {
		err := form.Machine{SerialNumber: "00042"}.Validate()
		Expect(err).To(MatchError("Заполните поле «Модель техники»"))

		err = form.Machine{ModelName: "ПД1,5"}.Validate()
		Expect(err).To(MatchError("Заполните поле «Зав. № машины»"))

		err = form.Machine{ModelName: "ПД1,5", SerialNumber: "A-42"}.Validate()
		var ferr *form.Error
		Expect(err).To(BeAssignableToTypeOf(ferr))
		Expect(err.(*form.Error).Field).To(Equal("serial_number"))

		Expect(form.Machine{ModelName: "ПД1,5", SerialNumber: "00042"}.Validate()).To(Succeed())
	})

	It("should keep leading zeros and null the empty date", func() {
		m := form.MachineFromValues(url.Values{"serial_number": {" 00042 "}, "model_name": {"ПД1,5"}, "shipment_date": {""}})
		p := m.Payload()
		Expect(p["serial_number"]).To(Equal("00042"))
		Expect(p).To(HaveKeyWithValue("shipment_date", BeNil()))
		Expect(p["buyer"]).To(Equal(""))
	})
})

var _ = Describe("Maintenance form", func() {
	It("should resolve the serial and unwrap the type object", func() {
		initial := &client.MaintenanceRecord{
			MachineSerial:   "12345",
			MaintenanceType: client.TypeRef{ID: 3, Name: "ТО-1"},
		}
		m := form.NewMaintenance(initial, machines)
		Expect(m.MachineID).To(Equal("7"))
		Expect(m.MaintenanceType).To(Equal("3"))
	})

	It("should match serials exactly, never numerically", func() {
		m := form.NewMaintenance(&client.MaintenanceRecord{MachineSerial: "00042", MaintenanceType: client.TypeRef{ID: 1}}, machines)
		Expect(m.MachineID).To(Equal("8"))

		m = form.NewMaintenance(&client.MaintenanceRecord{MachineSerial: "42", MaintenanceType: client.TypeRef{ID: 1}}, machines)
		Expect(m.MachineID).To(Equal("9"))
	})

	It("should accept a bare type id", func() {
		m := form.NewMaintenance(&client.MaintenanceRecord{MachineSerial: "12345", MaintenanceType: client.TypeRef{ID: 4}}, machines)
		Expect(m.MaintenanceType).To(Equal("4"))
	})

	It("should fall back to a numeric machine id already on the row", func() {
		m := form.NewMaintenance(&client.MaintenanceRecord{Machine: client.MachineRef{ID: 11}, MachineSerial: "99999"}, machines)
		Expect(m.MachineID).To(Equal("11"))
	})

	It("should leave an unresolved machine unset and required", func() {
		m := form.NewMaintenance(&client.MaintenanceRecord{
			MachineSerial:   "55555",
			MaintenanceType: client.TypeRef{ID: 3},
		}, machines)
		Expect(m.MachineID).To(BeEmpty())
		Expect(m.Validate()).To(MatchError(form.MessageSelectMachine))
	})

	It("should require the maintenance type", func() {
		m := form.Maintenance{MachineID: "7"}
		Expect(m.Validate()).To(MatchError(form.MessageSelectType))
	})

	It("should reject non-numeric hours", func() {
		m := form.Maintenance{MachineID: "7", MaintenanceType: "3", OperatingHours: "много"}
		err := m.Validate()
		Expect(err).To(HaveOccurred())
		Expect(err.(*form.Error).Field).To(Equal("operating_hours"))
	})

	It("should emit a typed payload", func() {
		m := form.MaintenanceFromValues(url.Values{
			"machine":          {"7"},
			"maintenance_type": {"3"},
			"date":             {"2024-01-15"},
			"operating_hours":  {"250"},
			"order_date":       {""},
		})
		Expect(m.Validate()).To(Succeed())
		Expect(m.Payload()).To(Equal(client.Payload{
			"machine_id":       int64(7),
			"maintenance_type": int64(3),
			"date":             "2024-01-15",
			"operating_hours":  int64(250),
			"order_number":     "",
			"order_date":       nil,
			"service_company":  "",
		}))
	})

	It("should not keep state from a previous edit target", func() {
		first := form.NewMaintenance(&client.MaintenanceRecord{MachineSerial: "12345", MaintenanceType: client.TypeRef{ID: 3}, OrderNumber: "A-1", OperatingHours: int64p(10)}, machines)
		second := form.NewMaintenance(&client.MaintenanceRecord{MachineSerial: "00042", MaintenanceType: client.TypeRef{ID: 4}}, machines)
		Expect(first.OrderNumber).To(Equal("A-1"))
		Expect(second.OrderNumber).To(BeEmpty())
		Expect(second.OperatingHours).To(BeEmpty())
	})
})

var _ = Describe("Claim form", func() {
	It("should reconcile the machine from the row serial", func() {
		spare := "Фильтр"
		c := form.NewClaim(&client.Claim{
			MachineSerial: "00042",
			FailureDate:   "2023-02-01",
			FailureNode:   "Двигатель",
			UsedSpare:     &spare,
			DowntimeHours: int64p(96),
		}, machines)
		Expect(c.MachineID).To(Equal("8"))
		Expect(c.UsedSpare).To(Equal("Фильтр"))
		Expect(c.DowntimeHours).To(Equal("96"))
	})

	It("should name the first missing required field", func() {
		Expect(form.Claim{}.Validate()).To(MatchError(form.MessageSelectMachine))
		Expect(form.Claim{MachineID: "7"}.Validate()).To(MatchError("Заполните поле «Дата отказа»"))
		Expect(form.Claim{MachineID: "7", FailureDate: "2023-02-01"}.Validate()).To(MatchError("Заполните поле «Узел отказа»"))
	})

	It("should null empty optionals", func() {
		c := form.ClaimFromValues(url.Values{"machine_id": {"7"}, "failure_date": {"2023-02-01"}, "failure_node": {"Двигатель"}})
		Expect(c.Validate()).To(Succeed())
		p := c.Payload()
		Expect(p["machine_id"]).To(Equal(int64(7)))
		Expect(p).To(HaveKeyWithValue("used_spare", BeNil()))
		Expect(p).To(HaveKeyWithValue("downtime_hours", BeNil()))
		Expect(p).To(HaveKeyWithValue("restored_date", BeNil()))
	})
})
