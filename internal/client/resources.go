package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/frahmantamala/servicebook/internal/access"
)

func collectionPath(collection access.Collection) string {
	return "/api/" + string(collection) + "/"
}

func recordPath(collection access.Collection, id int64) string {
	return collectionPath(collection) + strconv.FormatInt(id, 10) + "/"
}

func (c *Client) ListMachines(ctx context.Context, q url.Values) ([]Machine, error) {
	body, err := c.list(ctx, collectionPath(access.Machines), q)
	if err != nil {
		return nil, err
	}
	return decodeList[Machine](body)
}

func (c *Client) ListMaintenance(ctx context.Context, q url.Values) ([]MaintenanceRecord, error) {
	body, err := c.list(ctx, collectionPath(access.Maintenance), q)
	if err != nil {
		return nil, err
	}
	return decodeList[MaintenanceRecord](body)
}

func (c *Client) ListClaims(ctx context.Context, q url.Values) ([]Claim, error) {
	body, err := c.list(ctx, collectionPath(access.Claims), q)
	if err != nil {
		return nil, err
	}
	return decodeList[Claim](body)
}

// GetMachine returns the machine with its maintenance and claim histories.
func (c *Client) GetMachine(ctx context.Context, id int64) (*MachineDetail, error) {
	var d MachineDetail
	if err := c.getJSON(ctx, recordPath(access.Machines, id), nil, &d); err != nil {
		return nil, err
	}
	if d.Maintenance == nil {
		d.Maintenance = []MaintenanceRecord{}
	}
	if d.Claims == nil {
		d.Claims = []Claim{}
	}
	return &d, nil
}

func (c *Client) GetMaintenance(ctx context.Context, id int64) (*MaintenanceRecord, error) {
	var r MaintenanceRecord
	if err := c.getJSON(ctx, recordPath(access.Maintenance, id), nil, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (c *Client) GetClaim(ctx context.Context, id int64) (*Claim, error) {
	var cl Claim
	if err := c.getJSON(ctx, recordPath(access.Claims, id), nil, &cl); err != nil {
		return nil, err
	}
	return &cl, nil
}

// Create posts p to the collection. Maintenance and claim payloads may name the machine as
// "machine" or "machine_id"; only "machine_id" is sent.
func (c *Client) Create(ctx context.Context, collection access.Collection, p Payload) (json.RawMessage, error) {
	var created json.RawMessage
	if err := c.sendJSON(ctx, http.MethodPost, collectionPath(collection), canonical(collection, p), &created); err != nil {
		return nil, err
	}
	return created, nil
}

// Update sends p as a PATCH for every collection. Forms always send every field they own, so
// the write replaces what the form shows and keeps what it does not (machine owners).
func (c *Client) Update(ctx context.Context, collection access.Collection, id int64, p Payload) (json.RawMessage, error) {
	var updated json.RawMessage
	if err := c.sendJSON(ctx, http.MethodPatch, recordPath(collection, id), canonical(collection, p), &updated); err != nil {
		return nil, err
	}
	return updated, nil
}

func (c *Client) Delete(ctx context.Context, collection access.Collection, id int64) error {
	return c.sendJSON(ctx, http.MethodDelete, recordPath(collection, id), nil, nil)
}

func canonical(collection access.Collection, p Payload) Payload {
	if collection == access.Machines {
		return p
	}
	return p.withMachineID()
}

func (c *Client) MaintenanceTypes(ctx context.Context) ([]MaintenanceType, error) {
	body, err := c.list(ctx, "/api/maintenance-types/", nil)
	if err != nil {
		return nil, err
	}
	return decodeList[MaintenanceType](body)
}

// Facets fetches the filter options of a collection.
func (c *Client) Facets(ctx context.Context, collection access.Collection) (Facets, error) {
	var raw map[string]json.RawMessage
	if err := c.getJSON(ctx, collectionPath(collection)+"facets/", nil, &raw); err != nil {
		return nil, err
	}
	return parseFacets(raw)
}

// Option is one value a select filter offers.
type Option struct {
	Value string
	Label string
}

// Facets maps a facet name to its options.
type Facets map[string][]Option

// Label resolves value through the options of field, falling back to value itself.
func (f Facets) Label(field, value string) string {
	for _, o := range f[field] {
		if o.Value == value {
			return o.Label
		}
	}
	return value
}

func parseFacets(raw map[string]json.RawMessage) (Facets, error) {
	out := make(Facets, len(raw))
	for name, data := range raw {
		var items []json.RawMessage
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, fmt.Errorf("facet %s: %w", name, err)
		}
		options := make([]Option, 0, len(items))
		for _, item := range items {
			o, err := parseOption(item)
			if err != nil {
				return nil, fmt.Errorf("facet %s: %w", name, err)
			}
			options = append(options, o)
		}
		out[name] = options
	}
	return out, nil
}

// parseOption accepts "value", 42, [value, label] and {"value","label"} or {"id","name"}.
func parseOption(item json.RawMessage) (Option, error) {
	var pair []json.RawMessage
	if json.Unmarshal(item, &pair) == nil {
		if len(pair) != 2 {
			return Option{}, fmt.Errorf("expected [value, label], got %d items", len(pair))
		}
		value, err := scalar(pair[0])
		if err != nil {
			return Option{}, err
		}
		label, err := scalar(pair[1])
		if err != nil {
			return Option{}, err
		}
		return Option{Value: value, Label: label}, nil
	}

	var obj map[string]json.RawMessage
	if json.Unmarshal(item, &obj) == nil {
		valueKey, labelKey := "value", "label"
		if _, ok := obj["id"]; ok {
			valueKey, labelKey = "id", "name"
		}
		value, err := scalar(obj[valueKey])
		if err != nil {
			return Option{}, err
		}
		label, err := scalar(obj[labelKey])
		if err != nil {
			return Option{}, err
		}
		if label == "" {
			label = value
		}
		return Option{Value: value, Label: label}, nil
	}

	value, err := scalar(item)
	if err != nil {
		return Option{}, err
	}
	return Option{Value: value, Label: value}, nil
}

func scalar(b json.RawMessage) (string, error) {
	if len(b) == 0 {
		return "", nil
	}
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return "", err
	}
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(t), nil
	}
	return "", fmt.Errorf("unsupported option value %s", string(b))
}
