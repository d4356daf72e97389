// Package filter keeps a set of named filter fields in step with a URL query string.
//
// Every operation takes the current query and returns a new one; the caller navigates to the
// result with replace semantics. Keys the controller does not manage are carried through
// untouched, and a managed key never appears with an empty value.
package filter

import (
	"net/url"
	"strings"
)

type Kind string

const (
	Select Kind = "select"
	Text   Kind = "text"
)

type Option struct {
	Value string
	Label string
}

type Field struct {
	Name        string
	Label       string
	Kind        Kind
	Options     []Option
	Placeholder string
}

// Display resolves value through the field's options and falls back to the raw value.
func (f Field) Display(value string) string {
	if f.Kind == Select {
		for _, o := range f.Options {
			if o.Value == value {
				return o.Label
			}
		}
	}
	return value
}

// Chip is one removable marker for a field that is currently set.
type Chip struct {
	Name    string
	Label   string
	Display string
	// Query is where clicking the chip navigates: the same query without this field.
	Query url.Values
}

func (c Chip) Text() string {
	return c.Label + ": " + c.Display
}

// Controller owns an ordered set of fields. It holds no values; the query string is the only
// state.
type Controller struct {
	fields []Field
	index  map[string]int
}

func New(fields ...Field) *Controller {
	c := &Controller{fields: fields, index: make(map[string]int, len(fields))}
	for i, f := range fields {
		c.index[f.Name] = i
	}
	return c
}

func (c *Controller) Fields() []Field {
	return c.fields
}

func (c *Controller) Manages(name string) bool {
	_, ok := c.index[name]
	return ok
}

// Derive reads every field's value from q. A missing key reads as "".
func (c *Controller) Derive(q url.Values) map[string]string {
	values := make(map[string]string, len(c.fields))
	for _, f := range c.fields {
		values[f.Name] = q.Get(f.Name)
	}
	return values
}

// Apply merges values into a copy of q. Empty or whitespace-only values remove their key; any
// other value is stored as given. Names the controller does not manage are ignored.
func (c *Controller) Apply(q url.Values, values map[string]string) url.Values {
	next := clone(q)
	for name, value := range values {
		if !c.Manages(name) {
			continue
		}
		if strings.TrimSpace(value) == "" {
			next.Del(name)
			continue
		}
		next.Set(name, value)
	}
	return next
}

// Commit merges a single field.
func (c *Controller) Commit(q url.Values, name, value string) url.Values {
	return c.Apply(q, map[string]string{name: value})
}

// Clear empties every managed field at once.
func (c *Controller) Clear(q url.Values) url.Values {
	empty := make(map[string]string, len(c.fields))
	for _, f := range c.fields {
		empty[f.Name] = ""
	}
	return c.Apply(q, empty)
}

// Active returns only the managed keys that are set, for forwarding to the API.
func (c *Controller) Active(q url.Values) url.Values {
	active := url.Values{}
	for _, f := range c.fields {
		if v := strings.TrimSpace(q.Get(f.Name)); v != "" {
			active.Set(f.Name, v)
		}
	}
	return active
}

// Chips lists the set fields in field order.
func (c *Controller) Chips(q url.Values) []Chip {
	var chips []Chip
	for _, f := range c.fields {
		v := q.Get(f.Name)
		if v == "" {
			continue
		}
		chips = append(chips, Chip{
			Name:    f.Name,
			Label:   f.Label,
			Display: f.Display(v),
			Query:   c.Commit(q, f.Name, ""),
		})
	}
	return chips
}

// SwitchTo moves q from this controller's field set to next's. Keys only this set owns are
// dropped so they cannot leak into the other tab's request.
func (c *Controller) SwitchTo(q url.Values, next *Controller) url.Values {
	out := clone(q)
	for _, f := range c.fields {
		if !next.Manages(f.Name) {
			out.Del(f.Name)
		}
	}
	return out
}

func clone(q url.Values) url.Values {
	out := make(url.Values, len(q))
	for k, v := range q {
		out[k] = append([]string(nil), v...)
	}
	return out
}
