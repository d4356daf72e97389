// Package query turns list query strings (?ordering=, exact and __icontains filters, ?search=,
// ?page=) into gorm clauses shared by the machine, maintenance and claim repositories.
package query

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/frahmantamala/servicebook/internal"
	"gorm.io/gorm"
)

type Lookup int

const (
	Exact Lookup = iota
	IContains
)

type Filter struct {
	Param   string
	Column  string
	Lookup  Lookup
	Numeric bool
}

// Spec describes what a collection lets callers filter and sort by.
type Spec struct {
	Filters         []Filter
	Ordering        map[string]string
	DefaultOrdering string
	SearchColumns   []string
	// TieBreaker keeps pagination stable when ordering keys collide.
	TieBreaker string
}

// Apply adds filter, search and ordering clauses for q.
func (s Spec) Apply(db *gorm.DB, q url.Values) (*gorm.DB, error) {
	db, err := s.Where(db, q)
	if err != nil {
		return nil, err
	}
	return s.Order(db, q.Get("ordering")), nil
}

// Where adds only the filter and search clauses. Facets use it without ordering.
func (s Spec) Where(db *gorm.DB, q url.Values) (*gorm.DB, error) {
	for _, f := range s.Filters {
		v := strings.TrimSpace(q.Get(f.Param))
		if v == "" {
			continue
		}
		switch f.Lookup {
		case IContains:
			db = db.Where(fmt.Sprintf("LOWER(%s) LIKE ?", f.Column), "%"+strings.ToLower(v)+"%")
		default:
			if f.Numeric {
				n, err := strconv.ParseInt(v, 10, 64)
				if err != nil {
					return nil, internal.NewValidationFieldError(f.Param, fmt.Sprintf("%s: ожидается число", f.Param), internal.ErrCodeInvalidQuery)
				}
				db = db.Where(fmt.Sprintf("%s = ?", f.Column), n)
			} else {
				db = db.Where(fmt.Sprintf("%s = ?", f.Column), v)
			}
		}
	}

	if term := strings.TrimSpace(q.Get("search")); term != "" && len(s.SearchColumns) > 0 {
		clause, args := ContainsAny(s.SearchColumns, term)
		db = db.Where(clause, args...)
	}
	return db, nil
}

// ContainsAny builds a case-insensitive OR across columns.
func ContainsAny(columns []string, term string) (string, []interface{}) {
	clauses := make([]string, len(columns))
	args := make([]interface{}, len(columns))
	pattern := "%" + strings.ToLower(term) + "%"
	for i, c := range columns {
		clauses[i] = fmt.Sprintf("LOWER(%s) LIKE ?", c)
		args[i] = pattern
	}
	return "(" + strings.Join(clauses, " OR ") + ")", args
}

// Order applies the requested ordering, or the default when nothing valid was requested.
// Unknown fields are ignored.
func (s Spec) Order(db *gorm.DB, requested string) *gorm.DB {
	terms := s.resolve(requested)
	if len(terms) == 0 {
		terms = s.resolve(s.DefaultOrdering)
	}
	for _, t := range terms {
		db = db.Order(t)
	}
	if s.TieBreaker != "" {
		db = db.Order(s.TieBreaker)
	}
	return db
}

func (s Spec) resolve(ordering string) []string {
	var out []string
	for _, raw := range strings.Split(ordering, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		dir := "ASC"
		if strings.HasPrefix(raw, "-") {
			dir = "DESC"
			raw = raw[1:]
		}
		col, ok := s.Ordering[raw]
		if !ok {
			continue
		}
		out = append(out, col+" "+dir)
	}
	return out
}
