package query

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/frahmantamala/servicebook/internal"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 500
)

type Page struct {
	Number int
	Size   int
}

func (p Page) Offset() int { return (p.Number - 1) * p.Size }

// PageFrom returns nil when the caller did not ask for pagination; lists are then
// returned whole as a bare array.
func PageFrom(q url.Values) (*Page, error) {
	raw := q.Get("page")
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return nil, internal.NewValidationFieldError("page", "page: неверный номер страницы", internal.ErrCodeInvalidQuery)
	}
	size := DefaultPageSize
	if rawSize := q.Get("page_size"); rawSize != "" {
		size, err = strconv.Atoi(rawSize)
		if err != nil || size < 1 {
			return nil, internal.NewValidationFieldError("page_size", "page_size: неверный размер страницы", internal.ErrCodeInvalidQuery)
		}
		if size > MaxPageSize {
			size = MaxPageSize
		}
	}
	return &Page{Number: n, Size: size}, nil
}

// Paginated is the envelope used when ?page= is present.
type Paginated[T any] struct {
	Count    int64   `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

func NewPaginated[T any](r *http.Request, p Page, count int64, results []T) Paginated[T] {
	if results == nil {
		results = []T{}
	}
	out := Paginated[T]{Count: count, Results: results}
	if int64(p.Number*p.Size) < count {
		out.Next = pageLink(r, p.Number+1)
	}
	if p.Number > 1 {
		out.Previous = pageLink(r, p.Number-1)
	}
	return out
}

func pageLink(r *http.Request, n int) *string {
	u := *r.URL
	q := u.Query()
	q.Set("page", strconv.Itoa(n))
	u.RawQuery = q.Encode()
	s := u.RequestURI()
	return &s
}
