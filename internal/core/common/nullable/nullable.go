// Package nullable distinguishes "absent" from "null" in JSON request bodies, which partial
// updates need.
package nullable

import (
	"bytes"
	"encoding/json"
)

type Field[T any] struct {
	Set   bool
	Value *T
}

func Of[T any](v T) Field[T] {
	return Field[T]{Set: true, Value: &v}
}

func Null[T any]() Field[T] {
	return Field[T]{Set: true}
}

func (f *Field[T]) UnmarshalJSON(b []byte) error {
	f.Set = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		f.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	f.Value = &v
	return nil
}

func (f Field[T]) MarshalJSON() ([]byte, error) {
	if f.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*f.Value)
}

// OrZero is the value, or T's zero value when null or absent.
func (f Field[T]) OrZero() T {
	if f.Value == nil {
		var zero T
		return zero
	}
	return *f.Value
}

// Apply writes into dst when the field was sent, or unconditionally when full is true
// (absent then means zero).
func (f Field[T]) Apply(dst *T, full bool) {
	if f.Set || full {
		*dst = f.OrZero()
	}
}

// ApplyPtr is Apply for nullable destinations.
func (f Field[T]) ApplyPtr(dst **T, full bool) {
	if f.Set || full {
		if f.Value == nil {
			*dst = nil
			return
		}
		v := *f.Value
		*dst = &v
	}
}
