// ABOUTME: Opt and Nullable wrappers for partial updates
// ABOUTME: Absent Opt fields leave stored values alone; Nullable distinguishes null from unset

package entity

import (
	"bytes"
	"encoding/json"
)

var jsonNull = []byte("null")

// Opt is one field of a partial update. The zero value is absent.
type Opt[T any] struct {
	value T
	set   bool
}

// Set returns a present Opt holding v.
func Set[T any](v T) Opt[T] {
	return Opt[T]{value: v, set: true}
}

// Get returns the value and whether it is present.
func (o Opt[T]) Get() (T, bool) {
	return o.value, o.set
}

// IsZero reports absence; it lets `json:",omitzero"` skip absent fields.
func (o Opt[T]) IsZero() bool {
	return !o.set
}

// ApplyTo writes the value into dst when present.
func (o Opt[T]) ApplyTo(dst *T) {
	if o.set {
		*dst = o.value
	}
}

func (o Opt[T]) MarshalJSON() ([]byte, error) {
	if !o.set {
		return jsonNull, nil
	}
	return json.Marshal(o.value)
}

// UnmarshalJSON marks the field present. A JSON null only counts as a value
// when T is a Nullable; otherwise it leaves the field absent.
func (o *Opt[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, jsonNull) {
		if _, ok := any(&o.value).(nullable); !ok {
			*o = Opt[T]{}
			return nil
		}
	}
	if err := json.Unmarshal(data, &o.value); err != nil {
		return err
	}
	o.set = true
	return nil
}

type nullable interface {
	isNullable()
}

// Nullable is a value that may be explicitly null.
type Nullable[T any] struct {
	value T
	valid bool
}

// Value returns a non-null Nullable.
func Value[T any](v T) Nullable[T] {
	return Nullable[T]{value: v, valid: true}
}

// Null returns a null Nullable.
func Null[T any]() Nullable[T] {
	return Nullable[T]{}
}

func (*Nullable[T]) isNullable() {}

// Get returns the value and whether it is non-null.
func (n Nullable[T]) Get() (T, bool) {
	return n.value, n.valid
}

// Ptr returns nil for null, else a pointer to a copy of the value.
func (n Nullable[T]) Ptr() *T {
	if !n.valid {
		return nil
	}
	v := n.value
	return &v
}

func (n Nullable[T]) MarshalJSON() ([]byte, error) {
	if !n.valid {
		return jsonNull, nil
	}
	return json.Marshal(n.value)
}

func (n *Nullable[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, jsonNull) {
		*n = Nullable[T]{}
		return nil
	}
	if err := json.Unmarshal(data, &n.value); err != nil {
		return err
	}
	n.valid = true
	return nil
}

// ApplyNullable writes a present Opt into a pointer field: Set(Null()) clears
// it, Set(Value(v)) points it at v, absent leaves it alone.
func ApplyNullable[T any](o Opt[Nullable[T]], dst **T) {
	if n, ok := o.Get(); ok {
		*dst = n.Ptr()
	}
}
