// ABOUTME: Typed, table-scoped record identifiers for nodes and edges
// ABOUTME: Natural keys are UUIDv7; edge keys are derived from in/out keys

package entity

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Identifier errors
var (
	ErrMalformedKey  = errors.New("malformed natural key")
	ErrNotNaturalKey = errors.New("id is not a natural key")
	ErrWrongTable    = errors.New("id belongs to another table")
)

// Record is implemented by every persisted type. Table must work on the zero value.
type Record interface {
	Table() string
}

// Node is a persisted record that knows its own id.
type Node interface {
	Record
	RecordID() RecordID
}

// Edge is a node connecting two records. Its id is EdgeID(InID(), OutID()).
type Edge[In, Out Record] interface {
	Node
	InID() ID[In]
	OutID() ID[Out]
}

// RecordID is the untyped (table, key) pair used by the store. It is comparable.
type RecordID struct {
	Table string
	Key   string
}

// String returns the wire form "table:key".
func (r RecordID) String() string {
	return r.Table + ":" + r.Key
}

// IsZero reports whether the id is unset.
func (r RecordID) IsZero() bool {
	return r.Table == "" && r.Key == ""
}

// ParseRecordID parses the "table:key" wire form.
func ParseRecordID(s string) (RecordID, error) {
	table, key, ok := strings.Cut(s, ":")
	if !ok || table == "" || key == "" {
		return RecordID{}, fmt.Errorf("%w: %q", ErrMalformedKey, s)
	}
	return RecordID{Table: table, Key: key}, nil
}

// ID identifies a record of type T.
type ID[T Record] struct {
	key string
}

func tableOf[T Record]() string {
	var zero T
	return zero.Table()
}

// NewID mints a fresh natural key for T.
func NewID[T Record]() ID[T] {
	return ID[T]{key: uuid.Must(uuid.NewV7()).String()}
}

// FromNaturalKey builds an id from an externally supplied key. Only canonical
// lowercase UUIDs are accepted so the key round-trips unchanged.
func FromNaturalKey[T Record](key string) (ID[T], error) {
	if !isNaturalKey(key) {
		return ID[T]{}, fmt.Errorf("%w: %q", ErrMalformedKey, key)
	}
	return ID[T]{key: key}, nil
}

// ParseID accepts either a bare natural key or the "table:key" wire form.
func ParseID[T Record](s string) (ID[T], error) {
	if table, key, ok := strings.Cut(s, ":"); ok {
		if table != tableOf[T]() {
			return ID[T]{}, fmt.Errorf("%w: %q", ErrWrongTable, s)
		}
		s = key
	}
	return FromNaturalKey[T](s)
}

// EdgeID derives the id of the T edge from in to out. Swapping the endpoints
// yields a different id. Endpoints must be nodes with natural keys.
func EdgeID[T, A, B Record](in ID[A], out ID[B]) ID[T] {
	return ID[T]{key: in.key + "_" + out.key}
}

func isNaturalKey(key string) bool {
	u, err := uuid.Parse(key)
	return err == nil && u.String() == key
}

// Table returns the table the id belongs to.
func (id ID[T]) Table() string {
	return tableOf[T]()
}

// Key returns the raw key, natural or derived.
func (id ID[T]) Key() string {
	return id.key
}

// NaturalKey returns the key if the id was built from one.
func (id ID[T]) NaturalKey() (string, error) {
	if !isNaturalKey(id.key) {
		return "", ErrNotNaturalKey
	}
	return id.key, nil
}

// Equal reports whether both ids have the same key.
func (id ID[T]) Equal(other ID[T]) bool {
	return id.key == other.key
}

// IsZero reports whether the id is unset.
func (id ID[T]) IsZero() bool {
	return id.key == ""
}

// Record drops the type parameter.
func (id ID[T]) Record() RecordID {
	return RecordID{Table: id.Table(), Key: id.key}
}

func (id ID[T]) String() string {
	return id.Record().String()
}

// MarshalText encodes the id in its wire form.
func (id ID[T]) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText decodes the wire form. Derived keys are accepted; the table
// must match T.
func (id *ID[T]) UnmarshalText(text []byte) error {
	rid, err := ParseRecordID(string(text))
	if err != nil {
		return err
	}
	if rid.Table != tableOf[T]() {
		return fmt.Errorf("%w: %q", ErrWrongTable, text)
	}
	id.key = rid.Key
	return nil
}

// Typed recovers an ID[T] from an untyped id.
func Typed[T Record](rid RecordID) (ID[T], error) {
	if rid.Table != tableOf[T]() {
		return ID[T]{}, fmt.Errorf("%w: %s", ErrWrongTable, rid)
	}
	return ID[T]{key: rid.Key}, nil
}
