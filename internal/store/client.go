// ABOUTME: Store client interface and document types shared by every backend
// ABOUTME: Records are JSON documents keyed by (table, key), optionally linking in/out records

package store

import (
	"context"
	"errors"

	"github.com/2389/teamup/internal/entity"
)

// Storage errors. Absence is never an error: lookups return a nil document.
var (
	// ErrConstraintViolation is returned when a write breaks a uniqueness or
	// integrity constraint, e.g. creating a record whose id already exists.
	ErrConstraintViolation = errors.New("constraint violation")

	// ErrConnection is returned for transient transport failures. Callers
	// decide whether to retry; the store never does.
	ErrConnection = errors.New("store connection error")

	// ErrStorageInvariant is returned when the store reports success but
	// hands back no record.
	ErrStorageInvariant = errors.New("store returned no record")
)

// Document is one stored record. In and Out are zero for nodes.
type Document struct {
	ID      entity.RecordID
	In      entity.RecordID
	Out     entity.RecordID
	Content []byte // JSON
}

// Field is an equality filter on a top-level string field of the content.
type Field struct {
	Name  string
	Value string
}

// Query selects records of one table. Results are ordered by key. A Limit of
// zero returns every match and ignores Offset.
type Query struct {
	Table  string
	In     entity.RecordID
	Out    entity.RecordID
	Fields []Field
	Limit  int
	Offset int
}

// MergeFunc computes new content from the current content of a record.
type MergeFunc func(current []byte) ([]byte, error)

// Client is the persistence boundary used by repositories.
type Client interface {
	// Create inserts doc if no record with its id exists, else fails with
	// ErrConstraintViolation.
	Create(ctx context.Context, doc Document) (*Document, error)

	// Get returns the record or nil.
	Get(ctx context.Context, id entity.RecordID) (*Document, error)

	// Upsert writes doc, replacing any record with the same id.
	Upsert(ctx context.Context, doc Document) (*Document, error)

	// Merge rewrites the content of an existing record atomically. It returns
	// nil without calling fn when the record does not exist.
	Merge(ctx context.Context, id entity.RecordID, fn MergeFunc) (*Document, error)

	// Delete removes the record and returns what was stored, or nil.
	Delete(ctx context.Context, id entity.RecordID) (*Document, error)

	// Query lists matching records ordered by key.
	Query(ctx context.Context, q Query) ([]*Document, error)

	// CountBy groups the records of a table by a top-level content field.
	CountBy(ctx context.Context, table, field string) (map[string]int, error)

	Ping(ctx context.Context) error
	Close() error
}
