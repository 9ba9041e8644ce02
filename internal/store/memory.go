// ABOUTME: In-memory Client implementation for tests and the "memory" driver
// ABOUTME: Mirrors SQLStore semantics: key-ordered queries, create-if-absent, atomic merge

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/2389/teamup/internal/entity"
)

// MemoryStore is an in-memory Client. Stored documents are copied on the way
// in and out so callers never share buffers with the store.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[entity.RecordID]*Document
	closed  bool
}

var _ Client = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[entity.RecordID]*Document),
	}
}

func cloneDocument(doc *Document) *Document {
	c := *doc
	c.Content = slices.Clone(doc.Content)
	return &c
}

func (m *MemoryStore) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.closed {
		return fmt.Errorf("%w: store closed", ErrConnection)
	}
	return nil
}

// Create stores doc unless its id is taken.
func (m *MemoryStore) Create(ctx context.Context, doc Document) (*Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.check(ctx); err != nil {
		return nil, err
	}
	if _, exists := m.records[doc.ID]; exists {
		return nil, fmt.Errorf("creating %s: %w", doc.ID, ErrConstraintViolation)
	}

	stored := cloneDocument(&doc)
	m.records[doc.ID] = stored
	return cloneDocument(stored), nil
}

// Get returns a copy of the record or nil.
func (m *MemoryStore) Get(ctx context.Context, id entity.RecordID) (*Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.check(ctx); err != nil {
		return nil, err
	}
	doc, ok := m.records[id]
	if !ok {
		return nil, nil
	}
	return cloneDocument(doc), nil
}

// Upsert stores doc, replacing any previous record.
func (m *MemoryStore) Upsert(ctx context.Context, doc Document) (*Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.check(ctx); err != nil {
		return nil, err
	}
	stored := cloneDocument(&doc)
	m.records[doc.ID] = stored
	return cloneDocument(stored), nil
}

// Merge applies fn under the write lock.
func (m *MemoryStore) Merge(ctx context.Context, id entity.RecordID, fn MergeFunc) (*Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.check(ctx); err != nil {
		return nil, err
	}
	doc, ok := m.records[id]
	if !ok {
		return nil, nil
	}

	next, err := fn(slices.Clone(doc.Content))
	if err != nil {
		return nil, err
	}

	updated := cloneDocument(doc)
	updated.Content = slices.Clone(next)
	m.records[id] = updated
	return cloneDocument(updated), nil
}

// Delete removes the record and returns it.
func (m *MemoryStore) Delete(ctx context.Context, id entity.RecordID) (*Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.check(ctx); err != nil {
		return nil, err
	}
	doc, ok := m.records[id]
	if !ok {
		return nil, nil
	}
	delete(m.records, id)
	return doc, nil
}

// Query lists matching records ordered by key.
func (m *MemoryStore) Query(ctx context.Context, q Query) ([]*Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.check(ctx); err != nil {
		return nil, err
	}

	var matches []*Document
	for _, doc := range m.records {
		if doc.ID.Table != q.Table {
			continue
		}
		if !q.In.IsZero() && doc.In != q.In {
			continue
		}
		if !q.Out.IsZero() && doc.Out != q.Out {
			continue
		}
		ok, err := matchFields(doc.Content, q.Fields)
		if err != nil {
			return nil, err
		}
		if ok {
			matches = append(matches, doc)
		}
	}

	slices.SortFunc(matches, func(a, b *Document) int {
		return strings.Compare(a.ID.Key, b.ID.Key)
	})

	if q.Limit > 0 {
		offset := min(max(q.Offset, 0), len(matches))
		end := min(offset+q.Limit, len(matches))
		matches = matches[offset:end]
	}

	result := make([]*Document, len(matches))
	for i, doc := range matches {
		result[i] = cloneDocument(doc)
	}
	return result, nil
}

func matchFields(content []byte, fields []Field) (bool, error) {
	if len(fields) == 0 {
		return true, nil
	}
	values, err := topLevelStrings(content)
	if err != nil {
		return false, err
	}
	for _, f := range fields {
		if !fieldName.MatchString(f.Name) {
			return false, fmt.Errorf("invalid field name %q", f.Name)
		}
		if v, ok := values[f.Name]; !ok || v != f.Value {
			return false, nil
		}
	}
	return true, nil
}

// topLevelStrings decodes the string-valued top-level fields of a document.
func topLevelStrings(content []byte) (map[string]string, error) {
	var raw map[string]any
	if err := json.Unmarshal(content, &raw); err != nil {
		return nil, fmt.Errorf("decoding content: %w", err)
	}
	values := make(map[string]string, len(raw))
	for k, v := range raw {
		if s, ok := v.(string); ok {
			values[k] = s
		}
	}
	return values, nil
}

// CountBy counts records of table grouped by a string content field.
func (m *MemoryStore) CountBy(ctx context.Context, table, field string) (map[string]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.check(ctx); err != nil {
		return nil, err
	}
	if !fieldName.MatchString(field) {
		return nil, fmt.Errorf("invalid field name %q", field)
	}

	counts := make(map[string]int)
	for id, doc := range m.records {
		if id.Table != table {
			continue
		}
		values, err := topLevelStrings(doc.Content)
		if err != nil {
			return nil, err
		}
		if v, ok := values[field]; ok {
			counts[v]++
		}
	}
	return counts, nil
}

// Ping reports ErrConnection once the store is closed.
func (m *MemoryStore) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.check(ctx)
}

// Close marks the store closed; later calls fail with ErrConnection.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Len returns the number of stored records.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

// Snapshot returns a copy of every record, keyed by id.
func (m *MemoryStore) Snapshot() map[entity.RecordID]Document {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[entity.RecordID]Document, len(m.records))
	for id, doc := range m.records {
		out[id] = *cloneDocument(doc)
	}
	return out
}
