// ABOUTME: Shared JSON encoding and store access for every repository
// ABOUTME: Turns store documents into typed entities and enforces the no-row invariant

package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/2389/teamup/internal/entity"
	"github.com/2389/teamup/internal/store"
)

// records is the typed view of one table.
type records[E entity.Node] struct {
	client store.Client
	table  string
	logger *slog.Logger
}

func newRecords[E entity.Node](client store.Client, logger *slog.Logger) records[E] {
	if logger == nil {
		logger = slog.Default()
	}
	table := entity.ID[E]{}.Table()
	return records[E]{
		client: client,
		table:  table,
		logger: logger.With("component", "repository", "table", table),
	}
}

func (r records[E]) encode(e E, in, out entity.RecordID) (store.Document, error) {
	content, err := json.Marshal(e)
	if err != nil {
		return store.Document{}, fmt.Errorf("encoding %s: %w", r.table, err)
	}
	return store.Document{ID: e.RecordID(), In: in, Out: out, Content: content}, nil
}

func (r records[E]) decode(doc *store.Document) (*E, error) {
	if doc == nil {
		return nil, nil
	}
	var e E
	if err := json.Unmarshal(doc.Content, &e); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", doc.ID, err)
	}
	return &e, nil
}

func (r records[E]) decodeAll(docs []*store.Document) ([]E, error) {
	out := make([]E, 0, len(docs))
	for _, doc := range docs {
		e, err := r.decode(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, nil
}

// mustDecode is decode for writes, where a missing row breaks the store contract.
func (r records[E]) mustDecode(doc *store.Document, op string, id entity.RecordID) (E, error) {
	var zero E
	if doc == nil {
		return zero, fmt.Errorf("%s %s: %w", op, id, store.ErrStorageInvariant)
	}
	e, err := r.decode(doc)
	if err != nil {
		return zero, err
	}
	return *e, nil
}

func (r records[E]) create(ctx context.Context, doc store.Document) (E, error) {
	created, err := r.client.Create(ctx, doc)
	if err != nil {
		var zero E
		return zero, fmt.Errorf("saving %s: %w", r.table, err)
	}
	r.logger.Debug("saved", "id", doc.ID.Key)
	return r.mustDecode(created, "saving", doc.ID)
}

func (r records[E]) upsert(ctx context.Context, doc store.Document) (E, error) {
	saved, err := r.client.Upsert(ctx, doc)
	if err != nil {
		var zero E
		return zero, fmt.Errorf("upserting %s: %w", r.table, err)
	}
	r.logger.Debug("upserted", "id", doc.ID.Key)
	return r.mustDecode(saved, "upserting", doc.ID)
}

func (r records[E]) find(ctx context.Context, id entity.RecordID) (*E, error) {
	doc, err := r.client.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("finding %s: %w", r.table, err)
	}
	return r.decode(doc)
}

func (r records[E]) exists(ctx context.Context, id entity.RecordID) (bool, error) {
	e, err := r.find(ctx, id)
	return e != nil, err
}

// update merges patch into the stored entity. The id is not patchable.
func (r records[E]) update(ctx context.Context, id entity.RecordID, patch func(*E)) (*E, error) {
	doc, err := r.client.Merge(ctx, id, func(current []byte) ([]byte, error) {
		var e E
		if err := json.Unmarshal(current, &e); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", id, err)
		}
		patch(&e)
		if e.RecordID() != id {
			return nil, fmt.Errorf("updating %s: update changed the id to %s", id, e.RecordID())
		}
		return json.Marshal(e)
	})
	if err != nil {
		return nil, fmt.Errorf("updating %s: %w", r.table, err)
	}
	if doc != nil {
		r.logger.Debug("updated", "id", id.Key)
	}
	return r.decode(doc)
}

func (r records[E]) remove(ctx context.Context, id entity.RecordID) (*E, error) {
	doc, err := r.client.Delete(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("deleting %s: %w", r.table, err)
	}
	if doc != nil {
		r.logger.Debug("deleted", "id", id.Key)
	}
	return r.decode(doc)
}

func (r records[E]) query(ctx context.Context, q store.Query) ([]E, error) {
	q.Table = r.table
	docs, err := r.client.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", r.table, err)
	}
	return r.decodeAll(docs)
}

func (r records[E]) page(ctx context.Context, q store.Query, page Page) ([]E, error) {
	page = page.Normalize()
	q.Limit = page.Limit
	q.Offset = page.Offset
	return r.query(ctx, q)
}

func (r records[E]) hasAny(ctx context.Context, q store.Query) (bool, error) {
	q.Limit = 1
	found, err := r.query(ctx, q)
	return len(found) > 0, err
}

// findOneBy returns the first record, by key, whose field equals value.
func (r records[E]) findOneBy(ctx context.Context, field, value string) (*E, error) {
	found, err := r.query(ctx, store.Query{
		Fields: []store.Field{{Name: field, Value: value}},
		Limit:  1,
	})
	if err != nil || len(found) == 0 {
		return nil, err
	}
	return &found[0], nil
}

func (r records[E]) existsBy(ctx context.Context, field, value string) (bool, error) {
	return r.hasAny(ctx, store.Query{Fields: []store.Field{{Name: field, Value: value}}})
}

func (r records[E]) countBy(ctx context.Context, field string) (map[string]int, error) {
	counts, err := r.client.CountBy(ctx, r.table, field)
	if err != nil {
		return nil, fmt.Errorf("counting %s by %s: %w", r.table, field, err)
	}
	return counts, nil
}
