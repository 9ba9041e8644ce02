// ABOUTME: Append-only audit log repository with actor and action filters
// ABOUTME: Entries are never updated; listing is oldest first

package repository

import (
	"context"
	"log/slog"

	"github.com/2389/teamup/internal/entity"
	"github.com/2389/teamup/internal/store"
)

// AuditFilter narrows an audit listing. Zero fields match everything.
type AuditFilter struct {
	Actor  entity.ID[entity.User]
	Action entity.AuditAction
	Target entity.RecordID
}

func (f AuditFilter) fields() []store.Field {
	var fields []store.Field
	if !f.Actor.IsZero() {
		fields = append(fields, store.Field{Name: "actor", Value: f.Actor.String()})
	}
	if f.Action != "" {
		fields = append(fields, store.Field{Name: "action", Value: string(f.Action)})
	}
	if !f.Target.IsZero() {
		fields = append(fields, store.Field{Name: "target", Value: f.Target.String()})
	}
	return fields
}

type AuditRepository struct {
	records[entity.AuditEntry]
}

func NewAuditRepository(client store.Client, logger *slog.Logger) *AuditRepository {
	return &AuditRepository{newRecords[entity.AuditEntry](client, logger)}
}

// Append stores a new entry.
func (r *AuditRepository) Append(ctx context.Context, create entity.CreateAuditEntry) (entity.AuditEntry, error) {
	e := create.Build()
	doc, err := r.encode(e, entity.RecordID{}, entity.RecordID{})
	if err != nil {
		return e, err
	}
	return r.create(ctx, doc)
}

// List returns one page of matching entries, oldest first.
func (r *AuditRepository) List(ctx context.Context, filter AuditFilter, page Page) ([]entity.AuditEntry, error) {
	return r.page(ctx, store.Query{Fields: filter.fields()}, page)
}
