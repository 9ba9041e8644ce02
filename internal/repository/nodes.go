// ABOUTME: Generic CRUD and URD node repositories over store.Client
// ABOUTME: CRUD nodes mint ids on Save; URD nodes are written by idempotent upserts

package repository

import (
	"context"
	"log/slog"

	"github.com/2389/teamup/internal/entity"
	"github.com/2389/teamup/internal/store"
)

// CrudNodes implements CrudRepository.
type CrudNodes[E entity.Node, C Creator[E], U Patcher[E]] struct {
	records[E]
}

// NewCrudNodes creates a CRUD repository for E.
func NewCrudNodes[E entity.Node, C Creator[E], U Patcher[E]](client store.Client, logger *slog.Logger) *CrudNodes[E, C, U] {
	return &CrudNodes[E, C, U]{records: newRecords[E](client, logger)}
}

// Save creates a new node. A duplicate id fails with store.ErrConstraintViolation.
func (r *CrudNodes[E, C, U]) Save(ctx context.Context, create C) (E, error) {
	e := create.Build()
	doc, err := r.encode(e, entity.RecordID{}, entity.RecordID{})
	if err != nil {
		return e, err
	}
	return r.create(ctx, doc)
}

// FindByID returns the node or nil.
func (r *CrudNodes[E, C, U]) FindByID(ctx context.Context, id entity.ID[E]) (*E, error) {
	return r.find(ctx, id.Record())
}

// ExistsByID reports whether the node exists.
func (r *CrudNodes[E, C, U]) ExistsByID(ctx context.Context, id entity.ID[E]) (bool, error) {
	return r.exists(ctx, id.Record())
}

// UpdateByID merges the present fields of update. It returns nil if the node
// does not exist; an update with no present fields returns the node unchanged.
func (r *CrudNodes[E, C, U]) UpdateByID(ctx context.Context, id entity.ID[E], update U) (*E, error) {
	return r.update(ctx, id.Record(), func(e *E) { update.Apply(e) })
}

// DeleteByID removes the node and returns its last value, or nil.
func (r *CrudNodes[E, C, U]) DeleteByID(ctx context.Context, id entity.ID[E]) (*E, error) {
	return r.remove(ctx, id.Record())
}

// UrdNodes implements UrdRepository.
type UrdNodes[E entity.Node, P NodeUpserter[E]] struct {
	records[E]
}

// NewUrdNodes creates an upsert-only repository for E.
func NewUrdNodes[E entity.Node, P NodeUpserter[E]](client store.Client, logger *slog.Logger) *UrdNodes[E, P] {
	return &UrdNodes[E, P]{records: newRecords[E](client, logger)}
}

// UpsertByID writes the full node, replacing whatever was stored.
func (r *UrdNodes[E, P]) UpsertByID(ctx context.Context, id entity.ID[E], upsert P) (E, error) {
	e := upsert.ToEntity(id)
	doc, err := r.encode(e, entity.RecordID{}, entity.RecordID{})
	if err != nil {
		return e, err
	}
	return r.upsert(ctx, doc)
}

func (r *UrdNodes[E, P]) FindByID(ctx context.Context, id entity.ID[E]) (*E, error) {
	return r.find(ctx, id.Record())
}

func (r *UrdNodes[E, P]) ExistsByID(ctx context.Context, id entity.ID[E]) (bool, error) {
	return r.exists(ctx, id.Record())
}

func (r *UrdNodes[E, P]) DeleteByID(ctx context.Context, id entity.ID[E]) (*E, error) {
	return r.remove(ctx, id.Record())
}
