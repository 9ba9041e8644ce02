// ABOUTME: Generic CRUD and URD edge repositories over store.Client
// ABOUTME: Edge ids are derived from (in, out) so each ordered pair holds at most one edge

package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/2389/teamup/internal/entity"
	"github.com/2389/teamup/internal/store"
)

// ErrEdgeIDMismatch is returned when an edge's id is not derived from its endpoints.
var ErrEdgeIDMismatch = errors.New("edge id does not match its endpoints")

// edges adds endpoint lookups to records.
type edges[E entity.Edge[In, Out], In, Out entity.Record] struct {
	records[E]
}

func (r edges[E, In, Out]) encodeEdge(e E) (store.Document, error) {
	want := entity.EdgeID[E](e.InID(), e.OutID()).Record()
	if got := e.RecordID(); got != want {
		return store.Document{}, fmt.Errorf("%w: %s, want %s", ErrEdgeIDMismatch, got, want)
	}
	return r.encode(e, e.InID().Record(), e.OutID().Record())
}

func (r edges[E, In, Out]) FindByID(ctx context.Context, id entity.ID[E]) (*E, error) {
	return r.find(ctx, id.Record())
}

func (r edges[E, In, Out]) ExistsByID(ctx context.Context, id entity.ID[E]) (bool, error) {
	return r.exists(ctx, id.Record())
}

// FindAllByIn lists the edges leaving in, ordered by edge key.
func (r edges[E, In, Out]) FindAllByIn(ctx context.Context, in entity.ID[In], page Page) ([]E, error) {
	return r.page(ctx, store.Query{In: in.Record()}, page)
}

func (r edges[E, In, Out]) ExistsByIn(ctx context.Context, in entity.ID[In]) (bool, error) {
	return r.hasAny(ctx, store.Query{In: in.Record()})
}

// FindAllByOut lists the edges arriving at out, ordered by edge key.
func (r edges[E, In, Out]) FindAllByOut(ctx context.Context, out entity.ID[Out], page Page) ([]E, error) {
	return r.page(ctx, store.Query{Out: out.Record()}, page)
}

func (r edges[E, In, Out]) ExistsByOut(ctx context.Context, out entity.ID[Out]) (bool, error) {
	return r.hasAny(ctx, store.Query{Out: out.Record()})
}

func (r edges[E, In, Out]) FindByInAndOut(ctx context.Context, in entity.ID[In], out entity.ID[Out]) (*E, error) {
	return r.find(ctx, entity.EdgeID[E](in, out).Record())
}

func (r edges[E, In, Out]) ExistsByInAndOut(ctx context.Context, in entity.ID[In], out entity.ID[Out]) (bool, error) {
	return r.exists(ctx, entity.EdgeID[E](in, out).Record())
}

func (r edges[E, In, Out]) DeleteByID(ctx context.Context, id entity.ID[E]) (*E, error) {
	return r.remove(ctx, id.Record())
}

func (r edges[E, In, Out]) DeleteByInAndOut(ctx context.Context, in entity.ID[In], out entity.ID[Out]) (*E, error) {
	return r.remove(ctx, entity.EdgeID[E](in, out).Record())
}

// CrudEdges implements CrudEdgeRepository.
type CrudEdges[E entity.Edge[In, Out], In, Out entity.Record, C Creator[E], U Patcher[E]] struct {
	edges[E, In, Out]
}

// NewCrudEdges creates a CRUD edge repository for E.
func NewCrudEdges[E entity.Edge[In, Out], In, Out entity.Record, C Creator[E], U Patcher[E]](client store.Client, logger *slog.Logger) *CrudEdges[E, In, Out, C, U] {
	return &CrudEdges[E, In, Out, C, U]{edges[E, In, Out]{newRecords[E](client, logger)}}
}

// Save creates the edge. A second edge between the same ordered pair fails
// with store.ErrConstraintViolation.
func (r *CrudEdges[E, In, Out, C, U]) Save(ctx context.Context, create C) (E, error) {
	e := create.Build()
	doc, err := r.encodeEdge(e)
	if err != nil {
		return e, err
	}
	return r.create(ctx, doc)
}

func (r *CrudEdges[E, In, Out, C, U]) UpdateByID(ctx context.Context, id entity.ID[E], update U) (*E, error) {
	return r.update(ctx, id.Record(), func(e *E) { update.Apply(e) })
}

func (r *CrudEdges[E, In, Out, C, U]) UpdateByInAndOut(ctx context.Context, in entity.ID[In], out entity.ID[Out], update U) (*E, error) {
	return r.UpdateByID(ctx, entity.EdgeID[E](in, out), update)
}

// UrdEdges implements UrdEdgeRepository.
type UrdEdges[E entity.Edge[In, Out], In, Out entity.Record, P EdgeUpserter[E, In, Out]] struct {
	edges[E, In, Out]
}

// NewUrdEdges creates an upsert-only edge repository for E.
func NewUrdEdges[E entity.Edge[In, Out], In, Out entity.Record, P EdgeUpserter[E, In, Out]](client store.Client, logger *slog.Logger) *UrdEdges[E, In, Out, P] {
	return &UrdEdges[E, In, Out, P]{edges[E, In, Out]{newRecords[E](client, logger)}}
}

// UpsertByInAndOut writes the full edge between in and out.
func (r *UrdEdges[E, In, Out, P]) UpsertByInAndOut(ctx context.Context, in entity.ID[In], out entity.ID[Out], upsert P) (E, error) {
	e := upsert.ToEdge(in, out)
	doc, err := r.encodeEdge(e)
	if err != nil {
		return e, err
	}
	return r.upsert(ctx, doc)
}
