// ABOUTME: Generic repository contracts for CRUD and URD nodes and edges
// ABOUTME: Includes pagination defaults and the constraints on create/update/upsert values

package repository

import (
	"context"

	"github.com/2389/teamup/internal/entity"
)

// Pagination bounds.
const (
	DefaultLimit = 7
	MaxLimit     = 57
)

// Page selects a window of a key-ordered listing.
type Page struct {
	Limit  int
	Offset int
}

// Normalize applies the defaults: a non-positive limit becomes DefaultLimit,
// limits above MaxLimit are capped and negative offsets become zero.
func (p Page) Normalize() Page {
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// Creator builds a new entity, minting its id.
type Creator[E any] interface {
	Build() E
}

// Patcher merges the present fields of a partial update into an entity.
type Patcher[E any] interface {
	Apply(*E)
}

// NodeUpserter builds the full replacement of a node.
type NodeUpserter[E entity.Record] interface {
	ToEntity(id entity.ID[E]) E
}

// EdgeUpserter builds the full replacement of an edge.
type EdgeUpserter[E, In, Out entity.Record] interface {
	ToEdge(in entity.ID[In], out entity.ID[Out]) E
}

// CrudRepository is the contract for mutable nodes.
type CrudRepository[E entity.Node, C Creator[E], U Patcher[E]] interface {
	Save(ctx context.Context, create C) (E, error)
	FindByID(ctx context.Context, id entity.ID[E]) (*E, error)
	ExistsByID(ctx context.Context, id entity.ID[E]) (bool, error)
	UpdateByID(ctx context.Context, id entity.ID[E], update U) (*E, error)
	DeleteByID(ctx context.Context, id entity.ID[E]) (*E, error)
}

// UrdRepository is the contract for upsert-only nodes.
type UrdRepository[E entity.Node, P NodeUpserter[E]] interface {
	UpsertByID(ctx context.Context, id entity.ID[E], upsert P) (E, error)
	FindByID(ctx context.Context, id entity.ID[E]) (*E, error)
	ExistsByID(ctx context.Context, id entity.ID[E]) (bool, error)
	DeleteByID(ctx context.Context, id entity.ID[E]) (*E, error)
}

// EdgeReader lists edges from either endpoint.
type EdgeReader[E entity.Edge[In, Out], In, Out entity.Record] interface {
	FindByID(ctx context.Context, id entity.ID[E]) (*E, error)
	ExistsByID(ctx context.Context, id entity.ID[E]) (bool, error)
	FindAllByIn(ctx context.Context, in entity.ID[In], page Page) ([]E, error)
	ExistsByIn(ctx context.Context, in entity.ID[In]) (bool, error)
	FindAllByOut(ctx context.Context, out entity.ID[Out], page Page) ([]E, error)
	ExistsByOut(ctx context.Context, out entity.ID[Out]) (bool, error)
	FindByInAndOut(ctx context.Context, in entity.ID[In], out entity.ID[Out]) (*E, error)
	ExistsByInAndOut(ctx context.Context, in entity.ID[In], out entity.ID[Out]) (bool, error)
}

// CrudEdgeRepository is the contract for mutable edges.
type CrudEdgeRepository[E entity.Edge[In, Out], In, Out entity.Record, C Creator[E], U Patcher[E]] interface {
	EdgeReader[E, In, Out]
	Save(ctx context.Context, create C) (E, error)
	UpdateByID(ctx context.Context, id entity.ID[E], update U) (*E, error)
	UpdateByInAndOut(ctx context.Context, in entity.ID[In], out entity.ID[Out], update U) (*E, error)
	DeleteByID(ctx context.Context, id entity.ID[E]) (*E, error)
	DeleteByInAndOut(ctx context.Context, in entity.ID[In], out entity.ID[Out]) (*E, error)
}

// UrdEdgeRepository is the contract for upsert-only edges.
type UrdEdgeRepository[E entity.Edge[In, Out], In, Out entity.Record, P EdgeUpserter[E, In, Out]] interface {
	EdgeReader[E, In, Out]
	UpsertByInAndOut(ctx context.Context, in entity.ID[In], out entity.ID[Out], upsert P) (E, error)
	DeleteByID(ctx context.Context, id entity.ID[E]) (*E, error)
	DeleteByInAndOut(ctx context.Context, in entity.ID[In], out entity.ID[Out]) (*E, error)
}
