// ABOUTME: Principal kinds, the audience policy and the kind-to-resolver registry
// ABOUTME: One registry serves both single-table (role tag) and multi-table account layouts

package auth

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/2389/teamup/internal/entity"
)

// ErrUnknownKind is returned when a token names a kind nobody registered.
var ErrUnknownKind = errors.New("unknown principal kind")

// Kind names a principal variant, e.g. "mentor".
type Kind string

// Principal is an authenticated caller.
type Principal struct {
	Kind    Kind
	Subject string // natural key of the account record
	Account any    // the resolved record, e.g. *entity.User
}

// AccountAs returns the principal's record as a *T.
func AccountAs[T any](p *Principal) (*T, bool) {
	if p == nil {
		return nil, false
	}
	a, ok := p.Account.(*T)
	return a, ok && a != nil
}

// Audience is the set of kinds a route accepts. The zero value accepts nobody.
type Audience struct {
	all   bool
	kinds []Kind
}

// AnyKind accepts every registered kind.
var AnyKind = Audience{all: true}

// Kinds accepts only the listed kinds.
func Kinds(kinds ...Kind) Audience {
	return Audience{kinds: slices.Clone(kinds)}
}

// Allows reports whether kind is in the audience.
func (a Audience) Allows(kind Kind) bool {
	return a.all || slices.Contains(a.kinds, kind)
}

func (a Audience) String() string {
	if a.all {
		return "any"
	}
	return fmt.Sprint(a.kinds)
}

// Allowed reports whether an already resolved principal may proceed.
func Allowed(p *Principal, a Audience) bool {
	return p != nil && a.Allows(p.Kind)
}

// Resolver looks up the account behind a subject. It returns nil, nil when
// there is no such account.
type Resolver interface {
	Resolve(ctx context.Context, subject string) (any, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(ctx context.Context, subject string) (any, error)

func (f ResolverFunc) Resolve(ctx context.Context, subject string) (any, error) {
	return f(ctx, subject)
}

// Registry maps kinds to resolvers. Register everything before serving; the
// registry is read-only afterwards.
type Registry struct {
	resolvers map[Kind]Resolver
}

func NewRegistry() *Registry {
	return &Registry{resolvers: make(map[Kind]Resolver)}
}

// Register adds a resolver for kind. It panics on an empty or duplicate kind.
func (r *Registry) Register(kind Kind, resolver Resolver) {
	if kind == "" {
		panic("auth: empty principal kind")
	}
	if _, dup := r.resolvers[kind]; dup {
		panic(fmt.Sprintf("auth: principal kind %q registered twice", kind))
	}
	r.resolvers[kind] = resolver
}

// Kinds lists the registered kinds in sorted order.
func (r *Registry) Kinds() []Kind {
	kinds := make([]Kind, 0, len(r.resolvers))
	for k := range r.resolvers {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	return kinds
}

// Lookup resolves subject with the resolver for kind. It does exactly one
// resolver call. A missing account is nil, nil.
func (r *Registry) Lookup(ctx context.Context, kind Kind, subject string) (*Principal, error) {
	resolver, ok := r.resolvers[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	account, err := resolver.Resolve(ctx, subject)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, nil
	}
	return &Principal{Kind: kind, Subject: subject, Account: account}, nil
}

// NodeFinder is the slice of a repository a resolver needs.
type NodeFinder[E entity.Record] interface {
	FindByID(ctx context.Context, id entity.ID[E]) (*E, error)
}

// NodeResolver resolves subjects as natural keys of table E. Use one per
// account table in a multi-table layout.
func NodeResolver[E entity.Record](finder NodeFinder[E]) Resolver {
	return FilteredResolver(finder, nil)
}

// FilteredResolver is NodeResolver that also requires keep to accept the
// record. A single account table with a role tag registers one per role.
func FilteredResolver[E entity.Record](finder NodeFinder[E], keep func(*E) bool) Resolver {
	return ResolverFunc(func(ctx context.Context, subject string) (any, error) {
		id, err := entity.FromNaturalKey[E](subject)
		if err != nil {
			return nil, nil
		}
		found, err := finder.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if found == nil || (keep != nil && !keep(found)) {
			return nil, nil
		}
		return found, nil
	})
}
