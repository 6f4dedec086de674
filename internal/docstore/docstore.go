// Package docstore defines the semantic surface the chat core needs from
// its document store: namespaces of collections, find/insert/update/
// replace/delete, collection drops, unique-key indexing and native
// 24-hex object ids. The production binding is MongoDB (mongo.go); the
// tests run against the in-memory implementation in memstore.
package docstore

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/v2/bson"
)

var (
	// ErrNotFound is returned by FindOne when no document matches.
	ErrNotFound = errors.New("docstore: document not found")
	// ErrDuplicateKey is returned when an insert violates a unique index
	// or reuses an existing _id.
	ErrDuplicateKey = errors.New("docstore: duplicate key")
)

// Filter matches documents by equality on top-level fields.
type Filter map[string]any

// Store is one document-store client. Implementations pool connections
// internally and are safe for concurrent use; handles are cheap to copy.
type Store interface {
	Namespace(name string) Namespace
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// Namespace is one isolated group of collections (a database in Mongo
// terms). Guilds each get their own; users and sessions have fixed ones.
type Namespace interface {
	Collection(name string) Collection
	ListCollections(ctx context.Context) ([]string, error)
	HasCollection(ctx context.Context, name string) (bool, error)
	// Drop removes the namespace and everything in it.
	Drop(ctx context.Context) error
}

// Collection is one document collection. Documents are structs tagged
// with both bson and json so every Store implementation can round-trip
// them; the _id field is minted by the caller via NewID.
type Collection interface {
	Name() string
	InsertOne(ctx context.Context, doc any) error
	FindOne(ctx context.Context, filter Filter, out any) error
	// FindAll decodes every match into out (a pointer to a slice),
	// sorted ascending by sortField when it is non-empty.
	FindAll(ctx context.Context, filter Filter, sortField string, out any) error
	Count(ctx context.Context, filter Filter) (int64, error)
	// UpdateOne sets the given fields on the first match.
	UpdateOne(ctx context.Context, filter Filter, set Filter) (matched int64, err error)
	// ReplaceOne swaps the first match for doc. A zero matched count with
	// a nil error means the filter no longer holds; callers use this as a
	// compare-and-swap.
	ReplaceOne(ctx context.Context, filter Filter, doc any) (matched int64, err error)
	DeleteOne(ctx context.Context, filter Filter) (deleted int64, err error)
	EnsureUniqueIndex(ctx context.Context, field string) error
	Drop(ctx context.Context) error
}

// NewID mints a fresh 24-hex object id.
func NewID() string {
	return bson.NewObjectID().Hex()
}
