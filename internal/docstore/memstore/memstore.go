// Package memstore is an in-memory docstore.Store used by the tests.
// It mirrors the semantics the core relies on: collections exist once
// something is inserted or indexed, _id is unique, unique indexes
// reject duplicate inserts, and FindAll preserves insertion order
// unless a sort field is given. Documents are normalized through JSON,
// so the same tagged structs work here and against Mongo.
package memstore

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/guildd/guildd/internal/docstore"
)

type Store struct {
	mu         sync.Mutex
	namespaces map[string]*namespace
}

func New() *Store {
	return &Store{namespaces: make(map[string]*namespace)}
}

func (s *Store) Namespace(name string) docstore.Namespace {
	return &nsHandle{store: s, name: name}
}

func (s *Store) Ping(context.Context) error  { return nil }
func (s *Store) Close(context.Context) error { return nil }

type namespace struct {
	order       []string
	collections map[string]*collection
}

type collection struct {
	docs    []map[string]any
	indexes []string
}

// nsHandle resolves the namespace lazily so handles can be taken before
// anything exists, like Mongo database handles.
type nsHandle struct {
	store *Store
	name  string
}

func (h *nsHandle) lookup() *namespace {
	return h.store.namespaces[h.name]
}

func (h *nsHandle) materialize() *namespace {
	ns := h.store.namespaces[h.name]
	if ns == nil {
		ns = &namespace{collections: make(map[string]*collection)}
		h.store.namespaces[h.name] = ns
	}
	return ns
}

func (h *nsHandle) Collection(name string) docstore.Collection {
	return &colHandle{ns: h, name: name}
}

func (h *nsHandle) ListCollections(context.Context) ([]string, error) {
	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	ns := h.lookup()
	if ns == nil {
		return nil, nil
	}
	names := make([]string, len(ns.order))
	copy(names, ns.order)
	return names, nil
}

func (h *nsHandle) HasCollection(_ context.Context, name string) (bool, error) {
	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	ns := h.lookup()
	if ns == nil {
		return false, nil
	}
	_, ok := ns.collections[name]
	return ok, nil
}

func (h *nsHandle) Drop(context.Context) error {
	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	delete(h.store.namespaces, h.name)
	return nil
}

type colHandle struct {
	ns   *nsHandle
	name string
}

func (h *colHandle) Name() string { return h.name }

func (h *colHandle) lookup() *collection {
	ns := h.ns.lookup()
	if ns == nil {
		return nil
	}
	return ns.collections[h.name]
}

func (h *colHandle) materialize() *collection {
	ns := h.ns.materialize()
	col := ns.collections[h.name]
	if col == nil {
		col = &collection{}
		ns.collections[h.name] = col
		ns.order = append(ns.order, h.name)
	}
	return col
}

func (h *colHandle) InsertOne(_ context.Context, doc any) error {
	normalized, err := normalize(doc)
	if err != nil {
		return err
	}

	h.ns.store.mu.Lock()
	defer h.ns.store.mu.Unlock()

	col := h.materialize()
	for _, existing := range col.docs {
		if reflect.DeepEqual(existing["_id"], normalized["_id"]) {
			return fmt.Errorf("%w: _id", docstore.ErrDuplicateKey)
		}
		for _, field := range col.indexes {
			if reflect.DeepEqual(existing[field], normalized[field]) {
				return fmt.Errorf("%w: %s", docstore.ErrDuplicateKey, field)
			}
		}
	}
	col.docs = append(col.docs, normalized)
	return nil
}

func (h *colHandle) FindOne(_ context.Context, filter docstore.Filter, out any) error {
	nf, err := normalizeFilter(filter)
	if err != nil {
		return err
	}

	h.ns.store.mu.Lock()
	defer h.ns.store.mu.Unlock()

	col := h.lookup()
	if col == nil {
		return docstore.ErrNotFound
	}
	for _, doc := range col.docs {
		if matches(doc, nf) {
			return decode(doc, out)
		}
	}
	return docstore.ErrNotFound
}

func (h *colHandle) FindAll(_ context.Context, filter docstore.Filter, sortField string, out any) error {
	nf, err := normalizeFilter(filter)
	if err != nil {
		return err
	}

	h.ns.store.mu.Lock()
	defer h.ns.store.mu.Unlock()

	var found []map[string]any
	if col := h.lookup(); col != nil {
		for _, doc := range col.docs {
			if matches(doc, nf) {
				found = append(found, doc)
			}
		}
	}
	if sortField != "" {
		sort.SliceStable(found, func(i, j int) bool {
			return less(found[i][sortField], found[j][sortField])
		})
	}
	return decode(found, out)
}

func (h *colHandle) Count(_ context.Context, filter docstore.Filter) (int64, error) {
	nf, err := normalizeFilter(filter)
	if err != nil {
		return 0, err
	}

	h.ns.store.mu.Lock()
	defer h.ns.store.mu.Unlock()

	var n int64
	if col := h.lookup(); col != nil {
		for _, doc := range col.docs {
			if matches(doc, nf) {
				n++
			}
		}
	}
	return n, nil
}

func (h *colHandle) UpdateOne(_ context.Context, filter, set docstore.Filter) (int64, error) {
	nf, err := normalizeFilter(filter)
	if err != nil {
		return 0, err
	}
	ns, err := normalizeFilter(set)
	if err != nil {
		return 0, err
	}

	h.ns.store.mu.Lock()
	defer h.ns.store.mu.Unlock()

	col := h.lookup()
	if col == nil {
		return 0, nil
	}
	for _, doc := range col.docs {
		if matches(doc, nf) {
			for k, v := range ns {
				doc[k] = v
			}
			return 1, nil
		}
	}
	return 0, nil
}

func (h *colHandle) ReplaceOne(_ context.Context, filter docstore.Filter, doc any) (int64, error) {
	nf, err := normalizeFilter(filter)
	if err != nil {
		return 0, err
	}
	normalized, err := normalize(doc)
	if err != nil {
		return 0, err
	}

	h.ns.store.mu.Lock()
	defer h.ns.store.mu.Unlock()

	col := h.lookup()
	if col == nil {
		return 0, nil
	}
	for i, existing := range col.docs {
		if matches(existing, nf) {
			col.docs[i] = normalized
			return 1, nil
		}
	}
	return 0, nil
}

func (h *colHandle) DeleteOne(_ context.Context, filter docstore.Filter) (int64, error) {
	nf, err := normalizeFilter(filter)
	if err != nil {
		return 0, err
	}

	h.ns.store.mu.Lock()
	defer h.ns.store.mu.Unlock()

	col := h.lookup()
	if col == nil {
		return 0, nil
	}
	for i, doc := range col.docs {
		if matches(doc, nf) {
			col.docs = append(col.docs[:i], col.docs[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

func (h *colHandle) EnsureUniqueIndex(_ context.Context, field string) error {
	h.ns.store.mu.Lock()
	defer h.ns.store.mu.Unlock()

	col := h.materialize()
	for _, existing := range col.indexes {
		if existing == field {
			return nil
		}
	}
	col.indexes = append(col.indexes, field)
	return nil
}

func (h *colHandle) Drop(context.Context) error {
	h.ns.store.mu.Lock()
	defer h.ns.store.mu.Unlock()

	ns := h.ns.lookup()
	if ns == nil {
		return nil
	}
	delete(ns.collections, h.name)
	for i, name := range ns.order {
		if name == h.name {
			ns.order = append(ns.order[:i], ns.order[i+1:]...)
			break
		}
	}
	return nil
}

// normalize round-trips a value through JSON so stored documents and
// filter values share one representation (numbers become float64).
func normalize(doc any) (map[string]any, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func normalizeFilter(f docstore.Filter) (map[string]any, error) {
	if len(f) == 0 {
		return nil, nil
	}
	return normalize(map[string]any(f))
}

func decode(doc, out any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func matches(doc, filter map[string]any) bool {
	for k, want := range filter {
		if !reflect.DeepEqual(doc[k], want) {
			return false
		}
	}
	return true
}

func less(a, b any) bool {
	af, aok := a.(float64)
	bf, bok := b.(float64)
	if aok && bok {
		return af < bf
	}
	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		return as < bs
	}
	return false
}
