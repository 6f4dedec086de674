package memstore

import (
	"context"
	"errors"
	"testing"

	"github.com/guildd/guildd/internal/docstore"
)

type record struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
	Rank int64  `json:"rank"`
}

func TestInsertAndFind(t *testing.T) {
	ctx := context.Background()
	col := New().Namespace("ns").Collection("records")

	if err := col.InsertOne(ctx, record{ID: "a", Name: "first", Rank: 2}); err != nil {
		t.Fatalf("InsertOne: %v", err)
	}
	if err := col.InsertOne(ctx, record{ID: "b", Name: "second", Rank: 1}); err != nil {
		t.Fatalf("InsertOne: %v", err)
	}

	var got record
	if err := col.FindOne(ctx, docstore.Filter{"_id": "b"}, &got); err != nil {
		t.Fatalf("FindOne: %v", err)
	}
	if got.Name != "second" {
		t.Errorf("name = %q", got.Name)
	}

	if err := col.FindOne(ctx, docstore.Filter{"_id": "missing"}, &got); !errors.Is(err, docstore.ErrNotFound) {
		t.Errorf("missing doc: err = %v, want ErrNotFound", err)
	}
}

func TestDuplicateID(t *testing.T) {
	ctx := context.Background()
	col := New().Namespace("ns").Collection("records")

	if err := col.InsertOne(ctx, record{ID: "a"}); err != nil {
		t.Fatalf("InsertOne: %v", err)
	}
	if err := col.InsertOne(ctx, record{ID: "a"}); !errors.Is(err, docstore.ErrDuplicateKey) {
		t.Errorf("err = %v, want ErrDuplicateKey", err)
	}
}

func TestUniqueIndex(t *testing.T) {
	ctx := context.Background()
	col := New().Namespace("ns").Collection("records")

	if err := col.EnsureUniqueIndex(ctx, "name"); err != nil {
		t.Fatalf("EnsureUniqueIndex: %v", err)
	}
	if err := col.InsertOne(ctx, record{ID: "a", Name: "same"}); err != nil {
		t.Fatalf("InsertOne: %v", err)
	}
	if err := col.InsertOne(ctx, record{ID: "b", Name: "same"}); !errors.Is(err, docstore.ErrDuplicateKey) {
		t.Errorf("err = %v, want ErrDuplicateKey", err)
	}
}

func TestFindAllOrderAndSort(t *testing.T) {
	ctx := context.Background()
	col := New().Namespace("ns").Collection("records")

	for _, r := range []record{
		{ID: "a", Rank: 3},
		{ID: "b", Rank: 1},
		{ID: "c", Rank: 2},
	} {
		if err := col.InsertOne(ctx, r); err != nil {
			t.Fatalf("InsertOne: %v", err)
		}
	}

	var byInsertion []record
	if err := col.FindAll(ctx, nil, "", &byInsertion); err != nil {
		t.Fatalf("FindAll: %v", err)
	}
	if len(byInsertion) != 3 || byInsertion[0].ID != "a" || byInsertion[2].ID != "c" {
		t.Errorf("insertion order = %+v", byInsertion)
	}

	var byRank []record
	if err := col.FindAll(ctx, nil, "rank", &byRank); err != nil {
		t.Fatalf("FindAll sorted: %v", err)
	}
	if byRank[0].ID != "b" || byRank[1].ID != "c" || byRank[2].ID != "a" {
		t.Errorf("rank order = %+v", byRank)
	}
}

func TestUpdateReplaceDelete(t *testing.T) {
	ctx := context.Background()
	col := New().Namespace("ns").Collection("records")

	if err := col.InsertOne(ctx, record{ID: "a", Name: "before", Rank: 1}); err != nil {
		t.Fatalf("InsertOne: %v", err)
	}

	n, err := col.UpdateOne(ctx, docstore.Filter{"_id": "a"}, docstore.Filter{"name": "after"})
	if err != nil || n != 1 {
		t.Fatalf("UpdateOne: n=%d err=%v", n, err)
	}
	var got record
	if err := col.FindOne(ctx, docstore.Filter{"_id": "a"}, &got); err != nil || got.Name != "after" {
		t.Fatalf("after update: %+v err=%v", got, err)
	}

	n, err = col.ReplaceOne(ctx, docstore.Filter{"_id": "a", "rank": 1}, record{ID: "a", Name: "replaced", Rank: 2})
	if err != nil || n != 1 {
		t.Fatalf("ReplaceOne: n=%d err=%v", n, err)
	}

	// Filter no longer matches after the replace.
	n, err = col.ReplaceOne(ctx, docstore.Filter{"_id": "a", "rank": 1}, record{ID: "a"})
	if err != nil || n != 0 {
		t.Fatalf("stale ReplaceOne: n=%d err=%v", n, err)
	}

	n, err = col.DeleteOne(ctx, docstore.Filter{"_id": "a"})
	if err != nil || n != 1 {
		t.Fatalf("DeleteOne: n=%d err=%v", n, err)
	}
	n, err = col.DeleteOne(ctx, docstore.Filter{"_id": "a"})
	if err != nil || n != 0 {
		t.Fatalf("second DeleteOne: n=%d err=%v", n, err)
	}
}

func TestNamespaceLifecycle(t *testing.T) {
	ctx := context.Background()
	store := New()
	ns := store.Namespace("guild1")

	// Nothing exists until an insert or index creation.
	ok, err := ns.HasCollection(ctx, "general")
	if err != nil || ok {
		t.Fatalf("HasCollection before insert: ok=%v err=%v", ok, err)
	}

	if err := ns.Collection("general").InsertOne(ctx, record{ID: "a"}); err != nil {
		t.Fatalf("InsertOne: %v", err)
	}
	if err := ns.Collection("config").InsertOne(ctx, record{ID: "b"}); err != nil {
		t.Fatalf("InsertOne: %v", err)
	}

	names, err := ns.ListCollections(ctx)
	if err != nil {
		t.Fatalf("ListCollections: %v", err)
	}
	if len(names) != 2 || names[0] != "general" || names[1] != "config" {
		t.Errorf("collections = %v", names)
	}

	if err := ns.Collection("general").Drop(ctx); err != nil {
		t.Fatalf("Drop collection: %v", err)
	}
	ok, err = ns.HasCollection(ctx, "general")
	if err != nil || ok {
		t.Errorf("HasCollection after drop: ok=%v err=%v", ok, err)
	}

	if err := ns.Drop(ctx); err != nil {
		t.Fatalf("Drop namespace: %v", err)
	}
	names, err = ns.ListCollections(ctx)
	if err != nil || len(names) != 0 {
		t.Errorf("after namespace drop: %v err=%v", names, err)
	}
}
