package user

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/guildd/guildd/internal/docstore/memstore"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := New(memstore.New().Namespace("USERS"))
	if err := s.EnsureIndexes(context.Background()); err != nil {
		t.Fatalf("EnsureIndexes: %v", err)
	}
	return s
}

func TestCreateAndGet(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	id, err := s.Create(ctx, "alice", "pw1", true)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(id) != 24 {
		t.Errorf("id = %q, want 24 hex chars", id)
	}

	u, err := s.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if u.Username != "alice" || !u.Online {
		t.Errorf("user = %+v", u)
	}
	if u.Guilds == nil || len(u.Guilds) != 0 {
		t.Errorf("guilds = %#v, want empty list", u.Guilds)
	}

	if _, err := s.Get(ctx, "000000000000000000000000"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get missing: %v, want ErrNotFound", err)
	}
}

func TestCreateDuplicateUsername(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if _, err := s.Create(ctx, "alice", "pw1", true); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := s.Create(ctx, "alice", "other", true); !errors.Is(err, ErrUsernameTaken) {
		t.Errorf("err = %v, want ErrUsernameTaken", err)
	}
}

func TestCheckCredentials(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	id, err := s.Create(ctx, "alice", "pw1", true)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	tests := []struct {
		name               string
		id, user, password string
		want               bool
	}{
		{"all match", id, "alice", "pw1", true},
		{"wrong password", id, "alice", "nope", false},
		{"wrong username", id, "bob", "pw1", false},
		{"unknown id", "000000000000000000000000", "alice", "pw1", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := s.CheckCredentials(ctx, tt.id, tt.user, tt.password)
			if err != nil {
				t.Fatalf("CheckCredentials: %v", err)
			}
			if ok != tt.want {
				t.Errorf("ok = %v, want %v", ok, tt.want)
			}
		})
	}
}

func TestSetStatus(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	id, err := s.Create(ctx, "alice", "pw1", true)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := s.SetStatus(ctx, id, false); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	u, err := s.Get(ctx, id)
	if err != nil || u.Online {
		t.Errorf("user = %+v err=%v, want offline", u, err)
	}

	if err := s.SetStatus(ctx, "000000000000000000000000", true); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing user: %v, want ErrNotFound", err)
	}
}

func TestAddGuild(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	id, err := s.Create(ctx, "alice", "pw1", true)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := s.AddGuild(ctx, id, "g1"); err != nil {
		t.Fatalf("AddGuild: %v", err)
	}
	if err := s.AddGuild(ctx, id, "g2"); err != nil {
		t.Fatalf("AddGuild: %v", err)
	}

	u, err := s.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(u.Guilds) != 2 || u.Guilds[0] != "g1" || u.Guilds[1] != "g2" {
		t.Errorf("guilds = %v", u.Guilds)
	}
}

func TestFindByName(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	id, err := s.Create(ctx, "alice", "pw1", false)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	found, err := s.FindByName(ctx, "alice")
	if err != nil {
		t.Fatalf("FindByName: %v", err)
	}
	if len(found) != 1 || found[0].ID != id {
		t.Errorf("found = %+v", found)
	}

	found, err = s.FindByName(ctx, "nobody")
	if err != nil || len(found) != 0 {
		t.Errorf("FindByName nobody: %v err=%v", found, err)
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := hashPassword("secret")
	if err != nil {
		t.Fatalf("hashPassword: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$") {
		t.Errorf("hash = %q", hash)
	}

	ok, err := verifyPassword("secret", hash)
	if err != nil || !ok {
		t.Errorf("verify correct: ok=%v err=%v", ok, err)
	}
	ok, err = verifyPassword("wrong", hash)
	if err != nil || ok {
		t.Errorf("verify wrong: ok=%v err=%v", ok, err)
	}

	if _, err := verifyPassword("x", "not-a-hash"); !errors.Is(err, errMalformedHash) {
		t.Errorf("malformed: %v", err)
	}

	// Salted, so two hashes of the same password differ.
	other, err := hashPassword("secret")
	if err != nil {
		t.Fatalf("hashPassword: %v", err)
	}
	if other == hash {
		t.Error("expected distinct salted hashes")
	}
}
