// Package session implements the time-limited session records behind
// the cookie check. A session reuses its owner's user id as _id, so the
// cookie a client presents addresses both the session and the user.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/guildd/guildd/internal/docstore"
)

// DefaultTTL is how long a session stays valid after it starts.
const DefaultTTL = 600 * time.Second

// Status is the outcome of an activity check.
type Status int

const (
	Active Status = iota
	Expired
	NotFound
)

func (s Status) String() string {
	switch s {
	case Active:
		return "active"
	case Expired:
		return "expired"
	case NotFound:
		return "not found"
	}
	return "unknown"
}

// sessionDoc stores the start instant in Unix nanoseconds so short TTLs
// are not at the mercy of whole-second truncation.
type sessionDoc struct {
	ID    string `bson:"_id" json:"_id"`
	Start int64  `bson:"start" json:"start"`
}

// Store manages the session collection. Expiry is lazy: expired records
// are deleted on first access, there is no background sweeper.
type Store struct {
	col docstore.Collection
	ttl time.Duration
	now func() time.Time
}

func New(ns docstore.Namespace, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		col: ns.Collection("sessions"),
		ttl: ttl,
		now: time.Now,
	}
}

// Start begins a session for the user. If an unexpired session already
// exists this is a no-op.
func (s *Store) Start(ctx context.Context, userID string) error {
	status, err := s.CheckActive(ctx, userID)
	if err != nil {
		return err
	}
	if status == Active {
		return nil
	}

	doc := sessionDoc{ID: userID, Start: s.now().UnixNano()}
	if err := s.col.InsertOne(ctx, doc); err != nil {
		// Lost a race against a concurrent Start for the same user; the
		// at-most-one-session invariant holds either way.
		if errors.Is(err, docstore.ErrDuplicateKey) {
			return nil
		}
		return fmt.Errorf("start session: %w", err)
	}
	return nil
}

// End deletes the user's session if present.
func (s *Store) End(ctx context.Context, userID string) error {
	if _, err := s.col.DeleteOne(ctx, docstore.Filter{"_id": userID}); err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	return nil
}

// CheckActive reports the session state for the user. An expired session
// is deleted before Expired is returned.
func (s *Store) CheckActive(ctx context.Context, userID string) (Status, error) {
	var doc sessionDoc
	err := s.col.FindOne(ctx, docstore.Filter{"_id": userID}, &doc)
	if errors.Is(err, docstore.ErrNotFound) {
		return NotFound, nil
	}
	if err != nil {
		return NotFound, fmt.Errorf("check session: %w", err)
	}

	if s.now().Sub(time.Unix(0, doc.Start)) > s.ttl {
		if err := s.End(ctx, userID); err != nil {
			return Expired, err
		}
		return Expired, nil
	}
	return Active, nil
}
