// Package user implements the user collection: sign-up, credential
// checks, online status and guild membership. Passwords are stored as
// argon2id hashes; the username carries a unique index.
package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/guildd/guildd/internal/docstore"
)

// ErrUsernameTaken is returned by Create when the unique username index
// rejects the insert.
var ErrUsernameTaken = errors.New("user: username taken")

// ErrNotFound is returned when no user has the given id.
var ErrNotFound = errors.New("user: not found")

// User is the safe view of a user record; the password hash never
// leaves this package.
type User struct {
	ID       string
	Username string
	Online   bool
	Guilds   []string
}

// sensitiveUser is the stored document, password hash included.
type sensitiveUser struct {
	ID       string   `bson:"_id" json:"_id"`
	Username string   `bson:"username" json:"username"`
	Password string   `bson:"password" json:"password"`
	Online   bool     `bson:"is_online" json:"is_online"`
	Guilds   []string `bson:"servers" json:"servers"`
}

func (u *sensitiveUser) toUser() *User {
	return &User{
		ID:       u.ID,
		Username: u.Username,
		Online:   u.Online,
		Guilds:   u.Guilds,
	}
}

type Store struct {
	col docstore.Collection
}

func New(ns docstore.Namespace) *Store {
	return &Store{col: ns.Collection("users")}
}

// EnsureIndexes creates the unique username index. Called once at startup.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	return s.col.EnsureUniqueIndex(ctx, "username")
}

// Create allocates a new id and inserts the user.
func (s *Store) Create(ctx context.Context, username, password string, online bool) (string, error) {
	hash, err := hashPassword(password)
	if err != nil {
		return "", fmt.Errorf("create user: %w", err)
	}

	doc := sensitiveUser{
		ID:       docstore.NewID(),
		Username: username,
		Password: hash,
		Online:   online,
		Guilds:   []string{},
	}
	if err := s.col.InsertOne(ctx, doc); err != nil {
		if errors.Is(err, docstore.ErrDuplicateKey) {
			return "", ErrUsernameTaken
		}
		return "", fmt.Errorf("create user: %w", err)
	}
	return doc.ID, nil
}

func (s *Store) getSensitive(ctx context.Context, id string) (*sensitiveUser, error) {
	var doc sensitiveUser
	err := s.col.FindOne(ctx, docstore.Filter{"_id": id}, &doc)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// Get fetches a user by id.
func (s *Store) Get(ctx context.Context, id string) (*User, error) {
	doc, err := s.getSensitive(ctx, id)
	if err != nil {
		return nil, err
	}
	return doc.toUser(), nil
}

// FindByName returns every user with the given username. With the
// unique index this is zero or one users; the plural form is kept for
// forward compatibility.
func (s *Store) FindByName(ctx context.Context, username string) ([]User, error) {
	var docs []sensitiveUser
	if err := s.col.FindAll(ctx, docstore.Filter{"username": username}, "", &docs); err != nil {
		return nil, err
	}
	users := make([]User, 0, len(docs))
	for i := range docs {
		users = append(users, *docs[i].toUser())
	}
	return users, nil
}

// CheckCredentials reports whether a user with the given id exists and
// the username and password both match.
func (s *Store) CheckCredentials(ctx context.Context, id, username, password string) (bool, error) {
	doc, err := s.getSensitive(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if doc.Username != username {
		return false, nil
	}
	return verifyPassword(password, doc.Password)
}

// SetStatus updates the online flag.
func (s *Store) SetStatus(ctx context.Context, id string, online bool) error {
	matched, err := s.col.UpdateOne(ctx, docstore.Filter{"_id": id}, docstore.Filter{"is_online": online})
	if err != nil {
		return fmt.Errorf("set status: %w", err)
	}
	if matched == 0 {
		return ErrNotFound
	}
	return nil
}

// AddGuild appends a guild id to the user's guild list.
func (s *Store) AddGuild(ctx context.Context, id, guildID string) error {
	doc, err := s.getSensitive(ctx, id)
	if err != nil {
		return err
	}
	guilds := append(doc.Guilds, guildID)
	if _, err := s.col.UpdateOne(ctx, docstore.Filter{"_id": id}, docstore.Filter{"servers": guilds}); err != nil {
		return fmt.Errorf("add guild: %w", err)
	}
	return nil
}
