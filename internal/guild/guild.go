// Package guild implements guilds, their channels and the block-chunked
// message history. Each guild occupies its own store namespace: a
// reserved "config" collection holds the settings document and every
// other collection is a channel.
package guild

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/guildd/guildd/internal/docstore"
	"github.com/guildd/guildd/internal/wire"
)

// configCollection is the reserved collection name inside a guild
// namespace; it is never available as a channel name.
const configCollection = "config"

var (
	// ErrPermissionDenied: the actor is not an admin (or, for reads, not
	// a member) of the guild.
	ErrPermissionDenied = errors.New("guild: permission denied")
	// ErrNotFound: the guild has no config document.
	ErrNotFound = errors.New("guild: not found")
	// ErrChannelExists: a channel with that name already exists.
	ErrChannelExists = errors.New("guild: channel already exists")
	// ErrChannelNotFound: no channel with that name.
	ErrChannelNotFound = errors.New("guild: channel not found")
	// ErrInvalidChannelName: empty, reserved or unusable as a collection name.
	ErrInvalidChannelName = errors.New("guild: invalid channel name")
	// ErrEndOfChannel: the requested block index is past the last block.
	ErrEndOfChannel = errors.New("guild: end of channel")
)

type configDoc struct {
	ID     string   `bson:"_id" json:"_id"`
	Name   string   `bson:"name" json:"name"`
	Admins []string `bson:"admins" json:"admins"`
	Users  []string `bson:"users" json:"users"`
}

// Store mediates every guild namespace of the document store. It is
// safe for concurrent use; appends to one channel are serialized by a
// per-channel lock on top of the conditional replace in appendLocked.
type Store struct {
	store docstore.Store

	mu      sync.Mutex
	appends map[string]*sync.Mutex
}

func New(store docstore.Store) *Store {
	return &Store{
		store:   store,
		appends: make(map[string]*sync.Mutex),
	}
}

func (s *Store) namespace(guildID string) docstore.Namespace {
	return s.store.Namespace(guildID)
}

func (s *Store) config(ctx context.Context, guildID string) (*configDoc, error) {
	var conf configDoc
	err := s.namespace(guildID).Collection(configCollection).FindOne(ctx, docstore.Filter{}, &conf)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load guild config: %w", err)
	}
	return &conf, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// requireAdmin loads the config and checks the actor against the admin list.
func (s *Store) requireAdmin(ctx context.Context, guildID, actor string) error {
	conf, err := s.config(ctx, guildID)
	if err != nil {
		return err
	}
	if !contains(conf.Admins, actor) {
		return ErrPermissionDenied
	}
	return nil
}

// requireMember checks the actor against the member list; reads are
// allowed for members, not just admins.
func (s *Store) requireMember(ctx context.Context, guildID, actor string) error {
	conf, err := s.config(ctx, guildID)
	if err != nil {
		return err
	}
	if !contains(conf.Users, actor) {
		return ErrPermissionDenied
	}
	return nil
}

// Create mints a new guild id and writes the config document. The
// creator starts as both admin and member.
func (s *Store) Create(ctx context.Context, creator, name string) (string, error) {
	guildID := docstore.NewID()
	conf := configDoc{
		ID:     docstore.NewID(),
		Name:   name,
		Admins: []string{creator},
		Users:  []string{creator},
	}
	if err := s.namespace(guildID).Collection(configCollection).InsertOne(ctx, conf); err != nil {
		return "", fmt.Errorf("create guild: %w", err)
	}
	return guildID, nil
}

// Delete drops the whole guild namespace. Admin only.
func (s *Store) Delete(ctx context.Context, actor, guildID string) error {
	if err := s.requireAdmin(ctx, guildID, actor); err != nil {
		return err
	}
	if err := s.namespace(guildID).Drop(ctx); err != nil {
		return fmt.Errorf("delete guild: %w", err)
	}
	return nil
}

// Name returns the guild's display name.
func (s *Store) Name(ctx context.Context, guildID string) (string, error) {
	conf, err := s.config(ctx, guildID)
	if err != nil {
		return "", err
	}
	return conf.Name, nil
}

func validateChannelName(name string) error {
	if name == "" || name == configCollection {
		return ErrInvalidChannelName
	}
	for _, c := range name {
		if c == '$' || c == 0 {
			return ErrInvalidChannelName
		}
	}
	return nil
}

// CreateChannel creates a channel by inserting its opening block with
// the system message. Admin only; duplicate names are rejected.
func (s *Store) CreateChannel(ctx context.Context, actor, guildID, name string) error {
	if err := validateChannelName(name); err != nil {
		return err
	}
	if err := s.requireAdmin(ctx, guildID, actor); err != nil {
		return err
	}

	ns := s.namespace(guildID)
	exists, err := ns.HasCollection(ctx, name)
	if err != nil {
		return fmt.Errorf("create channel: %w", err)
	}
	if exists {
		return ErrChannelExists
	}

	col := ns.Collection(name)
	if err := col.EnsureUniqueIndex(ctx, "seq"); err != nil {
		return fmt.Errorf("create channel: %w", err)
	}
	opening := wire.Message{Content: wire.ChannelCreated, Author: wire.ServerAuthor}
	if err := col.InsertOne(ctx, newBlock(0, opening)); err != nil {
		return fmt.Errorf("create channel: %w", err)
	}
	return nil
}

// DeleteChannel drops a channel collection. Admin only.
func (s *Store) DeleteChannel(ctx context.Context, actor, guildID, name string) error {
	if err := validateChannelName(name); err != nil {
		return err
	}
	if err := s.requireAdmin(ctx, guildID, actor); err != nil {
		return err
	}

	ns := s.namespace(guildID)
	exists, err := ns.HasCollection(ctx, name)
	if err != nil {
		return fmt.Errorf("delete channel: %w", err)
	}
	if !exists {
		return ErrChannelNotFound
	}
	if err := ns.Collection(name).Drop(ctx); err != nil {
		return fmt.Errorf("delete channel: %w", err)
	}
	return nil
}

// ListChannels returns every collection in the guild namespace except
// the reserved config collection. Allowed for members.
func (s *Store) ListChannels(ctx context.Context, actor, guildID string) ([]string, error) {
	if err := s.requireMember(ctx, guildID, actor); err != nil {
		return nil, err
	}

	names, err := s.namespace(guildID).ListCollections(ctx)
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	channels := make([]string, 0, len(names))
	for _, n := range names {
		if n != configCollection {
			channels = append(channels, n)
		}
	}
	return channels, nil
}
