package guild

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/guildd/guildd/internal/docstore"
	"github.com/guildd/guildd/internal/wire"
)

// BlockSize is the message capacity of one history block.
const BlockSize = 50

// appendRetries bounds the compare-and-swap loop in Send.
const appendRetries = 5

// blockDoc is one chunk of a channel's history. seq is the block's
// 0-based position in the channel and carries a unique index; count
// mirrors len(messages) so the append can match on it.
type blockDoc struct {
	ID       string         `bson:"_id" json:"_id"`
	Seq      int64          `bson:"seq" json:"seq"`
	Created  int64          `bson:"created" json:"created"`
	Filled   bool           `bson:"filled" json:"filled"`
	Count    int            `bson:"count" json:"count"`
	Messages []wire.Message `bson:"messages" json:"messages"`
}

func newBlock(seq int64, msgs ...wire.Message) blockDoc {
	return blockDoc{
		ID:       docstore.NewID(),
		Seq:      seq,
		Created:  time.Now().Unix(),
		Filled:   len(msgs) >= BlockSize,
		Count:    len(msgs),
		Messages: msgs,
	}
}

// channelLock returns the per-channel append lock, creating it on first use.
func (s *Store) channelLock(guildID, channel string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := guildID + "/" + channel
	l := s.appends[key]
	if l == nil {
		l = new(sync.Mutex)
		s.appends[key] = l
	}
	return l
}

// Send appends a message to the channel's history. Membership is
// required; the author string is stamped by the caller.
func (s *Store) Send(ctx context.Context, actor, guildID, channel, content, author string) error {
	if err := validateChannelName(channel); err != nil {
		return err
	}
	if err := s.requireMember(ctx, guildID, actor); err != nil {
		return err
	}

	ns := s.namespace(guildID)
	exists, err := ns.HasCollection(ctx, channel)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	if !exists {
		return ErrChannelNotFound
	}

	lock := s.channelLock(guildID, channel)
	lock.Lock()
	defer lock.Unlock()

	msg := wire.Message{Content: content, Author: author}
	col := ns.Collection(channel)
	for range appendRetries {
		ok, err := s.appendOnce(ctx, col, msg)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}
	return fmt.Errorf("send message: append contention on %s/%s", guildID, channel)
}

// appendOnce attempts one append. It reports false when a concurrent
// writer moved the block under us and the attempt should be retried.
func (s *Store) appendOnce(ctx context.Context, col docstore.Collection, msg wire.Message) (bool, error) {
	var block blockDoc
	err := col.FindOne(ctx, docstore.Filter{"filled": false}, &block)
	if errors.Is(err, docstore.ErrNotFound) {
		// Every block is filled (or the channel lost its blocks to a
		// racing drop); open a new one. The unique seq index turns a
		// racing double-create into a retry.
		n, err := col.Count(ctx, docstore.Filter{})
		if err != nil {
			return false, fmt.Errorf("send message: %w", err)
		}
		insertErr := col.InsertOne(ctx, newBlock(n, msg))
		if errors.Is(insertErr, docstore.ErrDuplicateKey) {
			return false, nil
		}
		if insertErr != nil {
			return false, fmt.Errorf("send message: %w", insertErr)
		}
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("send message: %w", err)
	}

	observed := block.Count
	block.Messages = append(block.Messages, msg)
	block.Count = len(block.Messages)
	block.Filled = block.Count >= BlockSize

	// Conditional replace: only succeed against the pre-image we read.
	matched, err := col.ReplaceOne(ctx, docstore.Filter{
		"_id":    block.ID,
		"filled": false,
		"count":  observed,
	}, block)
	if err != nil {
		return false, fmt.Errorf("send message: %w", err)
	}
	return matched == 1, nil
}

// Block returns the messages of the block at the given index, in
// insertion order. Membership is required. Indexes past the last block
// yield ErrEndOfChannel.
func (s *Store) Block(ctx context.Context, actor, guildID, channel string, index uint32) ([]wire.Message, error) {
	if err := validateChannelName(channel); err != nil {
		return nil, err
	}
	if err := s.requireMember(ctx, guildID, actor); err != nil {
		return nil, err
	}

	ns := s.namespace(guildID)
	exists, err := ns.HasCollection(ctx, channel)
	if err != nil {
		return nil, fmt.Errorf("get block: %w", err)
	}
	if !exists {
		return nil, ErrChannelNotFound
	}

	var block blockDoc
	err = ns.Collection(channel).FindOne(ctx, docstore.Filter{"seq": index}, &block)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, ErrEndOfChannel
	}
	if err != nil {
		return nil, fmt.Errorf("get block: %w", err)
	}
	return block.Messages, nil
}
