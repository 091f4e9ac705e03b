package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

const (
	defaultMaxMessages = 20
	defaultMemoryTTL   = 2 * time.Hour
)

type listStore interface {
	AppendCapped(ctx context.Context, key string, max int64, ttl time.Duration, values ...any) error
	LRange(ctx context.Context, key string, start, stop int64) ([]string, error)
	ConversationKey(userID, sessionID string) string
}

// Memory keeps conversation turns in a capped Redis list per user session.
type Memory struct {
	store       listStore
	maxMessages int64
	ttl         time.Duration
}

// NewMemory builds a conversation memory. Non-positive limits fall back to 20 messages and 2h.
func NewMemory(store listStore, maxMessages int, ttl time.Duration) (*Memory, error) {
	if store == nil {
		return nil, fmt.Errorf("memory store is required")
	}
	if maxMessages <= 0 {
		maxMessages = defaultMaxMessages
	}
	if ttl <= 0 {
		ttl = defaultMemoryTTL
	}
	return &Memory{store: store, maxMessages: int64(maxMessages), ttl: ttl}, nil
}

// Load returns the stored turns, oldest first. Entries that fail to decode are skipped.
func (m *Memory) Load(ctx context.Context, userID, sessionID string) ([]Message, error) {
	raw, err := m.store.LRange(ctx, m.store.ConversationKey(userID, sessionID), 0, -1)
	if err != nil {
		return nil, fmt.Errorf("load conversation: %w", err)
	}
	history := make([]Message, 0, len(raw))
	for _, entry := range raw {
		var msg Message
		if err := json.Unmarshal([]byte(entry), &msg); err != nil || msg.Role == "" {
			continue
		}
		history = append(history, msg)
	}
	return history, nil
}

// Append stores the messages, trims the list and refreshes its TTL.
func (m *Memory) Append(ctx context.Context, userID, sessionID string, messages ...Message) error {
	if len(messages) == 0 {
		return nil
	}
	values := make([]any, 0, len(messages))
	for _, msg := range messages {
		encoded, err := json.Marshal(msg)
		if err != nil {
			return fmt.Errorf("encode message: %w", err)
		}
		values = append(values, string(encoded))
	}
	if err := m.store.AppendCapped(ctx, m.store.ConversationKey(userID, sessionID), m.maxMessages, m.ttl, values...); err != nil {
		return fmt.Errorf("append conversation: %w", err)
	}
	return nil
}
