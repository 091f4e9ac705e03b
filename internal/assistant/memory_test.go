package assistant

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeLists mimics the capped list semantics of the redis client.
type fakeLists struct {
	lists map[string][]string
	ttls  map[string]time.Duration
}

func newFakeLists() *fakeLists {
	return &fakeLists{lists: map[string][]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeLists) AppendCapped(_ context.Context, key string, max int64, ttl time.Duration, values ...any) error {
	for _, v := range values {
		f.lists[key] = append(f.lists[key], v.(string))
	}
	if max > 0 && int64(len(f.lists[key])) > max {
		f.lists[key] = f.lists[key][int64(len(f.lists[key]))-max:]
	}
	f.ttls[key] = ttl
	return nil
}

func (f *fakeLists) LRange(_ context.Context, key string, _, _ int64) ([]string, error) {
	return append([]string(nil), f.lists[key]...), nil
}

func (f *fakeLists) ConversationKey(userID, sessionID string) string {
	return "conv:" + userID + ":" + sessionID
}

func TestMemoryAppendAndLoad(t *testing.T) {
	store := newFakeLists()
	mem, err := NewMemory(store, 4, time.Hour)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, mem.Append(t.Context(), "u1", "s1",
			Message{Role: RoleUser, Content: "q"},
			Message{Role: RoleAssistant, Content: "a"},
		))
	}

	history, err := mem.Load(t.Context(), "u1", "s1")
	require.NoError(t, err)
	assert.Len(t, history, 4)
	assert.Equal(t, time.Hour, store.ttls["conv:u1:s1"])

	other, err := mem.Load(t.Context(), "u1", "s2")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestMemorySkipsUndecodableEntries(t *testing.T) {
	store := newFakeLists()
	store.lists["conv:u1:s1"] = []string{"not json", `{"role":"user","content":"hello"}`}
	mem, err := NewMemory(store, 0, 0)
	require.NoError(t, err)
	assert.EqualValues(t, defaultMaxMessages, mem.maxMessages)
	assert.Equal(t, defaultMemoryTTL, mem.ttl)

	history, err := mem.Load(t.Context(), "u1", "s1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "hello", history[0].Content)
}
