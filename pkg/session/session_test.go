package session

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mahaj/guestline/pkg/model"
	"github.com/mahaj/guestline/pkg/unread"
)

func TestMergeMessageInsertsInOrder(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	var messages []model.Message

	assert.False(t, mergeMessage(&messages, model.Message{ID: 2, CreatedAt: t0.Add(time.Second)}))
	assert.False(t, mergeMessage(&messages, model.Message{ID: 1, CreatedAt: t0}))
	assert.False(t, mergeMessage(&messages, model.Message{ID: 3, CreatedAt: t0.Add(2 * time.Second)}))

	require.Len(t, messages, 3)
	assert.Equal(t, int64(1), messages[0].ID)
	assert.Equal(t, int64(2), messages[1].ID)
	assert.Equal(t, int64(3), messages[2].ID)
}

func TestMergeMessageFoldsDuplicate(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	messages := []model.Message{{ID: 1, Sender: model.SenderGuest, CreatedAt: t0}}

	update := model.Message{ID: 1, Sender: model.SenderGuest, CreatedAt: t0, IsDelivered: true}
	assert.True(t, mergeMessage(&messages, update), "known id merges rather than inserts")

	require.Len(t, messages, 1)
	assert.True(t, messages[0].IsDelivered)
}

func TestMergeMessageKeepsFlagsOnStaleEvent(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	messages := []model.Message{{ID: 1, CreatedAt: t0, IsDelivered: true, IsRead: true}}

	stale := model.Message{ID: 1, CreatedAt: t0}
	mergeMessage(&messages, stale)

	assert.True(t, messages[0].IsDelivered)
	assert.True(t, messages[0].IsRead)
}

func TestIdsWhere(t *testing.T) {
	messages := []model.Message{
		{ID: 1, Sender: model.SenderAdmin, IsDelivered: true},
		{ID: 2, Sender: model.SenderAdmin},
		{ID: 3, Sender: model.SenderGuest},
		{ID: 4, Sender: model.SenderAdmin},
	}

	ids := idsWhere(messages, func(m model.Message) bool {
		return m.Sender == model.SenderAdmin && !m.IsDelivered
	})
	assert.Equal(t, []int64{2, 4}, ids)

	assert.Nil(t, idsWhere(nil, func(model.Message) bool { return true }))
}

func TestAdminBumpSkipsBootstrappedInserts(t *testing.T) {
	seeded := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s := &AdminSession{
		guests:   make(map[string]model.Guest),
		counter:  unread.NewCounter(),
		seededAt: seeded,
		notices:  make(chan Notice, 16),
	}
	s.counter.Bootstrap(map[string]int{"alice": 2})

	// An insert buffered on the stream while the bootstrap query ran: the
	// query already counted it.
	stale := model.MessageInserted(model.Message{
		ID: 1, GuestName: "alice", Sender: model.SenderGuest,
		CreatedAt: seeded.Add(-time.Second),
	})
	s.handleMessageEvent(context.Background(), stale)
	assert.Equal(t, 2, s.counter.Count("alice"), "bootstrapped insert must not bump again")

	fresh := model.MessageInserted(model.Message{
		ID: 2, GuestName: "alice", Sender: model.SenderGuest,
		CreatedAt: seeded.Add(time.Second),
	})
	s.handleMessageEvent(context.Background(), fresh)
	assert.Equal(t, 3, s.counter.Count("alice"))
}

func TestWatermarkRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "watermark")
	stamp := time.Date(2025, 6, 1, 12, 30, 45, 123456789, time.UTC)

	require.NoError(t, SaveWatermark(path, stamp))

	loaded, err := LoadWatermark(path)
	require.NoError(t, err)
	assert.True(t, stamp.Equal(loaded))
}

func TestWatermarkMissingFile(t *testing.T) {
	loaded, err := LoadWatermark(filepath.Join(t.TempDir(), "absent"))
	require.NoError(t, err)
	assert.True(t, loaded.IsZero())
}
