package delivery

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mahaj/guestline/pkg/model"
)

func TestDeliverIsIdempotent(t *testing.T) {
	m := model.Message{Sender: model.SenderGuest}

	assert.True(t, Deliver(&m))
	assert.True(t, m.IsDelivered)

	assert.False(t, Deliver(&m), "second delivery must be a no-op")
	assert.True(t, m.IsDelivered)
}

func TestReadImpliesDelivered(t *testing.T) {
	m := model.Message{Sender: model.SenderAdmin}

	assert.True(t, Read(&m))
	assert.True(t, m.IsDelivered, "reading an undelivered message must set both flags")
	assert.True(t, m.IsRead)

	assert.False(t, Read(&m))
}

func TestReadAfterDeliver(t *testing.T) {
	m := model.Message{Sender: model.SenderAdmin}
	Deliver(&m)

	assert.True(t, Read(&m))
	assert.True(t, m.IsRead)
}

func TestUnsendOnlyBySender(t *testing.T) {
	m := model.Message{Sender: model.SenderGuest}

	assert.False(t, Unsend(&m, model.SenderAdmin), "counterpart cannot retract")
	assert.False(t, m.IsUnsent)

	assert.True(t, Unsend(&m, model.SenderGuest))
	assert.True(t, m.IsUnsent)

	assert.False(t, Unsend(&m, model.SenderGuest), "already retracted")
}

func TestUnsendOrthogonalToDelivery(t *testing.T) {
	m := model.Message{Sender: model.SenderGuest, IsDelivered: true, IsRead: true}

	assert.True(t, Unsend(&m, model.SenderGuest))
	assert.True(t, m.IsDelivered, "retraction must not clear delivery state")
	assert.True(t, m.IsRead)
}

func TestMergeNeverClearsFlags(t *testing.T) {
	dst := model.Message{ID: 1, Sender: model.SenderGuest, IsDelivered: true, IsRead: true}
	stale := model.Message{ID: 1, Sender: model.SenderGuest}

	Merge(&dst, stale)

	assert.True(t, dst.IsDelivered)
	assert.True(t, dst.IsRead)
}

func TestMergeRepairsReadWithoutDelivered(t *testing.T) {
	dst := model.Message{ID: 1, Sender: model.SenderGuest}
	src := model.Message{ID: 1, Sender: model.SenderGuest, IsRead: true}

	Merge(&dst, src)

	assert.True(t, dst.IsRead)
	assert.True(t, dst.IsDelivered)
}

func TestMergeTakesLatestLockState(t *testing.T) {
	dst := model.Message{ID: 1, Sender: model.SenderAdmin, IsLocked: true}
	unlocked := model.Message{ID: 1, Sender: model.SenderAdmin, IsLocked: false}

	Merge(&dst, unlocked)

	assert.False(t, dst.IsLocked, "unlock is an explicit viewer action and must stick")
}

func TestVisibleTo(t *testing.T) {
	retracted := model.Message{Sender: model.SenderAdmin, IsUnsent: true}

	assert.True(t, VisibleTo(retracted, model.SenderAdmin), "admin sees retracted rows")
	assert.False(t, VisibleTo(retracted, model.SenderGuest))

	normal := model.Message{Sender: model.SenderAdmin}
	assert.True(t, VisibleTo(normal, model.SenderGuest))
}

func TestTickForOwnMessages(t *testing.T) {
	m := model.Message{Sender: model.SenderGuest}

	assert.Equal(t, TickSent, TickFor(m, model.SenderGuest, true))

	m.IsDelivered = true
	assert.Equal(t, TickDelivered, TickFor(m, model.SenderGuest, true))

	m.IsRead = true
	assert.Equal(t, TickRead, TickFor(m, model.SenderGuest, true))
}

func TestTickForCounterpartMessage(t *testing.T) {
	m := model.Message{Sender: model.SenderAdmin, IsRead: true}
	assert.Equal(t, TickNone, TickFor(m, model.SenderGuest, true))
}

func TestTickCapsAtSentWithoutReceipts(t *testing.T) {
	m := model.Message{Sender: model.SenderAdmin, IsDelivered: true, IsRead: true}
	assert.Equal(t, TickSent, TickFor(m, model.SenderAdmin, false))
}

func TestTickForRetractedMessage(t *testing.T) {
	m := model.Message{Sender: model.SenderGuest, IsUnsent: true, IsRead: true}
	assert.Equal(t, TickNone, TickFor(m, model.SenderGuest, true))
}
