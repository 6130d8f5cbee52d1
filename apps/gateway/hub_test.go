package main

import (
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mahaj/guestline/pkg/auth"
	"github.com/mahaj/guestline/pkg/model"
)

func testHub() *Hub {
	return &Hub{
		conversations: make(map[string]map[*Client]bool),
		admins:        make(map[*Client]bool),
		// Unreachable on purpose; set maintenance failures are logged,
		// never load-bearing for registry state.
		redis: redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"}),
		log:   zap.NewNop().Sugar(),
	}
}

func guestEvent(guestName string) (model.Event, []byte) {
	ev := model.MessageInserted(model.Message{GuestName: guestName, Sender: model.SenderGuest})
	return ev, []byte(`{}`)
}

func TestFanoutDropUnregistersSlowGuest(t *testing.T) {
	h := testHub()
	slow := &Client{hub: h, send: make(chan []byte), username: "alice", role: auth.RoleGuest, conversation: "alice"}
	h.add(slow)
	require.Contains(t, h.conversations, "alice")

	ev, raw := guestEvent("alice")
	h.fanout(ev, raw)

	// The full unregister ran: registry entry gone, empty conversation
	// map cleaned up, send channel closed.
	assert.NotContains(t, h.conversations, "alice")
	_, open := <-slow.send
	assert.False(t, open)
}

func TestFanoutDropUnregistersSlowAdmin(t *testing.T) {
	h := testHub()
	slow := &Client{hub: h, send: make(chan []byte), username: "admin", role: auth.RoleAdmin}
	h.add(slow)
	require.Contains(t, h.admins, slow)

	ev, raw := guestEvent("alice")
	h.fanout(ev, raw)

	assert.NotContains(t, h.admins, slow)
	_, open := <-slow.send
	assert.False(t, open)
}

func TestFanoutDeliversAndKeepsHealthyClients(t *testing.T) {
	h := testHub()
	guest := &Client{hub: h, send: make(chan []byte, 1), username: "alice", role: auth.RoleGuest, conversation: "alice"}
	admin := &Client{hub: h, send: make(chan []byte, 1), username: "admin", role: auth.RoleAdmin}
	h.add(guest)
	h.add(admin)

	ev, raw := guestEvent("alice")
	h.fanout(ev, raw)

	assert.Equal(t, raw, <-guest.send)
	assert.Equal(t, raw, <-admin.send)
	assert.Contains(t, h.conversations, "alice")
	assert.Contains(t, h.admins, admin)
}

func TestRemoveAfterFanoutDropIsANoop(t *testing.T) {
	h := testHub()
	slow := &Client{hub: h, send: make(chan []byte), username: "alice", role: auth.RoleGuest, conversation: "alice"}
	h.add(slow)

	ev, raw := guestEvent("alice")
	h.fanout(ev, raw)

	// The readPump teardown still funnels through unregister; a second
	// removal must not double-close the channel.
	assert.NotPanics(t, func() { h.remove(slow) })
}
