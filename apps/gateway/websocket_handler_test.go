package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mahaj/guestline/pkg/auth"
	"github.com/mahaj/guestline/pkg/model"
)

func TestSanitizeGuestForcesOwnConversation(t *testing.T) {
	cmd := model.Command{Type: model.CmdSendMessage, GuestName: "someone_else", Actor: model.SenderAdmin}

	assert.True(t, sanitize(&cmd, "alice", auth.RoleGuest))
	assert.Equal(t, "alice", cmd.GuestName, "payload claims are overwritten")
	assert.Equal(t, model.SenderGuest, cmd.Actor)
}

func TestSanitizeGuestAllowsPresenceCommands(t *testing.T) {
	for _, typ := range []model.CommandType{
		model.CmdHeartbeat, model.CmdGoOffline, model.CmdSetReceipts,
		model.CmdMarkDelivered, model.CmdMarkRead, model.CmdUnsend,
	} {
		cmd := model.Command{Type: typ}
		assert.True(t, sanitize(&cmd, "alice", auth.RoleGuest), "guest command %s", typ)
		assert.Equal(t, "alice", cmd.GuestName)
	}
}

func TestSanitizeAdminRequiresTargetConversation(t *testing.T) {
	cmd := model.Command{Type: model.CmdSendMessage}
	assert.False(t, sanitize(&cmd, "admin", auth.RoleAdmin), "no target conversation")

	cmd = model.Command{Type: model.CmdMarkRead, GuestName: "alice"}
	assert.True(t, sanitize(&cmd, "admin", auth.RoleAdmin))
	assert.Equal(t, model.SenderAdmin, cmd.Actor)
	assert.Equal(t, "alice", cmd.GuestName, "admin target is preserved")
}

func TestSanitizeAdminCannotFakePresence(t *testing.T) {
	for _, typ := range []model.CommandType{
		model.CmdHeartbeat, model.CmdGoOffline, model.CmdSetReceipts,
	} {
		cmd := model.Command{Type: typ, GuestName: "alice"}
		assert.False(t, sanitize(&cmd, "admin", auth.RoleAdmin), "admin command %s", typ)
	}
}

func TestSanitizeStripsGuestMonetization(t *testing.T) {
	price := 9.99
	cmd := model.Command{
		Type:    model.CmdSendMessage,
		Message: &model.Message{Content: model.TextContent("hi"), Price: &price, IsLocked: true},
	}

	assert.True(t, sanitize(&cmd, "alice", auth.RoleGuest))
	assert.Nil(t, cmd.Message.Price, "only the admin sends monetized content")
	assert.False(t, cmd.Message.IsLocked)
}

func TestSanitizeKeepsAdminMonetization(t *testing.T) {
	price := 9.99
	cmd := model.Command{
		Type:      model.CmdSendMessage,
		GuestName: "alice",
		Message:   &model.Message{Content: model.TextContent("pic"), Price: &price, IsLocked: true},
	}

	assert.True(t, sanitize(&cmd, "admin", auth.RoleAdmin))
	assert.Equal(t, price, *cmd.Message.Price)
	assert.True(t, cmd.Message.IsLocked)
}

func TestSanitizeRejectsUnknownCommand(t *testing.T) {
	cmd := model.Command{Type: "drop_tables"}
	assert.False(t, sanitize(&cmd, "alice", auth.RoleGuest))
	assert.False(t, sanitize(&cmd, "admin", auth.RoleAdmin))
}
