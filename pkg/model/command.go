package model

import "time"

type CommandType string

const (
	CmdSendMessage   CommandType = "send_message"
	CmdMarkDelivered CommandType = "mark_delivered"
	CmdMarkRead      CommandType = "mark_read"
	CmdUnsend        CommandType = "unsend"
	CmdHeartbeat     CommandType = "heartbeat"
	CmdSetReceipts   CommandType = "set_receipts"
	CmdGoOffline     CommandType = "go_offline"
)

// Command is a client-initiated mutation. GuestName and Actor are stamped
// by the gateway from the connection's verified claims; values sent by the
// client are overwritten, never trusted.
type Command struct {
	Type      CommandType `json:"type"`
	GuestName string      `json:"guest_name"`
	Actor     Sender      `json:"actor"`

	// send_message: content fields; id and created_at are assigned at the
	// gateway before the command is produced.
	Message *Message `json:"message,omitempty"`

	// mark_delivered
	IDs []int64 `json:"ids,omitempty"`

	// unsend
	ID int64 `json:"id,omitempty"`

	// set_receipts
	Enabled bool `json:"enabled,omitempty"`

	// heartbeat
	At time.Time `json:"at,omitempty"`
}
