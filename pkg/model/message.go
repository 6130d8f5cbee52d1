package model

import "time"

type Sender string

const (
	SenderGuest Sender = "guest"
	SenderAdmin Sender = "admin"
)

// Counterpart returns the other party of the two-sided conversation.
func (s Sender) Counterpart() Sender {
	if s == SenderGuest {
		return SenderAdmin
	}
	return SenderGuest
}

type ContentType string

const (
	ContentText  ContentType = "text"
	ContentImage ContentType = "image"
	ContentAudio ContentType = "audio"
	ContentVideo ContentType = "video"
)

// Message is one row of a conversation. The conversation key is GuestName;
// the admin is the implicit counterpart. Status flags are monotonic: once
// true they are never reset, so re-applying a transition is always safe.
type Message struct {
	ID          int64       `json:"id"`
	GuestName   string      `json:"guest_name"`
	Sender      Sender      `json:"sender"`
	Content     Content     `json:"content"`
	ContentType ContentType `json:"content_type"`
	Price       *float64    `json:"price,omitempty"`
	IsLocked    bool        `json:"is_locked"`
	IsDelivered bool        `json:"is_delivered"`
	IsRead      bool        `json:"is_read"`
	IsUnsent    bool        `json:"is_unsent"`
	CreatedAt   time.Time   `json:"created_at"`
}

// Before orders messages by creation time, ties broken by id. Snowflake ids
// are creation-ordered, so within one conversation this matches id order.
func (m Message) Before(other Message) bool {
	if !m.CreatedAt.Equal(other.CreatedAt) {
		return m.CreatedAt.Before(other.CreatedAt)
	}
	return m.ID < other.ID
}
