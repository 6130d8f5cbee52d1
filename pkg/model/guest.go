package model

import "time"

type GuestStatus string

const (
	StatusOnline  GuestStatus = "online"
	StatusOffline GuestStatus = "offline"
)

// Guest is one chat participant on the guest side. Username doubles as the
// conversation key; there is no separate conversation id.
//
// Status is written alongside LastActivity for compatibility with older
// dashboards, but online classification only ever derives from the
// timestamp (see pkg/presence). Do not branch on Status.
type Guest struct {
	Username            string      `json:"username"`
	LastActivity        *time.Time  `json:"last_activity,omitempty"`
	Status              GuestStatus `json:"status"`
	ReadReceiptsEnabled bool        `json:"read_receipts_enabled"`
	CreatedAt           time.Time   `json:"created_at"`
}
