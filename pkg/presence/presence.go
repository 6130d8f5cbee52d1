// Package presence derives online status from heartbeat timestamps and
// runs the guest-side heartbeat loop. Presence is eventually-consistent
// soft state: true status can lag by up to one heartbeat period plus the
// online window.
package presence

import "time"

const (
	// DefaultHeartbeatInterval is how often a mounted guest client
	// refreshes its last_activity timestamp.
	DefaultHeartbeatInterval = 30 * time.Second

	// DefaultOnlineWindow is the recency threshold for classifying a
	// guest as online.
	DefaultOnlineWindow = 2 * time.Minute
)

// Online classifies a guest from its last heartbeat. A nil timestamp means
// the guest departed cleanly (or never joined) and is offline. The explicit
// status column is deliberately not consulted; the timestamp is the
// canonical signal.
func Online(lastActivity *time.Time, now time.Time, window time.Duration) bool {
	if lastActivity == nil {
		return false
	}
	if window <= 0 {
		window = DefaultOnlineWindow
	}
	return now.Sub(*lastActivity) <= window
}
