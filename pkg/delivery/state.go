// Package delivery holds the message lifecycle rules shared by the store
// applier and the client sessions: Sent → Delivered → Read, with the
// orthogonal Unsent flag. All transitions are set-to-true, so replaying a
// transition on an already-advanced message is a no-op.
package delivery

import "github.com/mahaj/guestline/pkg/model"

// Deliver advances a message to delivered. Returns true if the message
// changed.
func Deliver(m *model.Message) bool {
	if m.IsDelivered {
		return false
	}
	m.IsDelivered = true
	return true
}

// Read advances a message to read. Read implies delivered, and writing
// both flags here keeps that invariant even when the delivered and read
// transitions race or arrive out of order.
func Read(m *model.Message) bool {
	changed := false
	if !m.IsDelivered {
		m.IsDelivered = true
		changed = true
	}
	if !m.IsRead {
		m.IsRead = true
		changed = true
	}
	return changed
}

// CanUnsend reports whether actor may retract the message: only the
// original sender, and only while it is not already retracted.
func CanUnsend(m model.Message, actor model.Sender) bool {
	return m.Sender == actor && !m.IsUnsent
}

// Unsend retracts the message if actor is allowed to. An unauthorized
// attempt is a silent no-op, not an error.
func Unsend(m *model.Message, actor model.Sender) bool {
	if !CanUnsend(*m, actor) {
		return false
	}
	m.IsUnsent = true
	return true
}

// Merge folds a newer copy of the same message into dst, honoring flag
// monotonicity: a stale event can never clear a flag that a racing write
// already set.
func Merge(dst *model.Message, src model.Message) {
	dst.IsDelivered = dst.IsDelivered || src.IsDelivered
	dst.IsRead = dst.IsRead || src.IsRead
	dst.IsUnsent = dst.IsUnsent || src.IsUnsent
	if dst.IsRead {
		dst.IsDelivered = true
	}
	// Unlocking is the one flag that moves true -> false, by explicit
	// viewer action; take the latest value.
	dst.IsLocked = src.IsLocked
}

// VisibleTo reports whether viewer should see the message at all. The
// admin sees everything, including retracted messages (rendered with a
// retracted marker); guests never see unsent messages.
func VisibleTo(m model.Message, viewer model.Sender) bool {
	if viewer == model.SenderAdmin {
		return true
	}
	return !m.IsUnsent
}

// Tick is the receipt indicator the sending party sees next to a message.
type Tick int

const (
	TickNone Tick = iota
	TickSent
	TickDelivered
	TickRead
)

// TickFor returns the receipt tick to render for a message authored by
// viewer. When the guest has read receipts disabled, the flags keep being
// tracked internally (the admin badge depends on them) but the tick shown
// to the counterpart never advances past sent.
func TickFor(m model.Message, viewer model.Sender, receiptsEnabled bool) Tick {
	if m.Sender != viewer || m.IsUnsent {
		return TickNone
	}
	if !receiptsEnabled {
		return TickSent
	}
	switch {
	case m.IsRead:
		return TickRead
	case m.IsDelivered:
		return TickDelivered
	default:
		return TickSent
	}
}
