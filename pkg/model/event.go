package model

type EventType string

const (
	EventInsert EventType = "insert"
	EventUpdate EventType = "update"
)

type Table string

const (
	TableMessages Table = "messages"
	TableGuests   Table = "guests"
)

// Event is one row-change notification fanned out to subscribed clients.
// Exactly one of Message/Guest is set, matching Table.
//
// Delivery is at-least-once: the same logical change can arrive more than
// once, and changes to unrelated records can arrive out of order. Updates
// to the same record id within one subscription arrive in causal order.
type Event struct {
	Type    EventType `json:"type"`
	Table   Table     `json:"table"`
	Message *Message  `json:"message,omitempty"`
	Guest   *Guest    `json:"guest,omitempty"`
}

func MessageInserted(m Message) Event {
	return Event{Type: EventInsert, Table: TableMessages, Message: &m}
}

func MessageUpdated(m Message) Event {
	return Event{Type: EventUpdate, Table: TableMessages, Message: &m}
}

func GuestInserted(g Guest) Event {
	return Event{Type: EventInsert, Table: TableGuests, Guest: &g}
}

func GuestUpdated(g Guest) Event {
	return Event{Type: EventUpdate, Table: TableGuests, Guest: &g}
}
