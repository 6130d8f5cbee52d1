package store

import (
	"context"
	"time"

	"github.com/gocql/gocql"

	"github.com/mahaj/guestline/pkg/db"
	"github.com/mahaj/guestline/pkg/model"
)

// MessageStore persists conversation rows. The table is append-only except
// for the monotonic status flags and the soft-retract flag; content is
// never erased.
type MessageStore struct {
	db *db.Session
}

func NewMessageStore(session *db.Session) *MessageStore {
	return &MessageStore{db: session}
}

func (s *MessageStore) Insert(ctx context.Context, m model.Message) error {
	return s.db.Query(`INSERT INTO messages
		(guest_name, id, sender, content, content_type, price, is_locked, is_delivered, is_read, is_unsent, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.GuestName, m.ID, string(m.Sender), m.Content.Parts(), string(m.ContentType),
		m.Price, m.IsLocked, m.IsDelivered, m.IsRead, m.IsUnsent, m.CreatedAt,
	).WithContext(ctx).Exec()
}

// History returns the full conversation for a guest in display order.
func (s *MessageStore) History(ctx context.Context, guestName string) ([]model.Message, error) {
	iter := s.db.Query(`SELECT guest_name, id, sender, content, content_type, price, is_locked, is_delivered, is_read, is_unsent, created_at
		FROM messages WHERE guest_name = ?`, guestName).WithContext(ctx).Iter()

	var messages []model.Message
	for {
		m, ok := scanMessage(iter)
		if !ok {
			break
		}
		messages = append(messages, m)
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return messages, nil
}

// Get returns one message row.
func (s *MessageStore) Get(ctx context.Context, guestName string, id int64) (model.Message, error) {
	iter := s.db.Query(`SELECT guest_name, id, sender, content, content_type, price, is_locked, is_delivered, is_read, is_unsent, created_at
		FROM messages WHERE guest_name = ? AND id = ?`, guestName, id).WithContext(ctx).Iter()

	m, ok := scanMessage(iter)
	if err := iter.Close(); err != nil {
		return model.Message{}, err
	}
	if !ok {
		return model.Message{}, gocql.ErrNotFound
	}
	return m, nil
}

// MarkDelivered sets is_delivered on the given ids in one filtered update.
// Re-applying is a no-op; set-to-true tolerates duplicate delivery of the
// underlying change event.
func (s *MessageStore) MarkDelivered(ctx context.Context, guestName string, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	return s.db.Query(`UPDATE messages SET is_delivered = true WHERE guest_name = ? AND id IN ?`,
		guestName, ids).WithContext(ctx).Exec()
}

// MarkRead sets is_delivered and is_read together in one filtered update,
// preserving read ⇒ delivered under concurrent transitions.
func (s *MessageStore) MarkRead(ctx context.Context, guestName string, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	return s.db.Query(`UPDATE messages SET is_delivered = true, is_read = true WHERE guest_name = ? AND id IN ?`,
		guestName, ids).WithContext(ctx).Exec()
}

// Unsend soft-retracts a message, guarded by a conditional write on the
// sender column. A non-sender attempt matches zero rows: no mutation, no
// error, and the false return tells the caller to emit no change event.
func (s *MessageStore) Unsend(ctx context.Context, guestName string, id int64, actor model.Sender) (bool, error) {
	applied, err := s.db.Query(`UPDATE messages SET is_unsent = true WHERE guest_name = ? AND id = ? IF sender = ?`,
		guestName, id, string(actor)).WithContext(ctx).MapScanCAS(map[string]interface{}{})
	if err != nil {
		return false, err
	}
	return applied, nil
}

// UnreadCounts counts guest-sent messages created at or after the
// watermark, grouped by guest. Serves the admin session bootstrap. The
// dataset is one operator's inbox; ALLOW FILTERING on it is deliberate.
func (s *MessageStore) UnreadCounts(ctx context.Context, since time.Time) (map[string]int, error) {
	iter := s.db.Query(`SELECT guest_name FROM messages WHERE sender = 'guest' AND created_at >= ? ALLOW FILTERING`,
		since).WithContext(ctx).Iter()

	counts := make(map[string]int)
	var guestName string
	for iter.Scan(&guestName) {
		counts[guestName]++
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return counts, nil
}

func scanMessage(iter *gocql.Iter) (model.Message, bool) {
	var (
		m           model.Message
		sender      string
		contentType string
		parts       []string
		price       *float64
	)
	if !iter.Scan(&m.GuestName, &m.ID, &sender, &parts, &contentType, &price,
		&m.IsLocked, &m.IsDelivered, &m.IsRead, &m.IsUnsent, &m.CreatedAt) {
		return model.Message{}, false
	}
	m.Sender = model.Sender(sender)
	m.ContentType = model.ContentType(contentType)
	m.Content = model.ContentFromParts(parts)
	m.Price = price
	return m, true
}
