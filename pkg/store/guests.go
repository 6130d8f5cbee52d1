package store

import (
	"context"
	"time"

	"github.com/gocql/gocql"

	"github.com/mahaj/guestline/pkg/db"
	"github.com/mahaj/guestline/pkg/model"
)

// GuestStore persists one row per guest with the heartbeat timestamp and
// the redundant status column. The timestamp is the canonical presence
// signal; status is written for compatibility and never read back for
// classification.
type GuestStore struct {
	db *db.Session
}

func NewGuestStore(session *db.Session) *GuestStore {
	return &GuestStore{db: session}
}

// Join inserts the guest if the username is free. The conditional insert
// makes usernames unique at the boundary: a second join of the same name
// resumes the existing conversation instead of creating a shadow row.
// Returns the effective row and whether it was created by this call.
func (s *GuestStore) Join(ctx context.Context, username string, now time.Time) (model.Guest, bool, error) {
	g := model.Guest{
		Username:            username,
		LastActivity:        &now,
		Status:              model.StatusOnline,
		ReadReceiptsEnabled: true,
		CreatedAt:           now,
	}

	applied, err := s.db.Query(`INSERT INTO guests (username, last_activity, status, read_receipts_enabled, created_at)
		VALUES (?, ?, ?, ?, ?) IF NOT EXISTS`,
		g.Username, g.LastActivity, string(g.Status), g.ReadReceiptsEnabled, g.CreatedAt,
	).WithContext(ctx).MapScanCAS(map[string]interface{}{})
	if err != nil {
		return model.Guest{}, false, err
	}
	if applied {
		return g, true, nil
	}

	existing, err := s.Get(ctx, username)
	if err != nil {
		return model.Guest{}, false, err
	}
	return existing, false, nil
}

func (s *GuestStore) Get(ctx context.Context, username string) (model.Guest, error) {
	iter := s.db.Query(`SELECT username, last_activity, status, read_receipts_enabled, created_at
		FROM guests WHERE username = ?`, username).WithContext(ctx).Iter()

	g, ok := scanGuest(iter)
	if err := iter.Close(); err != nil {
		return model.Guest{}, err
	}
	if !ok {
		return model.Guest{}, gocql.ErrNotFound
	}
	return g, nil
}

func (s *GuestStore) List(ctx context.Context) ([]model.Guest, error) {
	iter := s.db.Query(`SELECT username, last_activity, status, read_receipts_enabled, created_at
		FROM guests`).WithContext(ctx).Iter()

	var guests []model.Guest
	for {
		g, ok := scanGuest(iter)
		if !ok {
			break
		}
		guests = append(guests, g)
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return guests, nil
}

// Heartbeat refreshes the activity timestamp. Last-write-wins at the field
// level; there is no read-modify-write to race with.
func (s *GuestStore) Heartbeat(ctx context.Context, username string, at time.Time) error {
	return s.db.Query(`UPDATE guests SET last_activity = ?, status = ? WHERE username = ?`,
		at, string(model.StatusOnline), username).WithContext(ctx).Exec()
}

// GoOffline is the best-effort departure write: clears the timestamp and
// mirrors the status column.
func (s *GuestStore) GoOffline(ctx context.Context, username string) error {
	return s.db.Query(`UPDATE guests SET last_activity = null, status = ? WHERE username = ?`,
		string(model.StatusOffline), username).WithContext(ctx).Exec()
}

func (s *GuestStore) SetReadReceipts(ctx context.Context, username string, enabled bool) error {
	return s.db.Query(`UPDATE guests SET read_receipts_enabled = ? WHERE username = ?`,
		enabled, username).WithContext(ctx).Exec()
}

func scanGuest(iter *gocql.Iter) (model.Guest, bool) {
	var (
		g            model.Guest
		status       string
		lastActivity *time.Time
	)
	if !iter.Scan(&g.Username, &lastActivity, &status, &g.ReadReceiptsEnabled, &g.CreatedAt) {
		return model.Guest{}, false
	}
	g.Status = model.GuestStatus(status)
	g.LastActivity = lastActivity
	return g, true
}
