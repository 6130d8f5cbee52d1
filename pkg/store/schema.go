package store

import (
	"fmt"

	"github.com/mahaj/guestline/pkg/db"
)

// EnsureKeyspace creates the keyspace through a session bound to the
// system keyspace. Schema creation lives here rather than in a migration
// tool; the tables are small and additive.
func EnsureKeyspace(sys *db.Session, keyspace string) error {
	q := fmt.Sprintf(`CREATE KEYSPACE IF NOT EXISTS %s WITH REPLICATION = { 'class' : 'SimpleStrategy', 'replication_factor' : 1 }`, keyspace)
	return sys.Query(q).Exec()
}

// EnsureSchema creates the message and guest tables.
//
// Messages cluster ascending by snowflake id, which is creation-ordered,
// so a partition scan yields created_at-ascending order with id as the
// tiebreak.
func EnsureSchema(session *db.Session) error {
	if err := session.Query(`CREATE TABLE IF NOT EXISTS messages (
		guest_name text,
		id bigint,
		sender text,
		content list<text>,
		content_type text,
		price double,
		is_locked boolean,
		is_delivered boolean,
		is_read boolean,
		is_unsent boolean,
		created_at timestamp,
		PRIMARY KEY (guest_name, id)
	) WITH CLUSTERING ORDER BY (id ASC)`).Exec(); err != nil {
		return fmt.Errorf("create messages table: %w", err)
	}

	if err := session.Query(`CREATE TABLE IF NOT EXISTS guests (
		username text PRIMARY KEY,
		last_activity timestamp,
		status text,
		read_receipts_enabled boolean,
		created_at timestamp
	)`).Exec(); err != nil {
		return fmt.Errorf("create guests table: %w", err)
	}

	return nil
}
