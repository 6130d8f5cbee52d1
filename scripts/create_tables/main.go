package main

import (
	"log"

	"github.com/mahaj/guestline/pkg/db"
	"github.com/mahaj/guestline/pkg/store"
)

func main() {
	scyllaHosts := []string{"localhost:9042"}
	keyspace := "guestline"

	sys, err := db.NewSession(scyllaHosts, "system")
	if err != nil {
		log.Fatalf("Failed to connect to ScyllaDB: %v", err)
	}
	if err := store.EnsureKeyspace(sys, keyspace); err != nil {
		log.Fatalf("Failed to create keyspace: %v", err)
	}
	sys.Close()

	session, err := db.NewSession(scyllaHosts, keyspace)
	if err != nil {
		log.Fatalf("Failed to connect to keyspace %s: %v", keyspace, err)
	}
	defer session.Close()

	if err := store.EnsureSchema(session); err != nil {
		log.Fatalf("Failed to create tables: %v", err)
	}

	log.Println("Tables messages and guests created successfully")
}
