package main

import (
	"log"

	"github.com/mahaj/guestline/pkg/db"
)

func main() {
	scyllaHosts := []string{"localhost:9042"}
	keyspace := "guestline"

	session, err := db.NewSession(scyllaHosts, keyspace)
	if err != nil {
		log.Fatalf("Failed to connect to ScyllaDB: %v", err)
	}
	defer session.Close()

	for _, table := range []string{"messages", "guests"} {
		log.Printf("Dropping table %s...", table)
		if err := session.Query("DROP TABLE IF EXISTS " + table).Exec(); err != nil {
			log.Fatalf("Failed to drop table %s: %v", table, err)
		}
	}
	log.Println("Tables dropped successfully.")
}
