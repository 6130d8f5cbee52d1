package main

import (
	"context"
	"flag"
	"log"

	"github.com/mahaj/guestline/pkg/config"
	"github.com/mahaj/guestline/pkg/db"
	"github.com/mahaj/guestline/pkg/logging"
	"github.com/mahaj/guestline/pkg/push"
	"github.com/mahaj/guestline/pkg/store"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("init logging: %v", err)
	}
	defer logger.Sync()

	// Schema creation is handled here rather than by a migration tool;
	// the keyspace needs a session without a bound keyspace first.
	sysSession, err := db.NewSession(cfg.Scylla.Hosts, "system")
	if err != nil {
		logger.Fatalw("scylla system connect failed", "err", err)
	}
	if err := store.EnsureKeyspace(sysSession, cfg.Scylla.Keyspace); err != nil {
		logger.Fatalw("keyspace create failed", "err", err)
	}
	sysSession.Close()

	session, err := db.NewSession(cfg.Scylla.Hosts, cfg.Scylla.Keyspace)
	if err != nil {
		logger.Fatalw("scylla connect failed", "err", err)
	}
	defer session.Close()

	if err := store.EnsureSchema(session); err != nil {
		logger.Fatalw("schema create failed", "err", err)
	}

	applier := NewApplier(
		store.NewMessageStore(session),
		store.NewGuestStore(session),
		push.NewNotifier(cfg.Push.Endpoint, logger),
		logger,
	)

	consumer := NewConsumer(cfg, applier, logger)
	defer consumer.Close()

	logger.Infow("messaging service starting", "brokers", cfg.Kafka.Brokers)
	consumer.Consume(context.Background())
}
