package main

import (
	"flag"
	"log"
	"net/http"

	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"

	"github.com/mahaj/guestline/pkg/auth"
	"github.com/mahaj/guestline/pkg/blob"
	"github.com/mahaj/guestline/pkg/config"
	"github.com/mahaj/guestline/pkg/db"
	"github.com/mahaj/guestline/pkg/logging"
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

	session, err := db.NewSession(cfg.Scylla.Hosts, cfg.Scylla.Keyspace)
	if err != nil {
		logger.Fatalw("scylla connect failed", "err", err)
	}
	defer session.Close()

	messages := store.NewMessageStore(session)
	guests := store.NewGuestStore(session)

	rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
	defer rdb.Close()

	// Join writes the guest row itself but still announces it on the
	// changes topic so open dashboards see the new conversation live.
	changes := &kafka.Writer{
		Addr:     kafka.TCP(cfg.Kafka.Brokers...),
		Topic:    cfg.Kafka.ChangesTopic,
		Balancer: &kafka.LeastBytes{},
	}
	defer changes.Close()

	tokens := auth.NewManager(cfg.Auth.Secret, cfg.Auth.TokenTTL)
	admin := auth.AdminCredentials{Username: cfg.Auth.AdminUsername, Password: cfg.Auth.AdminPassword}
	uploader := blob.NewUploader(cfg.Blob.Endpoint)

	// Public endpoints
	http.Handle("/join", CORSMiddleware(JoinHandler(guests, changes, tokens, logger)))
	http.Handle("/login", CORSMiddleware(LoginHandler(admin, tokens)))

	// Protected endpoints
	http.Handle("/history", CORSMiddleware(AuthMiddleware(tokens, HistoryHandler(messages))))
	http.Handle("/guests", CORSMiddleware(AuthMiddleware(tokens, GuestsHandler(guests))))
	http.Handle("/guests/unread", CORSMiddleware(AuthMiddleware(tokens, UnreadCountsHandler(messages))))
	http.Handle("/guests/", CORSMiddleware(AuthMiddleware(tokens, ConnectionsHandler(rdb, logger))))
	http.Handle("/upload", CORSMiddleware(AuthMiddleware(tokens, UploadHandler(uploader, logger))))

	logger.Infow("api service starting", "addr", cfg.API.Addr)
	if err := http.ListenAndServe(cfg.API.Addr, nil); err != nil {
		logger.Fatalw("api server failed", "err", err)
	}
}
