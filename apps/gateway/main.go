package main

import (
	"flag"
	"log"
	"net/http"

	"github.com/mahaj/guestline/pkg/auth"
	"github.com/mahaj/guestline/pkg/config"
	"github.com/mahaj/guestline/pkg/logging"
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

	tokens := auth.NewManager(cfg.Auth.Secret, cfg.Auth.TokenTTL)

	hub := NewHub(cfg, logger)
	go hub.Run()

	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		serveWs(hub, tokens, w, r)
	})

	logger.Infow("gateway service starting", "addr", cfg.Gateway.Addr)
	if err := http.ListenAndServe(cfg.Gateway.Addr, nil); err != nil {
		logger.Fatalw("gateway server failed", "err", err)
	}
}
