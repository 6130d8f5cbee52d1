package main

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ConnectionsHandler lists usernames with a live gateway connection for a
// conversation. Route: /guests/{name}/connections. This reflects open
// sockets, not presence; online classification stays timestamp-derived.
func ConnectionsHandler(rdb *redis.Client, log *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Simple path parsing, same shape as /guests/{name}/connections
		pathParts := strings.Split(r.URL.Path, "/")
		if len(pathParts) < 4 || pathParts[3] != "connections" {
			http.Error(w, "Invalid path", http.StatusBadRequest)
			return
		}
		guestName := pathParts[2]

		users, err := rdb.SMembers(r.Context(), "conversation:"+guestName+":connections").Result()
		if err != nil {
			log.Warnw("connection set read failed", "guest", guestName, "err", err)
			http.Error(w, "Failed to fetch connections", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(users)
	}
}
