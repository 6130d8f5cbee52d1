package main

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/mahaj/guestline/pkg/store"
)

// GuestsHandler lists every guest row for the dashboard roster.
func GuestsHandler(guests *store.GuestStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requireAdmin(w, r); !ok {
			return
		}

		list, err := guests.List(r.Context())
		if err != nil {
			http.Error(w, "Failed to list guests", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(list)
	}
}

// UnreadCountsHandler serves the admin session's bootstrap: guest-sent
// messages at or after the watermark, grouped by guest.
func UnreadCountsHandler(messages *store.MessageStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requireAdmin(w, r); !ok {
			return
		}

		sinceParam := r.URL.Query().Get("since")
		since, err := time.Parse(time.RFC3339Nano, sinceParam)
		if err != nil {
			http.Error(w, "since must be RFC3339", http.StatusBadRequest)
			return
		}

		counts, err := messages.UnreadCounts(r.Context(), since)
		if err != nil {
			http.Error(w, "Failed to count unread messages", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(counts)
	}
}
