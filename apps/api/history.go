package main

import (
	"encoding/json"
	"net/http"

	"github.com/mahaj/guestline/pkg/auth"
	"github.com/mahaj/guestline/pkg/delivery"
	"github.com/mahaj/guestline/pkg/model"
	"github.com/mahaj/guestline/pkg/store"
)

// HistoryHandler returns a conversation in display order. Guests only get
// their own conversation and never see retracted rows; the admin gets any
// conversation in full, retracted rows included.
func HistoryHandler(messages *store.MessageStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := claimsFrom(r)
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		guestName := r.URL.Query().Get("guest")
		viewer := model.SenderAdmin
		if claims.Role == auth.RoleGuest {
			guestName = claims.Username
			viewer = model.SenderGuest
		}
		if guestName == "" {
			http.Error(w, "guest is required", http.StatusBadRequest)
			return
		}

		history, err := messages.History(r.Context(), guestName)
		if err != nil {
			http.Error(w, "Failed to retrieve history", http.StatusInternalServerError)
			return
		}

		visible := make([]model.Message, 0, len(history))
		for _, m := range history {
			if delivery.VisibleTo(m, viewer) {
				visible = append(visible, m)
			}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(visible)
	}
}
