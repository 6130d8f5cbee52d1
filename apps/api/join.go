package main

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/mahaj/guestline/pkg/auth"
	"github.com/mahaj/guestline/pkg/model"
	"github.com/mahaj/guestline/pkg/store"
)

type JoinRequest struct {
	Username string `json:"username"`
}

type JoinResponse struct {
	Token   string      `json:"token"`
	Guest   model.Guest `json:"guest"`
	Created bool        `json:"created"`
}

// JoinHandler registers a guest. The insert is conditional on the
// username being free; a repeated join resumes the existing conversation
// rather than creating a second row under the same key.
func JoinHandler(guests *store.GuestStore, changes *kafka.Writer, tokens *auth.Manager, log *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req JoinRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		username := strings.TrimSpace(req.Username)
		if username == "" {
			http.Error(w, "username is required", http.StatusBadRequest)
			return
		}

		guest, created, err := guests.Join(r.Context(), username, time.Now().UTC())
		if err != nil {
			log.Errorw("join failed", "username", username, "err", err)
			http.Error(w, "Failed to join", http.StatusInternalServerError)
			return
		}

		if created {
			announceGuest(changes, guest, log)
		}

		token, err := tokens.GenerateToken(username, auth.RoleGuest)
		if err != nil {
			http.Error(w, "Failed to generate token", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(JoinResponse{Token: token, Guest: guest, Created: created})
	}
}

// announceGuest puts the insert on the changes topic so subscribed
// dashboards learn about the new conversation without a reload. Best
// effort; the join already succeeded.
func announceGuest(changes *kafka.Writer, guest model.Guest, log *zap.SugaredLogger) {
	data, err := json.Marshal(model.GuestInserted(guest))
	if err != nil {
		log.Warnw("guest event marshal failed", "err", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err = changes.WriteMessages(ctx, kafka.Message{
		Key:   []byte(guest.Username),
		Value: data,
		Time:  time.Now(),
	})
	if err != nil {
		log.Warnw("guest event publish failed", "username", guest.Username, "err", err)
	}
}
