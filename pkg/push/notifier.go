// Package push delivers fire-and-forget notifications through an external
// push gateway. Failures are logged, never retried, and never block
// message delivery.
package push

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"
)

type Notifier struct {
	endpoint string
	client   *http.Client
	log      *zap.SugaredLogger
}

func NewNotifier(endpoint string, log *zap.SugaredLogger) *Notifier {
	return &Notifier{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 5 * time.Second},
		log:      log,
	}
}

type payload struct {
	To    string `json:"to"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Notify posts one notification. The HTTP round-trip runs on its own
// goroutine so callers return immediately; a push that cannot be delivered
// is a log line, nothing more.
func (n *Notifier) Notify(recipientToken, title, body string) {
	if n.endpoint == "" || recipientToken == "" {
		return
	}

	data, err := json.Marshal(payload{To: recipientToken, Title: title, Body: body})
	if err != nil {
		n.log.Warnw("push marshal failed", "err", err)
		return
	}

	go n.deliver(data)
}

func (n *Notifier) deliver(data []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, bytes.NewReader(data))
	if err != nil {
		n.log.Warnw("push request failed", "err", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		n.log.Warnw("push delivery failed", "err", err)
		return
	}
	resp.Body.Close()

	if resp.StatusCode >= 300 {
		n.log.Warnw("push gateway rejected notification", "status", resp.Status)
	}
}
