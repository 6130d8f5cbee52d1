package push

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNotifyDoesNotBlockOnSlowGateway(t *testing.T) {
	received := make(chan payload, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
		body, _ := io.ReadAll(r.Body)
		var p payload
		json.Unmarshal(body, &p)
		received <- p
	}))
	defer server.Close()

	n := NewNotifier(server.URL, zap.NewNop().Sugar())

	start := time.Now()
	n.Notify("alice", "New Message", "New message from admin")
	elapsed := time.Since(start)

	assert.Less(t, elapsed, 200*time.Millisecond,
		"the gateway round-trip must not run on the caller's path")

	select {
	case p := <-received:
		assert.Equal(t, "alice", p.To)
		assert.Equal(t, "New Message", p.Title)
		assert.Equal(t, "New message from admin", p.Body)
	case <-time.After(2 * time.Second):
		require.Fail(t, "notification never reached the gateway")
	}
}

func TestNotifySkipsWithoutEndpointOrRecipient(t *testing.T) {
	called := make(chan struct{}, 2)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called <- struct{}{}
	}))
	defer server.Close()

	NewNotifier("", zap.NewNop().Sugar()).Notify("alice", "t", "b")
	NewNotifier(server.URL, zap.NewNop().Sugar()).Notify("", "t", "b")

	select {
	case <-called:
		require.Fail(t, "no request should be sent")
	case <-time.After(100 * time.Millisecond):
	}
}
