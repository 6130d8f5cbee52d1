package main

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mahaj/guestline/pkg/auth"
	"github.com/mahaj/guestline/pkg/model"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum command size allowed from peer.
	maxMessageSize = 64 * 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for now
	},
}

// Client is a middleman between one websocket connection and the hub.
type Client struct {
	hub *Hub

	conn *websocket.Conn

	// Buffered channel of outbound events.
	send chan []byte

	username string
	role     auth.Role

	// Subscribed conversation; empty for the admin's global stream.
	conversation string
}

// sanitize stamps identity onto a client command and rejects commands the
// connection's role may not issue. Returns false to drop the command.
// Guests can only ever act on their own conversation no matter what the
// payload claims.
func sanitize(cmd *model.Command, username string, role auth.Role) bool {
	if role == auth.RoleAdmin {
		cmd.Actor = model.SenderAdmin
		switch cmd.Type {
		case model.CmdSendMessage, model.CmdMarkDelivered, model.CmdMarkRead, model.CmdUnsend:
			return cmd.GuestName != ""
		default:
			// Presence and receipt toggles belong to guests.
			return false
		}
	}

	cmd.Actor = model.SenderGuest
	cmd.GuestName = username
	if cmd.Message != nil {
		// Monetized content is admin-only; a guest payload claiming a
		// price is stripped, not rejected.
		cmd.Message.Price = nil
		cmd.Message.IsLocked = false
	}
	switch cmd.Type {
	case model.CmdSendMessage, model.CmdMarkDelivered, model.CmdMarkRead,
		model.CmdUnsend, model.CmdHeartbeat, model.CmdSetReceipts, model.CmdGoOffline:
		return true
	default:
		return false
	}
}

// readPump pumps commands from the websocket connection to the hub.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Warnw("websocket read failed", "user", c.username, "err", err)
			}
			break
		}

		var cmd model.Command
		if err := json.Unmarshal(data, &cmd); err != nil {
			c.hub.log.Warnw("bad command payload", "user", c.username, "err", err)
			continue
		}

		if !sanitize(&cmd, c.username, c.role) {
			c.hub.log.Warnw("rejected command", "user", c.username, "role", c.role, "type", cmd.Type)
			continue
		}

		c.hub.ingress <- inboundCommand{client: c, cmd: cmd}
	}
}

// writePump pumps events from the hub to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// serveWs handles websocket subscription requests.
func serveWs(hub *Hub, tokens *auth.Manager, w http.ResponseWriter, r *http.Request) {
	tokenString := r.Header.Get("Authorization")
	if tokenString == "" {
		// Query param fallback for ws clients that cannot set headers.
		tokenString = r.URL.Query().Get("token")
	}
	if tokenString == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	claims, err := tokens.ValidateToken(auth.StripBearer(tokenString))
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conversation := r.URL.Query().Get("conversation")
	if claims.Role == auth.RoleGuest {
		// A guest subscribes to its own conversation, full stop.
		conversation = claims.Username
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		hub.log.Warnw("websocket upgrade failed", "err", err)
		return
	}

	client := &Client{
		hub:          hub,
		conn:         conn,
		send:         make(chan []byte, 256),
		username:     claims.Username,
		role:         claims.Role,
		conversation: conversation,
	}
	client.hub.register <- client

	go client.writePump()
	go client.readPump()
}
