package main

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/mahaj/guestline/pkg/auth"
	"github.com/mahaj/guestline/pkg/config"
	"github.com/mahaj/guestline/pkg/model"
	"github.com/mahaj/guestline/pkg/snowflake"
)

// Hub routes between websocket subscribers and Kafka. Commands from
// clients are produced to the commands topic keyed by conversation; row
// changes from the changes topic are fanned out to subscribers whose
// filter matches (a guest's own conversation, or everything for admins).
type Hub struct {
	mu            sync.Mutex
	conversations map[string]map[*Client]bool // guest_name -> subscribers
	admins        map[*Client]bool            // global subscribers

	register   chan *Client
	unregister chan *Client
	ingress    chan inboundCommand

	producer  *kafka.Writer
	redis     *redis.Client
	snowflake *snowflake.Node
	log       *zap.SugaredLogger
}

type inboundCommand struct {
	client *Client
	cmd    model.Command
}

func NewHub(cfg *config.Config, log *zap.SugaredLogger) *Hub {
	producer := &kafka.Writer{
		Addr:     kafka.TCP(cfg.Kafka.Brokers...),
		Topic:    cfg.Kafka.CommandsTopic,
		Balancer: &kafka.LeastBytes{},
	}

	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Addr,
	})

	node, err := snowflake.NewNode(cfg.Gateway.NodeID)
	if err != nil {
		log.Fatalw("snowflake node init failed", "err", err)
	}

	h := &Hub{
		conversations: make(map[string]map[*Client]bool),
		admins:        make(map[*Client]bool),
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		ingress:       make(chan inboundCommand, 64),
		producer:      producer,
		redis:         rdb,
		snowflake:     node,
		log:           log,
	}

	// Fan-out consumer: a unique group per gateway instance so every
	// gateway sees every change event.
	consumer := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Kafka.Brokers,
		Topic:       cfg.Kafka.ChangesTopic,
		GroupID:     "gateway-fanout-" + time.Now().Format("20060102150405.000000000"),
		StartOffset: kafka.LastOffset,
		MinBytes:    1,
		MaxBytes:    10e6,
	})

	go func() {
		defer consumer.Close()
		for {
			m, err := consumer.ReadMessage(context.Background())
			if err != nil {
				h.log.Errorw("fanout consumer stopped", "err", err)
				return
			}

			var ev model.Event
			if err := json.Unmarshal(m.Value, &ev); err != nil {
				h.log.Warnw("bad change event", "err", err)
				continue
			}
			h.fanout(ev, m.Value)
		}
	}()

	return h
}

// conversationKey is the subscription filter a change event matches.
func conversationKey(ev model.Event) string {
	switch {
	case ev.Message != nil:
		return ev.Message.GuestName
	case ev.Guest != nil:
		return ev.Guest.Username
	}
	return ""
}

// fanout delivers one event to the matching conversation subscribers and
// to every admin. Slow consumers are dropped, not waited on.
func (h *Hub) fanout(ev model.Event, raw []byte) {
	key := conversationKey(ev)
	if key == "" {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	deliver := func(clients map[*Client]bool) {
		for client := range clients {
			select {
			case client.send <- raw:
			default:
				h.dropLocked(client)
			}
		}
	}

	if clients, ok := h.conversations[key]; ok {
		deliver(clients)
	}
	deliver(h.admins)
}

func (h *Hub) Run() {
	defer h.producer.Close()
	defer h.redis.Close()

	for {
		select {
		case client := <-h.register:
			h.add(client)
		case client := <-h.unregister:
			h.remove(client)
		case in := <-h.ingress:
			h.produce(in)
		}
	}
}

func (h *Hub) add(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ctx := context.Background()
	if client.role == auth.RoleAdmin {
		h.admins[client] = true
		if err := h.redis.SAdd(ctx, "admin:connections", client.username).Err(); err != nil {
			h.log.Warnw("admin connection set add failed", "err", err)
		}
	} else {
		if h.conversations[client.conversation] == nil {
			h.conversations[client.conversation] = make(map[*Client]bool)
		}
		h.conversations[client.conversation][client] = true
		if err := h.redis.SAdd(ctx, "conversation:"+client.conversation+":connections", client.username).Err(); err != nil {
			h.log.Warnw("connection set add failed", "guest", client.conversation, "err", err)
		}
	}
	h.log.Infow("client registered", "user", client.username, "role", client.role, "conversation", client.conversation)
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropLocked(client)
}

// dropLocked removes a client from its registry, closes its send channel
// and clears its connection-set entry. Both the unregister path and the
// slow-consumer drop in fanout go through here so the Redis sets never
// outlive the registration. Caller holds h.mu.
func (h *Hub) dropLocked(client *Client) {
	ctx := context.Background()
	if client.role == auth.RoleAdmin {
		if _, ok := h.admins[client]; !ok {
			return
		}
		delete(h.admins, client)
		close(client.send)
		if err := h.redis.SRem(ctx, "admin:connections", client.username).Err(); err != nil {
			h.log.Warnw("admin connection set remove failed", "err", err)
		}
		return
	}

	clients, ok := h.conversations[client.conversation]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}
	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.conversations, client.conversation)
	}
	if err := h.redis.SRem(ctx, "conversation:"+client.conversation+":connections", client.username).Err(); err != nil {
		h.log.Warnw("connection set remove failed", "guest", client.conversation, "err", err)
	}
	h.log.Infow("client unregistered", "user", client.username, "conversation", client.conversation)
}

// produce stamps server-side fields and publishes the command keyed by
// conversation, so all changes to one conversation stay ordered.
func (h *Hub) produce(in inboundCommand) {
	cmd := in.cmd

	if cmd.Type == model.CmdSendMessage {
		if cmd.Message == nil || cmd.Message.Content.IsEmpty() {
			h.log.Warnw("dropping empty send", "user", in.client.username)
			return
		}
		cmd.Message.ID = h.snowflake.Generate()
		cmd.Message.CreatedAt = time.Now().UTC()
		cmd.Message.GuestName = cmd.GuestName
		cmd.Message.Sender = cmd.Actor
		// Initial state: sent.
		cmd.Message.IsDelivered = false
		cmd.Message.IsRead = false
		cmd.Message.IsUnsent = false
	}

	if cmd.Type == model.CmdHeartbeat && cmd.At.IsZero() {
		cmd.At = time.Now().UTC()
	}

	data, err := json.Marshal(cmd)
	if err != nil {
		h.log.Errorw("command marshal failed", "err", err)
		return
	}

	err = h.producer.WriteMessages(context.Background(), kafka.Message{
		Key:   []byte(cmd.GuestName),
		Value: data,
		Time:  time.Now(),
	})
	if err != nil {
		h.log.Errorw("command publish failed", "type", cmd.Type, "err", err)
	}
}
