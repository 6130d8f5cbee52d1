package main

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/mahaj/guestline/pkg/config"
	"github.com/mahaj/guestline/pkg/model"
)

// Consumer reads commands, applies them to the store, and publishes the
// resulting row changes. Kafka's group delivery is at-least-once and every
// store write is set-to-true, so a replayed command just re-emits an event
// the clients already tolerate.
type Consumer struct {
	reader  *kafka.Reader
	changes *kafka.Writer
	applier *Applier
	log     *zap.SugaredLogger
}

func NewConsumer(cfg *config.Config, applier *Applier, log *zap.SugaredLogger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Kafka.Brokers,
		Topic:    cfg.Kafka.CommandsTopic,
		GroupID:  cfg.Kafka.GroupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})

	changes := &kafka.Writer{
		Addr:     kafka.TCP(cfg.Kafka.Brokers...),
		Topic:    cfg.Kafka.ChangesTopic,
		Balancer: &kafka.LeastBytes{},
	}

	return &Consumer{reader: reader, changes: changes, applier: applier, log: log}
}

func (c *Consumer) Consume(ctx context.Context) {
	for {
		m, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.log.Warnw("command read failed, retrying", "err", err)
			time.Sleep(time.Second)
			continue
		}

		var cmd model.Command
		if err := json.Unmarshal(m.Value, &cmd); err != nil {
			c.log.Warnw("bad command payload", "err", err)
			continue
		}

		events, err := c.applier.Apply(ctx, cmd)
		if err != nil {
			c.log.Errorw("apply failed", "type", cmd.Type, "guest", cmd.GuestName, "err", err)
			continue
		}

		c.publish(ctx, cmd.GuestName, events)
	}
}

// publish emits the change events keyed by conversation, preserving
// per-record causal order downstream.
func (c *Consumer) publish(ctx context.Context, guestName string, events []model.Event) {
	if len(events) == 0 {
		return
	}

	msgs := make([]kafka.Message, 0, len(events))
	for _, ev := range events {
		data, err := json.Marshal(ev)
		if err != nil {
			c.log.Errorw("event marshal failed", "err", err)
			continue
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(guestName),
			Value: data,
			Time:  time.Now(),
		})
	}

	if err := c.changes.WriteMessages(ctx, msgs...); err != nil {
		c.log.Errorw("change publish failed", "guest", guestName, "err", err)
	}
}

func (c *Consumer) Close() error {
	if err := c.reader.Close(); err != nil {
		return err
	}
	return c.changes.Close()
}
