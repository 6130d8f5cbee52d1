package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mahaj/guestline/pkg/delivery"
	"github.com/mahaj/guestline/pkg/model"
	"github.com/mahaj/guestline/pkg/push"
	"github.com/mahaj/guestline/pkg/store"
)

// Applier turns commands into store writes and change events. Every write
// is an idempotent field-set, so duplicate or reordered commands converge
// on the same row state.
type Applier struct {
	messages *store.MessageStore
	guests   *store.GuestStore
	push     *push.Notifier
	log      *zap.SugaredLogger
}

func NewApplier(messages *store.MessageStore, guests *store.GuestStore, notifier *push.Notifier, log *zap.SugaredLogger) *Applier {
	return &Applier{messages: messages, guests: guests, push: notifier, log: log}
}

func (a *Applier) Apply(ctx context.Context, cmd model.Command) ([]model.Event, error) {
	switch cmd.Type {
	case model.CmdSendMessage:
		return a.sendMessage(ctx, cmd)
	case model.CmdMarkDelivered:
		return a.markDelivered(ctx, cmd)
	case model.CmdMarkRead:
		return a.markRead(ctx, cmd)
	case model.CmdUnsend:
		return a.unsend(ctx, cmd)
	case model.CmdHeartbeat:
		return a.heartbeat(ctx, cmd)
	case model.CmdGoOffline:
		return a.goOffline(ctx, cmd)
	case model.CmdSetReceipts:
		return a.setReceipts(ctx, cmd)
	default:
		return nil, fmt.Errorf("unknown command type %q", cmd.Type)
	}
}

func (a *Applier) sendMessage(ctx context.Context, cmd model.Command) ([]model.Event, error) {
	if cmd.Message == nil {
		return nil, fmt.Errorf("send_message without message")
	}
	m := *cmd.Message
	if m.Content.IsEmpty() {
		return nil, fmt.Errorf("send_message with empty content")
	}

	if err := a.messages.Insert(ctx, m); err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}

	// Best effort, never blocks delivery.
	a.notifyCounterpart(m)

	return []model.Event{model.MessageInserted(m)}, nil
}

func (a *Applier) notifyCounterpart(m model.Message) {
	recipient := "admin"
	if m.Sender == model.SenderAdmin {
		recipient = m.GuestName
	}
	a.push.Notify(recipient, "New Message", "New message from "+string(m.Sender))
}

// markDelivered advances the listed ids. The update is one filtered
// statement over the id set, never a read-modify-write loop.
func (a *Applier) markDelivered(ctx context.Context, cmd model.Command) ([]model.Event, error) {
	rows, err := a.messages.History(ctx, cmd.GuestName)
	if err != nil {
		return nil, fmt.Errorf("load conversation: %w", err)
	}

	wanted := make(map[int64]bool, len(cmd.IDs))
	for _, id := range cmd.IDs {
		wanted[id] = true
	}

	var (
		changedIDs []int64
		events     []model.Event
	)
	for i := range rows {
		if !wanted[rows[i].ID] {
			continue
		}
		if delivery.Deliver(&rows[i]) {
			changedIDs = append(changedIDs, rows[i].ID)
			events = append(events, model.MessageUpdated(rows[i]))
		}
	}
	if len(changedIDs) == 0 {
		return nil, nil
	}

	if err := a.messages.MarkDelivered(ctx, cmd.GuestName, changedIDs); err != nil {
		return nil, fmt.Errorf("mark delivered: %w", err)
	}
	return events, nil
}

// markRead advances every unread message the actor's counterpart sent, in
// one batch. Delivered is written together with read so the read ⇒
// delivered invariant holds whatever order transitions land in.
func (a *Applier) markRead(ctx context.Context, cmd model.Command) ([]model.Event, error) {
	rows, err := a.messages.History(ctx, cmd.GuestName)
	if err != nil {
		return nil, fmt.Errorf("load conversation: %w", err)
	}

	from := cmd.Actor.Counterpart()
	var (
		changedIDs []int64
		events     []model.Event
	)
	for i := range rows {
		if rows[i].Sender != from || rows[i].IsRead {
			continue
		}
		delivery.Read(&rows[i])
		changedIDs = append(changedIDs, rows[i].ID)
		events = append(events, model.MessageUpdated(rows[i]))
	}
	if len(changedIDs) == 0 {
		return nil, nil
	}

	if err := a.messages.MarkRead(ctx, cmd.GuestName, changedIDs); err != nil {
		return nil, fmt.Errorf("mark read: %w", err)
	}
	return events, nil
}

// unsend retracts a message through the sender-guarded conditional write.
// A non-sender attempt applies to zero rows: no event, no error.
func (a *Applier) unsend(ctx context.Context, cmd model.Command) ([]model.Event, error) {
	applied, err := a.messages.Unsend(ctx, cmd.GuestName, cmd.ID, cmd.Actor)
	if err != nil {
		return nil, fmt.Errorf("unsend: %w", err)
	}
	if !applied {
		a.log.Infow("unsend matched zero rows", "guest", cmd.GuestName, "id", cmd.ID, "actor", cmd.Actor)
		return nil, nil
	}

	m, err := a.messages.Get(ctx, cmd.GuestName, cmd.ID)
	if err != nil {
		return nil, fmt.Errorf("reload unsent message: %w", err)
	}
	return []model.Event{model.MessageUpdated(m)}, nil
}

func (a *Applier) heartbeat(ctx context.Context, cmd model.Command) ([]model.Event, error) {
	if err := a.guests.Heartbeat(ctx, cmd.GuestName, cmd.At); err != nil {
		return nil, fmt.Errorf("heartbeat: %w", err)
	}
	return a.guestUpdated(ctx, cmd.GuestName)
}

func (a *Applier) goOffline(ctx context.Context, cmd model.Command) ([]model.Event, error) {
	if err := a.guests.GoOffline(ctx, cmd.GuestName); err != nil {
		return nil, fmt.Errorf("go offline: %w", err)
	}
	return a.guestUpdated(ctx, cmd.GuestName)
}

func (a *Applier) setReceipts(ctx context.Context, cmd model.Command) ([]model.Event, error) {
	if err := a.guests.SetReadReceipts(ctx, cmd.GuestName, cmd.Enabled); err != nil {
		return nil, fmt.Errorf("set receipts: %w", err)
	}
	return a.guestUpdated(ctx, cmd.GuestName)
}

func (a *Applier) guestUpdated(ctx context.Context, username string) ([]model.Event, error) {
	g, err := a.guests.Get(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("reload guest: %w", err)
	}
	return []model.Event{model.GuestUpdated(g)}, nil
}
