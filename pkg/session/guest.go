package session

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mahaj/guestline/pkg/apiclient"
	"github.com/mahaj/guestline/pkg/delivery"
	"github.com/mahaj/guestline/pkg/model"
	"github.com/mahaj/guestline/pkg/presence"
	"github.com/mahaj/guestline/pkg/realtime"
)

type GuestConfig struct {
	Username          string
	APIURL            string
	GatewayURL        string
	HeartbeatInterval time.Duration
	Logger            *zap.SugaredLogger
}

// GuestSession is the guest-side controller: joins, loads the
// conversation, keeps it synchronized through the change stream, runs the
// presence heartbeat, and advances delivery state for admin messages it
// observes.
type GuestSession struct {
	username string
	api      *apiclient.Client
	rt       *realtime.Client
	tracker  *presence.Tracker
	log      *zap.SugaredLogger

	mu         sync.Mutex
	messages   []model.Message
	receipts   bool
	foreground bool

	notices  chan Notice
	done     chan struct{}
	stopOnce sync.Once
}

// StartGuest joins (or resumes) the conversation and brings the session
// live. The caller must Stop the session on every exit path; that is what
// releases the subscription and fires the departure write.
func StartGuest(ctx context.Context, cfg GuestConfig) (*GuestSession, error) {
	api := apiclient.New(cfg.APIURL)
	join, err := api.Join(ctx, cfg.Username)
	if err != nil {
		return nil, fmt.Errorf("join: %w", err)
	}

	rt, err := realtime.Dial(ctx, realtime.Options{
		GatewayURL:   cfg.GatewayURL,
		Token:        join.Token,
		Conversation: cfg.Username,
	}, cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("subscribe: %w", err)
	}

	s := &GuestSession{
		username:   cfg.Username,
		api:        api,
		rt:         rt,
		log:        cfg.Logger,
		receipts:   join.Guest.ReadReceiptsEnabled,
		foreground: true,
		notices:    make(chan Notice, 16),
		done:       make(chan struct{}),
	}

	if err := s.reload(ctx); err != nil {
		rt.Close()
		return nil, err
	}

	s.tracker = presence.NewTracker(cfg.HeartbeatInterval,
		func(ctx context.Context) error {
			return s.rt.Publish(ctx, model.Command{Type: model.CmdHeartbeat, At: time.Now()})
		},
		func(ctx context.Context) error {
			return s.rt.Publish(ctx, model.Command{Type: model.CmdGoOffline})
		},
		cfg.Logger,
	)
	s.tracker.Start(ctx)

	go s.loop(ctx)
	return s, nil
}

// reload replaces local state with a full fetch, then advances delivery
// state for anything the admin sent while we were away. Used on start and
// after every transport reconnect; no incremental replay is assumed.
func (s *GuestSession) reload(ctx context.Context) error {
	history, err := s.api.History(ctx, s.username)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}

	s.mu.Lock()
	s.messages = history
	undelivered := idsWhere(s.messages, func(m model.Message) bool {
		return m.Sender == model.SenderAdmin && !m.IsDelivered
	})
	hasUnread := len(idsWhere(s.messages, func(m model.Message) bool {
		return m.Sender == model.SenderAdmin && !m.IsRead
	})) > 0
	foreground := s.foreground
	s.mu.Unlock()

	if len(undelivered) > 0 {
		s.publish(ctx, model.Command{Type: model.CmdMarkDelivered, IDs: undelivered})
	}
	if foreground && hasUnread {
		s.publish(ctx, model.Command{Type: model.CmdMarkRead})
	}
	return nil
}

func (s *GuestSession) loop(ctx context.Context) {
	for {
		select {
		case ev := <-s.rt.Events():
			s.handleEvent(ctx, ev)
		case <-s.rt.Reconnects():
			if err := s.reload(ctx); err != nil {
				s.log.Warnw("reload after reconnect failed", "err", err)
				s.notify(errorNotice("Connection restored but reload failed"))
			} else {
				s.notify(refreshNotice)
			}
		case <-s.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *GuestSession) handleEvent(ctx context.Context, ev model.Event) {
	switch {
	case ev.Table == model.TableMessages && ev.Message != nil:
		s.handleMessageEvent(ctx, ev)
	case ev.Table == model.TableGuests && ev.Guest != nil:
		if ev.Guest.Username == s.username {
			s.mu.Lock()
			s.receipts = ev.Guest.ReadReceiptsEnabled
			s.mu.Unlock()
		}
	}
	s.notify(refreshNotice)
}

func (s *GuestSession) handleMessageEvent(ctx context.Context, ev model.Event) {
	m := *ev.Message

	s.mu.Lock()
	merged := mergeMessage(&s.messages, m)
	foreground := s.foreground
	s.mu.Unlock()

	if ev.Type != model.EventInsert || merged || m.Sender != model.SenderAdmin {
		return
	}

	// A live admin message: observing it is what makes it delivered.
	s.publish(ctx, model.Command{Type: model.CmdMarkDelivered, IDs: []int64{m.ID}})
	if foreground {
		s.publish(ctx, model.Command{Type: model.CmdMarkRead})
	} else {
		s.notify(infoNotice("New message from admin"))
	}
}

// SendText inserts a text message. Empty input is rejected locally with no
// store round-trip.
func (s *GuestSession) SendText(ctx context.Context, text string) error {
	content := model.TextContent(text)
	if content.IsEmpty() {
		return fmt.Errorf("message is empty")
	}
	return s.send(ctx, content, model.ContentText)
}

// SendMedia uploads the files and sends their URLs as one message. A
// single file becomes single-URL content; several files become an ordered
// URL list.
func (s *GuestSession) SendMedia(ctx context.Context, paths ...string) error {
	if len(paths) == 0 {
		return fmt.Errorf("no files to send")
	}

	urls := make([]string, 0, len(paths))
	contentType := model.ContentType("")
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read media: %w", err)
		}
		up, err := s.api.Upload(ctx, filepath.Base(path), data)
		if err != nil {
			return fmt.Errorf("upload media: %w", err)
		}
		urls = append(urls, up.URL)
		if contentType == "" {
			contentType = up.ContentType
		}
	}

	return s.send(ctx, model.URLContent(urls...), contentType)
}

func (s *GuestSession) send(ctx context.Context, content model.Content, contentType model.ContentType) error {
	msg := &model.Message{
		GuestName:   s.username,
		Sender:      model.SenderGuest,
		Content:     content,
		ContentType: contentType,
	}
	// No optimistic append for sends: the authoritative row, with its
	// server-assigned id, comes back on the change stream.
	if err := s.rt.Publish(ctx, model.Command{Type: model.CmdSendMessage, Message: msg}); err != nil {
		return fmt.Errorf("send failed, try again: %w", err)
	}
	return nil
}

// Unsend retracts one of the guest's own messages. The retraction is
// optimistic: the local copy flips immediately and stays flipped even if
// the remote write fails; the next full reload reconciles.
func (s *GuestSession) Unsend(ctx context.Context, id int64) error {
	s.mu.Lock()
	var target *model.Message
	for i := range s.messages {
		if s.messages[i].ID == id {
			target = &s.messages[i]
			break
		}
	}
	if target == nil {
		s.mu.Unlock()
		return fmt.Errorf("no such message")
	}
	if !delivery.Unsend(target, model.SenderGuest) {
		s.mu.Unlock()
		return fmt.Errorf("cannot unsend this message")
	}
	s.mu.Unlock()

	s.publish(ctx, model.Command{Type: model.CmdUnsend, ID: id})
	s.notify(refreshNotice)
	return nil
}

// SetForeground records visibility. Becoming foreground-visible while
// unread admin messages exist is the read trigger.
func (s *GuestSession) SetForeground(ctx context.Context, foreground bool) {
	s.mu.Lock()
	s.foreground = foreground
	hasUnread := len(idsWhere(s.messages, func(m model.Message) bool {
		return m.Sender == model.SenderAdmin && !m.IsRead
	})) > 0
	s.mu.Unlock()

	if foreground && hasUnread {
		s.publish(ctx, model.Command{Type: model.CmdMarkRead})
	}
}

// SetReadReceipts toggles whether this guest's read state is exposed to
// the admin as ticks. The flags keep being written either way.
func (s *GuestSession) SetReadReceipts(ctx context.Context, enabled bool) {
	s.mu.Lock()
	s.receipts = enabled
	s.mu.Unlock()
	s.publish(ctx, model.Command{Type: model.CmdSetReceipts, Enabled: enabled})
}

// Messages returns the guest's view of the conversation: display order,
// retracted messages absent.
func (s *GuestSession) Messages() []model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Message, 0, len(s.messages))
	for _, m := range s.messages {
		if delivery.VisibleTo(m, model.SenderGuest) {
			out = append(out, m)
		}
	}
	return out
}

// Tick returns the receipt tick for one of the guest's own messages.
func (s *GuestSession) Tick(m model.Message) delivery.Tick {
	s.mu.Lock()
	receipts := s.receipts
	s.mu.Unlock()
	return delivery.TickFor(m, model.SenderGuest, receipts)
}

func (s *GuestSession) Username() string { return s.username }

func (s *GuestSession) Notices() <-chan Notice { return s.notices }

// Stop tears the session down: heartbeat loop stopped (with the
// best-effort departure write), subscription closed. Idempotent; run it on
// every exit path.
func (s *GuestSession) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)
		s.tracker.Stop()
		s.rt.Close()
	})
}

// publish sends a command and converts failure into a notice; transitions
// are at-least-once and user-retryable, never fatal.
func (s *GuestSession) publish(ctx context.Context, cmd model.Command) {
	if err := s.rt.Publish(ctx, cmd); err != nil {
		s.log.Warnw("command failed", "type", cmd.Type, "err", err)
		s.notify(errorNotice(fmt.Sprintf("Action failed (%s), retry", cmd.Type)))
	}
}

func (s *GuestSession) notify(n Notice) {
	select {
	case s.notices <- n:
	default:
	}
}

// mergeMessage folds an event row into the ordered slice. Returns true if
// the id was already present (flag merge), false for a fresh insert.
func mergeMessage(messages *[]model.Message, m model.Message) bool {
	for i := range *messages {
		if (*messages)[i].ID == m.ID {
			delivery.Merge(&(*messages)[i], m)
			return true
		}
	}
	*messages = append(*messages, m)
	sort.SliceStable(*messages, func(i, j int) bool {
		return (*messages)[i].Before((*messages)[j])
	})
	return false
}

func idsWhere(messages []model.Message, pred func(model.Message) bool) []int64 {
	var ids []int64
	for _, m := range messages {
		if pred(m) {
			ids = append(ids, m.ID)
		}
	}
	return ids
}
