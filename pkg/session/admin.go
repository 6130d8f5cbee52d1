package session

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mahaj/guestline/pkg/apiclient"
	"github.com/mahaj/guestline/pkg/delivery"
	"github.com/mahaj/guestline/pkg/model"
	"github.com/mahaj/guestline/pkg/presence"
	"github.com/mahaj/guestline/pkg/realtime"
	"github.com/mahaj/guestline/pkg/unread"
)

type AdminConfig struct {
	Username        string
	Password        string
	APIURL          string
	GatewayURL      string
	WatermarkPath   string // defaults under the user config dir
	OnlineWindow    time.Duration
	RefreshInterval time.Duration
	Logger          *zap.SugaredLogger
}

// RosterEntry is one guest in the dashboard list with its derived badge
// and presence.
type RosterEntry struct {
	Guest  model.Guest
	Unread int
	Online bool
}

// AdminSession is the operator-side controller: global change stream,
// guest roster with derived presence, unread badges, and the open
// conversation.
type AdminSession struct {
	api    *apiclient.Client
	rt     *realtime.Client
	log    *zap.SugaredLogger
	window time.Duration

	mu       sync.Mutex
	guests   map[string]model.Guest
	open     string
	messages []model.Message

	counter *unread.Counter
	// Messages created up to this instant are already reflected in the
	// bootstrap counts; insert events older than it must not bump again.
	seededAt time.Time

	notices  chan Notice
	done     chan struct{}
	stopOnce sync.Once
}

// StartAdmin logs in, bootstraps the roster and unread badges from the
// watermark query, advances the watermark, and subscribes to the global
// stream.
func StartAdmin(ctx context.Context, cfg AdminConfig) (*AdminSession, error) {
	api := apiclient.New(cfg.APIURL)
	if _, err := api.Login(ctx, cfg.Username, cfg.Password); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	rt, err := realtime.Dial(ctx, realtime.Options{
		GatewayURL: cfg.GatewayURL,
		Token:      api.Token(),
	}, cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("subscribe: %w", err)
	}

	window := cfg.OnlineWindow
	if window <= 0 {
		window = presence.DefaultOnlineWindow
	}

	s := &AdminSession{
		api:     api,
		rt:      rt,
		log:     cfg.Logger,
		window:  window,
		guests:  make(map[string]model.Guest),
		counter: unread.NewCounter(),
		notices: make(chan Notice, 16),
		done:    make(chan struct{}),
	}

	if err := s.reloadGuests(ctx); err != nil {
		rt.Close()
		return nil, err
	}
	s.bootstrapUnread(ctx, watermarkPath(cfg.WatermarkPath))

	refresh := cfg.RefreshInterval
	if refresh <= 0 {
		refresh = 30 * time.Second
	}
	go s.loop(ctx, refresh)
	return s, nil
}

func watermarkPath(configured string) string {
	if configured != "" {
		return configured
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "guestline", "admin_watermark")
}

// bootstrapUnread seeds the badges with guest messages that arrived since
// the last session, then advances the watermark to now. Messages arriving
// before the next session start will not be re-counted; that staleness is
// inherited behavior, not a bug to fix here.
func (s *AdminSession) bootstrapUnread(ctx context.Context, path string) {
	wm, err := LoadWatermark(path)
	if err != nil {
		s.log.Warnw("watermark unreadable, counting from now", "path", path, "err", err)
	}
	if wm.IsZero() {
		wm = time.Now()
	}

	counts, err := s.api.UnreadCounts(ctx, wm)
	if err != nil {
		s.log.Warnw("unread bootstrap failed", "err", err)
		s.notify(errorNotice("Could not load unread counts"))
	} else {
		s.counter.Bootstrap(counts)
	}

	// The subscription was dialed before this query ran, so inserts the
	// query already counted may still be buffered on the stream. Anything
	// created up to now is the query's to count, not the event handler's.
	s.seededAt = time.Now()

	if err := SaveWatermark(path, s.seededAt); err != nil {
		s.log.Warnw("watermark save failed", "path", path, "err", err)
	}
}

func (s *AdminSession) reloadGuests(ctx context.Context) error {
	guests, err := s.api.Guests(ctx)
	if err != nil {
		return fmt.Errorf("load guests: %w", err)
	}
	s.mu.Lock()
	s.guests = make(map[string]model.Guest, len(guests))
	for _, g := range guests {
		s.guests[g.Username] = g
	}
	s.mu.Unlock()
	return nil
}

func (s *AdminSession) loop(ctx context.Context, refresh time.Duration) {
	// The periodic tick re-derives online flags against wall-clock time
	// from the in-memory roster; no store read is involved.
	ticker := time.NewTicker(refresh)
	defer ticker.Stop()

	for {
		select {
		case ev := <-s.rt.Events():
			s.handleEvent(ctx, ev)
		case <-ticker.C:
			s.notify(refreshNotice)
		case <-s.rt.Reconnects():
			s.reconcile(ctx)
		case <-s.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

// reconcile is the reconnect path: full reload of the roster and of the
// open conversation, since the stream has no resume contract.
func (s *AdminSession) reconcile(ctx context.Context) {
	if err := s.reloadGuests(ctx); err != nil {
		s.log.Warnw("roster reload failed", "err", err)
	}

	s.mu.Lock()
	open := s.open
	s.mu.Unlock()
	if open != "" {
		if err := s.loadConversation(ctx, open); err != nil {
			s.log.Warnw("conversation reload failed", "guest", open, "err", err)
			s.notify(errorNotice("Connection restored but reload failed"))
		}
	}
	s.notify(refreshNotice)
}

func (s *AdminSession) handleEvent(ctx context.Context, ev model.Event) {
	switch {
	case ev.Table == model.TableMessages && ev.Message != nil:
		s.handleMessageEvent(ctx, ev)
	case ev.Table == model.TableGuests && ev.Guest != nil:
		s.handleGuestEvent(ev)
	}
	s.notify(refreshNotice)
}

func (s *AdminSession) handleMessageEvent(ctx context.Context, ev model.Event) {
	m := *ev.Message

	s.mu.Lock()
	open := s.open
	inOpen := open == m.GuestName
	if inOpen {
		mergeMessage(&s.messages, m)
	}
	s.mu.Unlock()

	if ev.Type != model.EventInsert || m.Sender != model.SenderGuest {
		return
	}

	if inOpen {
		// The conversation is on screen: observing the insert delivers
		// it, and the open view reads it.
		s.publish(ctx, model.Command{Type: model.CmdMarkDelivered, GuestName: m.GuestName, IDs: []int64{m.ID}})
		s.publish(ctx, model.Command{Type: model.CmdMarkRead, GuestName: m.GuestName})
		return
	}

	// Closed conversation: badge only. This counter is intentionally
	// independent of the per-message is_read flag. Inserts the bootstrap
	// query already counted are skipped, they are not new.
	if !m.CreatedAt.After(s.seededAt) {
		return
	}
	s.counter.Bump(m.GuestName)
	s.notify(infoNotice("New message from " + m.GuestName))
}

func (s *AdminSession) handleGuestEvent(ev model.Event) {
	g := *ev.Guest
	s.mu.Lock()
	_, known := s.guests[g.Username]
	s.guests[g.Username] = g
	s.mu.Unlock()

	if ev.Type == model.EventInsert && !known {
		s.notify(infoNotice("New guest joined: " + g.Username))
	}
}

// OpenConversation selects a guest: the badge clears immediately and
// unconditionally (viewing is the clearing action), then history loads and
// delivery state advances. A failed read-marking write leaves the badge
// cleared; the flags catch up on a later pass.
func (s *AdminSession) OpenConversation(ctx context.Context, guestName string) error {
	s.counter.Clear(guestName)

	s.mu.Lock()
	s.open = guestName
	s.mu.Unlock()

	if err := s.loadConversation(ctx, guestName); err != nil {
		s.notify(errorNotice("Failed to load conversation"))
		return err
	}

	s.mu.Lock()
	undelivered := idsWhere(s.messages, func(m model.Message) bool {
		return m.Sender == model.SenderGuest && !m.IsDelivered
	})
	hasUnread := len(idsWhere(s.messages, func(m model.Message) bool {
		return m.Sender == model.SenderGuest && !m.IsRead
	})) > 0
	s.mu.Unlock()

	if len(undelivered) > 0 {
		s.publish(ctx, model.Command{Type: model.CmdMarkDelivered, GuestName: guestName, IDs: undelivered})
	}
	if hasUnread {
		s.publish(ctx, model.Command{Type: model.CmdMarkRead, GuestName: guestName})
	}
	s.notify(refreshNotice)
	return nil
}

func (s *AdminSession) loadConversation(ctx context.Context, guestName string) error {
	history, err := s.api.History(ctx, guestName)
	if err != nil {
		return err
	}
	s.mu.Lock()
	if s.open == guestName {
		s.messages = history
	}
	s.mu.Unlock()
	return nil
}

// CloseConversation returns to the empty state.
func (s *AdminSession) CloseConversation() {
	s.mu.Lock()
	s.open = ""
	s.messages = nil
	s.mu.Unlock()
}

// SendText sends a text message into the open conversation.
func (s *AdminSession) SendText(ctx context.Context, text string) error {
	content := model.TextContent(text)
	if content.IsEmpty() {
		return fmt.Errorf("message is empty")
	}
	return s.send(ctx, content, model.ContentText, nil)
}

// SendMedia uploads files and sends their URLs as one message. A non-nil
// price stores the content locked behind it until the viewer unlocks.
func (s *AdminSession) SendMedia(ctx context.Context, price *float64, paths ...string) error {
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

	return s.send(ctx, model.URLContent(urls...), contentType, price)
}

func (s *AdminSession) send(ctx context.Context, content model.Content, contentType model.ContentType, price *float64) error {
	s.mu.Lock()
	open := s.open
	s.mu.Unlock()
	if open == "" {
		return fmt.Errorf("no conversation open")
	}

	msg := &model.Message{
		GuestName:   open,
		Sender:      model.SenderAdmin,
		Content:     content,
		ContentType: contentType,
		Price:       price,
		IsLocked:    price != nil,
	}
	if err := s.rt.Publish(ctx, model.Command{Type: model.CmdSendMessage, GuestName: open, Message: msg}); err != nil {
		return fmt.Errorf("send failed, try again: %w", err)
	}
	return nil
}

// Unsend retracts one of the admin's own messages in the open
// conversation. Optimistic local flip, no rollback on failure.
func (s *AdminSession) Unsend(ctx context.Context, id int64) error {
	s.mu.Lock()
	open := s.open
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
	if !delivery.Unsend(target, model.SenderAdmin) {
		s.mu.Unlock()
		return fmt.Errorf("cannot unsend this message")
	}
	s.mu.Unlock()

	s.publish(ctx, model.Command{Type: model.CmdUnsend, GuestName: open, ID: id})
	s.notify(refreshNotice)
	return nil
}

// ToggleRead flips a guest's badge by hand. Returns true when the guest is
// now marked unread.
func (s *AdminSession) ToggleRead(guestName string) bool {
	marked := s.counter.Toggle(guestName)
	s.notify(refreshNotice)
	return marked
}

// Roster returns the guest list ordered for the sidebar: unread badge
// descending, online before offline, most recent activity first. Presence
// is derived against now from in-memory timestamps only.
func (s *AdminSession) Roster(now time.Time) []RosterEntry {
	counts := s.counter.Snapshot()

	s.mu.Lock()
	guests := make([]model.Guest, 0, len(s.guests))
	for _, g := range s.guests {
		guests = append(guests, g)
	}
	s.mu.Unlock()

	unread.SortGuests(guests, counts, now, s.window)

	entries := make([]RosterEntry, len(guests))
	for i, g := range guests {
		entries[i] = RosterEntry{
			Guest:  g,
			Unread: counts[g.Username],
			Online: presence.Online(g.LastActivity, now, s.window),
		}
	}
	return entries
}

// Messages returns the open conversation. The admin sees everything,
// including retracted rows; render those with a retracted marker.
func (s *AdminSession) Messages() []model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Tick returns the receipt tick for an admin-authored message, gated on
// the open guest's read-receipt toggle.
func (s *AdminSession) Tick(m model.Message) delivery.Tick {
	s.mu.Lock()
	receipts := true
	if g, ok := s.guests[m.GuestName]; ok {
		receipts = g.ReadReceiptsEnabled
	}
	s.mu.Unlock()
	return delivery.TickFor(m, model.SenderAdmin, receipts)
}

func (s *AdminSession) Open() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

func (s *AdminSession) Notices() <-chan Notice { return s.notices }

// Stop closes the subscription. Idempotent; run on every exit path.
func (s *AdminSession) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)
		s.rt.Close()
	})
}

func (s *AdminSession) publish(ctx context.Context, cmd model.Command) {
	if err := s.rt.Publish(ctx, cmd); err != nil {
		s.log.Warnw("command failed", "type", cmd.Type, "err", err)
		s.notify(errorNotice(fmt.Sprintf("Action failed (%s), retry", cmd.Type)))
	}
}

func (s *AdminSession) notify(n Notice) {
	select {
	case s.notices <- n:
	default:
	}
}
