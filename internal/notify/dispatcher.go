package notify

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"beacon/internal/config"
	"beacon/internal/logging"
	"beacon/internal/metrics"
	"beacon/internal/types"
)

const (
	queueCapacity = 64
	sendTimeout   = 5 * time.Second
)

// Dispatcher fans registry transitions out to the configured channels.
// Delivery runs on its own goroutine behind a bounded queue, so the event
// pipeline never waits on a sender. Channel failures are logged and
// swallowed; a burst past the per-channel rate limit is dropped.
type Dispatcher struct {
	settings config.Settings
	logger   logging.Logger
	senders  []Notifier

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	events   chan types.Notification
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	started  bool
	closed   bool
}

func NewDispatcher(settings config.Settings, logger logging.Logger, senders ...Notifier) *Dispatcher {
	if logger == nil {
		logger = logging.Nop()
	}
	kept := make([]Notifier, 0, len(senders))
	for _, sender := range senders {
		if sender != nil {
			kept = append(kept, sender)
		}
	}
	d := &Dispatcher{
		settings: settings,
		logger:   logger,
		senders:  kept,
		limiters: map[string]*rate.Limiter{},
		events:   make(chan types.Notification, queueCapacity),
	}
	d.Start()
	return d
}

// Nop returns a dispatcher with no senders. Safe to trigger and stop.
func Nop() *Dispatcher {
	return NewDispatcher(config.DefaultSettings(), logging.Nop())
}

func (d *Dispatcher) Start() {
	if d == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started || d.closed {
		return
	}
	var runCtx context.Context
	runCtx, d.cancel = context.WithCancel(context.Background())
	d.started = true
	d.wg.Add(1)
	go d.run(runCtx)
}

func (d *Dispatcher) Stop(ctx context.Context) error {
	if d == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	cancel := d.cancel
	d.mu.Unlock()
	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) SessionWaiting(ctx context.Context, session *types.Session) {
	if session == nil {
		return
	}
	d.publish(types.Notification{
		Kind:             types.NotificationKindWaiting,
		SessionID:        session.ID,
		Slug:             session.Slug,
		WorkingDirectory: session.WorkingDirectory,
		Text:             session.LastNotification,
		Question:         session.Question,
		Options:          session.Options,
		OccurredAt:       types.NowMillis(),
	})
}

func (d *Dispatcher) SessionStopped(ctx context.Context, session *types.Session, reason string) {
	if session == nil {
		return
	}
	d.publish(types.Notification{
		Kind:             types.NotificationKindStopped,
		SessionID:        session.ID,
		Slug:             session.Slug,
		WorkingDirectory: session.WorkingDirectory,
		Text:             session.LastNotification,
		Reason:           reason,
		OccurredAt:       types.NowMillis(),
	})
}

func (d *Dispatcher) SessionEnded(ctx context.Context, session *types.Session) {
	if session == nil {
		return
	}
	d.publish(types.Notification{
		Kind:             types.NotificationKindEnded,
		SessionID:        session.ID,
		Slug:             session.Slug,
		WorkingDirectory: session.WorkingDirectory,
		OccurredAt:       types.NowMillis(),
	})
}

func (d *Dispatcher) publish(n types.Notification) {
	if d == nil || len(d.senders) == 0 {
		return
	}
	if !d.settings.NotificationsEnabled() {
		return
	}
	d.mu.Lock()
	if d.closed || !d.started {
		d.mu.Unlock()
		d.logger.Debug("notification_publish_ignored",
			logging.F("kind", n.Kind),
			logging.F("session_id", n.SessionID),
		)
		return
	}
	events := d.events
	d.mu.Unlock()

	select {
	case events <- n:
	default:
		d.logger.Warn("notification_queue_full",
			logging.F("kind", n.Kind),
			logging.F("session_id", n.SessionID),
		)
	}
}

func (d *Dispatcher) run(runCtx context.Context) {
	defer d.wg.Done()
	for {
		select {
		case <-runCtx.Done():
			return
		case n := <-d.events:
			d.fanOut(n)
		}
	}
}

func (d *Dispatcher) fanOut(n types.Notification) {
	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()
	for _, sender := range d.senders {
		name := sender.Name()
		if !d.settings.ChannelEnabled(name) {
			continue
		}
		if !d.limiter(name).Allow() {
			metrics.RecordNotification(name, "dropped")
			d.logger.Debug("notification_rate_limited",
				logging.F("channel", name),
				logging.F("session_id", n.SessionID),
			)
			continue
		}
		if err := sender.Notify(ctx, n); err != nil {
			metrics.RecordNotification(name, "error")
			d.logger.Warn("notification_send_failed",
				logging.F("channel", name),
				logging.F("kind", n.Kind),
				logging.F("session_id", n.SessionID),
				logging.Err(err),
			)
			continue
		}
		metrics.RecordNotification(name, "ok")
	}
}

func (d *Dispatcher) limiter(name string) *rate.Limiter {
	d.mu.Lock()
	defer d.mu.Unlock()
	if limiter, ok := d.limiters[name]; ok {
		return limiter
	}
	perMinute := d.settings.NotificationsPerMinute()
	limiter := rate.NewLimiter(rate.Limit(float64(perMinute)/60), perMinute)
	d.limiters[name] = limiter
	return limiter
}
