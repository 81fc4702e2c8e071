package notifications

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/ziadkadry99/studyguide/internal/metrics"
)

// DefaultTTL is how long a notification stays active.
const DefaultTTL = 3 * time.Second

// Sink receives every notification synchronously, in order.
type Sink func(Notification)

// Dispatcher raises notifications, keeps the active ones until they expire
// and delivers them to sinks, subscribers and the history store.
type Dispatcher struct {
	mu     sync.Mutex
	active map[string]Notification
	subs   map[int]chan Notification
	nextID int
	sinks  []Sink

	clock   clockwork.Clock
	ttl     time.Duration
	store   *Store
	logger  *slog.Logger
	metrics *metrics.Pipeline
}

type Option func(*Dispatcher)

// WithClock sets the clock used for timestamps and expiry.
func WithClock(c clockwork.Clock) Option {
	return func(d *Dispatcher) { d.clock = c }
}

// WithTTL sets how long notifications stay active. Zero keeps them until dismissed.
func WithTTL(ttl time.Duration) Option {
	return func(d *Dispatcher) { d.ttl = ttl }
}

// WithStore records every notification in the history store.
func WithStore(s *Store) Option {
	return func(d *Dispatcher) { d.store = s }
}

func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) { d.logger = l }
}

func WithMetrics(m *metrics.Pipeline) Option {
	return func(d *Dispatcher) { d.metrics = m }
}

// WithSink adds a synchronous sink.
func WithSink(s Sink) Option {
	return func(d *Dispatcher) { d.sinks = append(d.sinks, s) }
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		active: make(map[string]Notification),
		subs:   make(map[int]chan Notification),
		clock:  clockwork.NewRealClock(),
		ttl:    DefaultTTL,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Notify raises a notification and returns it.
func (d *Dispatcher) Notify(ctx context.Context, level Level, source, message string) Notification {
	now := d.clock.Now()
	n := Notification{
		ID:        uuid.New().String(),
		Level:     level,
		Message:   message,
		Source:    source,
		CreatedAt: now,
	}
	if d.ttl > 0 {
		n.ExpiresAt = now.Add(d.ttl)
	}

	d.mu.Lock()
	d.pruneLocked(now)
	d.active[n.ID] = n
	sinks := d.sinks
	for _, ch := range d.subs {
		select {
		case ch <- n:
		default:
			d.logger.Warn("dropping notification for slow subscriber", "id", n.ID)
		}
	}
	d.mu.Unlock()

	for _, sink := range sinks {
		sink(n)
	}
	if d.store != nil {
		if err := d.store.Create(ctx, n); err != nil {
			d.logger.Warn("recording notification", "error", err)
		}
	}
	d.metrics.Notified(string(level))
	d.logger.Debug("notification raised", "level", level, "source", source, "message", message)
	return n
}

// Error raises an error notification.
func (d *Dispatcher) Error(ctx context.Context, source, message string) {
	d.Notify(ctx, LevelError, source, message)
}

// Active returns the notifications that have not expired or been dismissed,
// oldest first.
func (d *Dispatcher) Active() []Notification {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pruneLocked(d.clock.Now())
	out := make([]Notification, 0, len(d.active))
	for _, n := range d.active {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Dismiss removes an active notification. It reports whether it was active.
func (d *Dispatcher) Dismiss(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.active[id]; !ok {
		return false
	}
	delete(d.active, id)
	return true
}

// Subscribe returns a channel receiving every new notification and a func
// that ends the subscription. Slow subscribers miss notifications rather
// than block Notify.
func (d *Dispatcher) Subscribe() (<-chan Notification, func()) {
	ch := make(chan Notification, 16)
	d.mu.Lock()
	id := d.nextID
	d.nextID++
	d.subs[id] = ch
	d.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			d.mu.Lock()
			delete(d.subs, id)
			d.mu.Unlock()
			close(ch)
		})
	}
}

// Subscribers returns the number of open subscriptions.
func (d *Dispatcher) Subscribers() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.subs)
}

func (d *Dispatcher) pruneLocked(now time.Time) {
	for id, n := range d.active {
		if n.Expired(now) {
			delete(d.active, id)
		}
	}
}
