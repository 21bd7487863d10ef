// Package replication delivers committed actions and undo notifications to the remote
// paint service without blocking the input loop.
//
// Batches are queued and submitted by a single worker, so the service observes them in
// submission order. Delivery is best effort: a batch that cannot be delivered is logged
// and dropped, and local state is never rolled back.
package replication

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"

	"github.com/and161185/paintstream/internal/convert"
	"github.com/and161185/paintstream/internal/errs"
	"github.com/and161185/paintstream/internal/model"
	"github.com/and161185/paintstream/internal/wire"
)

// Client submits one paint event to the remote service.
type Client interface {
	SubmitPaint(ctx context.Context, ev *wire.PaintEvent) error
}

// Transport hands out a connected client.
type Transport interface {
	GetClient(ctx context.Context) (Client, error)
}

// Policy selects how undo interacts with delivery.
type Policy int

const (
	// BestEffort keeps undone ids in the sent set, always announces deletes and never retries.
	BestEffort Policy = iota
	// Strict prunes undone ids, announces deletes only for ids that were sent and retries failures.
	Strict
)

func (p Policy) String() string {
	if p == Strict {
		return "strict"
	}
	return "best-effort"
}

// Defaults applied by New.
const (
	DefaultRoom             = "general"
	DefaultQueueSize        = 64
	DefaultStrictMaxRetries = 3
	DefaultRetryBase        = 100 * time.Millisecond
)

// Config tunes the dispatcher. Zero values select the defaults.
type Config struct {
	Room      string
	QueueSize int
	Policy    Policy
	// MaxRetries is the number of extra attempts per batch. Zero selects the policy default;
	// a negative value disables retries.
	MaxRetries  int
	RetryBase   time.Duration
	CallTimeout time.Duration // per attempt, 0 means none
	Now         func() time.Time
}

// Stats counts processed batches.
type Stats struct {
	Delivered int64
	Dropped   int64
}

// Dispatcher is safe for concurrent use.
type Dispatcher struct {
	cfg Config
	tr  Transport
	lg  *zap.Logger

	mu     sync.RWMutex
	closed bool
	queue  chan *wire.PaintEvent

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	delivered atomic.Int64
	dropped   atomic.Int64
}

// New starts a dispatcher worker bound to tr.
func New(cfg Config, tr Transport, lg *zap.Logger) *Dispatcher {
	if cfg.Room == "" {
		cfg.Room = DefaultRoom
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}
	switch {
	case cfg.MaxRetries < 0:
		cfg.MaxRetries = 0
	case cfg.MaxRetries == 0 && cfg.Policy == Strict:
		cfg.MaxRetries = DefaultStrictMaxRetries
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = DefaultRetryBase
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if lg == nil {
		lg = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		cfg:    cfg,
		tr:     tr,
		lg:     lg.With(zap.String("room", cfg.Room)),
		queue:  make(chan *wire.PaintEvent, cfg.QueueSize),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go d.run()
	return d
}

// Policy returns the configured undo policy.
func (d *Dispatcher) Policy() Policy { return d.cfg.Policy }

// Room returns the channel the dispatcher publishes to.
func (d *Dispatcher) Room() string { return d.cfg.Room }

// Stats returns a snapshot of the counters.
func (d *Dispatcher) Stats() Stats {
	return Stats{Delivered: d.delivered.Load(), Dropped: d.dropped.Load()}
}

// Flush queues the unsent actions as one action_request batch and returns the ids the
// caller must mark sent. On error nothing was queued.
func (d *Dispatcher) Flush(actions []model.Action) ([]uuid.UUID, error) {
	if len(actions) == 0 {
		return nil, errs.ErrEmptyBatch
	}
	ev := convert.ToPaintEvent(d.cfg.Room, wire.KindActionRequest, actions, d.cfg.Now())
	if err := d.enqueue(ev); err != nil {
		return nil, fmt.Errorf("flush %d actions: %w", len(actions), err)
	}
	ids := make([]uuid.UUID, 0, len(actions))
	for _, a := range actions {
		ids = append(ids, a.ID)
	}
	return ids, nil
}

// NotifyDeleted queues an is_deleted batch for an undone action.
// Under Strict an action that was never sent is not announced.
func (d *Dispatcher) NotifyDeleted(a model.Action, wasSent bool) error {
	if d.cfg.Policy == Strict && !wasSent {
		d.lg.Debug("skip delete of unsent action", zap.String("id", a.ID.String()))
		return nil
	}
	ev := convert.ToPaintEvent(d.cfg.Room, wire.KindIsDeleted, []model.Action{a}, d.cfg.Now())
	if err := d.enqueue(ev); err != nil {
		return fmt.Errorf("notify delete %s: %w", a.ID, err)
	}
	return nil
}

// Close stops accepting batches and waits for the queue to drain. When ctx expires first,
// in-flight calls are cancelled and the remaining batches are dropped.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	select {
	case <-d.done:
		d.cancel()
		return nil
	case <-ctx.Done():
		d.cancel()
		<-d.done
		return ctx.Err()
	}
}

func (d *Dispatcher) enqueue(ev *wire.PaintEvent) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return errs.ErrDispatcherClosed
	}
	select {
	case d.queue <- ev:
		return nil
	default:
		d.lg.Warn("replication queue full",
			zap.String("kind", string(ev.Kind)),
			zap.Int("actions", ev.Count()),
		)
		return errs.ErrQueueFull
	}
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for ev := range d.queue {
		d.deliver(ev)
	}
}

func (d *Dispatcher) deliver(ev *wire.PaintEvent) {
	b := retry.WithMaxRetries(uint64(d.cfg.MaxRetries), retry.NewExponential(d.cfg.RetryBase))
	attempts := 0
	err := retry.Do(d.ctx, b, func(ctx context.Context) error {
		attempts++
		if err := d.submit(ctx, ev); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		d.dropped.Add(1)
		d.lg.Warn("drop batch",
			zap.String("kind", string(ev.Kind)),
			zap.Int("actions", ev.Count()),
			zap.Int("attempts", attempts),
			zap.Error(err),
		)
		return
	}
	d.delivered.Add(1)
	d.lg.Debug("batch delivered",
		zap.String("kind", string(ev.Kind)),
		zap.Int("actions", ev.Count()),
		zap.Int("attempts", attempts),
	)
}

func (d *Dispatcher) submit(ctx context.Context, ev *wire.PaintEvent) error {
	cl, err := d.tr.GetClient(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", errs.ErrNoClient, err)
	}
	if d.cfg.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.cfg.CallTimeout)
		defer cancel()
	}
	if err := cl.SubmitPaint(ctx, ev); err != nil {
		return fmt.Errorf("submit %s: %w", ev.Kind, err)
	}
	return nil
}
