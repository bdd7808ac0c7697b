// Package pricing coordinates asynchronous price lookups against the backend
// price service and resolves quantity-break tiers.
package pricing

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultSettleWindow is how long input must be idle before a request fires.
const DefaultSettleWindow = 400 * time.Millisecond

// Status is the lifecycle of a resolver result.
type Status string

const (
	StatusPending Status = "pending"
	StatusSettled Status = "settled"
	StatusError   Status = "error"
)

// Result is the latest outcome of a resolver. A settled result with a nil
// Value means the payload was not priceable (or nothing was scheduled yet).
// While pending, Value still holds the previous settled value for display.
// An error result never carries a value.
type Result[Resp any] struct {
	Status     Status
	Value      *Resp
	Err        error
	Generation uint64
}

// Fetcher performs the backend call for one payload.
type Fetcher[Req, Resp any] func(ctx context.Context, req Req) (*Resp, error)

// Validator reports whether a payload is complete enough to send.
type Validator[Req any] func(req Req) bool

// Observer receives resolver events. Implemented by telemetry.
type Observer interface {
	RequestIssued(resolver string)
	RequestCompleted(resolver string, d time.Duration)
	StaleDiscarded(resolver string)
	Coalesced(resolver string)
	InvalidSkipped(resolver string)
	TransportError(resolver string)
}

// Config tunes a resolver instance.
type Config struct {
	// Name labels logs and metrics ("parametric", "bundle", "component").
	Name string

	// Window is the settle window. Zero means DefaultSettleWindow.
	Window time.Duration

	Logger   *slog.Logger
	Observer Observer

	// OnError is called outside the lock for every transport error.
	OnError func(error)
}

// Resolver debounces a changing payload, keeps at most one request in
// flight and discards responses that belong to an older payload.
//
// Every Schedule bumps a generation counter; a response is only applied when
// the generation captured at issue time is still the latest. The last
// scheduled payload therefore always wins, regardless of arrival order.
type Resolver[Req, Resp any] struct {
	fetch Fetcher[Req, Resp]
	valid Validator[Req]
	cfg   Config

	mu       sync.Mutex
	gen      uint64
	payload  Req
	timer    *time.Timer
	inflight context.CancelFunc
	result   Result[Resp]
	done     chan struct{}
	closed   bool

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a resolver. valid may be nil, in which case every payload is sent.
// The initial result is settled with no value.
func New[Req, Resp any](fetch Fetcher[Req, Resp], valid Validator[Req], cfg Config) *Resolver[Req, Resp] {
	if cfg.Window <= 0 {
		cfg.Window = DefaultSettleWindow
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Observer == nil {
		cfg.Observer = nopObserver{}
	}
	cfg.Logger = cfg.Logger.With("resolver", cfg.Name)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	close(done)

	return &Resolver[Req, Resp]{
		fetch:  fetch,
		valid:  valid,
		cfg:    cfg,
		result: Result[Resp]{Status: StatusSettled},
		done:   done,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Schedule replaces the pending payload and restarts the settle window.
// Any previously pending timer is cancelled first, so at most one timer is
// ever pending.
func (r *Resolver[Req, Resp]) Schedule(req Req) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}

	r.gen++
	gen := r.gen
	r.payload = req

	if r.timer != nil && r.timer.Stop() {
		r.cfg.Observer.Coalesced(r.cfg.Name)
	}

	if r.result.Status != StatusPending {
		r.done = make(chan struct{})
	}
	r.result.Status = StatusPending
	r.result.Err = nil
	r.result.Generation = gen

	r.timer = time.AfterFunc(r.cfg.Window, func() { r.fire(gen) })
}

func (r *Resolver[Req, Resp]) fire(gen uint64) {
	r.mu.Lock()
	if r.closed || gen != r.gen {
		r.mu.Unlock()
		return
	}
	r.timer = nil
	req := r.payload

	if r.valid != nil && !r.valid(req) {
		r.settle(Result[Resp]{Status: StatusSettled, Generation: gen})
		r.mu.Unlock()
		r.cfg.Observer.InvalidSkipped(r.cfg.Name)
		r.cfg.Logger.Debug("payload not priceable, skipping request", "generation", gen)
		return
	}

	if r.inflight != nil {
		r.inflight()
	}
	ctx, cancel := context.WithCancel(r.ctx)
	r.inflight = cancel
	r.mu.Unlock()

	r.cfg.Observer.RequestIssued(r.cfg.Name)
	start := time.Now()
	resp, err := r.fetch(ctx, req)
	r.cfg.Observer.RequestCompleted(r.cfg.Name, time.Since(start))
	cancel()

	r.mu.Lock()
	if r.closed || gen != r.gen {
		r.mu.Unlock()
		r.cfg.Observer.StaleDiscarded(r.cfg.Name)
		r.cfg.Logger.Debug("discarding stale price response", "generation", gen)
		return
	}
	r.inflight = nil

	if err != nil {
		r.settle(Result[Resp]{Status: StatusError, Err: err, Generation: gen})
		r.mu.Unlock()
		r.cfg.Observer.TransportError(r.cfg.Name)
		r.cfg.Logger.Warn("price request failed", "generation", gen, "error", err)
		if r.cfg.OnError != nil {
			r.cfg.OnError(err)
		}
		return
	}

	r.settle(Result[Resp]{Status: StatusSettled, Value: resp, Generation: gen})
	r.mu.Unlock()
}

// settle replaces the result wholesale and wakes waiters. Caller holds mu.
func (r *Resolver[Req, Resp]) settle(res Result[Resp]) {
	r.result = res
	select {
	case <-r.done:
	default:
		close(r.done)
	}
}

// Result returns the latest result.
func (r *Resolver[Req, Resp]) Result() Result[Resp] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.result
}

// Payload returns the most recently scheduled payload.
func (r *Resolver[Req, Resp]) Payload() Req {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.payload
}

// Await blocks until the result leaves pending or ctx is done.
func (r *Resolver[Req, Resp]) Await(ctx context.Context) (Result[Resp], error) {
	for {
		r.mu.Lock()
		done := r.done
		if r.result.Status != StatusPending {
			res := r.result
			r.mu.Unlock()
			return res, nil
		}
		r.mu.Unlock()

		select {
		case <-done:
		case <-ctx.Done():
			return r.Result(), ctx.Err()
		}
	}
}

// Close stops the pending timer and abandons any in-flight request; a
// response arriving afterwards is a no-op. Waiters are released.
func (r *Resolver[Req, Resp]) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	r.closed = true
	r.gen++

	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	if r.inflight != nil {
		r.inflight()
		r.inflight = nil
	}
	r.cancel()

	if r.result.Status == StatusPending {
		r.result.Status = StatusSettled
	}
	r.settle(r.result)
}

type nopObserver struct{}

func (nopObserver) RequestIssued(string)                   {}
func (nopObserver) RequestCompleted(string, time.Duration) {}
func (nopObserver) StaleDiscarded(string)                  {}
func (nopObserver) Coalesced(string)                       {}
func (nopObserver) InvalidSkipped(string)                  {}
func (nopObserver) TransportError(string)                  {}
