package notify

import (
	"context"
	"errors"
	"sync"

	"github.com/article-threads-api/internal/metrics"
	"github.com/rs/zerolog"
)

var (
	errPanicked = errors.New("notify: publisher panicked")
	// ErrDropped is reported when a publication is not attempted because
	// the dispatcher is saturated or closed.
	ErrDropped = errors.New("notify: publication dropped")
)

// Dispatcher runs emissions in the background on a bounded set of workers.
// The caller never waits for delivery.
type Dispatcher struct {
	emitter *Emitter
	log     zerolog.Logger

	// semaphore bounding in-flight publications
	sem chan struct{}
	wg  sync.WaitGroup

	mu     sync.Mutex
	closed bool

	// OnOutcome, when set, observes every finished publication
	OnOutcome func(Outcome)
}

// NewDispatcher creates a dispatcher with at most workers concurrent publications
func NewDispatcher(emitter *Emitter, workers int, log zerolog.Logger) *Dispatcher {
	if workers < 1 {
		workers = 1
	}

	log.Info().Int("max_workers", workers).Msg("Initializing notification dispatcher")

	return &Dispatcher{
		emitter: emitter,
		log:     log.With().Str("component", "dispatcher").Logger(),
		sem:     make(chan struct{}, workers),
	}
}

// Dispatch schedules a publication and returns immediately. It reports
// false when the publication was dropped.
func (d *Dispatcher) Dispatch(topic string, payload any) bool {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		d.drop(topic, "closed")
		return false
	}

	// Acquire a slot without blocking the request path
	select {
	case d.sem <- struct{}{}:
	default:
		d.mu.Unlock()
		d.drop(topic, "saturated")
		return false
	}
	d.wg.Add(1)
	d.mu.Unlock()

	go func() {
		defer d.wg.Done()
		defer func() { <-d.sem }()

		// Detached from the request: the request may finish first
		out := d.emitter.Emit(context.Background(), topic, payload)
		if d.OnOutcome != nil {
			d.OnOutcome(out)
		}
	}()
	return true
}

func (d *Dispatcher) drop(topic, reason string) {
	d.log.Warn().Str("topic", topic).Str("reason", reason).Msg("Notification dropped")
	metrics.Notifications.WithLabelValues(topic, metrics.ResultDropped).Inc()
	if d.OnOutcome != nil {
		d.OnOutcome(Outcome{Topic: topic, Err: ErrDropped})
	}
}

// Close stops accepting publications and waits for in-flight ones until
// ctx is done
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.log.Info().Msg("Notification dispatcher drained")
		return nil
	case <-ctx.Done():
		d.log.Warn().Msg("Notification dispatcher close timed out")
		return ctx.Err()
	}
}
