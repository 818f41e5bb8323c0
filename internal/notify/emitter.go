package notify

import (
	"context"
	"time"

	"github.com/article-threads-api/internal/metrics"
	"github.com/rs/zerolog"
)

// Outcome reports what happened to one best-effort publication.
// It is never folded into the result of the operation that triggered it.
type Outcome struct {
	Topic     string
	Delivered bool
	Err       error
}

// Emitter publishes with a bounded timeout and swallows failures after
// logging them
type Emitter struct {
	pub     Publisher
	timeout time.Duration
	log     zerolog.Logger
}

// NewEmitter creates an emitter; a non-positive timeout disables the bound
func NewEmitter(pub Publisher, timeout time.Duration, log zerolog.Logger) *Emitter {
	return &Emitter{
		pub:     pub,
		timeout: timeout,
		log:     log.With().Str("component", "notify").Logger(),
	}
}

// Emit publishes payload and reports the outcome. It never panics on a
// publisher fault.
func (e *Emitter) Emit(ctx context.Context, topic string, payload any) (out Outcome) {
	out.Topic = topic

	defer func() {
		if r := recover(); r != nil {
			e.log.Error().Interface("panic", r).Str("topic", topic).Msg("Publisher panicked - recovered")
			out.Delivered = false
			out.Err = errPanicked
			metrics.Notifications.WithLabelValues(topic, metrics.ResultFailed).Inc()
		}
	}()

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	if err := e.pub.Publish(ctx, topic, payload); err != nil {
		e.log.Warn().Err(err).Str("topic", topic).Msg("Failed to publish notification")
		metrics.Notifications.WithLabelValues(topic, metrics.ResultFailed).Inc()
		out.Err = err
		return out
	}

	metrics.Notifications.WithLabelValues(topic, metrics.ResultPublished).Inc()
	out.Delivered = true
	return out
}
