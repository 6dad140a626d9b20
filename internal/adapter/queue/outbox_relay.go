package queue

import (
	"context"
	"log/slog"
	"time"

	"github.com/thaijunny/fashion-be/internal/adapter/observ"
	"github.com/thaijunny/fashion-be/internal/logging"
	"github.com/thaijunny/fashion-be/internal/usecase"
)

// Publisher hands one payload to the broker.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, body []byte) error
}

// OutboxRelay moves committed outbox rows to the broker. Delivery is at least
// once: a row is marked sent only after the broker confirmed it.
type OutboxRelay struct {
	repo     usecase.OutboxRepo
	pub      Publisher
	interval time.Duration
	batch    int
	backoff  func(retry int) time.Duration
	now      func() time.Time
	log      *slog.Logger
}

func NewOutboxRelay(repo usecase.OutboxRepo, pub Publisher, interval time.Duration, batch int) *OutboxRelay {
	if interval <= 0 {
		interval = time.Second
	}
	if batch <= 0 {
		batch = 100
	}
	return &OutboxRelay{
		repo:     repo,
		pub:      pub,
		interval: interval,
		batch:    batch,
		backoff:  Backoff,
		now:      time.Now,
		log:      logging.New("outbox-relay"),
	}
}

// Backoff doubles from 2s per retry, capped at 5 minutes.
func Backoff(retry int) time.Duration {
	if retry > 8 {
		return 5 * time.Minute
	}
	d := 2 * time.Second << retry
	if d > 5*time.Minute {
		d = 5 * time.Minute
	}
	return d
}

// Run polls until ctx is done.
func (r *OutboxRelay) Run(ctx context.Context) {
	t := time.NewTicker(r.interval)
	defer t.Stop()
	for {
		if _, err := r.RelayOnce(ctx); err != nil {
			r.log.Error("outbox poll failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}

// RelayOnce publishes one batch and returns how many rows were sent.
func (r *OutboxRelay) RelayOnce(ctx context.Context) (int, error) {
	msgs, err := r.repo.FetchPending(ctx, r.batch)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, m := range msgs {
		if ctx.Err() != nil {
			return sent, ctx.Err()
		}
		if err := r.pub.Publish(ctx, m.Channel, m.Payload); err != nil {
			next := r.now().Add(r.backoff(m.RetryCount))
			r.log.Warn("outbox publish failed", "id", m.ID, "channel", m.Channel, "retry", m.RetryCount, "error", err)
			observ.OutboxRelayed.WithLabelValues("retry").Inc()
			if err := r.repo.MarkRetry(ctx, m.ID, next); err != nil {
				return sent, err
			}
			continue
		}
		if err := r.repo.MarkSent(ctx, m.ID); err != nil {
			return sent, err
		}
		observ.OutboxRelayed.WithLabelValues("sent").Inc()
		sent++
	}
	return sent, nil
}
