package outbox

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type Source interface {
	FetchPending(ctx context.Context, limit int) ([]Record, error)
	MarkSent(ctx context.Context, id int64) error
}

type Publisher interface {
	Publish(ctx context.Context, rec Record) error
}

// Relay drains pending records in id order. A record that fails to publish
// stops the batch so later events for the same order are not sent ahead of it.
type Relay struct {
	Source    Source
	Publisher Publisher
	Interval  time.Duration
	BatchSize int
	Logger    *slog.Logger
	Published *prometheus.CounterVec
}

func (r *Relay) RunOnce(ctx context.Context) (int, error) {
	batch := r.BatchSize
	if batch <= 0 {
		batch = 100
	}
	recs, err := r.Source.FetchPending(ctx, batch)
	if err != nil {
		return 0, err
	}
	sent := 0
	for _, rec := range recs {
		if err := r.Publisher.Publish(ctx, rec); err != nil {
			r.count("error")
			return sent, err
		}
		if err := r.Source.MarkSent(ctx, rec.ID); err != nil {
			return sent, err
		}
		r.count("ok")
		sent++
	}
	return sent, nil
}

// Run polls until ctx is done.
func (r *Relay) Run(ctx context.Context) {
	interval := r.Interval
	if interval <= 0 {
		interval = time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		n, err := r.RunOnce(ctx)
		if err != nil && ctx.Err() == nil && r.Logger != nil {
			r.Logger.Error("outbox relay failed", "err", err, "sent", n)
		}
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}

func (r *Relay) count(result string) {
	if r.Published != nil {
		r.Published.WithLabelValues(result).Inc()
	}
}
