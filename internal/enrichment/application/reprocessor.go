package application

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"telematics-cloud/internal/observability/metrics"
	telemetry "telematics-cloud/internal/telemetry/domain"
)

// Enricher processes one claimed event.
type Enricher interface {
	Enrich(ctx context.Context, event *telemetry.Event) error
}

// Reprocessor drives enrichment over the unprocessed backlog: claim a bounded
// batch, enrich each event independently, acknowledge the ones that
// succeeded. At-least-once: a crash before Ack re-runs the whole batch on the
// next cycle.
type Reprocessor struct {
	backlog  telemetry.Backlog
	enricher Enricher
	cfg      Config
	logger   *log.Logger
}

// NewReprocessor constructs a reprocessor.
func NewReprocessor(backlog telemetry.Backlog, enricher Enricher, cfg Config, logger *log.Logger) (*Reprocessor, error) {
	if backlog == nil {
		return nil, errors.New("reprocessor: nil backlog")
	}
	if enricher == nil {
		return nil, errors.New("reprocessor: nil enricher")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Reprocessor{backlog: backlog, enricher: enricher, cfg: cfg, logger: logger}, nil
}

// Run loops until ctx is cancelled. A cycle that fails wholesale (storage
// outage) is logged and retried after the shorter retry interval; the worker
// never exits on error.
func (r *Reprocessor) Run(ctx context.Context) {
	if r == nil {
		return
	}
	r.logger.Printf("reprocessor: started interval=%s batch_size=%d", r.cfg.Interval, r.cfg.BatchSize)

	for {
		wait := r.cfg.Interval
		if err := r.RunCycle(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			r.logger.Printf("reprocessor: cycle error: %v", err)
			wait = r.cfg.RetryInterval
		}

		select {
		case <-ctx.Done():
			r.logger.Printf("reprocessor: stopped")
			return
		case <-time.After(wait):
		}
	}
}

// RunCycle performs one claim/enrich/ack pass. Per-event failures are logged
// and skipped so one poisoned event never blocks the rest of the backlog; the
// skipped event stays unprocessed and is retried next cycle.
func (r *Reprocessor) RunCycle(ctx context.Context) error {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveEnrichmentCycle(result, time.Since(start))
	}()

	batch, err := r.backlog.Claim(ctx, r.cfg.BatchSize)
	if err != nil {
		result = metrics.ResultError
		return err
	}
	if len(batch) == 0 {
		r.refreshBacklogGauge(ctx)
		return nil
	}
	r.logger.Printf("reprocessor: processing %d unprocessed event(s)", len(batch))

	completed := make([]int64, 0, len(batch))
	for i := range batch {
		event := &batch[i]
		if err := r.enrichOne(ctx, event); err != nil {
			metrics.IncEventSkipped()
			r.logger.Printf("reprocessor: event id=%d failed, skipping: %v", event.ID, err)
			continue
		}
		completed = append(completed, event.ID)
	}

	if len(completed) > 0 {
		if err := r.backlog.Ack(ctx, completed); err != nil {
			result = metrics.ResultError
			return err
		}
		metrics.AddEventsEnriched(len(completed))
		r.logger.Printf("reprocessor: marked %d event(s) processed", len(completed))
	}
	r.refreshBacklogGauge(ctx)
	return nil
}

func (r *Reprocessor) enrichOne(ctx context.Context, event *telemetry.Event) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("panic during enrichment: %v", recovered)
		}
	}()
	return r.enricher.Enrich(ctx, event)
}

func (r *Reprocessor) refreshBacklogGauge(ctx context.Context) {
	size, err := r.backlog.Size(ctx)
	if err != nil {
		return
	}
	metrics.SetBacklogSize(size)
}
