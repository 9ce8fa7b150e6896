package application

import (
	"context"
	"errors"
	"log"
	"os"
	"testing"
	"time"

	telemetry "telematics-cloud/internal/telemetry/domain"
)

type stubBacklog struct {
	pending []telemetry.Event
	acked   [][]int64
	ackErr  error
}

func (s *stubBacklog) Claim(_ context.Context, limit int) ([]telemetry.Event, error) {
	if limit > len(s.pending) {
		limit = len(s.pending)
	}
	batch := make([]telemetry.Event, limit)
	copy(batch, s.pending[:limit])
	return batch, nil
}

func (s *stubBacklog) Ack(_ context.Context, ids []int64) error {
	if s.ackErr != nil {
		return s.ackErr
	}
	s.acked = append(s.acked, ids)
	done := make(map[int64]bool, len(ids))
	for _, id := range ids {
		done[id] = true
	}
	var remaining []telemetry.Event
	for _, event := range s.pending {
		if !done[event.ID] {
			remaining = append(remaining, event)
		}
	}
	s.pending = remaining
	return nil
}

func (s *stubBacklog) Size(context.Context) (int64, error) {
	return int64(len(s.pending)), nil
}

type stubEnricher struct {
	failIDs  map[int64]bool
	panicIDs map[int64]bool
	seen     []int64
}

func (s *stubEnricher) Enrich(_ context.Context, event *telemetry.Event) error {
	s.seen = append(s.seen, event.ID)
	if s.panicIDs[event.ID] {
		panic("boom")
	}
	if s.failIDs[event.ID] {
		return errors.New("rule engine failure")
	}
	return nil
}

func testLogger() *log.Logger {
	return log.New(os.Stdout, "test ", log.LstdFlags)
}

func pendingEvents(ids ...int64) []telemetry.Event {
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	events := make([]telemetry.Event, 0, len(ids))
	for i, id := range ids {
		events = append(events, telemetry.Event{ID: id, VehicleID: 1, Timestamp: base.Add(time.Duration(i) * time.Minute)})
	}
	return events
}

func TestReprocessor_CycleAcksAllSuccesses(t *testing.T) {
	backlog := &stubBacklog{pending: pendingEvents(1, 2, 3)}
	enricher := &stubEnricher{}
	rp, err := NewReprocessor(backlog, enricher, DefaultConfig(), testLogger())
	if err != nil {
		t.Fatalf("new reprocessor: %v", err)
	}

	if err := rp.RunCycle(context.Background()); err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	if len(backlog.acked) != 1 {
		t.Fatalf("expected one ack call, got %d", len(backlog.acked))
	}
	if got := backlog.acked[0]; len(got) != 3 || got[0] != 1 || got[1] != 2 || got[2] != 3 {
		t.Fatalf("expected ack [1 2 3], got %v", got)
	}
	if len(backlog.pending) != 0 {
		t.Fatalf("expected empty backlog, got %d", len(backlog.pending))
	}
}

func TestReprocessor_FailingEventSkippedNotAcked(t *testing.T) {
	backlog := &stubBacklog{pending: pendingEvents(1, 2, 3)}
	enricher := &stubEnricher{failIDs: map[int64]bool{2: true}}
	rp, err := NewReprocessor(backlog, enricher, DefaultConfig(), testLogger())
	if err != nil {
		t.Fatalf("new reprocessor: %v", err)
	}

	if err := rp.RunCycle(context.Background()); err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	if got := backlog.acked[0]; len(got) != 2 || got[0] != 1 || got[1] != 3 {
		t.Fatalf("expected ack [1 3], got %v", got)
	}
	if len(backlog.pending) != 1 || backlog.pending[0].ID != 2 {
		t.Fatalf("expected event 2 to remain unprocessed, got %v", backlog.pending)
	}
}

func TestReprocessor_PanicContained(t *testing.T) {
	backlog := &stubBacklog{pending: pendingEvents(1, 2, 3)}
	enricher := &stubEnricher{panicIDs: map[int64]bool{1: true}}
	rp, err := NewReprocessor(backlog, enricher, DefaultConfig(), testLogger())
	if err != nil {
		t.Fatalf("new reprocessor: %v", err)
	}

	if err := rp.RunCycle(context.Background()); err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	if len(enricher.seen) != 3 {
		t.Fatalf("expected all 3 events attempted despite panic, got %d", len(enricher.seen))
	}
	if got := backlog.acked[0]; len(got) != 2 || got[0] != 2 || got[1] != 3 {
		t.Fatalf("expected ack [2 3], got %v", got)
	}
}

func TestReprocessor_EmptyBacklogNoAck(t *testing.T) {
	backlog := &stubBacklog{}
	enricher := &stubEnricher{}
	rp, err := NewReprocessor(backlog, enricher, DefaultConfig(), testLogger())
	if err != nil {
		t.Fatalf("new reprocessor: %v", err)
	}

	if err := rp.RunCycle(context.Background()); err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	if len(backlog.acked) != 0 {
		t.Fatalf("expected no ack on empty backlog, got %d", len(backlog.acked))
	}
}

func TestReprocessor_AckFailureLeavesBatchClaimable(t *testing.T) {
	backlog := &stubBacklog{pending: pendingEvents(1, 2), ackErr: errors.New("db down")}
	enricher := &stubEnricher{}
	rp, err := NewReprocessor(backlog, enricher, DefaultConfig(), testLogger())
	if err != nil {
		t.Fatalf("new reprocessor: %v", err)
	}

	if err := rp.RunCycle(context.Background()); err == nil {
		t.Fatal("expected cycle error, got nil")
	}
	if len(backlog.pending) != 2 {
		t.Fatalf("expected batch still unprocessed after failed ack, got %d", len(backlog.pending))
	}

	// Next cycle re-claims and re-enriches the same events.
	backlog.ackErr = nil
	if err := rp.RunCycle(context.Background()); err != nil {
		t.Fatalf("second cycle: %v", err)
	}
	if len(backlog.pending) != 0 {
		t.Fatalf("expected backlog drained on retry, got %d", len(backlog.pending))
	}
	if len(enricher.seen) != 4 {
		t.Fatalf("expected events re-enriched on retry, got %d attempts", len(enricher.seen))
	}
}

func TestReprocessor_BatchSizeBoundsClaim(t *testing.T) {
	backlog := &stubBacklog{pending: pendingEvents(1, 2, 3, 4, 5)}
	enricher := &stubEnricher{}
	cfg := DefaultConfig()
	cfg.BatchSize = 2
	rp, err := NewReprocessor(backlog, enricher, cfg, testLogger())
	if err != nil {
		t.Fatalf("new reprocessor: %v", err)
	}

	if err := rp.RunCycle(context.Background()); err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	if len(enricher.seen) != 2 {
		t.Fatalf("expected 2 events claimed, got %d", len(enricher.seen))
	}
	if len(backlog.pending) != 3 {
		t.Fatalf("expected 3 events left, got %d", len(backlog.pending))
	}
}

func TestReprocessor_RunStopsOnCancel(t *testing.T) {
	backlog := &stubBacklog{}
	enricher := &stubEnricher{}
	cfg := DefaultConfig()
	cfg.Interval = 10 * time.Millisecond
	rp, err := NewReprocessor(backlog, enricher, cfg, testLogger())
	if err != nil {
		t.Fatalf("new reprocessor: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		rp.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("reprocessor did not stop after cancel")
	}
}
