package application

import (
	"context"
	"errors"
	"time"

	telemetry "telematics-cloud/internal/telemetry/domain"
	trips "telematics-cloud/internal/trips/domain"
)

// TripGapThreshold is the inactivity window that opens a new trip.
const TripGapThreshold = 30 * time.Minute

// Clock provides time.
type Clock interface {
	Now() time.Time
}

// TripSegmenter decides whether an event begins a new trip. It holds no
// per-vehicle state: the prior sample is reloaded on every call so the
// decision survives process restarts.
type TripSegmenter struct {
	prior telemetry.PriorEventSource
	trips trips.Repository
	clock Clock
}

// NewTripSegmenter constructs a segmenter.
func NewTripSegmenter(prior telemetry.PriorEventSource, tripRepo trips.Repository, clock Clock) (*TripSegmenter, error) {
	if prior == nil {
		return nil, errors.New("segmenter: nil prior event source")
	}
	if tripRepo == nil {
		return nil, errors.New("segmenter: nil trip repository")
	}
	if clock == nil {
		return nil, errors.New("segmenter: nil clock")
	}
	return &TripSegmenter{prior: prior, trips: tripRepo, clock: clock}, nil
}

// Segment returns the newly opened trip, or nil when the event continues an
// existing trip or the vehicle has no history. Gaps are measured between
// declared sample timestamps, which may run backwards when samples arrive out
// of order; the prior sample is whatever LatestPrior's ordering picks.
func (s *TripSegmenter) Segment(ctx context.Context, event *telemetry.Event) (*trips.Trip, error) {
	if s == nil {
		return nil, errors.New("segmenter: nil segmenter")
	}
	if event == nil {
		return nil, errors.New("segmenter: nil event")
	}

	prior, err := s.prior.LatestPrior(ctx, event.VehicleID, event.ID)
	if err != nil {
		return nil, err
	}
	if prior == nil {
		// First-ever sample: insufficient history, not an implicit trip start.
		return nil, nil
	}

	if event.Timestamp.Sub(prior.Timestamp) <= TripGapThreshold {
		return nil, nil
	}

	trip := &trips.Trip{
		VehicleID:     event.VehicleID,
		StartTime:     event.Timestamp,
		StartLocation: event.Position,
		EventCount:    1,
		CreatedAt:     s.clock.Now(),
	}
	if err := s.trips.Insert(ctx, trip); err != nil {
		return nil, err
	}
	return trip, nil
}
