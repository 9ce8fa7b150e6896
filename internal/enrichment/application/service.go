package application

import (
	"context"
	"errors"
	"log"
	"time"

	alerts "telematics-cloud/internal/alerts/domain"
	"telematics-cloud/internal/observability/metrics"
	telemetry "telematics-cloud/internal/telemetry/domain"
)

// Service enriches one telemetry event: alert rules plus trip segmentation.
type Service struct {
	rules     []alerts.Rule
	alertRepo alerts.Repository
	segmenter *TripSegmenter
	clock     Clock
	logger    *log.Logger
}

// ServiceOption customizes the enrichment service.
type ServiceOption func(*Service)

// WithRules replaces the default rule set.
func WithRules(rules []alerts.Rule) ServiceOption {
	return func(s *Service) {
		s.rules = rules
	}
}

// WithClock assigns a clock.
func WithClock(clock Clock) ServiceOption {
	return func(s *Service) {
		s.clock = clock
	}
}

// NewService constructs an enrichment service with the default rule set.
func NewService(alertRepo alerts.Repository, segmenter *TripSegmenter, logger *log.Logger, opts ...ServiceOption) (*Service, error) {
	if alertRepo == nil {
		return nil, errors.New("enrichment: nil alert repository")
	}
	if segmenter == nil {
		return nil, errors.New("enrichment: nil segmenter")
	}
	if logger == nil {
		logger = log.Default()
	}
	service := &Service{
		rules:     alerts.DefaultRules(),
		alertRepo: alertRepo,
		segmenter: segmenter,
		clock:     systemClock{},
		logger:    logger,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service, nil
}

// Enrich runs the rule engine and trip segmenter over one event. Alerts fired
// by the rules are persisted as one group; the trip decision follows.
func (s *Service) Enrich(ctx context.Context, event *telemetry.Event) error {
	if s == nil {
		return errors.New("enrichment: nil service")
	}
	if event == nil {
		return errors.New("enrichment: nil event")
	}

	fired := alerts.Evaluate(s.rules, event, s.clock.Now())
	if len(fired) > 0 {
		if err := s.alertRepo.InsertGroup(ctx, fired); err != nil {
			return err
		}
		for _, alert := range fired {
			metrics.IncAlertCreated(alert.Kind)
		}
		s.logger.Printf("enrichment: %d alert(s) for event id=%d vehicle=%d", len(fired), event.ID, event.VehicleID)
	}

	trip, err := s.segmenter.Segment(ctx, event)
	if err != nil {
		return err
	}
	if trip != nil {
		metrics.IncTripStarted()
		s.logger.Printf("enrichment: started trip id=%d vehicle=%d start=%s", trip.ID, trip.VehicleID, trip.StartTime.UTC().Format(time.RFC3339))
	}
	return nil
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }
