package application

import (
	"context"
	"errors"
	"log"

	"telematics-cloud/internal/observability/metrics"
	telemetry "telematics-cloud/internal/telemetry/domain"
	vehicles "telematics-cloud/internal/vehicles/domain"
)

// VehicleRegistry resolves external identifiers to vehicles.
type VehicleRegistry interface {
	ResolveOrCreate(ctx context.Context, identifier string) (*vehicles.Vehicle, error)
}

// StateCache receives the latest-known state after a successful ingest.
type StateCache interface {
	Update(ctx context.Context, identifier string, event *telemetry.Event) error
}

// BatchResult reports a best-effort batch submission.
type BatchResult struct {
	Submitted int `json:"totalSubmitted"`
	Processed int `json:"processedCount"`
}

// IngestService normalizes and persists telemetry submissions.
type IngestService struct {
	registry VehicleRegistry
	events   telemetry.Repository
	cache    StateCache
	logger   *log.Logger
}

// Option customizes the ingest service.
type Option func(*IngestService)

// WithStateCache enables latest-state publication.
func WithStateCache(cache StateCache) Option {
	return func(s *IngestService) {
		s.cache = cache
	}
}

// NewIngestService constructs an ingest service.
func NewIngestService(registry VehicleRegistry, events telemetry.Repository, logger *log.Logger, opts ...Option) (*IngestService, error) {
	if registry == nil {
		return nil, errors.New("ingest: nil vehicle registry")
	}
	if events == nil {
		return nil, errors.New("ingest: nil event repository")
	}
	if logger == nil {
		logger = log.Default()
	}
	service := &IngestService{registry: registry, events: events, logger: logger}
	for _, opt := range opts {
		opt(service)
	}
	return service, nil
}

// Ingest resolves the owning vehicle and appends one unprocessed event.
func (s *IngestService) Ingest(ctx context.Context, input telemetry.EventInput) (*telemetry.Event, error) {
	if s == nil {
		return nil, errors.New("ingest: nil service")
	}
	if input.VehicleIdentifier == "" {
		return nil, errors.New("ingest: vehicle identifier required")
	}
	if input.Timestamp.IsZero() {
		return nil, errors.New("ingest: timestamp required")
	}
	if input.AdditionalData != nil && len(*input.AdditionalData) > telemetry.MaxAdditionalDataLen {
		return nil, errors.New("ingest: additional data too long")
	}

	vehicle, err := s.registry.ResolveOrCreate(ctx, input.VehicleIdentifier)
	if err != nil {
		return nil, err
	}

	event := &telemetry.Event{
		VehicleID:      vehicle.ID,
		Timestamp:      input.Timestamp,
		Speed:          input.Speed,
		Heading:        input.Heading,
		Altitude:       input.Altitude,
		Odometer:       input.Odometer,
		FuelLevel:      input.FuelLevel,
		EngineLoad:     input.EngineLoad,
		EngineRPM:      input.EngineRPM,
		CoolantTemp:    input.CoolantTemp,
		EventType:      input.EventType,
		AdditionalData: input.AdditionalData,
	}
	if event.EventType == "" {
		event.EventType = telemetry.DefaultEventType
	}
	// A position needs both coordinates; a lone latitude or longitude is dropped.
	if input.Latitude != nil && input.Longitude != nil {
		event.Position = &telemetry.Position{Latitude: *input.Latitude, Longitude: *input.Longitude}
	}

	if err := s.events.Insert(ctx, event); err != nil {
		return nil, err
	}
	s.logger.Printf("ingest: stored event id=%d vehicle=%s ts=%s", event.ID, input.VehicleIdentifier, input.Timestamp.UTC().Format("2006-01-02T15:04:05Z07:00"))

	if s.cache != nil {
		if err := s.cache.Update(ctx, input.VehicleIdentifier, event); err != nil {
			// Cache is best effort; the event is already durable.
			s.logger.Printf("ingest: state cache update error: vehicle=%s err=%v", input.VehicleIdentifier, err)
		}
	}
	return event, nil
}

// IngestBatch applies Ingest to each item independently. A failing item is
// logged and skipped; the result carries processed vs. submitted counts.
func (s *IngestService) IngestBatch(ctx context.Context, inputs []telemetry.EventInput) BatchResult {
	result := BatchResult{Submitted: len(inputs)}
	if s == nil {
		return result
	}
	for _, input := range inputs {
		if _, err := s.Ingest(ctx, input); err != nil {
			metrics.IncIngestError("batch_item")
			s.logger.Printf("ingest: batch item failed: vehicle=%s err=%v", input.VehicleIdentifier, err)
			continue
		}
		result.Processed++
	}
	s.logger.Printf("ingest: batch processed %d of %d events", result.Processed, result.Submitted)
	return result
}
