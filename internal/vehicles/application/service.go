package application

import (
	"context"
	"errors"
	"log"

	vehicles "telematics-cloud/internal/vehicles/domain"
)

// Service is the vehicle registry application service.
type Service struct {
	repo   vehicles.Repository
	logger *log.Logger
}

// NewService constructs a vehicle service.
func NewService(repo vehicles.Repository, logger *log.Logger) (*Service, error) {
	if repo == nil {
		return nil, errors.New("vehicles: nil repository")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Service{repo: repo, logger: logger}, nil
}

// ResolveOrCreate returns the vehicle for identifier, creating it on first sight.
func (s *Service) ResolveOrCreate(ctx context.Context, identifier string) (*vehicles.Vehicle, error) {
	if s == nil {
		return nil, errors.New("vehicles: nil service")
	}
	if identifier == "" {
		return nil, errors.New("vehicles: empty identifier")
	}
	existing, err := s.repo.GetByIdentifier(ctx, identifier)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, vehicles.ErrNotFound) {
		return nil, err
	}
	created, err := s.repo.ResolveOrCreate(ctx, identifier)
	if err != nil {
		return nil, err
	}
	s.logger.Printf("vehicles: registered new vehicle identifier=%s id=%d", created.Identifier, created.ID)
	return created, nil
}

// Lookup returns the vehicle for identifier without creating it.
func (s *Service) Lookup(ctx context.Context, identifier string) (*vehicles.Vehicle, error) {
	if s == nil {
		return nil, errors.New("vehicles: nil service")
	}
	if identifier == "" {
		return nil, errors.New("vehicles: empty identifier")
	}
	return s.repo.GetByIdentifier(ctx, identifier)
}

// List returns all registered vehicles.
func (s *Service) List(ctx context.Context) ([]vehicles.Vehicle, error) {
	if s == nil {
		return nil, errors.New("vehicles: nil service")
	}
	return s.repo.List(ctx)
}

// Stats returns reporting totals for one vehicle, or ErrNotFound.
func (s *Service) Stats(ctx context.Context, identifier string) (*vehicles.Stats, error) {
	if s == nil {
		return nil, errors.New("vehicles: nil service")
	}
	if identifier == "" {
		return nil, errors.New("vehicles: empty identifier")
	}
	return s.repo.Stats(ctx, identifier)
}
