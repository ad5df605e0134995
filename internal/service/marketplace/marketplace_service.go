// Package marketplace serves the carrier-facing marketplace view: the pool
// of open general requests, cached in Redis and filtered through the
// carrier's declared specialization.
package marketplace

import (
	"context"
	"log"

	"github.com/google/uuid"
	"github.com/wasel-app/wasel/internal/domain"
	"github.com/wasel-app/wasel/internal/matching"
	"github.com/wasel-app/wasel/internal/repository"
)

type MatchingUseCase interface {
	OpenRequests(ctx context.Context, carrierID uuid.UUID, includeAll bool) (matching.Result, error)
}

// PoolCache fronts the open-request pool. Both reads returning (nil, nil)
// and cache errors fall through to the database.
type PoolCache interface {
	GetOpenRequests(ctx context.Context) ([]domain.Trip, error)
	SetOpenRequests(ctx context.Context, trips []domain.Trip) error
}

type MatchingService struct {
	trips    repository.TripRepository
	profiles repository.CarrierProfileRepository
	cache    PoolCache
}

func NewMatchingService(trips repository.TripRepository, profiles repository.CarrierProfileRepository, cache PoolCache) *MatchingService {
	return &MatchingService{trips: trips, profiles: profiles, cache: cache}
}

// OpenRequests returns the requests the carrier may serve. includeAll keeps
// the capacity filter but lifts the route restriction so the carrier can
// browse beyond its primary route.
func (s *MatchingService) OpenRequests(ctx context.Context, carrierID uuid.UUID, includeAll bool) (matching.Result, error) {
	profile, err := s.profiles.GetByCarrierID(ctx, carrierID)
	if err != nil {
		return matching.Result{}, err
	}

	pool, err := s.pool(ctx)
	if err != nil {
		return matching.Result{}, err
	}

	return matching.Match(profile, pool, matching.Options{SkipRouteFilter: includeAll}), nil
}

func (s *MatchingService) pool(ctx context.Context) ([]domain.Trip, error) {
	if s.cache != nil {
		cached, err := s.cache.GetOpenRequests(ctx)
		if err != nil {
			log.Printf("WARNING: open-requests cache read failed: %v", err)
		} else if cached != nil {
			return cached, nil
		}
	}

	pool, err := s.trips.ListOpenGeneralRequests(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetOpenRequests(ctx, pool); err != nil {
			log.Printf("WARNING: open-requests cache write failed: %v", err)
		}
	}
	return pool, nil
}

var _ MatchingUseCase = (*MatchingService)(nil)
