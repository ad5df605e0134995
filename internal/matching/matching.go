// Package matching filters the pool of open general requests down to the
// ones a carrier may actually serve.
package matching

import "github.com/wasel-app/wasel/internal/domain"

// Options control the optional parts of the filter. Capacity filtering is
// never optional: a carrier must not see requests it cannot physically
// fulfill.
type Options struct {
	// SkipRouteFilter returns the pool without the primary-route match so a
	// carrier can browse outside its declared specialization.
	SkipRouteFilter bool
}

// Result is the actionable set for a carrier. SpecializationMissing is a
// signal, not an error: the carrier's profile lacks a declared route or
// vehicle capacity, and the caller should prompt profile completion.
type Result struct {
	Trips                 []domain.Trip
	SpecializationMissing bool
}

// Match filters pool down to the requests the carrier may serve. Pool
// entries are expected to be GENERAL_REQUEST trips in AWAITING_OFFERS;
// anything else is dropped defensively.
func Match(profile domain.CarrierProfile, pool []domain.Trip, opts Options) Result {
	if !profile.Specialized() {
		return Result{Trips: []domain.Trip{}, SpecializationMissing: true}
	}

	matched := make([]domain.Trip, 0, len(pool))
	for _, trip := range pool {
		if trip.Kind != domain.TripKindGeneralRequest || trip.Status != domain.TripStatusAwaitingOffers {
			continue
		}
		if trip.PassengerCount > profile.VehicleCapacity {
			continue
		}
		if !opts.SkipRouteFilter {
			if trip.Origin != profile.PrimaryRoute.Origin || trip.Destination != profile.PrimaryRoute.Destination {
				continue
			}
		}
		matched = append(matched, trip)
	}
	return Result{Trips: matched}
}
