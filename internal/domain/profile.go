package domain

import "github.com/google/uuid"

// Route is an origin/destination pair identifying a service corridor.
type Route struct {
	Origin      string
	Destination string
}

func (r Route) Declared() bool {
	return r.Origin != "" && r.Destination != ""
}

// CarrierProfile is the read-only slice of a carrier's profile the matching
// filter needs: the declared specialization route and vehicle capacity.
type CarrierProfile struct {
	CarrierID       uuid.UUID
	PrimaryRoute    Route
	VehicleCapacity int
}

// Specialized reports whether the profile carries everything matching needs.
func (p CarrierProfile) Specialized() bool {
	return p.PrimaryRoute.Declared() && p.VehicleCapacity > 0
}
