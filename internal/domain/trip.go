package domain

import (
	"time"

	"github.com/google/uuid"
)

type TripKind string

const (
	TripKindScheduled      TripKind = "SCHEDULED"
	TripKindGeneralRequest TripKind = "GENERAL_REQUEST"
	TripKindDirectRequest  TripKind = "DIRECT_REQUEST"
)

// IsRequest reports whether the trip was opened by a traveler rather than
// published by a carrier.
func (k TripKind) IsRequest() bool {
	return k == TripKindGeneralRequest || k == TripKindDirectRequest
}

type TripStatus string

const (
	TripStatusPlanned        TripStatus = "PLANNED"
	TripStatusAwaitingOffers TripStatus = "AWAITING_OFFERS"
	TripStatusPendingPayment TripStatus = "PENDING_PAYMENT"
	TripStatusInTransit      TripStatus = "IN_TRANSIT"
	TripStatusCompleted      TripStatus = "COMPLETED"
	TripStatusCancelled      TripStatus = "CANCELLED"
)

func (s TripStatus) Terminal() bool {
	return s == TripStatusCompleted || s == TripStatusCancelled
}

// TripAction is a carrier-driven operational transition on a scheduled trip.
type TripAction string

const (
	TripActionStart    TripAction = "start"
	TripActionComplete TripAction = "complete"
	TripActionCancel   TripAction = "cancel"
)

// Next returns the target status for an operational action applied from s.
// Only PLANNED may be started or cancelled and only IN_TRANSIT completed.
func (s TripStatus) Next(action TripAction) (TripStatus, bool) {
	switch {
	case s == TripStatusPlanned && action == TripActionStart:
		return TripStatusInTransit, true
	case s == TripStatusPlanned && action == TripActionCancel:
		return TripStatusCancelled, true
	case s == TripStatusInTransit && action == TripActionComplete:
		return TripStatusCompleted, true
	}
	return s, false
}

type PassengerType string

const (
	PassengerAdult PassengerType = "adult"
	PassengerChild PassengerType = "child"
)

type Passenger struct {
	Name string        `json:"name"`
	Type PassengerType `json:"type"`
}

// Trip is either a carrier-published scheduled trip or a traveler-submitted
// request (general or direct). Monetary amounts are stored in the currency's
// minor units; JOD carries three minor digits, so cents-style int64 fields
// are used throughout.
type Trip struct {
	ID                uuid.UUID
	Kind              TripKind
	Origin            string
	Destination       string
	DepartureDate     time.Time
	RequesterID       uuid.UUID // traveler, request kinds only
	CarrierID         uuid.UUID // publisher for scheduled trips, assigned on pricing for requests
	TargetCarrierID   uuid.UUID // direct requests only
	PricePerSeatMinor int64
	TotalPriceMinor   int64 // flat party total, the authoritative amount for lump-sum priced requests
	Currency          string
	DepositPercent    int
	AvailableSeats    int // scheduled trips only, never negative
	PassengerCount    int
	PassengerManifest []Passenger
	Status            TripStatus
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// HasSharedCapacity reports whether AvailableSeats is a contended resource
// for this trip. Request trips carry exactly one party and no seat pool.
func (t *Trip) HasSharedCapacity() bool {
	return t.Kind == TripKindScheduled
}
