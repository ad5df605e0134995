package domain

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusPendingCarrierConfirmation BookingStatus = "PENDING_CARRIER_CONFIRMATION"
	BookingStatusPendingPayment             BookingStatus = "PENDING_PAYMENT"
	BookingStatusConfirmed                  BookingStatus = "CONFIRMED"
	BookingStatusCancelled                  BookingStatus = "CANCELLED"
	BookingStatusCompleted                  BookingStatus = "COMPLETED"
)

func (s BookingStatus) Terminal() bool {
	return s == BookingStatusCancelled || s == BookingStatusCompleted
}

// CancelParty identifies who terminated a booking, for the audit record.
type CancelParty string

const (
	CancelledByCarrier  CancelParty = "carrier"
	CancelledByTraveler CancelParty = "traveler"
	CancelledBySystem   CancelParty = "system"
)

// Booking is a traveler's reservation against a priced trip. TotalPriceMinor
// is always the full amount for the booking, regardless of whether it came
// from a per-seat offer or a flat direct-approval quote.
type Booking struct {
	ID                 uuid.UUID
	TripID             uuid.UUID
	TravelerID         uuid.UUID
	CarrierID          uuid.UUID
	Seats              int
	PassengerManifest  []Passenger
	TotalPriceMinor    int64
	Currency           string
	Status             BookingStatus
	CancelledBy        CancelParty
	CancellationReason string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
