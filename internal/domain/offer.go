package domain

import (
	"time"

	"github.com/google/uuid"
)

type OfferStatus string

const (
	OfferStatusPending  OfferStatus = "PENDING"
	OfferStatusAccepted OfferStatus = "ACCEPTED"
	OfferStatusRejected OfferStatus = "REJECTED"
)

// Offer is a carrier's priced bid against an open request. Several offers
// may exist per trip; at most one ever reaches ACCEPTED.
type Offer struct {
	ID                 uuid.UUID
	TripID             uuid.UUID
	CarrierID          uuid.UUID
	PricePerSeatMinor  int64
	Currency           string
	DepositPercent     int
	VehicleDescription string
	Status             OfferStatus
	CreatedAt          time.Time
}
