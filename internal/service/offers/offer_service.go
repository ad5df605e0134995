// Package offers manages carrier bids against open requests and the
// transactional acceptance that turns a bid into a booking.
package offers

import (
	"context"
	"log"

	"github.com/google/uuid"
	"github.com/wasel-app/wasel/internal/domain"
	"github.com/wasel-app/wasel/internal/notify"
	"github.com/wasel-app/wasel/internal/pricing"
	"github.com/wasel-app/wasel/internal/repository"
)

type OfferUseCase interface {
	Submit(ctx context.Context, input SubmitInput) (*domain.Offer, error)
	Accept(ctx context.Context, tripID, offerID, travelerID uuid.UUID) (*repository.Acceptance, error)
	ListByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.Offer, error)
}

type Cache interface {
	InvalidateOpenRequests(ctx context.Context) error
}

type SubmitInput struct {
	TripID             uuid.UUID
	CarrierID          uuid.UUID
	PricePerSeatMinor  int64
	Currency           string
	DepositPercent     int
	VehicleDescription string
}

type OfferService struct {
	offers   repository.OfferRepository
	trips    repository.TripRepository
	cache    Cache
	notifier notify.Notifier
}

func NewOfferService(offers repository.OfferRepository, trips repository.TripRepository, cache Cache, notifier notify.Notifier) *OfferService {
	return &OfferService{offers: offers, trips: trips, cache: cache, notifier: notifier}
}

// Submit records a PENDING bid. The trip itself is untouched; only its
// requester learns that a new offer arrived.
func (s *OfferService) Submit(ctx context.Context, input SubmitInput) (*domain.Offer, error) {
	if input.PricePerSeatMinor <= 0 {
		return nil, domain.ValidationError{Field: "price_per_seat", Msg: "must be positive"}
	}
	if input.Currency == "" {
		return nil, domain.ValidationError{Field: "currency", Msg: "is required"}
	}
	if err := pricing.ValidateDepositPercent(input.DepositPercent); err != nil {
		return nil, err
	}

	trip, err := s.trips.GetByID(ctx, input.TripID)
	if err != nil {
		return nil, err
	}
	if !trip.Kind.IsRequest() {
		return nil, domain.InvalidStateError{Entity: "trip", Status: string(trip.Status), Op: "submit offer"}
	}
	if trip.Status != domain.TripStatusAwaitingOffers {
		return nil, domain.InvalidStateError{Entity: "trip", Status: string(trip.Status), Op: "submit offer"}
	}
	if trip.Kind == domain.TripKindDirectRequest && trip.TargetCarrierID != input.CarrierID {
		return nil, domain.NotFoundError{Resource: "trip"}
	}

	offer := &domain.Offer{
		TripID:             input.TripID,
		CarrierID:          input.CarrierID,
		PricePerSeatMinor:  input.PricePerSeatMinor,
		Currency:           input.Currency,
		DepositPercent:     input.DepositPercent,
		VehicleDescription: input.VehicleDescription,
		Status:             domain.OfferStatusPending,
	}
	if err := s.offers.Create(ctx, offer); err != nil {
		return nil, err
	}

	s.send(ctx, trip.RequesterID, notify.Notification{
		Kind:    notify.KindOfferSubmitted,
		Title:   "New offer on your request",
		Message: "A carrier submitted an offer on your trip request",
		Link:    "/trips/" + trip.ID.String(),
	})
	return offer, nil
}

// Accept runs the one-transaction acceptance and notifies the winning
// carrier. Losing offers stay PENDING by design; there is no implicit
// rejection.
func (s *OfferService) Accept(ctx context.Context, tripID, offerID, travelerID uuid.UUID) (*repository.Acceptance, error) {
	var acceptance *repository.Acceptance
	err := repository.WithConflictRetry(ctx, func(ctx context.Context) error {
		var err error
		acceptance, err = s.offers.AcceptIntoBooking(ctx, tripID, offerID, travelerID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.InvalidateOpenRequests(ctx); err != nil {
			log.Printf("WARNING: invalidate open requests cache: %v", err)
		}
	}
	s.send(ctx, acceptance.Offer.CarrierID, notify.Notification{
		Kind:    notify.KindOfferAccepted,
		Title:   "Offer accepted",
		Message: "The traveler accepted your offer",
		Link:    "/trips/" + tripID.String(),
	})
	return acceptance, nil
}

func (s *OfferService) ListByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.Offer, error) {
	return s.offers.ListByTrip(ctx, tripID)
}

func (s *OfferService) send(ctx context.Context, userID uuid.UUID, n notify.Notification) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, userID, n); err != nil {
		log.Printf("WARNING: notify %s about %s: %v", userID, n.Kind, err)
	}
}

var _ OfferUseCase = (*OfferService)(nil)
