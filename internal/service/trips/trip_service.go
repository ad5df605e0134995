// Package trips owns Trip records and their status transitions: traveler
// requests, carrier-published scheduled trips, operational transitions, and
// the cascade that cancelling a trip triggers across its bookings.
package trips

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/wasel-app/wasel/internal/domain"
	"github.com/wasel-app/wasel/internal/notify"
	"github.com/wasel-app/wasel/internal/pricing"
	"github.com/wasel-app/wasel/internal/repository"
)

type TripUseCase interface {
	CreateRequest(ctx context.Context, input CreateRequestInput) (*domain.Trip, error)
	CreateScheduled(ctx context.Context, input CreateScheduledInput) (*domain.Trip, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Trip, error)
	ListForRequester(ctx context.Context, travelerID uuid.UUID) ([]domain.Trip, error)
	ListForCarrier(ctx context.Context, carrierID uuid.UUID) ([]domain.Trip, error)
	Update(ctx context.Context, tripID, carrierID uuid.UUID, patch repository.TripPatch) (*domain.Trip, error)
	Transition(ctx context.Context, tripID, carrierID uuid.UUID, action domain.TripAction, reason string) (*repository.TripTransition, error)
}

// Cache invalidation hook for the open-request pool.
type Cache interface {
	InvalidateOpenRequests(ctx context.Context) error
}

type CreateRequestInput struct {
	RequesterID     uuid.UUID
	Kind            domain.TripKind
	Origin          string
	Destination     string
	DepartureDate   time.Time
	TargetCarrierID uuid.UUID
	Manifest        []domain.Passenger
}

type CreateScheduledInput struct {
	CarrierID         uuid.UUID
	Origin            string
	Destination       string
	DepartureDate     time.Time
	PricePerSeatMinor int64
	Currency          string
	DepositPercent    int
	AvailableSeats    int
}

type TripService struct {
	trips    repository.TripRepository
	cache    Cache
	notifier notify.Notifier
}

func NewTripService(trips repository.TripRepository, cache Cache, notifier notify.Notifier) *TripService {
	return &TripService{trips: trips, cache: cache, notifier: notifier}
}

// CreateRequest opens a traveler request in AWAITING_OFFERS. The passenger
// count is the manifest length; a direct request must name its carrier and
// additionally notifies that carrier right away.
func (s *TripService) CreateRequest(ctx context.Context, input CreateRequestInput) (*domain.Trip, error) {
	if !input.Kind.IsRequest() {
		return nil, domain.ValidationError{Field: "kind", Msg: "must be a general or direct request"}
	}
	if err := validateRoute(input.Origin, input.Destination); err != nil {
		return nil, err
	}
	if err := validateManifest(input.Manifest); err != nil {
		return nil, err
	}
	if input.Kind == domain.TripKindDirectRequest && input.TargetCarrierID == uuid.Nil {
		return nil, domain.ValidationError{Field: "target_carrier_id", Msg: "direct request must name a carrier"}
	}
	if input.Kind == domain.TripKindGeneralRequest && input.TargetCarrierID != uuid.Nil {
		return nil, domain.ValidationError{Field: "target_carrier_id", Msg: "general request cannot name a carrier"}
	}

	trip := &domain.Trip{
		Kind:              input.Kind,
		Origin:            input.Origin,
		Destination:       input.Destination,
		DepartureDate:     input.DepartureDate,
		RequesterID:       input.RequesterID,
		TargetCarrierID:   input.TargetCarrierID,
		PassengerCount:    len(input.Manifest),
		PassengerManifest: input.Manifest,
		Status:            domain.TripStatusAwaitingOffers,
	}
	if err := s.trips.Create(ctx, trip); err != nil {
		return nil, err
	}

	if s.cache != nil && trip.Kind == domain.TripKindGeneralRequest {
		if err := s.cache.InvalidateOpenRequests(ctx); err != nil {
			log.Printf("WARNING: invalidate open requests cache: %v", err)
		}
	}
	if trip.Kind == domain.TripKindDirectRequest {
		s.send(ctx, trip.TargetCarrierID, notify.Notification{
			Kind:    notify.KindDirectRequested,
			Title:   "New direct request",
			Message: "A traveler sent you a direct trip request",
			Link:    tripLink(trip.ID),
		})
	}
	return trip, nil
}

// CreateScheduled publishes a carrier trip in PLANNED with its price and
// seat pool fixed up front.
func (s *TripService) CreateScheduled(ctx context.Context, input CreateScheduledInput) (*domain.Trip, error) {
	if err := validateRoute(input.Origin, input.Destination); err != nil {
		return nil, err
	}
	if input.PricePerSeatMinor <= 0 {
		return nil, domain.ValidationError{Field: "price_per_seat", Msg: "must be positive"}
	}
	if input.Currency == "" {
		return nil, domain.ValidationError{Field: "currency", Msg: "is required"}
	}
	if err := pricing.ValidateDepositPercent(input.DepositPercent); err != nil {
		return nil, err
	}
	if input.AvailableSeats < 0 {
		return nil, domain.ValidationError{Field: "available_seats", Msg: "must not be negative"}
	}

	trip := &domain.Trip{
		Kind:              domain.TripKindScheduled,
		Origin:            input.Origin,
		Destination:       input.Destination,
		DepartureDate:     input.DepartureDate,
		CarrierID:         input.CarrierID,
		PricePerSeatMinor: input.PricePerSeatMinor,
		Currency:          input.Currency,
		DepositPercent:    input.DepositPercent,
		AvailableSeats:    input.AvailableSeats,
		Status:            domain.TripStatusPlanned,
	}
	if err := s.trips.Create(ctx, trip); err != nil {
		return nil, err
	}
	return trip, nil
}

func (s *TripService) Get(ctx context.Context, id uuid.UUID) (*domain.Trip, error) {
	return s.trips.GetByID(ctx, id)
}

func (s *TripService) ListForRequester(ctx context.Context, travelerID uuid.UUID) ([]domain.Trip, error) {
	return s.trips.ListByRequester(ctx, travelerID)
}

func (s *TripService) ListForCarrier(ctx context.Context, carrierID uuid.UUID) ([]domain.Trip, error) {
	return s.trips.ListByCarrier(ctx, carrierID)
}

func (s *TripService) Update(ctx context.Context, tripID, carrierID uuid.UUID, patch repository.TripPatch) (*domain.Trip, error) {
	if patch.PricePerSeatMinor != nil && *patch.PricePerSeatMinor <= 0 {
		return nil, domain.ValidationError{Field: "price_per_seat", Msg: "must be positive"}
	}
	if patch.AvailableSeats != nil && *patch.AvailableSeats < 0 {
		return nil, domain.ValidationError{Field: "available_seats", Msg: "must not be negative"}
	}
	if patch.DepositPercent != nil {
		if err := pricing.ValidateDepositPercent(*patch.DepositPercent); err != nil {
			return nil, err
		}
	}
	return s.trips.UpdatePlanned(ctx, tripID, carrierID, patch)
}

// Transition applies start/complete/cancel. Cancelling fans out to every
// non-terminal booking inside the repository transaction; each affected
// traveler is notified after the commit.
func (s *TripService) Transition(ctx context.Context, tripID, carrierID uuid.UUID, action domain.TripAction, reason string) (*repository.TripTransition, error) {
	var result *repository.TripTransition
	err := repository.WithConflictRetry(ctx, func(ctx context.Context) error {
		var err error
		result, err = s.trips.Transition(ctx, tripID, carrierID, action, reason)
		return err
	})
	if err != nil {
		return nil, err
	}

	if action == domain.TripActionCancel {
		for _, booking := range result.Bookings {
			s.send(ctx, booking.TravelerID, notify.Notification{
				Kind:    notify.KindTripCancelled,
				Title:   "Trip cancelled",
				Message: "The carrier cancelled the trip your booking was on",
				Link:    tripLink(tripID),
			})
		}
	}
	return result, nil
}

func (s *TripService) send(ctx context.Context, userID uuid.UUID, n notify.Notification) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, userID, n); err != nil {
		log.Printf("WARNING: notify %s about %s: %v", userID, n.Kind, err)
	}
}

func validateRoute(origin, destination string) error {
	if origin == "" {
		return domain.ValidationError{Field: "origin", Msg: "is required"}
	}
	if destination == "" {
		return domain.ValidationError{Field: "destination", Msg: "is required"}
	}
	return nil
}

func validateManifest(manifest []domain.Passenger) error {
	if len(manifest) == 0 {
		return domain.ValidationError{Field: "passengers", Msg: "at least one passenger is required"}
	}
	for _, p := range manifest {
		if p.Name == "" {
			return domain.ValidationError{Field: "passengers", Msg: "every passenger needs a name"}
		}
		if p.Type != domain.PassengerAdult && p.Type != domain.PassengerChild {
			return domain.ValidationError{Field: "passengers", Msg: "passenger type must be adult or child"}
		}
	}
	return nil
}

func tripLink(id uuid.UUID) string {
	return "/trips/" + id.String()
}

var _ TripUseCase = (*TripService)(nil)
