// Package bookings drives the booking state machine: seat requests against
// scheduled trips, carrier confirmation, the traveler's deposit attestation
// that finally consumes capacity, and cancellation with its audit trail.
package bookings

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

type BookingUseCase interface {
	Book(ctx context.Context, input BookInput) (*domain.Booking, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Booking, error)
	ListForTraveler(ctx context.Context, travelerID uuid.UUID) ([]domain.Booking, error)
	Confirm(ctx context.Context, bookingID, carrierID uuid.UUID) (*domain.Booking, error)
	Reject(ctx context.Context, bookingID, carrierID uuid.UUID, reason string) (*domain.Booking, error)
	Pay(ctx context.Context, bookingID, travelerID uuid.UUID) (*domain.Booking, error)
	Cancel(ctx context.Context, bookingID, actorID uuid.UUID, by domain.CancelParty, reason string) (*domain.Booking, error)
	DepositQuote(ctx context.Context, bookingID uuid.UUID) (pricing.Breakdown, error)
	ExpireUnpaid(ctx context.Context, olderThan time.Duration) ([]domain.Booking, error)
}

type BookInput struct {
	TripID     uuid.UUID
	TravelerID uuid.UUID
	Manifest   []domain.Passenger
}

type BookingService struct {
	bookings repository.BookingRepository
	trips    repository.TripRepository
	notifier notify.Notifier
}

func NewBookingService(bookings repository.BookingRepository, trips repository.TripRepository, notifier notify.Notifier) *BookingService {
	return &BookingService{bookings: bookings, trips: trips, notifier: notifier}
}

// Book places a seat request against a PLANNED scheduled trip. The seat
// check here is advisory (capacity is re-verified at confirm and enforced
// at pay); it exists to reject obviously oversized requests early.
func (s *BookingService) Book(ctx context.Context, input BookInput) (*domain.Booking, error) {
	if len(input.Manifest) == 0 {
		return nil, domain.ValidationError{Field: "passengers", Msg: "at least one passenger is required"}
	}
	for _, p := range input.Manifest {
		if p.Name == "" {
			return nil, domain.ValidationError{Field: "passengers", Msg: "every passenger needs a name"}
		}
	}

	trip, err := s.trips.GetByID(ctx, input.TripID)
	if err != nil {
		return nil, err
	}
	if trip.Kind != domain.TripKindScheduled {
		return nil, domain.InvalidStateError{Entity: "trip", Status: string(trip.Status), Op: "book"}
	}
	if trip.Status != domain.TripStatusPlanned {
		return nil, domain.InvalidStateError{Entity: "trip", Status: string(trip.Status), Op: "book"}
	}
	seats := len(input.Manifest)
	if seats > trip.AvailableSeats {
		return nil, domain.CapacityError{Requested: seats, Available: trip.AvailableSeats}
	}

	booking := &domain.Booking{
		TripID:            trip.ID,
		TravelerID:        input.TravelerID,
		CarrierID:         trip.CarrierID,
		Seats:             seats,
		PassengerManifest: input.Manifest,
		TotalPriceMinor:   pricing.BookingTotal(trip.PricePerSeatMinor, seats),
		Currency:          trip.Currency,
		Status:            domain.BookingStatusPendingCarrierConfirmation,
	}
	if err := s.bookings.Create(ctx, booking); err != nil {
		return nil, err
	}

	s.send(ctx, trip.CarrierID, notify.Notification{
		Kind:    notify.KindBookingRequested,
		Title:   "New seat request",
		Message: "A traveler requested seats on your trip",
		Link:    "/bookings/" + booking.ID.String(),
	})
	return booking, nil
}

func (s *BookingService) Get(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	return s.bookings.GetByID(ctx, id)
}

func (s *BookingService) ListForTraveler(ctx context.Context, travelerID uuid.UUID) ([]domain.Booking, error) {
	return s.bookings.ListByTraveler(ctx, travelerID)
}

func (s *BookingService) Confirm(ctx context.Context, bookingID, carrierID uuid.UUID) (*domain.Booking, error) {
	var confirmed *domain.Booking
	err := repository.WithConflictRetry(ctx, func(ctx context.Context) error {
		var err error
		confirmed, err = s.bookings.Confirm(ctx, bookingID, carrierID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.send(ctx, confirmed.TravelerID, notify.Notification{
		Kind:    notify.KindBookingConfirmed,
		Title:   "Booking confirmed",
		Message: "The carrier confirmed your seats; the deposit is now due",
		Link:    "/bookings/" + bookingID.String(),
	})
	return confirmed, nil
}

func (s *BookingService) Reject(ctx context.Context, bookingID, carrierID uuid.UUID, reason string) (*domain.Booking, error) {
	rejected, err := s.bookings.Reject(ctx, bookingID, carrierID, reason)
	if err != nil {
		return nil, err
	}

	s.send(ctx, rejected.TravelerID, notify.Notification{
		Kind:    notify.KindBookingRejected,
		Title:   "Booking declined",
		Message: reason,
		Link:    "/bookings/" + bookingID.String(),
	})
	return rejected, nil
}

func (s *BookingService) Pay(ctx context.Context, bookingID, travelerID uuid.UUID) (*domain.Booking, error) {
	var paid *domain.Booking
	err := repository.WithConflictRetry(ctx, func(ctx context.Context) error {
		var err error
		paid, err = s.bookings.Pay(ctx, bookingID, travelerID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.send(ctx, paid.CarrierID, notify.Notification{
		Kind:    notify.KindBookingPaid,
		Title:   "Deposit received",
		Message: "The traveler attested the deposit transfer; the booking is confirmed",
		Link:    "/bookings/" + bookingID.String(),
	})
	return paid, nil
}

func (s *BookingService) Cancel(ctx context.Context, bookingID, actorID uuid.UUID, by domain.CancelParty, reason string) (*domain.Booking, error) {
	var cancelled *domain.Booking
	err := repository.WithConflictRetry(ctx, func(ctx context.Context) error {
		var err error
		cancelled, err = s.bookings.Cancel(ctx, bookingID, by, actorID, reason)
		return err
	})
	if err != nil {
		return nil, err
	}

	// Tell whichever side did not initiate the cancellation.
	counterparty := cancelled.CarrierID
	if by == domain.CancelledByCarrier {
		counterparty = cancelled.TravelerID
	}
	s.send(ctx, counterparty, notify.Notification{
		Kind:    notify.KindBookingCancelled,
		Title:   "Booking cancelled",
		Message: reason,
		Link:    "/bookings/" + bookingID.String(),
	})
	return cancelled, nil
}

// DepositQuote splits the booking total into deposit and remainder using
// the trip's agreed deposit share.
func (s *BookingService) DepositQuote(ctx context.Context, bookingID uuid.UUID) (pricing.Breakdown, error) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return pricing.Breakdown{}, err
	}
	trip, err := s.trips.GetByID(ctx, booking.TripID)
	if err != nil {
		return pricing.Breakdown{}, err
	}
	return pricing.ComputeDeposit(booking.TotalPriceMinor, trip.DepositPercent)
}

// ExpireUnpaid sweeps stale PENDING_PAYMENT bookings for the worker.
func (s *BookingService) ExpireUnpaid(ctx context.Context, olderThan time.Duration) ([]domain.Booking, error) {
	expired, err := s.bookings.ExpireUnpaidBefore(ctx, time.Now().Add(-olderThan))
	if err != nil {
		return nil, err
	}
	for _, booking := range expired {
		s.send(ctx, booking.TravelerID, notify.Notification{
			Kind:    notify.KindBookingExpired,
			Title:   "Booking expired",
			Message: "Your booking was cancelled because the deposit was not paid in time",
			Link:    "/bookings/" + booking.ID.String(),
		})
	}
	return expired, nil
}

func (s *BookingService) send(ctx context.Context, userID uuid.UUID, n notify.Notification) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, userID, n); err != nil {
		log.Printf("WARNING: notify %s about %s: %v", userID, n.Kind, err)
	}
}

var _ BookingUseCase = (*BookingService)(nil)
