// Package direct implements the approval workflow for direct requests:
// one carrier, one decision, and a single transaction that re-prices the
// trip and creates the booking together.
package direct

import (
	"context"
	"log"

	"github.com/google/uuid"
	"github.com/wasel-app/wasel/internal/domain"
	"github.com/wasel-app/wasel/internal/notify"
	"github.com/wasel-app/wasel/internal/repository"
)

type DirectUseCase interface {
	Approve(ctx context.Context, tripID, carrierID uuid.UUID, totalPriceMinor int64, currency string) (*repository.DirectApproval, error)
	Reject(ctx context.Context, tripID, carrierID uuid.UUID, reason string) error
}

type DirectService struct {
	bookings repository.BookingRepository
	trips    repository.TripRepository
	notifier notify.Notifier
}

func NewDirectService(bookings repository.BookingRepository, trips repository.TripRepository, notifier notify.Notifier) *DirectService {
	return &DirectService{bookings: bookings, trips: trips, notifier: notifier}
}

// Approve prices the request at the carrier's quoted total and creates the
// booking in one transaction. If it returns an error, neither record
// changed; a partial approval cannot be observed.
func (s *DirectService) Approve(ctx context.Context, tripID, carrierID uuid.UUID, totalPriceMinor int64, currency string) (*repository.DirectApproval, error) {
	if totalPriceMinor <= 0 {
		return nil, domain.ValidationError{Field: "total_price", Msg: "must be positive"}
	}
	if currency == "" {
		return nil, domain.ValidationError{Field: "currency", Msg: "is required"}
	}

	var approval *repository.DirectApproval
	err := repository.WithConflictRetry(ctx, func(ctx context.Context) error {
		var err error
		approval, err = s.bookings.ApproveDirectRequest(ctx, tripID, carrierID, totalPriceMinor, currency)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.send(ctx, approval.Trip.RequesterID, notify.Notification{
		Kind:    notify.KindDirectApproved,
		Title:   "Request approved",
		Message: "The carrier approved your request; the deposit is now due",
		Link:    "/bookings/" + approval.Booking.ID.String(),
	})
	return approval, nil
}

// Reject cancels the request. The trip write is the durable fact; the
// traveler notification rides outside the transaction and is retried by
// the delivery side if it fails.
func (s *DirectService) Reject(ctx context.Context, tripID, carrierID uuid.UUID, reason string) error {
	if reason == "" {
		return domain.ValidationError{Field: "reason", Msg: "is required"}
	}

	trip, err := s.trips.RejectDirect(ctx, tripID, carrierID)
	if err != nil {
		return err
	}

	s.send(ctx, trip.RequesterID, notify.Notification{
		Kind:    notify.KindDirectRejected,
		Title:   "Request declined",
		Message: reason,
		Link:    "/trips/" + tripID.String(),
	})
	return nil
}

func (s *DirectService) send(ctx context.Context, userID uuid.UUID, n notify.Notification) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, userID, n); err != nil {
		log.Printf("WARNING: notify %s about %s: %v", userID, n.Kind, err)
	}
}

var _ DirectUseCase = (*DirectService)(nil)
