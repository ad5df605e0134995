// Package notify carries lifecycle notifications to an external delivery
// channel. Delivery is fire-and-forget: a lifecycle operation never fails
// because a notification could not be sent.
package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Kind tags the lifecycle moment a notification reports.
type Kind string

const (
	KindOfferSubmitted   Kind = "offer_submitted"
	KindOfferAccepted    Kind = "offer_accepted"
	KindDirectApproved   Kind = "direct_request_approved"
	KindDirectRejected   Kind = "direct_request_rejected"
	KindDirectRequested  Kind = "direct_request_received"
	KindBookingRequested Kind = "booking_requested"
	KindBookingConfirmed Kind = "booking_confirmed"
	KindBookingRejected  Kind = "booking_rejected"
	KindBookingPaid      Kind = "booking_paid"
	KindBookingCancelled Kind = "booking_cancelled"
	KindBookingExpired   Kind = "booking_expired"
	KindTripCancelled    Kind = "trip_cancelled"
)

type Notification struct {
	Kind    Kind
	Title   string
	Message string
	Link    string
}

// Notifier hands a notification to the delivery channel for one user.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, n Notification) error
}

// Event is the wire format published to the notifications topic.
type Event struct {
	UserID    uuid.UUID `json:"user_id"`
	Kind      Kind      `json:"kind"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Link      string    `json:"link"`
	CreatedAt time.Time `json:"created_at"`
}
