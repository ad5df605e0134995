package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wasel-app/wasel/internal/domain"
)

// Acceptance is everything a successful offer acceptance wrote: the winning
// offer, the re-priced trip, and the booking awaiting payment.
type Acceptance struct {
	Offer   domain.Offer
	Trip    domain.Trip
	Booking domain.Booking
}

type OfferRepository interface {
	Create(ctx context.Context, offer *domain.Offer) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Offer, error)
	ListByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.Offer, error)
	AcceptIntoBooking(ctx context.Context, tripID, offerID, travelerID uuid.UUID) (*Acceptance, error)
}

const offerColumns = `id, trip_id, carrier_id, price_per_seat_minor, currency, deposit_percent,
	vehicle_description, status, created_at`

type PGOfferRepository struct {
	db *pgxpool.Pool
}

func NewOfferRepository(db *pgxpool.Pool) OfferRepository {
	return &PGOfferRepository{db: db}
}

func (r *PGOfferRepository) Create(ctx context.Context, offer *domain.Offer) error {
	if offer.ID == uuid.Nil {
		offer.ID = uuid.New()
	}
	return r.db.QueryRow(ctx, `INSERT INTO offers (id, trip_id, carrier_id, price_per_seat_minor, currency,
		deposit_percent, vehicle_description, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING created_at`,
		offer.ID, offer.TripID, offer.CarrierID, offer.PricePerSeatMinor, offer.Currency,
		offer.DepositPercent, offer.VehicleDescription, offer.Status).
		Scan(&offer.CreatedAt)
}

func (r *PGOfferRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Offer, error) {
	offer, err := scanOffer(r.db.QueryRow(ctx, `SELECT `+offerColumns+` FROM offers WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFoundError{Resource: "offer", Err: err}
		}
		return nil, err
	}
	return offer, nil
}

func (r *PGOfferRepository) ListByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.Offer, error) {
	rows, err := r.db.Query(ctx, `SELECT `+offerColumns+` FROM offers WHERE trip_id=$1 ORDER BY created_at`, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	offers := make([]domain.Offer, 0)
	for rows.Next() {
		offer, err := scanOffer(rows)
		if err != nil {
			return nil, err
		}
		offers = append(offers, *offer)
	}
	return offers, rows.Err()
}

// AcceptIntoBooking runs the whole acceptance as one transaction: mark the
// offer accepted, move the trip to PENDING_PAYMENT with the offer's price
// copied over, and create the traveler's booking. Sibling offers stay
// PENDING; their carriers are notified separately, never auto-rejected.
// A trip that already left AWAITING_OFFERS yields a ConflictError so a
// second acceptance can never double-book.
func (r *PGOfferRepository) AcceptIntoBooking(ctx context.Context, tripID, offerID, travelerID uuid.UUID) (*Acceptance, error) {
	var result Acceptance
	err := inTx(ctx, r.db, func(tx pgx.Tx) error {
		trip, err := getTripForUpdate(ctx, tx, tripID)
		if err != nil {
			return err
		}
		if trip.RequesterID != travelerID {
			return domain.NotFoundError{Resource: "trip"}
		}
		if !trip.Kind.IsRequest() {
			return domain.InvalidStateError{Entity: "trip", Status: string(trip.Status), Op: "accept offer"}
		}
		if trip.Status != domain.TripStatusAwaitingOffers {
			return domain.ConflictError{Resource: "trip", Msg: "no longer awaiting offers"}
		}

		offer, err := scanOffer(tx.QueryRow(ctx, `SELECT `+offerColumns+` FROM offers
			WHERE id=$1 AND trip_id=$2 FOR UPDATE`, offerID, tripID))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.NotFoundError{Resource: "offer", Err: err}
			}
			return err
		}
		if offer.Status != domain.OfferStatusPending {
			return domain.InvalidStateError{Entity: "offer", Status: string(offer.Status), Op: "accept"}
		}

		if _, err := tx.Exec(ctx, `UPDATE offers SET status=$1 WHERE id=$2`,
			domain.OfferStatusAccepted, offerID); err != nil {
			return err
		}
		offer.Status = domain.OfferStatusAccepted

		partyTotal := offer.PricePerSeatMinor * int64(trip.PassengerCount)
		if _, err := tx.Exec(ctx, `UPDATE trips SET status=$1, price_per_seat_minor=$2, total_price_minor=$3,
			currency=$4, deposit_percent=$5, carrier_id=$6, updated_at=now() WHERE id=$7`,
			domain.TripStatusPendingPayment, offer.PricePerSeatMinor, partyTotal, offer.Currency,
			offer.DepositPercent, offer.CarrierID, tripID); err != nil {
			return err
		}
		trip.Status = domain.TripStatusPendingPayment
		trip.PricePerSeatMinor = offer.PricePerSeatMinor
		trip.TotalPriceMinor = partyTotal
		trip.Currency = offer.Currency
		trip.DepositPercent = offer.DepositPercent
		trip.CarrierID = offer.CarrierID

		booking := domain.Booking{
			ID:                uuid.New(),
			TripID:            tripID,
			TravelerID:        trip.RequesterID,
			CarrierID:         offer.CarrierID,
			Seats:             trip.PassengerCount,
			PassengerManifest: trip.PassengerManifest,
			TotalPriceMinor:   partyTotal,
			Currency:          offer.Currency,
			Status:            domain.BookingStatusPendingPayment,
		}
		if err := tx.QueryRow(ctx, `INSERT INTO bookings (id, trip_id, traveler_id, carrier_id, seats,
			passenger_manifest, total_price_minor, currency, status, cancelled_by, cancellation_reason)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, '', '')
			RETURNING created_at, updated_at`,
			booking.ID, booking.TripID, booking.TravelerID, booking.CarrierID, booking.Seats,
			booking.PassengerManifest, booking.TotalPriceMinor, booking.Currency, booking.Status).
			Scan(&booking.CreatedAt, &booking.UpdatedAt); err != nil {
			return err
		}

		result = Acceptance{Offer: *offer, Trip: *trip, Booking: booking}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func scanOffer(row rowScanner) (*domain.Offer, error) {
	var o domain.Offer
	if err := row.Scan(&o.ID, &o.TripID, &o.CarrierID, &o.PricePerSeatMinor, &o.Currency,
		&o.DepositPercent, &o.VehicleDescription, &o.Status, &o.CreatedAt); err != nil {
		return nil, err
	}
	return &o, nil
}

var _ OfferRepository = (*PGOfferRepository)(nil)
