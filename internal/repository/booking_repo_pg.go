package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wasel-app/wasel/internal/domain"
	"github.com/wasel-app/wasel/internal/pricing"
)

// DirectApproval bundles the two records a direct-request approval writes
// atomically.
type DirectApproval struct {
	Trip    domain.Trip
	Booking domain.Booking
}

type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error)
	ListByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.Booking, error)
	ListByTraveler(ctx context.Context, travelerID uuid.UUID) ([]domain.Booking, error)
	Confirm(ctx context.Context, bookingID, carrierID uuid.UUID) (*domain.Booking, error)
	Reject(ctx context.Context, bookingID, carrierID uuid.UUID, reason string) (*domain.Booking, error)
	Pay(ctx context.Context, bookingID, travelerID uuid.UUID) (*domain.Booking, error)
	Cancel(ctx context.Context, bookingID uuid.UUID, by domain.CancelParty, actorID uuid.UUID, reason string) (*domain.Booking, error)
	ApproveDirectRequest(ctx context.Context, tripID, carrierID uuid.UUID, totalPriceMinor int64, currency string) (*DirectApproval, error)
	ExpireUnpaidBefore(ctx context.Context, deadline time.Time) ([]domain.Booking, error)
}

const bookingColumns = `id, trip_id, traveler_id, carrier_id, seats, passenger_manifest, total_price_minor,
	currency, status, cancelled_by, cancellation_reason, created_at, updated_at`

type PGBookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) BookingRepository {
	return &PGBookingRepository{db: db}
}

func (r *PGBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	if booking.ID == uuid.Nil {
		booking.ID = uuid.New()
	}
	return r.db.QueryRow(ctx, `INSERT INTO bookings (id, trip_id, traveler_id, carrier_id, seats,
		passenger_manifest, total_price_minor, currency, status, cancelled_by, cancellation_reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, '', '')
		RETURNING created_at, updated_at`,
		booking.ID, booking.TripID, booking.TravelerID, booking.CarrierID, booking.Seats,
		booking.PassengerManifest, booking.TotalPriceMinor, booking.Currency, booking.Status).
		Scan(&booking.CreatedAt, &booking.UpdatedAt)
}

func (r *PGBookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	booking, err := scanBooking(r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFoundError{Resource: "booking", Err: err}
		}
		return nil, err
	}
	return booking, nil
}

func (r *PGBookingRepository) ListByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.Booking, error) {
	return r.list(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE trip_id=$1 ORDER BY created_at`, tripID)
}

func (r *PGBookingRepository) ListByTraveler(ctx context.Context, travelerID uuid.UUID) ([]domain.Booking, error) {
	return r.list(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE traveler_id=$1 ORDER BY created_at DESC`, travelerID)
}

func (r *PGBookingRepository) list(ctx context.Context, query string, args ...any) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBookings(rows)
}

// Confirm moves a booking to PENDING_PAYMENT after re-checking, inside the
// transaction, that the trip still has the seats. Seats are not decremented
// here; that only happens at pay time so an unpaid confirmation never holds
// capacity hostage.
func (r *PGBookingRepository) Confirm(ctx context.Context, bookingID, carrierID uuid.UUID) (*domain.Booking, error) {
	var confirmed *domain.Booking
	err := inTx(ctx, r.db, func(tx pgx.Tx) error {
		booking, err := getBookingForUpdate(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		if booking.CarrierID != carrierID {
			return domain.NotFoundError{Resource: "booking"}
		}
		if booking.Status != domain.BookingStatusPendingCarrierConfirmation {
			return domain.InvalidStateError{Entity: "booking", Status: string(booking.Status), Op: "confirm"}
		}

		trip, err := getTripForUpdate(ctx, tx, booking.TripID)
		if err != nil {
			return err
		}
		if trip.HasSharedCapacity() && booking.Seats > trip.AvailableSeats {
			return domain.CapacityError{Requested: booking.Seats, Available: trip.AvailableSeats}
		}

		confirmed, err = updateBookingStatus(ctx, tx, bookingID, domain.BookingStatusPendingPayment)
		return err
	})
	if err != nil {
		return nil, err
	}
	return confirmed, nil
}

// Reject lets the carrier turn down a seat request before confirmation.
func (r *PGBookingRepository) Reject(ctx context.Context, bookingID, carrierID uuid.UUID, reason string) (*domain.Booking, error) {
	var rejected *domain.Booking
	err := inTx(ctx, r.db, func(tx pgx.Tx) error {
		booking, err := getBookingForUpdate(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		if booking.CarrierID != carrierID {
			return domain.NotFoundError{Resource: "booking"}
		}
		if booking.Status != domain.BookingStatusPendingCarrierConfirmation {
			return domain.InvalidStateError{Entity: "booking", Status: string(booking.Status), Op: "reject"}
		}
		rejected, err = cancelBooking(ctx, tx, bookingID, domain.CancelledByCarrier, reason)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rejected, nil
}

// Pay records the traveler's deposit attestation: the booking goes
// CONFIRMED and the trip's seat pool shrinks by the booked seats in the
// same transaction. The guarded decrement catches the race where a
// concurrent pay drained the pool between this booking's confirm and pay.
func (r *PGBookingRepository) Pay(ctx context.Context, bookingID, travelerID uuid.UUID) (*domain.Booking, error) {
	var paid *domain.Booking
	err := inTx(ctx, r.db, func(tx pgx.Tx) error {
		booking, err := getBookingForUpdate(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		if booking.TravelerID != travelerID {
			return domain.NotFoundError{Resource: "booking"}
		}
		if booking.Status != domain.BookingStatusPendingPayment {
			return domain.InvalidStateError{Entity: "booking", Status: string(booking.Status), Op: "pay"}
		}

		trip, err := getTripForUpdate(ctx, tx, booking.TripID)
		if err != nil {
			return err
		}
		if trip.HasSharedCapacity() {
			cmd, err := tx.Exec(ctx, `UPDATE trips SET available_seats = available_seats - $1, updated_at=now()
				WHERE id=$2 AND available_seats >= $1`, booking.Seats, trip.ID)
			if err != nil {
				return err
			}
			if cmd.RowsAffected() == 0 {
				return domain.CapacityError{Requested: booking.Seats, Available: trip.AvailableSeats}
			}
		}

		paid, err = updateBookingStatus(ctx, tx, bookingID, domain.BookingStatusConfirmed)
		return err
	})
	if err != nil {
		return nil, err
	}
	return paid, nil
}

// Cancel terminates a booking from any non-terminal status, restoring the
// trip's seats when the booking had already been paid. No refund logic:
// only the audit trail of who cancelled and why is recorded.
func (r *PGBookingRepository) Cancel(ctx context.Context, bookingID uuid.UUID, by domain.CancelParty, actorID uuid.UUID, reason string) (*domain.Booking, error) {
	var cancelled *domain.Booking
	err := inTx(ctx, r.db, func(tx pgx.Tx) error {
		booking, err := getBookingForUpdate(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		switch by {
		case domain.CancelledByTraveler:
			if booking.TravelerID != actorID {
				return domain.NotFoundError{Resource: "booking"}
			}
		case domain.CancelledByCarrier:
			if booking.CarrierID != actorID {
				return domain.NotFoundError{Resource: "booking"}
			}
		}
		if booking.Status.Terminal() {
			return domain.InvalidStateError{Entity: "booking", Status: string(booking.Status), Op: "cancel"}
		}

		if booking.Status == domain.BookingStatusConfirmed {
			trip, err := getTripForUpdate(ctx, tx, booking.TripID)
			if err != nil {
				return err
			}
			if trip.HasSharedCapacity() {
				if _, err := tx.Exec(ctx, `UPDATE trips SET available_seats = available_seats + $1, updated_at=now()
					WHERE id=$2`, booking.Seats, trip.ID); err != nil {
					return err
				}
			}
		}

		cancelled, err = cancelBooking(ctx, tx, bookingID, by, reason)
		return err
	})
	if err != nil {
		return nil, err
	}
	return cancelled, nil
}

// ApproveDirectRequest prices a direct request and creates its booking in a
// single transaction: either the trip is re-priced AND the booking exists,
// or neither happened.
func (r *PGBookingRepository) ApproveDirectRequest(ctx context.Context, tripID, carrierID uuid.UUID, totalPriceMinor int64, currency string) (*DirectApproval, error) {
	var result DirectApproval
	err := inTx(ctx, r.db, func(tx pgx.Tx) error {
		trip, err := getTripForUpdate(ctx, tx, tripID)
		if err != nil {
			return err
		}
		if trip.Kind != domain.TripKindDirectRequest || trip.TargetCarrierID != carrierID {
			return domain.NotFoundError{Resource: "trip"}
		}
		if trip.Status != domain.TripStatusAwaitingOffers {
			return domain.ConflictError{Resource: "trip", Msg: "no longer awaiting a decision"}
		}

		// The quoted amount is the flat total for the whole party and is
		// stored as such; the per-seat figure exists only for display
		// consistency with offer-priced trips and may carry rounding.
		perSeat := pricing.PerSeat(totalPriceMinor, trip.PassengerCount)
		if _, err := tx.Exec(ctx, `UPDATE trips SET status=$1, price_per_seat_minor=$2, total_price_minor=$3,
			currency=$4, carrier_id=$5, updated_at=now() WHERE id=$6`,
			domain.TripStatusPendingPayment, perSeat, totalPriceMinor, currency, carrierID, tripID); err != nil {
			return err
		}
		trip.Status = domain.TripStatusPendingPayment
		trip.PricePerSeatMinor = perSeat
		trip.TotalPriceMinor = totalPriceMinor
		trip.Currency = currency
		trip.CarrierID = carrierID

		booking := domain.Booking{
			ID:                uuid.New(),
			TripID:            tripID,
			TravelerID:        trip.RequesterID,
			CarrierID:         carrierID,
			Seats:             trip.PassengerCount,
			PassengerManifest: trip.PassengerManifest,
			TotalPriceMinor:   totalPriceMinor,
			Currency:          currency,
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

		result = DirectApproval{Trip: *trip, Booking: booking}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// ExpireUnpaidBefore cancels PENDING_PAYMENT bookings stale since deadline.
// Seats were never decremented for unpaid bookings, so nothing is restored;
// a request trip whose booking expired is cancelled along with it.
func (r *PGBookingRepository) ExpireUnpaidBefore(ctx context.Context, deadline time.Time) ([]domain.Booking, error) {
	var expired []domain.Booking
	err := inTx(ctx, r.db, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `SELECT `+bookingColumns+` FROM bookings
			WHERE status=$1 AND updated_at <= $2 FOR UPDATE`,
			domain.BookingStatusPendingPayment, deadline)
		if err != nil {
			return err
		}
		stale, err := collectBookings(rows)
		rows.Close()
		if err != nil {
			return err
		}
		if len(stale) == 0 {
			return nil
		}

		ids := make([]uuid.UUID, 0, len(stale))
		tripIDs := make([]uuid.UUID, 0, len(stale))
		for _, b := range stale {
			ids = append(ids, b.ID)
			tripIDs = append(tripIDs, b.TripID)
		}

		if _, err := tx.Exec(ctx, `UPDATE bookings SET status=$1, cancelled_by=$2,
			cancellation_reason='payment window elapsed', updated_at=now() WHERE id = ANY($3)`,
			domain.BookingStatusCancelled, domain.CancelledBySystem, ids); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `UPDATE trips SET status=$1, updated_at=now()
			WHERE id = ANY($2) AND kind != $3 AND status=$4`,
			domain.TripStatusCancelled, tripIDs, domain.TripKindScheduled, domain.TripStatusPendingPayment); err != nil {
			return err
		}

		for i := range stale {
			stale[i].Status = domain.BookingStatusCancelled
			stale[i].CancelledBy = domain.CancelledBySystem
			stale[i].CancellationReason = "payment window elapsed"
		}
		expired = stale
		return nil
	})
	if err != nil {
		return nil, err
	}
	return expired, nil
}

func scanBooking(row rowScanner) (*domain.Booking, error) {
	var b domain.Booking
	if err := row.Scan(&b.ID, &b.TripID, &b.TravelerID, &b.CarrierID, &b.Seats, &b.PassengerManifest,
		&b.TotalPriceMinor, &b.Currency, &b.Status, &b.CancelledBy, &b.CancellationReason,
		&b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

func collectBookings(rows pgx.Rows) ([]domain.Booking, error) {
	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

func getBookingForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Booking, error) {
	booking, err := scanBooking(tx.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFoundError{Resource: "booking", Err: err}
		}
		return nil, err
	}
	return booking, nil
}

func updateBookingStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.BookingStatus) (*domain.Booking, error) {
	return scanBooking(tx.QueryRow(ctx, `UPDATE bookings SET status=$1, updated_at=now()
		WHERE id=$2 RETURNING `+bookingColumns, status, id))
}

func cancelBooking(ctx context.Context, tx pgx.Tx, id uuid.UUID, by domain.CancelParty, reason string) (*domain.Booking, error) {
	return scanBooking(tx.QueryRow(ctx, `UPDATE bookings SET status=$1, cancelled_by=$2, cancellation_reason=$3,
		updated_at=now() WHERE id=$4 RETURNING `+bookingColumns,
		domain.BookingStatusCancelled, by, reason, id))
}

var _ BookingRepository = (*PGBookingRepository)(nil)
