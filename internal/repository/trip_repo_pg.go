package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wasel-app/wasel/internal/domain"
)

// TripPatch carries PATCH-style edits for a trip still in PLANNED.
type TripPatch struct {
	PricePerSeatMinor *int64
	AvailableSeats    *int
	DepartureDate     *time.Time
	DepositPercent    *int
}

// TripTransition is the outcome of an operational transition: the updated
// trip plus every booking the transition cascaded to.
type TripTransition struct {
	Trip     domain.Trip
	Bookings []domain.Booking
}

type TripRepository interface {
	Create(ctx context.Context, trip *domain.Trip) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Trip, error)
	ListOpenGeneralRequests(ctx context.Context) ([]domain.Trip, error)
	ListByRequester(ctx context.Context, travelerID uuid.UUID) ([]domain.Trip, error)
	ListByCarrier(ctx context.Context, carrierID uuid.UUID) ([]domain.Trip, error)
	UpdatePlanned(ctx context.Context, tripID, carrierID uuid.UUID, patch TripPatch) (*domain.Trip, error)
	Transition(ctx context.Context, tripID, carrierID uuid.UUID, action domain.TripAction, reason string) (*TripTransition, error)
	RejectDirect(ctx context.Context, tripID, carrierID uuid.UUID) (*domain.Trip, error)
}

const tripColumns = `id, kind, origin, destination, departure_date, requester_id, carrier_id, target_carrier_id,
	price_per_seat_minor, total_price_minor, currency, deposit_percent, available_seats, passenger_count,
	passenger_manifest, status, created_at, updated_at`

type PGTripRepository struct {
	db *pgxpool.Pool
}

func NewTripRepository(db *pgxpool.Pool) TripRepository {
	return &PGTripRepository{db: db}
}

func (r *PGTripRepository) Create(ctx context.Context, trip *domain.Trip) error {
	if trip.ID == uuid.Nil {
		trip.ID = uuid.New()
	}
	return r.db.QueryRow(ctx, `INSERT INTO trips (id, kind, origin, destination, departure_date, requester_id,
		carrier_id, target_carrier_id, price_per_seat_minor, total_price_minor, currency, deposit_percent,
		available_seats, passenger_count, passenger_manifest, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING created_at, updated_at`,
		trip.ID, trip.Kind, trip.Origin, trip.Destination, trip.DepartureDate, trip.RequesterID,
		trip.CarrierID, trip.TargetCarrierID, trip.PricePerSeatMinor, trip.TotalPriceMinor, trip.Currency,
		trip.DepositPercent, trip.AvailableSeats, trip.PassengerCount, trip.PassengerManifest, trip.Status).
		Scan(&trip.CreatedAt, &trip.UpdatedAt)
}

func (r *PGTripRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Trip, error) {
	return getTrip(ctx, r.db, id)
}

func (r *PGTripRepository) ListOpenGeneralRequests(ctx context.Context) ([]domain.Trip, error) {
	return r.list(ctx, `SELECT `+tripColumns+` FROM trips WHERE kind=$1 AND status=$2 ORDER BY departure_date`,
		domain.TripKindGeneralRequest, domain.TripStatusAwaitingOffers)
}

func (r *PGTripRepository) ListByRequester(ctx context.Context, travelerID uuid.UUID) ([]domain.Trip, error) {
	return r.list(ctx, `SELECT `+tripColumns+` FROM trips WHERE requester_id=$1 ORDER BY created_at DESC`, travelerID)
}

func (r *PGTripRepository) ListByCarrier(ctx context.Context, carrierID uuid.UUID) ([]domain.Trip, error) {
	return r.list(ctx, `SELECT `+tripColumns+` FROM trips
		WHERE carrier_id=$1 OR (target_carrier_id=$1 AND status=$2) ORDER BY created_at DESC`,
		carrierID, domain.TripStatusAwaitingOffers)
}

func (r *PGTripRepository) list(ctx context.Context, query string, args ...any) ([]domain.Trip, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	trips := make([]domain.Trip, 0)
	for rows.Next() {
		trip, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		trips = append(trips, *trip)
	}
	return trips, rows.Err()
}

// UpdatePlanned edits price, seats, departure date or deposit share while
// the trip is still PLANNED and owned by the carrier.
func (r *PGTripRepository) UpdatePlanned(ctx context.Context, tripID, carrierID uuid.UUID, patch TripPatch) (*domain.Trip, error) {
	sets := []string{"updated_at=now()"}
	args := []any{tripID, carrierID, domain.TripStatusPlanned}
	next := len(args) + 1

	if patch.PricePerSeatMinor != nil {
		sets = append(sets, fmt.Sprintf("price_per_seat_minor=$%d", next))
		args = append(args, *patch.PricePerSeatMinor)
		next++
	}
	if patch.AvailableSeats != nil {
		sets = append(sets, fmt.Sprintf("available_seats=$%d", next))
		args = append(args, *patch.AvailableSeats)
		next++
	}
	if patch.DepartureDate != nil {
		sets = append(sets, fmt.Sprintf("departure_date=$%d", next))
		args = append(args, *patch.DepartureDate)
		next++
	}
	if patch.DepositPercent != nil {
		sets = append(sets, fmt.Sprintf("deposit_percent=$%d", next))
		args = append(args, *patch.DepositPercent)
		next++
	}

	row := r.db.QueryRow(ctx, `UPDATE trips SET `+strings.Join(sets, ", ")+
		` WHERE id=$1 AND carrier_id=$2 AND status=$3 RETURNING `+tripColumns, args...)
	trip, err := scanTrip(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, r.classifyMiss(ctx, tripID, carrierID, "edit")
		}
		return nil, err
	}
	return trip, nil
}

// Transition applies a carrier-driven operational transition. Completing a
// trip cascades CONFIRMED bookings to COMPLETED; cancelling cascades every
// non-terminal booking to CANCELLED and restores the seats paid bookings
// had consumed, all in one transaction.
func (r *PGTripRepository) Transition(ctx context.Context, tripID, carrierID uuid.UUID, action domain.TripAction, reason string) (*TripTransition, error) {
	var result TripTransition
	err := inTx(ctx, r.db, func(tx pgx.Tx) error {
		trip, err := getTripForUpdate(ctx, tx, tripID)
		if err != nil {
			return err
		}
		if trip.CarrierID != carrierID {
			return domain.NotFoundError{Resource: "trip"}
		}
		next, ok := trip.Status.Next(action)
		if !ok {
			return domain.InvalidStateError{Entity: "trip", Status: string(trip.Status), Op: string(action)}
		}

		if _, err := tx.Exec(ctx, `UPDATE trips SET status=$1, updated_at=now() WHERE id=$2`, next, tripID); err != nil {
			return err
		}
		trip.Status = next

		switch action {
		case domain.TripActionComplete:
			result.Bookings, err = completeBookings(ctx, tx, tripID)
		case domain.TripActionCancel:
			result.Bookings, err = cancelBookingsCascade(ctx, tx, trip, reason)
		}
		if err != nil {
			return err
		}
		result.Trip = *trip
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// RejectDirect cancels a direct request on behalf of its target carrier.
func (r *PGTripRepository) RejectDirect(ctx context.Context, tripID, carrierID uuid.UUID) (*domain.Trip, error) {
	row := r.db.QueryRow(ctx, `UPDATE trips SET status=$1, updated_at=now()
		WHERE id=$2 AND kind=$3 AND target_carrier_id=$4 AND status=$5 RETURNING `+tripColumns,
		domain.TripStatusCancelled, tripID, domain.TripKindDirectRequest, carrierID, domain.TripStatusAwaitingOffers)
	trip, err := scanTrip(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, r.classifyDirectMiss(ctx, tripID, carrierID, "reject")
		}
		return nil, err
	}
	return trip, nil
}

func completeBookings(ctx context.Context, tx pgx.Tx, tripID uuid.UUID) ([]domain.Booking, error) {
	rows, err := tx.Query(ctx, `UPDATE bookings SET status=$1, updated_at=now()
		WHERE trip_id=$2 AND status=$3 RETURNING `+bookingColumns,
		domain.BookingStatusCompleted, tripID, domain.BookingStatusConfirmed)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBookings(rows)
}

func cancelBookingsCascade(ctx context.Context, tx pgx.Tx, trip *domain.Trip, reason string) ([]domain.Booking, error) {
	rows, err := tx.Query(ctx, `SELECT `+bookingColumns+` FROM bookings
		WHERE trip_id=$1 AND status NOT IN ($2, $3) FOR UPDATE`,
		trip.ID, domain.BookingStatusCancelled, domain.BookingStatusCompleted)
	if err != nil {
		return nil, err
	}
	open, err := collectBookings(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(open))
	restore := 0
	for _, b := range open {
		ids = append(ids, b.ID)
		if b.Status == domain.BookingStatusConfirmed {
			restore += b.Seats
		}
	}
	if len(ids) == 0 {
		return nil, nil
	}

	if _, err := tx.Exec(ctx, `UPDATE bookings SET status=$1, cancelled_by=$2, cancellation_reason=$3, updated_at=now()
		WHERE id = ANY($4)`, domain.BookingStatusCancelled, domain.CancelledByCarrier, reason, ids); err != nil {
		return nil, err
	}
	if restore > 0 && trip.HasSharedCapacity() {
		if _, err := tx.Exec(ctx, `UPDATE trips SET available_seats = available_seats + $1, updated_at=now() WHERE id=$2`,
			restore, trip.ID); err != nil {
			return nil, err
		}
		trip.AvailableSeats += restore
	}

	for i := range open {
		open[i].Status = domain.BookingStatusCancelled
		open[i].CancelledBy = domain.CancelledByCarrier
		open[i].CancellationReason = reason
	}
	return open, nil
}

// classifyMiss turns a zero-row guarded update into the precise error.
func (r *PGTripRepository) classifyMiss(ctx context.Context, tripID, carrierID uuid.UUID, op string) error {
	trip, err := getTrip(ctx, r.db, tripID)
	if err != nil {
		return err
	}
	if trip.CarrierID != carrierID {
		return domain.NotFoundError{Resource: "trip"}
	}
	return domain.InvalidStateError{Entity: "trip", Status: string(trip.Status), Op: op}
}

func (r *PGTripRepository) classifyDirectMiss(ctx context.Context, tripID, carrierID uuid.UUID, op string) error {
	trip, err := getTrip(ctx, r.db, tripID)
	if err != nil {
		return err
	}
	if trip.Kind != domain.TripKindDirectRequest || trip.TargetCarrierID != carrierID {
		return domain.NotFoundError{Resource: "trip"}
	}
	return domain.InvalidStateError{Entity: "trip", Status: string(trip.Status), Op: op}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrip(row rowScanner) (*domain.Trip, error) {
	var t domain.Trip
	if err := row.Scan(&t.ID, &t.Kind, &t.Origin, &t.Destination, &t.DepartureDate, &t.RequesterID,
		&t.CarrierID, &t.TargetCarrierID, &t.PricePerSeatMinor, &t.TotalPriceMinor, &t.Currency,
		&t.DepositPercent, &t.AvailableSeats, &t.PassengerCount, &t.PassengerManifest, &t.Status,
		&t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

func getTrip(ctx context.Context, q interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}, id uuid.UUID) (*domain.Trip, error) {
	trip, err := scanTrip(q.QueryRow(ctx, `SELECT `+tripColumns+` FROM trips WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFoundError{Resource: "trip", Err: err}
		}
		return nil, err
	}
	return trip, nil
}

func getTripForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Trip, error) {
	trip, err := scanTrip(tx.QueryRow(ctx, `SELECT `+tripColumns+` FROM trips WHERE id=$1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFoundError{Resource: "trip", Err: err}
		}
		return nil, err
	}
	return trip, nil
}

var _ TripRepository = (*PGTripRepository)(nil)
