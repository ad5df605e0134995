package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wasel-app/wasel/internal/domain"
)

// CarrierProfileRepository is the read-only view onto the profile store the
// matching filter needs. A carrier without a stored profile is not an
// error; it simply has no declared specialization yet.
type CarrierProfileRepository interface {
	GetByCarrierID(ctx context.Context, carrierID uuid.UUID) (domain.CarrierProfile, error)
}

type PGCarrierProfileRepository struct {
	db *pgxpool.Pool
}

func NewCarrierProfileRepository(db *pgxpool.Pool) CarrierProfileRepository {
	return &PGCarrierProfileRepository{db: db}
}

func (r *PGCarrierProfileRepository) GetByCarrierID(ctx context.Context, carrierID uuid.UUID) (domain.CarrierProfile, error) {
	profile := domain.CarrierProfile{CarrierID: carrierID}
	err := r.db.QueryRow(ctx, `SELECT route_origin, route_destination, vehicle_capacity
		FROM carrier_profiles WHERE carrier_id=$1`, carrierID).
		Scan(&profile.PrimaryRoute.Origin, &profile.PrimaryRoute.Destination, &profile.VehicleCapacity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return profile, nil
		}
		return profile, err
	}
	return profile, nil
}

var _ CarrierProfileRepository = (*PGCarrierProfileRepository)(nil)
