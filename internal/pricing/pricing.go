// Package pricing computes deposit and remaining amounts for bookings.
// All amounts are integer minor units of the booking currency so repeated
// computations never accumulate rounding drift.
package pricing

import "github.com/wasel-app/wasel/internal/domain"

// MaxDepositPercent caps the deposit share a carrier may ask for.
const MaxDepositPercent = 25

// Breakdown splits a booking total into the upfront deposit and the amount
// settled with the carrier on the day of travel.
type Breakdown struct {
	TotalMinor     int64
	DepositMinor   int64
	RemainingMinor int64
}

// ValidateDepositPercent checks the [0, MaxDepositPercent] range.
func ValidateDepositPercent(pct int) error {
	if pct < 0 || pct > MaxDepositPercent {
		return domain.ValidationError{Field: "deposit_percent", Msg: "must be between 0 and 25"}
	}
	return nil
}

// BookingTotal returns the total for seats at a per-seat price.
func BookingTotal(pricePerSeatMinor int64, seats int) int64 {
	return pricePerSeatMinor * int64(seats)
}

// PerSeat derives a display per-seat price from a flat party total, rounding
// half up. The flat total stays the authoritative amount; a sum of PerSeat
// figures may differ from it by up to seats/2 minor units.
func PerSeat(totalMinor int64, seats int) int64 {
	if seats <= 0 {
		return totalMinor
	}
	return (totalMinor + int64(seats)/2) / int64(seats)
}

// ComputeDeposit splits totalMinor by depositPercent. The deposit rounds
// half up to a whole minor unit; the remainder is the exact complement, so
// DepositMinor + RemainingMinor == TotalMinor always holds.
func ComputeDeposit(totalMinor int64, depositPercent int) (Breakdown, error) {
	if totalMinor < 0 {
		return Breakdown{}, domain.ValidationError{Field: "total", Msg: "must not be negative"}
	}
	if err := ValidateDepositPercent(depositPercent); err != nil {
		return Breakdown{}, err
	}
	deposit := (totalMinor*int64(depositPercent) + 50) / 100
	return Breakdown{
		TotalMinor:     totalMinor,
		DepositMinor:   deposit,
		RemainingMinor: totalMinor - deposit,
	}, nil
}
