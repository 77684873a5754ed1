package model

import (
	"math"
	"time"

	"gopkg.in/guregu/null.v4"
)

// Reservation is a single parking session.  LeavingTimestamp is null while
// the session is active; ParkingCost stays 0 until it is closed.
//
// Fields:
//  SpotID, LotID      – null once the owning lot has been deleted.
//  ParkingTimestamp   – entry time.
//  LeavingTimestamp   – exit time (null <=> active).
//  ParkingCost        – billed amount, fixed at release.
type Reservation struct {
	ID               uint64      `json:"id"`                // reservations.id
	SpotID           null.Int    `json:"spot_id"`           // reservations.spot_id
	LotID            null.Int    `json:"lot_id"`            // reservations.lot_id
	UserID           uint64      `json:"user_id"`           // reservations.user_id
	ParkingTimestamp time.Time   `json:"parking_timestamp"` // reservations.parking_timestamp
	LeavingTimestamp null.Time   `json:"leaving_timestamp"` // reservations.leaving_timestamp
	ParkingCost      float64     `json:"parking_cost"`      // reservations.parking_cost
	VehicleNumber    null.String `json:"vehicle_number"`    // reservations.vehicle_number
	Remarks          null.String `json:"remarks"`           // reservations.remarks
	CreatedAt        time.Time   `json:"created_at"`        // reservations.created_at
}

// IsActive reports whether the session is still open.
func (r Reservation) IsActive() bool { return !r.LeavingTimestamp.Valid }

// Duration measures the session against now while it is active and against
// the recorded exit once closed.
func (r Reservation) Duration(now time.Time) time.Duration {
	end := now
	if r.LeavingTimestamp.Valid {
		end = r.LeavingTimestamp.Time
	}
	d := end.Sub(r.ParkingTimestamp)
	if d < 0 {
		return 0
	}
	return d
}

// DurationHours is Duration expressed in hours, rounded to two decimals.
func (r Reservation) DurationHours(now time.Time) float64 {
	return Round2(r.Duration(now).Hours())
}

// ReservationView is a reservation enriched with its lot and spot for
// listings and exports.
type ReservationView struct {
	Reservation
	ParkingLotName    string  `json:"parking_lot_name"`
	ParkingLotAddress string  `json:"parking_lot_address"`
	SpotNumber        string  `json:"spot_number"`
	PricePerHour      float64 `json:"price_per_hour"`
	Username          string  `json:"username,omitempty"`
	DurationHours     float64 `json:"duration_hours"`
	Active            bool    `json:"is_active"`
}

// NewReservationView fills the derived fields.
func NewReservationView(r Reservation, lotName, lotAddress, spotNumber string, price float64, now time.Time) ReservationView {
	return ReservationView{
		Reservation:       r,
		ParkingLotName:    lotName,
		ParkingLotAddress: lotAddress,
		SpotNumber:        spotNumber,
		PricePerHour:      price,
		DurationHours:     r.DurationHours(now),
		Active:            r.IsActive(),
	}
}

// BilledHours rounds a duration up to whole hours with a one hour minimum.
func BilledHours(d time.Duration) int64 {
	hours := int64(d / time.Hour)
	if d%time.Hour > 0 {
		hours++
	}
	if hours < 1 {
		hours = 1
	}
	return hours
}

// Cost is BilledHours(d) multiplied by the hourly price.
func Cost(d time.Duration, pricePerHour float64) float64 {
	return Round2(float64(BilledHours(d)) * pricePerHour)
}

// Round2 rounds half away from zero to two decimals.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
