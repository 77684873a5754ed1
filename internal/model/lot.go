package model

import "time"

// Lot is a parking facility.  NumberOfSpots is the declared capacity and
// always equals the number of spot rows the lot owns.
type Lot struct {
	ID                uint64    `json:"id"`                  // parking_lots.id
	PrimeLocationName string    `json:"prime_location_name"` // parking_lots.prime_location_name
	Address           string    `json:"address"`             // parking_lots.address
	PinCode           string    `json:"pin_code"`            // parking_lots.pin_code
	PricePerHour      float64   `json:"price_per_hour"`      // parking_lots.price_per_hour
	NumberOfSpots     int       `json:"number_of_spots"`     // parking_lots.number_of_spots
	IsActive          bool      `json:"is_active"`           // parking_lots.is_active
	CreatedAt         time.Time `json:"created_at"`          // parking_lots.created_at
	UpdatedAt         time.Time `json:"updated_at"`          // parking_lots.updated_at
}

// LotAvailability is a lot together with its live spot counts.
type LotAvailability struct {
	Lot
	AvailableSpots int     `json:"available_spots_count"`
	OccupiedSpots  int     `json:"occupied_spots_count"`
	OccupancyRate  float64 `json:"occupancy_rate"`
}

// NewLotAvailability derives the occupancy percentage from the counts.
func NewLotAvailability(l Lot, available, occupied int) LotAvailability {
	return LotAvailability{
		Lot:            l,
		AvailableSpots: available,
		OccupiedSpots:  occupied,
		OccupancyRate:  Percent(occupied, available+occupied),
	}
}

// Percent returns part/total as a percentage rounded to two decimals, or 0
// when total is 0.
func Percent(part, total int) float64 {
	if total <= 0 {
		return 0
	}
	return Round2(float64(part) / float64(total) * 100)
}
