package repository

import (
	"context"
	"database/sql"
	"errors"
)

// SearchRepo implements the case-insensitive substring searches used by the
// admin and user search endpoints.
type SearchRepo struct {
	db *sql.DB
}

func NewSearchRepo(db *sql.DB) *SearchRepo { return &SearchRepo{db: db} }

// UserHit is an account match with its reservation count.
type UserHit struct {
	ID                uint64 `json:"id"`
	Username          string `json:"username"`
	Email             string `json:"email"`
	Role              string `json:"role"`
	IsActive          bool   `json:"is_active"`
	TotalReservations int64  `json:"total_reservations"`
}

const userHitSelect = `SELECT u.id, u.username, u.email, u.role, u.is_active,
		(SELECT COUNT(*) FROM reservations r WHERE r.user_id = u.id)
	FROM users u `

// UserByID returns at most one hit.
func (r *SearchRepo) UserByID(ctx context.Context, id uint64) ([]UserHit, error) {
	var h UserHit
	err := r.db.QueryRowContext(ctx, userHitSelect+`WHERE u.id = ?`, id).
		Scan(&h.ID, &h.Username, &h.Email, &h.Role, &h.IsActive, &h.TotalReservations)
	if errors.Is(err, sql.ErrNoRows) {
		return []UserHit{}, nil
	}
	if err != nil {
		return nil, err
	}
	return []UserHit{h}, nil
}

// UsersByUsername matches any part of the username.
func (r *SearchRepo) UsersByUsername(ctx context.Context, needle string) ([]UserHit, error) {
	rows, err := r.db.QueryContext(ctx, userHitSelect+`WHERE LOWER(u.username) LIKE ? ORDER BY u.id`, likePattern(needle))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []UserHit{}
	for rows.Next() {
		var h UserHit
		if err := rows.Scan(&h.ID, &h.Username, &h.Email, &h.Role, &h.IsActive, &h.TotalReservations); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// SpotHit is a spot match together with its lot and current occupant.
type SpotHit struct {
	SpotDetail
	LotName      string  `json:"prime_location_name"`
	Address      string  `json:"address"`
	PinCode      string  `json:"pin_code"`
	PricePerHour float64 `json:"price_per_hour"`
	IsAvailable  bool    `json:"is_available"`
}

// Spots matches the spot label or any of its lot's name, address and postal
// code.  With byLabel unset only the lot fields are considered.
func (r *SearchRepo) Spots(ctx context.Context, needle string, byLabel bool) ([]SpotHit, error) {
	p := likePattern(needle)
	cond := `(LOWER(l.prime_location_name) LIKE ? OR LOWER(l.address) LIKE ? OR LOWER(l.pin_code) LIKE ?)`
	args := []any{p, p, p}
	if byLabel {
		cond = `(LOWER(s.spot_number) LIKE ? OR ` + cond[1:]
		args = append([]any{p}, args...)
	}
	q := `SELECT s.id, s.lot_id, s.spot_number, s.status, s.created_at,
			rv.id, u.username, rv.vehicle_number, rv.parking_timestamp,
			l.prime_location_name, l.address, l.pin_code, l.price_per_hour
		FROM parking_spots s
		JOIN parking_lots l ON l.id = s.lot_id
		LEFT JOIN reservations rv ON rv.spot_id = s.id AND rv.leaving_timestamp IS NULL
		LEFT JOIN users u ON u.id = rv.user_id
		WHERE ` + cond + `
		ORDER BY s.lot_id, s.id`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []SpotHit{}
	for rows.Next() {
		var h SpotHit
		if err := rows.Scan(&h.ID, &h.LotID, &h.SpotNumber, &h.Status, &h.CreatedAt,
			&h.ReservationID, &h.CurrentUser, &h.VehicleNumber, &h.ReservedSince,
			&h.LotName, &h.Address, &h.PinCode, &h.PricePerHour); err != nil {
			return nil, err
		}
		h.IsAvailable = h.Spot.IsAvailable()
		out = append(out, h)
	}
	return out, rows.Err()
}
