package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Swati9798/Vehicle-Parking/internal/model"
)

// ReservationRepo provides persistence for parking sessions.  Reservations
// are never deleted; closing one sets its exit time and cost.
type ReservationRepo struct {
	db *sql.DB
}

func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

const reservationColumns = `r.id, r.spot_id, r.lot_id, r.user_id, r.parking_timestamp, r.leaving_timestamp,
	r.parking_cost, r.vehicle_number, r.remarks, r.created_at`

func scanReservation(row interface{ Scan(...any) error }, rv *model.Reservation, extra ...any) error {
	dest := []any{&rv.ID, &rv.SpotID, &rv.LotID, &rv.UserID, &rv.ParkingTimestamp, &rv.LeavingTimestamp,
		&rv.ParkingCost, &rv.VehicleNumber, &rv.Remarks, &rv.CreatedAt}
	return row.Scan(append(dest, extra...)...)
}

// CreateTx inserts an open reservation and sets its id.
func (r *ReservationRepo) CreateTx(ctx context.Context, tx *sql.Tx, rv *model.Reservation) error {
	const q = `INSERT INTO reservations (spot_id, lot_id, user_id, parking_timestamp, parking_cost, vehicle_number, remarks, created_at)
	           VALUES (?, ?, ?, ?, 0, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, rv.SpotID, rv.LotID, rv.UserID, rv.ParkingTimestamp,
		rv.VehicleNumber, rv.Remarks, rv.ParkingTimestamp)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rv.ID = uint64(id)
	rv.CreatedAt = rv.ParkingTimestamp
	return nil
}

// GetActiveForUserForUpdateTx locks an open reservation owned by userID.
// Missing, foreign and already closed reservations all yield ErrNotFound.
func (r *ReservationRepo) GetActiveForUserForUpdateTx(ctx context.Context, tx *sql.Tx, id, userID uint64) (*model.Reservation, error) {
	q := `SELECT ` + reservationColumns + `
		FROM reservations r
		WHERE r.id = ? AND r.user_id = ? AND r.leaving_timestamp IS NULL
		FOR UPDATE`
	var rv model.Reservation
	err := scanReservation(tx.QueryRowContext(ctx, q, id, userID), &rv)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rv, nil
}

// CloseTx records the exit.  It reports false if the reservation was
// already closed.
func (r *ReservationRepo) CloseTx(ctx context.Context, tx *sql.Tx, id uint64, leaving time.Time, cost float64) (bool, error) {
	res, err := tx.ExecContext(ctx,
		`UPDATE reservations SET leaving_timestamp = ?, parking_cost = ? WHERE id = ? AND leaving_timestamp IS NULL`,
		leaving, cost, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// ViewFilter selects reservation listings.  Zero values mean "any".
type ViewFilter struct {
	UserID     uint64
	ActiveOnly bool
	Since      time.Time // parking_timestamp >= Since
	Until      time.Time // parking_timestamp < Until
	Limit      int
	Offset     int
}

// ListViews returns enriched reservations, newest entry first.  Reservations
// whose lot was deleted come back with empty lot fields.
func (r *ReservationRepo) ListViews(ctx context.Context, f ViewFilter, now time.Time) ([]model.ReservationView, error) {
	q := `SELECT ` + reservationColumns + `,
			COALESCE(l.prime_location_name, ''), COALESCE(l.address, ''), COALESCE(s.spot_number, ''),
			COALESCE(l.price_per_hour, 0), COALESCE(u.username, '')
		FROM reservations r
		LEFT JOIN parking_spots s ON s.id = r.spot_id
		LEFT JOIN parking_lots l ON l.id = r.lot_id
		LEFT JOIN users u ON u.id = r.user_id
		WHERE 1=1`
	args := []any{}
	if f.UserID != 0 {
		q += ` AND r.user_id = ?`
		args = append(args, f.UserID)
	}
	if f.ActiveOnly {
		q += ` AND r.leaving_timestamp IS NULL`
	}
	if !f.Since.IsZero() {
		q += ` AND r.parking_timestamp >= ?`
		args = append(args, f.Since)
	}
	if !f.Until.IsZero() {
		q += ` AND r.parking_timestamp < ?`
		args = append(args, f.Until)
	}
	q += ` ORDER BY r.parking_timestamp DESC, r.id DESC`
	if f.Limit > 0 {
		q += ` LIMIT ? OFFSET ?`
		args = append(args, f.Limit, f.Offset)
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.ReservationView{}
	for rows.Next() {
		var (
			rv                           model.Reservation
			lotName, lotAddr, spotNumber string
			price                        float64
			username                     string
		)
		if err := scanReservation(rows, &rv, &lotName, &lotAddr, &spotNumber, &price, &username); err != nil {
			return nil, err
		}
		v := model.NewReservationView(rv, lotName, lotAddr, spotNumber, price, now)
		v.Username = username
		out = append(out, v)
	}
	return out, rows.Err()
}

// GetView loads a single enriched reservation.
func (r *ReservationRepo) GetView(ctx context.Context, id uint64, now time.Time) (*model.ReservationView, error) {
	q := `SELECT ` + reservationColumns + `,
			COALESCE(l.prime_location_name, ''), COALESCE(l.address, ''), COALESCE(s.spot_number, ''),
			COALESCE(l.price_per_hour, 0)
		FROM reservations r
		LEFT JOIN parking_spots s ON s.id = r.spot_id
		LEFT JOIN parking_lots l ON l.id = r.lot_id
		WHERE r.id = ?`
	var (
		rv                           model.Reservation
		lotName, lotAddr, spotNumber string
		price                        float64
	)
	err := scanReservation(r.db.QueryRowContext(ctx, q, id), &rv, &lotName, &lotAddr, &spotNumber, &price)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	v := model.NewReservationView(rv, lotName, lotAddr, spotNumber, price, now)
	return &v, nil
}

// UsersWithActive returns the ids of accounts holding at least one open
// reservation.
func (r *ReservationRepo) UsersWithActive(ctx context.Context) (map[uint64]bool, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT user_id FROM reservations WHERE leaving_timestamp IS NULL`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[uint64]bool{}
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = true
	}
	return out, rows.Err()
}
