package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"gopkg.in/guregu/null.v4"

	"github.com/Swati9798/Vehicle-Parking/internal/model"
)

// SpotRepo provides persistence for parking spots.  All mutating methods run
// inside a caller-owned transaction that already holds the lot row lock.
type SpotRepo struct {
	db *sql.DB
}

func NewSpotRepo(db *sql.DB) *SpotRepo { return &SpotRepo{db: db} }

// CreateBatchTx inserts one Available spot per label in a single statement.
func (r *SpotRepo) CreateBatchTx(ctx context.Context, tx *sql.Tx, lotID uint64, labels []string) error {
	if len(labels) == 0 {
		return nil
	}
	var b strings.Builder
	b.WriteString("INSERT INTO parking_spots (lot_id, spot_number, status) VALUES ")
	args := make([]any, 0, len(labels)*3)
	for i, label := range labels {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString("(?, ?, ?)")
		args = append(args, lotID, label, model.SpotAvailable)
	}
	if _, err := tx.ExecContext(ctx, b.String(), args...); err != nil {
		if _, dup := duplicateKey(err); dup {
			return ErrConflict
		}
		return err
	}
	return nil
}

// LabelsTx lists every label currently used in the lot.
func (r *SpotRepo) LabelsTx(ctx context.Context, tx *sql.Tx, lotID uint64) ([]string, error) {
	rows, err := tx.QueryContext(ctx, `SELECT spot_number FROM parking_spots WHERE lot_id = ?`, lotID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// CountByStatusTx returns the available and occupied counts of a lot.
func (r *SpotRepo) CountByStatusTx(ctx context.Context, tx *sql.Tx, lotID uint64) (available, occupied int, err error) {
	const q = `SELECT COALESCE(SUM(status = 'A'), 0), COALESCE(SUM(status = 'O'), 0)
	           FROM parking_spots WHERE lot_id = ?`
	err = tx.QueryRowContext(ctx, q, lotID).Scan(&available, &occupied)
	return available, occupied, err
}

// FirstAvailableTx picks the lowest-id Available spot of the lot.  It
// returns ErrNotFound when the lot is full.
func (r *SpotRepo) FirstAvailableTx(ctx context.Context, tx *sql.Tx, lotID uint64) (*model.Spot, error) {
	const q = `SELECT id, lot_id, spot_number, status, created_at
	           FROM parking_spots
	           WHERE lot_id = ? AND status = 'A'
	           ORDER BY id ASC
	           LIMIT 1
	           FOR UPDATE`
	var s model.Spot
	err := tx.QueryRowContext(ctx, q, lotID).Scan(&s.ID, &s.LotID, &s.SpotNumber, &s.Status, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetTx loads a spot by id.
func (r *SpotRepo) GetTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Spot, error) {
	var s model.Spot
	err := tx.QueryRowContext(ctx, `SELECT id, lot_id, spot_number, status, created_at FROM parking_spots WHERE id = ?`, id).
		Scan(&s.ID, &s.LotID, &s.SpotNumber, &s.Status, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// TransitionTx moves a spot from one status to another.  It reports false
// when the spot was not in the expected status, which callers treat as a
// lost race.
func (r *SpotRepo) TransitionTx(ctx context.Context, tx *sql.Tx, id uint64, from, to string) (bool, error) {
	res, err := tx.ExecContext(ctx, `UPDATE parking_spots SET status = ? WHERE id = ? AND status = ?`, to, id, from)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// AvailableIDsDescTx returns up to limit Available spot ids, highest first.
func (r *SpotRepo) AvailableIDsDescTx(ctx context.Context, tx *sql.Tx, lotID uint64, limit int) ([]uint64, error) {
	const q = `SELECT id FROM parking_spots
	           WHERE lot_id = ? AND status = 'A'
	           ORDER BY id DESC
	           LIMIT ?
	           FOR UPDATE`
	rows, err := tx.QueryContext(ctx, q, lotID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DeleteAvailableTx deletes the given spots, guarded on status so an
// Occupied spot is never removed.  It returns the number of rows deleted.
func (r *SpotRepo) DeleteAvailableTx(ctx context.Context, tx *sql.Tx, ids []uint64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, 0, len(ids))
	for _, id := range ids {
		args = append(args, id)
	}
	res, err := tx.ExecContext(ctx,
		`DELETE FROM parking_spots WHERE status = 'A' AND id IN (`+placeholders+`)`, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// SpotDetail is a spot with the account and entry time of its open
// reservation, if any.
type SpotDetail struct {
	model.Spot
	ReservationID null.Int    `json:"reservation_id"`
	CurrentUser   null.String `json:"current_user"`
	VehicleNumber null.String `json:"vehicle_number"`
	ReservedSince null.Time   `json:"reserved_since"`
}

// ListDetailsByLot returns every spot of the lot ordered by id.
func (r *SpotRepo) ListDetailsByLot(ctx context.Context, lotID uint64) ([]SpotDetail, error) {
	return r.listDetails(ctx, `s.lot_id = ?`, lotID)
}

func (r *SpotRepo) listDetails(ctx context.Context, cond string, args ...any) ([]SpotDetail, error) {
	q := `SELECT s.id, s.lot_id, s.spot_number, s.status, s.created_at,
			rv.id, u.username, rv.vehicle_number, rv.parking_timestamp
		FROM parking_spots s
		LEFT JOIN reservations rv ON rv.spot_id = s.id AND rv.leaving_timestamp IS NULL
		LEFT JOIN users u ON u.id = rv.user_id
		WHERE ` + cond + `
		ORDER BY s.lot_id, s.id`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []SpotDetail{}
	for rows.Next() {
		var d SpotDetail
		if err := rows.Scan(&d.ID, &d.LotID, &d.SpotNumber, &d.Status, &d.CreatedAt,
			&d.ReservationID, &d.CurrentUser, &d.VehicleNumber, &d.ReservedSince); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

