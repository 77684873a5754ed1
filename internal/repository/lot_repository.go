package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/Swati9798/Vehicle-Parking/internal/model"
)

// LotRepo provides persistence for parking lots.
type LotRepo struct {
	db *sql.DB
}

func NewLotRepo(db *sql.DB) *LotRepo { return &LotRepo{db: db} }

// DB exposes the handle so callers can open transactions spanning several repos.
func (r *LotRepo) DB() *sql.DB { return r.db }

const lotColumns = `id, prime_location_name, address, pin_code, price_per_hour, number_of_spots, is_active, created_at, updated_at`

func scanLot(row interface{ Scan(...any) error }, l *model.Lot) error {
	return row.Scan(&l.ID, &l.PrimeLocationName, &l.Address, &l.PinCode, &l.PricePerHour,
		&l.NumberOfSpots, &l.IsActive, &l.CreatedAt, &l.UpdatedAt)
}

// CreateTx inserts the lot and reloads it so server defaults are populated.
func (r *LotRepo) CreateTx(ctx context.Context, tx *sql.Tx, l *model.Lot) error {
	const q = `INSERT INTO parking_lots (prime_location_name, address, pin_code, price_per_hour, number_of_spots)
	           VALUES (?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, l.PrimeLocationName, l.Address, l.PinCode, l.PricePerHour, l.NumberOfSpots)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	return scanLot(tx.QueryRowContext(ctx, `SELECT `+lotColumns+` FROM parking_lots WHERE id = ?`, id), l)
}

// GetByID returns ErrNotFound when the lot does not exist.
func (r *LotRepo) GetByID(ctx context.Context, id uint64) (*model.Lot, error) {
	var l model.Lot
	err := scanLot(r.db.QueryRowContext(ctx, `SELECT `+lotColumns+` FROM parking_lots WHERE id = ?`, id), &l)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// GetForUpdateTx loads the lot and takes a row lock on it.  Every mutation of
// the lot's spots serializes on this lock.
func (r *LotRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Lot, error) {
	var l model.Lot
	err := scanLot(tx.QueryRowContext(ctx, `SELECT `+lotColumns+` FROM parking_lots WHERE id = ? FOR UPDATE`, id), &l)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// UpdateTx writes the descriptive fields and the declared spot count.
func (r *LotRepo) UpdateTx(ctx context.Context, tx *sql.Tx, l *model.Lot) error {
	const q = `UPDATE parking_lots
	           SET prime_location_name = ?, address = ?, pin_code = ?, price_per_hour = ?, number_of_spots = ?, updated_at = UTC_TIMESTAMP()
	           WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, l.PrimeLocationName, l.Address, l.PinCode, l.PricePerHour, l.NumberOfSpots, l.ID)
	return err
}

// DeleteTx removes the lot; spots go with it through ON DELETE CASCADE.
func (r *LotRepo) DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM parking_lots WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// LotFilter narrows lot listings.  Page is 1-based.
type LotFilter struct {
	Query      string
	ActiveOnly bool
	OnlyFree   bool
	Page       int
	PageSize   int
}

// MaxPageSize caps LotFilter.PageSize.
const MaxPageSize = 100

// Normalized fills in the default page and page size and applies
// MaxPageSize.
func (f LotFilter) Normalized() LotFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	switch {
	case f.PageSize < 1:
		f.PageSize = 20
	case f.PageSize > MaxPageSize:
		f.PageSize = MaxPageSize
	}
	return f
}

// ListWithAvailability returns one page of lots with live spot counts and
// the total number of matching lots.
func (r *LotRepo) ListWithAvailability(ctx context.Context, f LotFilter) ([]model.LotAvailability, int64, error) {
	f = f.Normalized()
	where := []string{}
	args := []any{}
	if f.ActiveOnly {
		where = append(where, "l.is_active = 1")
	}
	if strings.TrimSpace(f.Query) != "" {
		p := likePattern(f.Query)
		where = append(where, "(LOWER(l.prime_location_name) LIKE ? OR LOWER(l.address) LIKE ? OR LOWER(l.pin_code) LIKE ?)")
		args = append(args, p, p, p)
	}
	if f.OnlyFree {
		where = append(where, "EXISTS (SELECT 1 FROM parking_spots fs WHERE fs.lot_id = l.id AND fs.status = 'A')")
	}
	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM parking_lots l WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	dataSQL := `SELECT l.id, l.prime_location_name, l.address, l.pin_code, l.price_per_hour, l.number_of_spots,
			l.is_active, l.created_at, l.updated_at,
			COALESCE(SUM(s.status = 'A'), 0) AS available,
			COALESCE(SUM(s.status = 'O'), 0) AS occupied
		FROM parking_lots l
		LEFT JOIN parking_spots s ON s.lot_id = l.id
		WHERE ` + cond + `
		GROUP BY l.id
		ORDER BY l.id ASC
		LIMIT ? OFFSET ?`
	dataArgs := append(append([]any{}, args...), f.PageSize, (f.Page-1)*f.PageSize)

	rows, err := r.db.QueryContext(ctx, dataSQL, dataArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]model.LotAvailability, 0, f.PageSize)
	for rows.Next() {
		var (
			l                   model.Lot
			available, occupied int
		)
		if err := rows.Scan(&l.ID, &l.PrimeLocationName, &l.Address, &l.PinCode, &l.PricePerHour, &l.NumberOfSpots,
			&l.IsActive, &l.CreatedAt, &l.UpdatedAt, &available, &occupied); err != nil {
			return nil, 0, err
		}
		out = append(out, model.NewLotAvailability(l, available, occupied))
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
