package repository

import (
	"context"
	"database/sql"
	"time"
)

// AnalyticsRepo runs the aggregate queries behind dashboards, summaries and
// report emails.  Every aggregate is computed on demand; empty tables yield
// zero values rather than errors.
type AnalyticsRepo struct {
	db *sql.DB
}

func NewAnalyticsRepo(db *sql.DB) *AnalyticsRepo { return &AnalyticsRepo{db: db} }

// Counts is the admin dashboard headline.
type Counts struct {
	Lots               int64   `json:"total_lots"`
	Spots              int64   `json:"total_spots"`
	OccupiedSpots      int64   `json:"occupied_spots"`
	AvailableSpots     int64   `json:"available_spots"`
	Users              int64   `json:"total_users"`
	ActiveUsers        int64   `json:"active_users"`
	ActiveReservations int64   `json:"active_reservations"`
	TotalRevenue       float64 `json:"total_revenue"`
}

func (r *AnalyticsRepo) Counts(ctx context.Context) (Counts, error) {
	const q = `SELECT
		(SELECT COUNT(*) FROM parking_lots),
		(SELECT COUNT(*) FROM parking_spots),
		(SELECT COUNT(*) FROM parking_spots WHERE status = 'O'),
		(SELECT COUNT(*) FROM users WHERE role = 'user'),
		(SELECT COUNT(*) FROM users WHERE role = 'user' AND is_active = 1),
		(SELECT COUNT(*) FROM reservations WHERE leaving_timestamp IS NULL),
		(SELECT COALESCE(SUM(parking_cost), 0) FROM reservations WHERE leaving_timestamp IS NOT NULL)`
	var c Counts
	err := r.db.QueryRowContext(ctx, q).Scan(&c.Lots, &c.Spots, &c.OccupiedSpots, &c.Users, &c.ActiveUsers,
		&c.ActiveReservations, &c.TotalRevenue)
	c.AvailableSpots = c.Spots - c.OccupiedSpots
	return c, err
}

// ClosedStats summarizes closed reservations, optionally for one account.
type ClosedStats struct {
	Count        int64
	Revenue      float64
	TotalSeconds float64
}

func (r *AnalyticsRepo) ClosedStats(ctx context.Context, userID uint64) (ClosedStats, error) {
	q := `SELECT COUNT(*), COALESCE(SUM(parking_cost), 0),
			COALESCE(SUM(TIMESTAMPDIFF(SECOND, parking_timestamp, leaving_timestamp)), 0)
		FROM reservations WHERE leaving_timestamp IS NOT NULL`
	args := []any{}
	if userID != 0 {
		q += ` AND user_id = ?`
		args = append(args, userID)
	}
	var s ClosedStats
	err := r.db.QueryRowContext(ctx, q, args...).Scan(&s.Count, &s.Revenue, &s.TotalSeconds)
	return s, err
}

// ReservationCounts returns total and active reservation counts of an account.
func (r *AnalyticsRepo) ReservationCounts(ctx context.Context, userID uint64) (total, active int64, err error) {
	const q = `SELECT COUNT(*), COALESCE(SUM(leaving_timestamp IS NULL), 0) FROM reservations WHERE user_id = ?`
	err = r.db.QueryRowContext(ctx, q, userID).Scan(&total, &active)
	return total, active, err
}

// LotStat is one lot's occupancy and revenue.
type LotStat struct {
	LotID     uint64
	Name      string
	Available int
	Occupied  int
	Revenue   float64
}

func (r *AnalyticsRepo) LotStats(ctx context.Context) ([]LotStat, error) {
	const q = `SELECT l.id, l.prime_location_name,
			COALESCE(sp.available, 0), COALESCE(sp.occupied, 0), COALESCE(rv.revenue, 0)
		FROM parking_lots l
		LEFT JOIN (
			SELECT lot_id, SUM(status = 'A') AS available, SUM(status = 'O') AS occupied
			FROM parking_spots GROUP BY lot_id
		) sp ON sp.lot_id = l.id
		LEFT JOIN (
			SELECT lot_id, SUM(parking_cost) AS revenue
			FROM reservations WHERE leaving_timestamp IS NOT NULL GROUP BY lot_id
		) rv ON rv.lot_id = l.id
		ORDER BY l.id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []LotStat{}
	for rows.Next() {
		var s LotStat
		if err := rows.Scan(&s.LotID, &s.Name, &s.Available, &s.Occupied, &s.Revenue); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// MonthTotal is one calendar month of activity.
type MonthTotal struct {
	Year    int
	Month   time.Month
	Revenue float64
	Seconds float64
	Count   int64
}

// MonthlyClosed groups closed reservations by the month they ended in.
func (r *AnalyticsRepo) MonthlyClosed(ctx context.Context, userID uint64, since time.Time) ([]MonthTotal, error) {
	q := `SELECT YEAR(leaving_timestamp), MONTH(leaving_timestamp), COALESCE(SUM(parking_cost), 0),
			COALESCE(SUM(TIMESTAMPDIFF(SECOND, parking_timestamp, leaving_timestamp)), 0), COUNT(*)
		FROM reservations
		WHERE leaving_timestamp IS NOT NULL AND leaving_timestamp >= ?`
	args := []any{since}
	if userID != 0 {
		q += ` AND user_id = ?`
		args = append(args, userID)
	}
	q += ` GROUP BY YEAR(leaving_timestamp), MONTH(leaving_timestamp)`
	return r.monthTotals(ctx, q, args...)
}

// MonthlyEntries counts reservations by the month they started in.
func (r *AnalyticsRepo) MonthlyEntries(ctx context.Context, since time.Time) ([]MonthTotal, error) {
	const q = `SELECT YEAR(parking_timestamp), MONTH(parking_timestamp), 0, 0, COUNT(*)
		FROM reservations
		WHERE parking_timestamp >= ?
		GROUP BY YEAR(parking_timestamp), MONTH(parking_timestamp)`
	return r.monthTotals(ctx, q, since)
}

func (r *AnalyticsRepo) monthTotals(ctx context.Context, q string, args ...any) ([]MonthTotal, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []MonthTotal{}
	for rows.Next() {
		var (
			m     MonthTotal
			month int
		)
		if err := rows.Scan(&m.Year, &month, &m.Revenue, &m.Seconds, &m.Count); err != nil {
			return nil, err
		}
		m.Month = time.Month(month)
		out = append(out, m)
	}
	return out, rows.Err()
}

// LocationUsage is an account's usage of one lot.
type LocationUsage struct {
	LotID   uint64
	Name    string
	Count   int64
	Seconds float64
	Spent   float64
}

// LocationUsage groups an account's reservations by lot, most used first.
// When closedOnly is set open reservations are ignored.  A zero since or
// until leaves that bound open.
func (r *AnalyticsRepo) LocationUsage(ctx context.Context, userID uint64, closedOnly bool, since, until time.Time) ([]LocationUsage, error) {
	q := `SELECT l.id, l.prime_location_name, COUNT(r.id),
			COALESCE(SUM(TIMESTAMPDIFF(SECOND, r.parking_timestamp, r.leaving_timestamp)), 0),
			COALESCE(SUM(r.parking_cost), 0)
		FROM reservations r
		JOIN parking_lots l ON l.id = r.lot_id
		WHERE r.user_id = ?`
	args := []any{userID}
	if closedOnly {
		q += ` AND r.leaving_timestamp IS NOT NULL`
	}
	if !since.IsZero() {
		q += ` AND r.parking_timestamp >= ?`
		args = append(args, since)
	}
	if !until.IsZero() {
		q += ` AND r.parking_timestamp < ?`
		args = append(args, until)
	}
	q += ` GROUP BY l.id, l.prime_location_name ORDER BY COUNT(r.id) DESC, l.id ASC`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []LocationUsage{}
	for rows.Next() {
		var u LocationUsage
		if err := rows.Scan(&u.LotID, &u.Name, &u.Count, &u.Seconds, &u.Spent); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
