package service

import (
	"context"
	"time"

	"github.com/Swati9798/Vehicle-Parking/internal/model"
	"github.com/Swati9798/Vehicle-Parking/internal/repository"
)

// trailingMonthCount is the width of the monthly trend in summaries.
const trailingMonthCount = 6

// AnalyticsStore is the aggregate query surface the analytics service reads.
type AnalyticsStore interface {
	Counts(ctx context.Context) (repository.Counts, error)
	ClosedStats(ctx context.Context, userID uint64) (repository.ClosedStats, error)
	ReservationCounts(ctx context.Context, userID uint64) (total, active int64, err error)
	LotStats(ctx context.Context) ([]repository.LotStat, error)
	MonthlyClosed(ctx context.Context, userID uint64, since time.Time) ([]repository.MonthTotal, error)
	MonthlyEntries(ctx context.Context, since time.Time) ([]repository.MonthTotal, error)
	LocationUsage(ctx context.Context, userID uint64, closedOnly bool, since, until time.Time) ([]repository.LocationUsage, error)
}

// ReservationLister lists enriched reservations.
type ReservationLister interface {
	ListViews(ctx context.Context, f repository.ViewFilter, now time.Time) ([]model.ReservationView, error)
}

// AnalyticsService computes dashboards and summaries on demand.
type AnalyticsService struct {
	store        AnalyticsStore
	reservations ReservationLister
	now          func() time.Time
}

func NewAnalyticsService(store AnalyticsStore, reservations ReservationLister) *AnalyticsService {
	return &AnalyticsService{store: store, reservations: reservations, now: func() time.Time { return time.Now().UTC() }}
}

type LotRevenue struct {
	LotID   uint64  `json:"lot_id"`
	Name    string  `json:"name"`
	Revenue float64 `json:"revenue"`
}

type LotOccupancy struct {
	LotID               uint64  `json:"lot_id"`
	Name                string  `json:"name"`
	Occupied            int     `json:"occupied"`
	Available           int     `json:"available"`
	OccupancyPercentage float64 `json:"occupancy_percentage"`
}

// MonthBucket is one month of the trailing trend.  Reservations counts
// entries in the month; Revenue and Hours cover sessions that ended in it.
type MonthBucket struct {
	Month        string  `json:"month"`
	Start        string  `json:"start"`
	Revenue      float64 `json:"revenue"`
	Reservations int64   `json:"reservations"`
	Hours        float64 `json:"hours"`
}

// AdminSummary is the admin analytics view.
type AdminSummary struct {
	TotalRevenue   float64        `json:"total_revenue"`
	AvgOccupancy   float64        `json:"avg_occupancy"`
	ActiveUsers    int64          `json:"active_users"`
	AvgDuration    float64        `json:"avg_duration"`
	RevenueByLot   []LotRevenue   `json:"revenue_by_lot"`
	OccupancyByLot []LotOccupancy `json:"occupancy_by_lot"`
	MonthlyRevenue []MonthBucket  `json:"monthly_revenue"`
}

// Dashboard returns the headline counts.
func (s *AnalyticsService) Dashboard(ctx context.Context) (repository.Counts, error) {
	return s.store.Counts(ctx)
}

// AdminSummary aggregates revenue, occupancy, durations and the trailing
// six-month trend, oldest month first.
func (s *AnalyticsService) AdminSummary(ctx context.Context) (*AdminSummary, error) {
	counts, err := s.store.Counts(ctx)
	if err != nil {
		return nil, err
	}
	closed, err := s.store.ClosedStats(ctx, 0)
	if err != nil {
		return nil, err
	}
	lots, err := s.store.LotStats(ctx)
	if err != nil {
		return nil, err
	}
	months := trailingMonths(s.now(), trailingMonthCount)
	revenue, err := s.store.MonthlyClosed(ctx, 0, months[0])
	if err != nil {
		return nil, err
	}
	entries, err := s.store.MonthlyEntries(ctx, months[0])
	if err != nil {
		return nil, err
	}

	out := &AdminSummary{
		TotalRevenue:   model.Round2(closed.Revenue),
		AvgOccupancy:   model.Percent(int(counts.OccupiedSpots), int(counts.Spots)),
		ActiveUsers:    counts.ActiveUsers,
		AvgDuration:    averageHours(closed),
		RevenueByLot:   make([]LotRevenue, 0, len(lots)),
		OccupancyByLot: make([]LotOccupancy, 0, len(lots)),
		MonthlyRevenue: fillMonths(months, revenue, entries),
	}
	for _, l := range lots {
		out.RevenueByLot = append(out.RevenueByLot, LotRevenue{LotID: l.LotID, Name: l.Name, Revenue: model.Round2(l.Revenue)})
		out.OccupancyByLot = append(out.OccupancyByLot, LotOccupancy{
			LotID:               l.LotID,
			Name:                l.Name,
			Occupied:            l.Occupied,
			Available:           l.Available,
			OccupancyPercentage: model.Percent(l.Occupied, l.Occupied+l.Available),
		})
	}
	return out, nil
}

type LocationSummary struct {
	Name  string  `json:"name"`
	Count int64   `json:"count"`
	Hours float64 `json:"hours"`
}

type MonthUsage struct {
	Month string  `json:"month"`
	Hours float64 `json:"hours"`
	Spent float64 `json:"spent"`
}

// UserSummary is an account's personal statistics.
type UserSummary struct {
	TotalReservations     int64                   `json:"total_reservations"`
	ActiveReservations    int64                   `json:"active_reservations"`
	CompletedReservations int64                   `json:"completed_reservations"`
	TotalSpending         float64                 `json:"total_spending"`
	TotalHours            float64                 `json:"total_hours"`
	FavoriteLot           string                  `json:"favorite_lot"`
	MonthlyUsage          []MonthUsage            `json:"monthly_usage"`
	LocationsUsed         []LocationSummary       `json:"locations_used"`
	RecentReservations    []model.ReservationView `json:"recent_reservations"`
}

const recentReservationCount = 5

func (s *AnalyticsService) UserSummary(ctx context.Context, userID uint64) (*UserSummary, error) {
	total, active, err := s.store.ReservationCounts(ctx, userID)
	if err != nil {
		return nil, err
	}
	closed, err := s.store.ClosedStats(ctx, userID)
	if err != nil {
		return nil, err
	}
	allLots, err := s.store.LocationUsage(ctx, userID, false, time.Time{}, time.Time{})
	if err != nil {
		return nil, err
	}
	closedLots, err := s.store.LocationUsage(ctx, userID, true, time.Time{}, time.Time{})
	if err != nil {
		return nil, err
	}
	now := s.now()
	months := trailingMonths(now, trailingMonthCount)
	monthly, err := s.store.MonthlyClosed(ctx, userID, months[0])
	if err != nil {
		return nil, err
	}
	recent, err := s.reservations.ListViews(ctx, repository.ViewFilter{UserID: userID, Limit: recentReservationCount}, now)
	if err != nil {
		return nil, err
	}

	out := &UserSummary{
		TotalReservations:     total,
		ActiveReservations:    active,
		CompletedReservations: closed.Count,
		TotalSpending:         model.Round2(closed.Revenue),
		TotalHours:            model.Round2(closed.TotalSeconds / 3600),
		FavoriteLot:           "N/A",
		LocationsUsed:         make([]LocationSummary, 0, len(closedLots)),
		RecentReservations:    recent,
	}
	if len(allLots) > 0 {
		out.FavoriteLot = allLots[0].Name
	}
	for _, l := range closedLots {
		out.LocationsUsed = append(out.LocationsUsed, LocationSummary{Name: l.Name, Count: l.Count, Hours: model.Round2(l.Seconds / 3600)})
	}
	for _, b := range fillMonths(months, monthly, nil) {
		out.MonthlyUsage = append(out.MonthlyUsage, MonthUsage{Month: b.Month, Hours: b.Hours, Spent: b.Revenue})
	}
	return out, nil
}

// MonthlyReport is the content of a user's monthly activity email.
type MonthlyReport struct {
	Month             string  `json:"month"`
	TotalReservations int64   `json:"total_reservations"`
	TotalAmount       float64 `json:"total_amount"`
	MostUsedLocation  string  `json:"most_used_location"`
	TotalHours        float64 `json:"total_hours"`
}

// MonthlyReport summarizes reservations that started in the calendar month
// containing monthStart.
func (s *AnalyticsService) MonthlyReport(ctx context.Context, userID uint64, monthStart time.Time) (*MonthlyReport, error) {
	start := time.Date(monthStart.Year(), monthStart.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	usage, err := s.store.LocationUsage(ctx, userID, false, start, end)
	if err != nil {
		return nil, err
	}
	r := &MonthlyReport{Month: start.Format("January 2006"), MostUsedLocation: "N/A"}
	var seconds float64
	for i, u := range usage {
		if i == 0 {
			r.MostUsedLocation = u.Name
		}
		r.TotalReservations += u.Count
		r.TotalAmount += u.Spent
		seconds += u.Seconds
	}
	r.TotalAmount = model.Round2(r.TotalAmount)
	r.TotalHours = model.Round2(seconds / 3600)
	return r, nil
}

func averageHours(s repository.ClosedStats) float64 {
	if s.Count == 0 {
		return 0
	}
	return model.Round2(s.TotalSeconds / float64(s.Count) / 3600)
}

// trailingMonths returns the first instant of each of the last n calendar
// months, ending with the month containing now, oldest first.
func trailingMonths(now time.Time, n int) []time.Time {
	now = now.UTC()
	cur := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	out := make([]time.Time, n)
	for i := 0; i < n; i++ {
		out[i] = cur.AddDate(0, i-(n-1), 0)
	}
	return out
}

// fillMonths maps grouped totals onto the month list, leaving months without
// rows at zero.
func fillMonths(months []time.Time, closed, entries []repository.MonthTotal) []MonthBucket {
	type ym struct {
		y int
		m time.Month
	}
	byMonth := make(map[ym]*MonthBucket, len(months))
	out := make([]MonthBucket, len(months))
	for i, m := range months {
		out[i] = MonthBucket{Month: m.Format("January 2006"), Start: m.Format("2006-01")}
		byMonth[ym{m.Year(), m.Month()}] = &out[i]
	}
	for _, t := range closed {
		if b, ok := byMonth[ym{t.Year, t.Month}]; ok {
			b.Revenue = model.Round2(b.Revenue + t.Revenue)
			b.Hours = model.Round2(b.Hours + t.Seconds/3600)
		}
	}
	for _, t := range entries {
		if b, ok := byMonth[ym{t.Year, t.Month}]; ok {
			b.Reservations += t.Count
		}
	}
	return out
}
