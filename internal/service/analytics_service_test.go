package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Swati9798/Vehicle-Parking/internal/model"
	"github.com/Swati9798/Vehicle-Parking/internal/repository"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Counts(ctx context.Context) (repository.Counts, error) {
	args := m.Called(ctx)
	return args.Get(0).(repository.Counts), args.Error(1)
}

func (m *mockStore) ClosedStats(ctx context.Context, userID uint64) (repository.ClosedStats, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(repository.ClosedStats), args.Error(1)
}

func (m *mockStore) ReservationCounts(ctx context.Context, userID uint64) (int64, int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Get(1).(int64), args.Error(2)
}

func (m *mockStore) LotStats(ctx context.Context) ([]repository.LotStat, error) {
	args := m.Called(ctx)
	return args.Get(0).([]repository.LotStat), args.Error(1)
}

func (m *mockStore) MonthlyClosed(ctx context.Context, userID uint64, since time.Time) ([]repository.MonthTotal, error) {
	args := m.Called(ctx, userID, since)
	return args.Get(0).([]repository.MonthTotal), args.Error(1)
}

func (m *mockStore) MonthlyEntries(ctx context.Context, since time.Time) ([]repository.MonthTotal, error) {
	args := m.Called(ctx, since)
	return args.Get(0).([]repository.MonthTotal), args.Error(1)
}

func (m *mockStore) LocationUsage(ctx context.Context, userID uint64, closedOnly bool, since, until time.Time) ([]repository.LocationUsage, error) {
	args := m.Called(ctx, userID, closedOnly, since, until)
	return args.Get(0).([]repository.LocationUsage), args.Error(1)
}

type mockLister struct {
	mock.Mock
}

func (m *mockLister) ListViews(ctx context.Context, f repository.ViewFilter, now time.Time) ([]model.ReservationView, error) {
	args := m.Called(ctx, f, now)
	return args.Get(0).([]model.ReservationView), args.Error(1)
}

func newAnalytics(store *mockStore, lister *mockLister) *AnalyticsService {
	svc := NewAnalyticsService(store, lister)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func TestAdminSummaryBuildsSixMonthTrend(t *testing.T) {
	store := new(mockStore)
	ctx := context.Background()
	since := time.Date(2025, time.December, 1, 0, 0, 0, 0, time.UTC)

	store.On("Counts", ctx).Return(repository.Counts{Spots: 8, OccupiedSpots: 2, ActiveUsers: 3}, nil)
	store.On("ClosedStats", ctx, uint64(0)).Return(repository.ClosedStats{Count: 4, Revenue: 120.456, TotalSeconds: 4 * 5400}, nil)
	store.On("LotStats", ctx).Return([]repository.LotStat{
		{LotID: 1, Name: "North Plaza", Available: 3, Occupied: 1, Revenue: 80},
		{LotID: 2, Name: "Harbor", Available: 4, Occupied: 0, Revenue: 40.456},
	}, nil)
	store.On("MonthlyClosed", ctx, uint64(0), since).Return([]repository.MonthTotal{
		{Year: 2026, Month: time.March, Revenue: 50, Seconds: 7200},
		{Year: 2026, Month: time.May, Revenue: 70.456, Seconds: 14400},
	}, nil)
	store.On("MonthlyEntries", ctx, since).Return([]repository.MonthTotal{
		{Year: 2026, Month: time.May, Count: 3},
		{Year: 2025, Month: time.June, Count: 9},
	}, nil)

	out, err := newAnalytics(store, new(mockLister)).AdminSummary(ctx)
	require.NoError(t, err)

	assert.Equal(t, 120.46, out.TotalRevenue)
	assert.Equal(t, 25.0, out.AvgOccupancy)
	assert.Equal(t, int64(3), out.ActiveUsers)
	assert.Equal(t, 1.5, out.AvgDuration)
	require.Len(t, out.OccupancyByLot, 2)
	assert.Equal(t, 25.0, out.OccupancyByLot[0].OccupancyPercentage)
	assert.Equal(t, 40.46, out.RevenueByLot[1].Revenue)

	require.Len(t, out.MonthlyRevenue, 6)
	assert.Equal(t, "December 2025", out.MonthlyRevenue[0].Month)
	assert.Equal(t, "2026-05", out.MonthlyRevenue[5].Start)
	assert.Equal(t, 50.0, out.MonthlyRevenue[3].Revenue)
	assert.Equal(t, 2.0, out.MonthlyRevenue[3].Hours)
	assert.Equal(t, 70.46, out.MonthlyRevenue[5].Revenue)
	assert.Equal(t, int64(3), out.MonthlyRevenue[5].Reservations)
	assert.Zero(t, out.MonthlyRevenue[1].Revenue)
	store.AssertExpectations(t)
}

func TestAdminSummaryWithNoData(t *testing.T) {
	store := new(mockStore)
	ctx := context.Background()

	store.On("Counts", ctx).Return(repository.Counts{}, nil)
	store.On("ClosedStats", ctx, uint64(0)).Return(repository.ClosedStats{}, nil)
	store.On("LotStats", ctx).Return([]repository.LotStat{}, nil)
	store.On("MonthlyClosed", ctx, uint64(0), mock.Anything).Return([]repository.MonthTotal{}, nil)
	store.On("MonthlyEntries", ctx, mock.Anything).Return([]repository.MonthTotal{}, nil)

	out, err := newAnalytics(store, new(mockLister)).AdminSummary(ctx)
	require.NoError(t, err)
	assert.Zero(t, out.TotalRevenue)
	assert.Zero(t, out.AvgOccupancy)
	assert.Zero(t, out.AvgDuration)
	assert.Empty(t, out.RevenueByLot)
	assert.Len(t, out.MonthlyRevenue, 6)
}

func TestAdminSummaryPropagatesStoreError(t *testing.T) {
	store := new(mockStore)
	ctx := context.Background()
	store.On("Counts", ctx).Return(repository.Counts{}, errors.New("db down"))

	_, err := newAnalytics(store, new(mockLister)).AdminSummary(ctx)
	assert.EqualError(t, err, "db down")
}

func TestUserSummary(t *testing.T) {
	store := new(mockStore)
	lister := new(mockLister)
	ctx := context.Background()
	var zero time.Time

	store.On("ReservationCounts", ctx, uint64(7)).Return(int64(3), int64(1), nil)
	store.On("ClosedStats", ctx, uint64(7)).Return(repository.ClosedStats{Count: 2, Revenue: 30, TotalSeconds: 3 * 3600}, nil)
	store.On("LocationUsage", ctx, uint64(7), false, zero, zero).Return([]repository.LocationUsage{
		{LotID: 2, Name: "Harbor", Count: 2}, {LotID: 1, Name: "North Plaza", Count: 1},
	}, nil)
	store.On("LocationUsage", ctx, uint64(7), true, zero, zero).Return([]repository.LocationUsage{
		{LotID: 2, Name: "Harbor", Count: 2, Seconds: 3 * 3600, Spent: 30},
	}, nil)
	store.On("MonthlyClosed", ctx, uint64(7), mock.Anything).Return([]repository.MonthTotal{
		{Year: 2026, Month: time.May, Revenue: 30, Seconds: 3 * 3600},
	}, nil)
	lister.On("ListViews", ctx, repository.ViewFilter{UserID: 7, Limit: 5}, fixedNow).Return([]model.ReservationView{}, nil)

	out, err := newAnalytics(store, lister).UserSummary(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(3), out.TotalReservations)
	assert.Equal(t, int64(1), out.ActiveReservations)
	assert.Equal(t, int64(2), out.CompletedReservations)
	assert.Equal(t, 30.0, out.TotalSpending)
	assert.Equal(t, 3.0, out.TotalHours)
	assert.Equal(t, "Harbor", out.FavoriteLot)
	require.Len(t, out.LocationsUsed, 1)
	require.Len(t, out.MonthlyUsage, 6)
	assert.Equal(t, "May 2026", out.MonthlyUsage[5].Month)
	assert.Equal(t, 3.0, out.MonthlyUsage[5].Hours)
	store.AssertExpectations(t)
	lister.AssertExpectations(t)
}

func TestUserSummaryWithoutHistory(t *testing.T) {
	store := new(mockStore)
	lister := new(mockLister)
	ctx := context.Background()

	store.On("ReservationCounts", ctx, uint64(9)).Return(int64(0), int64(0), nil)
	store.On("ClosedStats", ctx, uint64(9)).Return(repository.ClosedStats{}, nil)
	store.On("LocationUsage", ctx, uint64(9), mock.Anything, mock.Anything, mock.Anything).Return([]repository.LocationUsage{}, nil)
	store.On("MonthlyClosed", ctx, uint64(9), mock.Anything).Return([]repository.MonthTotal{}, nil)
	lister.On("ListViews", ctx, mock.Anything, mock.Anything).Return([]model.ReservationView{}, nil)

	out, err := newAnalytics(store, lister).UserSummary(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, "N/A", out.FavoriteLot)
	assert.Zero(t, out.TotalSpending)
	assert.Empty(t, out.LocationsUsed)
}

func TestMonthlyReportCoversCalendarMonth(t *testing.T) {
	store := new(mockStore)
	ctx := context.Background()
	start := time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, time.May, 1, 0, 0, 0, 0, time.UTC)

	store.On("LocationUsage", ctx, uint64(7), false, start, end).Return([]repository.LocationUsage{
		{Name: "Harbor", Count: 3, Seconds: 5400, Spent: 25.5},
		{Name: "North Plaza", Count: 1, Seconds: 1800, Spent: 10},
	}, nil)

	r, err := newAnalytics(store, new(mockLister)).MonthlyReport(ctx, 7, time.Date(2026, time.April, 17, 8, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "April 2026", r.Month)
	assert.Equal(t, int64(4), r.TotalReservations)
	assert.Equal(t, 35.5, r.TotalAmount)
	assert.Equal(t, "Harbor", r.MostUsedLocation)
	assert.Equal(t, 2.0, r.TotalHours)
}

func TestTrailingMonthsCrossesYear(t *testing.T) {
	months := trailingMonths(time.Date(2026, time.February, 14, 0, 0, 0, 0, time.UTC), 3)
	require.Len(t, months, 3)
	assert.Equal(t, time.Date(2025, time.December, 1, 0, 0, 0, 0, time.UTC), months[0])
	assert.Equal(t, time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC), months[2])
}

func TestSearchValidation(t *testing.T) {
	svc := NewSearchService(nil, nil)
	ctx := context.Background()
	var verr *ValidationError

	_, err := svc.AdminSearch(ctx, "", "x")
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Search type and query required", verr.Msg)

	_, err = svc.AdminSearch(ctx, "vehicle", "x")
	assert.ErrorAs(t, err, &verr)

	_, err = svc.UserSearch(ctx, SearchLots, "  ")
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Search query required", verr.Msg)

	_, err = svc.UserSearch(ctx, "users", "x")
	assert.ErrorAs(t, err, &verr)
}
