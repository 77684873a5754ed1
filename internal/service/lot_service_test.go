package service

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Swati9798/Vehicle-Parking/internal/repository"
)

var (
	qUpdateLot    = regexp.QuoteMeta("UPDATE parking_lots")
	qAvailableIDs = regexp.QuoteMeta("SELECT id FROM parking_spots")
	qDeleteSpots  = regexp.QuoteMeta("DELETE FROM parking_spots WHERE status = 'A' AND id IN (?,?,?)")
	qLabels       = regexp.QuoteMeta("SELECT spot_number FROM parking_spots WHERE lot_id = ?")
	qInsertSpots  = regexp.QuoteMeta("INSERT INTO parking_spots")
	qDeleteLot    = regexp.QuoteMeta("DELETE FROM parking_lots WHERE id = ?")
	qInsertLot    = regexp.QuoteMeta("INSERT INTO parking_lots")
	qLotByID      = regexp.QuoteMeta("FROM parking_lots WHERE id = ?")
)

func newLotService(t *testing.T, hooks ...ChangeHook) (*LotService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	svc := NewLotService(db, repository.NewLotRepo(db), repository.NewSpotRepo(db), hooks...)
	svc.now = func() time.Time { return fixedNow }
	return svc, mock
}

func TestCreateLotInsertsLabelledSpots(t *testing.T) {
	var got []Change
	svc, mock := newLotService(t, func(_ context.Context, ch Change) { got = append(got, ch) })

	mock.ExpectBegin()
	mock.ExpectExec(qInsertLot).WithArgs("North Plaza", "12 Ring Road", "560001", 12.5, 3).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(qLotByID).WithArgs(1).WillReturnRows(lotRow(1, "North Plaza", 12.5, 3))
	mock.ExpectExec(qInsertSpots).WithArgs(1, "A1", "A", 1, "A2", "A", 1, "A3", "A").
		WillReturnResult(sqlmock.NewResult(1, 3))
	mock.ExpectCommit()

	lot, err := svc.Create(context.Background(), LotInput{
		PrimeLocationName: " North Plaza ", Address: "12 Ring Road", PinCode: "560001",
		PricePerHour: 12.5, NumberOfSpots: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), lot.ID)
	assert.Equal(t, 3, lot.AvailableSpots)
	assert.Equal(t, 0, lot.OccupiedSpots)
	require.Len(t, got, 1)
	assert.Equal(t, ChangeLotCreated, got[0].Kind)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateLotValidation(t *testing.T) {
	svc, _ := newLotService(t)
	cases := map[string]LotInput{
		"missing name":   {Address: "a", PinCode: "1", NumberOfSpots: 1},
		"negative price": {PrimeLocationName: "n", Address: "a", PinCode: "1", PricePerHour: -1},
		"negative spots": {PrimeLocationName: "n", Address: "a", PinCode: "1", NumberOfSpots: -2},
		"too many spots": {PrimeLocationName: "n", Address: "a", PinCode: "1", NumberOfSpots: maxSpotsPerLot + 1},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), in)
			var verr *ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}
}

func TestShrinkRemovesHighestAvailableSpots(t *testing.T) {
	svc, mock := newLotService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(qLotForUpdate).WithArgs(1).WillReturnRows(lotRow(1, "North Plaza", 10, 5))
	mock.ExpectQuery(qCountStatus).WithArgs(1).WillReturnRows(countRow(3, 2))
	mock.ExpectQuery(qAvailableIDs).WithArgs(1, 3).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5).AddRow(4).AddRow(2))
	mock.ExpectExec(qDeleteSpots).WithArgs(5, 4, 2).WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(qUpdateLot).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(qCountStatus).WithArgs(1).WillReturnRows(countRow(0, 2))
	mock.ExpectCommit()

	lot, err := svc.Resize(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, lot.NumberOfSpots)
	assert.Equal(t, 0, lot.AvailableSpots)
	assert.Equal(t, 2, lot.OccupiedSpots)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestShrinkRefusesToDropOccupiedSpots(t *testing.T) {
	svc, mock := newLotService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(qLotForUpdate).WithArgs(1).WillReturnRows(lotRow(1, "North Plaza", 10, 5))
	mock.ExpectQuery(qCountStatus).WithArgs(1).WillReturnRows(countRow(2, 3))
	mock.ExpectRollback()

	_, err := svc.Resize(context.Background(), 1, 2)
	assert.ErrorIs(t, err, ErrCannotShrink)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGrowNumbersPastHighestLabel(t *testing.T) {
	svc, mock := newLotService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(qLotForUpdate).WithArgs(1).WillReturnRows(lotRow(1, "North Plaza", 10, 3))
	mock.ExpectQuery(qCountStatus).WithArgs(1).WillReturnRows(countRow(2, 1))
	mock.ExpectQuery(qLabels).WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"spot_number"}).AddRow("A1").AddRow("A2").AddRow("A7"))
	mock.ExpectExec(qInsertSpots).WithArgs(1, "A8", "A", 1, "A9", "A").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(qUpdateLot).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(qCountStatus).WithArgs(1).WillReturnRows(countRow(4, 1))
	mock.ExpectCommit()

	lot, err := svc.Resize(context.Background(), 1, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, lot.NumberOfSpots)
	assert.Equal(t, 4, lot.AvailableSpots)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteLotWithOccupiedSpotsIsRefused(t *testing.T) {
	svc, mock := newLotService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(qLotForUpdate).WithArgs(1).WillReturnRows(lotRow(1, "North Plaza", 10, 5))
	mock.ExpectQuery(qCountStatus).WithArgs(1).WillReturnRows(countRow(4, 1))
	mock.ExpectRollback()

	err := svc.Delete(context.Background(), 1)
	assert.ErrorIs(t, err, ErrLotNotEmpty)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteEmptyLot(t *testing.T) {
	var got []Change
	svc, mock := newLotService(t, func(_ context.Context, ch Change) { got = append(got, ch) })

	mock.ExpectBegin()
	mock.ExpectQuery(qLotForUpdate).WithArgs(1).WillReturnRows(lotRow(1, "North Plaza", 10, 5))
	mock.ExpectQuery(qCountStatus).WithArgs(1).WillReturnRows(countRow(5, 0))
	mock.ExpectExec(qDeleteLot).WithArgs(1).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, svc.Delete(context.Background(), 1))
	require.Len(t, got, 1)
	assert.Equal(t, ChangeLotDeleted, got[0].Kind)
	assert.NoError(t, mock.ExpectationsWereMet())
}
