package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"gopkg.in/guregu/null.v4"

	"github.com/Swati9798/Vehicle-Parking/internal/database"
	"github.com/Swati9798/Vehicle-Parking/internal/model"
	"github.com/Swati9798/Vehicle-Parking/internal/repository"
)

// allocateAttempts bounds retries when a spot is taken between selection and
// the status compare-and-swap.
const allocateAttempts = 3

var errSpotTaken = errors.New("spot taken concurrently")

// ReservationService assigns spots and closes parking sessions.  Allocate and
// Release each run in one transaction that locks the lot row and flips the
// spot status with a guarded update, so a spot can never hold two open
// reservations.
type ReservationService struct {
	db           *sql.DB
	lots         *repository.LotRepo
	spots        *repository.SpotRepo
	reservations *repository.ReservationRepo
	hooks        hooks
	now          func() time.Time
}

func NewReservationService(db *sql.DB, lots *repository.LotRepo, spots *repository.SpotRepo, reservations *repository.ReservationRepo, onChange ...ChangeHook) *ReservationService {
	return &ReservationService{
		db:           db,
		lots:         lots,
		spots:        spots,
		reservations: reservations,
		hooks:        onChange,
		now:          func() time.Time { return time.Now().UTC().Truncate(time.Second) },
	}
}

// AllocateInput carries the booking request.
type AllocateInput struct {
	LotID         uint64
	UserID        uint64
	VehicleNumber string
	Remarks       string
}

// Allocate books the lowest-id Available spot of the lot for the account.
func (s *ReservationService) Allocate(ctx context.Context, in AllocateInput) (*model.ReservationView, error) {
	if in.LotID == 0 {
		return nil, invalid("Parking lot ID is required")
	}
	vehicle := strings.ToUpper(strings.TrimSpace(in.VehicleNumber))
	if len(vehicle) > 20 {
		return nil, invalid("vehicle_number must be at most 20 characters")
	}
	remarks := strings.TrimSpace(in.Remarks)
	if len(remarks) > 500 {
		return nil, invalid("remarks must be at most 500 characters")
	}

	var (
		view                model.ReservationView
		available, occupied int
		err                 error
	)
	for attempt := 0; attempt < allocateAttempts; attempt++ {
		err = database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
			lot, err := s.lots.GetForUpdateTx(ctx, tx, in.LotID)
			if errors.Is(err, repository.ErrNotFound) {
				return ErrLotNotFound
			}
			if err != nil {
				return fmt.Errorf("lock lot: %w", err)
			}
			spot, err := s.spots.FirstAvailableTx(ctx, tx, lot.ID)
			if errors.Is(err, repository.ErrNotFound) {
				return ErrNoAvailableSpot
			}
			if err != nil {
				return fmt.Errorf("select spot: %w", err)
			}
			ok, err := s.spots.TransitionTx(ctx, tx, spot.ID, model.SpotAvailable, model.SpotOccupied)
			if err != nil {
				return fmt.Errorf("occupy spot: %w", err)
			}
			if !ok {
				return errSpotTaken
			}
			now := s.now()
			rv := model.Reservation{
				SpotID:           null.IntFrom(int64(spot.ID)),
				LotID:            null.IntFrom(int64(lot.ID)),
				UserID:           in.UserID,
				ParkingTimestamp: now,
				VehicleNumber:    null.NewString(vehicle, vehicle != ""),
				Remarks:          null.NewString(remarks, remarks != ""),
			}
			if err := s.reservations.CreateTx(ctx, tx, &rv); err != nil {
				return fmt.Errorf("create reservation: %w", err)
			}
			available, occupied, err = s.spots.CountByStatusTx(ctx, tx, lot.ID)
			if err != nil {
				return fmt.Errorf("count spots: %w", err)
			}
			view = model.NewReservationView(rv, lot.PrimeLocationName, lot.Address, spot.SpotNumber, lot.PricePerHour, now)
			return nil
		})
		if !errors.Is(err, errSpotTaken) {
			break
		}
	}
	if errors.Is(err, errSpotTaken) {
		return nil, ErrNoAvailableSpot
	}
	if err != nil {
		return nil, err
	}
	s.hooks.fire(ctx, Change{
		Kind: ChangeReservationCreated, LotID: in.LotID, UserID: in.UserID,
		Available: available, Occupied: occupied, At: view.ParkingTimestamp,
	})
	return &view, nil
}

// Release closes an open reservation owned by userID, bills it and frees the
// spot.  Unknown, foreign and already closed reservations all report
// ErrReservationNotFound.
func (s *ReservationService) Release(ctx context.Context, reservationID, userID uint64) (*model.ReservationView, error) {
	var (
		view                model.ReservationView
		lotID               uint64
		available, occupied int
	)
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		rv, err := s.reservations.GetActiveForUserForUpdateTx(ctx, tx, reservationID, userID)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrReservationNotFound
		}
		if err != nil {
			return fmt.Errorf("load reservation: %w", err)
		}

		var lot model.Lot
		if rv.LotID.Valid {
			l, err := s.lots.GetForUpdateTx(ctx, tx, uint64(rv.LotID.Int64))
			if err != nil && !errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("lock lot: %w", err)
			}
			if l != nil {
				lot = *l
			}
		}

		now := s.now()
		cost := model.Cost(now.Sub(rv.ParkingTimestamp), lot.PricePerHour)
		ok, err := s.reservations.CloseTx(ctx, tx, rv.ID, now, cost)
		if err != nil {
			return fmt.Errorf("close reservation: %w", err)
		}
		if !ok {
			return ErrReservationNotFound
		}
		rv.LeavingTimestamp = null.TimeFrom(now)
		rv.ParkingCost = cost

		var spotNumber string
		if rv.SpotID.Valid {
			spot, err := s.spots.GetTx(ctx, tx, uint64(rv.SpotID.Int64))
			if err != nil && !errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("load spot: %w", err)
			}
			if spot != nil {
				spotNumber = spot.SpotNumber
				freed, err := s.spots.TransitionTx(ctx, tx, spot.ID, model.SpotOccupied, model.SpotAvailable)
				if err != nil {
					return fmt.Errorf("free spot: %w", err)
				}
				if !freed {
					return fmt.Errorf("spot %d of reservation %d is not occupied", spot.ID, rv.ID)
				}
			}
		}
		if lot.ID != 0 {
			lotID = lot.ID
			available, occupied, err = s.spots.CountByStatusTx(ctx, tx, lot.ID)
			if err != nil {
				return fmt.Errorf("count spots: %w", err)
			}
		}
		view = model.NewReservationView(*rv, lot.PrimeLocationName, lot.Address, spotNumber, lot.PricePerHour, now)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.hooks.fire(ctx, Change{
		Kind: ChangeReservationClosed, LotID: lotID, UserID: userID,
		Available: available, Occupied: occupied, At: view.LeavingTimestamp.Time,
	})
	return &view, nil
}

// ListForUser returns the account's reservations, newest first.
func (s *ReservationService) ListForUser(ctx context.Context, userID uint64) ([]model.ReservationView, error) {
	return s.reservations.ListViews(ctx, repository.ViewFilter{UserID: userID}, s.now())
}

// ListAll returns every reservation, newest first, for administrators.
func (s *ReservationService) ListAll(ctx context.Context, limit, offset int) ([]model.ReservationView, error) {
	return s.reservations.ListViews(ctx, repository.ViewFilter{Limit: limit, Offset: offset}, s.now())
}

// Duration reports how long a reservation has lasted, measured against the
// current time while it is still open.
func (s *ReservationService) Duration(rv model.Reservation) time.Duration {
	return rv.Duration(s.now())
}
