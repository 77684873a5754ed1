package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Swati9798/Vehicle-Parking/internal/database"
	"github.com/Swati9798/Vehicle-Parking/internal/model"
	"github.com/Swati9798/Vehicle-Parking/internal/repository"
)

// maxSpotsPerLot caps a single lot so one request cannot insert an
// unbounded number of rows.
const maxSpotsPerLot = 10000

// LotService manages lots and keeps each lot's spot rows in step with its
// declared capacity.
type LotService struct {
	db    *sql.DB
	lots  *repository.LotRepo
	spots *repository.SpotRepo
	hooks hooks
	now   func() time.Time
}

func NewLotService(db *sql.DB, lots *repository.LotRepo, spots *repository.SpotRepo, onChange ...ChangeHook) *LotService {
	return &LotService{db: db, lots: lots, spots: spots, hooks: onChange, now: time.Now}
}

// LotInput is the full set of fields needed to create a lot.
type LotInput struct {
	PrimeLocationName string
	Address           string
	PinCode           string
	PricePerHour      float64
	NumberOfSpots     int
}

func (in LotInput) validate() error {
	switch {
	case strings.TrimSpace(in.PrimeLocationName) == "":
		return invalid("prime_location_name is required")
	case strings.TrimSpace(in.Address) == "":
		return invalid("address is required")
	case strings.TrimSpace(in.PinCode) == "":
		return invalid("pin_code is required")
	}
	if err := validatePrice(in.PricePerHour); err != nil {
		return err
	}
	return validateSpotCount(in.NumberOfSpots)
}

func validatePrice(p float64) error {
	if p < 0 {
		return invalid("price_per_hour must not be negative")
	}
	return nil
}

func validateSpotCount(n int) error {
	if n < 0 || n > maxSpotsPerLot {
		return invalid(fmt.Sprintf("number_of_spots must be between 0 and %d", maxSpotsPerLot))
	}
	return nil
}

// LotPatch carries a partial update; nil fields are left unchanged.
type LotPatch struct {
	PrimeLocationName *string
	Address           *string
	PinCode           *string
	PricePerHour      *float64
	NumberOfSpots     *int
}

// Create inserts the lot and its spots labelled A1..An.
func (s *LotService) Create(ctx context.Context, in LotInput) (*model.LotAvailability, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	lot := model.Lot{
		PrimeLocationName: strings.TrimSpace(in.PrimeLocationName),
		Address:           strings.TrimSpace(in.Address),
		PinCode:           strings.TrimSpace(in.PinCode),
		PricePerHour:      model.Round2(in.PricePerHour),
		NumberOfSpots:     in.NumberOfSpots,
	}
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.lots.CreateTx(ctx, tx, &lot); err != nil {
			return fmt.Errorf("insert lot: %w", err)
		}
		return s.spots.CreateBatchTx(ctx, tx, lot.ID, model.NextSpotLabels(nil, lot.NumberOfSpots))
	})
	if err != nil {
		return nil, err
	}
	out := model.NewLotAvailability(lot, lot.NumberOfSpots, 0)
	s.hooks.fire(ctx, Change{Kind: ChangeLotCreated, LotID: lot.ID, Available: lot.NumberOfSpots, At: s.now()})
	return &out, nil
}

// Update applies the patch.  A changed NumberOfSpots resizes the lot in the
// same transaction.
func (s *LotService) Update(ctx context.Context, id uint64, p LotPatch) (*model.LotAvailability, error) {
	if p.PricePerHour != nil {
		if err := validatePrice(*p.PricePerHour); err != nil {
			return nil, err
		}
	}
	if p.NumberOfSpots != nil {
		if err := validateSpotCount(*p.NumberOfSpots); err != nil {
			return nil, err
		}
	}
	for name, v := range map[string]*string{
		"prime_location_name": p.PrimeLocationName, "address": p.Address, "pin_code": p.PinCode,
	} {
		if v != nil && strings.TrimSpace(*v) == "" {
			return nil, invalid(name + " must not be empty")
		}
	}

	var (
		out                 model.LotAvailability
		available, occupied int
	)
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		lot, err := s.lots.GetForUpdateTx(ctx, tx, id)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrLotNotFound
		}
		if err != nil {
			return fmt.Errorf("lock lot: %w", err)
		}
		if p.PrimeLocationName != nil {
			lot.PrimeLocationName = strings.TrimSpace(*p.PrimeLocationName)
		}
		if p.Address != nil {
			lot.Address = strings.TrimSpace(*p.Address)
		}
		if p.PinCode != nil {
			lot.PinCode = strings.TrimSpace(*p.PinCode)
		}
		if p.PricePerHour != nil {
			lot.PricePerHour = model.Round2(*p.PricePerHour)
		}
		if p.NumberOfSpots != nil {
			if err := s.resizeTx(ctx, tx, lot, *p.NumberOfSpots); err != nil {
				return err
			}
		}
		if err := s.lots.UpdateTx(ctx, tx, lot); err != nil {
			return fmt.Errorf("update lot: %w", err)
		}
		available, occupied, err = s.spots.CountByStatusTx(ctx, tx, lot.ID)
		if err != nil {
			return fmt.Errorf("count spots: %w", err)
		}
		out = model.NewLotAvailability(*lot, available, occupied)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.hooks.fire(ctx, Change{Kind: ChangeLotUpdated, LotID: id, Available: available, Occupied: occupied, At: s.now()})
	return &out, nil
}

// Resize changes the lot's capacity.  Growing appends spots numbered after
// the highest existing label; shrinking removes Available spots by
// descending id and fails with ErrCannotShrink rather than touch an
// Occupied one.
func (s *LotService) Resize(ctx context.Context, id uint64, newCount int) (*model.LotAvailability, error) {
	return s.Update(ctx, id, LotPatch{NumberOfSpots: &newCount})
}

func (s *LotService) resizeTx(ctx context.Context, tx *sql.Tx, lot *model.Lot, newCount int) error {
	available, occupied, err := s.spots.CountByStatusTx(ctx, tx, lot.ID)
	if err != nil {
		return fmt.Errorf("count spots: %w", err)
	}
	current := available + occupied
	switch {
	case newCount > current:
		labels, err := s.spots.LabelsTx(ctx, tx, lot.ID)
		if err != nil {
			return fmt.Errorf("load labels: %w", err)
		}
		if err := s.spots.CreateBatchTx(ctx, tx, lot.ID, model.NextSpotLabels(labels, newCount-current)); err != nil {
			return fmt.Errorf("add spots: %w", err)
		}
	case newCount < current:
		remove := current - newCount
		if remove > available {
			return ErrCannotShrink
		}
		ids, err := s.spots.AvailableIDsDescTx(ctx, tx, lot.ID, remove)
		if err != nil {
			return fmt.Errorf("select spots: %w", err)
		}
		if len(ids) < remove {
			return ErrCannotShrink
		}
		n, err := s.spots.DeleteAvailableTx(ctx, tx, ids)
		if err != nil {
			return fmt.Errorf("remove spots: %w", err)
		}
		if int(n) != remove {
			return ErrCannotShrink
		}
	}
	lot.NumberOfSpots = newCount
	return nil
}

// Delete removes a lot and its spots.  Lots with any Occupied spot are
// refused with ErrLotNotEmpty.  Past reservations are kept.
func (s *LotService) Delete(ctx context.Context, id uint64) error {
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := s.lots.GetForUpdateTx(ctx, tx, id); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrLotNotFound
			}
			return fmt.Errorf("lock lot: %w", err)
		}
		_, occupied, err := s.spots.CountByStatusTx(ctx, tx, id)
		if err != nil {
			return fmt.Errorf("count spots: %w", err)
		}
		if occupied > 0 {
			return ErrLotNotEmpty
		}
		return s.lots.DeleteTx(ctx, tx, id)
	})
	if err != nil {
		return err
	}
	s.hooks.fire(ctx, Change{Kind: ChangeLotDeleted, LotID: id, At: s.now()})
	return nil
}

// LotDetail is a lot with its spots and their current occupants.
type LotDetail struct {
	model.LotAvailability
	Spots []repository.SpotDetail `json:"spots"`
}

// Get returns the lot with live availability and spot details.
func (s *LotService) Get(ctx context.Context, id uint64) (*LotDetail, error) {
	lot, err := s.lots.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrLotNotFound
	}
	if err != nil {
		return nil, err
	}
	spots, err := s.spots.ListDetailsByLot(ctx, id)
	if err != nil {
		return nil, err
	}
	available := 0
	for _, sp := range spots {
		if sp.IsAvailable() {
			available++
		}
	}
	return &LotDetail{
		LotAvailability: model.NewLotAvailability(*lot, available, len(spots)-available),
		Spots:           spots,
	}, nil
}

// List returns one page of lots with availability.
func (s *LotService) List(ctx context.Context, f repository.LotFilter) ([]model.LotAvailability, int64, error) {
	return s.lots.ListWithAvailability(ctx, f)
}
