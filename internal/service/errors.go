package service

import "errors"

var (
	ErrLotNotFound         = errors.New("parking lot not found")
	ErrNoAvailableSpot     = errors.New("no available spots in this lot")
	ErrReservationNotFound = errors.New("active reservation not found")
	ErrCannotShrink        = errors.New("cannot remove occupied spots")
	ErrLotNotEmpty         = errors.New("cannot delete lot with occupied spots")
)

// ValidationError reports bad caller input.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func invalid(msg string) error { return &ValidationError{Msg: msg} }
