package service

import (
	"context"
	"time"
)

// Change kinds published after a successful commit.
const (
	ChangeReservationCreated = "reservation.created"
	ChangeReservationClosed  = "reservation.closed"
	ChangeLotCreated         = "lot.created"
	ChangeLotUpdated         = "lot.updated"
	ChangeLotDeleted         = "lot.deleted"
)

// Change describes a committed mutation of lots, spots or reservations.
// Available and Occupied are the lot's counts right after the change.
type Change struct {
	Kind      string    `json:"kind"`
	LotID     uint64    `json:"lot_id"`
	UserID    uint64    `json:"user_id,omitempty"`
	Available int       `json:"available_spots"`
	Occupied  int       `json:"occupied_spots"`
	At        time.Time `json:"at"`
}

// ChangeHook is invoked synchronously after commit.  Hooks must not fail the
// operation that triggered them.
type ChangeHook func(ctx context.Context, ch Change)

type hooks []ChangeHook

func (hs hooks) fire(ctx context.Context, ch Change) {
	for _, h := range hs {
		h(ctx, ch)
	}
}
