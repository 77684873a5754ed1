package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Spot status codes stored in parking_spots.status.
const (
	SpotAvailable = "A"
	SpotOccupied  = "O"
)

// SpotLabelPrefix precedes the sequence number in generated labels (A1, A2...).
const SpotLabelPrefix = "A"

// Spot is a single space inside a lot.  Status is Occupied exactly when an
// active reservation references the spot.
type Spot struct {
	ID         uint64    `json:"id"`          // parking_spots.id
	LotID      uint64    `json:"lot_id"`      // parking_spots.lot_id
	SpotNumber string    `json:"spot_number"` // parking_spots.spot_number
	Status     string    `json:"status"`      // parking_spots.status
	CreatedAt  time.Time `json:"created_at"`  // parking_spots.created_at
}

func (s Spot) IsAvailable() bool { return s.Status == SpotAvailable }

// SpotLabel formats the n-th label of a lot.
func SpotLabel(n int) string { return fmt.Sprintf("%s%d", SpotLabelPrefix, n) }

// SpotLabelNumber parses the numeric suffix of a generated label.  Labels
// that do not follow the prefix+number shape report ok=false.
func SpotLabelNumber(label string) (n int, ok bool) {
	rest, found := strings.CutPrefix(label, SpotLabelPrefix)
	if !found {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// NextSpotLabels returns count labels numbered after the highest existing
// numeric suffix, so labels stay unique within the lot after shrinks.
func NextSpotLabels(existing []string, count int) []string {
	highest := 0
	for _, l := range existing {
		if n, ok := SpotLabelNumber(l); ok && n > highest {
			highest = n
		}
	}
	out := make([]string, 0, count)
	for i := 1; i <= count; i++ {
		out = append(out, SpotLabel(highest+i))
	}
	return out
}
