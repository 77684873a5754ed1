package service

import (
	"context"
	"strconv"
	"strings"

	"github.com/Swati9798/Vehicle-Parking/internal/repository"
)

// Search types accepted by the admin and user search endpoints.
const (
	SearchUserID       = "user_id"
	SearchUsername     = "username"
	SearchLotLocation  = "lot_location"
	SearchSpotLocation = "spot_location"
	SearchLots         = "lots"
	SearchSpots        = "spots"
)

// searchLotLimit caps lot matches returned in one response.
const searchLotLimit = 100

// SearchService runs case-insensitive substring searches.
type SearchService struct {
	search *repository.SearchRepo
	lots   *repository.LotRepo
}

func NewSearchService(search *repository.SearchRepo, lots *repository.LotRepo) *SearchService {
	return &SearchService{search: search, lots: lots}
}

// AdminSearch accepts user_id, username, lot_location and spot_location.
func (s *SearchService) AdminSearch(ctx context.Context, typ, query string) (any, error) {
	query = strings.TrimSpace(query)
	if typ == "" || query == "" {
		return nil, invalid("Search type and query required")
	}
	switch typ {
	case SearchUserID:
		id, err := strconv.ParseUint(query, 10, 64)
		if err != nil {
			return []repository.UserHit{}, nil
		}
		return s.search.UserByID(ctx, id)
	case SearchUsername:
		return s.search.UsersByUsername(ctx, query)
	case SearchLotLocation:
		return s.searchLots(ctx, query, false)
	case SearchSpotLocation:
		return s.search.Spots(ctx, query, false)
	}
	return nil, invalid("Search type must be one of user_id, username, lot_location, spot_location")
}

// UserSearch accepts lots (default) and spots.
func (s *SearchService) UserSearch(ctx context.Context, typ, query string) (any, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, invalid("Search query required")
	}
	switch strings.ToLower(strings.TrimSpace(typ)) {
	case "", SearchLots:
		return s.searchLots(ctx, query, true)
	case SearchSpots:
		return s.search.Spots(ctx, query, true)
	}
	return nil, invalid(`Search type must be "lots" or "spots"`)
}

// searchLots matches lot name, address and postal code.  Regular accounts
// only see active lots, as in the lot listing.
func (s *SearchService) searchLots(ctx context.Context, query string, activeOnly bool) (any, error) {
	lots, _, err := s.lots.ListWithAvailability(ctx, repository.LotFilter{
		Query: query, ActiveOnly: activeOnly, Page: 1, PageSize: searchLotLimit,
	})
	return lots, err
}
