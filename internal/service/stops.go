package service

import (
	"context"
	"fmt"
	"time"

	"github.com/banlingbo/comp9321/internal/storage"
	"github.com/banlingbo/comp9321/internal/transit"
)

const (
	// registerCandidateCap is the maximum number of search candidates
	// upserted per register call.
	registerCandidateCap = 5

	// nextDepartureWindowMinutes is the look-ahead window for the
	// next-departure projection.
	nextDepartureWindowMinutes = 120
)

// StopsService orchestrates stop registration and per-stop enrichment
// between the upstream transit API and the local store.
type StopsService struct {
	transit transit.Client
	repo    storage.StopsRepository
	// now is the clock for the departure window; replaced in tests.
	now func() time.Time
}

// NewStopsService creates a StopsService.
func NewStopsService(transitClient transit.Client, repo storage.StopsRepository) *StopsService {
	return &StopsService{
		transit: transitClient,
		repo:    repo,
		now:     time.Now,
	}
}

// RegisterByQuery resolves the free-text query upstream, upserts at most
// five stop-kind candidates with resolvable coordinates, and returns the
// full stored table plus whether any row was newly created.
//
// Errors:
//   - transit.ErrUnavailable / *transit.StatusError pass through from the
//     upstream call.
//   - ErrNoStopsFound (wrapped) when the search yields zero candidates.
func (s *StopsService) RegisterByQuery(ctx context.Context, query string) ([]storage.Stop, bool, error) {
	candidates, err := s.transit.SearchLocations(ctx, query)
	if err != nil {
		return nil, false, fmt.Errorf("service: RegisterByQuery: %w", err)
	}
	if len(candidates) == 0 {
		return nil, false, fmt.Errorf("service: RegisterByQuery: %w", ErrNoStopsFound)
	}

	// Only the first five results are considered, stop-kind or not,
	// matching the upstream result ranking.
	if len(candidates) > registerCandidateCap {
		candidates = candidates[:registerCandidateCap]
	}

	stops := make([]storage.Stop, 0, len(candidates))
	for _, c := range candidates {
		if !c.IsStop {
			continue
		}
		stops = append(stops, storage.Stop{
			ID:        c.ID,
			Name:      c.Name,
			Latitude:  c.Latitude,
			Longitude: c.Longitude,
		})
	}

	all, createdNew, err := s.repo.UpsertStops(ctx, stops)
	if err != nil {
		return nil, false, fmt.Errorf("service: RegisterByQuery: %w", err)
	}
	return all, createdNew, nil
}

// NextDeparture returns the next-departure projection for the stop: the
// first upstream departure that has a platform assigned and departs within
// the next 120 minutes, rendered as "Platform {platform} towards
// {direction}". The second return value is false when no departure
// qualifies, which is not an error.
func (s *StopsService) NextDeparture(ctx context.Context, stopID int64) (string, bool, error) {
	departures, err := s.transit.Departures(ctx, stopID, nextDepartureWindowMinutes)
	if err != nil {
		return "", false, fmt.Errorf("service: NextDeparture: %w", err)
	}

	now := s.now()
	cutoff := now.Add(nextDepartureWindowMinutes * time.Minute)
	for _, d := range departures {
		if d.Platform == "" || d.When.IsZero() {
			continue
		}
		if d.When.Before(now) || d.When.After(cutoff) {
			continue
		}
		return fmt.Sprintf("Platform %s towards %s", d.Platform, d.Direction), true, nil
	}
	return "", false, nil
}
