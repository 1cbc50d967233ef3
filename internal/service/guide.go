package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/banlingbo/comp9321/internal/genai"
	"github.com/banlingbo/comp9321/internal/storage"
	"github.com/banlingbo/comp9321/internal/transit"
)

const (
	// poiMaxResults bounds how many nearby locations are fetched per stop.
	poiMaxResults = 10

	// poiMaxDistanceM is the nearby-search radius in metres.
	poiMaxDistanceM = 1000
)

// GuideDocument is a generated guide persisted to disk, ready to be served
// as a download.
type GuideDocument struct {
	Path     string
	Filename string
}

// GuideService searches stored stop pairs for a connected pair with points
// of interest at both ends and turns the first such pair into a narrative
// guide.
type GuideService struct {
	transit   transit.Client
	repo      storage.StopsRepository
	generator genai.Generator
	dir       string
}

// NewGuideService creates a GuideService writing documents into dir; an
// empty dir selects the system temp directory.
func NewGuideService(transitClient transit.Client, repo storage.StopsRepository, generator genai.Generator, dir string) *GuideService {
	if dir == "" {
		dir = os.TempDir()
	}
	return &GuideService{
		transit:   transitClient,
		repo:      repo,
		generator: generator,
		dir:       dir,
	}
}

// Generate walks all unordered pairs of stored stops in ascending-id
// order, outer loop over the earlier stop. The first pair with an upstream
// journey AND at least one nearby point of interest at each end is turned
// into a guide via a single generative call; the search stops there. The
// pair checks are strictly sequential so the first-qualifying-pair
// semantics are deterministic.
//
// Errors:
//   - ErrNoQualifyingPair (wrapped) after exhausting all pairs. No
//     generative call is made in that case.
//   - ErrGenerationFailed (wrapped) when a pair qualifies but the
//     generative call fails.
//   - transit.ErrUnavailable / *transit.StatusError pass through from the
//     journey and POI lookups.
func (s *GuideService) Generate(ctx context.Context) (*GuideDocument, error) {
	stops, err := s.repo.ListStops(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: Generate: %w", err)
	}

	for i, from := range stops {
		for _, to := range stops[i+1:] {
			journey, err := s.transit.FirstJourney(ctx, from.ID, to.ID)
			if err != nil {
				return nil, fmt.Errorf("service: Generate: journey %d->%d: %w", from.ID, to.ID, err)
			}
			if journey == nil {
				continue
			}

			fromPOIs, err := s.nearbyPOINames(ctx, from)
			if err != nil {
				return nil, err
			}
			if len(fromPOIs) == 0 {
				continue
			}
			toPOIs, err := s.nearbyPOINames(ctx, to)
			if err != nil {
				return nil, err
			}
			if len(toPOIs) == 0 {
				continue
			}

			return s.writeGuide(ctx, from, to, fromPOIs, toPOIs)
		}
	}

	return nil, fmt.Errorf("service: Generate: %w", ErrNoQualifyingPair)
}

// nearbyPOINames returns the names of points of interest near the stop.
func (s *GuideService) nearbyPOINames(ctx context.Context, stop storage.Stop) ([]string, error) {
	pois, err := s.transit.NearbyPOIs(ctx, stop.Latitude, stop.Longitude, poiMaxResults, poiMaxDistanceM)
	if err != nil {
		return nil, fmt.Errorf("service: Generate: POIs near stop %d: %w", stop.ID, err)
	}
	names := make([]string, 0, len(pois))
	for _, p := range pois {
		names = append(names, p.Name)
	}
	return names, nil
}

// writeGuide runs the single generative call for the pair and persists the
// prose to a uniquely named file under the service's directory.
func (s *GuideService) writeGuide(ctx context.Context, from, to storage.Stop, fromPOIs, toPOIs []string) (*GuideDocument, error) {
	prompt := fmt.Sprintf(
		"Create a guide for a journey from %s to %s, including points of interest like %s and %s.",
		from.Name, to.Name, strings.Join(fromPOIs, ", "), strings.Join(toPOIs, ", "))

	text, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("service: Generate: guide %d->%d: %w: %w", from.ID, to.ID, ErrGenerationFailed, err)
	}

	filename := fmt.Sprintf("guide-%s.txt", uuid.NewString())
	path := filepath.Join(s.dir, filename)
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return nil, fmt.Errorf("service: Generate: write guide file: %w", err)
	}

	return &GuideDocument{Path: path, Filename: filename}, nil
}
