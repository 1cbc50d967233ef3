package service

// Test doubles shared by the service tests.

import (
	"context"
	"sort"

	"github.com/banlingbo/comp9321/internal/storage"
	"github.com/banlingbo/comp9321/internal/transit"
)

// mockTransit is a configurable transit.Client test double.
type mockTransit struct {
	searchResult []transit.Candidate
	searchErr    error

	departures      []transit.Departure
	departuresErr   error
	departureWindow int // records the window of the last call

	journeyFn    func(fromID, toID int64) (*transit.Journey, error)
	journeyCalls [][2]int64

	poisFn   func(lat, lon float64) ([]transit.POI, error)
	poiCalls int
}

func (m *mockTransit) SearchLocations(_ context.Context, _ string) ([]transit.Candidate, error) {
	return m.searchResult, m.searchErr
}

func (m *mockTransit) Departures(_ context.Context, _ int64, windowMinutes int) ([]transit.Departure, error) {
	m.departureWindow = windowMinutes
	return m.departures, m.departuresErr
}

func (m *mockTransit) FirstJourney(_ context.Context, fromID, toID int64) (*transit.Journey, error) {
	m.journeyCalls = append(m.journeyCalls, [2]int64{fromID, toID})
	if m.journeyFn == nil {
		return nil, nil
	}
	return m.journeyFn(fromID, toID)
}

func (m *mockTransit) NearbyPOIs(_ context.Context, lat, lon float64, _, _ int) ([]transit.POI, error) {
	m.poiCalls++
	if m.poisFn == nil {
		return nil, nil
	}
	return m.poisFn(lat, lon)
}

// mockGenerator is a genai.Generator test double recording its prompts.
type mockGenerator struct {
	text    string
	err     error
	prompts []string
}

func (m *mockGenerator) Generate(_ context.Context, prompt string) (string, error) {
	m.prompts = append(m.prompts, prompt)
	return m.text, m.err
}

// memRepo is an in-memory storage.StopsRepository.
type memRepo struct {
	stops map[int64]storage.Stop
}

func newMemRepo(stops ...storage.Stop) *memRepo {
	r := &memRepo{stops: make(map[int64]storage.Stop)}
	for _, s := range stops {
		r.stops[s.ID] = s
	}
	return r
}

func (r *memRepo) UpsertStops(_ context.Context, candidates []storage.Stop) ([]storage.Stop, bool, error) {
	createdNew := false
	for _, c := range candidates {
		if _, ok := r.stops[c.ID]; !ok {
			createdNew = true
		}
		c.LastUpdated = "2024-04-01-12:00:00"
		r.stops[c.ID] = c
	}
	all, _ := r.ListStops(context.Background())
	return all, createdNew, nil
}

func (r *memRepo) GetStop(_ context.Context, id int64) (*storage.Stop, error) {
	s, ok := r.stops[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (r *memRepo) ListStops(_ context.Context) ([]storage.Stop, error) {
	all := make([]storage.Stop, 0, len(r.stops))
	for _, s := range r.stops {
		all = append(all, s)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return all, nil
}

func (r *memRepo) Neighbors(_ context.Context, id int64) (prev, next *int64, err error) {
	all, _ := r.ListStops(context.Background())
	for i := range all {
		s := all[i]
		if s.ID < id {
			v := s.ID
			prev = &v
		}
		if s.ID > id && next == nil {
			v := s.ID
			next = &v
		}
	}
	return prev, next, nil
}

func (r *memRepo) UpdateStop(_ context.Context, id int64, upd storage.StopUpdate) (bool, string, error) {
	s, ok := r.stops[id]
	if !ok {
		return false, "", nil
	}
	if upd.Name != nil {
		s.Name = *upd.Name
	}
	if upd.Latitude != nil {
		s.Latitude = *upd.Latitude
	}
	if upd.Longitude != nil {
		s.Longitude = *upd.Longitude
	}
	s.LastUpdated = "2024-04-01-13:00:00"
	r.stops[id] = s
	return true, s.LastUpdated, nil
}

func (r *memRepo) DeleteStop(_ context.Context, id int64) (bool, error) {
	if _, ok := r.stops[id]; !ok {
		return false, nil
	}
	delete(r.stops, id)
	return true, nil
}
