package service

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/banlingbo/comp9321/internal/storage"
	"github.com/banlingbo/comp9321/internal/transit"
)

func guideStop(id int64, name string, lat float64) storage.Stop {
	return storage.Stop{ID: id, Name: name, Latitude: lat, Longitude: 13.4}
}

func journeyBetween(pairs ...[2]int64) func(fromID, toID int64) (*transit.Journey, error) {
	return func(fromID, toID int64) (*transit.Journey, error) {
		for _, p := range pairs {
			if p[0] == fromID && p[1] == toID {
				return &transit.Journey{Legs: []transit.Leg{{Origin: "A", Destination: "B", Mode: "train"}}}, nil
			}
		}
		return nil, nil
	}
}

func poisAt(lats ...float64) func(lat, lon float64) ([]transit.POI, error) {
	return func(lat, _ float64) ([]transit.POI, error) {
		for _, l := range lats {
			if l == lat {
				return []transit.POI{{Name: "Museum"}, {Name: "Park"}}, nil
			}
		}
		return nil, nil
	}
}

func TestGuide_NoQualifyingPairSkipsGeneration(t *testing.T) {
	repo := newMemRepo(guideStop(1, "A", 1.0), guideStop(2, "B", 2.0), guideStop(3, "C", 3.0))
	mt := &mockTransit{} // no journeys anywhere
	gen := &mockGenerator{text: "guide"}
	svc := NewGuideService(mt, repo, gen, t.TempDir())

	_, err := svc.Generate(context.Background())
	if !errors.Is(err, ErrNoQualifyingPair) {
		t.Fatalf("err = %v, want ErrNoQualifyingPair", err)
	}
	if len(gen.prompts) != 0 {
		t.Errorf("generator called %d times with no qualifying pair, want 0", len(gen.prompts))
	}
	// All unordered pairs probed: (1,2) (1,3) (2,3).
	if len(mt.journeyCalls) != 3 {
		t.Errorf("journey checks = %d, want 3", len(mt.journeyCalls))
	}
}

func TestGuide_PairOrderAndShortCircuit(t *testing.T) {
	repo := newMemRepo(guideStop(1, "Berlin", 1.0), guideStop(2, "Hamburg", 2.0), guideStop(3, "Leipzig", 3.0))
	mt := &mockTransit{
		journeyFn: journeyBetween([2]int64{1, 3}, [2]int64{2, 3}),
		poisFn:    poisAt(1.0, 2.0, 3.0),
	}
	gen := &mockGenerator{text: "A lovely trip."}
	svc := NewGuideService(mt, repo, gen, t.TempDir())

	doc, err := svc.Generate(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Ascending-id order: (1,2) fails, (1,3) qualifies; (2,3) never probed.
	wantCalls := [][2]int64{{1, 2}, {1, 3}}
	if len(mt.journeyCalls) != len(wantCalls) {
		t.Fatalf("journey checks = %v, want %v", mt.journeyCalls, wantCalls)
	}
	for i, w := range wantCalls {
		if mt.journeyCalls[i] != w {
			t.Errorf("journeyCalls[%d] = %v, want %v", i, mt.journeyCalls[i], w)
		}
	}

	if len(gen.prompts) != 1 {
		t.Fatalf("generator called %d times, want 1", len(gen.prompts))
	}
	prompt := gen.prompts[0]
	if !strings.Contains(prompt, "from Berlin to Leipzig") {
		t.Errorf("prompt names the wrong pair: %q", prompt)
	}
	if !strings.Contains(prompt, "Museum, Park") {
		t.Errorf("prompt missing POI names: %q", prompt)
	}

	content, err := os.ReadFile(doc.Path)
	if err != nil {
		t.Fatalf("read document: %v", err)
	}
	if string(content) != "A lovely trip." {
		t.Errorf("document content = %q", content)
	}
	if !strings.HasSuffix(doc.Filename, ".txt") {
		t.Errorf("filename = %q, want a .txt name", doc.Filename)
	}
}

func TestGuide_JourneyWithoutPOIsKeepsSearching(t *testing.T) {
	repo := newMemRepo(guideStop(1, "A", 1.0), guideStop(2, "B", 2.0), guideStop(3, "C", 3.0))
	mt := &mockTransit{
		journeyFn: journeyBetween([2]int64{1, 2}, [2]int64{2, 3}),
		poisFn:    poisAt(2.0, 3.0), // stop 1 has no POIs
	}
	gen := &mockGenerator{text: "guide"}
	svc := NewGuideService(mt, repo, gen, t.TempDir())

	_, err := svc.Generate(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// (1,2) has a journey but stop 1 lacks POIs; the search must continue
	// to (1,3) and then (2,3) instead of failing.
	wantCalls := [][2]int64{{1, 2}, {1, 3}, {2, 3}}
	if len(mt.journeyCalls) != len(wantCalls) {
		t.Fatalf("journey checks = %v, want %v", mt.journeyCalls, wantCalls)
	}
	if len(gen.prompts) != 1 {
		t.Errorf("generator called %d times, want 1", len(gen.prompts))
	}
	if !strings.Contains(gen.prompts[0], "from B to C") {
		t.Errorf("prompt = %q, want the (2,3) pair", gen.prompts[0])
	}
}

func TestGuide_GenerationFailureIsDistinctFromNotFound(t *testing.T) {
	repo := newMemRepo(guideStop(1, "A", 1.0), guideStop(2, "B", 2.0))
	mt := &mockTransit{
		journeyFn: journeyBetween([2]int64{1, 2}),
		poisFn:    poisAt(1.0, 2.0),
	}
	gen := &mockGenerator{err: errors.New("backend down")}
	svc := NewGuideService(mt, repo, gen, t.TempDir())

	_, err := svc.Generate(context.Background())
	if !errors.Is(err, ErrGenerationFailed) {
		t.Errorf("err = %v, want ErrGenerationFailed", err)
	}
	if errors.Is(err, ErrNoQualifyingPair) {
		t.Error("generation failure must not be reported as ErrNoQualifyingPair")
	}
}

func TestGuide_UpstreamFailurePassesThrough(t *testing.T) {
	repo := newMemRepo(guideStop(1, "A", 1.0), guideStop(2, "B", 2.0))
	mt := &mockTransit{
		journeyFn: func(_, _ int64) (*transit.Journey, error) {
			return nil, transit.ErrUnavailable
		},
	}
	svc := NewGuideService(mt, repo, &mockGenerator{}, t.TempDir())

	_, err := svc.Generate(context.Background())
	if !errors.Is(err, transit.ErrUnavailable) {
		t.Errorf("err = %v, want ErrUnavailable", err)
	}
}
