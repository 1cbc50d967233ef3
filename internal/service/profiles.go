package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/banlingbo/comp9321/internal/genai"
	"github.com/banlingbo/comp9321/internal/transit"
)

const (
	// profileWindowMinutes is the departure window scanned for operators.
	profileWindowMinutes = 90

	// profileOperatorCap bounds the number of generative calls per request.
	profileOperatorCap = 5
)

// markupStripper removes the artifacts Gemini tends to emit before the
// text is exposed externally.
var markupStripper = strings.NewReplacer("\n", " ", "**", "", "*", "")

// OperatorProfile is a generated description of one transit operator.
type OperatorProfile struct {
	OperatorName string `json:"operator_name"`
	Information  string `json:"information"`
}

// ProfilesService generates prose profiles for the operators serving a stop.
type ProfilesService struct {
	transit   transit.Client
	generator genai.Generator
}

// NewProfilesService creates a ProfilesService.
func NewProfilesService(transitClient transit.Client, generator genai.Generator) *ProfilesService {
	return &ProfilesService{transit: transitClient, generator: generator}
}

// OperatorProfiles scans the stop's departures over the next 90 minutes,
// collects up to five distinct operator names, and issues one generative
// prompt per operator, strictly sequentially.
//
// Errors:
//   - transit.ErrUnavailable / *transit.StatusError pass through from the
//     departures call.
//   - ErrGenerationFailed (wrapped) when a generative call fails.
func (s *ProfilesService) OperatorProfiles(ctx context.Context, stopID int64) ([]OperatorProfile, error) {
	departures, err := s.transit.Departures(ctx, stopID, profileWindowMinutes)
	if err != nil {
		return nil, fmt.Errorf("service: OperatorProfiles: %w", err)
	}

	// Distinct non-empty operator names in first-seen order, capped.
	seen := map[string]bool{}
	operators := []string{}
	for _, d := range departures {
		if d.Operator == "" || seen[d.Operator] {
			continue
		}
		seen[d.Operator] = true
		operators = append(operators, d.Operator)
		if len(operators) == profileOperatorCap {
			break
		}
	}

	profiles := make([]OperatorProfile, 0, len(operators))
	for _, name := range operators {
		prompt := fmt.Sprintf("Tell me about the operator %s.", name)
		text, err := s.generator.Generate(ctx, prompt)
		if err != nil {
			return nil, fmt.Errorf("service: OperatorProfiles: operator %q: %w: %w", name, ErrGenerationFailed, err)
		}
		profiles = append(profiles, OperatorProfile{
			OperatorName: name,
			Information:  markupStripper.Replace(text),
		})
	}
	return profiles, nil
}
