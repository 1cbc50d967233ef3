// Package transit provides a thin client over the v6.db.transport.rest
// journey-planning API.
package transit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	// defaultBaseURL is the public Deutsche Bahn REST endpoint.
	defaultBaseURL = "https://v6.db.transport.rest"

	// requestTimeout is the maximum duration for one upstream call.
	requestTimeout = 10 * time.Second

	// httpMaxIdleConns is the keep-alive pool size for the shared transport.
	httpMaxIdleConns = 10

	// httpIdleConnTimeout is how long an idle connection stays pooled.
	httpIdleConnTimeout = 30 * time.Second
)

// ErrUnavailable marks a connection-level failure reaching the upstream
// API. Callers should use errors.Is to distinguish it from HTTP rejections.
var ErrUnavailable = errors.New("transit API unreachable")

// StatusError is returned when the upstream responds with a non-2xx status.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("transit API returned status %d", e.StatusCode)
}

// Candidate is one result of a location search. Only entries of the stop
// kind carry a usable id and coordinates.
type Candidate struct {
	ID        int64
	Name      string
	Latitude  float64
	Longitude float64
	IsStop    bool
}

// Departure is one scheduled departure from a stop.
type Departure struct {
	Line      string
	Operator  string
	Platform  string
	Direction string
	When      time.Time
}

// Leg is one segment of a journey.
type Leg struct {
	Origin      string
	Destination string
	Mode        string
}

// Journey is an ordered sequence of legs between two stops.
type Journey struct {
	Legs []Leg
}

// POI is a nearby point of interest.
type POI struct {
	Name string
}

// Client defines the upstream transit operations the service consumes.
type Client interface {
	// SearchLocations resolves a free-text query to location candidates.
	SearchLocations(ctx context.Context, query string) ([]Candidate, error)

	// Departures returns departures from the stop within the next
	// windowMinutes minutes.
	Departures(ctx context.Context, stopID int64, windowMinutes int) ([]Departure, error)

	// FirstJourney returns the first journey between the two stops, or
	// (nil, nil) when the planner finds none.
	FirstJourney(ctx context.Context, fromID, toID int64) (*Journey, error)

	// NearbyPOIs returns up to maxResults points of interest within
	// maxDistanceM metres of the coordinates. Plain transit stops are
	// filtered out.
	NearbyPOIs(ctx context.Context, lat, lon float64, maxResults, maxDistanceM int) ([]POI, error)
}

// RESTClient implements Client against the transport.rest HTTP API.
type RESTClient struct {
	httpClient *http.Client
	// baseURL is the API root. Overrideable in tests.
	baseURL string
}

// NewRESTClient creates a Client for the given API root; an empty baseURL
// selects the public endpoint.
func NewRESTClient(baseURL string) *RESTClient {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	transport := &http.Transport{
		MaxIdleConns:        httpMaxIdleConns,
		MaxIdleConnsPerHost: httpMaxIdleConns,
		IdleConnTimeout:     httpIdleConnTimeout,
	}
	return &RESTClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout:   requestTimeout,
			Transport: transport,
		},
	}
}

// SearchLocations resolves a free-text query via GET /locations.
func (c *RESTClient) SearchLocations(ctx context.Context, query string) ([]Candidate, error) {
	q := url.Values{}
	q.Set("query", query)

	var locs []locationJSON
	if err := c.getJSON(ctx, "/locations", q, &locs); err != nil {
		return nil, err
	}

	candidates := make([]Candidate, 0, len(locs))
	for _, loc := range locs {
		cand := Candidate{Name: loc.Name}
		// Stop ids arrive as strings; anything non-numeric or without
		// coordinates cannot be stored and is demoted to a non-stop kind.
		if loc.Type == "stop" && loc.Location != nil {
			id, err := strconv.ParseInt(loc.ID, 10, 64)
			if err == nil {
				cand.ID = id
				cand.Latitude = loc.Location.Latitude
				cand.Longitude = loc.Location.Longitude
				cand.IsStop = true
			}
		}
		candidates = append(candidates, cand)
	}
	return candidates, nil
}

// Departures fetches GET /stops/{id}/departures for the given window.
func (c *RESTClient) Departures(ctx context.Context, stopID int64, windowMinutes int) ([]Departure, error) {
	q := url.Values{}
	q.Set("duration", strconv.Itoa(windowMinutes))

	var resp departuresJSON
	path := fmt.Sprintf("/stops/%d/departures", stopID)
	if err := c.getJSON(ctx, path, q, &resp); err != nil {
		return nil, err
	}

	departures := make([]Departure, 0, len(resp.Departures))
	for _, d := range resp.Departures {
		dep := Departure{
			Line:      d.Line.Name,
			Operator:  d.Line.Operator.Name,
			Platform:  d.Platform,
			Direction: d.Direction,
		}
		if d.PlannedWhen != "" {
			when, err := time.Parse(time.RFC3339, d.PlannedWhen)
			if err != nil {
				continue
			}
			dep.When = when
		}
		departures = append(departures, dep)
	}
	return departures, nil
}

// FirstJourney fetches GET /journeys and keeps only the first result.
func (c *RESTClient) FirstJourney(ctx context.Context, fromID, toID int64) (*Journey, error) {
	q := url.Values{}
	q.Set("from", strconv.FormatInt(fromID, 10))
	q.Set("to", strconv.FormatInt(toID, 10))

	var resp journeysJSON
	if err := c.getJSON(ctx, "/journeys", q, &resp); err != nil {
		return nil, err
	}
	if len(resp.Journeys) == 0 {
		return nil, nil
	}

	first := resp.Journeys[0]
	journey := &Journey{Legs: make([]Leg, 0, len(first.Legs))}
	for _, l := range first.Legs {
		journey.Legs = append(journey.Legs, Leg{
			Origin:      l.Origin.Name,
			Destination: l.Destination.Name,
			Mode:        l.Mode,
		})
	}
	return journey, nil
}

// NearbyPOIs fetches GET /locations/nearby and keeps only entries flagged
// as points of interest.
func (c *RESTClient) NearbyPOIs(ctx context.Context, lat, lon float64, maxResults, maxDistanceM int) ([]POI, error) {
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("results", strconv.Itoa(maxResults))
	q.Set("distance", strconv.Itoa(maxDistanceM))
	q.Set("stops", "true")
	q.Set("poi", "true")

	var locs []locationJSON
	if err := c.getJSON(ctx, "/locations/nearby", q, &locs); err != nil {
		return nil, err
	}

	pois := []POI{}
	for _, loc := range locs {
		if loc.POI {
			pois = append(pois, POI{Name: loc.Name})
		}
	}
	return pois, nil
}

// getJSON performs a GET against path with the given query parameters and
// decodes the response body into out. Connection failures are wrapped in
// ErrUnavailable; non-2xx statuses become *StatusError.
func (c *RESTClient) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("transit: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("transit: %s: %w: %w", path, ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("transit: %s: read response: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("transit: %s: %w", path, &StatusError{StatusCode: resp.StatusCode})
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("transit: %s: unmarshal response: %w", path, err)
	}
	return nil
}

// --- JSON types for the transport.rest API ---

type locationJSON struct {
	Type     string        `json:"type"`
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Location *locationGeom `json:"location"`
	POI      bool          `json:"poi"`
}

type locationGeom struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type departuresJSON struct {
	Departures []departureJSON `json:"departures"`
}

type departureJSON struct {
	PlannedWhen string   `json:"plannedWhen"`
	Platform    string   `json:"platform"`
	Direction   string   `json:"direction"`
	Line        lineJSON `json:"line"`
}

type lineJSON struct {
	Name     string       `json:"name"`
	Operator operatorJSON `json:"operator"`
}

type operatorJSON struct {
	Name string `json:"name"`
}

type journeysJSON struct {
	Journeys []journeyJSON `json:"journeys"`
}

type journeyJSON struct {
	Legs []legJSON `json:"legs"`
}

type legJSON struct {
	Origin      endpointJSON `json:"origin"`
	Destination endpointJSON `json:"destination"`
	Mode        string       `json:"mode"`
}

type endpointJSON struct {
	Name string `json:"name"`
}
