package location

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/muurk/ephemeris/internal/coord"
	"github.com/muurk/ephemeris/internal/version"
)

// DefaultOverpassURL is the public OpenStreetMap Overpass interpreter
const DefaultOverpassURL = "https://overpass-api.de/api/interpreter"

// overpassResponse is the subset of an Overpass JSON answer we read
type overpassResponse struct {
	Elements []struct {
		Lat  float64           `json:"lat"`
		Lon  float64           `json:"lon"`
		Tags map[string]string `json:"tags"`
	} `json:"elements"`
}

// CityProvider resolves a named city to its coordinates.
// The first matching place node wins.
type CityProvider struct {
	// City is the place name to look up
	City string

	// URL is the Overpass interpreter endpoint
	URL string

	// HTTPClient is the underlying HTTP client
	HTTPClient *http.Client

	now func() time.Time
}

// NewCityProvider creates a provider for the public Overpass endpoint
func NewCityProvider(city string) *CityProvider {
	return &CityProvider{
		City:       city,
		URL:        DefaultOverpassURL,
		HTTPClient: &http.Client{},
		now:        time.Now,
	}
}

// OverpassQuery builds the query for city places with the given name
func OverpassQuery(city string) string {
	name := strings.ReplaceAll(city, `"`, `\"`)
	return fmt.Sprintf(`[out:json][timeout:25];node["name"="%s"]["place"~"^(city|town)$"];out body;`, name)
}

// RequestPosition implements Provider
func (p *CityProvider) RequestPosition(ctx context.Context, _ Options, onSuccess func(Position), onError func(*PositionError)) {
	go func() {
		pos, perr := p.lookup(ctx)
		if perr != nil {
			onError(perr)
			return
		}
		onSuccess(pos)
	}()
}

func (p *CityProvider) lookup(ctx context.Context) (Position, *PositionError) {
	if strings.TrimSpace(p.City) == "" {
		return Position{}, &PositionError{Code: CodePositionUnavailable, Message: "no city configured"}
	}

	u := p.URL + "?" + url.Values{"data": {OverpassQuery(p.City)}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Position{}, &PositionError{Code: CodePositionUnavailable, Message: err.Error()}
	}
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := p.HTTPClient.Do(req)
	if err != nil {
		return Position{}, requestError(ctx, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if perr := statusError(resp); perr != nil {
		return Position{}, perr
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Position{}, requestError(ctx, err)
	}

	var result overpassResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return Position{}, &PositionError{Code: CodePositionUnavailable, Message: "invalid Overpass response: " + err.Error()}
	}
	if len(result.Elements) == 0 {
		return Position{}, &PositionError{Code: CodePositionUnavailable, Message: fmt.Sprintf("no city named %q", p.City)}
	}

	first := result.Elements[0]
	return Position{
		Coordinate: coord.Coordinate{Latitude: first.Lat, Longitude: first.Lon},
		Timestamp:  p.now(),
	}, nil
}
