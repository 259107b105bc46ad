package location

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/muurk/ephemeris/internal/coord"
	"github.com/muurk/ephemeris/internal/version"
)

// DefaultIPLookupURL is an ip-api.com compatible endpoint
const DefaultIPLookupURL = "http://ip-api.com/json/?fields=status,message,lat,lon"

// ipLookupResponse is the subset of the ip-api.com response we read
type ipLookupResponse struct {
	Status  string  `json:"status"`
	Message string  `json:"message"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// IPProvider locates the host by its public IP address.
//
// A successful fix is cached and answered again without a request while
// it is younger than the caller's MaximumAge.
type IPProvider struct {
	// URL is the lookup endpoint
	URL string

	// HTTPClient is the underlying HTTP client
	HTTPClient *http.Client

	now func() time.Time

	// cacheMutex protects cached
	cacheMutex sync.RWMutex
	cached     *Position
}

// NewIPProvider creates a provider for the default endpoint
func NewIPProvider() *IPProvider {
	return NewIPProviderWithURL(DefaultIPLookupURL)
}

// NewIPProviderWithURL creates a provider for a custom endpoint
func NewIPProviderWithURL(url string) *IPProvider {
	return &IPProvider{
		URL:        url,
		HTTPClient: &http.Client{},
		now:        time.Now,
	}
}

// RequestPosition implements Provider
func (p *IPProvider) RequestPosition(ctx context.Context, opts Options, onSuccess func(Position), onError func(*PositionError)) {
	if pos, ok := p.cachedFix(opts.MaximumAge); ok {
		go onSuccess(pos)
		return
	}

	go func() {
		pos, perr := p.lookup(ctx)
		if perr != nil {
			onError(perr)
			return
		}
		p.cacheMutex.Lock()
		p.cached = &pos
		p.cacheMutex.Unlock()
		onSuccess(pos)
	}()
}

func (p *IPProvider) cachedFix(maxAge time.Duration) (Position, bool) {
	p.cacheMutex.RLock()
	defer p.cacheMutex.RUnlock()

	if p.cached == nil || maxAge <= 0 {
		return Position{}, false
	}
	if p.now().Sub(p.cached.Timestamp) > maxAge {
		return Position{}, false
	}
	return *p.cached, true
}

func (p *IPProvider) lookup(ctx context.Context) (Position, *PositionError) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.URL, nil)
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

	var result ipLookupResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return Position{}, &PositionError{Code: CodePositionUnavailable, Message: "invalid lookup response: " + err.Error()}
	}
	if result.Status != "success" {
		msg := result.Message
		if msg == "" {
			msg = "lookup status " + result.Status
		}
		return Position{}, &PositionError{Code: CodePositionUnavailable, Message: msg}
	}

	return Position{
		Coordinate: coord.Coordinate{Latitude: result.Lat, Longitude: result.Lon},
		Timestamp:  p.now(),
	}, nil
}

// requestError classifies a transport failure
func requestError(ctx context.Context, err error) *PositionError {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &PositionError{Code: CodeTimeout, Message: "lookup timed out"}
	}
	return &PositionError{Code: CodePositionUnavailable, Message: err.Error()}
}

// statusError classifies a non-200 response
func statusError(resp *http.Response) *PositionError {
	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &PositionError{Code: CodePermissionDenied, Message: fmt.Sprintf("lookup refused: %d", resp.StatusCode)}
	case resp.StatusCode == http.StatusGatewayTimeout:
		return &PositionError{Code: CodeTimeout, Message: "lookup gateway timed out"}
	default:
		return &PositionError{Code: CodePositionUnavailable, Message: fmt.Sprintf("unexpected status code: %d", resp.StatusCode)}
	}
}
