package routing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/pkordes/hos-logbook/internal/domain"
)

const (
	defaultORSBaseURL = "https://api.openrouteservice.org"
	defaultORSProfile = "driving-hgv"
)

// ORSProvider routes through the OpenRouteService directions API.
// It is safe for concurrent use.
type ORSProvider struct {
	client      *http.Client
	apiKey      string
	baseURL     string
	profile     string
	maxAttempts int
	backoff     time.Duration
	logger      *slog.Logger
}

// ORSOption customises an ORSProvider.
type ORSOption func(*ORSProvider)

// WithBaseURL points the provider at another ORS instance.
func WithBaseURL(u string) ORSOption {
	return func(o *ORSProvider) { o.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient replaces the default client (10s timeout).
func WithHTTPClient(c *http.Client) ORSOption {
	return func(o *ORSProvider) { o.client = c }
}

// WithBackoff sets the delay before the first retry. It doubles per attempt.
func WithBackoff(d time.Duration) ORSOption {
	return func(o *ORSProvider) { o.backoff = d }
}

// NewORSProvider builds a provider for the given ORS profile. An empty
// profile means driving-hgv.
func NewORSProvider(apiKey, profile string, logger *slog.Logger, opts ...ORSOption) (*ORSProvider, error) {
	if apiKey == "" {
		return nil, errors.New("routing.NewORSProvider: api key is empty")
	}
	if profile == "" {
		profile = defaultORSProfile
	}
	if logger == nil {
		logger = slog.Default()
	}
	o := &ORSProvider{
		client:      &http.Client{Timeout: 10 * time.Second},
		apiKey:      apiKey,
		baseURL:     defaultORSBaseURL,
		profile:     profile,
		maxAttempts: 4,
		backoff:     200 * time.Millisecond,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

type directionsRequest struct {
	Coordinates  [][2]float64 `json:"coordinates"`
	Instructions bool         `json:"instructions"`
}

// Route requests directions for waypoints. Every failure wraps
// domain.ErrRouteUnavailable.
func (o *ORSProvider) Route(ctx context.Context, waypoints []domain.LatLon) (domain.Route, error) {
	if len(waypoints) < 2 {
		return domain.Route{}, fmt.Errorf("routing.ORSProvider.Route: %w: need at least two waypoints", domain.ErrRouteUnavailable)
	}

	coords := make([][2]float64, len(waypoints))
	for i, p := range waypoints {
		// ORS takes [lon, lat].
		coords[i] = [2]float64{p.Lon, p.Lat}
	}
	payload, err := json.Marshal(directionsRequest{Coordinates: coords, Instructions: true})
	if err != nil {
		return domain.Route{}, fmt.Errorf("routing.ORSProvider.Route: marshal: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v2/directions/%s/geojson", o.baseURL, o.profile)
	resp, err := o.doWithRetry(ctx, func() (*http.Request, error) {
		return o.newRequest(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	})
	if err != nil {
		return domain.Route{}, fmt.Errorf("routing.ORSProvider.Route: %w: %w", domain.ErrRouteUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.Route{}, fmt.Errorf("routing.ORSProvider.Route: %w: read body: %w", domain.ErrRouteUnavailable, err)
	}
	route, err := parseDirections(body)
	if err != nil {
		return domain.Route{}, fmt.Errorf("routing.ORSProvider.Route: %w: %w", domain.ErrRouteUnavailable, err)
	}
	return route, nil
}

// parseDirections reads a GeoJSON directions response. The profile starts
// at the first coordinate and gains one point per instruction step, placed
// at the step's last way point.
func parseDirections(body []byte) (domain.Route, error) {
	if !gjson.ValidBytes(body) {
		return domain.Route{}, errors.New("response is not valid JSON")
	}
	feature := gjson.GetBytes(body, "features.0")
	if !feature.Exists() {
		return domain.Route{}, errors.New("response has no route")
	}

	coords := feature.Get("geometry.coordinates").Array()
	if len(coords) == 0 {
		return domain.Route{}, errors.New("route has no geometry")
	}
	geometry := make([]domain.LatLon, len(coords))
	for i, c := range coords {
		pair := c.Array()
		if len(pair) < 2 {
			return domain.Route{}, fmt.Errorf("coordinate %d is malformed", i)
		}
		geometry[i] = domain.LatLon{Lat: pair[1].Float(), Lon: pair[0].Float()}
	}

	profile := []domain.RoutePoint{{Position: geometry[0]}}
	var meters, seconds float64
	for _, seg := range feature.Get("properties.segments").Array() {
		for _, step := range seg.Get("steps").Array() {
			meters += step.Get("distance").Float()
			seconds += step.Get("duration").Float()
			wp := int(step.Get("way_points.1").Int())
			if wp < 0 || wp >= len(geometry) {
				return domain.Route{}, fmt.Errorf("way point %d outside geometry", wp)
			}
			profile = append(profile, domain.RoutePoint{
				Position:                geometry[wp],
				CumulativeDistanceKm:    meters / 1000,
				CumulativeDurationHours: seconds / 3600,
			})
		}
	}

	summary := feature.Get("properties.summary")
	return domain.Route{
		DistanceKm:    summary.Get("distance").Float() / 1000,
		DurationHours: summary.Get("duration").Float() / 3600,
		Profile:       profile,
		Geometry:      geometry,
	}, nil
}

type httpStatusError struct {
	Code int
	Body string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.Code, e.Body)
}

func (o *ORSProvider) newRequest(ctx context.Context, method, url string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", o.apiKey)
	req.Header.Set("Accept", "application/geo+json, application/json")
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func (o *ORSProvider) do(req *http.Request) (*http.Response, error) {
	resp, err := o.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, &httpStatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	return resp, nil
}

// doWithRetry retries network errors, 429 and 5xx responses with
// exponential backoff until maxAttempts or ctx is done.
func (o *ORSProvider) doWithRetry(ctx context.Context, makeReq func() (*http.Request, error)) (*http.Response, error) {
	backoff := o.backoff
	var lastErr error

	for attempt := 1; attempt <= o.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req, err := makeReq()
		if err != nil {
			return nil, err
		}
		resp, err := o.do(req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if !retryable(err) || attempt == o.maxAttempts {
			return nil, lastErr
		}
		o.logger.Warn("ors request failed, retrying", "attempt", attempt, "error", err)

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		backoff *= 2
	}
	return nil, lastErr
}

func retryable(err error) bool {
	var he *httpStatusError
	if errors.As(err, &he) {
		switch he.Code {
		case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway,
			http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return true
		}
		return false
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
