// Package remote fetches catalog data (recommendations, weather, library
// sections) from the upstream OrbitSound API.
package remote

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/orbitsound/orbitsound-sync/internal/model"
)

// Client is a thin JSON client over the upstream API.
type Client struct {
	client *resty.Client
}

// New creates a Client. The timeout applies per request; the tiered cache
// adds none of its own.
func New(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json").
		SetTimeout(timeout)
	if token != "" {
		c.SetAuthToken(token)
	}
	return &Client{client: c}
}

// StatusError is a non-2xx upstream response.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream status %d: %s", e.Status, e.Body)
}

func check(resp *resty.Response, err error) error {
	if err != nil {
		return err
	}
	if resp.IsError() {
		return &StatusError{Status: resp.StatusCode(), Body: resp.String()}
	}
	return nil
}

// FetchRecommendations calls GET /v1/recommendations?q=query.
func (c *Client) FetchRecommendations(ctx context.Context, query string) (model.Recommendations, error) {
	var out model.Recommendations
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("q", query).
		SetResult(&out).
		Get("/v1/recommendations")
	if err := check(resp, err); err != nil {
		return model.Recommendations{}, fmt.Errorf("fetch recommendations: %w", err)
	}
	if out.Query == "" {
		out.Query = query
	}
	return out, nil
}

// FetchWeather calls GET /v1/weather?lat=..&lon=..
func (c *Client) FetchWeather(ctx context.Context, lat, lon float64) (model.Weather, error) {
	var out model.Weather
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"lat": strconv.FormatFloat(lat, 'f', -1, 64),
			"lon": strconv.FormatFloat(lon, 'f', -1, 64),
		}).
		SetResult(&out).
		Get("/v1/weather")
	if err := check(resp, err); err != nil {
		return model.Weather{}, fmt.Errorf("fetch weather: %w", err)
	}
	return out, nil
}

// FetchLibrarySection calls GET /v1/users/{ownerId}/library/{sectionId}.
func (c *Client) FetchLibrarySection(ctx context.Context, ownerID, sectionID string) (model.LibrarySection, error) {
	var out model.LibrarySection
	resp, err := c.client.R().
		SetContext(ctx).
		SetPathParams(map[string]string{"ownerId": ownerID, "sectionId": sectionID}).
		SetResult(&out).
		Get("/v1/users/{ownerId}/library/{sectionId}")
	if err := check(resp, err); err != nil {
		return model.LibrarySection{}, fmt.Errorf("fetch library section: %w", err)
	}
	out.OwnerID = ownerID
	if out.SectionID == "" {
		out.SectionID = sectionID
	}
	return out, nil
}

// HealthPing implements health.HealthPinger; it drives the online signal.
func (c *Client) HealthPing(ctx context.Context) error {
	resp, err := c.client.R().SetContext(ctx).Get("/healthz")
	if err != nil {
		return err
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("healthz status %d", resp.StatusCode())
	}
	return nil
}
