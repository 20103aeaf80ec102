// Package httpdeliver delivers outbox entries to the OrbitSound HTTP API.
package httpdeliver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/orbitsound/orbitsound-sync/internal/deliver"
	"github.com/orbitsound/orbitsound-sync/internal/model"
)

// IdempotencyHeader carries the outbox DeliveryKey so the API can dedupe redeliveries.
const IdempotencyHeader = "Idempotency-Key"

// Client posts outbox entries to {baseURL}/v1/sync/{operation}.
type Client struct {
	client *resty.Client
}

// New creates a Client. token may be empty.
func New(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Content-Type", "application/json").
		SetTimeout(timeout)
	if token != "" {
		c.SetAuthToken(token)
	}
	return &Client{client: c}
}

type syncRequest struct {
	OwnerID     string                 `json:"ownerId"`
	DeliveryKey string                 `json:"deliveryKey"`
	Operation   string                 `json:"operation"`
	Payload     map[string]interface{} `json:"payload"`
	CreatedAt   time.Time              `json:"createdAt"`
}

type syncResponse struct {
	ServerTimestamp time.Time `json:"serverTimestamp"`
}

var _ deliver.Deliverer = (*Client)(nil)

// Deliver posts e. 4xx responses other than 408 and 429 are permanent.
func (c *Client) Deliver(ctx context.Context, e *model.OutboxEntry) (deliver.Receipt, error) {
	body := syncRequest{
		OwnerID:     e.OwnerID,
		DeliveryKey: e.DeliveryKey,
		Operation:   string(e.Operation),
		Payload:     e.Payload,
		CreatedAt:   e.CreatedAt,
	}
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader(IdempotencyHeader, e.DeliveryKey).
		SetBody(&body).
		Post("/v1/sync/" + string(e.Operation))
	if err != nil {
		return deliver.Receipt{}, fmt.Errorf("sync request: %w", err)
	}

	status := resp.StatusCode()
	switch {
	case status == http.StatusOK || status == http.StatusCreated || status == http.StatusAccepted:
	case status == http.StatusRequestTimeout || status == http.StatusTooManyRequests:
		return deliver.Receipt{}, fmt.Errorf("sync status %d: %s", status, resp.String())
	case status >= 400 && status < 500:
		return deliver.Receipt{}, deliver.NewPermanentError(fmt.Sprintf("status %d", status), fmt.Errorf("%s", resp.String()))
	default:
		return deliver.Receipt{}, fmt.Errorf("sync status %d: %s", status, resp.String())
	}

	var sr syncResponse
	if len(resp.Body()) > 0 {
		if err := json.Unmarshal(resp.Body(), &sr); err != nil {
			return deliver.Receipt{}, fmt.Errorf("decode response: %w", err)
		}
	}
	if sr.ServerTimestamp.IsZero() {
		sr.ServerTimestamp = time.Now().UTC()
	}
	return deliver.Receipt{ServerTimestamp: sr.ServerTimestamp}, nil
}

// HealthPing implements health.HealthPinger against GET /healthz.
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
