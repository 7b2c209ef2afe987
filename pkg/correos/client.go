package correos

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/reparalo-app/reparalo-backend/pkg/enums"
	pkgerrors "github.com/reparalo-app/reparalo-backend/pkg/errors"
)

const (
	defaultBaseURL             = "https://api.correosexpress.com"
	responseBodyReadLimit int64 = 1024
)

var errAPIKeyRequired = errors.New("correos api key is required")

// Client wraps the Correos Express tracking API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the configured tracking base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// WithTimeout overrides the default HTTP timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// NewClient builds the Correos Express client given an API key.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	trimmedKey := strings.TrimSpace(apiKey)
	if trimmedKey == "" {
		return nil, errAPIKeyRequired
	}

	client := &Client{
		apiKey:     trimmedKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if client.baseURL == "" {
		client.baseURL = defaultBaseURL
	}

	return client, nil
}

// TrackingEvent is one scan from the carrier feed, already mapped onto the
// tracker's status vocabulary. Events with codes the tracker does not model
// are dropped during decoding.
type TrackingEvent struct {
	Status     enums.ShipmentStatus
	Location   *string
	Notes      *string
	OccurredAt time.Time
}

// TrackingInfo is the carrier's view of a single shipment.
type TrackingInfo struct {
	TrackingNumber string
	Events         []TrackingEvent
}

// Latest returns the most advanced event, or nil when the carrier has no
// usable scans yet.
func (t *TrackingInfo) Latest() *TrackingEvent {
	if t == nil || len(t.Events) == 0 {
		return nil
	}
	latest := &t.Events[0]
	for i := 1; i < len(t.Events); i++ {
		if t.Events[i].OccurredAt.After(latest.OccurredAt) {
			latest = &t.Events[i]
		}
	}
	return latest
}

// Track fetches the scan history for a tracking number. A 404 means the
// carrier has not registered the label yet and yields (nil, nil) so callers
// can poll again later.
func (c *Client) Track(ctx context.Context, trackingNumber string) (*TrackingInfo, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "correos client not configured")
	}
	trimmed := strings.TrimSpace(trackingNumber)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tracking number is required")
	}

	endpoint := fmt.Sprintf("%s/tracking/v1/shipments/%s", strings.TrimRight(c.baseURL, "/"), url.PathEscape(trimmed))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build tracking request")
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute tracking request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "tracking request failed")
	}

	var apiResp struct {
		ShipmentCode string `json:"shipmentCode"`
		Events       []struct {
			Code        string `json:"code"`
			Description string `json:"description"`
			Location    string `json:"location"`
			Timestamp   string `json:"timestamp"`
		} `json:"events"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode tracking response")
	}

	info := &TrackingInfo{TrackingNumber: trimmed}
	for _, event := range apiResp.Events {
		status, ok := MapStatusCode(event.Code)
		if !ok {
			continue
		}
		occurredAt, err := time.Parse(time.RFC3339, event.Timestamp)
		if err != nil {
			continue
		}
		mapped := TrackingEvent{Status: status, OccurredAt: occurredAt}
		if event.Location != "" {
			location := event.Location
			mapped.Location = &location
		}
		if event.Description != "" {
			notes := event.Description
			mapped.Notes = &notes
		}
		info.Events = append(info.Events, mapped)
	}
	return info, nil
}

// statusCodes maps Correos Express scan codes onto the tracker vocabulary.
var statusCodes = map[string]enums.ShipmentStatus{
	"GRABADO":    enums.ShipmentStatusCreated,
	"ADMITIDO":   enums.ShipmentStatusCreated,
	"RECOGIDO":   enums.ShipmentStatusPickedUp,
	"TRANSITO":   enums.ShipmentStatusInTransit,
	"EN_REPARTO": enums.ShipmentStatusOutForDelivery,
	"ENTREGADO":  enums.ShipmentStatusDelivered,
}

// MapStatusCode translates a carrier scan code. ok is false for codes the
// tracker does not model, such as customs or incident scans.
func MapStatusCode(code string) (enums.ShipmentStatus, bool) {
	status, ok := statusCodes[strings.ToUpper(strings.TrimSpace(code))]
	return status, ok
}
