package orders

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"orderbell/internal/config"
)

// HTTPDoer describes the HTTP client used by the order API client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client reads and updates orders through the restaurant backend.
type Client struct {
	baseURL      string
	restaurantID string
	authToken    string
	client       HTTPDoer
}

// NewClient constructs a backend client from configuration.
func NewClient(cfg *config.Config) *Client {
	if cfg == nil {
		return NewHTTPClient("", "", "", nil)
	}
	timeout := cfg.BackendTimeout()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return NewHTTPClient(cfg.Backend.BaseURL, cfg.Backend.RestaurantID, cfg.Backend.AuthToken, &http.Client{Timeout: timeout})
}

// NewHTTPClient constructs a backend client with an explicit HTTP doer.
func NewHTTPClient(baseURL, restaurantID, authToken string, client HTTPDoer) *Client {
	if client == nil {
		client = http.DefaultClient
	}
	return &Client{
		baseURL:      strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		restaurantID: strings.TrimSpace(restaurantID),
		authToken:    strings.TrimSpace(authToken),
		client:       client,
	}
}

// FetchOrders returns the full order list for the configured restaurant.
// A body that is not a JSON array yields an empty list.
func (c *Client) FetchOrders(ctx context.Context) ([]Order, error) {
	if c == nil || c.baseURL == "" {
		return nil, errors.New("order backend not configured")
	}
	endpoint := fmt.Sprintf("%s/api/orders/restaurant/%s", c.baseURL, url.PathEscape(c.restaurantID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build order list request: %w", err)
	}
	c.authorize(req)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch orders: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("fetch orders: backend returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read order list: %w", err)
	}
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return []Order{}, nil
	}
	var docs []apiOrder
	if err := json.Unmarshal(trimmed, &docs); err != nil {
		return nil, fmt.Errorf("decode order list: %w", err)
	}
	result := make([]Order, 0, len(docs))
	for _, doc := range docs {
		result = append(result, doc.toOrder())
	}
	return result, nil
}

// UpdateStatus sets an order's delivery status and returns the updated order.
func (c *Client) UpdateStatus(ctx context.Context, id string, status Status) (Order, error) {
	if c == nil || c.baseURL == "" {
		return Order{}, errors.New("order backend not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return Order{}, errors.New("order id is required")
	}
	payload, err := json.Marshal(map[string]string{"deliveryStatus": string(status)})
	if err != nil {
		return Order{}, fmt.Errorf("encode status update: %w", err)
	}
	endpoint := fmt.Sprintf("%s/api/orders/%s", c.baseURL, url.PathEscape(id))
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, endpoint, bytes.NewReader(payload))
	if err != nil {
		return Order{}, fmt.Errorf("build status update request: %w", err)
	}
	c.authorize(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return Order{}, fmt.Errorf("update order %s: %w", id, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusMultipleChoices {
		return Order{}, fmt.Errorf("update order %s: backend returned %d", id, resp.StatusCode)
	}
	var doc apiOrder
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return Order{}, fmt.Errorf("decode updated order: %w", err)
	}
	return doc.toOrder(), nil
}

// Ping checks that the order endpoint answers.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.FetchOrders(ctx)
	return err
}

func (c *Client) authorize(req *http.Request) {
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}
}
