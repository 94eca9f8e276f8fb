// Package broker is the HTTP client for the external brokerage backend that
// owns holdings, positions and orders.
package broker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ndewijer/Paper-Trading-Dashboard-Backend/internal/apperrors"
	"github.com/ndewijer/Paper-Trading-Dashboard-Backend/internal/model"
)

// maxBodySize caps how much of a response is read.
const maxBodySize = 4 << 20

// Client is the brokerage backend as seen by the services.
type Client interface {
	Holdings(ctx context.Context, token string) ([]model.Holding, error)
	Positions(ctx context.Context, token string) ([]model.Position, error)
	Orders(ctx context.Context, token string) ([]model.Order, error)
	NewOrder(ctx context.Context, token string, order model.Order) error
}

// HTTPClient talks to the brokerage backend over JSON/HTTP.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPClient creates a client for baseURL. Every request is bounded by timeout.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Holdings fetches GET /allHoldings.
func (c *HTTPClient) Holdings(ctx context.Context, token string) ([]model.Holding, error) {
	var resp HoldingsResponse
	if err := c.do(ctx, http.MethodGet, "/allHoldings", token, nil, &resp); err != nil {
		return nil, err
	}
	holdings := make([]model.Holding, len(resp.AllHoldings))
	for i, r := range resp.AllHoldings {
		holdings[i] = r.Holding()
	}
	return holdings, nil
}

// Positions fetches GET /allPositions.
func (c *HTTPClient) Positions(ctx context.Context, token string) ([]model.Position, error) {
	var resp PositionsResponse
	if err := c.do(ctx, http.MethodGet, "/allPositions", token, nil, &resp); err != nil {
		return nil, err
	}
	positions := make([]model.Position, len(resp.AllPositions))
	for i, r := range resp.AllPositions {
		positions[i] = r.Position()
	}
	return positions, nil
}

// Orders fetches GET /allOrders, oldest first as the backend returns them.
func (c *HTTPClient) Orders(ctx context.Context, token string) ([]model.Order, error) {
	var resp OrdersResponse
	if err := c.do(ctx, http.MethodGet, "/allOrders", token, nil, &resp); err != nil {
		return nil, err
	}
	orders := make([]model.Order, len(resp.AllOrders))
	for i, o := range resp.AllOrders {
		orders[i] = o.Order()
	}
	return orders, nil
}

// NewOrder submits POST /newOrder. It issues exactly one request and never retries.
func (c *HTTPClient) NewOrder(ctx context.Context, token string, order model.Order) error {
	body := NewOrderRequest{
		Name:  order.Name,
		Qty:   order.Qty,
		Price: order.Price,
		Mode:  string(order.Mode),
	}
	return c.do(ctx, http.MethodPost, "/newOrder", token, body, nil)
}

// do executes one request and maps the outcome onto the collaborator error taxonomy:
// network failures and timeouts become ErrCollaboratorUnavailable, 401/403 become
// ErrAuthExpired and any other non-2xx status a *apperrors.RejectedError.
func (c *HTTPClient) do(ctx context.Context, method, path, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", apperrors.ErrCollaboratorUnavailable, method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("%w: reading %s: %w", apperrors.ErrCollaboratorUnavailable, path, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return apperrors.ErrAuthExpired
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return rejected(resp.StatusCode, data)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: decoding %s: %w", apperrors.ErrCollaboratorUnavailable, path, err)
	}
	return nil
}

func rejected(status int, data []byte) error {
	var eb errorBody
	reason := ""
	if err := json.Unmarshal(data, &eb); err == nil {
		reason = eb.reason()
	}
	if reason == "" {
		reason = http.StatusText(status)
	}
	return &apperrors.RejectedError{Status: status, Reason: reason}
}
