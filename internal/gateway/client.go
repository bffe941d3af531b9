// internal/gateway/client.go
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/cashback-cart/internal/config"
)

type tokenContextKey struct{}

// WithToken attaches the caller's bearer token to the context; every
// gateway request forwards it to the marketplace backend
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenContextKey{}, token)
}

func tokenFrom(ctx context.Context) string {
	token, _ := ctx.Value(tokenContextKey{}).(string)
	return token
}

// Product is the nested product projection on a remote cart item
type Product struct {
	Name               string  `json:"name"`
	Image              string  `json:"image"`
	Price              float64 `json:"price"`
	CashbackPercentage float64 `json:"cashback_percentage"`
	StoreID            string  `json:"store_id"`
}

// CartItem is one cart line as the marketplace backend reports it
type CartItem struct {
	ProductID string   `json:"product_id"`
	Quantity  int      `json:"quantity"`
	Product   *Product `json:"product,omitempty"`
}

type cartResponse struct {
	Items []CartItem `json:"items"`
}

type stockResponse struct {
	Stock int `json:"stock"`
}

type itemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// Client talks to the marketplace cart and stock endpoints
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewClient creates a gateway client from configuration
func NewClient(cfg *config.Config, logger *logrus.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.Gateway.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Gateway.Timeout,
		},
		logger: logger,
	}
}

// FetchCart retrieves the authoritative cart for the calling user
func (c *Client) FetchCart(ctx context.Context) ([]CartItem, error) {
	var resp cartResponse
	if err := c.do(ctx, http.MethodGet, "/cart", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// FetchStock retrieves the stock count for a product. Any failure is
// treated as zero available stock rather than unknown; the engine
// prefers under-selling to over-selling when the backend misbehaves.
func (c *Client) FetchStock(ctx context.Context, productID string) int {
	var resp stockResponse
	path := fmt.Sprintf("/products/%s/stock", url.PathEscape(productID))
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		c.logger.WithError(err).WithField("product_id", productID).
			Warn("Stock fetch failed, treating as zero stock")
		return 0
	}
	if resp.Stock < 0 {
		return 0
	}
	return resp.Stock
}

// AddItem adds a product to the remote cart
func (c *Client) AddItem(ctx context.Context, productID string, quantity int) error {
	return c.do(ctx, http.MethodPost, "/cart/items", itemRequest{
		ProductID: productID,
		Quantity:  quantity,
	}, nil)
}

// UpdateItem sets the quantity of a product already in the remote cart
func (c *Client) UpdateItem(ctx context.Context, productID string, quantity int) error {
	return c.do(ctx, http.MethodPatch, "/cart/items/quantity", itemRequest{
		ProductID: productID,
		Quantity:  quantity,
	}, nil)
}

// RemoveItem removes a product from the remote cart
func (c *Client) RemoveItem(ctx context.Context, productID string) error {
	path := fmt.Sprintf("/cart/items/%s", url.PathEscape(productID))
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// Clear empties the remote cart
func (c *Client) Clear(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/cart/clear", nil, nil)
}

// do executes one request against the marketplace backend, classifying
// failures as NetworkError (transport), ServerError (non-2xx) or
// DecodeError (2xx with a malformed body)
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	op := fmt.Sprintf("%s %s", method, path)

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request for %s: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request for %s: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token := tokenFrom(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	c.logger.WithFields(logrus.Fields{
		"op":          op,
		"status_code": resp.StatusCode,
		"latency":     time.Since(start),
	}).Debug("Gateway request completed")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &ServerError{Op: op, StatusCode: resp.StatusCode}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return &DecodeError{Op: op, Err: err}
		}
	}

	return nil
}
