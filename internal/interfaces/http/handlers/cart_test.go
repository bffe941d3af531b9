package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/cashback-cart/internal/config"
	"github.com/your-org/cashback-cart/internal/domain/cart"
	"github.com/your-org/cashback-cart/internal/gateway"
	"github.com/your-org/cashback-cart/internal/interfaces/http/routes"
	"github.com/your-org/cashback-cart/internal/pkg/auth"
)

// stubGateway serves a fixed remote cart for handler tests
type stubGateway struct {
	mu       sync.Mutex
	items    []gateway.CartItem
	stock    map[string]int
	addCalls int
	addErr   error
}

func (s *stubGateway) FetchCart(ctx context.Context) ([]gateway.CartItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]gateway.CartItem, len(s.items))
	copy(items, s.items)
	return items, nil
}

func (s *stubGateway) FetchStock(ctx context.Context, productID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stock[productID]
}

func (s *stubGateway) AddItem(ctx context.Context, productID string, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addCalls++
	if s.addErr != nil {
		return s.addErr
	}
	s.items = append(s.items, gateway.CartItem{ProductID: productID, Quantity: quantity})
	return nil
}

func (s *stubGateway) UpdateItem(ctx context.Context, productID string, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ProductID == productID {
			s.items[i].Quantity = quantity
		}
	}
	return nil
}

func (s *stubGateway) RemoveItem(ctx context.Context, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ProductID == productID {
			s.items = append(s.items[:i], s.items[i+1:]...)
			break
		}
	}
	return nil
}

func (s *stubGateway) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
	return nil
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.App.Name = "cart-test"
	cfg.JWT.Secret = "test-secret-test-secret-test-secret!"
	cfg.JWT.AccessTokenExpiry = time.Hour
	return cfg
}

func newTestRouter(t *testing.T, gw cart.Gateway) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := testConfig()
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	manager := cart.NewManager(gw, nil, log, time.Second)

	router := gin.New()
	routes.SetupRoutes(router.Group("/api/v1"), manager, cfg)

	token, err := auth.NewJWTManager(cfg).GenerateAccessToken("alice", "alice@example.com")
	require.NoError(t, err)
	return router, token
}

func doRequest(router *gin.Engine, method, path, token, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestGetCartRequiresAuth(t *testing.T) {
	router, _ := newTestRouter(t, &stubGateway{stock: map[string]int{}})

	w := doRequest(router, http.MethodGet, "/api/v1/cart", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGetCartReturnsReadModel(t *testing.T) {
	gw := &stubGateway{
		items: []gateway.CartItem{{
			ProductID: "P1",
			Quantity:  2,
			Product:   &gateway.Product{Name: "Espresso Beans", Price: 12.5, StoreID: "store-1"},
		}},
		stock: map[string]int{"P1": 5},
	}
	router, token := newTestRouter(t, gw)

	w := doRequest(router, http.MethodGet, "/api/v1/cart", token, "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data cart.Snapshot `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Data.Items, 1)
	assert.Equal(t, "P1", body.Data.Items[0].ProductID)
	assert.Equal(t, cart.StockRecord{TotalStock: 5, ReservedInCart: 2, AvailableToAdd: 3}, body.Data.Stock["P1"])
	assert.Equal(t, cart.StateReady, body.Data.State)
}

func TestAddToCartInsufficientStockFailsFast(t *testing.T) {
	gw := &stubGateway{stock: map[string]int{}}
	router, token := newTestRouter(t, gw)

	w := doRequest(router, http.MethodPost, "/api/v1/cart/items", token,
		`{"product_id":"P2","quantity":3,"known_available_stock":2}`)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Zero(t, gw.addCalls, "no gateway call expected on client-side rejection")
}

func TestAddToCartThenAvailabilityReflectsReservation(t *testing.T) {
	gw := &stubGateway{stock: map[string]int{"P1": 5}}
	router, token := newTestRouter(t, gw)

	w := doRequest(router, http.MethodPost, "/api/v1/cart/items", token,
		`{"product_id":"P1","quantity":2}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(router, http.MethodGet, "/api/v1/products/P1/availability", token, "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data struct {
			Total     int `json:"total"`
			InCart    int `json:"in_cart"`
			Available int `json:"available"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 5, body.Data.Total)
	assert.Equal(t, 2, body.Data.InCart)
	assert.Equal(t, 3, body.Data.Available)
}

func TestAddToCartMapsUpstreamFailures(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{
			name:     "backend 5xx becomes bad gateway",
			err:      &gateway.ServerError{Op: "POST /cart/items", StatusCode: 500},
			wantCode: http.StatusBadGateway,
		},
		{
			name:     "transport failure becomes gateway timeout",
			err:      &gateway.NetworkError{Op: "POST /cart/items", Err: context.DeadlineExceeded},
			wantCode: http.StatusGatewayTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &stubGateway{stock: map[string]int{"P1": 5}, addErr: tt.err}
			router, token := newTestRouter(t, gw)

			w := doRequest(router, http.MethodPost, "/api/v1/cart/items", token,
				`{"product_id":"P1","quantity":1}`)
			assert.Equal(t, tt.wantCode, w.Code)
		})
	}
}

func TestUpdateCartItemRejectsZeroQuantity(t *testing.T) {
	gw := &stubGateway{
		items: []gateway.CartItem{{ProductID: "P1", Quantity: 2}},
		stock: map[string]int{"P1": 5},
	}
	router, token := newTestRouter(t, gw)

	// binding requires quantity, and the engine rejects anything below 1
	w := doRequest(router, http.MethodPatch, "/api/v1/cart/items/P1", token,
		`{"quantity":-1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestClearCartEmptiesReadModel(t *testing.T) {
	gw := &stubGateway{
		items: []gateway.CartItem{{ProductID: "P1", Quantity: 2}},
		stock: map[string]int{"P1": 5},
	}
	router, token := newTestRouter(t, gw)

	w := doRequest(router, http.MethodDelete, "/api/v1/cart", token, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(router, http.MethodGet, "/api/v1/cart/count", token, "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data struct {
			Count int `json:"count"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Zero(t, body.Data.Count)
}

func TestLogoutDropsSession(t *testing.T) {
	gw := &stubGateway{
		items: []gateway.CartItem{{ProductID: "P1", Quantity: 2}},
		stock: map[string]int{"P1": 5},
	}
	router, token := newTestRouter(t, gw)

	w := doRequest(router, http.MethodGet, "/api/v1/cart", token, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(router, http.MethodDelete, "/api/v1/session", token, "")
	assert.Equal(t, http.StatusOK, w.Code)
}
