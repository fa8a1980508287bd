package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salgados/internal/audit"
	"salgados/internal/cache"
	"salgados/internal/identity"
	"salgados/internal/metrics"
	"salgados/internal/models"
	"salgados/internal/repository"
	"salgados/internal/service"
	"salgados/internal/storage"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	h, _ := newTestServerWithStore(t)
	return h
}

func newTestServerWithStore(t *testing.T) (http.Handler, storage.Store) {
	t.Helper()
	ctx := context.Background()
	store := storage.NewMemoryStore()
	repos := repository.New(store, false)
	require.NoError(t, identity.Seed(ctx, repos.Admins, repos.Users, time.Now().UTC()))
	rec := metrics.NewRecorder()
	svc := service.New(repos, service.WithMetrics(rec))
	return NewServer(svc, rec, audit.Nop, ":0").Handler(), store
}

func do(t *testing.T, h http.Handler, method, path string, body interface{}, admin bool) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if admin {
		req.SetBasicAuth("sara", "123")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func placeOrder(t *testing.T, h http.Handler) models.Order {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/orders", service.PlaceOrderRequest{
		Customer:      models.Customer{Name: "Ana", Phone: "11977776666"},
		Items:         []service.LineRequest{{ProductID: 1, Quantity: 1, QuantityType: "cento", UnitCount: 100}},
		PaymentMethod: models.PaymentPix,
	}, false)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var o models.Order
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&o))
	return o
}

func TestHandleCatalog(t *testing.T) {
	h := newTestServer(t)

	t.Run("public list", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/catalog", nil, false)
		require.Equal(t, http.StatusOK, rec.Code)
		var items []catalogItemView
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&items))
		assert.Len(t, items, int(models.MaxBuiltinItemID))
		assert.Equal(t, models.ProvenanceBuiltin, items[0].Provenance)
	})

	t.Run("add requires credentials", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/catalog", models.CatalogFields{Name: "Kibe", Price: 80, Category: models.CategorySalgados}, false)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("add and delete", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/catalog", models.CatalogFields{Name: "Kibe", Price: 80, Category: models.CategorySalgados}, true)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var item models.CatalogItem
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&item))
		assert.Greater(t, item.ID, models.MaxBuiltinItemID)

		rec = do(t, h, http.MethodDelete, "/catalog/"+strconv.FormatInt(item.ID, 10), nil, true)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("builtin is immutable", func(t *testing.T) {
		rec := do(t, h, http.MethodPut, "/catalog/1", models.CatalogFields{Name: "X", Price: 1, Category: models.CategorySalgados}, true)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("invalid fields", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/catalog", models.CatalogFields{Price: 0, Category: "bebidas"}, true)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		var body errorBody
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.Contains(t, body.Fields, "name")
	})

	t.Run("bad ID", func(t *testing.T) {
		rec := do(t, h, http.MethodDelete, "/catalog/abc", nil, true)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandleOrderLifecycle(t *testing.T) {
	h := newTestServer(t)
	o := placeOrder(t, h)
	assert.Equal(t, models.OrderStatusPending, o.Status)
	assert.True(t, strings.HasPrefix(o.OrderNumber, "#"))

	t.Run("list requires credentials", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/orders", nil, false)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("advance", func(t *testing.T) {
		rec := do(t, h, http.MethodPut, "/orders-advance/"+o.ID, map[string]string{"status": "confirmed"}, true)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var got models.Order
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
		assert.Equal(t, models.OrderStatusConfirmed, got.Status)
		assert.Len(t, got.StatusHistory, 2)
	})

	t.Run("reject after confirm is illegal", func(t *testing.T) {
		rec := do(t, h, http.MethodPut, "/orders-reject/"+o.ID, map[string]string{"reason": "sem estoque"}, true)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("filter by status", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/orders?status=confirmed", nil, true)
		require.Equal(t, http.StatusOK, rec.Code)
		var orders []models.Order
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&orders))
		require.Len(t, orders, 1)
		assert.Equal(t, o.ID, orders[0].ID)

		rec = do(t, h, http.MethodGet, "/orders?status=pending", nil, true)
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&orders))
		assert.Empty(t, orders)
	})

	t.Run("get one", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/orders/"+o.ID, nil, true)
		require.Equal(t, http.StatusOK, rec.Code)
		var view orderView
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&view))
		assert.Equal(t, "Em Preparação", view.StatusLabel)
		assert.Equal(t, "PIX", view.PaymentLabel)
	})

	t.Run("unknown order", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/orders/missing", nil, true)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestHandleReject(t *testing.T) {
	h := newTestServer(t)
	o := placeOrder(t, h)

	rec := do(t, h, http.MethodPut, "/orders-reject/"+o.ID, map[string]string{"reason": "   "}, true)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(t, h, http.MethodPut, "/orders-reject/"+o.ID, map[string]string{"reason": "Fora da área"}, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var got models.Order
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, models.OrderStatusRejected, got.Status)
	assert.Equal(t, "Fora da área", got.RejectionReason)

	t.Run("bad JSON", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/orders-reject/"+o.ID, strings.NewReader("badjson"))
		req.SetBasicAuth("sara", "123")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandleAdmins(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/admins", map[string]string{"username": "joao", "password": "segredo1", "role": "manager"}, true)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/admins", map[string]string{"username": "joao", "password": "segredo2", "role": "admin"}, true)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, h, http.MethodGet, "/admins", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	var admins []models.AdminAccount
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&admins))
	require.Len(t, admins, 2)
	var rootID string
	for _, a := range admins {
		assert.Empty(t, a.Password)
		if a.IsRoot() {
			rootID = a.ID
		}
	}

	rec = do(t, h, http.MethodDelete, "/admins/"+rootID, nil, true)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHandleConfig(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/config", nil, false)
	require.Equal(t, http.StatusOK, rec.Code)
	var cfg models.AppConfig
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&cfg))
	assert.Equal(t, models.DefaultDeliveryFee, cfg.DeliveryFee)

	rec = do(t, h, http.MethodPut, "/config", map[string]float64{"deliveryFee": -1}, true)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(t, h, http.MethodPut, "/config", map[string]float64{"deliveryFee": 7.5}, true)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&cfg))
	assert.Equal(t, 7.5, cfg.DeliveryFee)
}

func TestHandleAccounts(t *testing.T) {
	h, store := newTestServerWithStore(t)
	ctx := context.Background()

	reg := identity.Registration{
		Name: "Bruno", Phone: "(11) 95555-4444", Email: "bruno@example.com",
		Address: "Rua A", Number: "1", City: "Campinas",
		Password: "abcdef", ConfirmPassword: "abcdef",
	}
	rec := do(t, h, http.MethodPost, "/register", reg, false)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var acc models.CustomerAccount
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&acc))
	assert.Empty(t, acc.Password)

	rec = do(t, h, http.MethodPost, "/register", reg, false)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, h, http.MethodPost, "/login", map[string]string{"phone": "11955554444", "password": "wrong!"}, false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, h, http.MethodPost, "/login", map[string]string{"phone": "11955554444", "password": "abcdef"}, false)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&acc))
	assert.Equal(t, "Bruno", acc.Name)
	assert.Empty(t, acc.Password)

	_, ok, err := store.Get(ctx, storage.KeyCurrentUser)
	require.NoError(t, err)
	assert.False(t, ok, "HTTP requests must not touch the stored session")

	rec = do(t, h, http.MethodPost, "/forgot-password", map[string]string{"phone": "11955554444"}, true)
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.NotEmpty(t, body["temporaryPassword"])

	rec = do(t, h, http.MethodPost, "/login", map[string]string{"phone": "11955554444", "password": body["temporaryPassword"]}, false)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestForgotPasswordRequiresAdmin(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/forgot-password", map[string]string{"phone": "(00) 00000-0000"}, false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NotContains(t, rec.Body.String(), "temporaryPassword")

	rec = do(t, h, http.MethodPost, "/login", map[string]string{"phone": "00000000000", "password": "123456"}, false)
	require.Equal(t, http.StatusOK, rec.Code)
	var acc models.CustomerAccount
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&acc))
	assert.True(t, acc.IsAdmin)
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestServer(t)
	placeOrder(t, h)

	rec := do(t, h, http.MethodGet, "/metrics", nil, false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "salgados_operations_total")
}

func TestHandleActiveOrders(t *testing.T) {
	ctx := context.Background()
	repos := repository.New(storage.NewMemoryStore(), false)
	require.NoError(t, identity.Seed(ctx, repos.Admins, repos.Users, time.Now().UTC()))
	active := cache.NewActiveOrders()
	h := NewServer(service.New(repos), nil, nil, ":0").WithActiveOrders(active).Handler()

	o := placeOrder(t, h)
	require.NoError(t, active.Refresh(ctx, repos.Orders))

	rec := do(t, h, http.MethodGet, "/orders-active", nil, false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, h, http.MethodGet, "/orders-active", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Orders []models.Order `json:"orders"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Len(t, body.Orders, 1)
	assert.Equal(t, o.ID, body.Orders[0].ID)
}
