package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/medflow/pos-allocation/internal/allocation/domain"
	"github.com/medflow/pos-allocation/internal/allocation/handler"
	"github.com/medflow/pos-allocation/internal/allocation/orders"
	"github.com/medflow/pos-allocation/internal/allocation/service"
	"github.com/medflow/pos-allocation/pkg/actor"
	"github.com/medflow/pos-allocation/pkg/config"
	"github.com/medflow/pos-allocation/pkg/errors"
	"github.com/medflow/pos-allocation/pkg/httputil"
	"github.com/medflow/pos-allocation/pkg/logger"
	"github.com/medflow/pos-allocation/pkg/messaging"
	"github.com/medflow/pos-allocation/pkg/permissions"
	"github.com/medflow/pos-allocation/pkg/testutil"
	"github.com/medflow/pos-allocation/pkg/token"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stockData is an in-memory stand-in for every collaborator of the planner
type stockData struct {
	totals    map[int64]string // by lot ID, 0 = whole location
	lots      []domain.Lot
	method    string
	ledgerErr error
	sessions  map[int64]*domain.Session
	configs   map[int64]int64
}

func (d *stockData) SumQuantity(_ context.Context, f domain.QuantFilter) (decimal.Decimal, error) {
	if d.ledgerErr != nil {
		return decimal.Zero, d.ledgerErr
	}
	key := int64(0)
	if f.LotID != nil {
		key = *f.LotID
	}
	if v, ok := d.totals[key]; ok {
		return decimal.RequireFromString(v), nil
	}
	return decimal.Zero, nil
}

func (d *stockData) RemovalStrategy(_ context.Context, productID int64) (string, error) {
	if productID == 404 {
		return "", errors.InvalidReference("product", productID)
	}
	return d.method, nil
}

func (d *stockData) ListLots(_ context.Context, _ domain.LotFilter) ([]domain.Lot, error) {
	return append([]domain.Lot(nil), d.lots...), nil
}

func (d *stockData) FindActiveSession(_ context.Context, actorID int64) (*domain.Session, error) {
	return d.sessions[actorID], nil
}

func (d *stockData) DefaultSourceLocation(_ context.Context, configID int64) (*int64, error) {
	if loc, ok := d.configs[configID]; ok {
		return &loc, nil
	}
	return nil, errors.InvalidReference("pos config", configID)
}

type testServer struct {
	router    http.Handler
	publisher *testutil.MockPublisher
}

func newTestServer(d *stockData, a *actor.Actor) *testServer {
	log := logger.Nop()
	presence := service.NewPresenceChecker(d)
	planner := service.NewPlanner(d, d, d, d, d, log)
	publisher := testutil.NewMockPublisher()
	assembler := orders.NewAssembler(planner, orders.NewForwarder(publisher, log), log)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if a != nil {
				req = req.WithContext(actor.WithActor(req.Context(), a))
			}
			next.ServeHTTP(w, req)
		})
	})
	handler.Mount(r, handler.NewStockHandler(presence, planner, log), handler.NewOrderHandler(assembler, log))

	return &testServer{router: r, publisher: publisher}
}

func cashier() *actor.Actor {
	return &actor.Actor{
		ID:          42,
		ScopeID:     1,
		Email:       "kasse@example.com",
		Permissions: []string{permissions.StockRead, permissions.OrderSubmit},
	}
}

func sampleStock() *stockData {
	expires := time.Date(2027, 1, 31, 0, 0, 0, 0, time.UTC)
	return &stockData{
		totals: map[int64]string{0: "5.5", 1: "3", 2: "2.5", 3: "0"},
		method: "fefo",
		lots: []domain.Lot{
			{ID: 1, Name: "LOT-LATE", ProductID: 10, CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)},
			{ID: 2, Name: "LOT-SOON", ProductID: 10, CreatedAt: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), ExpirationDate: &expires},
			{ID: 3, Name: "LOT-EMPTY", ProductID: 10, CreatedAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), ExpirationDate: &expires},
		},
		sessions: map[int64]*domain.Session{},
		configs:  map[int64]int64{9: 7},
	}
}

type envelope struct {
	Success bool                `json:"success"`
	Data    json.RawMessage     `json:"data"`
	Error   *httputil.ErrorBody `json:"error"`
}

func parse(t *testing.T, body []byte) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(body, &env))
	return env
}

func TestStockHandler_Lots(t *testing.T) {
	srv := newTestServer(sampleStock(), cashier())

	rr := testutil.ExecuteRequest(srv.router, testutil.NewHTTPRequest(http.MethodGet, "/stock/lots?product_id=10&location_id=7", nil))
	testutil.AssertStatus(t, rr, http.StatusOK)

	assert.JSONEq(t, `{
		"success": true,
		"data": {
			"has_positive_stock": true,
			"total_quantity": 5.5,
			"lots": [
				{"lot_name": "LOT-SOON", "lot_id": 2, "available_qty": 2.5, "expiration_date": "2027-01-31 00:00:00"},
				{"lot_name": "LOT-LATE", "lot_id": 1, "available_qty": 3, "expiration_date": false}
			]
		}
	}`, rr.Body.String())
}

func TestStockHandler_Lots_ByConfig(t *testing.T) {
	srv := newTestServer(sampleStock(), cashier())

	rr := testutil.ExecuteRequest(srv.router, testutil.NewHTTPRequest(http.MethodGet, "/stock/lots?product_id=10&config_id=9", nil))
	testutil.AssertStatus(t, rr, http.StatusOK)

	rr = testutil.ExecuteRequest(srv.router, testutil.NewHTTPRequest(http.MethodGet, "/stock/lots?product_id=10&config_id=8", nil))
	testutil.AssertStatus(t, rr, http.StatusUnprocessableEntity)
	assert.Equal(t, "INVALID_REFERENCE", parse(t, rr.Body.Bytes()).Error.Code)
}

func TestStockHandler_Lots_NoSession(t *testing.T) {
	srv := newTestServer(sampleStock(), cashier())

	rr := testutil.ExecuteRequest(srv.router, testutil.NewHTTPRequest(http.MethodGet, "/stock/lots?product_id=10", nil))
	testutil.AssertStatus(t, rr, http.StatusOK)

	assert.JSONEq(t, `{"success": true, "data": {"has_positive_stock": false, "total_quantity": 0, "lots": []}}`, rr.Body.String())
}

func TestStockHandler_Lots_FromSession(t *testing.T) {
	data := sampleStock()
	data.sessions[42] = &domain.Session{ID: 1, UserID: 42, ConfigID: 9, State: domain.SessionOpened}
	srv := newTestServer(data, cashier())

	rr := testutil.ExecuteRequest(srv.router, testutil.NewHTTPRequest(http.MethodGet, "/stock/lots?product_id=10", nil))
	testutil.AssertStatus(t, rr, http.StatusOK)

	var body struct {
		Data struct {
			HasPositiveStock bool `json:"has_positive_stock"`
			Lots             []struct {
				LotName        string          `json:"lot_name"`
				ExpirationDate json.RawMessage `json:"expiration_date"`
			} `json:"lots"`
		} `json:"data"`
	}
	testutil.ParseJSONBody(t, rr, &body)

	assert.True(t, body.Data.HasPositiveStock)
	require.Len(t, body.Data.Lots, 2)
	assert.Equal(t, "LOT-SOON", body.Data.Lots[0].LotName)
	assert.JSONEq(t, `"2027-01-31 00:00:00"`, string(body.Data.Lots[0].ExpirationDate))
	assert.Equal(t, "LOT-LATE", body.Data.Lots[1].LotName)
	assert.JSONEq(t, `false`, string(body.Data.Lots[1].ExpirationDate))
}

func TestRoutes_BearerToken(t *testing.T) {
	d := sampleStock()
	log := logger.Nop()
	tokens := token.NewManager(&config.JWTConfig{Secret: "test-secret", Issuer: "medflow", AccessExpiry: time.Minute})
	planner := service.NewPlanner(d, d, d, d, d, log)
	assembler := orders.NewAssembler(planner, orders.NewForwarder(testutil.NewMockPublisher(), log), log)

	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(httputil.Authenticate(tokens))
		handler.Mount(r, handler.NewStockHandler(service.NewPresenceChecker(d), planner, log), handler.NewOrderHandler(assembler, log))
	})

	path := "/api/v1/stock/presence?product_id=10&location_id=7"

	rr := testutil.ExecuteRequest(r, testutil.NewHTTPRequest(http.MethodGet, path, nil))
	testutil.AssertStatus(t, rr, http.StatusUnauthorized)

	rr = testutil.ExecuteRequest(r, testutil.WithBearer(testutil.NewHTTPRequest(http.MethodGet, path, nil), "not-a-token"))
	testutil.AssertStatus(t, rr, http.StatusUnauthorized)

	signed, err := tokens.Issue(cashier())
	require.NoError(t, err)
	rr = testutil.ExecuteRequest(r, testutil.WithBearer(testutil.NewHTTPRequest(http.MethodGet, path, nil), signed))
	testutil.AssertStatus(t, rr, http.StatusOK)

	var env envelope
	testutil.ParseJSONBody(t, rr, &env)
	assert.True(t, env.Success)
	assert.JSONEq(t, `{"has_positive_stock": true, "total_quantity": 5.5}`, string(env.Data))

	// Authenticated but lacking the stock permission
	noStock := cashier()
	noStock.Permissions = []string{permissions.OrderSubmit}
	signed, err = tokens.Issue(noStock)
	require.NoError(t, err)
	rr = testutil.ExecuteRequest(r, testutil.WithBearer(testutil.NewHTTPRequest(http.MethodGet, path, nil), signed))
	testutil.AssertStatus(t, rr, http.StatusForbidden)
}

func TestStockHandler_Lots_Validation(t *testing.T) {
	srv := newTestServer(sampleStock(), cashier())

	tests := []struct {
		name  string
		query string
		field string
	}{
		{"missing product", "", "product_id"},
		{"non numeric product", "product_id=abc", "product_id"},
		{"negative location", "product_id=10&location_id=-1", "location_id"},
		{"location and config", "product_id=10&location_id=7&config_id=9", "location_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := testutil.ExecuteRequest(srv.router, testutil.NewHTTPRequest(http.MethodGet, "/stock/lots?"+tt.query, nil))
			testutil.AssertStatus(t, rr, http.StatusBadRequest)

			env := parse(t, rr.Body.Bytes())
			require.NotNil(t, env.Error)
			assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
			assert.Contains(t, env.Error.Details, tt.field)
		})
	}
}

func TestStockHandler_Lots_LookupError(t *testing.T) {
	data := sampleStock()
	data.ledgerErr = errors.Lookup("stock quantity", assert.AnError)
	srv := newTestServer(data, cashier())

	rr := testutil.ExecuteRequest(srv.router, testutil.NewHTTPRequest(http.MethodGet, "/stock/lots?product_id=10&location_id=7", nil))
	testutil.AssertStatus(t, rr, http.StatusBadGateway)
	assert.Equal(t, "LOOKUP_ERROR", parse(t, rr.Body.Bytes()).Error.Code)
}

func TestStockHandler_Lots_UnknownProduct(t *testing.T) {
	srv := newTestServer(sampleStock(), cashier())

	rr := testutil.ExecuteRequest(srv.router, testutil.NewHTTPRequest(http.MethodGet, "/stock/lots?product_id=404&location_id=7", nil))
	testutil.AssertStatus(t, rr, http.StatusUnprocessableEntity)
}

func TestStockHandler_Presence(t *testing.T) {
	data := sampleStock()
	srv := newTestServer(data, cashier())

	rr := testutil.ExecuteRequest(srv.router, testutil.NewHTTPRequest(http.MethodGet, "/stock/presence?product_id=10&location_id=7", nil))
	testutil.AssertStatus(t, rr, http.StatusOK)
	assert.JSONEq(t, `{"success": true, "data": {"has_positive_stock": true, "total_quantity": 5.5}}`, rr.Body.String())

	data.totals[0] = "-1"
	rr = testutil.ExecuteRequest(srv.router, testutil.NewHTTPRequest(http.MethodGet, "/stock/presence?product_id=10&location_id=7", nil))
	testutil.AssertStatus(t, rr, http.StatusOK)
	assert.JSONEq(t, `{"success": true, "data": {"has_positive_stock": false, "total_quantity": -1}}`, rr.Body.String())

	rr = testutil.ExecuteRequest(srv.router, testutil.NewHTTPRequest(http.MethodGet, "/stock/presence?product_id=10", nil))
	testutil.AssertStatus(t, rr, http.StatusBadRequest)
}

func TestStockHandler_Permissions(t *testing.T) {
	a := cashier()
	a.Permissions = []string{permissions.OrderSubmit}
	srv := newTestServer(sampleStock(), a)

	rr := testutil.ExecuteRequest(srv.router, testutil.NewHTTPRequest(http.MethodGet, "/stock/lots?product_id=10&location_id=7", nil))
	testutil.AssertStatus(t, rr, http.StatusForbidden)

	anonymous := newTestServer(sampleStock(), nil)
	rr = testutil.ExecuteRequest(anonymous.router, testutil.NewHTTPRequest(http.MethodGet, "/stock/lots?product_id=10&location_id=7", nil))
	testutil.AssertStatus(t, rr, http.StatusUnauthorized)
}

func TestOrderHandler_Submit(t *testing.T) {
	srv := newTestServer(sampleStock(), cashier())

	body := map[string]interface{}{
		"location_id": 7,
		"lines": []map[string]interface{}{
			{"product_id": 10, "tracked": true, "quantity": 2},
			{"product_id": 10, "tracked": true, "quantity": "0.5"},
			{"product_id": 10, "tracked": true, "quantity": 1},
			{"product_id": 11, "quantity": 1},
		},
	}

	rr := testutil.ExecuteRequest(srv.router, testutil.NewHTTPRequest(http.MethodPost, "/orders", body))
	testutil.AssertStatus(t, rr, http.StatusAccepted)

	var resp handler.SubmitOrderResponse
	require.NoError(t, json.Unmarshal(parse(t, rr.Body.Bytes()).Data, &resp))
	assert.NotEmpty(t, resp.OrderRef)
	require.Len(t, resp.Lines, 3)
	assert.Equal(t, "LOT-SOON", resp.Lines[0].LotName)
	assert.Equal(t, 2.5, resp.Lines[0].Quantity)
	assert.Equal(t, "LOT-LATE", resp.Lines[1].LotName)
	assert.Equal(t, "", resp.Lines[2].LotName)

	srv.publisher.AssertEventPublished(t, messaging.EventOrderSubmitted)
}

func TestOrderHandler_Submit_Validation(t *testing.T) {
	srv := newTestServer(sampleStock(), cashier())

	rr := testutil.ExecuteRequest(srv.router, testutil.NewHTTPRequest(http.MethodPost, "/orders", map[string]interface{}{
		"lines": []map[string]interface{}{},
	}))
	testutil.AssertStatus(t, rr, http.StatusBadRequest)
	assert.Contains(t, parse(t, rr.Body.Bytes()).Error.Details, "lines")

	rr = testutil.ExecuteRequest(srv.router, testutil.NewHTTPRequest(http.MethodPost, "/orders", map[string]interface{}{
		"lines": []map[string]interface{}{{"product_id": 10}},
		"note":  "unknown field",
	}))
	testutil.AssertStatus(t, rr, http.StatusBadRequest)

	srv.publisher.AssertNoEventsPublished(t)
}

func TestOrderHandler_Submit_LotsExhausted(t *testing.T) {
	srv := newTestServer(sampleStock(), cashier())

	rr := testutil.ExecuteRequest(srv.router, testutil.NewHTTPRequest(http.MethodPost, "/orders", map[string]interface{}{
		"location_id": 7,
		"lines": []map[string]interface{}{
			{"product_id": 10, "tracked": true, "quantity": 2.5},
			{"product_id": 10, "tracked": true, "quantity": 3},
			{"product_id": 10, "tracked": true, "quantity": 1},
		},
	}))
	testutil.AssertStatus(t, rr, http.StatusConflict)
	assert.Equal(t, "LOTS_EXHAUSTED", parse(t, rr.Body.Bytes()).Error.Code)
}

func TestExpirationDate_MarshalJSON(t *testing.T) {
	b, err := json.Marshal(handler.ExpirationDate{})
	require.NoError(t, err)
	assert.Equal(t, "false", string(b))

	local := time.Date(2026, 12, 24, 18, 30, 15, 0, time.FixedZone("CET", 3600))
	b, err = json.Marshal(handler.ExpirationDate{Time: &local})
	require.NoError(t, err)
	assert.Equal(t, `"2026-12-24 17:30:15"`, string(b))
}
