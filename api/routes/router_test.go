package routes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/playdepot/playdepot-backend/internal/addresses"
	"github.com/playdepot/playdepot-backend/internal/cards"
	"github.com/playdepot/playdepot-backend/internal/cart"
	"github.com/playdepot/playdepot-backend/internal/checkout"
	"github.com/playdepot/playdepot-backend/internal/games"
	"github.com/playdepot/playdepot-backend/internal/library"
	"github.com/playdepot/playdepot-backend/internal/orders"
	"github.com/playdepot/playdepot-backend/internal/users"
	pkgAuth "github.com/playdepot/playdepot-backend/pkg/auth"
	"github.com/playdepot/playdepot-backend/pkg/config"
	"github.com/playdepot/playdepot-backend/pkg/db"
	"github.com/playdepot/playdepot-backend/pkg/db/dbtest"
	"github.com/playdepot/playdepot-backend/pkg/db/models"
	"github.com/playdepot/playdepot-backend/pkg/logger"
	"github.com/playdepot/playdepot-backend/pkg/metrics"
	"github.com/playdepot/playdepot-backend/pkg/outbox"
	pkgredis "github.com/playdepot/playdepot-backend/pkg/redis"
	"github.com/playdepot/playdepot-backend/pkg/security"
)

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(context.Context) error {
	return s.err
}

type memoryStore struct {
	data map[string]string
}

func (m *memoryStore) Get(_ context.Context, key string) (string, error) {
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return "", pkgredis.Nil
}

func (m *memoryStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m.data[key] = fmt.Sprint(value)
	return nil
}

func (m *memoryStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	m.data[key] = fmt.Sprint(value)
	return true, nil
}

func (m *memoryStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func (m *memoryStore) IdempotencyKey(scope, id string) string {
	return "test:idempotency:" + scope + ":" + id
}

type apiHarness struct {
	conn    *gorm.DB
	cfg     *config.Config
	handler http.Handler
	user    models.User
	games   []models.Game
}

func newAPIHarness(t *testing.T, dbPing error) *apiHarness {
	t.Helper()
	conn := dbtest.New(t)
	user := dbtest.User(t, conn, "ada")
	seeded := []models.Game{
		dbtest.Game(t, conn, "Hollow Path", "19.99"),
		dbtest.Game(t, conn, "Deep Field", "29.99"),
		dbtest.Game(t, conn, "Star Rally", "49.99", dbtest.OnSale("9.99")),
	}

	cfg := &config.Config{
		App:   config.AppConfig{Env: "dev", Port: "0"},
		JWT:   config.JWTConfig{Secret: "test-secret", Issuer: "playdepot", ExpirationMinutes: 30},
		Redis: config.RedisConfig{IdempotencyTTL: time.Hour},
		CORS:  config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
	}
	logg := logger.Nop()
	reg := prometheus.NewRegistry()

	libraryRepo := library.NewRepository(conn)
	gamesRepo := games.NewRepository(conn)
	cipher, err := security.NewCardCipher("vault-secret")
	require.NoError(t, err)

	gameSvc, err := games.NewService(gamesRepo, libraryRepo)
	require.NoError(t, err)
	userSvc, err := users.NewService(users.NewRepository(conn))
	require.NoError(t, err)
	cartSvc, err := cart.NewService(cart.NewRepository(conn), gameSvc, libraryRepo, logg)
	require.NoError(t, err)
	librarySvc, err := library.NewService(libraryRepo)
	require.NoError(t, err)
	cardSvc, err := cards.NewService(cards.NewRepository(conn), cipher, logg)
	require.NoError(t, err)
	addressSvc, err := addresses.NewService(addresses.NewRepository(conn))
	require.NoError(t, err)
	ordersRepo := orders.NewRepository(conn)
	orderSvc, err := orders.NewService(ordersRepo)
	require.NoError(t, err)
	checkoutSvc, err := checkout.NewService(checkout.Deps{
		Tx:        db.Wrap(conn),
		Games:     gameSvc,
		Library:   libraryRepo,
		Orders:    ordersRepo,
		Cart:      cart.NewRepository(conn),
		Cards:     cardSvc,
		Addresses: addressSvc,
		Outbox:    outbox.NewService(outbox.NewRepository(conn), logg),
		Metrics:   metrics.NewCheckoutMetrics(reg),
		Logger:    logg,
	})
	require.NoError(t, err)

	handler := NewRouter(cfg, logg, Infra{
		DB:          stubPinger{err: dbPing},
		Redis:       stubPinger{},
		Idempotency: &memoryStore{data: map[string]string{}},
		Gatherer:    reg,
	}, Services{
		Games:     gameSvc,
		Users:     userSvc,
		Cart:      cartSvc,
		Library:   librarySvc,
		Checkout:  checkoutSvc,
		Orders:    orderSvc,
		Cards:     cardSvc,
		Addresses: addressSvc,
	})

	return &apiHarness{conn: conn, cfg: cfg, handler: handler, user: user, games: seeded}
}

func (h *apiHarness) token(t *testing.T, userID uint) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(h.cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{UserID: userID, Username: "ada"})
	require.NoError(t, err)
	return token
}

type call struct {
	method  string
	path    string
	body    string
	userID  uint
	headers map[string]string
}

func (h *apiHarness) do(t *testing.T, c call) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if c.body != "" {
		req = httptest.NewRequest(c.method, c.path, strings.NewReader(c.body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(c.method, c.path, nil)
	}
	if c.userID != 0 {
		req.Header.Set("Authorization", "Bearer "+h.token(t, c.userID))
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	resp := httptest.NewRecorder()
	h.handler.ServeHTTP(resp, req)
	return resp
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Code    string          `json:"code"`
	Data    json.RawMessage `json:"data"`
	Details json.RawMessage `json:"details"`
}

func decode(t *testing.T, resp *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &env), resp.Body.String())
	return env
}

func decodeData(t *testing.T, resp *httptest.ResponseRecorder, dest any) {
	t.Helper()
	env := decode(t, resp)
	require.True(t, env.Success, resp.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, dest))
}

func TestHealthRoutes(t *testing.T) {
	h := newAPIHarness(t, nil)

	resp := h.do(t, call{method: http.MethodGet, path: "/health/live"})
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "dev", resp.Header().Get("X-PlayDepot-Env"))
	assert.NotEmpty(t, resp.Header().Get("X-Request-Id"))

	resp = h.do(t, call{method: http.MethodGet, path: "/health/ready"})
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestHealthReadyReportsFailingDependency(t *testing.T) {
	h := newAPIHarness(t, errors.New("db down"))

	resp := h.do(t, call{method: http.MethodGet, path: "/health/ready"})
	require.Equal(t, http.StatusServiceUnavailable, resp.Code)
	env := decode(t, resp)
	assert.Equal(t, "DEPENDENCY_ERROR", env.Code)
	assert.Contains(t, string(env.Details), "db down")
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	h := newAPIHarness(t, nil)

	for _, c := range []call{
		{method: http.MethodGet, path: "/api/user"},
		{method: http.MethodGet, path: "/api/cart"},
		{method: http.MethodPost, path: "/api/checkout", body: `{"game_ids":[1]}`},
		{method: http.MethodGet, path: "/api/orders"},
		{method: http.MethodGet, path: "/api/cards"},
		{method: http.MethodGet, path: "/api/addresses"},
		{method: http.MethodGet, path: "/api/library"},
	} {
		resp := h.do(t, c)
		assert.Equal(t, http.StatusUnauthorized, resp.Code, "%s %s", c.method, c.path)
	}
}

func TestGamesCatalogIsPublic(t *testing.T) {
	h := newAPIHarness(t, nil)

	resp := h.do(t, call{method: http.MethodGet, path: "/api/games?sort=price&order=desc"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var page games.Page
	decodeData(t, resp, &page)
	require.Len(t, page.Items, 3)
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, "Deep Field", page.Items[0].Title)
	assert.Equal(t, "9.99", page.Items[2].EffectivePrice.String())
	assert.Nil(t, page.Items[0].Owned)

	resp = h.do(t, call{method: http.MethodGet, path: "/api/games?owned=true"})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = h.do(t, call{method: http.MethodGet, path: "/api/games?page_size=500"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = h.do(t, call{method: http.MethodGet, path: "/api/games?on_sale=yes"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestGamesGetMarksOwnershipForSignedInUser(t *testing.T) {
	h := newAPIHarness(t, nil)
	hollow := h.games[0]
	dbtest.Own(t, h.conn, h.user.ID, hollow.ID)

	resp := h.do(t, call{method: http.MethodGet, path: fmt.Sprintf("/api/games/%d", hollow.ID), userID: h.user.ID})
	require.Equal(t, http.StatusOK, resp.Code)
	var view games.GameView
	decodeData(t, resp, &view)
	require.NotNil(t, view.Owned)
	assert.True(t, *view.Owned)

	resp = h.do(t, call{method: http.MethodGet, path: "/api/games/9999"})
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = h.do(t, call{method: http.MethodGet, path: "/api/games/abc"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestCartEditAndCheckoutFlow(t *testing.T) {
	h := newAPIHarness(t, nil)
	hollow, deep := h.games[0], h.games[1]
	uid := h.user.ID

	resp := h.do(t, call{method: http.MethodPost, path: "/api/cart/edit", userID: uid,
		body: fmt.Sprintf(`{"game_id":%d,"action":"add","quantity":1}`, deep.ID)})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var c cart.Cart
	decodeData(t, resp, &c)
	require.Len(t, c.Items, 1)
	assert.Equal(t, "29.99", c.Total.String())

	resp = h.do(t, call{method: http.MethodPost, path: "/api/cart/edit", userID: uid,
		body: fmt.Sprintf(`{"game_id":%d,"action":"teleport"}`, deep.ID)})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	body := fmt.Sprintf(`{"game_ids":[%d,%d],"form_data":{"saveAddress":true,"address":{"street":"1 Main St","city":"Springfield","postcode":"12345","country":"US"}}}`, hollow.ID, deep.ID)
	headers := map[string]string{"Idempotency-Key": "order-1"}

	resp = h.do(t, call{method: http.MethodPost, path: "/api/checkout", userID: uid, body: body, headers: headers})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var result checkout.Result
	decodeData(t, resp, &result)
	assert.Len(t, result.OrderID, models.OrderIDLength)
	assert.Equal(t, "49.98", result.TotalAmount.String())
	assert.Equal(t, []string{"Hollow Path", "Deep Field"}, result.GamesPurchased)
	assert.True(t, result.AddressSaved)
	assert.False(t, result.CardSaved)

	replay := h.do(t, call{method: http.MethodPost, path: "/api/checkout", userID: uid, body: body, headers: headers})
	require.Equal(t, http.StatusOK, replay.Code)
	assert.Equal(t, "true", replay.Header().Get("Idempotent-Replayed"))
	var replayed checkout.Result
	decodeData(t, replay, &replayed)
	assert.Equal(t, result.OrderID, replayed.OrderID)

	var orderCount int64
	require.NoError(t, h.conn.Model(&models.Order{}).Count(&orderCount).Error)
	assert.Equal(t, int64(1), orderCount)

	reused := h.do(t, call{method: http.MethodPost, path: "/api/checkout", userID: uid,
		body: fmt.Sprintf(`{"game_ids":[%d]}`, hollow.ID), headers: headers})
	assert.Equal(t, http.StatusConflict, reused.Code)

	again := h.do(t, call{method: http.MethodPost, path: "/api/checkout", userID: uid,
		body: fmt.Sprintf(`{"game_ids":[%d]}`, hollow.ID), headers: map[string]string{"Idempotency-Key": "order-2"}})
	require.Equal(t, http.StatusBadRequest, again.Code)
	env := decode(t, again)
	assert.Equal(t, "CONFLICT", env.Code)
	assert.Equal(t, "you already own: Hollow Path", env.Message)

	resp = h.do(t, call{method: http.MethodGet, path: "/api/cart", userID: uid})
	decodeData(t, resp, &c)
	assert.Empty(t, c.Items)

	resp = h.do(t, call{method: http.MethodGet, path: "/api/library", userID: uid})
	var entries []library.Entry
	decodeData(t, resp, &entries)
	assert.Len(t, entries, 2)

	resp = h.do(t, call{method: http.MethodGet, path: "/api/orders", userID: uid})
	var list orders.OrderList
	decodeData(t, resp, &list)
	require.Len(t, list.Orders, 1)
	assert.Equal(t, result.OrderID, list.Orders[0].ID)

	resp = h.do(t, call{method: http.MethodGet, path: "/api/orders/" + result.OrderID, userID: uid})
	require.Equal(t, http.StatusOK, resp.Code)
	var detail orders.OrderView
	decodeData(t, resp, &detail)
	assert.Len(t, detail.Items, 2)

	stranger := dbtest.User(t, h.conn, "mallory")
	resp = h.do(t, call{method: http.MethodGet, path: "/api/orders/" + result.OrderID, userID: stranger.ID})
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = h.do(t, call{method: http.MethodGet, path: "/api/addresses", userID: uid})
	var saved []addresses.View
	decodeData(t, resp, &saved)
	require.Len(t, saved, 1)
	assert.Equal(t, "Springfield", saved[0].City)

	metricsResp := h.do(t, call{method: http.MethodGet, path: "/metrics"})
	require.Equal(t, http.StatusOK, metricsResp.Code)
	assert.Contains(t, metricsResp.Body.String(), `playdepot_checkout_total{outcome="success"} 1`)
	assert.Contains(t, metricsResp.Body.String(), `playdepot_checkout_total{outcome="conflict"} 1`)
}

func TestCheckoutRejectsMalformedRequests(t *testing.T) {
	h := newAPIHarness(t, nil)
	uid := h.user.ID

	cases := []struct {
		name    string
		body    string
		headers map[string]string
	}{
		{"missing idempotency key", `{"game_ids":[1]}`, nil},
		{"game ids as string", `{"game_ids":"1,2"}`, map[string]string{"Idempotency-Key": "a"}},
		{"game ids as strings", `{"game_ids":["x"]}`, map[string]string{"Idempotency-Key": "b"}},
		{"missing game ids", `{"form_data":{}}`, map[string]string{"Idempotency-Key": "c"}},
		{"empty game ids", `{"game_ids":[]}`, map[string]string{"Idempotency-Key": "d"}},
		{"unknown field", `{"game_ids":[1],"coupon":"FREE"}`, map[string]string{"Idempotency-Key": "e"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := h.do(t, call{method: http.MethodPost, path: "/api/checkout", userID: uid, body: tc.body, headers: tc.headers})
			require.Equal(t, http.StatusBadRequest, resp.Code, resp.Body.String())
			assert.Equal(t, "VALIDATION_ERROR", decode(t, resp).Code)
		})
	}

	resp := h.do(t, call{method: http.MethodPost, path: "/api/checkout", userID: uid,
		body: `{"game_ids":[4242]}`, headers: map[string]string{"Idempotency-Key": "f"}})
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestCardRoutes(t *testing.T) {
	h := newAPIHarness(t, nil)
	uid := h.user.ID
	body := `{"nameOnCard":"Ada Lovelace","cardNumber":"4111 1111 1111 1111","expiryDate":"12/99","cvv":"123"}`

	resp := h.do(t, call{method: http.MethodPost, path: "/api/cards", userID: uid, body: body})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	var created cards.CardView
	decodeData(t, resp, &created)
	assert.Equal(t, "1111", created.LastFourDigits)
	assert.Equal(t, "4111111111111111", created.DisplayNumber)
	assert.Equal(t, "12/99", created.ExpiryDate)

	resp = h.do(t, call{method: http.MethodPost, path: "/api/cards", userID: uid, body: body})
	require.Equal(t, http.StatusOK, resp.Code)
	var existing cards.CardView
	decodeData(t, resp, &existing)
	assert.Equal(t, created.ID, existing.ID)

	other := dbtest.User(t, h.conn, "grace")
	resp = h.do(t, call{method: http.MethodPost, path: "/api/cards", userID: other.ID, body: body})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "CONFLICT", decode(t, resp).Code)

	resp = h.do(t, call{method: http.MethodPost, path: "/api/cards", userID: uid,
		body: `{"nameOnCard":"Ada","cardNumber":"4111","expiryDate":"12/99","cvv":"123"}`})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = h.do(t, call{method: http.MethodGet, path: "/api/cards", userID: uid})
	var listed []cards.CardView
	decodeData(t, resp, &listed)
	require.Len(t, listed, 1)

	resp = h.do(t, call{method: http.MethodDelete, path: "/api/cards/" + created.ID.String(), userID: other.ID})
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = h.do(t, call{method: http.MethodDelete, path: "/api/cards/" + created.ID.String(), userID: uid})
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = h.do(t, call{method: http.MethodDelete, path: "/api/cards/not-a-uuid", userID: uid})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestAddressRoutes(t *testing.T) {
	h := newAPIHarness(t, nil)
	uid := h.user.ID
	body := `{"street":" 1 Main St ","city":"Springfield","postcode":"12345","country":"US"}`

	resp := h.do(t, call{method: http.MethodPost, path: "/api/addresses", userID: uid, body: body})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	var view addresses.View
	decodeData(t, resp, &view)
	assert.Equal(t, "1 Main St", view.Street)

	resp = h.do(t, call{method: http.MethodPost, path: "/api/addresses", userID: uid, body: body})
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = h.do(t, call{method: http.MethodPost, path: "/api/addresses", userID: uid, body: `{"street":"2 Side St"}`})
	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, string(decode(t, resp).Details), "postcode")
}

func TestUserProfileIncludesCart(t *testing.T) {
	h := newAPIHarness(t, nil)
	dbtest.CartItem(t, h.conn, h.user.ID, h.games[2].ID, 2)

	resp := h.do(t, call{method: http.MethodGet, path: "/api/user", userID: h.user.ID})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var profile users.Profile
	decodeData(t, resp, &profile)
	assert.Equal(t, "ada", profile.Username)
	require.Len(t, profile.CartItems, 1)
	assert.Equal(t, 2, profile.CartItems[0].Quantity)
	assert.Equal(t, "Star Rally", profile.CartItems[0].Game.Title)
}
