package checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/playdepot/playdepot-backend/internal/addresses"
	"github.com/playdepot/playdepot-backend/internal/cards"
	"github.com/playdepot/playdepot-backend/internal/cart"
	"github.com/playdepot/playdepot-backend/internal/games"
	"github.com/playdepot/playdepot-backend/internal/library"
	"github.com/playdepot/playdepot-backend/internal/orders"
	"github.com/playdepot/playdepot-backend/pkg/db"
	"github.com/playdepot/playdepot-backend/pkg/db/dbtest"
	"github.com/playdepot/playdepot-backend/pkg/db/models"
	"github.com/playdepot/playdepot-backend/pkg/enums"
	pkgerrors "github.com/playdepot/playdepot-backend/pkg/errors"
	"github.com/playdepot/playdepot-backend/pkg/metrics"
	"github.com/playdepot/playdepot-backend/pkg/outbox"
)

var orderTime = time.Date(2026, 4, 2, 15, 30, 0, 0, time.UTC)

type harness struct {
	conn  *gorm.DB
	reg   *prometheus.Registry
	deps  Deps
	user  models.User
	games []models.Game
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	conn := dbtest.New(t)
	user := dbtest.User(t, conn, "ada")
	seeded := []models.Game{
		dbtest.Game(t, conn, "Hollow Path", "19.99"),
		dbtest.Game(t, conn, "Deep Field", "29.99"),
		dbtest.Game(t, conn, "Star Rally", "49.99", dbtest.OnSale("9.99")),
	}

	vault, err := cards.NewService(cards.NewRepository(conn), nil, nil)
	require.NoError(t, err)
	vault.WithClock(func() time.Time { return orderTime })
	addressStore, err := addresses.NewService(addresses.NewRepository(conn))
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	deps := Deps{
		Tx:        db.Wrap(conn),
		Games:     games.NewRepository(conn),
		Library:   library.NewRepository(conn),
		Orders:    orders.NewRepository(conn),
		Cart:      cart.NewRepository(conn),
		Cards:     vault,
		Addresses: addressStore,
		Outbox:    outbox.NewService(outbox.NewRepository(conn), nil),
		Metrics:   metrics.NewCheckoutMetrics(reg),
		Now:       func() time.Time { return orderTime },
	}
	return &harness{conn: conn, reg: reg, deps: deps, user: user, games: seeded}
}

func (h *harness) service(t *testing.T) Service {
	t.Helper()
	svc, err := NewService(h.deps)
	require.NoError(t, err)
	return svc
}

func (h *harness) count(t *testing.T, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, h.conn.Model(model).Count(&n).Error)
	return n
}

func (h *harness) assertNothingPersisted(t *testing.T) {
	t.Helper()
	assert.Zero(t, h.count(t, &models.Order{}))
	assert.Zero(t, h.count(t, &models.OrderItem{}))
	assert.Zero(t, h.count(t, &models.OutboxEvent{}))
}

func (h *harness) counter(t *testing.T, name, label, value string) float64 {
	t.Helper()
	families, err := h.reg.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			for _, pair := range metric.GetLabel() {
				if pair.GetName() == label && pair.GetValue() == value {
					return metric.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestExecutePersistsOrder(t *testing.T) {
	h := newHarness(t)
	hollow, deep, rally := h.games[0], h.games[1], h.games[2]
	dbtest.CartItem(t, h.conn, h.user.ID, deep.ID, 1)
	dbtest.CartItem(t, h.conn, h.user.ID, rally.ID, 2)

	result, err := h.service(t).Execute(context.Background(), h.user.ID, Input{GameIDs: []uint{deep.ID, hollow.ID}})
	require.NoError(t, err)

	assert.Len(t, result.OrderID, models.OrderIDLength)
	assert.Equal(t, "49.98", result.TotalAmount.StringFixed(2))
	assert.Equal(t, orderTime, result.OrderDate)
	assert.Equal(t, []string{"Deep Field", "Hollow Path"}, result.GamesPurchased)
	require.Len(t, result.Items, 2)
	assert.Equal(t, deep.ID, result.Items[0].GameID)
	assert.Equal(t, "29.99", result.Items[0].PurchasePrice.StringFixed(2))
	assert.Equal(t, 1, result.Items[1].Quantity)
	assert.False(t, result.CardSaved)
	assert.False(t, result.AddressSaved)

	var order models.Order
	require.NoError(t, h.conn.Preload("Items").First(&order, "id = ?", result.OrderID).Error)
	assert.True(t, order.IsCompleted)
	assert.Equal(t, h.user.ID, order.UserID)
	assert.Equal(t, "49.98", order.TotalAmount.StringFixed(2))
	require.Len(t, order.Items, 2)
	sum := order.Items[0].PurchasePrice.Add(order.Items[1].PurchasePrice)
	assert.True(t, sum.Equal(order.TotalAmount))

	owned, err := library.NewRepository(h.conn).OwnedAmong(context.Background(), h.user.ID, []uint{hollow.ID, deep.ID, rally.ID})
	require.NoError(t, err)
	assert.Len(t, owned, 2)
	assert.NotContains(t, owned, rally.ID)

	var remaining []models.CartItem
	require.NoError(t, h.conn.Find(&remaining).Error)
	require.Len(t, remaining, 1)
	assert.Equal(t, rally.ID, remaining[0].GameID)

	var event models.OutboxEvent
	require.NoError(t, h.conn.First(&event).Error)
	assert.Equal(t, enums.EventOrderCreated, event.EventType)
	assert.Equal(t, enums.AggregateOrder, event.AggregateType)
	assert.Equal(t, result.OrderID, event.AggregateID)
	assert.Contains(t, event.Payload, result.OrderID)

	assert.Equal(t, float64(1), h.counter(t, "playdepot_checkout_total", "outcome", metrics.OutcomeSuccess))
}

func TestExecuteUsesSalePriceAndDeduplicates(t *testing.T) {
	h := newHarness(t)
	rally := h.games[2]

	result, err := h.service(t).Execute(context.Background(), h.user.ID, Input{GameIDs: []uint{rally.ID, rally.ID, rally.ID}})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, "9.99", result.TotalAmount.StringFixed(2))
	assert.Equal(t, int64(1), h.count(t, &models.OrderItem{}))
}

func TestExecuteValidation(t *testing.T) {
	h := newHarness(t)
	svc := h.service(t)

	_, err := svc.Execute(context.Background(), h.user.ID, Input{})
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
	assert.Equal(t, "at least one game id required", pkgerrors.As(err).Message())

	_, err = svc.Execute(context.Background(), h.user.ID, Input{GameIDs: []uint{h.games[0].ID, 0}})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	h.assertNothingPersisted(t)
	assert.Equal(t, float64(2), h.counter(t, "playdepot_checkout_total", "outcome", metrics.OutcomeValidation))
}

func TestExecuteUnknownGame(t *testing.T) {
	h := newHarness(t)

	_, err := h.service(t).Execute(context.Background(), h.user.ID, Input{GameIDs: []uint{h.games[0].ID, 9999}})
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
	assert.Equal(t, "one or more games not found", pkgerrors.As(err).Message())
	h.assertNothingPersisted(t)
}

func TestExecuteRejectsOwnedGames(t *testing.T) {
	h := newHarness(t)
	hollow, deep, rally := h.games[0], h.games[1], h.games[2]
	dbtest.Own(t, h.conn, h.user.ID, rally.ID)
	dbtest.Own(t, h.conn, h.user.ID, hollow.ID)

	_, err := h.service(t).Execute(context.Background(), h.user.ID, Input{GameIDs: []uint{rally.ID, deep.ID, hollow.ID}})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())
	assert.Equal(t, "you already own: Star Rally, Hollow Path", typed.Message())
	assert.Equal(t, map[string]any{"owned_titles": []string{"Star Rally", "Hollow Path"}}, typed.Details())
	h.assertNothingPersisted(t)
}

// staleLibrary reports nothing owned so the insert hits the unique index, as
// with two concurrent checkouts.
type staleLibrary struct {
	library.Repository
}

func (staleLibrary) OwnedAmong(context.Context, uint, []uint) (map[uint]struct{}, error) {
	return map[uint]struct{}{}, nil
}

func TestExecuteConcurrentOwnershipRollsBack(t *testing.T) {
	h := newHarness(t)
	hollow, deep := h.games[0], h.games[1]
	dbtest.Own(t, h.conn, h.user.ID, deep.ID)
	dbtest.CartItem(t, h.conn, h.user.ID, hollow.ID, 1)
	h.deps.Library = staleLibrary{Repository: library.NewRepository(h.conn)}

	_, err := h.service(t).Execute(context.Background(), h.user.ID, Input{GameIDs: []uint{hollow.ID, deep.ID}})
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeConflict))
	assert.Equal(t, "one or more games already owned", pkgerrors.As(err).Message())

	h.assertNothingPersisted(t)
	assert.Equal(t, int64(1), h.count(t, &models.OwnedGame{}))
	assert.Equal(t, int64(1), h.count(t, &models.CartItem{}))
	assert.Equal(t, float64(1), h.counter(t, "playdepot_checkout_total", "outcome", metrics.OutcomeConflict))
}

func TestExecuteRetriesOrderIDCollision(t *testing.T) {
	h := newHarness(t)
	first := true
	h.deps.NewOrderID = func() (string, error) {
		if first {
			first = false
			return "SAMEID01", nil
		}
		return "NEWID002", nil
	}
	svc := h.service(t)

	r1, err := svc.Execute(context.Background(), h.user.ID, Input{GameIDs: []uint{h.games[0].ID}})
	require.NoError(t, err)
	assert.Equal(t, "SAMEID01", r1.OrderID)

	first = true
	r2, err := svc.Execute(context.Background(), h.user.ID, Input{GameIDs: []uint{h.games[1].ID}})
	require.NoError(t, err)
	assert.Equal(t, "NEWID002", r2.OrderID)
}

func TestExecuteGivesUpAfterRepeatedCollisions(t *testing.T) {
	h := newHarness(t)
	h.deps.NewOrderID = func() (string, error) { return "SAMEID01", nil }
	h.deps.OrderIDAttempts = 3
	svc := h.service(t)

	_, err := svc.Execute(context.Background(), h.user.ID, Input{GameIDs: []uint{h.games[0].ID}})
	require.NoError(t, err)

	_, err = svc.Execute(context.Background(), h.user.ID, Input{GameIDs: []uint{h.games[1].ID}})
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeInternal))
	assert.ErrorIs(t, err, orders.ErrIDSpaceExhausted)
	assert.Equal(t, int64(1), h.count(t, &models.Order{}))
	assert.Equal(t, int64(1), h.count(t, &models.OwnedGame{}))
}

type failingOutbox struct{}

func (failingOutbox) Emit(context.Context, *gorm.DB, outbox.DomainEvent) error {
	return errors.New("outbox down")
}

func TestExecuteRollsBackWhenOutboxFails(t *testing.T) {
	h := newHarness(t)
	h.deps.Outbox = failingOutbox{}
	dbtest.CartItem(t, h.conn, h.user.ID, h.games[0].ID, 1)

	_, err := h.service(t).Execute(context.Background(), h.user.ID, Input{GameIDs: []uint{h.games[0].ID}})
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeInternal))
	h.assertNothingPersisted(t)
	assert.Zero(t, h.count(t, &models.OwnedGame{}))
	assert.Equal(t, int64(1), h.count(t, &models.CartItem{}))
	assert.Equal(t, float64(1), h.counter(t, "playdepot_checkout_total", "outcome", metrics.OutcomeError))
}

type failingCart struct{}

func (failingCart) DeleteByGames(context.Context, uint, []uint) error {
	return errors.New("cart table locked")
}

func TestExecuteKeepsOrderWhenCartCleanupFails(t *testing.T) {
	h := newHarness(t)
	h.deps.Cart = failingCart{}
	dbtest.CartItem(t, h.conn, h.user.ID, h.games[0].ID, 1)

	result, err := h.service(t).Execute(context.Background(), h.user.ID, Input{GameIDs: []uint{h.games[0].ID}})
	require.NoError(t, err)
	assert.NotEmpty(t, result.OrderID)
	assert.Equal(t, int64(1), h.count(t, &models.Order{}))
	assert.Equal(t, int64(1), h.count(t, &models.OwnedGame{}))
	assert.Equal(t, int64(1), h.count(t, &models.CartItem{}))
	assert.Equal(t, float64(1), h.counter(t, "playdepot_checkout_save_failures_total", "kind", "cart"))
	assert.Equal(t, float64(1), h.counter(t, "playdepot_checkout_total", "outcome", metrics.OutcomeSuccess))
}

func TestExecuteSavesCardAndAddress(t *testing.T) {
	h := newHarness(t)
	input := Input{
		GameIDs: []uint{h.games[0].ID},
		Form: FormData{
			SaveCard:    true,
			SaveAddress: true,
			Card:        &cards.CardInput{Number: "5555 5555 5555 4444", CVV: "321", Expiry: "09/29", NameOnCard: "Ada Lovelace"},
			Address:     &addresses.AddressInput{Street: "1 Analytical Way", City: "London", Postcode: "N1", Country: "UK"},
		},
	}

	result, err := h.service(t).Execute(context.Background(), h.user.ID, input)
	require.NoError(t, err)
	assert.True(t, result.CardSaved)
	assert.True(t, result.AddressSaved)

	var card models.CreditCard
	require.NoError(t, h.conn.First(&card).Error)
	assert.Equal(t, "4444", card.LastFourDigits)
	assert.Equal(t, enums.CardBrandMastercard, card.CardBrand)
	assert.Equal(t, int64(1), h.count(t, &models.Address{}))
}

func TestExecuteIgnoresUnflaggedDetails(t *testing.T) {
	h := newHarness(t)
	input := Input{
		GameIDs: []uint{h.games[0].ID},
		Form: FormData{
			Card:    &cards.CardInput{Number: "4111111111111111", CVV: "123", Expiry: "09/29", NameOnCard: "Ada"},
			Address: &addresses.AddressInput{Street: "1 Analytical Way", City: "London", Postcode: "N1", Country: "UK"},
		},
	}

	result, err := h.service(t).Execute(context.Background(), h.user.ID, input)
	require.NoError(t, err)
	assert.False(t, result.CardSaved)
	assert.False(t, result.AddressSaved)
	assert.Zero(t, h.count(t, &models.CreditCard{}))
	assert.Zero(t, h.count(t, &models.Address{}))
}

func TestExecuteSaveFailuresDoNotFailOrder(t *testing.T) {
	h := newHarness(t)
	input := Input{
		GameIDs: []uint{h.games[0].ID},
		Form: FormData{
			SaveCard:    true,
			SaveAddress: true,
			Card:        &cards.CardInput{Number: "1234", CVV: "1", Expiry: "01/20", NameOnCard: ""},
			Address:     &addresses.AddressInput{Street: "", City: "London"},
		},
	}

	result, err := h.service(t).Execute(context.Background(), h.user.ID, input)
	require.NoError(t, err)
	assert.NotEmpty(t, result.OrderID)
	assert.False(t, result.CardSaved)
	assert.False(t, result.AddressSaved)
	assert.Equal(t, int64(1), h.count(t, &models.Order{}))
	assert.Equal(t, float64(1), h.counter(t, "playdepot_checkout_save_failures_total", "kind", "card"))
	assert.Equal(t, float64(1), h.counter(t, "playdepot_checkout_save_failures_total", "kind", "address"))
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(Deps{})
	require.Error(t, err)
}
