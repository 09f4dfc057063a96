package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/playdepot/playdepot-backend/internal/addresses"
	"github.com/playdepot/playdepot-backend/internal/cards"
	"github.com/playdepot/playdepot-backend/internal/library"
	"github.com/playdepot/playdepot-backend/internal/orders"
	"github.com/playdepot/playdepot-backend/internal/pricing"
	"github.com/playdepot/playdepot-backend/pkg/db"
	"github.com/playdepot/playdepot-backend/pkg/db/models"
	"github.com/playdepot/playdepot-backend/pkg/enums"
	pkgerrors "github.com/playdepot/playdepot-backend/pkg/errors"
	"github.com/playdepot/playdepot-backend/pkg/logger"
	"github.com/playdepot/playdepot-backend/pkg/metrics"
	"github.com/playdepot/playdepot-backend/pkg/outbox"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type gameResolver interface {
	FindByIDs(ctx context.Context, ids []uint) ([]models.Game, error)
}

type cardSaver interface {
	Store(ctx context.Context, userID uint, input cards.CardInput) (*models.CreditCard, bool, error)
}

type addressSaver interface {
	Save(ctx context.Context, userID uint, input addresses.AddressInput) (*models.Address, bool, error)
}

type cartCleaner interface {
	DeleteByGames(ctx context.Context, userID uint, gameIDs []uint) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service executes checkout orchestration.
type Service interface {
	Execute(ctx context.Context, userID uint, input Input) (*Result, error)
}

// Deps wires the collaborators of the checkout service.
type Deps struct {
	Tx        txRunner
	Games     gameResolver
	Library   library.Repository
	Orders    orders.Repository
	Cart      cartCleaner
	Cards     cardSaver
	Addresses addressSaver
	Outbox    outboxPublisher
	Metrics   *metrics.CheckoutMetrics
	Logger    *logger.Logger

	// OrderIDAttempts bounds id regeneration on collision.
	OrderIDAttempts int
	NewOrderID      orders.IDGenerator
	Now             func() time.Time
}

type service struct {
	deps Deps
}

// NewService builds the checkout service.
func NewService(deps Deps) (Service, error) {
	switch {
	case deps.Tx == nil:
		return nil, fmt.Errorf("tx runner required")
	case deps.Games == nil:
		return nil, fmt.Errorf("game resolver required")
	case deps.Library == nil:
		return nil, fmt.Errorf("library repository required")
	case deps.Orders == nil:
		return nil, fmt.Errorf("orders repository required")
	case deps.Cart == nil:
		return nil, fmt.Errorf("cart repository required")
	case deps.Cards == nil:
		return nil, fmt.Errorf("card vault required")
	case deps.Addresses == nil:
		return nil, fmt.Errorf("address store required")
	case deps.Outbox == nil:
		return nil, fmt.Errorf("outbox publisher required")
	}
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}
	if deps.OrderIDAttempts <= 0 {
		deps.OrderIDAttempts = orders.DefaultIDAttempts
	}
	if deps.NewOrderID == nil {
		deps.NewOrderID = orders.NewOrderID
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &service{deps: deps}, nil
}

func (s *service) Execute(ctx context.Context, userID uint, input Input) (result *Result, err error) {
	started := time.Now()
	defer func() {
		s.deps.Metrics.Observe(outcomeFor(err), time.Since(started))
	}()

	ctx = s.deps.Logger.WithUserID(ctx, userID)
	if userID == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user required")
	}

	ids, err := distinctIDs(input.GameIDs)
	if err != nil {
		return nil, err
	}

	games, err := s.resolve(ctx, ids)
	if err != nil {
		return nil, err
	}

	if err := s.guardOwnership(ctx, userID, games); err != nil {
		return nil, err
	}

	quote := pricing.BuildQuote(games)
	order, err := s.persist(ctx, userID, ids, quote)
	if err != nil {
		return nil, err
	}

	result = buildResult(order, quote)
	ctx = s.deps.Logger.WithOrderID(ctx, order.ID)
	s.deps.Logger.Info(s.deps.Logger.WithField(ctx, "total_amount", order.TotalAmount.StringFixed(2)), "order created")

	s.clearCart(ctx, userID, ids)
	result.CardSaved, result.AddressSaved = s.saveForLater(ctx, userID, input.Form)
	return result, nil
}

// clearCart drops the purchased games from the cart once the order is
// committed. Ownership is already granted, so a failure only leaves stale
// cart lines behind.
func (s *service) clearCart(ctx context.Context, userID uint, ids []uint) {
	if err := s.deps.Cart.DeleteByGames(ctx, userID, ids); err != nil {
		s.deps.Metrics.IncSaveFailure("cart")
		s.deps.Logger.WarnErr(ctx, "cart cleanup failed", err)
	}
}

// distinctIDs drops duplicates while keeping request order.
func distinctIDs(ids []uint) ([]uint, error) {
	if len(ids) == 0 {
		return nil, pkgerrors.Validation("at least one game id required")
	}
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			return nil, pkgerrors.Validation("game ids must be positive integers")
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out, nil
}

// resolve loads every requested game and returns them in request order.
func (s *service) resolve(ctx context.Context, ids []uint) ([]models.Game, error) {
	found, err := s.deps.Games.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Internal(err, "load games")
	}
	if len(found) != len(ids) {
		return nil, pkgerrors.NotFound("one or more games not found")
	}
	byID := make(map[uint]models.Game, len(found))
	for _, game := range found {
		byID[game.ID] = game
	}
	ordered := make([]models.Game, 0, len(ids))
	for _, id := range ids {
		game, ok := byID[id]
		if !ok {
			return nil, pkgerrors.NotFound("one or more games not found")
		}
		ordered = append(ordered, game)
	}
	return ordered, nil
}

func (s *service) guardOwnership(ctx context.Context, userID uint, games []models.Game) error {
	ids := make([]uint, 0, len(games))
	for _, game := range games {
		ids = append(ids, game.ID)
	}
	owned, err := s.deps.Library.OwnedAmong(ctx, userID, ids)
	if err != nil {
		return pkgerrors.Internal(err, "load ownership")
	}
	if len(owned) == 0 {
		return nil
	}
	titles := make([]string, 0, len(owned))
	for _, game := range games {
		if _, ok := owned[game.ID]; ok {
			titles = append(titles, game.Title)
		}
	}
	return pkgerrors.Conflict("you already own: " + strings.Join(titles, ", ")).
		WithDetails(map[string]any{"owned_titles": titles})
}

func (s *service) persist(ctx context.Context, userID uint, ids []uint, quote pricing.Quote) (*models.Order, error) {
	now := s.deps.Now().UTC()
	order := &models.Order{
		UserID:      userID,
		OrderDate:   now,
		TotalAmount: quote.Total,
		IsCompleted: true,
	}

	err := s.deps.Tx.WithTx(ctx, func(tx *gorm.DB) error {
		orderRepo := s.deps.Orders.WithTx(tx)
		if err := orders.CreateWithUniqueID(ctx, orderRepo, order, s.deps.OrderIDAttempts, s.deps.NewOrderID); err != nil {
			return err
		}

		items := make([]models.OrderItem, 0, len(quote.Lines))
		for _, line := range quote.Lines {
			items = append(items, models.OrderItem{
				OrderID:       order.ID,
				GameID:        line.GameID,
				PurchasePrice: line.Price,
				Quantity:      1,
			})
		}
		if err := orderRepo.CreateItems(ctx, items); err != nil {
			return err
		}

		if err := s.deps.Library.WithTx(tx).GrantMany(ctx, userID, ids, now); err != nil {
			if db.IsUniqueViolation(err) {
				return pkgerrors.Conflict("one or more games already owned")
			}
			return err
		}

		return s.deps.Outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: userID},
			Data: outbox.OrderCreatedEvent{
				OrderID:     order.ID,
				UserID:      userID,
				TotalAmount: order.TotalAmount,
				GameIDs:     ids,
				OrderDate:   now,
			},
			OccurredAt: now,
		})
	})
	if err == nil {
		return order, nil
	}
	if typed := pkgerrors.As(err); typed != nil {
		return nil, typed
	}
	if errors.Is(err, orders.ErrIDSpaceExhausted) {
		s.deps.Logger.Error(ctx, "order id generation exhausted", err)
		return nil, pkgerrors.Internal(err, "could not allocate order id")
	}
	s.deps.Logger.Error(ctx, "checkout persist failed", err)
	return nil, pkgerrors.Internal(err, "persist order")
}

// saveForLater stores the card and address after the order committed.
// Failures are logged and counted, never returned.
func (s *service) saveForLater(ctx context.Context, userID uint, form FormData) (cardSaved, addressSaved bool) {
	var errs error
	if form.SaveCard && form.Card != nil {
		if _, _, err := s.deps.Cards.Store(ctx, userID, *form.Card); err != nil {
			s.deps.Metrics.IncSaveFailure("card")
			errs = multierr.Append(errs, fmt.Errorf("save card: %w", err))
		} else {
			cardSaved = true
		}
	}
	if form.SaveAddress && form.Address != nil {
		if _, _, err := s.deps.Addresses.Save(ctx, userID, *form.Address); err != nil {
			s.deps.Metrics.IncSaveFailure("address")
			errs = multierr.Append(errs, fmt.Errorf("save address: %w", err))
		} else {
			addressSaved = true
		}
	}
	if errs != nil {
		s.deps.Logger.WarnErr(ctx, "save-for-later failed", errs)
	}
	return cardSaved, addressSaved
}

func buildResult(order *models.Order, quote pricing.Quote) *Result {
	result := &Result{
		OrderID:        order.ID,
		TotalAmount:    order.TotalAmount,
		OrderDate:      order.OrderDate,
		Items:          make([]Item, 0, len(quote.Lines)),
		GamesPurchased: make([]string, 0, len(quote.Lines)),
	}
	for _, line := range quote.Lines {
		result.Items = append(result.Items, Item{
			GameID:        line.GameID,
			Title:         line.Title,
			PurchasePrice: line.Price,
			Quantity:      1,
		})
		result.GamesPurchased = append(result.GamesPurchased, line.Title)
	}
	return result
}

func outcomeFor(err error) string {
	if err == nil {
		return metrics.OutcomeSuccess
	}
	switch pkgerrors.CodeOf(err) {
	case pkgerrors.CodeValidation:
		return metrics.OutcomeValidation
	case pkgerrors.CodeNotFound:
		return metrics.OutcomeNotFound
	case pkgerrors.CodeConflict:
		return metrics.OutcomeConflict
	default:
		return metrics.OutcomeError
	}
}
