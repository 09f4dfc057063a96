package cart

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/playdepot/playdepot-backend/internal/pricing"
	"github.com/playdepot/playdepot-backend/pkg/db/models"
	"github.com/playdepot/playdepot-backend/pkg/enums"
	pkgerrors "github.com/playdepot/playdepot-backend/pkg/errors"
	"github.com/playdepot/playdepot-backend/pkg/logger"
)

// MaxQuantity caps a single cart line.
const MaxQuantity = 99

type gameLookup interface {
	FindByIDs(ctx context.Context, ids []uint) ([]models.Game, error)
}

type ownershipReader interface {
	OwnedAmong(ctx context.Context, userID uint, gameIDs []uint) (map[uint]struct{}, error)
}

// EditInput mirrors the cart edit request.
type EditInput struct {
	GameID   uint
	Action   enums.CartAction
	Quantity int
}

// GameSummary is the game as embedded in cart lines.
type GameSummary struct {
	ID             uint            `json:"id"`
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	Price          decimal.Decimal `json:"price"`
	EffectivePrice decimal.Decimal `json:"effective_price"`
	Image          string          `json:"image"`
}

// Item is one cart line.
type Item struct {
	ID        uint            `json:"id"`
	Game      GameSummary     `json:"game"`
	Quantity  int             `json:"quantity"`
	AddedDate time.Time       `json:"added_date"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// Cart is the full cart with its total at current prices.
type Cart struct {
	Items []Item          `json:"items"`
	Total decimal.Decimal `json:"total"`
}

type Service struct {
	repo  Repository
	games gameLookup
	owned ownershipReader
	logg  *logger.Logger
	now   func() time.Time
}

func NewService(repo Repository, games gameLookup, owned ownershipReader, logg *logger.Logger) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if games == nil {
		return nil, fmt.Errorf("game lookup required")
	}
	if owned == nil {
		return nil, fmt.Errorf("ownership reader required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Service{repo: repo, games: games, owned: owned, logg: logg, now: time.Now}, nil
}

// Edit applies one cart action and returns the resulting cart.
func (s *Service) Edit(ctx context.Context, userID uint, input EditInput) (*Cart, error) {
	var err error
	switch input.Action {
	case enums.CartActionAdd:
		err = s.Add(ctx, userID, input.GameID, input.Quantity)
	case enums.CartActionSet:
		err = s.SetQuantity(ctx, userID, input.GameID, input.Quantity)
	case enums.CartActionRemove:
		err = s.Remove(ctx, userID, input.GameID)
	default:
		err = pkgerrors.Validation("action must be add, remove or set")
	}
	if err != nil {
		return nil, err
	}
	return s.List(ctx, userID)
}

// Add increments the quantity for gameID. A zero qty adds one.
func (s *Service) Add(ctx context.Context, userID, gameID uint, qty int) error {
	if qty == 0 {
		qty = 1
	}
	if qty < 0 || qty > MaxQuantity {
		return pkgerrors.Validation(fmt.Sprintf("quantity must be between 1 and %d", MaxQuantity))
	}
	if err := s.ensurePurchasable(ctx, userID, gameID); err != nil {
		return err
	}
	current, err := s.repo.Quantity(ctx, userID, gameID)
	if err != nil {
		return pkgerrors.Internal(err, "load cart quantity")
	}
	if current+qty > MaxQuantity {
		return pkgerrors.Validation(fmt.Sprintf("cart holds %d; quantity cannot exceed %d", current, MaxQuantity))
	}
	if err := s.repo.Increment(ctx, userID, gameID, qty, MaxQuantity, s.now().UTC()); err != nil {
		return pkgerrors.Internal(err, "add cart item")
	}
	s.logg.Info(s.logg.WithField(ctx, "game_id", gameID), "cart item added")
	return nil
}

// SetQuantity overwrites the quantity. Zero removes the line.
func (s *Service) SetQuantity(ctx context.Context, userID, gameID uint, qty int) error {
	if qty == 0 {
		return s.Remove(ctx, userID, gameID)
	}
	if qty < 0 || qty > MaxQuantity {
		return pkgerrors.Validation(fmt.Sprintf("quantity must be between 0 and %d", MaxQuantity))
	}
	if err := s.ensurePurchasable(ctx, userID, gameID); err != nil {
		return err
	}
	if err := s.repo.SetQuantity(ctx, userID, gameID, qty, s.now().UTC()); err != nil {
		return pkgerrors.Internal(err, "set cart quantity")
	}
	return nil
}

func (s *Service) Remove(ctx context.Context, userID, gameID uint) error {
	if gameID == 0 {
		return pkgerrors.Validation("game id required")
	}
	removed, err := s.repo.Remove(ctx, userID, gameID)
	if err != nil {
		return pkgerrors.Internal(err, "remove cart item")
	}
	if !removed {
		return pkgerrors.NotFound("game not in cart")
	}
	return nil
}

// List returns the cart with lines priced at the current effective price.
func (s *Service) List(ctx context.Context, userID uint) (*Cart, error) {
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Internal(err, "list cart")
	}
	cart := &Cart{Items: make([]Item, 0, len(rows)), Total: decimal.Zero}
	for _, row := range rows {
		item := ToItem(row)
		cart.Items = append(cart.Items, item)
		cart.Total = cart.Total.Add(item.LineTotal)
	}
	return cart, nil
}

// DeleteByGames drops purchased games from the cart.
func (s *Service) DeleteByGames(ctx context.Context, userID uint, gameIDs []uint) error {
	return s.repo.DeleteByGames(ctx, userID, gameIDs)
}

// ToItem renders a stored cart row.
func ToItem(row models.CartItem) Item {
	price := pricing.EffectivePrice(row.Game)
	return Item{
		ID: row.ID,
		Game: GameSummary{
			ID:             row.Game.ID,
			Title:          row.Game.Title,
			Description:    row.Game.Description,
			Price:          row.Game.Price,
			EffectivePrice: price,
			Image:          row.Game.ImageURL,
		},
		Quantity:  row.Quantity,
		AddedDate: row.AddedDate,
		LineTotal: price.Mul(decimal.NewFromInt(int64(row.Quantity))),
	}
}

func (s *Service) ensurePurchasable(ctx context.Context, userID, gameID uint) error {
	if gameID == 0 {
		return pkgerrors.Validation("game id required")
	}
	games, err := s.games.FindByIDs(ctx, []uint{gameID})
	if err != nil {
		return pkgerrors.Internal(err, "load game")
	}
	if len(games) == 0 {
		return pkgerrors.NotFound("game not found")
	}
	owned, err := s.owned.OwnedAmong(ctx, userID, []uint{gameID})
	if err != nil {
		return pkgerrors.Internal(err, "load ownership")
	}
	if _, ok := owned[gameID]; ok {
		return pkgerrors.Conflict("you already own " + games[0].Title)
	}
	return nil
}
