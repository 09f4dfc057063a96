package games

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/playdepot/playdepot-backend/internal/pricing"
	"github.com/playdepot/playdepot-backend/pkg/db"
	"github.com/playdepot/playdepot-backend/pkg/db/models"
	pkgerrors "github.com/playdepot/playdepot-backend/pkg/errors"
)

type ownershipReader interface {
	OwnedAmong(ctx context.Context, userID uint, gameIDs []uint) (map[uint]struct{}, error)
}

// GameView is a catalog entry as served to clients.
type GameView struct {
	ID             uint             `json:"id"`
	Title          string           `json:"title"`
	Description    string           `json:"description"`
	Price          decimal.Decimal  `json:"price"`
	IsSale         bool             `json:"is_sale"`
	SalePrice      *decimal.Decimal `json:"sale_price"`
	SaleStartDate  *time.Time       `json:"sale_start_date"`
	SaleEndDate    *time.Time       `json:"sale_end_date"`
	EffectivePrice decimal.Decimal  `json:"effective_price"`
	OnSaleNow      bool             `json:"on_sale_now"`
	ReleaseDate    time.Time        `json:"release_date"`
	ImageURL       string           `json:"image_url"`
	Platforms      []string         `json:"platforms"`
	Genres         []string         `json:"genres"`
	Owned          *bool            `json:"owned,omitempty"`
}

// Page is one page of the catalog listing.
type Page struct {
	Items    []GameView `json:"items"`
	Total    int64      `json:"total"`
	Page     int        `json:"page"`
	PageSize int        `json:"page_size"`
}

type Service struct {
	repo  Repository
	owned ownershipReader
	now   func() time.Time
}

func NewService(repo Repository, owned ownershipReader) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("games repository required")
	}
	if owned == nil {
		return nil, fmt.Errorf("ownership reader required")
	}
	return &Service{repo: repo, owned: owned, now: time.Now}, nil
}

// FindByIDs resolves the games that exist among ids.
func (s *Service) FindByIDs(ctx context.Context, ids []uint) ([]models.Game, error) {
	games, err := s.repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Internal(err, "load games")
	}
	return games, nil
}

// Get returns one game. userID may be zero.
func (s *Service) Get(ctx context.Context, id, userID uint) (*GameView, error) {
	game, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.NotFound("game not found")
		}
		return nil, pkgerrors.Internal(err, "load game")
	}
	views, err := s.views(ctx, []models.Game{*game}, userID)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// List runs the catalog pipeline for q.
func (s *Service) List(ctx context.Context, q Query, userID uint) (*Page, error) {
	q, err := NormalizeQuery(q, userID)
	if err != nil {
		return nil, err
	}
	filters, window := q.Stages(userID)
	games, total, err := s.repo.List(ctx, filters, window)
	if err != nil {
		return nil, pkgerrors.Internal(err, "list games")
	}
	items, err := s.views(ctx, games, userID)
	if err != nil {
		return nil, err
	}
	return &Page{Items: items, Total: total, Page: q.Page, PageSize: q.PageSize}, nil
}

func (s *Service) views(ctx context.Context, games []models.Game, userID uint) ([]GameView, error) {
	var owned map[uint]struct{}
	if userID != 0 && len(games) > 0 {
		ids := make([]uint, 0, len(games))
		for _, g := range games {
			ids = append(ids, g.ID)
		}
		var err error
		owned, err = s.owned.OwnedAmong(ctx, userID, ids)
		if err != nil {
			return nil, pkgerrors.Internal(err, "load ownership")
		}
	}

	now := s.now()
	views := make([]GameView, 0, len(games))
	for _, g := range games {
		view := GameView{
			ID:             g.ID,
			Title:          g.Title,
			Description:    g.Description,
			Price:          g.Price,
			IsSale:         g.IsSale,
			SalePrice:      g.SalePrice,
			SaleStartDate:  g.SaleStartDate,
			SaleEndDate:    g.SaleEndDate,
			EffectivePrice: pricing.EffectivePrice(g),
			OnSaleNow:      pricing.OnSaleNow(g, now),
			ReleaseDate:    g.ReleaseDate,
			ImageURL:       g.ImageURL,
			Platforms:      []string(g.Platforms),
			Genres:         []string(g.Genres),
		}
		if owned != nil {
			_, ok := owned[g.ID]
			view.Owned = &ok
		}
		views = append(views, view)
	}
	return views, nil
}
