// Package pricing computes what a buyer pays for a set of games.
package pricing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/playdepot/playdepot-backend/pkg/db/models"
)

// Line is one priced game in a quote.
type Line struct {
	GameID uint            `json:"game_id"`
	Title  string          `json:"title"`
	Price  decimal.Decimal `json:"price"`
}

// Quote is the frozen pricing used to persist an order.
type Quote struct {
	Lines []Line          `json:"lines"`
	Total decimal.Decimal `json:"total"`
}

// EffectivePrice returns the sale price when the game is flagged on sale and a
// sale price is set. The sale window is not consulted.
func EffectivePrice(game models.Game) decimal.Decimal {
	if game.IsSale && game.SalePrice != nil {
		return *game.SalePrice
	}
	return game.Price
}

// Total sums effective prices exactly.
func Total(games []models.Game) decimal.Decimal {
	total := decimal.Zero
	for _, game := range games {
		total = total.Add(EffectivePrice(game))
	}
	return total
}

// BuildQuote prices games in input order.
func BuildQuote(games []models.Game) Quote {
	quote := Quote{
		Lines: make([]Line, 0, len(games)),
		Total: decimal.Zero,
	}
	for _, game := range games {
		price := EffectivePrice(game)
		quote.Lines = append(quote.Lines, Line{GameID: game.ID, Title: game.Title, Price: price})
		quote.Total = quote.Total.Add(price)
	}
	return quote
}

// OnSaleNow reports whether a sale is active at now, honouring the optional
// start and end dates. Display only.
func OnSaleNow(game models.Game, now time.Time) bool {
	if !game.IsSale || game.SalePrice == nil {
		return false
	}
	day := truncateDay(now)
	if game.SaleStartDate != nil && day.Before(truncateDay(*game.SaleStartDate)) {
		return false
	}
	if game.SaleEndDate != nil && day.After(truncateDay(*game.SaleEndDate)) {
		return false
	}
	return true
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
