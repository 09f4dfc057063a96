package checkout

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/playdepot/playdepot-backend/internal/addresses"
	"github.com/playdepot/playdepot-backend/internal/cards"
)

// Input is a checkout request for the authenticated user.
type Input struct {
	GameIDs []uint
	Form    FormData
}

// FormData carries the optional save-for-later details. Card and Address
// are nil when the client omitted them.
type FormData struct {
	SaveCard    bool
	SaveAddress bool
	Card        *cards.CardInput
	Address     *addresses.AddressInput
}

// Item is one purchased game in the response.
type Item struct {
	GameID        uint            `json:"game_id"`
	Title         string          `json:"title"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	Quantity      int             `json:"quantity"`
}

// Result summarizes a completed order.
type Result struct {
	OrderID        string          `json:"order_id"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	OrderDate      time.Time       `json:"order_date"`
	Items          []Item          `json:"items"`
	GamesPurchased []string        `json:"games_purchased"`
	CardSaved      bool            `json:"card_saved"`
	AddressSaved   bool            `json:"address_saved"`
}
