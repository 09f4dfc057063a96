package orders

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/playdepot/playdepot-backend/pkg/db/models"
)

// ItemView is one purchased game within an order.
type ItemView struct {
	GameID        uint            `json:"game_id"`
	Title         string          `json:"title"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	Quantity      int             `json:"quantity"`
}

// OrderView is the API shape of an order.
type OrderView struct {
	ID          string          `json:"id"`
	OrderDate   time.Time       `json:"order_date"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	IsCompleted bool            `json:"is_completed"`
	Items       []ItemView      `json:"items"`
}

// OrderList wraps a page of orders plus the next page cursor.
type OrderList struct {
	Orders     []OrderView `json:"orders"`
	NextCursor string      `json:"next_cursor,omitempty"`
}

func toView(order models.Order) OrderView {
	items := make([]ItemView, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, ItemView{
			GameID:        item.GameID,
			Title:         item.Game.Title,
			PurchasePrice: item.PurchasePrice,
			Quantity:      item.Quantity,
		})
	}
	return OrderView{
		ID:          order.ID,
		OrderDate:   order.OrderDate,
		TotalAmount: order.TotalAmount,
		IsCompleted: order.IsCompleted,
		Items:       items,
	}
}
