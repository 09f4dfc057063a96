package addresses

import (
	"time"

	"github.com/google/uuid"

	"github.com/playdepot/playdepot-backend/pkg/db/models"
)

// View is the API shape of a saved address.
type View struct {
	ID        uuid.UUID `json:"id"`
	Street    string    `json:"street"`
	Suburb    string    `json:"suburb"`
	City      string    `json:"city"`
	Postcode  string    `json:"postcode"`
	Country   string    `json:"country"`
	CreatedAt time.Time `json:"created_at"`
}

func ToView(addr models.Address) View {
	return View{
		ID:        addr.ID,
		Street:    addr.Street,
		Suburb:    addr.Suburb,
		City:      addr.City,
		Postcode:  addr.Postcode,
		Country:   addr.Country,
		CreatedAt: addr.CreatedAt,
	}
}

func ToViews(rows []models.Address) []View {
	views := make([]View, 0, len(rows))
	for _, row := range rows {
		views = append(views, ToView(row))
	}
	return views
}
