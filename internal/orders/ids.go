package orders

import (
	"context"
	"errors"

	"github.com/playdepot/playdepot-backend/pkg/db"
	"github.com/playdepot/playdepot-backend/pkg/db/models"
	"github.com/playdepot/playdepot-backend/pkg/security"
)

// DefaultIDAttempts bounds order id regeneration on collision.
const DefaultIDAttempts = 5

// ErrIDSpaceExhausted means every generated id collided.
var ErrIDSpaceExhausted = errors.New("order id attempts exhausted")

// IDGenerator returns a candidate order id.
type IDGenerator func() (string, error)

// NewOrderID draws an 8-character alphanumeric id from crypto/rand.
func NewOrderID() (string, error) {
	return security.RandomAlphanumeric(models.OrderIDLength)
}

// CreateWithUniqueID assigns ids to order until one inserts without a
// primary key collision.
func CreateWithUniqueID(ctx context.Context, repo Repository, order *models.Order, attempts int, next IDGenerator) error {
	if attempts <= 0 {
		attempts = DefaultIDAttempts
	}
	if next == nil {
		next = NewOrderID
	}
	for i := 0; i < attempts; i++ {
		id, err := next()
		if err != nil {
			return err
		}
		order.ID = id
		err = repo.CreateOrder(ctx, order)
		if err == nil {
			return nil
		}
		if !db.IsUniqueViolation(err) {
			return err
		}
	}
	order.ID = ""
	return ErrIDSpaceExhausted
}
