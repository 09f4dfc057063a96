package users

import (
	"context"
	"fmt"

	"github.com/playdepot/playdepot-backend/internal/cart"
	"github.com/playdepot/playdepot-backend/pkg/db"
	pkgerrors "github.com/playdepot/playdepot-backend/pkg/errors"
)

// Profile is the authenticated user with their cart.
type Profile struct {
	ID          uint        `json:"id"`
	Username    string      `json:"username"`
	Email       string      `json:"email"`
	FirstName   string      `json:"first_name"`
	LastName    string      `json:"last_name"`
	DisplayName string      `json:"display_name"`
	CartItems   []cart.Item `json:"cart_items"`
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	return &Service{repo: repo}, nil
}

func (s *Service) Profile(ctx context.Context, userID uint) (*Profile, error) {
	user, err := s.repo.FindWithCart(ctx, userID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.NotFound("user not found")
		}
		return nil, pkgerrors.Internal(err, "load user")
	}
	items := make([]cart.Item, 0, len(user.CartItems))
	for _, row := range user.CartItems {
		items = append(items, cart.ToItem(row))
	}
	return &Profile{
		ID:          user.ID,
		Username:    user.Username,
		Email:       user.Email,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		DisplayName: user.DisplayName(),
		CartItems:   items,
	}, nil
}
