package orders

import (
	"context"
	"fmt"
	"strings"

	"github.com/playdepot/playdepot-backend/pkg/db"
	pkgerrors "github.com/playdepot/playdepot-backend/pkg/errors"
	"github.com/playdepot/playdepot-backend/pkg/pagination"
)

// Service exposes order history reads.
type Service interface {
	List(ctx context.Context, userID uint, params pagination.Params) (*OrderList, error)
	Get(ctx context.Context, userID uint, orderID string) (*OrderView, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, userID uint, params pagination.Params) (*OrderList, error) {
	if _, err := pagination.ParseCursor(params.Cursor); err != nil {
		return nil, pkgerrors.Validation("invalid cursor")
	}
	rows, next, err := s.repo.ListByUser(ctx, userID, params)
	if err != nil {
		return nil, pkgerrors.Internal(err, "list orders")
	}
	list := &OrderList{Orders: make([]OrderView, 0, len(rows))}
	for _, row := range rows {
		list.Orders = append(list.Orders, toView(row))
	}
	if next != nil {
		list.NextCursor = pagination.EncodeCursor(*next)
	}
	return list, nil
}

// Get returns an order owned by userID. Orders of other users are reported
// as missing.
func (s *service) Get(ctx context.Context, userID uint, orderID string) (*OrderView, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, pkgerrors.Validation("order id required")
	}
	order, err := s.repo.FindForUser(ctx, userID, orderID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.NotFound("order not found")
		}
		return nil, pkgerrors.Internal(err, "load order")
	}
	view := toView(*order)
	return &view, nil
}
