package controllers

import (
	"context"
	"net/http"

	"github.com/playdepot/playdepot-backend/api/responses"
	"github.com/playdepot/playdepot-backend/api/validators"
	"github.com/playdepot/playdepot-backend/internal/cart"
	"github.com/playdepot/playdepot-backend/pkg/enums"
	pkgerrors "github.com/playdepot/playdepot-backend/pkg/errors"
	"github.com/playdepot/playdepot-backend/pkg/logger"
)

type cartService interface {
	List(ctx context.Context, userID uint) (*cart.Cart, error)
	Edit(ctx context.Context, userID uint, input cart.EditInput) (*cart.Cart, error)
}

func CartGet(svc cartService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		userID, err := requireUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		c, err := svc.List(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, c)
	}
}

// CartEdit applies an add, remove or set action and returns the updated cart.
func CartEdit(svc cartService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		userID, err := requireUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload editCartRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		action, err := enums.ParseCartAction(payload.Action)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Validation("action must be add, remove or set").
				WithDetails(map[string]string{"field": "action"}))
			return
		}

		c, err := svc.Edit(r.Context(), userID, cart.EditInput{
			GameID:   payload.GameID,
			Action:   action,
			Quantity: payload.Quantity,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessMessage(w, c, "cart updated")
	}
}

type editCartRequest struct {
	GameID   uint   `json:"game_id" validate:"required"`
	Action   string `json:"action" validate:"required"`
	Quantity int    `json:"quantity"`
}
