package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/playdepot/playdepot-backend/api/responses"
	"github.com/playdepot/playdepot-backend/api/validators"
	"github.com/playdepot/playdepot-backend/internal/cards"
	"github.com/playdepot/playdepot-backend/pkg/db/models"
	pkgerrors "github.com/playdepot/playdepot-backend/pkg/errors"
	"github.com/playdepot/playdepot-backend/pkg/logger"
)

type cardVault interface {
	Store(ctx context.Context, userID uint, input cards.CardInput) (*models.CreditCard, bool, error)
	List(ctx context.Context, userID uint) ([]cards.CardView, error)
	View(ctx context.Context, card models.CreditCard, requestingUserID uint) cards.CardView
	Delete(ctx context.Context, userID uint, cardID uuid.UUID) error
}

func CardsList(svc cardVault, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "card service unavailable"))
			return
		}
		userID, err := requireUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		views, err := svc.List(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, views)
	}
}

// CardsCreate stores a card. A card the user already saved is returned
// with 200 instead of 201.
func CardsCreate(svc cardVault, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "card service unavailable"))
			return
		}
		userID, err := requireUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload cardDetailsPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		card, created, err := svc.Store(r.Context(), userID, cards.CardInput{
			Number:     payload.CardNumber,
			CVV:        payload.CVV,
			Expiry:     payload.ExpiryDate,
			NameOnCard: payload.NameOnCard,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view := svc.View(r.Context(), *card, userID)
		if created {
			responses.WriteSuccessStatus(w, http.StatusCreated, view, "card saved")
			return
		}
		responses.WriteSuccessMessage(w, view, "card already saved")
	}
}

func CardsDelete(svc cardVault, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "card service unavailable"))
			return
		}
		userID, err := requireUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cardID, err := uuid.Parse(chi.URLParam(r, "cardId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid card id"))
			return
		}

		if err := svc.Delete(r.Context(), userID, cardID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessMessage(w, map[string]string{"id": cardID.String()}, "card deleted")
	}
}
