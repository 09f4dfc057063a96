package controllers

import (
	"context"
	"net/http"

	"github.com/playdepot/playdepot-backend/api/responses"
	"github.com/playdepot/playdepot-backend/api/validators"
	"github.com/playdepot/playdepot-backend/internal/addresses"
	"github.com/playdepot/playdepot-backend/pkg/db/models"
	pkgerrors "github.com/playdepot/playdepot-backend/pkg/errors"
	"github.com/playdepot/playdepot-backend/pkg/logger"
)

type addressBook interface {
	Save(ctx context.Context, userID uint, input addresses.AddressInput) (*models.Address, bool, error)
	List(ctx context.Context, userID uint) ([]models.Address, error)
}

func AddressesList(svc addressBook, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "address service unavailable"))
			return
		}
		userID, err := requireUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.List(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, addresses.ToViews(rows))
	}
}

// AddressesCreate saves an address; 200 when the same address already exists.
func AddressesCreate(svc addressBook, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "address service unavailable"))
			return
		}
		userID, err := requireUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload addressPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		addr, created, err := svc.Save(r.Context(), userID, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if created {
			responses.WriteSuccessStatus(w, http.StatusCreated, addresses.ToView(*addr), "address saved")
			return
		}
		responses.WriteSuccessMessage(w, addresses.ToView(*addr), "address already saved")
	}
}
