package controllers

import (
	"context"
	"net/http"

	"github.com/playdepot/playdepot-backend/api/responses"
	"github.com/playdepot/playdepot-backend/api/validators"
	"github.com/playdepot/playdepot-backend/internal/addresses"
	"github.com/playdepot/playdepot-backend/internal/cards"
	"github.com/playdepot/playdepot-backend/internal/checkout"
	pkgerrors "github.com/playdepot/playdepot-backend/pkg/errors"
	"github.com/playdepot/playdepot-backend/pkg/logger"
)

type checkoutService interface {
	Execute(ctx context.Context, userID uint, input checkout.Input) (*checkout.Result, error)
}

// Checkout purchases the requested games for the caller.
func Checkout(svc checkoutService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}
		userID, err := requireUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if payload.GameIDs == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Validation("game_ids must be an array of integers").
				WithDetails(map[string]string{"game_ids": "is required"}))
			return
		}

		result, err := svc.Execute(r.Context(), userID, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessMessage(w, result, "purchase completed")
	}
}

type checkoutRequest struct {
	GameIDs  []uint           `json:"game_ids"`
	FormData checkoutFormData `json:"form_data"`
}

type checkoutFormData struct {
	SaveCard       bool                `json:"saveCard"`
	SaveAddress    bool                `json:"saveAddress"`
	CardDetails    *cardDetailsPayload `json:"cardDetails"`
	AddressDetails *addressPayload     `json:"addressDetails"`
	// Address is the older name for AddressDetails.
	Address *addressPayload `json:"address"`
}

type cardDetailsPayload struct {
	NameOnCard string `json:"nameOnCard"`
	CardNumber string `json:"cardNumber"`
	ExpiryDate string `json:"expiryDate"`
	CVV        string `json:"cvv"`
}

type addressPayload struct {
	Street   string `json:"street"`
	Suburb   string `json:"suburb"`
	City     string `json:"city"`
	Postcode string `json:"postcode"`
	Country  string `json:"country"`
}

func (p checkoutRequest) toInput() checkout.Input {
	form := checkout.FormData{
		SaveCard:    p.FormData.SaveCard,
		SaveAddress: p.FormData.SaveAddress,
	}
	if c := p.FormData.CardDetails; c != nil {
		form.Card = &cards.CardInput{
			Number:     c.CardNumber,
			CVV:        c.CVV,
			Expiry:     c.ExpiryDate,
			NameOnCard: c.NameOnCard,
		}
	}
	addr := p.FormData.AddressDetails
	if addr == nil {
		addr = p.FormData.Address
	}
	if addr != nil {
		converted := addr.toInput()
		form.Address = &converted
	}
	return checkout.Input{GameIDs: p.GameIDs, Form: form}
}

func (a addressPayload) toInput() addresses.AddressInput {
	return addresses.AddressInput{
		Street:   a.Street,
		Suburb:   a.Suburb,
		City:     a.City,
		Postcode: a.Postcode,
		Country:  a.Country,
	}
}
