package controllers

import (
	"context"
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/playdepot/playdepot-backend/api/middleware"
	"github.com/playdepot/playdepot-backend/api/responses"
	"github.com/playdepot/playdepot-backend/api/validators"
	"github.com/playdepot/playdepot-backend/internal/games"
	pkgerrors "github.com/playdepot/playdepot-backend/pkg/errors"
	"github.com/playdepot/playdepot-backend/pkg/logger"
)

type catalogService interface {
	Get(ctx context.Context, id, userID uint) (*games.GameView, error)
	List(ctx context.Context, q games.Query, userID uint) (*games.Page, error)
}

// GamesList serves the filtered, sorted and paginated catalog.
func GamesList(svc catalogService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		q, err := parseCatalogQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.List(r.Context(), q, middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func GamesGet(svc catalogService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		id, err := parseUintParam(r, "gameId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.Get(r.Context(), id, middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

func parseCatalogQuery(r *http.Request) (games.Query, error) {
	q := games.Query{
		Search:   validators.QueryString(r, "q"),
		Platform: validators.QueryString(r, "platform"),
		Genre:    validators.QueryString(r, "genre"),
		Sort:     validators.QueryString(r, "sort"),
		Order:    validators.QueryString(r, "order"),
	}

	onSale, err := validators.ParseQueryBool(r, "on_sale")
	if err != nil {
		return games.Query{}, err
	}
	q.OnSale = onSale != nil && *onSale

	if q.Owned, err = validators.ParseQueryBool(r, "owned"); err != nil {
		return games.Query{}, err
	}
	if q.MinPrice, err = validators.ParseQueryDecimal(r, "min_price"); err != nil {
		return games.Query{}, err
	}
	if q.MaxPrice, err = validators.ParseQueryDecimal(r, "max_price"); err != nil {
		return games.Query{}, err
	}
	// Range checks belong to games.NormalizeQuery; only the integer shape is
	// enforced here.
	if q.Page, err = validators.ParseQueryInt(r, "page", 0, math.MinInt32, math.MaxInt32); err != nil {
		return games.Query{}, err
	}
	if q.PageSize, err = validators.ParseQueryInt(r, "page_size", 0, math.MinInt32, math.MaxInt32); err != nil {
		return games.Query{}, err
	}
	return q, nil
}

func parseUintParam(r *http.Request, name string) (uint, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, pkgerrors.Validation("invalid " + name).WithDetails(map[string]string{"field": name})
	}
	return uint(id), nil
}
