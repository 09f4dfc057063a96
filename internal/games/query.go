package games

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/playdepot/playdepot-backend/pkg/enums"
	pkgerrors "github.com/playdepot/playdepot-backend/pkg/errors"
	"github.com/playdepot/playdepot-backend/pkg/pagination"
)

// Sort fields accepted by the catalog listing.
const (
	SortTitle       = "title"
	SortPrice       = "price"
	SortReleaseDate = "release_date"

	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// Query is the typed form of the catalog listing parameters.
type Query struct {
	Search   string
	OnSale   bool
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Platform string
	Genre    string
	// Owned filters to owned (true) or not owned (false) games. Requires a
	// user.
	Owned    *bool
	Sort     string
	Order    string
	Page     int
	PageSize int
}

// NormalizeQuery validates q and fills defaults. userID is zero for anonymous
// callers.
func NormalizeQuery(q Query, userID uint) (Query, error) {
	q.Search = strings.TrimSpace(q.Search)

	if q.MinPrice != nil && q.MinPrice.IsNegative() {
		return Query{}, invalidParam("min_price", "min_price must not be negative")
	}
	if q.MaxPrice != nil && q.MaxPrice.IsNegative() {
		return Query{}, invalidParam("max_price", "max_price must not be negative")
	}
	if q.MinPrice != nil && q.MaxPrice != nil && q.MinPrice.GreaterThan(*q.MaxPrice) {
		return Query{}, invalidParam("min_price", "min_price must not exceed max_price")
	}

	if q.Platform != "" {
		platform, err := enums.ParsePlatform(q.Platform)
		if err != nil {
			return Query{}, invalidParam("platform", err.Error())
		}
		q.Platform = platform.String()
	}
	if q.Genre != "" {
		genre, err := enums.ParseGenre(q.Genre)
		if err != nil {
			return Query{}, invalidParam("genre", err.Error())
		}
		q.Genre = genre.String()
	}

	if q.Owned != nil && userID == 0 {
		return Query{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "owned filter requires authentication")
	}

	q.Sort = strings.ToLower(strings.TrimSpace(q.Sort))
	switch q.Sort {
	case "":
		q.Sort = SortTitle
	case SortTitle, SortPrice, SortReleaseDate:
	default:
		return Query{}, invalidParam("sort", "sort must be one of title, price, release_date")
	}

	q.Order = strings.ToLower(strings.TrimSpace(q.Order))
	switch q.Order {
	case "":
		q.Order = OrderAsc
	case OrderAsc, OrderDesc:
	default:
		return Query{}, invalidParam("order", "order must be asc or desc")
	}

	if q.Page < 0 {
		return Query{}, invalidParam("page", "page must be positive")
	}
	if q.PageSize < 0 || q.PageSize > pagination.MaxLimit {
		return Query{}, invalidParam("page_size", "page_size must be between 1 and 100")
	}
	q.Page = pagination.NormalizePage(q.Page)
	q.PageSize = pagination.NormalizeLimit(q.PageSize)
	return q, nil
}

// Stages builds the listing pipeline for a normalized query. The filter
// stages come first so callers can count with them alone.
func (q Query) Stages(userID uint) (filters []Stage, window []Stage) {
	if q.Search != "" {
		filters = append(filters, Search(q.Search))
	}
	if q.OnSale {
		filters = append(filters, OnSale())
	}
	if q.MinPrice != nil || q.MaxPrice != nil {
		filters = append(filters, PriceBetween(q.MinPrice, q.MaxPrice))
	}
	if q.Platform != "" {
		filters = append(filters, Platform(q.Platform))
	}
	if q.Genre != "" {
		filters = append(filters, Genre(q.Genre))
	}
	if q.Owned != nil && userID != 0 {
		if *q.Owned {
			filters = append(filters, OwnedBy(userID))
		} else {
			filters = append(filters, NotOwnedBy(userID))
		}
	}
	window = []Stage{SortBy(q.Sort, q.Order), Paginate(q.Page, q.PageSize)}
	return filters, window
}

func invalidParam(field, message string) error {
	return pkgerrors.Validation(message).WithDetails(map[string]string{"field": field})
}
