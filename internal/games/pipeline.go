package games

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	dbtypes "github.com/playdepot/playdepot-backend/pkg/db/types"
	"github.com/playdepot/playdepot-backend/pkg/pagination"
)

// Stage narrows or orders a games query.
type Stage func(*gorm.DB) *gorm.DB

const effectivePriceSQL = "(CASE WHEN is_sale = TRUE AND sale_price IS NOT NULL THEN sale_price ELSE price END)"

// Apply runs stages in order.
func Apply(tx *gorm.DB, stages ...Stage) *gorm.DB {
	for _, stage := range stages {
		tx = stage(tx)
	}
	return tx
}

// Search matches the title case-insensitively.
func Search(term string) Stage {
	pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
	return func(tx *gorm.DB) *gorm.DB {
		return tx.Where("LOWER(title) LIKE ? ESCAPE '!'", pattern)
	}
}

func OnSale() Stage {
	return func(tx *gorm.DB) *gorm.DB {
		return tx.Where("is_sale = ? AND sale_price IS NOT NULL", true)
	}
}

// PriceBetween bounds the effective price. Either bound may be nil. Bounds are
// bound as floats since sqlite compares an untyped expression against text.
func PriceBetween(min, max *decimal.Decimal) Stage {
	return func(tx *gorm.DB) *gorm.DB {
		if min != nil {
			tx = tx.Where(effectivePriceSQL+" >= ?", min.InexactFloat64())
		}
		if max != nil {
			tx = tx.Where(effectivePriceSQL+" <= ?", max.InexactFloat64())
		}
		return tx
	}
}

func Platform(platform string) Stage {
	return func(tx *gorm.DB) *gorm.DB {
		return tx.Where("platforms LIKE ?", dbtypes.LikePattern(platform))
	}
}

func Genre(genre string) Stage {
	return func(tx *gorm.DB) *gorm.DB {
		return tx.Where("genres LIKE ?", dbtypes.LikePattern(genre))
	}
}

func OwnedBy(userID uint) Stage {
	return func(tx *gorm.DB) *gorm.DB {
		return tx.Where("id IN (SELECT game_id FROM owned_games WHERE user_id = ?)", userID)
	}
}

func NotOwnedBy(userID uint) Stage {
	return func(tx *gorm.DB) *gorm.DB {
		return tx.Where("id NOT IN (SELECT game_id FROM owned_games WHERE user_id = ?)", userID)
	}
}

// SortBy orders by a whitelisted field with id as the tie breaker. Unknown
// fields fall back to title.
func SortBy(field, direction string) Stage {
	column := "title"
	switch field {
	case SortPrice:
		column = effectivePriceSQL
	case SortReleaseDate:
		column = "release_date"
	}
	dir := "ASC"
	if direction == OrderDesc {
		dir = "DESC"
	}
	order := fmt.Sprintf("%s %s, id %s", column, dir, dir)
	return func(tx *gorm.DB) *gorm.DB {
		return tx.Order(order)
	}
}

func Paginate(page, size int) Stage {
	limit := pagination.NormalizeLimit(size)
	offset := pagination.Offset(page, size)
	return func(tx *gorm.DB) *gorm.DB {
		return tx.Offset(offset).Limit(limit)
	}
}

func escapeLike(value string) string {
	return strings.NewReplacer("!", "!!", "%", "!%", "_", "!_").Replace(value)
}
