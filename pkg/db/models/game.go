package models

import (
	"time"

	"github.com/shopspring/decimal"

	dbtypes "github.com/playdepot/playdepot-backend/pkg/db/types"
)

// Game is a catalog entry. The order flow only ever reads it.
type Game struct {
	ID            uint               `gorm:"column:id;primaryKey"`
	Title         string             `gorm:"column:title;size:255;not null;index"`
	Description   string             `gorm:"column:description;type:text;not null;default:''"`
	Price         decimal.Decimal    `gorm:"column:price;type:decimal(10,2);not null"`
	IsSale        bool               `gorm:"column:is_sale;not null;default:false"`
	SalePrice     *decimal.Decimal   `gorm:"column:sale_price;type:decimal(10,2)"`
	SaleStartDate *time.Time         `gorm:"column:sale_start_date;type:date"`
	SaleEndDate   *time.Time         `gorm:"column:sale_end_date;type:date"`
	ReleaseDate   time.Time          `gorm:"column:release_date;type:date;not null"`
	ImageURL      string             `gorm:"column:image_url;size:500;not null;default:''"`
	DownloadLink  *string            `gorm:"column:download_link;size:200"`
	Platforms     dbtypes.StringList `gorm:"column:platforms;type:text;not null"`
	Genres        dbtypes.StringList `gorm:"column:genres;type:text;not null"`
	CreatedAt     time.Time          `gorm:"column:created_at;autoCreateTime"`
}
