// Package dbtest builds throwaway sqlite databases with the full schema.
package dbtest

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/playdepot/playdepot-backend/pkg/db"
	"github.com/playdepot/playdepot-backend/pkg/db/models"
	dbtypes "github.com/playdepot/playdepot-backend/pkg/db/types"
	"github.com/playdepot/playdepot-backend/pkg/migrate"
)

var seq atomic.Int64

// New opens a private in-memory sqlite database and migrates it.
func New(t testing.TB) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, seq.Add(1))
	conn, err := db.OpenSQLite(dsn)
	require.NoError(t, err)
	require.NoError(t, migrate.AutoMigrate(conn))
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return conn
}

// User inserts a user with a unique username and email.
func User(t testing.TB, conn *gorm.DB, username string) models.User {
	t.Helper()
	user := models.User{Username: username, Email: username + "@example.com"}
	require.NoError(t, conn.Create(&user).Error)
	return user
}

// GameOption customizes a seeded game.
type GameOption func(*models.Game)

// OnSale marks the game on sale at price.
func OnSale(price string) GameOption {
	return func(g *models.Game) {
		sale := decimal.RequireFromString(price)
		g.IsSale = true
		g.SalePrice = &sale
	}
}

// Released sets the release date.
func Released(at time.Time) GameOption {
	return func(g *models.Game) { g.ReleaseDate = at }
}

// Tagged sets platforms and genres.
func Tagged(platforms, genres []string) GameOption {
	return func(g *models.Game) {
		g.Platforms = dbtypes.StringList(platforms)
		g.Genres = dbtypes.StringList(genres)
	}
}

// Game inserts a catalog entry.
func Game(t testing.TB, conn *gorm.DB, title, price string, opts ...GameOption) models.Game {
	t.Helper()
	game := models.Game{
		Title:       title,
		Description: title + " description",
		Price:       decimal.RequireFromString(price),
		ReleaseDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Platforms:   dbtypes.StringList{"pc"},
		Genres:      dbtypes.StringList{"action"},
	}
	for _, opt := range opts {
		opt(&game)
	}
	require.NoError(t, conn.Create(&game).Error)
	return game
}

// Own grants a game to a user.
func Own(t testing.TB, conn *gorm.DB, userID, gameID uint) {
	t.Helper()
	require.NoError(t, conn.Create(&models.OwnedGame{UserID: userID, GameID: gameID, PurchaseDate: time.Now().UTC()}).Error)
}

// CartItem adds a game to a user's cart.
func CartItem(t testing.TB, conn *gorm.DB, userID, gameID uint, qty int) models.CartItem {
	t.Helper()
	item := models.CartItem{UserID: userID, GameID: gameID, Quantity: qty, AddedDate: time.Now().UTC()}
	require.NoError(t, conn.Create(&item).Error)
	return item
}
