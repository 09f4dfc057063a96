package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playdepot/playdepot-backend/pkg/db/dbtest"
	pkgerrors "github.com/playdepot/playdepot-backend/pkg/errors"
)

func TestProfileIncludesCart(t *testing.T) {
	conn := dbtest.New(t)
	user := dbtest.User(t, conn, "ada")
	require.NoError(t, conn.Model(&user).Updates(map[string]any{"first_name": "Ada", "last_name": "Lovelace"}).Error)
	game := dbtest.Game(t, conn, "Alpha", "12.50")
	dbtest.CartItem(t, conn, user.ID, game.ID, 2)

	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)

	profile, err := svc.Profile(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "ada", profile.Username)
	assert.Equal(t, "ada@example.com", profile.Email)
	assert.Equal(t, "Ada Lovelace", profile.DisplayName)
	require.Len(t, profile.CartItems, 1)
	assert.Equal(t, "Alpha", profile.CartItems[0].Game.Title)
	assert.Equal(t, 2, profile.CartItems[0].Quantity)
	assert.Equal(t, "25.00", profile.CartItems[0].LineTotal.StringFixed(2))
}

func TestProfileFallsBackToUsername(t *testing.T) {
	conn := dbtest.New(t)
	user := dbtest.User(t, conn, "bob")
	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)

	profile, err := svc.Profile(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "bob", profile.DisplayName)
	assert.Empty(t, profile.CartItems)
	assert.NotNil(t, profile.CartItems)
}

func TestProfileUnknownUser(t *testing.T) {
	svc, err := NewService(NewRepository(dbtest.New(t)))
	require.NoError(t, err)

	_, err = svc.Profile(context.Background(), 404)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
}
