package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/playdepot/playdepot-backend/pkg/auth"
	"github.com/playdepot/playdepot-backend/pkg/config"
	"github.com/playdepot/playdepot-backend/pkg/logger"
)

// devtoken prints a signed access token for local testing against the API.
func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "devtoken"})

	_ = godotenv.Load()

	userID := flag.Uint("user-id", 0, "user id to embed in the token")
	username := flag.String("username", "", "username to embed in the token")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logg.Error(ctx, "failed to load config", err)
		os.Exit(1)
	}
	if cfg.App.IsProd() {
		fmt.Fprintln(os.Stderr, "devtoken refuses to run in prod")
		os.Exit(1)
	}
	if *userID == 0 {
		fmt.Fprintln(os.Stderr, "missing -user-id")
		os.Exit(1)
	}

	token, err := auth.MintAccessToken(cfg.JWT, time.Now(), auth.AccessTokenPayload{
		UserID:   *userID,
		Username: *username,
	})
	if err != nil {
		logg.Error(ctx, "failed to mint token", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
