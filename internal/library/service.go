package library

import (
	"context"
	"fmt"
	"time"

	pkgerrors "github.com/playdepot/playdepot-backend/pkg/errors"
)

// Entry is one owned game as returned by GET /api/library.
type Entry struct {
	GameID       uint      `json:"game_id"`
	Title        string    `json:"title"`
	ImageURL     string    `json:"image_url"`
	DownloadLink *string   `json:"download_link"`
	PurchaseDate time.Time `json:"purchase_date"`
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("library repository required")
	}
	return &Service{repo: repo}, nil
}

func (s *Service) List(ctx context.Context, userID uint) ([]Entry, error) {
	rows, err := s.repo.ListOwned(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Internal(err, "list library")
	}
	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, Entry{
			GameID:       row.GameID,
			Title:        row.Game.Title,
			ImageURL:     row.Game.ImageURL,
			DownloadLink: row.Game.DownloadLink,
			PurchaseDate: row.PurchaseDate,
		})
	}
	return entries, nil
}
