package addresses

import (
	"context"
	"fmt"
	"strings"

	"github.com/playdepot/playdepot-backend/pkg/db/models"
	pkgerrors "github.com/playdepot/playdepot-backend/pkg/errors"
)

// AddressInput is a submitted address. Suburb is optional.
type AddressInput struct {
	Street   string `json:"street"`
	Suburb   string `json:"suburb"`
	City     string `json:"city"`
	Postcode string `json:"postcode"`
	Country  string `json:"country"`
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("address repository required")
	}
	return &Service{repo: repo}, nil
}

// Save stores the address unless the user already saved the same one.
func (s *Service) Save(ctx context.Context, userID uint, input AddressInput) (*models.Address, bool, error) {
	if userID == 0 {
		return nil, false, pkgerrors.Validation("user id required")
	}
	addr := models.Address{
		UserID:   userID,
		Street:   strings.TrimSpace(input.Street),
		Suburb:   strings.TrimSpace(input.Suburb),
		City:     strings.TrimSpace(input.City),
		Postcode: strings.TrimSpace(input.Postcode),
		Country:  strings.TrimSpace(input.Country),
	}
	var missing []string
	for _, field := range []struct{ name, value string }{
		{"street", addr.Street},
		{"city", addr.City},
		{"postcode", addr.Postcode},
		{"country", addr.Country},
	} {
		if field.value == "" {
			missing = append(missing, field.name)
		}
	}
	if len(missing) > 0 {
		return nil, false, pkgerrors.Validation("address is incomplete").
			WithDetails(map[string]any{"missing": missing})
	}

	saved, created, err := s.repo.Upsert(ctx, &addr)
	if err != nil {
		return nil, false, pkgerrors.Internal(err, "save address")
	}
	return saved, created, nil
}

func (s *Service) List(ctx context.Context, userID uint) ([]models.Address, error) {
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Internal(err, "list addresses")
	}
	return rows, nil
}
