package cards

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/playdepot/playdepot-backend/pkg/db"
	"github.com/playdepot/playdepot-backend/pkg/db/models"
	"github.com/playdepot/playdepot-backend/pkg/enums"
	pkgerrors "github.com/playdepot/playdepot-backend/pkg/errors"
	"github.com/playdepot/playdepot-backend/pkg/logger"
	"github.com/playdepot/playdepot-backend/pkg/security"
)

const maskPrefix = "****"

// CardView is the API representation of a stored card.
type CardView struct {
	ID             uuid.UUID       `json:"id"`
	NameOnCard     string          `json:"name_on_card"`
	LastFourDigits string          `json:"last_four_digits"`
	DisplayNumber  string          `json:"display_number"`
	CardBrand      enums.CardBrand `json:"card_brand"`
	ExpiryDate     string          `json:"expiry_date"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Service is the card vault.
type Service struct {
	repo   Repository
	cipher *security.CardCipher
	logg   *logger.Logger
	now    func() time.Time
}

// NewService builds the vault. A nil cipher disables encryption at rest and
// every reveal falls back to the masked number.
func NewService(repo Repository, cipher *security.CardCipher, logg *logger.Logger) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("card repository required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Service{repo: repo, cipher: cipher, logg: logg, now: time.Now}, nil
}

// WithClock overrides the clock used for expiry checks.
func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

// Store validates and saves a card for userID. Saving a card the user already
// stored returns the existing row with created=false.
func (s *Service) Store(ctx context.Context, userID uint, input CardInput) (*models.CreditCard, bool, error) {
	if userID == 0 {
		return nil, false, pkgerrors.Validation("user id required")
	}
	card, err := normalize(input, s.now())
	if err != nil {
		return nil, false, err
	}

	row := &models.CreditCard{
		UserID:         userID,
		NameOnCard:     card.nameOnCard,
		LastFourDigits: card.digits[len(card.digits)-4:],
		CardNumberHash: security.HashCardNumber(card.digits),
		ExpirationDate: card.expiresOn,
		CardBrand:      ClassifyBrand(card.digits),
	}
	if s.cipher != nil {
		sealed, err := s.cipher.Encrypt([]byte(card.digits), ownerAAD(userID))
		if err != nil {
			return nil, false, pkgerrors.Internal(err, "encrypt card number")
		}
		row.EncryptedCardNumber = sealed
	}

	saved, created, err := s.repo.UpsertByHash(ctx, row)
	switch {
	case errors.Is(err, ErrHashOwnedByOther):
		return nil, false, pkgerrors.Conflict("card already registered")
	case err != nil:
		return nil, false, pkgerrors.Internal(err, "store card")
	}

	fields := map[string]any{
		"card_id":    saved.ID.String(),
		"card_brand": saved.CardBrand,
		"last_four":  saved.LastFourDigits,
		"created":    created,
	}
	s.logg.Info(s.logg.WithFields(ctx, fields), "card stored")
	return saved, created, nil
}

// Reveal returns the full number only to the owner when it can be decrypted.
// Any other case yields the masked form.
func (s *Service) Reveal(ctx context.Context, card models.CreditCard, requestingUserID uint) string {
	masked := maskPrefix + card.LastFourDigits
	if requestingUserID == 0 || requestingUserID != card.UserID {
		return masked
	}
	if s.cipher == nil || len(card.EncryptedCardNumber) == 0 {
		return masked
	}
	plain, err := s.cipher.Decrypt(card.EncryptedCardNumber, ownerAAD(card.UserID))
	if err != nil {
		ctx = s.logg.WithField(ctx, "card_id", card.ID.String())
		s.logg.WarnErr(ctx, "card decrypt failed", err)
		return masked
	}
	return string(plain)
}

// List returns the user's cards with display numbers.
func (s *Service) List(ctx context.Context, userID uint) ([]CardView, error) {
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Internal(err, "list cards")
	}
	views := make([]CardView, 0, len(rows))
	for _, row := range rows {
		views = append(views, s.View(ctx, row, userID))
	}
	return views, nil
}

// View renders one card for the requesting user.
func (s *Service) View(ctx context.Context, card models.CreditCard, requestingUserID uint) CardView {
	return CardView{
		ID:             card.ID,
		NameOnCard:     card.NameOnCard,
		LastFourDigits: card.LastFourDigits,
		DisplayNumber:  s.Reveal(ctx, card, requestingUserID),
		CardBrand:      card.CardBrand,
		ExpiryDate:     card.ExpirationDate.Format("01/06"),
		CreatedAt:      card.CreatedAt,
	}
}

// Delete removes a card owned by userID.
func (s *Service) Delete(ctx context.Context, userID uint, cardID uuid.UUID) error {
	deleted, err := s.repo.Delete(ctx, userID, cardID)
	if err != nil {
		if db.IsNotFound(err) {
			return pkgerrors.NotFound("card not found")
		}
		return pkgerrors.Internal(err, "delete card")
	}
	if !deleted {
		return pkgerrors.NotFound("card not found")
	}
	return nil
}

func ownerAAD(userID uint) []byte {
	return []byte(fmt.Sprintf("user:%d", userID))
}
