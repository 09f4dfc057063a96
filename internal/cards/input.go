package cards

import (
	"strconv"
	"strings"
	"time"

	pkgerrors "github.com/playdepot/playdepot-backend/pkg/errors"
)

const (
	minCardDigits = 13
	maxCardDigits = 19
)

// CardInput is the raw card data submitted by a buyer. CVV is checked and
// then dropped; it is never stored.
type CardInput struct {
	Number     string
	CVV        string
	Expiry     string
	NameOnCard string
}

type normalizedCard struct {
	digits     string
	nameOnCard string
	expiresOn  time.Time
}

func normalize(input CardInput, now time.Time) (normalizedCard, error) {
	digits := strings.NewReplacer(" ", "", "-", "").Replace(strings.TrimSpace(input.Number))
	if len(digits) < minCardDigits || len(digits) > maxCardDigits || !allDigits(digits) {
		return normalizedCard{}, fieldError("card_number", "card number must be 13-19 digits")
	}

	cvv := strings.TrimSpace(input.CVV)
	if len(cvv) < 3 || len(cvv) > 4 || !allDigits(cvv) {
		return normalizedCard{}, fieldError("cvv", "cvv must be 3 or 4 digits")
	}

	expiresOn, err := ParseExpiry(input.Expiry, now)
	if err != nil {
		return normalizedCard{}, err
	}

	name := strings.TrimSpace(input.NameOnCard)
	if name == "" {
		return normalizedCard{}, fieldError("name_on_card", "name on card is required")
	}

	return normalizedCard{digits: digits, nameOnCard: name, expiresOn: expiresOn}, nil
}

// ParseExpiry parses MM/YY and returns the last day of that month. Cards that
// expired before the month of now are rejected.
func ParseExpiry(value string, now time.Time) (time.Time, error) {
	parts := strings.Split(strings.TrimSpace(value), "/")
	if len(parts) != 2 || len(parts[0]) != 2 || len(parts[1]) != 2 || !allDigits(parts[0]) || !allDigits(parts[1]) {
		return time.Time{}, fieldError("expiry_date", "expiry must be MM/YY")
	}
	month, _ := strconv.Atoi(parts[0])
	year, _ := strconv.Atoi(parts[1])
	if month < 1 || month > 12 {
		return time.Time{}, fieldError("expiry_date", "expiry month must be 01-12")
	}
	year += 2000

	now = now.UTC()
	if year < now.Year() || (year == now.Year() && time.Month(month) < now.Month()) {
		return time.Time{}, fieldError("expiry_date", "card has expired")
	}
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC), nil
}

func allDigits(value string) bool {
	if value == "" {
		return false
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func fieldError(field, message string) error {
	return pkgerrors.Validation(message).WithDetails(map[string]string{"field": field})
}
