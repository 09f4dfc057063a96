package cards

import (
	"strings"

	"github.com/playdepot/playdepot-backend/pkg/enums"
)

// ClassifyBrand detects the card network from the leading digits.
func ClassifyBrand(digits string) enums.CardBrand {
	switch {
	case strings.HasPrefix(digits, "4"):
		return enums.CardBrandVisa
	case len(digits) >= 2 && digits[0] == '5' && digits[1] >= '1' && digits[1] <= '5':
		return enums.CardBrandMastercard
	case strings.HasPrefix(digits, "34"), strings.HasPrefix(digits, "37"):
		return enums.CardBrandAmex
	default:
		return enums.CardBrandUnknown
	}
}
