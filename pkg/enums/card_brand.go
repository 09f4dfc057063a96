package enums

import "fmt"

// CardBrand is the network detected from a card number prefix.
type CardBrand string

const (
	CardBrandVisa       CardBrand = "Visa"
	CardBrandMastercard CardBrand = "Mastercard"
	CardBrandAmex       CardBrand = "American Express"
	CardBrandUnknown    CardBrand = "Unknown"
)

var validCardBrands = []CardBrand{
	CardBrandVisa,
	CardBrandMastercard,
	CardBrandAmex,
	CardBrandUnknown,
}

func (b CardBrand) String() string {
	return string(b)
}

func (b CardBrand) IsValid() bool {
	for _, candidate := range validCardBrands {
		if candidate == b {
			return true
		}
	}
	return false
}

func ParseCardBrand(value string) (CardBrand, error) {
	for _, candidate := range validCardBrands {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid card brand %q", value)
}
