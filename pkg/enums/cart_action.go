package enums

import (
	"fmt"
	"strings"
)

// CartAction is the operation requested by POST /api/cart/edit.
type CartAction string

const (
	CartActionAdd    CartAction = "add"
	CartActionRemove CartAction = "remove"
	CartActionSet    CartAction = "set"
)

var validCartActions = []CartAction{CartActionAdd, CartActionRemove, CartActionSet}

func (a CartAction) IsValid() bool {
	for _, candidate := range validCartActions {
		if candidate == a {
			return true
		}
	}
	return false
}

func ParseCartAction(value string) (CartAction, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validCartActions {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid cart action %q", value)
}
