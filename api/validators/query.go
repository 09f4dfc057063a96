package validators

import (
	"net/http"
	"strconv"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/playdepot/playdepot-backend/pkg/errors"
)

const maxQueryStringLen = 100

func ParseQueryInt(r *http.Request, key string, defaultVal, min, max int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return defaultVal, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.Validation("query parameter must be numeric").WithDetails(map[string]any{"field": key})
	}
	if value < min || value > max {
		return 0, pkgerrors.Validation("query parameter out of range").WithDetails(map[string]any{"field": key, "min": min, "max": max})
	}
	return value, nil
}

// ParseQueryBool returns nil when the parameter is absent.
func ParseQueryBool(r *http.Request, key string) (*bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, pkgerrors.Validation("query parameter must be a boolean").WithDetails(map[string]any{"field": key})
	}
	return &value, nil
}

// ParseQueryDecimal returns nil when the parameter is absent.
func ParseQueryDecimal(r *http.Request, key string) (*decimal.Decimal, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, pkgerrors.Validation("query parameter must be a number").WithDetails(map[string]any{"field": key})
	}
	return &value, nil
}

// QueryString trims the parameter, drops control characters and caps it at
// maxQueryStringLen runes.
func QueryString(r *http.Request, key string) string {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	var b strings.Builder
	n := 0
	for _, c := range raw {
		if unicode.IsControl(c) {
			continue
		}
		if n == maxQueryStringLen {
			break
		}
		b.WriteRune(c)
		n++
	}
	return b.String()
}
