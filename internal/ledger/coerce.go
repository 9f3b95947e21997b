package ledger

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Field values arrive from JSON bodies, CLI flags and model tool calls, so each
// coercion accepts the native type, its string form and JSON numbers.

func coerceString(name string, v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "", nil
	case string:
		return strings.TrimSpace(val), nil
	case json.Number:
		return val.String(), nil
	case int, int64, float64:
		return fmt.Sprint(val), nil
	}
	return "", fmt.Errorf("%s: unsupported type %T: %w", name, v, ErrInvalidField)
}

func coerceDate(name string, v any) (civil.Date, error) {
	switch val := v.(type) {
	case civil.Date:
		return val, nil
	case time.Time:
		return civil.DateOf(val), nil
	case string:
		d, err := civil.ParseDate(strings.TrimSpace(val))
		if err != nil {
			return civil.Date{}, fmt.Errorf("%s: %q is not YYYY-MM-DD: %w", name, val, ErrInvalidField)
		}
		return d, nil
	}
	return civil.Date{}, fmt.Errorf("%s: unsupported type %T: %w", name, v, ErrInvalidField)
}

// coerceAccount accepts a non-negative integral code; nil and "" clear it.
func coerceAccount(name string, v any) (int, error) {
	var code int
	switch val := v.(type) {
	case nil:
		return 0, nil
	case int:
		code = val
	case int64:
		code = int(val)
	case float64:
		if val != math.Trunc(val) {
			return 0, fmt.Errorf("%s: %v is not an account code: %w", name, val, ErrInvalidField)
		}
		code = int(val)
	case json.Number:
		n, err := val.Int64()
		if err != nil {
			return 0, fmt.Errorf("%s: %q is not an account code: %w", name, val, ErrInvalidField)
		}
		code = int(n)
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return 0, nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, fmt.Errorf("%s: %q is not an account code: %w", name, val, ErrInvalidField)
		}
		code = n
	default:
		return 0, fmt.Errorf("%s: unsupported type %T: %w", name, v, ErrInvalidField)
	}
	if code < 0 {
		return 0, fmt.Errorf("%s: negative account code %d: %w", name, code, ErrInvalidField)
	}
	return code, nil
}

func coerceDecimal(name string, v any) (decimal.Decimal, error) {
	switch val := v.(type) {
	case nil:
		return decimal.Zero, nil
	case decimal.Decimal:
		return val, nil
	case int:
		return decimal.NewFromInt(int64(val)), nil
	case int64:
		return decimal.NewFromInt(val), nil
	case float64:
		return decimal.NewFromFloat(val), nil
	case json.Number:
		d, err := decimal.NewFromString(val.String())
		if err != nil {
			return decimal.Zero, fmt.Errorf("%s: %q: %w", name, val, ErrInvalidField)
		}
		return d, nil
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(val))
		if err != nil {
			return decimal.Zero, fmt.Errorf("%s: %q: %w", name, val, ErrInvalidField)
		}
		return d, nil
	}
	return decimal.Zero, fmt.Errorf("%s: unsupported type %T: %w", name, v, ErrInvalidField)
}

func coerceAmount(name string, v any) (decimal.Decimal, error) {
	d, err := coerceDecimal(name, v)
	if err != nil {
		return decimal.Zero, err
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%s: negative amount %s: %w", name, d, ErrInvalidField)
	}
	return d, nil
}

// coerceCurrency accepts an ISO 4217 code known to go-money.
func coerceCurrency(name string, v any) (string, error) {
	s, err := coerceString(name, v)
	if err != nil {
		return "", err
	}
	code := strings.ToUpper(s)
	if money.GetCurrency(code) == nil {
		return "", fmt.Errorf("%s: unknown currency %q: %w", name, s, ErrInvalidField)
	}
	return code, nil
}

// isBlank reports whether v counts as "not supplied" for a required field.
func isBlank(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(val) == ""
	}
	return false
}
