package model

import (
	"fmt"
	"strconv"
	"strings"
)

// AmountDecimals is the number of decimal places carried by an Amount.
const AmountDecimals = 9

const amountScale = 1_000_000_000

// Amount is a coin quantity in nano-units (10^-9 coin).
type Amount uint64

// String renders the amount with its decimal part, trailing zeros trimmed.
func (a Amount) String() string {
	whole := uint64(a) / amountScale
	frac := uint64(a) % amountScale
	if frac == 0 {
		return strconv.FormatUint(whole, 10)
	}
	f := strings.TrimRight(fmt.Sprintf("%09d", frac), "0")
	return fmt.Sprintf("%d.%s", whole, f)
}

// ParseAmount parses a decimal coin amount such as "0.1" or "42".
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" && frac == "" {
		return 0, fmt.Errorf("parse amount %q: empty", s)
	}
	if len(frac) > AmountDecimals {
		return 0, fmt.Errorf("parse amount %q: more than %d decimals", s, AmountDecimals)
	}
	var w uint64
	if whole != "" {
		v, err := strconv.ParseUint(whole, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("parse amount %q: %w", s, err)
		}
		w = v
	}
	var f uint64
	if frac != "" {
		padded := frac + strings.Repeat("0", AmountDecimals-len(frac))
		v, err := strconv.ParseUint(padded, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("parse amount %q: %w", s, err)
		}
		f = v
	}
	if w > (^uint64(0)-f)/amountScale {
		return 0, fmt.Errorf("parse amount %q: overflow", s)
	}
	return Amount(w*amountScale + f), nil
}

// MarshalText implements encoding.TextMarshaler.
func (a Amount) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Amount) UnmarshalText(text []byte) error {
	parsed, err := ParseAmount(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
