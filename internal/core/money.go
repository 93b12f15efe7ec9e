package core

import (
	"strconv"
	"strings"
)

// maxUnits keeps units*100 inside int64.
const maxUnits = (1<<63 - 1) / 100

// ParseDecimalToCents reads a positive amount written with a dot or a comma
// as decimal separator ("12.34", "12,34", "7"). Digits past the second
// decimal are rounded half-up on the third. Only ASCII digits are accepted.
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	units, frac, found := strings.Cut(s, ".")
	if s == "" || (found && strings.Contains(frac, ".")) {
		return 0, ErrInvalidAmount
	}
	if units == "" {
		if frac == "" {
			return 0, ErrInvalidAmount
		}
		units = "0"
	}
	if !asciiDigits(units) || !asciiDigits(frac) {
		return 0, ErrInvalidAmount
	}

	whole, err := strconv.ParseInt(units, 10, 64)
	if err != nil || whole > maxUnits {
		return 0, ErrInvalidAmount
	}

	var cents int64
	for i := 0; i < 2; i++ {
		cents *= 10
		if i < len(frac) {
			cents += int64(frac[i] - '0')
		}
	}
	if len(frac) > 2 && frac[2] >= '5' {
		cents++
	}

	total := whole*100 + cents
	if total <= 0 {
		return 0, ErrInvalidAmount
	}
	return total, nil
}

// asciiDigits reports whether s holds only 0-9. Empty is allowed.
func asciiDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func (m Money) Float() float64 {
	return float64(m.Cents) / 100.0
}

// String formats the amount with two decimals and a dot separator (e.g. "-12.30").
func (m Money) String() string {
	cents := m.Cents
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	frac := strconv.FormatInt(cents%100, 10)
	if len(frac) == 1 {
		frac = "0" + frac
	}
	return sign + strconv.FormatInt(cents/100, 10) + "." + frac
}
