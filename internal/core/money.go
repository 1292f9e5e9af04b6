package core

import (
	"math"
	"strconv"
	"strings"
)

// ParseAmount converts user input to an amount. It accepts anything
// strconv.ParseFloat accepts once surrounding whitespace is trimmed, except
// NaN and infinities.
//
// Examples:
//
//	ParseAmount("3.50")  -> 3.5, nil
//	ParseAmount(" 12 ")  -> 12, nil
//	ParseAmount("1e3")   -> 1000, nil
//	ParseAmount("abc")   -> 0, ErrInvalidAmount
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrInvalidAmount
	}
	return v, nil
}

// FormatAmount renders the shortest decimal that round-trips, always with a
// fractional part ("3.5", "3.0"). Magnitudes of 1e7 and above, or below 1e-3,
// use computerized scientific notation ("1.0E7", "1.5E-4").
func FormatAmount(v float64) string {
	if abs := math.Abs(v); abs != 0 && (abs < 1e-3 || abs >= 1e7) {
		return formatScientific(v)
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

func formatScientific(v float64) string {
	s := strconv.FormatFloat(v, 'E', -1, 64)
	mantissa, exp, _ := strings.Cut(s, "E")
	if !strings.Contains(mantissa, ".") {
		mantissa += ".0"
	}
	e, err := strconv.Atoi(exp)
	if err != nil {
		return s
	}
	return mantissa + "E" + strconv.Itoa(e)
}
