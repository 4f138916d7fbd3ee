// Package normalize turns the raw strings typed into the editor into numbers.
//
// Every parser comes in two forms. The Parse* functions return the value
// together with a *ParseError so callers can decide what a bad field means
// for them. The short forms (Currency, Percent, Int) apply the report's
// silent-degrade policy and return zero on any failure.
package normalize

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// ErrEmpty is returned for blank input.
	ErrEmpty = errors.New("empty value")
	// ErrMalformed is returned when the input is not a number after cleanup.
	ErrMalformed = errors.New("malformed number")
)

// currencySymbols are stripped from the front of currency values.
var currencySymbols = []string{"£", "GBP", "€", "$"}

// plainNumber matches what decimal.NewFromString accepts once separators
// are gone. It rejects exponents and stray text that the decimal parser
// would otherwise let through.
var plainNumber = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)$`)

// ParseError records which field failed and why.
type ParseError struct {
	Field string
	Raw   string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("parse %q: %v", e.Raw, e.Err)
	}
	return fmt.Sprintf("parse %s %q: %v", e.Field, e.Raw, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ParseCurrency parses values such as "£290,000", "£2,750.50" or "1670".
// A leading currency symbol and group separators are removed first.
func ParseCurrency(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	for _, sym := range currencySymbols {
		if strings.HasPrefix(s, sym) {
			s = strings.TrimSpace(strings.TrimPrefix(s, sym))
			break
		}
	}
	// "-£120" puts the sign before the symbol
	if strings.HasPrefix(s, "-") {
		rest := strings.TrimSpace(s[1:])
		for _, sym := range currencySymbols {
			if strings.HasPrefix(rest, sym) {
				s = "-" + strings.TrimSpace(strings.TrimPrefix(rest, sym))
				break
			}
		}
	}
	return parseDecimal(raw, stripGroups(s))
}

// ParsePercent parses "20", "5.8" or "5.8%". The result is the number as
// written, so "20%" is 20, not 0.2.
func ParsePercent(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
	return parseDecimal(raw, s)
}

// ParseInt parses whole numbers such as "5", "508,986" or "84". A value with
// a fractional part is malformed.
func ParseInt(raw string) (int, error) {
	s := stripGroups(strings.TrimSpace(raw))
	if s == "" {
		return 0, &ParseError{Raw: raw, Err: ErrEmpty}
	}
	d, err := decimalFrom(raw, s)
	if err != nil {
		return 0, err
	}
	if !d.IsInteger() {
		return 0, &ParseError{Raw: raw, Err: ErrMalformed}
	}
	return int(d.IntPart()), nil
}

// Currency is ParseCurrency with failures mapped to 0.
func Currency(raw string) float64 {
	v, err := ParseCurrency(raw)
	if err != nil {
		return 0
	}
	return v
}

// Percent is ParsePercent with failures mapped to 0.
func Percent(raw string) float64 {
	v, err := ParsePercent(raw)
	if err != nil {
		return 0
	}
	return v
}

// Int is ParseInt with failures mapped to 0.
func Int(raw string) int {
	v, err := ParseInt(raw)
	if err != nil {
		return 0
	}
	return v
}

func stripGroups(s string) string {
	s = strings.ReplaceAll(s, ",", "")
	return strings.ReplaceAll(s, " ", "")
}

func parseDecimal(raw, cleaned string) (float64, error) {
	if cleaned == "" {
		return 0, &ParseError{Raw: raw, Err: ErrEmpty}
	}
	d, err := decimalFrom(raw, cleaned)
	if err != nil {
		return 0, err
	}
	return d.InexactFloat64(), nil
}

func decimalFrom(raw, cleaned string) (decimal.Decimal, error) {
	if !plainNumber.MatchString(cleaned) {
		return decimal.Zero, &ParseError{Raw: raw, Err: ErrMalformed}
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, &ParseError{Raw: raw, Err: fmt.Errorf("%w: %v", ErrMalformed, err)}
	}
	return d, nil
}

// Field attaches a field name to a *ParseError. Other errors pass through.
func Field(name string, err error) error {
	var pe *ParseError
	if errors.As(err, &pe) {
		named := *pe
		named.Field = name
		return &named
	}
	return err
}
