// Package money rounds and formats amounts at the presentation boundary.
// Internal arithmetic keeps full decimal precision; only values leaving the
// process are cut down to the currency's minor unit.
package money

import (
	"fmt"
	"regexp"

	"github.com/shopspring/decimal"
)

var codeRe = regexp.MustCompile(`^[A-Z]{3}$`)

// exponents lists ISO 4217 minor units that differ from 2.
var exponents = map[string]int32{
	"BHD": 3, "JOD": 3, "KWD": 3, "OMR": 3, "TND": 3,
	"CLP": 0, "ISK": 0, "JPY": 0, "KRW": 0, "VND": 0,
}

// Currency is the reporting currency of a book of loans. The zero value is
// not usable; build one with NewCurrency.
type Currency struct {
	code  string
	minor int32
}

func NewCurrency(code string) (Currency, error) {
	if !codeRe.MatchString(code) {
		return Currency{}, fmt.Errorf("money: currency code %q is not three upper-case letters", code)
	}
	minor, ok := exponents[code]
	if !ok {
		minor = 2
	}
	return Currency{code: code, minor: minor}, nil
}

// MustCurrency panics on an invalid code. Package-level initialisation only.
func MustCurrency(code string) Currency {
	c, err := NewCurrency(code)
	if err != nil {
		panic(err)
	}
	return c
}

var USD = MustCurrency("USD")

func (c Currency) Code() string      { return c.code }
func (c Currency) MinorUnits() int32 { return c.minor }
func (c Currency) String() string    { return c.code }

// Round rounds half away from zero to the currency's minor unit.
func Round(amount decimal.Decimal, c Currency) decimal.Decimal {
	return amount.Round(c.minor)
}

// Format renders a rounded amount with its code, e.g. "1066.19 USD".
func Format(amount decimal.Decimal, c Currency) string {
	return amount.StringFixed(c.minor) + " " + c.code
}
