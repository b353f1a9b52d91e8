package oracle

import (
	"errors"
	"fmt"
	"math"
	"regexp"

	"github.com/shopspring/decimal"
)

// usdcDecimals is the number of decimal places of the USDC token.
const usdcDecimals = 6

// ErrAmountOverflow is returned when an amount does not fit in int64 base units.
var ErrAmountOverflow = errors.New("amount overflows USDC base units")

var (
	addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)
	maxBaseUnits   = decimal.NewFromInt(math.MaxInt64)
)

// ToBaseUnits converts a dollar amount to USDC base units, flooring any
// fraction of a base unit. Negative amounts convert to zero.
func ToBaseUnits(amount float64) (int64, error) {
	d := decimal.NewFromFloat(amount)
	if d.IsNegative() {
		return 0, nil
	}
	units := d.Shift(usdcDecimals).Floor()
	if units.GreaterThan(maxBaseUnits) {
		return 0, fmt.Errorf("%w: %s", ErrAmountOverflow, d.String())
	}
	return units.IntPart(), nil
}

// FromBaseUnits renders USDC base units as a dollar amount.
func FromBaseUnits(units int64) string {
	return decimal.New(units, -usdcDecimals).StringFixed(2)
}

// IsAddress reports whether s is a 0x-prefixed 20-byte hex account address.
func IsAddress(s string) bool {
	return addressPattern.MatchString(s)
}
