// Package amount converts between token smallest units and display decimals.
//
// Smallest-unit values are *big.Int; display values are decimal.Decimal so
// 18-decimal quantities survive the round trip without float rounding.
package amount

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultDecimals is the decimal exponent used by ETH and most ERC20 tokens.
const DefaultDecimals int32 = 18

// Conversion errors.
var (
	ErrNegative      = errors.New("amount must not be negative")
	ErrNotFinite     = errors.New("amount must be finite")
	ErrPrecision     = errors.New("amount has more fractional digits than the token supports")
	ErrInvalidAmount = errors.New("invalid amount")
)

// DecToBn scales a display amount to smallest units.
func DecToBn(dec decimal.Decimal, decimals int32) (*big.Int, error) {
	if dec.IsNegative() {
		return nil, ErrNegative
	}
	scaled := dec.Shift(decimals)
	if !scaled.IsInteger() {
		return nil, ErrPrecision
	}
	return scaled.BigInt(), nil
}

// DecToBnFloat is DecToBn for float inputs. The float is read through its
// shortest decimal representation, so 123.456 scales to exactly 123456e15.
func DecToBnFloat(f float64, decimals int32) (*big.Int, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, ErrNotFinite
	}
	return DecToBn(decimal.NewFromFloat(f), decimals)
}

// ToDecimal converts smallest units to an exact display decimal.
func ToDecimal(amount *big.Int, decimals int32) decimal.Decimal {
	if amount == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(amount, -decimals)
}

// BnToDec converts smallest units to a float. Precision beyond float64 is lost.
func BnToDec(amount *big.Int, decimals int32) float64 {
	f, _ := ToDecimal(amount, decimals).Float64()
	return f
}

// FullDisplayBalance renders smallest units as a plain decimal string with
// no exponent and no trailing zeros.
func FullDisplayBalance(amount *big.Int, decimals int32) string {
	return ToDecimal(amount, decimals).String()
}

// Parse reads a non-negative decimal amount such as "1.5".
func Parse(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if d.IsNegative() {
		return decimal.Zero, ErrNegative
	}
	return d, nil
}

// ParseUnits reads a display amount and scales it to smallest units.
func ParseUnits(s string, decimals int32) (*big.Int, error) {
	d, err := Parse(s)
	if err != nil {
		return nil, err
	}
	return DecToBn(d, decimals)
}
