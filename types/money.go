// Package types provides the value types shared across fundme.
package types

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// Decimals is the number of fractional digits of the native unit and of the
// reference currency once normalised (1 ether = 10^18 wei, 1 USD = 10^18).
const Decimals = 18

var (
	// ErrOverflow is returned when a result does not fit in 256 bits.
	ErrOverflow = errors.New("types: amount overflows 256 bits")

	// ErrUnderflow is returned when a subtraction would go below zero.
	ErrUnderflow = errors.New("types: amount underflows zero")

	// ErrInvalidAmount is returned for malformed or negative amounts.
	ErrInvalidAmount = errors.New("types: invalid amount")
)

var (
	maxAmount = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
	unit      = new(big.Int).Exp(big.NewInt(10), big.NewInt(Decimals), nil)
)

// Amount is a non-negative integer quantity bounded to 256 bits. It holds
// either native value in wei or a reference-currency value scaled by 10^18.
// Amounts are immutable; every operation returns a new value.
//
// Examples:
//   - Ether(1) = 1000000000000000000 wei
//   - USD(50)  = 50 * 10^18
//   - Wei(1)   = the smallest native unit
//
//nolint:recvcheck // Value receivers for read-only methods, pointer receivers for UnmarshalText/Scan.
type Amount struct {
	v *big.Int
}

// Zero is the zero Amount.
var Zero Amount

// Wei creates an Amount of n smallest native units.
func Wei(n int64) Amount { return mustFromInt64(n, 1) }

// Ether creates an Amount of n whole native units.
func Ether(n int64) Amount { return mustFromInt64(n, Decimals) }

// USD creates an 18-decimal reference-currency Amount of n whole dollars.
func USD(n int64) Amount { return mustFromInt64(n, Decimals) }

func mustFromInt64(n int64, scale int) Amount {
	if n < 0 {
		panic(fmt.Sprintf("types: negative amount %d", n))
	}
	v := big.NewInt(n)
	if scale > 1 {
		v.Mul(v, unit)
	}
	return Amount{v: v}
}

// NewAmount copies v into an Amount. v must be within [0, 2^256-1].
func NewAmount(v *big.Int) (Amount, error) {
	if v == nil {
		return Zero, nil
	}
	if v.Sign() < 0 {
		return Zero, fmt.Errorf("%w: %s is negative", ErrInvalidAmount, v)
	}
	if v.Cmp(maxAmount) > 0 {
		return Zero, ErrOverflow
	}
	return Amount{v: new(big.Int).Set(v)}, nil
}

// MaxAmount returns the largest representable Amount.
func MaxAmount() Amount { return Amount{v: new(big.Int).Set(maxAmount)} }

// ParseAmount parses a base-10 integer string in smallest units.
func ParseAmount(s string) (Amount, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return NewAmount(v)
}

// ParseEther parses a decimal string of whole native units ("0.1") into wei.
// More than 18 fractional digits is an error.
func ParseEther(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Zero, fmt.Errorf("%w: %q: %v", ErrInvalidAmount, s, err)
	}
	scaled := d.Shift(Decimals)
	if !scaled.Equal(scaled.Truncate(0)) {
		return Zero, fmt.Errorf("%w: %q has more than %d decimals", ErrInvalidAmount, s, Decimals)
	}
	return NewAmount(scaled.BigInt())
}

// BigInt returns a copy of the underlying integer.
func (a Amount) BigInt() *big.Int {
	if a.v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(a.v)
}

func (a Amount) int() *big.Int {
	if a.v == nil {
		return new(big.Int)
	}
	return a.v
}

// Add returns a+b, or ErrOverflow.
func (a Amount) Add(b Amount) (Amount, error) {
	r := new(big.Int).Add(a.int(), b.int())
	if r.Cmp(maxAmount) > 0 {
		return Zero, ErrOverflow
	}
	return Amount{v: r}, nil
}

// Sub returns a-b, or ErrUnderflow.
func (a Amount) Sub(b Amount) (Amount, error) {
	r := new(big.Int).Sub(a.int(), b.int())
	if r.Sign() < 0 {
		return Zero, ErrUnderflow
	}
	return Amount{v: r}, nil
}

// Mul returns a*m, or ErrOverflow.
func (a Amount) Mul(m *big.Int) (Amount, error) {
	if m.Sign() < 0 {
		return Zero, fmt.Errorf("%w: negative multiplier", ErrInvalidAmount)
	}
	r := new(big.Int).Mul(a.int(), m)
	if r.Cmp(maxAmount) > 0 {
		return Zero, ErrOverflow
	}
	return Amount{v: r}, nil
}

// Quo returns a/d truncated toward zero. d must be positive.
func (a Amount) Quo(d *big.Int) Amount {
	if d.Sign() <= 0 {
		panic("types: division by non-positive divisor")
	}
	return Amount{v: new(big.Int).Quo(a.int(), d)}
}

// Cmp compares a and b and returns -1, 0 or +1.
func (a Amount) Cmp(b Amount) int { return a.int().Cmp(b.int()) }

// Equal reports whether a == b.
func (a Amount) Equal(b Amount) bool { return a.Cmp(b) == 0 }

// LessThan reports whether a < b.
func (a Amount) LessThan(b Amount) bool { return a.Cmp(b) < 0 }

// IsZero reports whether the amount is zero.
func (a Amount) IsZero() bool { return a.int().Sign() == 0 }

// String returns the base-10 integer in smallest units.
func (a Amount) String() string { return a.int().String() }

// FormatEther renders the amount as whole units with up to 18 decimals,
// trailing zeros trimmed: Wei(1e17) renders "0.1".
func (a Amount) FormatEther() string {
	return decimal.NewFromBigInt(a.int(), -Decimals).String()
}

// Decimal returns the amount in whole units as a decimal.
func (a Amount) Decimal() decimal.Decimal {
	return decimal.NewFromBigInt(a.int(), -Decimals)
}

// MarshalText implements encoding.TextMarshaler.
func (a Amount) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Amount) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*a = Zero
		return nil
	}
	parsed, err := ParseAmount(string(data))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// MarshalJSON encodes the amount as a quoted integer string, since
// 256-bit values do not survive a float64 round trip.
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON accepts a quoted or bare integer.
func (a *Amount) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidAmount, data)
		}
		s = n.String()
	}
	return a.UnmarshalText([]byte(s))
}

// Value implements driver.Valuer. Amounts are stored as numeric text.
func (a Amount) Value() (driver.Value, error) {
	return a.String(), nil
}

// Scan implements sql.Scanner.
func (a *Amount) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*a = Zero
		return nil
	case string:
		return a.UnmarshalText([]byte(v))
	case []byte:
		return a.UnmarshalText(v)
	case int64:
		if v < 0 {
			return fmt.Errorf("%w: %d is negative", ErrInvalidAmount, v)
		}
		*a = Amount{v: big.NewInt(v)}
		return nil
	default:
		return fmt.Errorf("types: cannot scan %T into Amount", src)
	}
}

// Sum adds values, failing on overflow.
func Sum(values ...Amount) (Amount, error) {
	total := Zero
	for _, v := range values {
		var err error
		if total, err = total.Add(v); err != nil {
			return Zero, err
		}
	}
	return total, nil
}
