package money

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
)

var (
	ErrInvalidAmount = errors.New("amount must be a non-negative decimal integer")
)

// Amount is an unsigned token quantity of arbitrary precision.
// The zero value is 0. Amounts are immutable; arithmetic returns new values.
type Amount struct {
	v *big.Int
}

// Zero returns the zero amount.
func Zero() Amount { return Amount{} }

// FromUint64 builds an Amount from a machine integer.
func FromUint64(n uint64) Amount {
	return Amount{v: new(big.Int).SetUint64(n)}
}

// Parse reads a base-10 string. Signs, whitespace, and fractions are rejected.
func Parse(s string) (Amount, error) {
	if s == "" {
		return Amount{}, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return Amount{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
		}
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return Amount{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return Amount{v: v}, nil
}

// MustParse is Parse for constants and tests.
func MustParse(s string) Amount {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

func (a Amount) int() *big.Int {
	if a.v == nil {
		return new(big.Int)
	}
	return a.v
}

func (a Amount) IsZero() bool { return a.v == nil || a.v.Sign() == 0 }

// Cmp compares a and b and returns -1, 0 or +1.
func (a Amount) Cmp(b Amount) int { return a.int().Cmp(b.int()) }

func (a Amount) LessThan(b Amount) bool { return a.Cmp(b) < 0 }

func (a Amount) Add(b Amount) Amount {
	return Amount{v: new(big.Int).Add(a.int(), b.int())}
}

// Sub returns a-b. ok is false, and a is returned unchanged, when b > a.
func (a Amount) Sub(b Amount) (Amount, bool) {
	if a.LessThan(b) {
		return a, false
	}
	return Amount{v: new(big.Int).Sub(a.int(), b.int())}, true
}

func (a Amount) String() string { return a.int().String() }

// MarshalJSON encodes the amount as a decimal string so it survives clients
// whose native number type cannot hold it.
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: not a string", ErrInvalidAmount)
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
