/*
Package asset describes the fungible assets held in custody.

An asset kind is identified by its ticker. At compile time, a kind is
represented by a type implementing Type, which lets code such as
escrow.Service[A] be parameterized with the asset it handles. At runtime
the same kind is represented by the ticker carried in an Amount.
*/
package asset

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/iov-one/custody/errors"
)

// IsTicker is the RegExp to ensure valid asset tickers
var IsTicker = regexp.MustCompile(`^[A-Z][A-Z0-9]{2,7}$`).MatchString

// Type is implemented by asset marker types. Ticker must return the same
// value for the zero value of the type and for every instance.
type Type interface {
	Ticker() string
}

// TickerOf returns the ticker of asset type A.
func TickerOf[A Type]() string {
	var a A
	return a.Ticker()
}

// Amount is a quantity of an asset known only at runtime.
type Amount struct {
	Ticker   string `json:"ticker"`
	Quantity uint64 `json:"quantity"`
}

// NewAmount returns an amount of given asset.
func NewAmount(quantity uint64, ticker string) Amount {
	return Amount{Ticker: ticker, Quantity: quantity}
}

// Validate returns an error if the ticker is not valid.
func (a Amount) Validate() error {
	if !IsTicker(a.Ticker) {
		return errors.Wrapf(errors.ErrAssetType, "invalid ticker %q", a.Ticker)
	}
	return nil
}

// IsZero returns true if no quantity is represented.
func (a Amount) IsZero() bool {
	return a.Quantity == 0
}

// SameType returns true if both amounts are of the same asset.
func (a Amount) SameType(b Amount) bool {
	return a.Ticker == b.Ticker
}

// Add returns the sum of both amounts. They must be of the same asset.
func (a Amount) Add(b Amount) (Amount, error) {
	if !a.SameType(b) {
		return Amount{}, errors.Wrapf(errors.ErrAssetType, "%s and %s", a.Ticker, b.Ticker)
	}
	sum := a.Quantity + b.Quantity
	if sum < a.Quantity {
		return Amount{}, errors.Wrap(errors.ErrOverflow, "amount")
	}
	return Amount{Ticker: a.Ticker, Quantity: sum}, nil
}

// Subtract returns a minus b. It fails with ErrInsufficientAmount if b is
// bigger than a.
func (a Amount) Subtract(b Amount) (Amount, error) {
	if !a.SameType(b) {
		return Amount{}, errors.Wrapf(errors.ErrAssetType, "%s and %s", a.Ticker, b.Ticker)
	}
	if b.Quantity > a.Quantity {
		return Amount{}, errors.Wrapf(errors.ErrInsufficientAmount, "%s is less than %s", a, b)
	}
	return Amount{Ticker: a.Ticker, Quantity: a.Quantity - b.Quantity}, nil
}

// String returns a human readable representation, for example "100 IOV".
func (a Amount) String() string {
	return fmt.Sprintf("%d %s", a.Quantity, a.Ticker)
}

// ParseAmount reads the format produced by String.
func ParseAmount(s string) (Amount, error) {
	parts := strings.Fields(s)
	if len(parts) != 2 {
		return Amount{}, errors.Wrapf(errors.ErrInput, "invalid amount %q", s)
	}
	q, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return Amount{}, errors.Wrapf(errors.ErrAmount, "invalid quantity %q", parts[0])
	}
	a := NewAmount(q, parts[1])
	return a, a.Validate()
}

// Balance is a quantity of asset A. Balances of different assets are
// different types and cannot be mixed by mistake.
type Balance[A Type] struct {
	value uint64
}

// NewBalance returns a balance of given quantity.
func NewBalance[A Type](quantity uint64) Balance[A] {
	return Balance[A]{value: quantity}
}

// BalanceOf converts a runtime amount into a balance. It fails with
// ErrAssetType if the amount is of a different asset.
func BalanceOf[A Type](amt Amount) (Balance[A], error) {
	if t := TickerOf[A](); amt.Ticker != t {
		return Balance[A]{}, errors.Wrapf(errors.ErrAssetType, "want %s, got %s", t, amt.Ticker)
	}
	return Balance[A]{value: amt.Quantity}, nil
}

// Value returns the quantity held.
func (b Balance[A]) Value() uint64 {
	return b.value
}

// Ticker returns the ticker of asset A.
func (b Balance[A]) Ticker() string {
	return TickerOf[A]()
}

// Amount returns the runtime representation of this balance.
func (b Balance[A]) Amount() Amount {
	return Amount{Ticker: b.Ticker(), Quantity: b.value}
}

// Join returns the sum of both balances.
func (b Balance[A]) Join(other Balance[A]) (Balance[A], error) {
	sum := b.value + other.value
	if sum < b.value {
		return Balance[A]{}, errors.Wrap(errors.ErrOverflow, "balance")
	}
	return Balance[A]{value: sum}, nil
}

// String returns a human readable representation.
func (b Balance[A]) String() string {
	return b.Amount().String()
}
