// Copyright 2023 The AthanorLabs/atomic-swap Authors
// SPDX-License-Identifier: LGPL-3.0-only

// Package coins provides the fixed-precision Bitcoin and Monero amount types
// used throughout the setup protocol, along with the small closed set of
// network identifiers the two chains can run on.
package coins

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/fxamacker/cbor/v2"
)

// ErrAmountOverflow is returned by checked arithmetic that would overflow or
// underflow the underlying fixed-precision representation.
var ErrAmountOverflow = errors.New("amount arithmetic overflowed")

// BitcoinAmount is a Bitcoin amount denominated in satoshis.
type BitcoinAmount struct {
	sats btcutil.Amount
}

// NewBitcoinAmount constructs a BitcoinAmount from a satoshi count.
func NewBitcoinAmount(sats int64) BitcoinAmount {
	return BitcoinAmount{sats: btcutil.Amount(sats)}
}

// BitcoinAmountFromBTC constructs a BitcoinAmount from a BTC-denominated float.
func BitcoinAmountFromBTC(btc float64) (BitcoinAmount, error) {
	amt, err := btcutil.NewAmount(btc)
	if err != nil {
		return BitcoinAmount{}, fmt.Errorf("invalid btc amount: %w", err)
	}
	return BitcoinAmount{sats: amt}, nil
}

// Sats returns the amount in satoshis.
func (a BitcoinAmount) Sats() int64 { return int64(a.sats) }

// BTC returns the amount as a floating-point BTC value, for display only.
func (a BitcoinAmount) BTC() float64 { return a.sats.ToBTC() }

// String implements fmt.Stringer.
func (a BitcoinAmount) String() string { return a.sats.String() }

// Cmp returns -1, 0 or 1 as a is less than, equal to, or greater than b.
func (a BitcoinAmount) Cmp(b BitcoinAmount) int {
	switch {
	case a.sats < b.sats:
		return -1
	case a.sats > b.sats:
		return 1
	default:
		return 0
	}
}

// LessThan reports whether a < b.
func (a BitcoinAmount) LessThan(b BitcoinAmount) bool { return a.sats < b.sats }

// GreaterThan reports whether a > b.
func (a BitcoinAmount) GreaterThan(b BitcoinAmount) bool { return a.sats > b.sats }

// Add returns a+b, failing if the result would overflow a signed 64-bit
// satoshi count.
func (a BitcoinAmount) Add(b BitcoinAmount) (BitcoinAmount, error) {
	sum := a.sats + b.sats
	if sum < a.sats {
		return BitcoinAmount{}, ErrAmountOverflow
	}
	return BitcoinAmount{sats: sum}, nil
}

// Sub returns a-b, failing if b > a.
func (a BitcoinAmount) Sub(b BitcoinAmount) (BitcoinAmount, error) {
	if b.sats > a.sats {
		return BitcoinAmount{}, ErrAmountOverflow
	}
	return BitcoinAmount{sats: a.sats - b.sats}, nil
}

// IsZero reports whether the amount is zero.
func (a BitcoinAmount) IsZero() bool { return a.sats == 0 }

// MarshalCBOR encodes the amount as a bare signed satoshi count. BitcoinAmount
// holds its value in an unexported field so that callers can't construct one
// out of thin air without going through the checked constructors above; the
// wire form is just the integer underneath.
func (a BitcoinAmount) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(int64(a.sats))
}

// UnmarshalCBOR decodes a bare signed satoshi count produced by MarshalCBOR.
func (a *BitcoinAmount) UnmarshalCBOR(data []byte) error {
	var sats int64
	if err := cbor.Unmarshal(data, &sats); err != nil {
		return fmt.Errorf("decoding bitcoin amount: %w", err)
	}
	a.sats = btcutil.Amount(sats)
	return nil
}

// PiconeroPerXMR is the number of piconero (the smallest Monero unit) in one XMR.
const PiconeroPerXMR = uint64(1e12)

// MoneroAmount is a Monero amount denominated in piconero.
type MoneroAmount struct {
	piconero uint64
}

// NewMoneroAmount constructs a MoneroAmount from a piconero count.
func NewMoneroAmount(piconero uint64) MoneroAmount {
	return MoneroAmount{piconero: piconero}
}

// Piconero returns the amount in piconero.
func (a MoneroAmount) Piconero() uint64 { return a.piconero }

// XMR returns the amount as a floating-point XMR value, for display only.
func (a MoneroAmount) XMR() float64 {
	return float64(a.piconero) / float64(PiconeroPerXMR)
}

// String implements fmt.Stringer.
func (a MoneroAmount) String() string {
	return fmt.Sprintf("%.12f XMR", a.XMR())
}

// Cmp returns -1, 0 or 1 as a is less than, equal to, or greater than b.
func (a MoneroAmount) Cmp(b MoneroAmount) int {
	switch {
	case a.piconero < b.piconero:
		return -1
	case a.piconero > b.piconero:
		return 1
	default:
		return 0
	}
}

// LessThan reports whether a < b.
func (a MoneroAmount) LessThan(b MoneroAmount) bool { return a.piconero < b.piconero }

// Add returns a+b, failing if the result would overflow uint64.
func (a MoneroAmount) Add(b MoneroAmount) (MoneroAmount, error) {
	sum := a.piconero + b.piconero
	if sum < a.piconero {
		return MoneroAmount{}, ErrAmountOverflow
	}
	return MoneroAmount{piconero: sum}, nil
}

// Sub returns a-b, failing if b > a.
func (a MoneroAmount) Sub(b MoneroAmount) (MoneroAmount, error) {
	if b.piconero > a.piconero {
		return MoneroAmount{}, ErrAmountOverflow
	}
	return MoneroAmount{piconero: a.piconero - b.piconero}, nil
}

// MarshalCBOR encodes the amount as a bare unsigned piconero count, the
// Monero-side counterpart to BitcoinAmount's wire form.
func (a MoneroAmount) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(a.piconero)
}

// UnmarshalCBOR decodes a bare unsigned piconero count produced by MarshalCBOR.
func (a *MoneroAmount) UnmarshalCBOR(data []byte) error {
	var piconero uint64
	if err := cbor.Unmarshal(data, &piconero); err != nil {
		return fmt.Errorf("decoding monero amount: %w", err)
	}
	a.piconero = piconero
	return nil
}
