// Copyright 2023 The AthanorLabs/atomic-swap Authors
// SPDX-License-Identifier: LGPL-3.0-only

package maker

import (
	"fmt"

	"github.com/cockroachdb/apd/v3"

	"github.com/blocktrade-labs/swap-setup/internal/coins"
)

// Rate is an immutable BTC/XMR exchange rate snapshot: the amount of XMR
// the maker will give up for one unit of BTC, expressed through Convert
// rather than as a bare fraction so callers never have to reason about
// piconero/satoshi scaling themselves.
type Rate interface {
	// Convert returns the XMR amount the maker will offer for btc at this
	// rate.
	Convert(btc coins.BitcoinAmount) (coins.MoneroAmount, error)
}

// RateSource supplies the current Rate on demand. Implementations are free
// to cache, poll an external price feed, or return a fixed rate; the
// handler only calls GetRate once per connection attempt, at quote time.
type RateSource interface {
	GetRate() (Rate, error)
}

// satsPerBTC is the number of satoshis in one whole bitcoin, as a Decimal
// divisor for the sell-quote calculation below.
var satsPerBTC = apd.New(1e8, 0)

// rateCtx bounds the precision used for the sell-quote multiply/divide.
// 40 digits comfortably covers a uint64 piconero price times a uint64
// satoshi amount with no truncation before the final floor.
var rateCtx = apd.BaseContext.WithPrecision(40)

// fixedRate is the simplest Rate implementation: a constant price, used by
// cmd/makerd when no external price feed is configured. The price is held
// as a Decimal, not a float, so that sell-quote calculation never loses
// precision to binary floating point the way a plain float64 price would.
type fixedRate struct {
	piconeroPerBTC *apd.Decimal
}

// NewFixedRate builds a Rate (and, since the price never changes, its own
// RateSource) that always converts at the given piconero-per-bitcoin price.
func NewFixedRate(piconeroPerBTC uint64) fixedRate {
	return fixedRate{piconeroPerBTC: apd.New(int64(piconeroPerBTC), 0)}
}

// GetRate implements RateSource by returning the fixed rate itself: a
// constant price is trivially "cloneable" and never fails to fetch.
func (r fixedRate) GetRate() (Rate, error) { return r, nil }

// Convert implements Rate's sell_quote: xmr = floor(btc_sats * piconeroPerBTC / satsPerBTC).
func (r fixedRate) Convert(btc coins.BitcoinAmount) (coins.MoneroAmount, error) {
	sats := btc.Sats()
	if sats < 0 {
		return coins.MoneroAmount{}, fmt.Errorf("negative bitcoin amount %d", sats)
	}

	satsDec := apd.New(sats, 0)

	product := new(apd.Decimal)
	if _, err := rateCtx.Mul(product, satsDec, r.piconeroPerBTC); err != nil {
		return coins.MoneroAmount{}, fmt.Errorf("computing sell quote: %w", err)
	}

	quotient := new(apd.Decimal)
	if _, err := rateCtx.Quo(quotient, product, satsPerBTC); err != nil {
		return coins.MoneroAmount{}, fmt.Errorf("computing sell quote: %w", err)
	}

	floored := new(apd.Decimal)
	if _, err := rateCtx.Floor(floored, quotient); err != nil {
		return coins.MoneroAmount{}, fmt.Errorf("rounding sell quote: %w", err)
	}

	piconero, err := floored.Int64()
	if err != nil {
		return coins.MoneroAmount{}, fmt.Errorf("converting sell quote to piconero: %w", err)
	}
	if piconero < 0 {
		return coins.MoneroAmount{}, fmt.Errorf("computed negative sell quote")
	}

	return coins.NewMoneroAmount(uint64(piconero)), nil
}
