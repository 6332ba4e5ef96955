// Copyright 2023 The AthanorLabs/atomic-swap Authors
// SPDX-License-Identifier: LGPL-3.0-only

package maker

import (
	"errors"
	"fmt"

	"github.com/blocktrade-labs/swap-setup/internal/coins"
	"github.com/blocktrade-labs/swap-setup/internal/net/swapsetup"
)

// Internal error kinds. These are the maker's own view of why a quote
// request was rejected, and may carry details (an actual balance, an
// internal cause) that must never reach the wire — see ToWireError for the
// one place that boundary is enforced.
var (
	ErrNoSwapsAccepted      = errors.New("maker is not currently accepting new swaps")
	ErrNetworkMismatch      = errors.New("requested network does not match maker's configured network")
	ErrBelowMinimum         = errors.New("requested amount is below the maker's configured minimum")
	ErrAboveMaximum         = errors.New("requested amount is above the maker's configured maximum")
	ErrBalanceTooLow        = errors.New("maker's monero balance cannot cover the requested amount")
	ErrWalletSnapshotFailed = errors.New("wallet snapshot request did not complete in time")
)

// TimeoutError reports that a setup attempt was abandoned because it did not
// reach State3 within its overall deadline. Seconds is carried for logging
// only; ToWireError never lets it reach the taker.
type TimeoutError struct {
	Seconds int
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("setup attempt timed out after %ds", e.Seconds)
}

// quoteError wraps one of the sentinels above with the concrete values
// needed to build both a log line and, for the kinds the wire protocol
// permits, a SpotPriceError.
type quoteError struct {
	kind     error
	min      coins.BitcoinAmount
	max      coins.BitcoinAmount
	buy      coins.BitcoinAmount
	cli      coins.BlockchainNetwork
	asb      coins.BlockchainNetwork
	balance  coins.MoneroAmount
	required coins.MoneroAmount
}

func (e *quoteError) Error() string {
	return fmt.Sprintf("%v", e.kind)
}

func (e *quoteError) Unwrap() error { return e.kind }

// ToWireError maps an internal quote rejection to the on-wire
// SpotPriceError the taker is allowed to see. Per the wire-leakage rule:
// BalanceTooLow never reports the maker's actual or required balance, and
// any error kind not explicitly recognized here collapses to OtherError
// with no detail at all, so a bug that produces an unexpected internal
// error type cannot accidentally leak it to a counterparty.
func ToWireError(err error) swapsetup.SpotPriceError {
	var qe *quoteError
	if !errors.As(err, &qe) {
		return swapsetup.SpotPriceError{Kind: swapsetup.OtherError}
	}

	switch {
	case errors.Is(qe.kind, ErrNoSwapsAccepted):
		return swapsetup.SpotPriceError{Kind: swapsetup.NoSwapsAccepted}

	case errors.Is(qe.kind, ErrNetworkMismatch):
		cli, asb := qe.cli, qe.asb
		return swapsetup.SpotPriceError{Kind: swapsetup.BlockchainNetworkMismatch, CLI: &cli, ASB: &asb}

	case errors.Is(qe.kind, ErrBelowMinimum):
		min := qe.min
		return swapsetup.SpotPriceError{Kind: swapsetup.AmountBelowMinimum, Min: &min, Buy: &qe.buy}

	case errors.Is(qe.kind, ErrAboveMaximum):
		max := qe.max
		return swapsetup.SpotPriceError{Kind: swapsetup.AmountAboveMaximum, Max: &max, Buy: &qe.buy}

	case errors.Is(qe.kind, ErrBalanceTooLow):
		buy := qe.buy
		return swapsetup.SpotPriceError{Kind: swapsetup.BalanceTooLow, Buy: &buy}

	default:
		return swapsetup.SpotPriceError{Kind: swapsetup.OtherError}
	}
}

// validateQuote runs the maker's first-failure-wins validation pipeline
// against a single SpotPriceRequest and the wallet snapshot captured for
// this connection attempt. The order here is load-bearing: a request that
// fails on network mismatch must never also be evaluated for amount
// bounds, so that a curious taker cannot distinguish "wrong network" from
// "wrong network, and also would have been below minimum" by probing with
// different amounts.
func validateQuote(cfg Config, req swapsetup.SpotPriceRequest, snapshot WalletSnapshot, rates RateSource) (coins.MoneroAmount, error) {
	if cfg.ResumeOnly {
		return coins.MoneroAmount{}, &quoteError{kind: ErrNoSwapsAccepted}
	}

	if !cfg.Network.Equal(req.BlockchainNetwork) {
		return coins.MoneroAmount{}, &quoteError{
			kind: ErrNetworkMismatch,
			cli:  req.BlockchainNetwork,
			asb:  cfg.Network,
		}
	}

	if req.BTC.LessThan(cfg.MinBuy) {
		return coins.MoneroAmount{}, &quoteError{
			kind: ErrBelowMinimum,
			min:  cfg.MinBuy,
			buy:  req.BTC,
		}
	}

	if req.BTC.GreaterThan(cfg.MaxBuy) {
		return coins.MoneroAmount{}, &quoteError{
			kind: ErrAboveMaximum,
			max:  cfg.MaxBuy,
			buy:  req.BTC,
		}
	}

	rate, err := rates.GetRate()
	if err != nil {
		return coins.MoneroAmount{}, fmt.Errorf("fetching latest rate: %w", err)
	}

	quoted, err := rate.Convert(req.BTC)
	if err != nil {
		return coins.MoneroAmount{}, fmt.Errorf("computing sell quote: %w", err)
	}

	required, err := quoted.Add(snapshot.LockFee)
	if err != nil {
		return coins.MoneroAmount{}, fmt.Errorf("adding lock fee to quote: %w", err)
	}

	if snapshot.MoneroBalance.LessThan(required) {
		return coins.MoneroAmount{}, &quoteError{
			kind:     ErrBalanceTooLow,
			balance:  snapshot.MoneroBalance,
			required: required,
			buy:      req.BTC,
		}
	}

	return quoted, nil
}
