// Copyright 2023 The AthanorLabs/atomic-swap Authors
// SPDX-License-Identifier: LGPL-3.0-only

package maker

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/blocktrade-labs/swap-setup/internal/coins"
	"github.com/blocktrade-labs/swap-setup/internal/net/swapsetup"
)

func testConfig() Config {
	return Config{
		MinBuy:  coins.NewBitcoinAmount(100_000),   // 0.001 BTC
		MaxBuy:  coins.NewBitcoinAmount(100_000_000), // 1 BTC
		Network: coins.BlockchainNetwork{Bitcoin: coins.BitcoinMainnet, Monero: coins.MoneroMainnet},
	}
}

func testSnapshot() WalletSnapshot {
	return WalletSnapshot{
		MoneroBalance: coins.NewMoneroAmount(200 * coins.PiconeroPerXMR),
		LockFee:       coins.NewMoneroAmount(coins.PiconeroPerXMR / 1000),
	}
}

// happy path: the scenario from spec.md §8 #1.
func TestValidateQuote_Accepts(t *testing.T) {
	cfg := testConfig()
	req := swapsetup.SpotPriceRequest{
		BTC:               coins.NewBitcoinAmount(50_000_000), // 0.5 BTC
		BlockchainNetwork: cfg.Network,
	}
	rate := NewFixedRate(100 * coins.PiconeroPerXMR) // 100 XMR/BTC

	quoted, err := validateQuote(cfg, req, testSnapshot(), rate)
	require.NoError(t, err)
	require.Equal(t, coins.NewMoneroAmount(50*coins.PiconeroPerXMR), quoted)
}

// spec.md §8 #2: amount below the configured minimum.
func TestValidateQuote_BelowMinimum(t *testing.T) {
	cfg := testConfig()
	req := swapsetup.SpotPriceRequest{
		BTC:               coins.NewBitcoinAmount(50_000), // 0.0005 BTC
		BlockchainNetwork: cfg.Network,
	}
	rate := NewFixedRate(100 * coins.PiconeroPerXMR)

	_, err := validateQuote(cfg, req, testSnapshot(), rate)
	require.ErrorIs(t, err, ErrBelowMinimum)

	wire := ToWireError(err)
	require.Equal(t, swapsetup.AmountBelowMinimum, wire.Kind)
	require.Equal(t, cfg.MinBuy, *wire.Min)
	require.Equal(t, req.BTC, *wire.Buy)
}

func TestValidateQuote_AboveMaximum(t *testing.T) {
	cfg := testConfig()
	req := swapsetup.SpotPriceRequest{
		BTC:               coins.NewBitcoinAmount(200_000_000), // 2 BTC
		BlockchainNetwork: cfg.Network,
	}
	rate := NewFixedRate(100 * coins.PiconeroPerXMR)

	_, err := validateQuote(cfg, req, testSnapshot(), rate)
	require.ErrorIs(t, err, ErrAboveMaximum)

	wire := ToWireError(err)
	require.Equal(t, swapsetup.AmountAboveMaximum, wire.Kind)
	require.Equal(t, cfg.MaxBuy, *wire.Max)
}

// spec.md §8 #3: blockchain network mismatch.
func TestValidateQuote_NetworkMismatch(t *testing.T) {
	cfg := testConfig()
	req := swapsetup.SpotPriceRequest{
		BTC:               coins.NewBitcoinAmount(10_000_000),
		BlockchainNetwork: coins.BlockchainNetwork{Bitcoin: coins.BitcoinTestnet, Monero: coins.MoneroMainnet},
	}
	rate := NewFixedRate(100 * coins.PiconeroPerXMR)

	_, err := validateQuote(cfg, req, testSnapshot(), rate)
	require.ErrorIs(t, err, ErrNetworkMismatch)

	wire := ToWireError(err)
	require.Equal(t, swapsetup.BlockchainNetworkMismatch, wire.Kind)
	require.Equal(t, req.BlockchainNetwork, *wire.CLI)
	require.Equal(t, cfg.Network, *wire.ASB)
}

// spec.md §8 #4: balance too low. The wire projection must never carry the
// maker's actual balance.
func TestValidateQuote_BalanceTooLow(t *testing.T) {
	cfg := testConfig()
	req := swapsetup.SpotPriceRequest{
		BTC:               coins.NewBitcoinAmount(50_000_000), // 0.5 BTC
		BlockchainNetwork: cfg.Network,
	}
	rate := NewFixedRate(100 * coins.PiconeroPerXMR) // needs 50 XMR

	snapshot := WalletSnapshot{
		MoneroBalance: coins.NewMoneroAmount(10 * coins.PiconeroPerXMR),
	}

	_, err := validateQuote(cfg, req, snapshot, rate)
	require.ErrorIs(t, err, ErrBalanceTooLow)

	wire := ToWireError(err)
	require.Equal(t, swapsetup.BalanceTooLow, wire.Kind)
	require.Equal(t, req.BTC, *wire.Buy)
	require.Nil(t, wire.Min)
	require.Nil(t, wire.Max)
	require.Nil(t, wire.CLI)
}

// spec.md §8 #5: resume-only mode declines every request regardless of its
// contents.
func TestValidateQuote_ResumeOnly(t *testing.T) {
	cfg := testConfig()
	cfg.ResumeOnly = true
	req := swapsetup.SpotPriceRequest{
		BTC:               coins.NewBitcoinAmount(50_000_000),
		BlockchainNetwork: cfg.Network,
	}
	rate := NewFixedRate(100 * coins.PiconeroPerXMR)

	_, err := validateQuote(cfg, req, testSnapshot(), rate)
	require.ErrorIs(t, err, ErrNoSwapsAccepted)

	wire := ToWireError(err)
	require.Equal(t, swapsetup.NoSwapsAccepted, wire.Kind)
}

// First-failure-wins: a request that is both off-network and below minimum
// must report only the network mismatch (spec.md §8 "First-failure wins").
func TestValidateQuote_FirstFailureWins(t *testing.T) {
	cfg := testConfig()
	req := swapsetup.SpotPriceRequest{
		BTC:               coins.NewBitcoinAmount(1), // far below minimum too
		BlockchainNetwork: coins.BlockchainNetwork{Bitcoin: coins.BitcoinTestnet, Monero: coins.MoneroMainnet},
	}
	rate := NewFixedRate(100 * coins.PiconeroPerXMR)

	_, err := validateQuote(cfg, req, testSnapshot(), rate)
	require.ErrorIs(t, err, ErrNetworkMismatch)
	require.NotErrorIs(t, err, ErrBelowMinimum)
}

// Internal errors that are not a quoteError at all (for example a plain I/O
// error from reading the substream) must collapse to OtherError on the
// wire, never leak the underlying cause.
func TestToWireError_UnrecognizedErrorIsOther(t *testing.T) {
	wire := ToWireError(errors.New("simulated transport error"))
	require.Equal(t, swapsetup.OtherError, wire.Kind)
	require.Nil(t, wire.Buy)
	require.Nil(t, wire.Min)
	require.Nil(t, wire.Max)
	require.Nil(t, wire.CLI)
}

// failingRateSource simulates a LatestRateFetchFailed condition: the rate
// feed is unreachable at quote time.
type failingRateSource struct{ err error }

func (f failingRateSource) GetRate() (Rate, error) { return nil, f.err }

// A rate-fetch failure is a validation failure like any other in the
// ordered pipeline (spec.md §4.3 step c): it must still collapse to
// OtherError on the wire rather than surfacing silently with no response,
// and it must not be reached at all when an earlier check (resume-only,
// network, min, max) already failed.
func TestValidateQuote_RateFetchFailureIsOther(t *testing.T) {
	cfg := testConfig()
	req := swapsetup.SpotPriceRequest{
		BTC:               coins.NewBitcoinAmount(50_000_000),
		BlockchainNetwork: cfg.Network,
	}
	rates := failingRateSource{err: errors.New("rate feed unavailable")}

	_, err := validateQuote(cfg, req, testSnapshot(), rates)
	require.Error(t, err)

	wire := ToWireError(err)
	require.Equal(t, swapsetup.OtherError, wire.Kind)
}

// First-failure-wins also applies to the rate fetch itself: an
// out-of-bounds amount must fail on AmountAboveMaximum even when the
// configured rate source would also fail, since bounds checks run first.
func TestValidateQuote_BoundsCheckedBeforeRateFetch(t *testing.T) {
	cfg := testConfig()
	req := swapsetup.SpotPriceRequest{
		BTC:               coins.NewBitcoinAmount(200_000_000), // 2 BTC, above max
		BlockchainNetwork: cfg.Network,
	}
	rates := failingRateSource{err: errors.New("rate feed unavailable")}

	_, err := validateQuote(cfg, req, testSnapshot(), rates)
	require.ErrorIs(t, err, ErrAboveMaximum)
}
