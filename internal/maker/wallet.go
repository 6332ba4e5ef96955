// Copyright 2023 The AthanorLabs/atomic-swap Authors
// SPDX-License-Identifier: LGPL-3.0-only

package maker

import (
	"context"
	"fmt"
	"time"

	"github.com/btcsuite/btcd/btcutil"

	"github.com/blocktrade-labs/swap-setup/internal/coins"
)

// BitcoinWallet is the subset of bitcoin-wallet behaviour the handler needs
// in order to quote a price and reserve funds for a prospective swap. A real
// implementation is expected to wrap a full node or an Electrum-style
// client; the handler only ever sees this interface.
type BitcoinWallet interface {
	// Balance reports the wallet's current spendable balance.
	Balance(ctx context.Context) (coins.BitcoinAmount, error)

	// NewRedeemAddress returns a fresh address the maker controls, to be
	// revealed to the taker as the redeem path of the swap contract.
	NewRedeemAddress(ctx context.Context) (btcutil.Address, error)

	// NewPunishAddress returns a fresh address the maker controls, to be
	// revealed to the taker as the punish path of the swap contract.
	NewPunishAddress(ctx context.Context) (btcutil.Address, error)

	// EstimateRedeemFee estimates the on-chain fee for a future redeem
	// transaction at current network conditions.
	EstimateRedeemFee(ctx context.Context) (coins.BitcoinAmount, error)

	// EstimatePunishFee estimates the on-chain fee for a future punish
	// transaction at current network conditions.
	EstimatePunishFee(ctx context.Context) (coins.BitcoinAmount, error)
}

// MoneroWallet is the subset of monero-wallet behaviour the handler needs.
type MoneroWallet interface {
	// Balance reports the wallet's current unlocked balance.
	Balance(ctx context.Context) (coins.MoneroAmount, error)

	// EstimateLockFee estimates the fee for the XMR lock transaction the
	// maker will need to broadcast if this setup succeeds.
	EstimateLockFee(ctx context.Context) (coins.MoneroAmount, error)
}

// WalletSnapshot is a point-in-time read of both wallets plus the addresses
// and fee estimates needed to construct a quote and, if accepted, a
// setup/alice.State0. It is captured once per connection attempt via the
// single-slot request/reply rendezvous in snapshot.go, so that the balance
// the handler validates against is the same balance it commits to moments
// later — no second wallet round-trip can race it.
type WalletSnapshot struct {
	BitcoinBalance coins.BitcoinAmount
	MoneroBalance  coins.MoneroAmount
	LockFee        coins.MoneroAmount

	RedeemAddress btcutil.Address
	PunishAddress btcutil.Address
	RedeemFee     coins.BitcoinAmount
	PunishFee     coins.BitcoinAmount
}

// captureWalletSnapshot reads everything a WalletSnapshot needs from the two
// wallets. Callers are expected to invoke this from the single goroutine
// that owns wallet access (see snapshotRequester in snapshot.go), not
// directly from a per-connection handler goroutine.
func captureWalletSnapshot(ctx context.Context, btc BitcoinWallet, xmr MoneroWallet) (WalletSnapshot, error) {
	btcBalance, err := btc.Balance(ctx)
	if err != nil {
		return WalletSnapshot{}, fmt.Errorf("reading bitcoin balance: %w", err)
	}

	xmrBalance, err := xmr.Balance(ctx)
	if err != nil {
		return WalletSnapshot{}, fmt.Errorf("reading monero balance: %w", err)
	}

	lockFee, err := xmr.EstimateLockFee(ctx)
	if err != nil {
		return WalletSnapshot{}, fmt.Errorf("estimating monero lock fee: %w", err)
	}

	redeemAddr, err := btc.NewRedeemAddress(ctx)
	if err != nil {
		return WalletSnapshot{}, fmt.Errorf("allocating redeem address: %w", err)
	}

	punishAddr, err := btc.NewPunishAddress(ctx)
	if err != nil {
		return WalletSnapshot{}, fmt.Errorf("allocating punish address: %w", err)
	}

	redeemFee, err := btc.EstimateRedeemFee(ctx)
	if err != nil {
		return WalletSnapshot{}, fmt.Errorf("estimating redeem fee: %w", err)
	}

	punishFee, err := btc.EstimatePunishFee(ctx)
	if err != nil {
		return WalletSnapshot{}, fmt.Errorf("estimating punish fee: %w", err)
	}

	return WalletSnapshot{
		BitcoinBalance: btcBalance,
		MoneroBalance:  xmrBalance,
		LockFee:        lockFee,
		RedeemAddress:  redeemAddr,
		PunishAddress:  punishAddr,
		RedeemFee:      redeemFee,
		PunishFee:      punishFee,
	}, nil
}

// snapshotTimeout bounds how long a handler will wait for the wallet
// snapshot rendezvous to answer before treating the wallet side as
// unavailable.
const snapshotTimeout = 5 * time.Second
