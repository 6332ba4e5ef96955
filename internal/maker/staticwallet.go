// Copyright 2023 The AthanorLabs/atomic-swap Authors
// SPDX-License-Identifier: LGPL-3.0-only

package maker

import (
	"context"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"

	"github.com/blocktrade-labs/swap-setup/internal/coins"
)

// StaticBitcoinWallet is a fixed-balance BitcoinWallet, useful for running
// cmd/makerd against a known balance without wiring a full node or
// Electrum-style client. Production deployments are expected to supply
// their own BitcoinWallet backed by a real wallet process.
type StaticBitcoinWallet struct {
	balance   coins.BitcoinAmount
	redeemFee coins.BitcoinAmount
	punishFee coins.BitcoinAmount
	params    *chaincfg.Params

	nextAddr func() (btcutil.Address, error)
}

// NewStaticBitcoinWallet builds a StaticBitcoinWallet that always reports
// balance and always mints fresh addresses via nextAddr (typically a
// wrapped HD wallet's NewAddress, or, for tests, a fixed address).
func NewStaticBitcoinWallet(
	balance, redeemFee, punishFee coins.BitcoinAmount,
	params *chaincfg.Params,
	nextAddr func() (btcutil.Address, error),
) *StaticBitcoinWallet {
	return &StaticBitcoinWallet{
		balance:   balance,
		redeemFee: redeemFee,
		punishFee: punishFee,
		params:    params,
		nextAddr:  nextAddr,
	}
}

// Balance implements BitcoinWallet.
func (w *StaticBitcoinWallet) Balance(context.Context) (coins.BitcoinAmount, error) {
	return w.balance, nil
}

// NewRedeemAddress implements BitcoinWallet.
func (w *StaticBitcoinWallet) NewRedeemAddress(context.Context) (btcutil.Address, error) {
	return w.nextAddr()
}

// NewPunishAddress implements BitcoinWallet.
func (w *StaticBitcoinWallet) NewPunishAddress(context.Context) (btcutil.Address, error) {
	return w.nextAddr()
}

// EstimateRedeemFee implements BitcoinWallet.
func (w *StaticBitcoinWallet) EstimateRedeemFee(context.Context) (coins.BitcoinAmount, error) {
	return w.redeemFee, nil
}

// EstimatePunishFee implements BitcoinWallet.
func (w *StaticBitcoinWallet) EstimatePunishFee(context.Context) (coins.BitcoinAmount, error) {
	return w.punishFee, nil
}

// StaticMoneroWallet is a fixed-balance MoneroWallet, the xmr counterpart
// to StaticBitcoinWallet.
type StaticMoneroWallet struct {
	balance coins.MoneroAmount
	lockFee coins.MoneroAmount
}

// NewStaticMoneroWallet builds a StaticMoneroWallet reporting a fixed
// balance and lock fee.
func NewStaticMoneroWallet(balance, lockFee coins.MoneroAmount) *StaticMoneroWallet {
	return &StaticMoneroWallet{balance: balance, lockFee: lockFee}
}

// Balance implements MoneroWallet.
func (w *StaticMoneroWallet) Balance(context.Context) (coins.MoneroAmount, error) {
	return w.balance, nil
}

// EstimateLockFee implements MoneroWallet.
func (w *StaticMoneroWallet) EstimateLockFee(context.Context) (coins.MoneroAmount, error) {
	return w.lockFee, nil
}
