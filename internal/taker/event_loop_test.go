// Copyright 2023 The AthanorLabs/atomic-swap Authors
// SPDX-License-Identifier: LGPL-3.0-only

package taker

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	libp2p "github.com/libp2p/go-libp2p"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/stretchr/testify/require"

	"github.com/blocktrade-labs/swap-setup/internal/coins"
	"github.com/blocktrade-labs/swap-setup/internal/maker"
	"github.com/blocktrade-labs/swap-setup/internal/net/swapsetup"
)

// newTestPair starts two in-process libp2p hosts: the first plays the
// taker, the second runs a real maker.Behaviour so the exchange is driven
// end-to-end over an actual libp2p stream, not a pipe or a stub.
func newTestPair(t *testing.T, cfg maker.Config, moneroBalance coins.MoneroAmount) (host.Host, host.Host, *maker.Behaviour) {
	t.Helper()

	takerHost, err := libp2p.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = takerHost.Close() })

	makerHost, err := libp2p.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = makerHost.Close() })

	btcWallet := maker.NewStaticBitcoinWallet(
		coins.NewBitcoinAmount(1_000_000_000),
		coins.NewBitcoinAmount(500),
		coins.NewBitcoinAmount(500),
		&chaincfg.RegressionNetParams,
		func() (btcutil.Address, error) {
			return btcutil.NewAddressPubKeyHash(bytes.Repeat([]byte{0x02}, 20), &chaincfg.RegressionNetParams)
		},
	)
	xmrWallet := maker.NewStaticMoneroWallet(moneroBalance, coins.NewMoneroAmount(100))
	rate := maker.NewFixedRate(100 * coins.PiconeroPerXMR)

	behaviour := maker.NewBehaviour(makerHost, cfg, rate, btcWallet, xmrWallet)
	return takerHost, makerHost, behaviour
}

func testNetwork() coins.BlockchainNetwork {
	return coins.BlockchainNetwork{Bitcoin: coins.BitcoinRegtest, Monero: coins.MoneroRegtest}
}

func testConfig() maker.Config {
	return maker.Config{
		MinBuy:  coins.NewBitcoinAmount(1),
		MaxBuy:  coins.NewBitcoinAmount(1_000_000_000),
		Network: testNetwork(),
	}
}

func TestHandle_Setup_FullExchangeAgainstRealMakerBehaviour(t *testing.T) {
	takerHost, makerHost, behaviour := newTestPair(t, testConfig(), coins.NewMoneroAmount(1_000*coins.PiconeroPerXMR))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	behaviour.Start(ctx)
	defer behaviour.Stop()

	loop, handle := NewEventLoop(takerHost)
	go loop.Run(ctx)

	require.Greater(t, len(makerHost.Addrs()), 0)
	addr := makerHost.Addrs()[0]

	btc := coins.NewBitcoinAmount(50_000_000)
	state3, err := handle.Setup(ctx, makerHost.ID(), addr, btc, testNetwork())
	require.NoError(t, err)
	require.NotNil(t, state3)
	require.Equal(t, btc, state3.BTC)

	var sawInitiated, sawCompleted bool
	for !sawInitiated || !sawCompleted {
		select {
		case ev := <-behaviour.Events():
			if ev.Initiated {
				sawInitiated = true
			} else if ev.Err == nil {
				sawCompleted = true
				require.Equal(t, state3.SwapID, ev.State.SwapID)
			}
		case <-ctx.Done():
			t.Fatalf("timed out waiting for maker events: initiated=%v completed=%v", sawInitiated, sawCompleted)
		}
	}
}

// Dialing a peer the loop is already connected to must resolve through the
// idempotent fast path, never re-issuing a swarm dial.
func TestHandle_Dial_IdempotentFastPath(t *testing.T) {
	takerHost, makerHost, behaviour := newTestPair(t, testConfig(), coins.NewMoneroAmount(1_000*coins.PiconeroPerXMR))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	behaviour.Start(ctx)
	defer behaviour.Stop()

	loop, handle := NewEventLoop(takerHost)
	go loop.Run(ctx)

	addr := makerHost.Addrs()[0]

	require.NoError(t, handle.Dial(ctx, makerHost.ID(), addr))
	// Second dial carries no address at all; it must still succeed
	// immediately via the already-connected fast path.
	require.NoError(t, handle.Dial(ctx, makerHost.ID(), nil))
}

// A maker that isn't accepting swaps declines request_amounts with a typed
// error the taker can distinguish from a transport failure.
func TestHandle_RequestAmounts_SurfacesMakerDecline(t *testing.T) {
	cfg := testConfig()
	cfg.ResumeOnly = true
	takerHost, makerHost, behaviour := newTestPair(t, cfg, coins.NewMoneroAmount(1_000*coins.PiconeroPerXMR))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	behaviour.Start(ctx)
	defer behaviour.Stop()

	loop, handle := NewEventLoop(takerHost)
	go loop.Run(ctx)

	addr := makerHost.Addrs()[0]
	require.NoError(t, handle.Dial(ctx, makerHost.ID(), addr))

	_, err := handle.RequestAmounts(ctx, makerHost.ID(), coins.NewBitcoinAmount(50_000_000), testNetwork())
	require.Error(t, err)

	var wireErr swapsetup.SpotPriceError
	require.True(t, errors.As(err, &wireErr), "expected a swapsetup.SpotPriceError, got %T: %v", err, err)
	require.Equal(t, swapsetup.NoSwapsAccepted, wireErr.Kind)
}
