// Copyright 2023 The AthanorLabs/atomic-swap Authors
// SPDX-License-Identifier: LGPL-3.0-only

package maker

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/blocktrade-labs/swap-setup/internal/coins"
)

func TestFixedRate_Convert(t *testing.T) {
	rate := NewFixedRate(100 * coins.PiconeroPerXMR) // 100 XMR/BTC

	xmr, err := rate.Convert(coins.NewBitcoinAmount(50_000_000)) // 0.5 BTC
	require.NoError(t, err)
	require.Equal(t, coins.NewMoneroAmount(50*coins.PiconeroPerXMR), xmr)
}

func TestFixedRate_Convert_Zero(t *testing.T) {
	rate := NewFixedRate(100 * coins.PiconeroPerXMR)

	xmr, err := rate.Convert(coins.NewBitcoinAmount(0))
	require.NoError(t, err)
	require.True(t, xmr.Cmp(coins.NewMoneroAmount(0)) == 0)
}

func TestFixedRate_Convert_Floors(t *testing.T) {
	// 3 piconero per BTC, one satoshi of BTC: 3 * 1 / 1e8 truncates to 0.
	rate := NewFixedRate(3)

	xmr, err := rate.Convert(coins.NewBitcoinAmount(1))
	require.NoError(t, err)
	require.Equal(t, uint64(0), xmr.Piconero())
}
