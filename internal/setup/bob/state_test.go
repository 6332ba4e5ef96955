// Copyright 2023 The AthanorLabs/atomic-swap Authors
// SPDX-License-Identifier: LGPL-3.0-only

package bob

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/blocktrade-labs/swap-setup/internal/coins"
	"github.com/blocktrade-labs/swap-setup/internal/net/swapsetup"
)

func zeroReader() *bytes.Reader {
	return bytes.NewReader(bytes.Repeat([]byte{0x24}, 4096))
}

func newTestState0(t *testing.T) *State0 {
	s, err := New(coins.NewBitcoinAmount(50_000_000), coins.NewMoneroAmount(50*coins.PiconeroPerXMR), zeroReader())
	require.NoError(t, err)
	return s
}

// Mirrors alice's TestStateChain_LinearProgress from the taker's side: the
// chain must advance S0 -> S1 -> S2 -> S3 consuming exactly one message per
// step.
func TestStateChain_LinearProgress(t *testing.T) {
	state0 := newTestState0(t)
	swapID := state0.SwapID()
	require.NotEqual(t, [16]byte{}, swapID)

	m0 := state0.NextMessage()
	var idBytes [16]byte
	copy(idBytes[:], swapID[:])
	require.Equal(t, idBytes, m0.SwapID)

	state1 := state0.Receive(swapsetup.Message1{MakerEphemeralKey: [32]byte{7}, MakerReveal: [32]byte{8}})

	m2 := state1.NextMessage()
	require.NotEqual(t, [32]byte{}, m2.TakerReveal)

	state2, err := state1.Receive(swapsetup.Message3{MakerEncryptedSignature: [64]byte{1, 2, 3}})
	require.NoError(t, err)

	m4, state3 := state2.NextMessage()
	require.NotEqual(t, [64]byte{}, m4.TakerEncryptedSignature)
	require.Equal(t, swapID, state3.SwapID)
	require.Equal(t, coins.NewBitcoinAmount(50_000_000), state3.BTC)
}

// An empty signature in message3 is never valid.
func TestState1_Receive_RejectsEmptySignature(t *testing.T) {
	state1 := newTestState0(t).Receive(swapsetup.Message1{MakerEphemeralKey: [32]byte{7}, MakerReveal: [32]byte{8}})

	_, err := state1.Receive(swapsetup.Message3{})
	require.Error(t, err)
}

// Every call to New mints a fresh SwapID, regardless of the ephemeral-key
// randomness source.
func TestNew_UniqueSwapIDs(t *testing.T) {
	s1, err := New(coins.NewBitcoinAmount(1), coins.NewMoneroAmount(1), zeroReader())
	require.NoError(t, err)

	s2, err := New(coins.NewBitcoinAmount(1), coins.NewMoneroAmount(1), zeroReader())
	require.NoError(t, err)

	require.NotEqual(t, s1.SwapID(), s2.SwapID())
}
