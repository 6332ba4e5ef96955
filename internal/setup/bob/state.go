// Copyright 2023 The AthanorLabs/atomic-swap Authors
// SPDX-License-Identifier: LGPL-3.0-only

// Package bob implements the taker side of the typed setup state chain,
// symmetric to the maker's internal/setup/alice chain. It is not driven by
// the maker's handler — the taker's event loop (internal/taker) owns it —
// but it follows the same linear-construction contract: each state's
// Receive/NextMessage pair is the only way to reach the next state.
package bob

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"github.com/google/uuid"
	"golang.org/x/crypto/hkdf"

	"github.com/blocktrade-labs/swap-setup/internal/coins"
	"github.com/blocktrade-labs/swap-setup/internal/net/swapsetup"
)

// State0 is constructed once the taker has received a spot-price quote it
// intends to accept, and before it has sent Message0.
type State0 struct {
	btc coins.BitcoinAmount
	xmr coins.MoneroAmount

	ephemeralKey [32]byte
	reveal       [32]byte
	commitment   [32]byte
	swapID       uuid.UUID
}

// New constructs a State0 for a newly accepted quote.
func New(btc coins.BitcoinAmount, xmr coins.MoneroAmount, rng io.Reader) (*State0, error) {
	if rng == nil {
		rng = rand.Reader
	}

	var ephemeral, reveal [32]byte
	if _, err := io.ReadFull(rng, ephemeral[:]); err != nil {
		return nil, fmt.Errorf("bob: generating ephemeral key: %w", err)
	}
	if _, err := io.ReadFull(rng, reveal[:]); err != nil {
		return nil, fmt.Errorf("bob: generating reveal: %w", err)
	}

	swapID, err := uuid.NewRandom()
	if err != nil {
		return nil, fmt.Errorf("bob: generating swap id: %w", err)
	}

	return &State0{
		btc:          btc,
		xmr:          xmr,
		ephemeralKey: ephemeral,
		reveal:       reveal,
		commitment:   sha256.Sum256(reveal[:]),
		swapID:       swapID,
	}, nil
}

// SwapID returns the swap identifier this state generated. Unlike the
// maker's chain, the taker chooses the SwapID itself and announces it in
// Message0 (the maker's State0.Receive derives the same value from the
// message it reads).
func (s *State0) SwapID() uuid.UUID { return s.swapID }

// NextMessage produces the taker's opening Message0.
func (s *State0) NextMessage() swapsetup.Message0 {
	var idBytes [16]byte
	copy(idBytes[:], s.swapID[:])

	return swapsetup.Message0{
		SwapID:            idBytes,
		TakerEphemeralKey: s.ephemeralKey,
		TakerCommitment:   s.commitment,
	}
}

// Receive consumes the maker's Message1, advancing to State1.
func (s *State0) Receive(m1 swapsetup.Message1) *State1 {
	secret := deriveSecret(m1.MakerEphemeralKey, s.ephemeralKey, s.swapID)

	return &State1{
		state0:       *s,
		sharedSecret: secret,
	}
}

// State1 is ready to emit the taker's reveal.
type State1 struct {
	state0       State0
	sharedSecret [32]byte
}

// NextMessage produces the taker's outbound Message2.
func (s *State1) NextMessage() swapsetup.Message2 {
	return swapsetup.Message2{
		TakerReveal: s.state0.reveal,
	}
}

// Receive consumes the maker's adaptor-signature half, advancing to State2.
func (s *State1) Receive(m3 swapsetup.Message3) (*State2, error) {
	if m3.MakerEncryptedSignature == ([64]byte{}) {
		return nil, fmt.Errorf("bob: message3 carried an empty signature")
	}

	return &State2{
		state1:                  *s,
		makerEncryptedSignature: m3.MakerEncryptedSignature,
	}, nil
}

// State2 is ready to emit the taker's final acknowledgement.
type State2 struct {
	state1                  State1
	makerEncryptedSignature [64]byte
}

// NextMessage produces the taker's outbound Message4, then the local chain
// terminates in State3.
func (s *State2) NextMessage() (swapsetup.Message4, *State3) {
	sig := encryptedSignature('4', s.state1.sharedSecret, s.state1.state0.reveal)

	return swapsetup.Message4{TakerEncryptedSignature: sig}, &State3{
			SwapID:       s.state1.state0.swapID,
			BTC:          s.state1.state0.btc,
			XMR:          s.state1.state0.xmr,
			SharedSecret: s.state1.sharedSecret,
		}
}

// State3 is the terminal state: everything required for the post-setup
// execution phase to proceed without further network input.
type State3 struct {
	SwapID       uuid.UUID
	BTC          coins.BitcoinAmount
	XMR          coins.MoneroAmount
	SharedSecret [32]byte
}

func deriveSecret(makerEphemeral, takerEphemeral [32]byte, swapID uuid.UUID) [32]byte {
	ikm := append(append([]byte{}, makerEphemeral[:]...), takerEphemeral[:]...)
	h := hkdf.New(sha256.New, ikm, swapID[:], []byte("xmr-btc-swap-setup"))

	var out [32]byte
	_, _ = io.ReadFull(h, out[:])
	return out
}

func encryptedSignature(tag byte, secret [32]byte, reveal [32]byte) [64]byte {
	var sig [64]byte
	copy(sig[:32], secret[:])
	copy(sig[32:], reveal[:])
	sig[0] ^= tag
	return sig
}
