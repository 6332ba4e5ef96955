// Copyright 2023 The AthanorLabs/atomic-swap Authors
// SPDX-License-Identifier: LGPL-3.0-only

// Package alice implements the maker side of the typed setup state chain:
// State0 through State3, each consuming exactly one counterparty message and
// producing the next outbound message or the terminal state. The chain is
// linear by construction — State1, State2 and State3 have no exported
// constructor other than the previous state's Receive method, so a
// misordered message is a compile error rather than a runtime one.
//
// The cryptographic construction itself (commit/reveal, adaptor signatures)
// is out of scope; each state carries the minimal session material needed to
// prove the ordering and data-flow contract, and derives a placeholder
// shared secret via HKDF so the chain is still deterministic given the same
// inputs and counterparty messages.
package alice

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/google/uuid"
	"golang.org/x/crypto/hkdf"

	"github.com/blocktrade-labs/swap-setup/internal/coins"
	"github.com/blocktrade-labs/swap-setup/internal/net/swapsetup"
)

// State0 is constructed once the maker has quoted a price and captured a
// wallet snapshot, and before any counterparty message has been read.
type State0 struct {
	btc     coins.BitcoinAmount
	xmr     coins.MoneroAmount
	network coins.BlockchainNetwork

	redeemAddress btcutil.Address
	punishAddress btcutil.Address
	redeemFee     coins.BitcoinAmount
	punishFee     coins.BitcoinAmount

	ephemeralKey [32]byte
}

// New constructs a State0 from the quoted amounts, the wallet snapshot's
// addresses and fees, and a source of cryptographic randomness.
func New(
	btc coins.BitcoinAmount,
	xmr coins.MoneroAmount,
	network coins.BlockchainNetwork,
	redeemAddress btcutil.Address,
	punishAddress btcutil.Address,
	redeemFee coins.BitcoinAmount,
	punishFee coins.BitcoinAmount,
	rng io.Reader,
) (*State0, error) {
	if rng == nil {
		rng = rand.Reader
	}

	var ephemeral [32]byte
	if _, err := io.ReadFull(rng, ephemeral[:]); err != nil {
		return nil, fmt.Errorf("alice: generating ephemeral key: %w", err)
	}

	return &State0{
		btc:           btc,
		xmr:           xmr,
		network:       network,
		redeemAddress: redeemAddress,
		punishAddress: punishAddress,
		redeemFee:     redeemFee,
		punishFee:     punishFee,
		ephemeralKey:  ephemeral,
	}, nil
}

// Receive consumes the taker's opening message, deriving the swap ID and
// advancing to State1. This is the only transition in the chain that
// produces a SwapID; it is deterministic from State0's inputs plus m0.
func (s *State0) Receive(m0 swapsetup.Message0) (uuid.UUID, *State1, error) {
	swapID, err := uuid.FromBytes(m0.SwapID[:])
	if err != nil {
		return uuid.UUID{}, nil, fmt.Errorf("alice: decoding swap id from message0: %w", err)
	}

	secret := deriveSecret(s.ephemeralKey, m0.TakerEphemeralKey, swapID)

	return swapID, &State1{
		state0:          *s,
		swapID:          swapID,
		sharedSecret:    secret,
		takerCommitment: m0.TakerCommitment,
	}, nil
}

// State1 has a derived SwapID and is ready to emit Message1.
type State1 struct {
	state0 State0

	swapID          uuid.UUID
	sharedSecret    [32]byte
	takerCommitment [32]byte
}

// NextMessage produces the maker's outbound Message1.
func (s *State1) NextMessage() swapsetup.Message1 {
	return swapsetup.Message1{
		MakerEphemeralKey: s.state0.ephemeralKey,
		MakerReveal:       s.sharedSecret,
	}
}

// Receive consumes the taker's reveal and DLEq proof, advancing to State2.
func (s *State1) Receive(m2 swapsetup.Message2) (*State2, error) {
	if err := verifyReveal(s.takerCommitment, m2.TakerReveal); err != nil {
		return nil, fmt.Errorf("alice: verifying message2 reveal: %w", err)
	}

	return &State2{
		state1:      *s,
		takerReveal: m2.TakerReveal,
	}, nil
}

// State2 is ready to emit the maker's adaptor-signature half.
type State2 struct {
	state1      State1
	takerReveal [32]byte
}

// NextMessage produces the maker's outbound Message3.
func (s *State2) NextMessage() swapsetup.Message3 {
	return swapsetup.Message3{
		MakerEncryptedSignature: encryptedSignature('3', s.state1.sharedSecret, s.takerReveal),
	}
}

// Receive consumes the taker's final acknowledgement, producing the
// terminal State3 that carries everything the post-setup execution phase
// needs without further network input.
func (s *State2) Receive(m4 swapsetup.Message4) (*State3, error) {
	if m4.TakerEncryptedSignature == ([64]byte{}) {
		return nil, fmt.Errorf("alice: message4 carried an empty signature")
	}

	return &State3{
		SwapID:        s.state1.swapID,
		BTC:           s.state1.state0.btc,
		XMR:           s.state1.state0.xmr,
		Network:       s.state1.state0.network,
		RedeemAddress: s.state1.state0.redeemAddress,
		PunishAddress: s.state1.state0.punishAddress,
		RedeemFee:     s.state1.state0.redeemFee,
		PunishFee:     s.state1.state0.punishFee,
		SharedSecret:  s.state1.sharedSecret,
		TakerSignature: m4.TakerEncryptedSignature,
	}, nil
}

// State3 is the terminal state: everything required for the post-setup
// execution phase to proceed without further network input.
type State3 struct {
	SwapID  uuid.UUID
	BTC     coins.BitcoinAmount
	XMR     coins.MoneroAmount
	Network coins.BlockchainNetwork

	RedeemAddress btcutil.Address
	PunishAddress btcutil.Address
	RedeemFee     coins.BitcoinAmount
	PunishFee     coins.BitcoinAmount

	SharedSecret   [32]byte
	TakerSignature [64]byte
}

func deriveSecret(makerEphemeral, takerEphemeral [32]byte, swapID uuid.UUID) [32]byte {
	ikm := append(append([]byte{}, makerEphemeral[:]...), takerEphemeral[:]...)
	h := hkdf.New(sha256.New, ikm, swapID[:], []byte("xmr-btc-swap-setup"))

	var out [32]byte
	_, _ = io.ReadFull(h, out[:])
	return out
}

func verifyReveal(commitment [32]byte, reveal [32]byte) error {
	if sha256.Sum256(reveal[:]) != commitment {
		return fmt.Errorf("reveal does not match prior commitment")
	}
	return nil
}

func encryptedSignature(tag byte, secret [32]byte, reveal [32]byte) [64]byte {
	var sig [64]byte
	copy(sig[:32], secret[:])
	copy(sig[32:], reveal[:])
	sig[0] ^= tag
	return sig
}
