// Copyright 2023 The AthanorLabs/atomic-swap Authors
// SPDX-License-Identifier: LGPL-3.0-only

package swapsetup

import (
	"fmt"

	"github.com/blocktrade-labs/swap-setup/internal/coins"
)

// SpotPriceRequest is the first message on every setup substream: the
// taker's declared purchase amount and the network it believes it is on.
type SpotPriceRequest struct {
	BTC               coins.BitcoinAmount     `cbor:"btc"`
	BlockchainNetwork coins.BlockchainNetwork `cbor:"blockchain_network"`
}

// SpotPriceError is the closed set of reasons a maker can decline a spot
// price request. Only the fields safe to disclose to the counterparty are
// present here; see SpotPriceResponse's doc comment for the leakage rule.
type SpotPriceError struct {
	Kind SpotPriceErrorKind `cbor:"kind"`

	// Min/Max/Buy are populated for AmountBelowMinimum/AmountAboveMaximum.
	Min *coins.BitcoinAmount `cbor:"min,omitempty"`
	Max *coins.BitcoinAmount `cbor:"max,omitempty"`
	Buy *coins.BitcoinAmount `cbor:"buy,omitempty"`

	// CLI/ASB are populated for BlockchainNetworkMismatch.
	CLI *coins.BlockchainNetwork `cbor:"cli,omitempty"`
	ASB *coins.BlockchainNetwork `cbor:"asb,omitempty"`
}

// SpotPriceErrorKind is the tag of a SpotPriceError.
type SpotPriceErrorKind string

// Closed set of on-wire error kinds a maker may return.
const (
	NoSwapsAccepted           SpotPriceErrorKind = "no_swaps_accepted"
	AmountBelowMinimum        SpotPriceErrorKind = "amount_below_minimum"
	AmountAboveMaximum        SpotPriceErrorKind = "amount_above_maximum"
	BalanceTooLow             SpotPriceErrorKind = "balance_too_low"
	BlockchainNetworkMismatch SpotPriceErrorKind = "blockchain_network_mismatch"
	OtherError                SpotPriceErrorKind = "other"
)

// Error implements the error interface so a SpotPriceError can be returned
// and compared like any other Go error on the taker side.
func (e SpotPriceError) Error() string {
	switch e.Kind {
	case NoSwapsAccepted:
		return "maker is not accepting swaps"
	case AmountBelowMinimum:
		return fmt.Sprintf("amount %s below minimum %s", e.Buy, e.Min)
	case AmountAboveMaximum:
		return fmt.Sprintf("amount %s above maximum %s", e.Buy, e.Max)
	case BalanceTooLow:
		return fmt.Sprintf("maker balance too low to sell %s", e.Buy)
	case BlockchainNetworkMismatch:
		return fmt.Sprintf("network mismatch: taker=%s maker=%s", e.CLI, e.ASB)
	default:
		return "maker declined the swap"
	}
}

// SpotPriceResponse is the second message on the substream: either a quote
// or a typed decline. Exactly one of XMR/Err is set.
//
// Wire leakage rule: when Err is set, it never carries the maker's private
// balance, the internal failing subsystem, or a timeout value — only the
// fields listed in SpotPriceErrorKind's closed set.
type SpotPriceResponse struct {
	XMR *coins.MoneroAmount `cbor:"xmr,omitempty"`
	Err *SpotPriceError     `cbor:"err,omitempty"`
}

// AsResult converts the tagged response into a (amount, error) pair for
// convenient taker-side handling.
func (r SpotPriceResponse) AsResult() (coins.MoneroAmount, error) {
	if r.Err != nil {
		return coins.MoneroAmount{}, *r.Err
	}
	if r.XMR == nil {
		return coins.MoneroAmount{}, fmt.Errorf("swapsetup: malformed SpotPriceResponse: neither xmr nor err set")
	}
	return *r.XMR, nil
}

// SpotPriceXMR builds a successful SpotPriceResponse.
func SpotPriceXMR(xmr coins.MoneroAmount) SpotPriceResponse {
	return SpotPriceResponse{XMR: &xmr}
}

// SpotPriceErrorResponse builds a declined SpotPriceResponse.
func SpotPriceErrorResponse(e SpotPriceError) SpotPriceResponse {
	return SpotPriceResponse{Err: &e}
}

// Message0 is the taker's opening cryptographic commitment, consumed by
// State0.Receive to produce the SwapID and State1.
type Message0 struct {
	SwapID            [16]byte `cbor:"swap_id"`
	TakerEphemeralKey [32]byte `cbor:"taker_ephemeral_key"`
	TakerCommitment   [32]byte `cbor:"taker_commitment"`
}

// Message1 is the maker's reply to Message0, produced by State1.NextMessage.
type Message1 struct {
	MakerEphemeralKey [32]byte `cbor:"maker_ephemeral_key"`
	MakerReveal       [32]byte `cbor:"maker_reveal"`
}

// Message2 is the taker's reveal, consumed by State1.Receive to produce State2.
type Message2 struct {
	TakerReveal    [32]byte `cbor:"taker_reveal"`
	TakerDLEqProof [64]byte `cbor:"taker_dleq_proof"`
}

// Message3 is the maker's adaptor-signature half, produced by State2.NextMessage.
type Message3 struct {
	MakerEncryptedSignature [64]byte `cbor:"maker_encrypted_signature"`
}

// Message4 is the taker's final acknowledgement, consumed by State2.Receive
// to produce State3.
type Message4 struct {
	TakerEncryptedSignature [64]byte `cbor:"taker_encrypted_signature"`
}
