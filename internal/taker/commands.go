// Copyright 2023 The AthanorLabs/atomic-swap Authors
// SPDX-License-Identifier: LGPL-3.0-only

package taker

import (
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/multiformats/go-multiaddr"

	"github.com/blocktrade-labs/swap-setup/internal/coins"
	"github.com/blocktrade-labs/swap-setup/internal/net/swapsetup"
)

// commandQueueSize bounds every command and event channel the taker's
// event loop exposes. A backed-up taker applies backpressure to its own
// callers rather than growing memory without bound, the same tradeoff the
// teacher's bounded channels make for transaction submission.
const commandQueueSize = 100

// dialCommand asks the event loop to dial peer (using addr if given and
// not already connected). The outcome is published on connEstablished
// rather than on a reply embedded here, matching the dial(peer) /
// conn_established pairing.
type dialCommand struct {
	peer peer.ID
	addr multiaddr.Multiaddr
}

// addAddressCommand registers a multiaddr the event loop should dial peer
// at, without itself dialing.
type addAddressCommand struct {
	peer peer.ID
	addr multiaddr.Multiaddr
}

// requestAmountsCommand asks the event loop to open the setup substream to
// peer and submit a SpotPriceRequest for btc on network. The quote (or
// decline) is informational only, so it is delivered straight back on
// reply rather than broadcast as a loop-to-handle event.
type requestAmountsCommand struct {
	peer    peer.ID
	btc     coins.BitcoinAmount
	network coins.BlockchainNetwork
	reply   chan amountsResult
}

type amountsResult struct {
	xmr coins.MoneroAmount
	err error
}

// sendMessage0Command asks the event loop to write Message0 on peer's
// already-open setup substream.
type sendMessage0Command struct {
	peer  peer.ID
	msg   swapsetup.Message0
	reply chan error
}

// sendMessage1Command asks the event loop to write Message2 on peer's
// setup substream. Named send_message1 rather than send_message2 to match
// the command set's own enumeration, not our wire message's number — see
// DESIGN.md for the reconciliation between the two numbering schemes.
type sendMessage1Command struct {
	peer  peer.ID
	msg   swapsetup.Message2
	reply chan error
}

// sendMessage2Command asks the event loop to write Message4, the taker's
// final message in the exchange.
type sendMessage2Command struct {
	peer  peer.ID
	msg   swapsetup.Message4
	reply chan error
}

// connEstablishedEvent is published once per dial attempt, success or
// failure, including the idempotent fast path for an already-connected
// peer, so a failed dial is always observable instead of stalling the
// handle's Dial call forever.
type connEstablishedEvent struct {
	peer peer.ID
	err  error
}

// msg0Event carries Message1, the maker's first reply to the taker's
// opening commitment.
type msg0Event struct {
	peer peer.ID
	msg  swapsetup.Message1
	err  error
}

// msg1Event carries Message3, the maker's adaptor-signature half.
type msg1Event struct {
	peer peer.ID
	msg  swapsetup.Message3
	err  error
}
