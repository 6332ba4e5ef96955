// Copyright 2023 The AthanorLabs/atomic-swap Authors
// SPDX-License-Identifier: LGPL-3.0-only

package taker

import (
	"context"
	"fmt"

	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/multiformats/go-multiaddr"

	"github.com/blocktrade-labs/swap-setup/internal/coins"
	"github.com/blocktrade-labs/swap-setup/internal/net/swapsetup"
	"github.com/blocktrade-labs/swap-setup/internal/setup/bob"
)

// Handle is the caller-facing side of the taker's event loop, the Go
// analogue of the teacher's EventLoopHandle: a set of typed,
// one-directional channels. Nothing on Handle ever touches the network
// itself; every method either submits a command onto a bounded channel or
// waits on an event channel that only the EventLoop's Run goroutine
// publishes to.
type Handle struct {
	dial           chan<- dialCommand
	addAddress     chan<- addAddressCommand
	requestAmounts chan<- requestAmountsCommand
	sendMessage0   chan<- sendMessage0Command
	sendMessage1   chan<- sendMessage1Command
	sendMessage2   chan<- sendMessage2Command

	connEstablished <-chan connEstablishedEvent
	msg0            <-chan msg0Event
	msg1            <-chan msg1Event
}

// Dial asks the event loop to connect to p and blocks until the matching
// conn_established event arrives, or ctx is done. A peer the loop already
// holds a connection to resolves immediately through the loop's own
// idempotent fast path — no dial is issued, no fixed delay is incurred.
func (h *Handle) Dial(ctx context.Context, p peer.ID, addr multiaddr.Multiaddr) error {
	select {
	case h.dial <- dialCommand{peer: p, addr: addr}:
	case <-ctx.Done():
		return fmt.Errorf("submitting dial: %w", ctx.Err())
	}

	for {
		select {
		case ev := <-h.connEstablished:
			if ev.peer != p {
				continue
			}
			return ev.err
		case <-ctx.Done():
			return fmt.Errorf("waiting for conn_established: %w", ctx.Err())
		}
	}
}

// AddAddress registers a multiaddr the event loop should use the next time
// it dials p, without dialing now.
func (h *Handle) AddAddress(ctx context.Context, p peer.ID, addr multiaddr.Multiaddr) error {
	select {
	case h.addAddress <- addAddressCommand{peer: p, addr: addr}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("submitting add_address: %w", ctx.Err())
	}
}

// RequestAmounts opens the setup substream to p and submits a
// SpotPriceRequest for btc on network, returning the maker's quote or its
// typed decline.
func (h *Handle) RequestAmounts(ctx context.Context, p peer.ID, btc coins.BitcoinAmount, network coins.BlockchainNetwork) (coins.MoneroAmount, error) {
	reply := make(chan amountsResult, 1)

	select {
	case h.requestAmounts <- requestAmountsCommand{peer: p, btc: btc, network: network, reply: reply}:
	case <-ctx.Done():
		return coins.MoneroAmount{}, fmt.Errorf("submitting request_amounts: %w", ctx.Err())
	}

	select {
	case res := <-reply:
		return res.xmr, res.err
	case <-ctx.Done():
		return coins.MoneroAmount{}, fmt.Errorf("waiting for amounts: %w", ctx.Err())
	}
}

// SendMessage0 writes Message0, the taker's opening commitment, on p's
// setup substream.
func (h *Handle) SendMessage0(ctx context.Context, p peer.ID, msg swapsetup.Message0) error {
	reply := make(chan error, 1)
	select {
	case h.sendMessage0 <- sendMessage0Command{peer: p, msg: msg, reply: reply}:
	case <-ctx.Done():
		return fmt.Errorf("submitting send_message0: %w", ctx.Err())
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return fmt.Errorf("waiting for send_message0 result: %w", ctx.Err())
	}
}

// SendMessage1 writes Message2, the taker's reveal, on p's setup
// substream.
func (h *Handle) SendMessage1(ctx context.Context, p peer.ID, msg swapsetup.Message2) error {
	reply := make(chan error, 1)
	select {
	case h.sendMessage1 <- sendMessage1Command{peer: p, msg: msg, reply: reply}:
	case <-ctx.Done():
		return fmt.Errorf("submitting send_message1: %w", ctx.Err())
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return fmt.Errorf("waiting for send_message1 result: %w", ctx.Err())
	}
}

// SendMessage2 writes Message4, the taker's final message, on p's setup
// substream and closes it.
func (h *Handle) SendMessage2(ctx context.Context, p peer.ID, msg swapsetup.Message4) error {
	reply := make(chan error, 1)
	select {
	case h.sendMessage2 <- sendMessage2Command{peer: p, msg: msg, reply: reply}:
	case <-ctx.Done():
		return fmt.Errorf("submitting send_message2: %w", ctx.Err())
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return fmt.Errorf("waiting for send_message2 result: %w", ctx.Err())
	}
}

// NextMessage1 blocks until the maker's Message1 reply (event msg0)
// arrives for p.
func (h *Handle) NextMessage1(ctx context.Context, p peer.ID) (swapsetup.Message1, error) {
	for {
		select {
		case ev := <-h.msg0:
			if ev.peer != p {
				continue
			}
			return ev.msg, ev.err
		case <-ctx.Done():
			return swapsetup.Message1{}, fmt.Errorf("waiting for msg0: %w", ctx.Err())
		}
	}
}

// NextMessage3 blocks until the maker's Message3 reply (event msg1)
// arrives for p.
func (h *Handle) NextMessage3(ctx context.Context, p peer.ID) (swapsetup.Message3, error) {
	for {
		select {
		case ev := <-h.msg1:
			if ev.peer != p {
				continue
			}
			return ev.msg, ev.err
		case <-ctx.Done():
			return swapsetup.Message3{}, fmt.Errorf("waiting for msg1: %w", ctx.Err())
		}
	}
}

// Setup dials p (if necessary), then drives one full setup exchange for
// the given purchase amount and network entirely through the channel
// surface above — it never touches the host or a stream itself. It blocks
// until the exchange completes, fails, or ctx is canceled.
func (h *Handle) Setup(
	ctx context.Context,
	p peer.ID,
	addr multiaddr.Multiaddr,
	btc coins.BitcoinAmount,
	network coins.BlockchainNetwork,
) (*bob.State3, error) {
	ctx, cancel := context.WithTimeout(ctx, setupTimeout)
	defer cancel()

	if err := h.Dial(ctx, p, addr); err != nil {
		return nil, fmt.Errorf("dialing %s: %w", p, err)
	}

	quoted, err := h.RequestAmounts(ctx, p, btc, network)
	if err != nil {
		return nil, fmt.Errorf("requesting amounts: %w", err)
	}

	state0, err := bob.New(btc, quoted, nil)
	if err != nil {
		return nil, fmt.Errorf("constructing setup state: %w", err)
	}

	if err := h.SendMessage0(ctx, p, state0.NextMessage()); err != nil {
		return nil, fmt.Errorf("sending message0: %w", err)
	}

	m1, err := h.NextMessage1(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("awaiting message1: %w", err)
	}
	state1 := state0.Receive(m1)

	if err := h.SendMessage1(ctx, p, state1.NextMessage()); err != nil {
		return nil, fmt.Errorf("sending message2: %w", err)
	}

	m3, err := h.NextMessage3(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("awaiting message3: %w", err)
	}
	state2, err := state1.Receive(m3)
	if err != nil {
		return nil, fmt.Errorf("processing message3: %w", err)
	}

	m4, state3 := state2.NextMessage()
	if err := h.SendMessage2(ctx, p, m4); err != nil {
		return nil, fmt.Errorf("sending message4: %w", err)
	}

	return state3, nil
}
