// Copyright 2023 The AthanorLabs/atomic-swap Authors
// SPDX-License-Identifier: LGPL-3.0-only

package maker

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/libp2p/go-libp2p/core/peer"

	"github.com/blocktrade-labs/swap-setup/internal/net/swapsetup"
	"github.com/blocktrade-labs/swap-setup/internal/setup/alice"
)

// setupTimeout bounds the whole setup exchange on one stream, start to
// finish. A stream that hasn't reached State3 within this window is
// abandoned regardless of which message it is waiting on.
const setupTimeout = 60 * time.Second

// Stream is the narrow surface Handle needs from a libp2p stream: enough to
// read/write framed messages and enforce a deadline. network.Stream
// satisfies it structurally, and so does any net.Conn, which is what lets
// handler_test.go drive the whole M0-M4 exchange over a plain net.Pipe()
// without constructing a fake network.Stream.
type Stream interface {
	io.Reader
	io.Writer
	SetDeadline(time.Time) error
}

// OutEvent is what Behaviour publishes on its event stream. Three kinds
// exist: Initiated (a stream was just accepted and a Handler is about to
// start the validation pipeline; Peer is the only field set), and the two
// terminal kinds a Handler itself produces — State set on success, Err set
// on failure. The handler never touches swap-manager or RPC state
// directly, it only ever emits one of the terminal kinds and returns.
type OutEvent struct {
	Peer      peer.ID
	Initiated bool
	State     *alice.State3
	Err       error
}

// Handler drives one inbound setup stream from Message0 through Message4,
// exactly the way the Rust ProtocolsHandler drove one substream: read,
// validate, quote, reply, repeat, until the chain reaches State3 or
// something fails. Unlike the Rust handler it is not a long-lived actor
// polled by a swarm; it is a function run once per stream, in its own
// goroutine, by the Behaviour's SetStreamHandler callback.
type Handler struct {
	cfg        Config
	rates      RateSource
	snapshots  *snapshotRequester
	randSource func() [32]byte
}

// NewHandler builds a Handler bound to cfg, a rate source, and the shared
// wallet-snapshot requester the owning Behaviour serves.
func NewHandler(cfg Config, rates RateSource, snapshots *snapshotRequester) *Handler {
	return &Handler{cfg: cfg, rates: rates, snapshots: snapshots}
}

// Handle drives a single inbound stream to completion and returns the
// resulting OutEvent. It never panics on a malformed or malicious peer: any
// protocol violation becomes an OutEvent.Err and the stream is closed by
// the caller's defer, matching the teacher's pattern of a single deferred
// cleanup at the top of a long-lived connection handler. p identifies the
// remote peer only for logging and OutEvent; Handle never dials or reads
// host/connection state itself.
func (h *Handler) Handle(parent context.Context, p peer.ID, s Stream) OutEvent {
	ctx, cancel := context.WithTimeout(parent, setupTimeout)
	defer cancel()

	state3, err := h.run(ctx, s)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			err = &TimeoutError{Seconds: int(setupTimeout.Seconds())}
		}
		log.Debugf("setup with %s failed: %s", p, err)
		return OutEvent{Peer: p, Err: err}
	}

	log.Infof("completed setup %s with %s", state3.SwapID, p)
	return OutEvent{Peer: p, State: state3}
}

func (h *Handler) run(ctx context.Context, s Stream) (*alice.State3, error) {
	if deadline, ok := ctx.Deadline(); ok {
		_ = s.SetDeadline(deadline)
	}

	spReq, err := swapsetup.Read[swapsetup.SpotPriceRequest](s)
	if err != nil {
		return nil, fmt.Errorf("reading spot price request: %w", err)
	}

	snapshot, err := h.snapshots.Request(ctx)
	if err != nil {
		return nil, fmt.Errorf("obtaining wallet snapshot: %w", err)
	}

	quoted, qerr := validateQuote(h.cfg, spReq, snapshot, h.rates)
	if qerr != nil {
		wireErr := ToWireError(qerr)
		resp := swapsetup.SpotPriceErrorResponse(wireErr)
		if err := swapsetup.Write(s, resp); err != nil {
			return nil, fmt.Errorf("writing spot price error response: %w", err)
		}
		return nil, qerr
	}

	if err := swapsetup.Write(s, swapsetup.SpotPriceXMR(quoted)); err != nil {
		return nil, fmt.Errorf("writing spot price response: %w", err)
	}

	state0, err := alice.New(
		spReq.BTC,
		quoted,
		h.cfg.Network,
		snapshot.RedeemAddress,
		snapshot.PunishAddress,
		snapshot.RedeemFee,
		snapshot.PunishFee,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("constructing setup state: %w", err)
	}

	m0, err := swapsetup.Read[swapsetup.Message0](s)
	if err != nil {
		return nil, fmt.Errorf("reading message0: %w", err)
	}

	_, state1, err := state0.Receive(m0)
	if err != nil {
		return nil, fmt.Errorf("processing message0: %w", err)
	}

	if err := swapsetup.Write(s, state1.NextMessage()); err != nil {
		return nil, fmt.Errorf("writing message1: %w", err)
	}

	m2, err := swapsetup.Read[swapsetup.Message2](s)
	if err != nil {
		return nil, fmt.Errorf("reading message2: %w", err)
	}

	state2, err := state1.Receive(m2)
	if err != nil {
		return nil, fmt.Errorf("processing message2: %w", err)
	}

	if err := swapsetup.Write(s, state2.NextMessage()); err != nil {
		return nil, fmt.Errorf("writing message3: %w", err)
	}

	m4, err := swapsetup.Read[swapsetup.Message4](s)
	if err != nil {
		return nil, fmt.Errorf("reading message4: %w", err)
	}

	state3, err := state2.Receive(m4)
	if err != nil {
		return nil, fmt.Errorf("processing message4: %w", err)
	}

	return state3, nil
}
