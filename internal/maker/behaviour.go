// Copyright 2023 The AthanorLabs/atomic-swap Authors
// SPDX-License-Identifier: LGPL-3.0-only

package maker

import (
	"context"
	"sync"
	"time"

	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/network"

	"github.com/blocktrade-labs/swap-setup/internal/net/swapsetup"
)

// Behaviour is the maker-side analogue of the Rust NetworkBehaviour: it owns
// the protocol's stream handler registration, fans out one Handler per
// inbound stream, and aggregates their OutEvents onto a single buffered
// channel a caller (typically cmd/makerd's main loop) drains. Where the
// Rust type polled handlers cooperatively inside a Swarm, Behaviour instead
// registers host.SetStreamHandler and lets go-libp2p spawn a goroutine per
// stream; Behaviour's only ongoing job is bookkeeping.
type Behaviour struct {
	host host.Host
	cfg  Config
	rate RateSource

	snapshots *snapshotRequester
	events    chan OutEvent

	mu        sync.Mutex
	keepAlive map[network.Stream]KeepAlive
}

// eventBufferSize bounds how many completed setups Behaviour will buffer
// before a slow consumer starts blocking new handler goroutines.
const eventBufferSize = 64

// NewBehaviour constructs a Behaviour. It registers nothing and spawns
// nothing until Start is called.
func NewBehaviour(h host.Host, cfg Config, rate RateSource, btc BitcoinWallet, xmr MoneroWallet) *Behaviour {
	return &Behaviour{
		host:      h,
		cfg:       cfg,
		rate:      rate,
		snapshots: newSnapshotRequester(btc, xmr),
		events:    make(chan OutEvent, eventBufferSize),
		keepAlive: make(map[network.Stream]KeepAlive),
	}
}

// Snapshots returns the wallet-snapshot rendezvous this Behaviour serves,
// for collaborators (such as the rpc package's PersonalService) that need
// to trigger or observe a snapshot outside of a live handler.
func (b *Behaviour) Snapshots() SnapshotSource { return b.snapshots }

// Events returns the channel completed (or failed) setup attempts are
// published on. The channel is never closed by Behaviour; callers select on
// it alongside their own shutdown signal.
func (b *Behaviour) Events() <-chan OutEvent { return b.events }

// Start registers the protocol's stream handler and begins serving wallet
// snapshot requests. It returns immediately; both jobs run until ctx is
// canceled.
func (b *Behaviour) Start(ctx context.Context) {
	go b.snapshots.Run(ctx)
	b.host.SetStreamHandler(swapsetup.ID, func(s network.Stream) {
		b.handleStream(ctx, s)
	})
}

// Stop deregisters the protocol's stream handler. In-flight handler
// goroutines are left to finish or hit their own 60-second timeout; Stop
// does not cancel them.
func (b *Behaviour) Stop() {
	b.host.RemoveStreamHandler(swapsetup.ID)
}

// handleStream is what host.SetStreamHandler invokes for each new inbound
// stream on our protocol ID. It owns the stream's keep-alive bookkeeping
// and guarantees the stream is closed exactly once, regardless of how the
// handler exits.
func (b *Behaviour) handleStream(ctx context.Context, s network.Stream) {
	b.setKeepAlive(s, UntilDeadline(time.Now().Add(snapshotTimeout)))
	defer func() {
		b.clearKeepAlive(s)
		_ = s.Close()
	}()

	b.setKeepAlive(s, Yes())

	peer := s.Conn().RemotePeer()
	select {
	case b.events <- OutEvent{Peer: peer, Initiated: true}:
	case <-ctx.Done():
		b.setKeepAlive(s, No())
		return
	}

	h := NewHandler(b.cfg, b.rate, b.snapshots)
	event := h.Handle(ctx, peer, s)

	b.setKeepAlive(s, No())

	select {
	case b.events <- event:
	case <-ctx.Done():
	}
}

func (b *Behaviour) setKeepAlive(s network.Stream, k KeepAlive) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.keepAlive[s] = k
}

func (b *Behaviour) clearKeepAlive(s network.Stream) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.keepAlive, s)
}

// KeepAliveFor reports the current keep-alive directive for an in-flight
// stream, or KeepAliveNo if the stream is unknown (already finished, or
// never ours). A connection-manager integration polls this to decide
// whether an otherwise idle connection may be trimmed.
func (b *Behaviour) KeepAliveFor(s network.Stream) KeepAlive {
	b.mu.Lock()
	defer b.mu.Unlock()
	if k, ok := b.keepAlive[s]; ok {
		return k
	}
	return No()
}
