// Copyright 2023 The AthanorLabs/atomic-swap Authors
// SPDX-License-Identifier: LGPL-3.0-only

package maker

import (
	"context"
	"fmt"
	"time"
)

// SnapshotSource is the narrow capability a collaborator (for example the
// rpc package's PersonalService) needs in order to trigger and observe a
// wallet snapshot, without depending on the unexported snapshotRequester
// type itself.
type SnapshotSource interface {
	Request(ctx context.Context) (WalletSnapshot, error)
}

// snapshotRequest is a single-slot request/reply rendezvous, modeled on the
// teacher's txsender.ExternalSender out/in channel pair: one side sends a
// request and a private reply channel, the other reads the request, does
// the work, and sends exactly one reply back down that channel. Unlike
// ExternalSender, the reply channel lives on the request value itself
// (buffered, capacity 1) rather than as a second shared channel, so many
// concurrent handlers can share one requester without their replies
// crossing.
type snapshotRequest struct {
	reply chan snapshotReply
}

type snapshotReply struct {
	snapshot WalletSnapshot
	err      error
}

// snapshotRequester is the single goroutine-owned entry point through which
// per-connection handlers obtain a WalletSnapshot. Constructing one spawns
// nothing; Run must be driven by the caller's chosen goroutine (Behaviour.Start
// spawns a dedicated one), serializing wallet access the same way the
// teacher serializes transaction submission through ExternalSender.
type snapshotRequester struct {
	btc BitcoinWallet
	xmr MoneroWallet

	requests chan snapshotRequest
}

func newSnapshotRequester(btc BitcoinWallet, xmr MoneroWallet) *snapshotRequester {
	return &snapshotRequester{
		btc:      btc,
		xmr:      xmr,
		requests: make(chan snapshotRequest),
	}
}

// Run serves snapshot requests until ctx is canceled. It must be run from
// exactly one goroutine.
func (r *snapshotRequester) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case req := <-r.requests:
			snap, err := captureWalletSnapshot(ctx, r.btc, r.xmr)
			req.reply <- snapshotReply{snapshot: snap, err: err}
		}
	}
}

// Request submits a request and waits up to snapshotTimeout for a reply,
// independent of how much of the caller's own deadline remains. A wedged
// wallet must fail the handler in 5s, not in whatever is left of the 60s
// setup window. Returning an error here means the handler's whole setup
// attempt fails: the spec treats wallet unavailability as fatal to the
// connection, never as a reason to silently proceed with stale data.
func (r *snapshotRequester) Request(ctx context.Context) (WalletSnapshot, error) {
	req := snapshotRequest{reply: make(chan snapshotReply, 1)}

	select {
	case r.requests <- req:
	case <-ctx.Done():
		return WalletSnapshot{}, fmt.Errorf("submitting wallet snapshot request: %w", ctx.Err())
	}

	timer := time.NewTimer(snapshotTimeout)
	defer timer.Stop()

	select {
	case resp := <-req.reply:
		return resp.snapshot, resp.err
	case <-ctx.Done():
		return WalletSnapshot{}, fmt.Errorf("waiting for wallet snapshot: %w", ctx.Err())
	case <-timer.C:
		return WalletSnapshot{}, fmt.Errorf("waiting for wallet snapshot: %w", ErrWalletSnapshotFailed)
	}
}
