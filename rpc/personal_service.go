// Copyright 2023 The AthanorLabs/atomic-swap Authors
// SPDX-License-Identifier: LGPL-3.0-only

package rpc

import (
	"context"
	"net/http"

	"github.com/blocktrade-labs/swap-setup/internal/maker"
)

// PersonalService is the JSON-RPC service a wallet front-end process calls
// to read a wallet snapshot from the maker core on demand.
type PersonalService struct {
	ctx       context.Context
	snapshots maker.SnapshotSource
}

// NewPersonalService constructs a PersonalService bound to the given
// snapshot source.
func NewPersonalService(ctx context.Context, snapshots maker.SnapshotSource) *PersonalService {
	return &PersonalService{ctx: ctx, snapshots: snapshots}
}

// GetWalletSnapshotRequest is empty: the snapshot taken is always of the
// maker's current wallet state, there's nothing to parameterize.
type GetWalletSnapshotRequest struct{}

// GetWalletSnapshotResponse carries the captured snapshot back to the
// front-end's JSON-RPC caller for display or logging purposes.
type GetWalletSnapshotResponse struct {
	Snapshot maker.WalletSnapshot `json:"snapshot"`
}

// GetWalletSnapshot triggers an independent wallet-snapshot capture through
// the same single-slot rendezvous a live setup handler uses, and returns
// the result (or an error if the request's context is done first). It does
// not answer any particular handler's pending request — the maker core
// satisfies those internally as part of its own validation pipeline — this
// method exists so a front-end can read current quoting conditions
// (balance, fee estimates) on demand, competing for a turn on the same
// rendezvous like any other caller.
func (p *PersonalService) GetWalletSnapshot(
	r *http.Request,
	_ *GetWalletSnapshotRequest,
	reply *GetWalletSnapshotResponse,
) error {
	snap, err := p.snapshots.Request(r.Context())
	if err != nil {
		return err
	}

	reply.Snapshot = snap
	return nil
}
