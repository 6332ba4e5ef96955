// Copyright 2023 The AthanorLabs/atomic-swap Authors
// SPDX-License-Identifier: LGPL-3.0-only

package maker

import "github.com/blocktrade-labs/swap-setup/internal/coins"

// Config is the configuration recognized by the maker handler: the
// acceptable purchase range, the network it believes it is running on, and
// whether it is currently only resuming prior swaps rather than accepting
// new ones.
//
// Loading Config from a file or flag set is a collaborator concern (see
// cmd/makerd); this struct is the in-memory shape the core consumes.
type Config struct {
	MinBuy     coins.BitcoinAmount
	MaxBuy     coins.BitcoinAmount
	Network    coins.BlockchainNetwork
	ResumeOnly bool
}
