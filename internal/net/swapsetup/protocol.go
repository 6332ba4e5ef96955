// Copyright 2023 The AthanorLabs/atomic-swap Authors
// SPDX-License-Identifier: LGPL-3.0-only

// Package swapsetup provides the wire protocol identifier, message types and
// framed codec shared by the maker handler and the taker event loop. Nothing
// in this package is specific to either role: both sides read and write the
// same seven message types (SpotPriceRequest, SpotPriceResponse and
// Message0 through Message4) over the same protocol ID.
package swapsetup

import "github.com/libp2p/go-libp2p/core/protocol"

// ID is the libp2p protocol identifier negotiated for every inbound setup
// substream. The maker is the only side that listens for it; takers only
// ever open outbound substreams for this ID.
const ID protocol.ID = "/xmr-btc-swap/setup/1.0.0"
