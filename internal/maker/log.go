// Copyright 2023 The AthanorLabs/atomic-swap Authors
// SPDX-License-Identifier: LGPL-3.0-only

package maker

import logging "github.com/ipfs/go-log"

var log = logging.Logger("maker")
