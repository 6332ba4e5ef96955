// Copyright 2023 The AthanorLabs/atomic-swap Authors
// SPDX-License-Identifier: LGPL-3.0-only

package maker

import "time"

// KeepAliveKind tags a KeepAlive value.
type KeepAliveKind int

// Closed set of keep-alive directives, matching spec.md's
// {No, Until(Instant), Yes}.
const (
	KeepAliveNo KeepAliveKind = iota
	KeepAliveUntil
	KeepAliveYes
)

// KeepAlive governs whether a connection-manager integration may drop an
// otherwise idle connection. It starts at Until(now+5s) (reject idle
// connectors that never open a substream), is upgraded to Yes once a
// substream is fully negotiated, and is downgraded to No once the handler's
// task resolves, whether it succeeded or failed.
type KeepAlive struct {
	Kind  KeepAliveKind
	Until time.Time
}

// No returns a KeepAlive that permits the connection to be dropped.
func No() KeepAlive { return KeepAlive{Kind: KeepAliveNo} }

// Yes returns a KeepAlive that forbids dropping the connection.
func Yes() KeepAlive { return KeepAlive{Kind: KeepAliveYes} }

// UntilDeadline returns a KeepAlive that permits dropping the connection
// only after t has passed.
func UntilDeadline(t time.Time) KeepAlive { return KeepAlive{Kind: KeepAliveUntil, Until: t} }

// Allowed reports whether, as of now, the connection is permitted to be
// dropped.
func (k KeepAlive) Allowed(now time.Time) bool {
	switch k.Kind {
	case KeepAliveNo:
		return true
	case KeepAliveYes:
		return false
	case KeepAliveUntil:
		return now.After(k.Until)
	default:
		return true
	}
}
