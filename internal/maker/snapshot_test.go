// Copyright 2023 The AthanorLabs/atomic-swap Authors
// SPDX-License-Identifier: LGPL-3.0-only

package maker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// A wedged wallet must fail the snapshot request on its own 5s timer, not
// whatever remains of the caller's (much longer) deadline.
func TestSnapshotRequester_Request_TimesOutIndependentlyOfCallerDeadline(t *testing.T) {
	r := newSnapshotRequester(nil, nil)

	// Simulate a wedged wallet: something accepts the request off the
	// channel (so the submit select doesn't block on the caller's own
	// deadline) but never replies.
	go func() {
		<-r.requests
	}()

	ctx, cancel := context.WithTimeout(context.Background(), setupTimeout)
	defer cancel()

	start := time.Now()
	_, err := r.Request(ctx)
	elapsed := time.Since(start)

	require.ErrorIs(t, err, ErrWalletSnapshotFailed)
	require.Less(t, elapsed, setupTimeout)
}

// When the caller's own context expires first (shorter than snapshotTimeout),
// that shorter deadline wins and is reported distinctly.
func TestSnapshotRequester_Request_CallerDeadlineWinsWhenShorter(t *testing.T) {
	r := newSnapshotRequester(nil, nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()

	_, err := r.Request(ctx)
	require.Error(t, err)
	require.False(t, errors.Is(err, ErrWalletSnapshotFailed))
}
