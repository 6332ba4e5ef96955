// Copyright 2023 The AthanorLabs/atomic-swap Authors
// SPDX-License-Identifier: LGPL-3.0-only

package maker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestKeepAlive_No(t *testing.T) {
	require.True(t, No().Allowed(time.Now()))
}

func TestKeepAlive_Yes(t *testing.T) {
	require.False(t, Yes().Allowed(time.Now()))
}

func TestKeepAlive_Until(t *testing.T) {
	now := time.Now()
	k := UntilDeadline(now.Add(5 * time.Second))

	require.False(t, k.Allowed(now))
	require.True(t, k.Allowed(now.Add(6*time.Second)))
}
