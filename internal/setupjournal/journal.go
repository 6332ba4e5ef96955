// Copyright 2023 The AthanorLabs/atomic-swap Authors
// SPDX-License-Identifier: LGPL-3.0-only

// Package setupjournal records the outcome of every setup attempt — maker
// or taker side — to a persistent log, the way protocol/swap.Manager
// tracks swap Info in the teacher repo, but scoped to just the setup
// handshake rather than the full post-setup execution lifecycle.
package setupjournal

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ChainSafe/chaindb"
	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"

	"github.com/blocktrade-labs/swap-setup/internal/coins"
)

// Role identifies which side of a setup attempt this entry records.
type Role string

// The two roles a setup attempt can be recorded from.
const (
	RoleMaker Role = "maker"
	RoleTaker Role = "taker"
)

// Status is the lifecycle state of a journaled setup attempt.
type Status int

// Closed set of lifecycle states an Entry can be in.
const (
	StatusOngoing Status = iota
	StatusCompleted
	StatusFailed
)

// Entry is one journaled setup attempt.
type Entry struct {
	SwapID  uuid.UUID
	Role    Role
	Peer    string
	BTC     coins.BitcoinAmount
	XMR     coins.MoneroAmount
	Network coins.BlockchainNetwork
	Status  Status

	StartTime time.Time
	EndTime   *time.Time
	FailureReason string
}

// ErrNotFound is returned when an entry is looked up by an ID the journal
// has never recorded.
var ErrNotFound = errors.New("setupjournal: no entry with given id")

// Journal tracks in-progress and completed setup attempts, persisting every
// write so a restart can recover which swaps were mid-setup when the
// process stopped.
type Journal interface {
	// RecordAttempt journals a setup attempt that has just started.
	RecordAttempt(e *Entry) error
	// Complete marks an ongoing attempt as finished, successfully or not.
	Complete(id uuid.UUID, failureReason string) error
	// Get returns the entry for id, ongoing or past.
	Get(id uuid.UUID) (*Entry, error)
	// Ongoing returns every entry currently in StatusOngoing.
	Ongoing() ([]*Entry, error)
}

type journal struct {
	db chaindb.Database

	mu      sync.RWMutex
	ongoing map[uuid.UUID]*Entry
}

var _ Journal = (*journal)(nil)

// Open opens (creating if necessary) a badger-backed Journal rooted at
// path.
func Open(path string) (Journal, error) {
	db, err := chaindb.NewBadgerDB(path)
	if err != nil {
		return nil, fmt.Errorf("setupjournal: opening database: %w", err)
	}
	return NewJournal(db)
}

// NewJournal builds a Journal over an already-open chaindb.Database and
// loads every ongoing entry into memory.
func NewJournal(db chaindb.Database) (Journal, error) {
	j := &journal{
		db:      db,
		ongoing: make(map[uuid.UUID]*Entry),
	}

	iter := db.NewIterator()
	defer iter.Release()

	for iter.Next() {
		var e Entry
		if err := cbor.Unmarshal(iter.Value(), &e); err != nil {
			return nil, fmt.Errorf("setupjournal: decoding stored entry: %w", err)
		}
		if e.Status == StatusOngoing {
			j.ongoing[e.SwapID] = &e
		}
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("setupjournal: iterating stored entries: %w", err)
	}

	return j, nil
}

func (j *journal) RecordAttempt(e *Entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if e.StartTime.IsZero() {
		e.StartTime = time.Now()
	}
	e.Status = StatusOngoing

	j.ongoing[e.SwapID] = e
	return j.put(e)
}

func (j *journal) Complete(id uuid.UUID, failureReason string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	e, ok := j.ongoing[id]
	if !ok {
		return ErrNotFound
	}

	now := time.Now()
	e.EndTime = &now
	e.FailureReason = failureReason
	if failureReason == "" {
		e.Status = StatusCompleted
	} else {
		e.Status = StatusFailed
	}

	delete(j.ongoing, id)
	return j.put(e)
}

func (j *journal) Get(id uuid.UUID) (*Entry, error) {
	j.mu.RLock()
	if e, ok := j.ongoing[id]; ok {
		j.mu.RUnlock()
		return e, nil
	}
	j.mu.RUnlock()

	raw, err := j.db.Get(id[:])
	if err != nil {
		if errors.Is(err, chaindb.ErrKeyNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("setupjournal: reading entry: %w", err)
	}

	var e Entry
	if err := cbor.Unmarshal(raw, &e); err != nil {
		return nil, fmt.Errorf("setupjournal: decoding entry: %w", err)
	}
	return &e, nil
}

func (j *journal) Ongoing() ([]*Entry, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	out := make([]*Entry, 0, len(j.ongoing))
	for _, e := range j.ongoing {
		cp := *e
		out = append(out, &cp)
	}
	return out, nil
}

func (j *journal) put(e *Entry) error {
	raw, err := cbor.Marshal(e)
	if err != nil {
		return fmt.Errorf("setupjournal: encoding entry: %w", err)
	}
	return j.db.Put(e.SwapID[:], raw)
}
