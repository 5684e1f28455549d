// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package ledger maintains the chain of states in a directory. Blocks of
// transactions are applied to the head state and each resulting state is
// persisted before it becomes the new head.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/Fantom-foundation/Ledger/addrset"
	"github.com/Fantom-foundation/Ledger/backend"
	"github.com/Fantom-foundation/Ledger/common"
	"github.com/Fantom-foundation/Ledger/processor"
	"github.com/Fantom-foundation/Ledger/state"
	"github.com/Fantom-foundation/Ledger/state/ldbstate"
	"github.com/ethereum/go-ethereum/log"
	"github.com/syndtr/goleveldb/leveldb"
)

const (
	ErrClosed          = common.ConstError("ledger is closed")
	ErrBlockInProgress = common.ConstError("concurrent block already in progress")
	ErrChainMismatch   = common.ConstError("stored state belongs to a different chain")
)

// DefaultVersion is the state version of new ledgers.
const DefaultVersion = state.VersionUseUpdateHeight

type Ledger struct {
	lock      *common.DirectoryLock
	db        *leveldb.DB
	locks     *addrset.LockManager
	processor *processor.Processor

	mutex sync.Mutex
	head  *state.State

	blockInProgress atomic.Bool
	closed          atomic.Bool
}

// Open opens the ledger stored in the given directory. A missing ledger is
// created, starting from an empty state.
func Open(directory string, properties Properties) (*Ledger, error) {
	chainID, err := properties.GetInteger(ChainID, 0)
	if err != nil {
		return nil, err
	}
	version, err := properties.GetInteger(Version, DefaultVersion)
	if err != nil {
		return nil, err
	}
	cacheSize, err := properties.GetInteger(ReadCacheSize, state.DefaultReadCacheSize)
	if err != nil {
		return nil, err
	}
	workers, err := properties.GetInteger(Workers, 0)
	if err != nil {
		return nil, err
	}
	params := state.Parameters{ReadCacheSize: cacheSize}

	lock, err := common.LockDirectory(directory)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}
	db, err := backend.OpenLevelDb(directory, nil)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("failed to open ledger: %w", err), lock.Release())
	}
	head, err := ldbstate.Load(db, params)
	if errors.Is(err, ldbstate.ErrNoState) {
		log.Info("Creating new ledger", "directory", directory, "chain", chainID, "version", version)
		head, err = state.NewEmptyState(uint64(chainID), version, params)
	}
	if _, pinned := properties[ChainID]; err == nil && pinned && head.ChainID() != uint64(chainID) {
		err = fmt.Errorf("%w: wanted %d, got %d", ErrChainMismatch, chainID, head.ChainID())
	}
	if err != nil {
		return nil, errors.Join(fmt.Errorf("failed to open ledger: %w", err), db.Close(), lock.Release())
	}

	locks := addrset.NewLockManager()
	log.Info("Opened ledger", "directory", directory, "height", head.Height(), "state", head.StateHash())
	return &Ledger{
		lock:      lock,
		db:        db,
		locks:     locks,
		processor: processor.New(locks, processor.Config{Workers: workers}),
		head:      head,
	}, nil
}

// Head provides the state after the last added block.
func (l *Ledger) Head() *state.State {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return l.head
}

// Locks is the lock manager coordinating the transactions of this ledger.
func (l *Ledger) Locks() *addrset.LockManager {
	return l.locks
}

// AddBlock applies the transactions on top of the head state and persists
// the resulting state as the new head. Failing transactions are reported in
// the results without aborting the block. If the context is cancelled while
// transactions are processed, the block is dropped and the head is kept.
func (l *Ledger) AddBlock(ctx context.Context, block state.BlockMetadata, txs []processor.Transaction) (*state.State, []processor.Result, error) {
	if l.closed.Load() {
		return nil, nil, ErrClosed
	}
	if !l.blockInProgress.CompareAndSwap(false, true) {
		return nil, nil, ErrBlockInProgress
	}
	defer l.blockInProgress.Store(false)

	head := l.Head()
	height := head.Height() + 1
	snapshot := head.CreateSnapshot()
	results, err := l.processor.Run(ctx, snapshot, txs)
	if err != nil {
		return nil, results, fmt.Errorf("error while processing block %d: %w", height, err)
	}
	next, err := snapshot.FinalizeBlock(block)
	if err != nil {
		return nil, results, fmt.Errorf("failed to finalize block %d: %w", height, err)
	}
	if err := ldbstate.Save(l.db, next); err != nil {
		return nil, results, fmt.Errorf("failed to persist block %d: %w", height, err)
	}

	l.mutex.Lock()
	l.head = next
	l.mutex.Unlock()
	return next, results, nil
}

func (l *Ledger) Close() error {
	if !l.closed.CompareAndSwap(false, true) {
		return nil
	}
	if l.blockInProgress.Load() {
		log.Warn("Closing ledger while a block is in progress")
	}
	return errors.Join(
		l.db.Close(),
		l.lock.Release(),
	)
}
