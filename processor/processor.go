// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package processor applies the transactions of a block concurrently while
// producing the same result as applying them one after another.
package processor

import (
	"context"
	"runtime"
	"time"

	"github.com/Fantom-foundation/Ledger/addrset"
	"github.com/Fantom-foundation/Ledger/common/interrupt"
	"github.com/Fantom-foundation/Ledger/state"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/metrics"
	"golang.org/x/sync/errgroup"
)

var (
	appliedCounter = metrics.NewRegisteredCounter("processor/transactions/applied", nil)
	failedCounter  = metrics.NewRegisteredCounter("processor/transactions/failed", nil)
	runTimer       = metrics.NewRegisteredTimer("processor/run", nil)
)

// Config are the settings of a Processor.
type Config struct {
	// Workers is the number of transactions applied in parallel, the number
	// of CPUs if not positive.
	Workers int
}

// Transaction is a unit of work on a state snapshot.
type Transaction interface {
	// Addresses lists all addresses the transaction reads or writes.
	Addresses() addrset.AddressSet

	// Apply performs the transaction on the given snapshot. The snapshot
	// is discarded if an error is returned or the snapshot is marked as
	// corrupted.
	Apply(snapshot *state.StateSnapshot) error
}

// Result is the outcome of a single transaction.
type Result struct {
	Index int
	Err   error
}

// Processor runs transactions holding the locks of their address sets.
// Transactions with disjoint address sets run in parallel, each on its own
// nested snapshot. Snapshots are committed in transaction order.
type Processor struct {
	locks   *addrset.LockManager
	workers int
}

func New(locks *addrset.LockManager, config Config) *Processor {
	workers := config.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Processor{locks: locks, workers: workers}
}

type task struct {
	index    int
	tx       Transaction
	set      addrset.AddressSet
	snapshot *state.StateSnapshot
	err      error
	done     chan struct{}
}

// Run applies the transactions to nested snapshots of the parent and commits
// the successful ones into it. If the context is cancelled, no further
// transactions are started, the pending ones are completed, and
// interrupt.ErrCanceled is returned. Transactions not started report the
// same error in their result.
func (p *Processor) Run(ctx context.Context, parent *state.StateSnapshot, txs []Transaction) ([]Result, error) {
	start := time.Now()
	results := make([]Result, len(txs))
	for i := range results {
		results[i] = Result{Index: i, Err: interrupt.ErrCanceled}
	}

	tasks := make(chan *task, len(txs))
	committed := make(chan int, 1)
	go func() {
		committed <- p.commit(tasks, results)
	}()

	var workers errgroup.Group
	workers.SetLimit(p.workers)
	canceled := false
	for i, tx := range txs {
		if interrupt.IsCancelled(ctx) {
			canceled = true
			break
		}
		t := &task{index: i, tx: tx, set: tx.Addresses(), done: make(chan struct{})}
		if !p.locks.TryLock(t.set) {
			log.Trace("Waiting for address locks", "transaction", i, "addresses", t.set)
			p.locks.Lock(t.set)
		}
		t.snapshot = parent.CreateSnapshot()
		tasks <- t
		workers.Go(func() error {
			defer close(t.done)
			t.err = t.tx.Apply(t.snapshot)
			return nil
		})
	}
	close(tasks)
	_ = workers.Wait()
	failed := <-committed

	runTimer.UpdateSince(start)
	log.Debug("Processed transactions", "count", len(txs), "failed", failed, "canceled", canceled, "elapsed", time.Since(start))
	if canceled {
		return results, interrupt.ErrCanceled
	}
	return results, nil
}

// commit finalizes the dispatched tasks in order and releases their locks.
// The number of failed transactions is returned.
func (p *Processor) commit(tasks <-chan *task, results []Result) int {
	failed := 0
	for t := range tasks {
		<-t.done
		err := t.err
		if err == nil {
			err = t.snapshot.Commit()
		}
		if err != nil {
			t.snapshot.Reset()
			failed++
			failedCounter.Inc(1)
			log.Debug("Transaction failed", "transaction", t.index, "err", err)
		} else {
			appliedCounter.Inc(1)
		}
		p.locks.Unlock(t.set)
		results[t.index].Err = err
	}
	return failed
}
