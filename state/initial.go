// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package state

import (
	"fmt"
	"sync/atomic"

	"github.com/Fantom-foundation/Ledger/backend/merkle"
)

// Initial is a MutableMerkle for a collection that has no backing tree yet,
// as in the genesis block. Every entry is an insert.
type Initial[T merkle.Entry[T]] struct {
	*mutableMerkle[T]
	counter atomic.Int64
}

func NewInitial[T merkle.Entry[T]](name Collection, cacheSize int) *Initial[T] {
	res := &Initial[T]{}
	res.mutableMerkle = newMutableMerkle[T](name, emptySource[T]{}, res.next, cacheSize)
	return res
}

func (m *Initial[T]) next() int64 {
	return m.counter.Add(1)
}

// HasInsert is true if a backing tree is needed to store the pending changes.
func (m *Initial[T]) HasInsert() bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	for _, change := range m.changes {
		if !change.deleted {
			return true
		}
	}
	return false
}

// Commit keeps the pending inserts, since there is no tree to write them to.
// Use WriteTo instead.
func (m *Initial[T]) Commit(int, uint64, ChangeListener) error {
	return nil
}

// WriteTo writes all live pending entries into the given tree in the order
// they were created, and clears the pending changes.
func (m *Initial[T]) WriteTo(version int, height uint64, tree *merkle.Tree[T], listener ChangeListener) error {
	if listener == nil {
		listener = NoOpListener{}
	}
	for _, change := range m.takeChanges() {
		if change.deleted {
			continue
		}
		var oldValue any
		if old, found := tree.Find(change.key); found {
			oldValue = old
		}
		stampUpdateHeight(change.value, version, height)
		if _, err := tree.Set(tree.FindIndex(change.key), change.value); err != nil {
			return fmt.Errorf("failed to write %s to %s: %w", change.key, m.name, err)
		}
		listener.OnChange(m.name, change.key, oldValue, change.value)
	}
	return nil
}
