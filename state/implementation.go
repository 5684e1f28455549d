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
	"github.com/ethereum/go-ethereum/log"
)

// Implementation is a MutableMerkle over a backing tree. Committing writes
// the pending changes into the tree.
type Implementation[T merkle.Entry[T]] struct {
	*mutableMerkle[T]
	tree    *merkle.Tree[T]
	counter atomic.Int64
}

// NewImplementation creates a view over the given tree, which is modified by
// Commit.
func NewImplementation[T merkle.Entry[T]](name Collection, tree *merkle.Tree[T], cacheSize int) *Implementation[T] {
	res := &Implementation[T]{tree: tree}
	res.mutableMerkle = newMutableMerkle[T](name, res, res.next, cacheSize)
	return res
}

func (m *Implementation[T]) next() int64 {
	return m.counter.Add(1)
}

// Tree provides the backing tree.
func (m *Implementation[T]) Tree() *merkle.Tree[T] {
	return m.tree
}

func (m *Implementation[T]) find(key string) (T, bool) {
	return m.tree.Find(key)
}

func (m *Implementation[T]) exists(key string) bool {
	return m.tree.ItemExists(key)
}

func (m *Implementation[T]) forEach(callback func(T) bool) {
	m.tree.ForEach(callback)
}

// detach replaces the backing tree by a private copy, so that a commit does
// not modify a tree shared with others.
func (m *Implementation[T]) detach() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.tree = m.tree.Copy()
}

// Commit writes all pending changes into the backing tree. Existing keys are
// written in leaf order, new keys in the order they were created, deleted
// keys are tombstoned. The listener is informed about every key whose value
// changed. Afterwards the written values are served from the read cache.
func (m *Implementation[T]) Commit(version int, height uint64, listener ChangeListener) error {
	if listener == nil {
		listener = NoOpListener{}
	}
	m.mutex.Lock()
	defer m.mutex.Unlock()

	objects := make([]indexedObject[T], 0, len(m.changes))
	for key, change := range m.changes {
		objects = append(objects, indexedObject[T]{index: m.tree.FindIndex(key), namedObject: change})
	}
	sortForCommit(objects)

	written := 0
	for _, object := range objects {
		var oldValue any
		if old, found := m.tree.Find(object.key); found {
			oldValue = old
		}
		if object.deleted {
			if oldValue == nil {
				continue
			}
			if err := m.tree.Tombstone(object.index); err != nil {
				return fmt.Errorf("failed to delete %s from %s: %w", object.key, m.name, err)
			}
			listener.OnChange(m.name, object.key, oldValue, nil)
			written++
			continue
		}
		stampUpdateHeight(object.value, version, height)
		if _, err := m.tree.Set(object.index, object.value); err != nil {
			return fmt.Errorf("failed to write %s to %s: %w", object.key, m.name, err)
		}
		listener.OnChange(m.name, object.key, oldValue, object.value)
		written++
	}

	for _, object := range objects {
		if !object.deleted {
			m.unchanged.Set(object.key, object.value)
		}
	}
	m.changes = map[string]*namedObject[T]{}
	log.Debug("Committed collection", "collection", m.name, "changes", len(objects), "written", written)
	return nil
}
