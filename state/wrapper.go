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
	"github.com/Fantom-foundation/Ledger/backend/merkle"
)

// Wrapper is a MutableMerkle layered over another MutableMerkle. Committing
// replays the pending changes into the parent.
type Wrapper[T merkle.Entry[T]] struct {
	*mutableMerkle[T]
	parent MutableMerkle[T]
}

func NewWrapper[T merkle.Entry[T]](parent MutableMerkle[T], cacheSize int) *Wrapper[T] {
	res := &Wrapper[T]{parent: parent}
	res.mutableMerkle = newMutableMerkle[T](parent.collection(), res, parent.nextSequence, cacheSize)
	return res
}

func (m *Wrapper[T]) find(key string) (T, bool) {
	return m.parent.Find(key)
}

func (m *Wrapper[T]) exists(key string) bool {
	return m.parent.ItemExists(key)
}

func (m *Wrapper[T]) forEach(callback func(T) bool) {
	m.parent.ForEach(callback)
}

// Commit replays all pending changes, in the order they were made, into the
// parent. The listener is not used, it is informed by the outermost layer.
func (m *Wrapper[T]) Commit(int, uint64, ChangeListener) error {
	for _, change := range m.takeChanges() {
		if change.deleted {
			m.parent.Delete(change.key)
		} else {
			m.parent.Add(change.value)
		}
	}
	m.mutex.Lock()
	m.unchanged.Clear()
	m.mutex.Unlock()
	return nil
}
