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
	"sync"

	"github.com/Fantom-foundation/Ledger/backend/merkle"
	"github.com/Fantom-foundation/Ledger/common"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// DefaultReadCacheSize is the capacity of the read cache of a collection view
// if not configured otherwise.
const DefaultReadCacheSize = 1 << 12

// source is the layer below a mutable view.
type source[T any] interface {
	find(key string) (T, bool)
	exists(key string) bool
	forEach(callback func(T) bool)
}

// mutableMerkle is the part shared by all MutableMerkle variants: a map of
// pending changes and a read cache of unchanged values over a source.
//
// The mutex protects the maps only. Logical isolation of concurrent users is
// up to the address locks held by their transactions.
type mutableMerkle[T merkle.Entry[T]] struct {
	name     Collection
	source   source[T]
	sequence func() int64

	mutex     sync.Mutex
	changes   map[string]*namedObject[T]
	unchanged *common.LruCache[string, T]
}

func newMutableMerkle[T merkle.Entry[T]](name Collection, source source[T], sequence func() int64, cacheSize int) *mutableMerkle[T] {
	if cacheSize <= 0 {
		cacheSize = DefaultReadCacheSize
	}
	return &mutableMerkle[T]{
		name:      name,
		source:    source,
		sequence:  sequence,
		changes:   map[string]*namedObject[T]{},
		unchanged: common.NewLruCache[string, T](cacheSize),
	}
}

func (m *mutableMerkle[T]) collection() Collection {
	return m.name
}

func (m *mutableMerkle[T]) nextSequence() int64 {
	return m.sequence()
}

func (m *mutableMerkle[T]) Find(key string) (T, bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if change, found := m.changes[key]; found {
		if change.deleted {
			var zero T
			return zero, false
		}
		return change.value, true
	}
	if value, found := m.unchanged.Get(key); found {
		return value, true
	}
	value, found := m.source.find(key)
	if found {
		m.unchanged.Set(key, value)
	}
	return value, found
}

func (m *mutableMerkle[T]) FindAndMarkUpdated(key string) (T, bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if change, found := m.changes[key]; found {
		if change.deleted {
			var zero T
			return zero, false
		}
		return change.value, true
	}
	value, found := m.unchanged.Remove(key)
	if !found {
		value, found = m.source.find(key)
	}
	if !found {
		return value, false
	}
	value = value.Copy()
	m.changes[key] = &namedObject[T]{
		sequence: m.sequence(),
		key:      key,
		value:    value,
	}
	return value, true
}

func (m *mutableMerkle[T]) Add(value T) {
	key := value.GetKey()
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if change, found := m.changes[key]; found {
		if change.deleted {
			change.deleted = false
			change.sequence = m.sequence()
		}
		change.value = value
		return
	}
	m.unchanged.Remove(key)
	m.changes[key] = &namedObject[T]{
		sequence: m.sequence(),
		key:      key,
		value:    value,
	}
}

func (m *mutableMerkle[T]) Delete(key string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if change, found := m.changes[key]; found {
		if !change.deleted {
			var zero T
			change.deleted = true
			change.value = zero
			change.sequence = m.sequence()
		}
		return
	}
	if _, found := m.unchanged.Remove(key); !found && !m.source.exists(key) {
		return
	}
	m.changes[key] = &namedObject[T]{
		sequence: m.sequence(),
		deleted:  true,
		key:      key,
	}
}

func (m *mutableMerkle[T]) ItemExists(key string) bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if change, found := m.changes[key]; found {
		return !change.deleted
	}
	if m.unchanged.Contains(key) {
		return true
	}
	return m.source.exists(key)
}

func (m *mutableMerkle[T]) ForEach(callback func(T) bool) {
	m.mutex.Lock()
	changes := maps.Clone(m.changes)
	m.mutex.Unlock()

	seen := make(map[string]struct{}, len(changes))
	stopped := false
	m.source.forEach(func(value T) bool {
		key := value.GetKey()
		if change, found := changes[key]; found {
			seen[key] = struct{}{}
			if change.deleted {
				return true
			}
			value = change.value
		}
		stopped = !callback(value)
		return !stopped
	})
	if stopped {
		return
	}

	added := make([]*namedObject[T], 0, len(changes))
	for key, change := range changes {
		if _, found := seen[key]; !found && !change.deleted {
			added = append(added, change)
		}
	}
	sortBySequence(added)
	for _, change := range added {
		if !callback(change.value) {
			return
		}
	}
}

func (m *mutableMerkle[T]) GetUpdatedKeys() []string {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	keys := maps.Keys(m.changes)
	slices.Sort(keys)
	return keys
}

func (m *mutableMerkle[T]) GetChangedEntriesCount() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return len(m.changes)
}

func (m *mutableMerkle[T]) Reset() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.changes = map[string]*namedObject[T]{}
	m.unchanged.Clear()
}

// takeChanges removes all pending changes, ordered by creation sequence.
func (m *mutableMerkle[T]) takeChanges() []*namedObject[T] {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	changes := maps.Values(m.changes)
	m.changes = map[string]*namedObject[T]{}
	sortBySequence(changes)
	return changes
}

// emptySource is the source of collections without a backing tree.
type emptySource[T any] struct{}

func (emptySource[T]) find(string) (T, bool) {
	var zero T
	return zero, false
}

func (emptySource[T]) exists(string) bool   { return false }
func (emptySource[T]) forEach(func(T) bool) {}
