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
	"github.com/Fantom-foundation/Ledger/common"
)

// Merkle is a read-only keyed collection with a Merkle root hash.
type Merkle[T any] interface {
	// Find returns the live value stored under the given key. The returned
	// value is shared and must not be modified.
	Find(key string) (T, bool)

	// ItemExists is true if a live value is stored under the key.
	ItemExists(key string) bool

	// ForEach visits all live values until the callback returns false.
	ForEach(callback func(T) bool)

	// Len is the number of live values.
	Len() int

	// GetHash provides the Merkle root of the collection.
	GetHash() (common.Hash, error)
}

// MutableMerkle is a working layer over a keyed collection buffering
// modifications until they are committed into the layer below.
type MutableMerkle[T merkle.Entry[T]] interface {
	// Find returns the current value of the key without marking it as
	// updated. The returned value is shared and must not be modified.
	Find(key string) (T, bool)

	// FindAndMarkUpdated returns a private copy of the current value of the
	// key and registers it as changed. Modifications of the returned value
	// are part of the next commit.
	FindAndMarkUpdated(key string) (T, bool)

	// Add inserts the value, replacing any value stored under its key.
	Add(value T)

	// Delete removes the key. Deleting an unknown key is a no-op.
	Delete(key string)

	// ItemExists is true if a live value is stored under the key.
	ItemExists(key string) bool

	// ForEach visits all live values of the merged view until the callback
	// returns false. Values of the layer below come first, then values added
	// in this layer in the order they were added.
	ForEach(callback func(T) bool)

	// GetUpdatedKeys lists the keys changed since the last commit or reset
	// in ascending order.
	GetUpdatedKeys() []string

	// GetChangedEntriesCount is the number of changed keys.
	GetChangedEntriesCount() int

	// Reset drops all uncommitted changes.
	Reset()

	// Commit writes the pending changes into the layer below. The version
	// and height are those of the block being built.
	Commit(version int, height uint64, listener ChangeListener) error

	collection() Collection
	nextSequence() int64
}

// updateHeightSetter is implemented by values recording the height of the
// block they were last changed in.
type updateHeightSetter interface {
	SetUpdateHeight(height uint64)
}

// VersionUseUpdateHeight is the first state version recording update heights.
const VersionUseUpdateHeight = 4

func stampUpdateHeight(value any, version int, height uint64) {
	if version < VersionUseUpdateHeight {
		return
	}
	if setter, ok := value.(updateHeightSetter); ok {
		setter.SetUpdateHeight(height)
	}
}

// emptyMerkle is the view of a collection without a backing tree.
type emptyMerkle[T any] struct{}

func (emptyMerkle[T]) Find(string) (T, bool) {
	var zero T
	return zero, false
}

func (emptyMerkle[T]) ItemExists(string) bool        { return false }
func (emptyMerkle[T]) ForEach(func(T) bool)          {}
func (emptyMerkle[T]) Len() int                      { return 0 }
func (emptyMerkle[T]) GetHash() (common.Hash, error) { return common.Hash{}, nil }
