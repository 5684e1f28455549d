// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package merkle

import (
	"fmt"
	"sync"

	"github.com/Fantom-foundation/Ledger/backend/hashtree"
	"github.com/Fantom-foundation/Ledger/common"
)

// Tree is a keyed list of leaves with a binary Merkle hash over them. Every
// key is assigned a fixed leaf index on first insert; deleting a key leaves a
// tombstone at its index, so indexes never move and the root only depends on
// the sequence of leaves written.
//
// Any number of goroutines may read a Tree concurrently. Modifications
// require exclusive access.
type Tree[T Entry[T]] struct {
	leaves []Leaf[T]
	index  map[string]int
	live   int

	hashMutex sync.Mutex
	hashes    *hashtree.MemoryHashTree
}

// NewTree creates an empty tree.
func NewTree[T Entry[T]]() *Tree[T] {
	res := &Tree[T]{index: map[string]int{}}
	res.hashes = hashtree.NewMemoryHashTree(res)
	return res
}

// Restore creates a tree holding the given leaves at their positions.
func Restore[T Entry[T]](leaves []Leaf[T]) (*Tree[T], error) {
	res := &Tree[T]{
		leaves: make([]Leaf[T], len(leaves)),
		index:  make(map[string]int, len(leaves)),
	}
	for i, leaf := range leaves {
		if previous, exists := res.index[leaf.Key]; exists {
			return nil, fmt.Errorf("duplicate key %s at leaves %d and %d", leaf.Key, previous, i)
		}
		res.leaves[i] = leaf
		res.index[leaf.Key] = i
		if !leaf.Deleted {
			res.live++
		}
	}
	res.hashes = hashtree.NewMemoryHashTree(res)
	return res, nil
}

// Find returns the live value stored under the given key.
func (t *Tree[T]) Find(key string) (T, bool) {
	if i, exists := t.index[key]; exists && !t.leaves[i].Deleted {
		return t.leaves[i].Value, true
	}
	var zero T
	return zero, false
}

// FindIndex returns the leaf index of the key, including tombstoned keys,
// or -1 if the key was never stored.
func (t *Tree[T]) FindIndex(key string) int {
	if i, exists := t.index[key]; exists {
		return i
	}
	return -1
}

// ItemExists is true if the key has a live value.
func (t *Tree[T]) ItemExists(key string) bool {
	i, exists := t.index[key]
	return exists && !t.leaves[i].Deleted
}

// Len is the number of live values.
func (t *Tree[T]) Len() int {
	return t.live
}

// NumLeaves is the number of leaves, including tombstones.
func (t *Tree[T]) NumLeaves() int {
	return len(t.leaves)
}

// GetLeaf provides the encoded leaf at the given index.
func (t *Tree[T]) GetLeaf(i int) ([]byte, error) {
	if i < 0 || i >= len(t.leaves) {
		return nil, fmt.Errorf("leaf index %d out of range [0, %d)", i, len(t.leaves))
	}
	return EncodeLeaf(t.leaves[i])
}

// Set stores the value at the given leaf index. An index of -1 appends a new
// leaf for a key not yet present in the tree. The index of the value is
// returned.
func (t *Tree[T]) Set(index int, value T) (int, error) {
	key := value.GetKey()
	if index == -1 {
		if existing, exists := t.index[key]; exists {
			return 0, fmt.Errorf("key %s already stored at leaf %d", key, existing)
		}
		index = len(t.leaves)
		t.leaves = append(t.leaves, Leaf[T]{Key: key, Value: value})
		t.index[key] = index
		t.live++
		t.hashes.MarkUpdated(index)
		return index, nil
	}
	if index < 0 || index >= len(t.leaves) {
		return 0, fmt.Errorf("leaf index %d out of range [0, %d)", index, len(t.leaves))
	}
	leaf := &t.leaves[index]
	if leaf.Key != key {
		return 0, fmt.Errorf("leaf %d holds key %s, not %s", index, leaf.Key, key)
	}
	if leaf.Deleted {
		t.live++
	}
	leaf.Value = value
	leaf.Deleted = false
	t.hashes.MarkUpdated(index)
	return index, nil
}

// Tombstone deletes the value at the given index, keeping the key in place.
func (t *Tree[T]) Tombstone(index int) error {
	if index < 0 || index >= len(t.leaves) {
		return fmt.Errorf("leaf index %d out of range [0, %d)", index, len(t.leaves))
	}
	leaf := &t.leaves[index]
	if leaf.Deleted {
		return nil
	}
	var zero T
	leaf.Value = zero
	leaf.Deleted = true
	t.live--
	t.hashes.MarkUpdated(index)
	return nil
}

// ForEach visits all live values in leaf order until the callback returns false.
func (t *Tree[T]) ForEach(callback func(T) bool) {
	for _, leaf := range t.leaves {
		if leaf.Deleted {
			continue
		}
		if !callback(leaf.Value) {
			return
		}
	}
}

// ForEachLeaf visits all leaves, including tombstones, in leaf order.
func (t *Tree[T]) ForEachLeaf(callback func(int, Leaf[T]) bool) {
	for i, leaf := range t.leaves {
		if !callback(i, leaf) {
			return
		}
	}
}

// GetHash provides the Merkle root of the leaves, updated incrementally.
func (t *Tree[T]) GetHash() (common.Hash, error) {
	t.hashMutex.Lock()
	defer t.hashMutex.Unlock()
	return t.hashes.HashRoot()
}

// VerifyHash recomputes the root from scratch and compares it to the
// incrementally maintained root.
func (t *Tree[T]) VerifyHash() error {
	want, err := hashtree.ReduceHashes(len(t.leaves), func(i int) (common.Hash, error) {
		data, err := t.GetLeaf(i)
		if err != nil {
			return common.Hash{}, err
		}
		return common.Sha256(data), nil
	})
	if err != nil {
		return err
	}
	got, err := t.GetHash()
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("inconsistent root hash, maintained %v, recomputed %v", got, want)
	}
	return nil
}

// Copy creates a tree that can be modified without affecting this tree.
// Values are shared, so they must be copied before being modified.
func (t *Tree[T]) Copy() *Tree[T] {
	index := make(map[string]int, len(t.index))
	for key, i := range t.index {
		index[key] = i
	}
	res := &Tree[T]{
		leaves: append([]Leaf[T](nil), t.leaves...),
		index:  index,
		live:   t.live,
	}
	t.hashMutex.Lock()
	res.hashes = t.hashes.CopyFor(res)
	t.hashMutex.Unlock()
	return res
}
