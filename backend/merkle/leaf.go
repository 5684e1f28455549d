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

	"github.com/ethereum/go-ethereum/rlp"
)

// Entry is the contract of values stored in a Tree. Values are keyed by a
// string and must be encodable with RLP.
type Entry[T any] interface {
	// GetKey provides the key the value is stored under.
	GetKey() string
	// Copy creates a deep copy, so that modifications of the copy are not
	// visible through the original.
	Copy() T
}

// Leaf is a slot of the tree. Deleted leaves are tombstones: they keep their
// index and key, but carry no value.
type Leaf[T any] struct {
	Key     string
	Value   T
	Deleted bool
}

// leafRecord is the hashed and persisted form of a leaf.
type leafRecord struct {
	Key     string
	Deleted bool
	Value   []byte
}

// EncodeLeaf produces the canonical encoding of a leaf, which is the input of
// its leaf hash.
func EncodeLeaf[T any](leaf Leaf[T]) ([]byte, error) {
	record := leafRecord{Key: leaf.Key, Deleted: leaf.Deleted}
	if !leaf.Deleted {
		value, err := rlp.EncodeToBytes(leaf.Value)
		if err != nil {
			return nil, fmt.Errorf("failed to encode value of %s: %w", leaf.Key, err)
		}
		record.Value = value
	}
	return rlp.EncodeToBytes(&record)
}

// DecodeLeaf is the inverse of EncodeLeaf.
func DecodeLeaf[T any](data []byte) (Leaf[T], error) {
	var record leafRecord
	if err := rlp.DecodeBytes(data, &record); err != nil {
		return Leaf[T]{}, fmt.Errorf("failed to decode leaf: %w", err)
	}
	leaf := Leaf[T]{Key: record.Key, Deleted: record.Deleted}
	if !record.Deleted {
		if err := rlp.DecodeBytes(record.Value, &leaf.Value); err != nil {
			return Leaf[T]{}, fmt.Errorf("failed to decode value of %s: %w", record.Key, err)
		}
	}
	return leaf, nil
}
