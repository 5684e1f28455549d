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

import "sort"

// namedObject is a pending change of a key. Tombstones carry no value.
type namedObject[T any] struct {
	sequence int64 // creation order, used to order inserts
	deleted  bool
	key      string
	value    T
}

// indexedObject is a pending change together with the leaf index of its key
// in the backing tree, -1 for keys not in the tree.
type indexedObject[T any] struct {
	index int
	*namedObject[T]
}

// sortForCommit orders changes so that existing leaves are written in index
// order, followed by new keys in creation order. Writes to existing leaves
// thus do not depend on the order they were made in.
func sortForCommit[T any](objects []indexedObject[T]) {
	sort.Slice(objects, func(i, j int) bool {
		a, b := objects[i], objects[j]
		if (a.index == -1) != (b.index == -1) {
			return a.index != -1
		}
		if a.index != -1 {
			return a.index < b.index
		}
		return a.sequence < b.sequence
	})
}

func sortBySequence[T any](objects []*namedObject[T]) {
	sort.Slice(objects, func(i, j int) bool {
		return objects[i].sequence < objects[j].sequence
	})
}
