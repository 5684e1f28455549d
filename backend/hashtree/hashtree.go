// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package hashtree

import "github.com/Fantom-foundation/Ledger/common"

// HashTree implementation allows for computing a root hash of a sequence of
// leaves, recomputing only the paths of leaves marked as updated.
type HashTree interface {
	// MarkUpdated marks a leaf as changed, to be included into the next
	// hash recalculation.
	MarkUpdated(leaf int)

	// HashRoot computes the hash root of the (merkle) tree.
	HashRoot() (out common.Hash, err error)

	// GetLeafHash provides the hash of a single leaf.
	GetLeafHash(leaf int) (common.Hash, error)

	// Reset drops all cached hashes, forcing a full recomputation.
	Reset() error
}

// LeafProvider is a source of leaves for the HashTree.
type LeafProvider interface {
	// NumLeaves is the number of leaves of the tree.
	NumLeaves() int
	// GetLeaf provides the encoded content of a leaf.
	GetLeaf(leaf int) ([]byte, error)
}

// NumLevels provides the number of levels, including the leaf level, of a
// tree with the given number of leaves. Any non-empty tree has at least two
// levels, so a single leaf is hashed once more to form the root.
func NumLevels(numLeaves int) int {
	if numLeaves <= 0 {
		return 0
	}
	if numLeaves == 1 {
		return 2
	}
	levels := 1
	for width := numLeaves - 1; width > 0; width >>= 1 {
		levels++
	}
	return levels
}

// hashNode combines two child hashes. A node without a right child hashes
// its left child alone.
func hashNode(left common.Hash, right *common.Hash) common.Hash {
	if right == nil {
		return common.Sha256(left[:])
	}
	return common.Sha256(left[:], right[:])
}
