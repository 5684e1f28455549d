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

import (
	"fmt"

	"github.com/Fantom-foundation/Ledger/common"
)

// MemoryHashTree is a binary hash tree keeping all node hashes in memory.
// Leaf hashes are the SHA-256 of the leaf content, inner nodes the SHA-256 of
// the concatenation of their one or two children.
type MemoryHashTree struct {
	provider LeafProvider
	layers   [][]common.Hash  // layers[0] are leaf hashes, the last layer holds the root
	dirty    map[int]struct{} // leaves to be rehashed
	rebuild  bool             // all leaves need rehashing
}

// NewMemoryHashTree creates a hash tree over the leaves of the given provider.
func NewMemoryHashTree(provider LeafProvider) *MemoryHashTree {
	return &MemoryHashTree{
		provider: provider,
		dirty:    map[int]struct{}{},
		rebuild:  true,
	}
}

// CopyFor creates an independent copy of this tree reading leaves from the
// given provider. The provider is expected to hold the same leaves as the
// provider of this tree at the time of the copy.
func (ht *MemoryHashTree) CopyFor(provider LeafProvider) *MemoryHashTree {
	layers := make([][]common.Hash, len(ht.layers))
	for i, layer := range ht.layers {
		layers[i] = append([]common.Hash(nil), layer...)
	}
	dirty := make(map[int]struct{}, len(ht.dirty))
	for leaf := range ht.dirty {
		dirty[leaf] = struct{}{}
	}
	return &MemoryHashTree{
		provider: provider,
		layers:   layers,
		dirty:    dirty,
		rebuild:  ht.rebuild,
	}
}

// MarkUpdated marks a leaf as changed
func (ht *MemoryHashTree) MarkUpdated(leaf int) {
	ht.dirty[leaf] = struct{}{}
}

func (ht *MemoryHashTree) Reset() error {
	ht.layers = nil
	ht.dirty = map[int]struct{}{}
	ht.rebuild = true
	return nil
}

func (ht *MemoryHashTree) GetLeafHash(leaf int) (common.Hash, error) {
	if _, err := ht.HashRoot(); err != nil {
		return common.Hash{}, err
	}
	if leaf < 0 || len(ht.layers) == 0 || leaf >= len(ht.layers[0]) {
		return common.Hash{}, fmt.Errorf("leaf %d out of range", leaf)
	}
	return ht.layers[0][leaf], nil
}

// HashRoot updates the hashes of all dirty paths and returns the root.
func (ht *MemoryHashTree) HashRoot() (common.Hash, error) {
	numLeaves := ht.provider.NumLeaves()
	if numLeaves == 0 {
		ht.layers = nil
		ht.dirty = map[int]struct{}{}
		ht.rebuild = false
		return common.Hash{}, nil
	}

	levels := NumLevels(numLeaves)
	if !ht.rebuild && len(ht.dirty) == 0 && len(ht.layers) == levels && len(ht.layers[0]) == numLeaves {
		return ht.layers[levels-1][0], nil
	}
	ht.resize(levels, numLeaves)

	updated := make(map[int]struct{}, len(ht.dirty))
	if ht.rebuild {
		for leaf := 0; leaf < numLeaves; leaf++ {
			updated[leaf] = struct{}{}
		}
	} else {
		for leaf := range ht.dirty {
			if leaf < numLeaves {
				updated[leaf] = struct{}{}
			}
		}
	}

	parents := make(map[int]struct{}, len(updated))
	for leaf := range updated {
		data, err := ht.provider.GetLeaf(leaf)
		if err != nil {
			return common.Hash{}, fmt.Errorf("failed to get leaf %d: %w", leaf, err)
		}
		ht.layers[0][leaf] = common.Sha256(data)
		parents[leaf/2] = struct{}{}
	}

	for level := 1; level < levels; level++ {
		children := ht.layers[level-1]
		next := make(map[int]struct{}, len(parents)/2+1)
		for node := range parents {
			var right *common.Hash
			if 2*node+1 < len(children) {
				right = &children[2*node+1]
			}
			ht.layers[level][node] = hashNode(children[2*node], right)
			next[node/2] = struct{}{}
		}
		parents = next
	}

	ht.dirty = map[int]struct{}{}
	ht.rebuild = false
	return ht.layers[levels-1][0], nil
}

// resize adapts the layers to the number of leaves.
func (ht *MemoryHashTree) resize(levels, numLeaves int) {
	if len(ht.layers) > 0 && len(ht.layers[0]) > numLeaves {
		ht.rebuild = true
	}
	if ht.rebuild {
		ht.layers = nil
	}
	width := numLeaves
	for level := 0; level < levels; level++ {
		if level == len(ht.layers) {
			ht.layers = append(ht.layers, nil)
		}
		layer := ht.layers[level]
		if len(layer) < width {
			layer = append(layer, make([]common.Hash, width-len(layer))...)
		}
		ht.layers[level] = layer[:width]
		width = (width + 1) / 2
	}
	ht.layers = ht.layers[:levels]
}
