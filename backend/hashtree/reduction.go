//
// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

//

package hashtree

import (
	"github.com/Fantom-foundation/Ledger/common"
)

// ReduceHashes computes the root of a binary hash tree with numLeaves hashes
// on the leaf level from scratch. Hashes for leaves are fetched on demand
// through the source function. The result matches the root maintained
// incrementally by MemoryHashTree.
func ReduceHashes(numLeaves int, source func(int) (common.Hash, error)) (common.Hash, error) {
	if numLeaves <= 0 {
		return common.Hash{}, nil
	}

	hashes := make([]common.Hash, numLeaves)
	for i := 0; i < numLeaves; i++ {
		hash, err := source(i)
		if err != nil {
			return common.Hash{}, err
		}
		hashes[i] = hash
	}

	for level := 1; level < NumLevels(numLeaves); level++ {
		parents := make([]common.Hash, (len(hashes)+1)/2)
		for i := range parents {
			var right *common.Hash
			if 2*i+1 < len(hashes) {
				right = &hashes[2*i+1]
			}
			parents[i] = hashNode(hashes[2*i], right)
		}
		hashes = parents
	}
	return hashes[0], nil
}
