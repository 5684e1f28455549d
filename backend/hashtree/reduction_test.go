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
	"testing"

	"github.com/Fantom-foundation/Ledger/common"
)

func TestReduceHashes_EmptyIsZero(t *testing.T) {
	hash, err := ReduceHashes(0, nil)
	if err != nil || hash != (common.Hash{}) {
		t.Errorf("unexpected result for empty input: %v, %v", hash, err)
	}
}

func TestReduceHashes_SourceErrorsArePropagated(t *testing.T) {
	injected := fmt.Errorf("injected")
	_, err := ReduceHashes(3, func(int) (common.Hash, error) {
		return common.Hash{}, injected
	})
	if err != injected {
		t.Errorf("unexpected error, wanted %v, got %v", injected, err)
	}
}

func TestReduceHashes_FourLeaves(t *testing.T) {
	leaves := []common.Hash{{1}, {2}, {3}, {4}}
	got, err := ReduceHashes(len(leaves), func(i int) (common.Hash, error) {
		return leaves[i], nil
	})
	if err != nil {
		t.Fatalf("failed to reduce: %v", err)
	}
	left := common.Sha256(leaves[0][:], leaves[1][:])
	right := common.Sha256(leaves[2][:], leaves[3][:])
	if want := common.Sha256(left[:], right[:]); got != want {
		t.Errorf("unexpected root, wanted %v, got %v", want, got)
	}
}
