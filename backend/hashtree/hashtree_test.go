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
	"math/rand"
	"testing"

	"github.com/Fantom-foundation/Ledger/common"
)

type testingLeafProvider struct {
	leaves [][]byte
	err    error
}

func (p *testingLeafProvider) NumLeaves() int {
	return len(p.leaves)
}

func (p *testingLeafProvider) GetLeaf(leaf int) ([]byte, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.leaves[leaf], nil
}

func referenceRoot(t *testing.T, leaves [][]byte) common.Hash {
	t.Helper()
	hash, err := ReduceHashes(len(leaves), func(i int) (common.Hash, error) {
		return common.Sha256(leaves[i]), nil
	})
	if err != nil {
		t.Fatalf("failed to reduce hashes: %v", err)
	}
	return hash
}

func TestNumLevels(t *testing.T) {
	expected := map[int]int{0: 0, 1: 2, 2: 2, 3: 3, 4: 3, 5: 4, 8: 4, 9: 5, 1024: 11, 1025: 12}
	for leaves, want := range expected {
		if got := NumLevels(leaves); got != want {
			t.Errorf("unexpected number of levels for %d leaves, wanted %d, got %d", leaves, want, got)
		}
	}
}

func TestMemoryHashTree_EmptyTreeHasZeroHash(t *testing.T) {
	tree := NewMemoryHashTree(&testingLeafProvider{})
	hash, err := tree.HashRoot()
	if err != nil {
		t.Fatalf("failed to hash: %v", err)
	}
	if hash != (common.Hash{}) {
		t.Errorf("empty tree should have zero hash, got %v", hash)
	}
}

func TestMemoryHashTree_KnownShapes(t *testing.T) {
	a, b, c := []byte("a"), []byte("b"), []byte("c")
	ha, hb, hc := common.Sha256(a), common.Sha256(b), common.Sha256(c)
	tests := map[string]struct {
		leaves [][]byte
		want   common.Hash
	}{
		"single": {[][]byte{a}, common.Sha256(ha[:])},
		"pair":   {[][]byte{a, b}, common.Sha256(ha[:], hb[:])},
		"three": {[][]byte{a, b, c}, func() common.Hash {
			left := common.Sha256(ha[:], hb[:])
			right := common.Sha256(hc[:])
			return common.Sha256(left[:], right[:])
		}()},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			tree := NewMemoryHashTree(&testingLeafProvider{leaves: test.leaves})
			got, err := tree.HashRoot()
			if err != nil {
				t.Fatalf("failed to hash: %v", err)
			}
			if got != test.want {
				t.Errorf("unexpected root, wanted %v, got %v", test.want, got)
			}
			if ref := referenceRoot(t, test.leaves); ref != test.want {
				t.Errorf("reduction disagrees, wanted %v, got %v", test.want, ref)
			}
		})
	}
}

func TestMemoryHashTree_IncrementalUpdatesMatchFullReduction(t *testing.T) {
	provider := &testingLeafProvider{}
	tree := NewMemoryHashTree(provider)
	r := rand.New(rand.NewSource(42))
	for step := 0; step < 300; step++ {
		if len(provider.leaves) == 0 || r.Intn(3) == 0 {
			provider.leaves = append(provider.leaves, []byte(fmt.Sprintf("leaf-%d", step)))
			tree.MarkUpdated(len(provider.leaves) - 1)
		} else {
			leaf := r.Intn(len(provider.leaves))
			provider.leaves[leaf] = []byte(fmt.Sprintf("update-%d", step))
			tree.MarkUpdated(leaf)
		}
		if step%5 != 0 {
			continue
		}
		got, err := tree.HashRoot()
		if err != nil {
			t.Fatalf("failed to hash: %v", err)
		}
		if want := referenceRoot(t, provider.leaves); got != want {
			t.Fatalf("step %d: incremental root %v differs from reference %v", step, got, want)
		}
	}
}

func TestMemoryHashTree_CopyIsIndependent(t *testing.T) {
	original := &testingLeafProvider{leaves: [][]byte{[]byte("a"), []byte("b")}}
	tree := NewMemoryHashTree(original)
	before, err := tree.HashRoot()
	if err != nil {
		t.Fatalf("failed to hash: %v", err)
	}

	copied := &testingLeafProvider{leaves: [][]byte{[]byte("a"), []byte("x")}}
	clone := tree.CopyFor(copied)
	clone.MarkUpdated(1)
	after, err := clone.HashRoot()
	if err != nil {
		t.Fatalf("failed to hash copy: %v", err)
	}
	if after == before {
		t.Errorf("copy should reflect its own modification")
	}
	if again, _ := tree.HashRoot(); again != before {
		t.Errorf("original tree must not be affected by the copy")
	}
}

func TestMemoryHashTree_ResetRecomputesEverything(t *testing.T) {
	provider := &testingLeafProvider{leaves: [][]byte{[]byte("a"), []byte("b"), []byte("c")}}
	tree := NewMemoryHashTree(provider)
	if _, err := tree.HashRoot(); err != nil {
		t.Fatalf("failed to hash: %v", err)
	}
	provider.leaves[0] = []byte("z") // not marked
	if err := tree.Reset(); err != nil {
		t.Fatalf("failed to reset: %v", err)
	}
	got, err := tree.HashRoot()
	if err != nil {
		t.Fatalf("failed to hash: %v", err)
	}
	if want := referenceRoot(t, provider.leaves); got != want {
		t.Errorf("unexpected root after reset, wanted %v, got %v", want, got)
	}
}

func TestMemoryHashTree_ProviderErrorsArePropagated(t *testing.T) {
	injected := fmt.Errorf("injected")
	provider := &testingLeafProvider{leaves: [][]byte{[]byte("a")}, err: injected}
	tree := NewMemoryHashTree(provider)
	if _, err := tree.HashRoot(); err == nil {
		t.Fatalf("expected an error")
	}
	provider.err = nil
	if _, err := tree.HashRoot(); err != nil {
		t.Errorf("tree should recover once the provider works: %v", err)
	}
}

func TestMemoryHashTree_GetLeafHash(t *testing.T) {
	provider := &testingLeafProvider{leaves: [][]byte{[]byte("a"), []byte("b")}}
	tree := NewMemoryHashTree(provider)
	got, err := tree.GetLeafHash(1)
	if err != nil {
		t.Fatalf("failed to get leaf hash: %v", err)
	}
	if want := common.Sha256([]byte("b")); got != want {
		t.Errorf("unexpected leaf hash, wanted %v, got %v", want, got)
	}
	if _, err := tree.GetLeafHash(2); err == nil {
		t.Errorf("out of range leaf should fail")
	}
}
