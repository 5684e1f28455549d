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
	"testing"

	"github.com/Fantom-foundation/Ledger/common/amount"
	"github.com/Fantom-foundation/Ledger/state/entry"
)

func TestWrapper_ReadsThroughToParent(t *testing.T) {
	parent := NewImplementation(AssetBalances, treeOf(t, account("alice", 1)), 0)
	parent.Add(account("bob", 2))
	wrapper := NewWrapper[*entry.AddressEntry](parent, 0)

	if got, found := wrapper.Find("bob"); !found || balanceOf(got) != 2 {
		t.Errorf("pending value of the parent not visible")
	}
	if !wrapper.ItemExists("alice") {
		t.Errorf("committed value of the parent not visible")
	}

	parent.Delete("alice")
	if wrapper.ItemExists("alice") {
		t.Errorf("deletion in the parent not visible")
	}
}

func TestWrapper_ChangesAreInvisibleToParentUntilCommit(t *testing.T) {
	parent := NewImplementation(AssetBalances, treeOf(t, account("alice", 1)), 0)
	wrapper := NewWrapper[*entry.AddressEntry](parent, 0)

	updated, _ := wrapper.FindAndMarkUpdated("alice")
	updated.SetBalance(testAsset, amount.New(10))
	wrapper.Add(account("bob", 2))

	if got, _ := parent.Find("alice"); balanceOf(got) != 1 {
		t.Errorf("update leaked into the parent")
	}
	if parent.ItemExists("bob") || parent.GetChangedEntriesCount() != 0 {
		t.Errorf("insert leaked into the parent")
	}

	if err := wrapper.Commit(1, 1, nil); err != nil {
		t.Fatalf("failed to commit: %v", err)
	}
	if got, _ := parent.Find("alice"); balanceOf(got) != 10 {
		t.Errorf("update not committed into the parent")
	}
	if !parent.ItemExists("bob") {
		t.Errorf("insert not committed into the parent")
	}
	if wrapper.GetChangedEntriesCount() != 0 {
		t.Errorf("commit should clear the changes of the wrapper")
	}
}

func TestWrapper_CommitReplaysDeletions(t *testing.T) {
	parent := NewImplementation(AssetBalances, treeOf(t, account("alice", 1)), 0)
	wrapper := NewWrapper[*entry.AddressEntry](parent, 0)
	wrapper.Find("alice")
	wrapper.Delete("alice")
	if err := wrapper.Commit(1, 1, nil); err != nil {
		t.Fatalf("failed to commit: %v", err)
	}
	if parent.ItemExists("alice") {
		t.Errorf("deletion not committed into the parent")
	}
	if wrapper.ItemExists("alice") {
		t.Errorf("wrapper should not serve stale values after commit")
	}
}

func TestWrapper_GrandparentIsUntouchedUntilParentCommits(t *testing.T) {
	tree := treeOf(t, account("alice", 1))
	root := NewImplementation(AssetBalances, tree, 0)
	parent := NewWrapper[*entry.AddressEntry](root, 0)
	child := NewWrapper[*entry.AddressEntry](parent, 0)

	child.Add(account("alice", 5))
	if err := child.Commit(1, 1, nil); err != nil {
		t.Fatalf("failed to commit child: %v", err)
	}
	if got, _ := parent.Find("alice"); balanceOf(got) != 5 {
		t.Errorf("child commit not visible in parent")
	}
	if got, _ := root.Find("alice"); balanceOf(got) != 1 {
		t.Errorf("child commit should not reach the grandparent")
	}

	if err := parent.Commit(1, 1, nil); err != nil {
		t.Fatalf("failed to commit parent: %v", err)
	}
	if got, _ := root.Find("alice"); balanceOf(got) != 5 {
		t.Errorf("parent commit not visible in grandparent")
	}
	if value, _ := tree.Find("alice"); balanceOf(value) != 1 {
		t.Errorf("backing tree should only change when the root commits")
	}
}

func TestWrapper_CommitOrderDefinesCreationOrder(t *testing.T) {
	root := NewImplementation(AssetBalances, treeOf(t), 0)
	first := NewWrapper[*entry.AddressEntry](root, 0)
	second := NewWrapper[*entry.AddressEntry](root, 0)

	second.Add(account("b", 1))
	first.Add(account("a", 1))
	if err := first.Commit(1, 1, nil); err != nil {
		t.Fatalf("failed to commit: %v", err)
	}
	if err := second.Commit(1, 1, nil); err != nil {
		t.Fatalf("failed to commit: %v", err)
	}
	if err := root.Commit(1, 1, nil); err != nil {
		t.Fatalf("failed to commit: %v", err)
	}
	if root.Tree().FindIndex("a") != 0 || root.Tree().FindIndex("b") != 1 {
		t.Errorf("new entries should be ordered by the time they reached the root")
	}
}
