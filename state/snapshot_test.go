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
	"errors"
	"sync"
	"testing"

	"github.com/Fantom-foundation/Ledger/common"
	"github.com/Fantom-foundation/Ledger/common/amount"
	"github.com/Fantom-foundation/Ledger/state/entry"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newTestState(t *testing.T) *State {
	t.Helper()
	state, err := NewEmptyState(1, VersionUseUpdateHeight, Parameters{ReadCacheSize: 16})
	require.NoError(t, err)
	return state
}

// genesis creates the state of block 1 holding the given accounts.
func genesis(t *testing.T, accounts ...*entry.AddressEntry) *State {
	t.Helper()
	snapshot := newTestState(t).CreateSnapshot()
	for _, a := range accounts {
		snapshot.AssetBalances().Add(a)
	}
	snapshot.Namespaces().Add(&entry.NamespaceEntry{Name: "ns", Owner: "root"})
	snapshot.SetConfigValue("fee", "10")
	state, err := snapshot.FinalizeBlock(BlockMetadata{Timestamp: 100})
	require.NoError(t, err)
	return state
}

func TestState_EmptyState(t *testing.T) {
	state := newTestState(t)
	require.Equal(t, uint64(0), state.Height())
	require.Equal(t, uint64(1), state.ChainID())
	require.Equal(t, 0, state.AssetBalances().Len())
	require.False(t, state.StateHash().IsZero())
	require.True(t, state.BlockHash().IsZero())
	if _, found := state.GetConfigValue("fee"); found {
		t.Errorf("empty state should have no configuration")
	}
}

func TestState_RestoreVerifiesStateHash(t *testing.T) {
	state := genesis(t, account("alice", 5))

	restored, err := Restore(state.Header(), state.Config(), state.Trees(), state.Parameters())
	require.NoError(t, err)
	require.Equal(t, state.StateHash(), restored.StateHash())

	header := state.Header()
	header.StateHash = common.Hash{1}
	if _, err := Restore(header, state.Config(), state.Trees(), state.Parameters()); !errors.Is(err, ErrHashMismatch) {
		t.Errorf("expected hash mismatch, got %v", err)
	}
}

func TestStateSnapshot_FinalizeGenesisBlock(t *testing.T) {
	empty := newTestState(t)
	snapshot := empty.CreateSnapshot()
	require.True(t, snapshot.IsTopLevel())
	require.Equal(t, uint64(1), snapshot.Height())

	snapshot.AssetBalances().Add(account("alice", 5))
	snapshot.SetConfigValue("fee", "10")

	state, err := snapshot.FinalizeBlock(BlockMetadata{Timestamp: 100})
	require.NoError(t, err)
	require.Equal(t, uint64(1), state.Height())
	require.Equal(t, uint64(100), state.Timestamp())
	require.False(t, state.BlockHash().IsZero())

	alice, found := state.AssetBalances().Find("alice")
	require.True(t, found)
	require.Equal(t, uint64(5), balanceOf(alice))
	require.Equal(t, uint64(1), alice.UpdateHeight)

	fee, _ := state.GetConfigValue("fee")
	require.Equal(t, "10", fee)

	require.Equal(t, 0, empty.AssetBalances().Len())
	require.Nil(t, state.Trees().Contracts, "untouched collections should not get a tree")
}

func TestStateSnapshot_FinalizeLeavesPreviousStateUnchanged(t *testing.T) {
	prev := genesis(t, account("alice", 5), account("bob", 1))
	hash := prev.StateHash()

	snapshot := prev.CreateSnapshot()
	alice, _ := snapshot.AssetBalances().FindAndMarkUpdated("alice")
	alice.SetBalance(testAsset, amount.New(6))
	snapshot.AssetBalances().Delete("bob")

	next, err := snapshot.FinalizeBlock(BlockMetadata{Timestamp: 200})
	require.NoError(t, err)

	old, _ := prev.AssetBalances().Find("alice")
	require.Equal(t, uint64(5), balanceOf(old))
	require.True(t, prev.AssetBalances().ItemExists("bob"))
	require.Equal(t, hash, prev.StateHash())

	current, _ := next.AssetBalances().Find("alice")
	require.Equal(t, uint64(6), balanceOf(current))
	require.Equal(t, uint64(2), current.UpdateHeight)
	require.False(t, next.AssetBalances().ItemExists("bob"))
	require.NotEqual(t, hash, next.StateHash())

	require.Same(t, prev.Trees().Namespaces, next.Trees().Namespaces, "unchanged trees should be shared")
	require.NotSame(t, prev.Trees().AssetBalances, next.Trees().AssetBalances)
}

func TestStateSnapshot_ConcurrentNestedSnapshotsOnDisjointAddresses(t *testing.T) {
	state := genesis(t, account("alice", 10), account("bob", 10))
	top := state.CreateSnapshot()

	transfer := func(address string, value uint64) func() error {
		return func() error {
			nested := top.CreateSnapshot()
			e, found := nested.AssetBalances().FindAndMarkUpdated(address)
			if !found {
				return errors.New("account not found")
			}
			e.SetBalance(testAsset, amount.New(value))
			return nested.Commit()
		}
	}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, op := range []func() error{transfer("alice", 7), transfer("bob", 13)} {
		i, op := i, op
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = op()
		}()
	}
	wg.Wait()
	require.NoError(t, errors.Join(errs...))

	third := top.CreateSnapshot()
	alice, _ := third.AssetBalances().Find("alice")
	bob, _ := third.AssetBalances().Find("bob")
	require.Equal(t, uint64(7), balanceOf(alice))
	require.Equal(t, uint64(13), balanceOf(bob))

	next, err := top.FinalizeBlock(BlockMetadata{Timestamp: 200})
	require.NoError(t, err)
	alice, _ = next.AssetBalances().Find("alice")
	require.Equal(t, uint64(7), balanceOf(alice))
}

func TestStateSnapshot_CorruptedSnapshotDoesNotCommit(t *testing.T) {
	state := genesis(t, account("alice", 10))
	top := state.CreateSnapshot()
	nested := top.CreateSnapshot()

	nested.AssetBalances().Add(account("alice", 0))
	nested.SetConfigValue("fee", "0")
	nested.SetCorrupted(true, "insufficient funds")

	err := nested.Commit()
	if !errors.Is(err, ErrSnapshotCorrupted) {
		t.Fatalf("expected corruption error, got %v", err)
	}
	require.Contains(t, err.Error(), "insufficient funds")

	alice, _ := top.AssetBalances().Find("alice")
	require.Equal(t, uint64(10), balanceOf(alice))
	require.Equal(t, 0, top.GetChangedEntriesCount())
	fee, _ := top.GetConfigValue("fee")
	require.Equal(t, "10", fee)

	nested.Reset()
	corrupted, reason := nested.IsCorrupted()
	require.False(t, corrupted)
	require.Empty(t, reason)
	require.Equal(t, 0, nested.GetChangedEntriesCount())
	require.NoError(t, nested.Commit())
}

func TestStateSnapshot_CorruptedTopLevelSnapshotCannotBeFinalized(t *testing.T) {
	snapshot := genesis(t).CreateSnapshot()
	snapshot.SetCorrupted(true, "broken")
	if _, err := snapshot.FinalizeBlock(BlockMetadata{}); !errors.Is(err, ErrSnapshotCorrupted) {
		t.Errorf("expected corruption error, got %v", err)
	}
}

func TestStateSnapshot_NestedSnapshotCannotBeFinalized(t *testing.T) {
	nested := genesis(t).CreateSnapshot().CreateSnapshot()
	require.False(t, nested.IsTopLevel())
	if _, err := nested.FinalizeBlock(BlockMetadata{}); !errors.Is(err, ErrNotTopLevel) {
		t.Errorf("expected ErrNotTopLevel, got %v", err)
	}
}

func TestStateSnapshot_FinalizedSnapshotCannotBeReused(t *testing.T) {
	snapshot := genesis(t).CreateSnapshot()
	_, err := snapshot.FinalizeBlock(BlockMetadata{})
	require.NoError(t, err)

	if _, err := snapshot.FinalizeBlock(BlockMetadata{}); !errors.Is(err, ErrSnapshotFinalized) {
		t.Errorf("expected ErrSnapshotFinalized, got %v", err)
	}
	if err := snapshot.Commit(); !errors.Is(err, ErrSnapshotFinalized) {
		t.Errorf("expected ErrSnapshotFinalized, got %v", err)
	}
}

func TestStateSnapshot_ConfigLayering(t *testing.T) {
	state := genesis(t)
	top := state.CreateSnapshot()
	nested := top.CreateSnapshot()

	nested.SetConfigValue("limit", "5")
	nested.RemoveConfigValue("fee")

	if _, found := nested.GetConfigValue("fee"); found {
		t.Errorf("removed value should not be visible")
	}
	if value, _ := nested.GetConfigValue("limit"); value != "5" {
		t.Errorf("unexpected value %q", value)
	}
	if value, _ := top.GetConfigValue("fee"); value != "10" {
		t.Errorf("parent should not see uncommitted removal")
	}
	if _, found := top.GetConfigValue("limit"); found {
		t.Errorf("parent should not see uncommitted value")
	}

	require.NoError(t, nested.Commit())
	if _, found := top.GetConfigValue("fee"); found {
		t.Errorf("removal should be committed into the parent")
	}

	next, err := top.FinalizeBlock(BlockMetadata{})
	require.NoError(t, err)
	if _, found := next.GetConfigValue("fee"); found {
		t.Errorf("removal should be finalized")
	}
	if value, _ := next.GetConfigValue("limit"); value != "5" {
		t.Errorf("unexpected finalized value %q", value)
	}
	if value, _ := state.GetConfigValue("fee"); value != "10" {
		t.Errorf("previous state configuration modified")
	}
}

func TestStateSnapshot_BlockHashIsDeterministic(t *testing.T) {
	build := func(payload common.Hash) *State {
		snapshot := genesis(t, account("alice", 1)).CreateSnapshot()
		snapshot.AssetBalances().Add(account("bob", 2))
		next, err := snapshot.FinalizeBlock(BlockMetadata{Timestamp: 300, PayloadHash: payload})
		require.NoError(t, err)
		return next
	}
	a, b, c := build(common.Hash{1}), build(common.Hash{1}), build(common.Hash{2})
	require.Equal(t, a.StateHash(), b.StateHash())
	require.Equal(t, a.BlockHash(), b.BlockHash())
	require.Equal(t, a.StateHash(), c.StateHash())
	require.NotEqual(t, a.BlockHash(), c.BlockHash())
}

func TestStateSnapshot_ListenerIsNotifiedOnFinalize(t *testing.T) {
	ctrl := gomock.NewController(t)
	listener := NewMockChangeListener(ctrl)

	state := genesis(t, account("alice", 1))
	top := state.CreateSnapshotWithListener(listener)
	nested := top.CreateSnapshot()
	bob := account("bob", 2)
	nested.AssetBalances().Add(bob)
	require.NoError(t, nested.Commit())

	listener.EXPECT().OnChange(AssetBalances, "bob", gomock.Nil(), bob)
	_, err := top.FinalizeBlock(BlockMetadata{})
	require.NoError(t, err)
}

func TestStateSnapshot_UpdateHeightsOfOldVersions(t *testing.T) {
	empty, err := NewEmptyState(1, VersionUseUpdateHeight-1, Parameters{})
	require.NoError(t, err)
	snapshot := empty.CreateSnapshot()
	snapshot.AssetBalances().Add(account("alice", 1))
	state, err := snapshot.FinalizeBlock(BlockMetadata{})
	require.NoError(t, err)
	alice, _ := state.AssetBalances().Find("alice")
	require.Equal(t, uint64(0), alice.UpdateHeight)
}
