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
	"fmt"
	"sync"
	"time"

	"github.com/Fantom-foundation/Ledger/backend/merkle"
	"github.com/Fantom-foundation/Ledger/common"
	"github.com/Fantom-foundation/Ledger/state/entry"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/metrics"
)

var finalizeTimer = metrics.NewRegisteredTimer("state/finalize", nil)

// BlockMetadata is the information about a block sealed by FinalizeBlock
// which is not derived from the state.
type BlockMetadata struct {
	Timestamp   uint64
	PayloadHash common.Hash // hash of the transactions of the block
}

// view is the type independent part of a collection view.
type view interface {
	Commit(version int, height uint64, listener ChangeListener) error
	GetChangedEntriesCount() int
	Reset()
}

type views struct {
	assetBalances    MutableMerkle[*entry.AddressEntry]
	namespaces       MutableMerkle[*entry.NamespaceEntry]
	contracts        MutableMerkle[*entry.ContractEntry]
	encumbrances     MutableMerkle[*entry.AddressEncumbrances]
	lockedAssets     MutableMerkle[*entry.LockedAsset]
	signNodes        MutableMerkle[*entry.SignNodeEntry]
	powersOfAttorney MutableMerkle[*entry.PoaEntry]
}

func (v *views) all() []view {
	return []view{
		v.assetBalances,
		v.namespaces,
		v.contracts,
		v.encumbrances,
		v.lockedAssets,
		v.signNodes,
		v.powersOfAttorney,
	}
}

// StateSnapshot is a mutable working copy of a State. A top-level snapshot
// is created from a State and finalized into the State of the next block.
// Nested snapshots are created from other snapshots and committed into them,
// typically one per transaction.
//
// Snapshots may be used concurrently by transactions holding the locks of
// disjoint address sets.
type StateSnapshot struct {
	state    *State
	parent   *StateSnapshot // nil for top-level snapshots
	listener ChangeListener
	views    views

	mutex     sync.Mutex
	config    map[string]*string // nil values are removals
	corrupted bool
	reason    string
	finalized bool
}

func newTopLevelSnapshot(state *State, listener ChangeListener) *StateSnapshot {
	if listener == nil {
		listener = NoOpListener{}
	}
	size := state.params.ReadCacheSize
	trees := &state.trees
	return &StateSnapshot{
		state:    state,
		listener: listener,
		config:   map[string]*string{},
		views: views{
			assetBalances:    topLevelView(AssetBalances, trees.AssetBalances, size),
			namespaces:       topLevelView(Namespaces, trees.Namespaces, size),
			contracts:        topLevelView(Contracts, trees.Contracts, size),
			encumbrances:     topLevelView(Encumbrances, trees.Encumbrances, size),
			lockedAssets:     topLevelView(LockedAssets, trees.LockedAssets, size),
			signNodes:        topLevelView(SignNodes, trees.SignNodes, size),
			powersOfAttorney: topLevelView(PowersOfAttorney, trees.PowersOfAttorney, size),
		},
	}
}

func topLevelView[T merkle.Entry[T]](name Collection, tree *merkle.Tree[T], cacheSize int) MutableMerkle[T] {
	if tree == nil {
		return NewInitial[T](name, cacheSize)
	}
	return NewImplementation(name, tree, cacheSize)
}

// CreateSnapshot creates a nested snapshot whose changes become visible in
// this snapshot when committed.
func (s *StateSnapshot) CreateSnapshot() *StateSnapshot {
	size := s.state.params.ReadCacheSize
	return &StateSnapshot{
		state:    s.state,
		parent:   s,
		listener: NoOpListener{},
		config:   map[string]*string{},
		views: views{
			assetBalances:    NewWrapper(s.views.assetBalances, size),
			namespaces:       NewWrapper(s.views.namespaces, size),
			contracts:        NewWrapper(s.views.contracts, size),
			encumbrances:     NewWrapper(s.views.encumbrances, size),
			lockedAssets:     NewWrapper(s.views.lockedAssets, size),
			signNodes:        NewWrapper(s.views.signNodes, size),
			powersOfAttorney: NewWrapper(s.views.powersOfAttorney, size),
		},
	}
}

// State provides the State the snapshot is derived from.
func (s *StateSnapshot) State() *State {
	return s.state
}

func (s *StateSnapshot) IsTopLevel() bool {
	return s.parent == nil
}

// Height is the height of the block built by this snapshot.
func (s *StateSnapshot) Height() uint64 {
	return s.state.Height() + 1
}

func (s *StateSnapshot) AssetBalances() MutableMerkle[*entry.AddressEntry] {
	return s.views.assetBalances
}

func (s *StateSnapshot) Namespaces() MutableMerkle[*entry.NamespaceEntry] {
	return s.views.namespaces
}

func (s *StateSnapshot) Contracts() MutableMerkle[*entry.ContractEntry] {
	return s.views.contracts
}

func (s *StateSnapshot) Encumbrances() MutableMerkle[*entry.AddressEncumbrances] {
	return s.views.encumbrances
}

func (s *StateSnapshot) LockedAssets() MutableMerkle[*entry.LockedAsset] {
	return s.views.lockedAssets
}

func (s *StateSnapshot) SignNodes() MutableMerkle[*entry.SignNodeEntry] {
	return s.views.signNodes
}

func (s *StateSnapshot) PowersOfAttorney() MutableMerkle[*entry.PoaEntry] {
	return s.views.powersOfAttorney
}

func (s *StateSnapshot) GetConfigValue(key string) (string, bool) {
	s.mutex.Lock()
	value, found := s.config[key]
	s.mutex.Unlock()
	if found {
		if value == nil {
			return "", false
		}
		return *value, true
	}
	if s.parent != nil {
		return s.parent.GetConfigValue(key)
	}
	return s.state.GetConfigValue(key)
}

func (s *StateSnapshot) SetConfigValue(key, value string) {
	s.setConfig(key, &value)
}

func (s *StateSnapshot) RemoveConfigValue(key string) {
	s.setConfig(key, nil)
}

func (s *StateSnapshot) setConfig(key string, value *string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.config[key] = value
}

// SetCorrupted marks the snapshot as unusable, or usable again. Commits of a
// corrupted snapshot fail. The flag is not propagated to other layers.
func (s *StateSnapshot) SetCorrupted(corrupted bool, reason string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.corrupted = corrupted
	if corrupted {
		s.reason = reason
	} else {
		s.reason = ""
	}
}

// IsCorrupted reports the corruption flag and the reason it was set for.
func (s *StateSnapshot) IsCorrupted() (bool, string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.corrupted, s.reason
}

// Reset discards all uncommitted changes and clears the corruption flag.
func (s *StateSnapshot) Reset() {
	for _, v := range s.views.all() {
		v.Reset()
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.config = map[string]*string{}
	s.corrupted = false
	s.reason = ""
}

// GetChangedEntriesCount sums up the changed keys of all collections.
func (s *StateSnapshot) GetChangedEntriesCount() int {
	count := 0
	for _, v := range s.views.all() {
		count += v.GetChangedEntriesCount()
	}
	return count
}

func (s *StateSnapshot) checkUsable() error {
	if s.finalized {
		return ErrSnapshotFinalized
	}
	if s.corrupted {
		return fmt.Errorf("%w: %s", ErrSnapshotCorrupted, s.reason)
	}
	return nil
}

// Commit makes the changes of a nested snapshot visible in its parent and
// resets the snapshot. If the snapshot is corrupted, the parent is not
// touched. Top-level snapshots keep their changes until FinalizeBlock, so
// for them Commit only checks that the snapshot is still usable.
func (s *StateSnapshot) Commit() error {
	s.mutex.Lock()
	if err := s.checkUsable(); err != nil {
		s.mutex.Unlock()
		return err
	}
	if s.parent == nil {
		s.mutex.Unlock()
		return nil
	}
	config := s.config
	s.config = map[string]*string{}
	s.mutex.Unlock()

	version, height := s.state.Version(), s.Height()
	changes := 0
	for _, v := range s.views.all() {
		changes += v.GetChangedEntriesCount()
		if err := v.Commit(version, height, NoOpListener{}); err != nil {
			return err
		}
	}
	for key, value := range config {
		s.parent.setConfig(key, value)
	}
	log.Trace("Committed nested snapshot", "changes", changes, "config", len(config))
	return nil
}

// FinalizeBlock writes all changes of a top-level snapshot into new backing
// trees and creates the State of the next block. The State the snapshot was
// created from is not modified. The snapshot can not be used afterwards.
func (s *StateSnapshot) FinalizeBlock(block BlockMetadata) (*State, error) {
	if s.parent != nil {
		return nil, ErrNotTopLevel
	}
	if err := s.Commit(); err != nil {
		return nil, err
	}
	s.mutex.Lock()
	s.finalized = true
	config := s.config
	s.mutex.Unlock()

	start := time.Now()
	prev := s.state
	version, height := prev.Version(), s.Height()
	changes := s.GetChangedEntriesCount()

	var trees Trees
	var errs [7]error
	trees.AssetBalances, errs[0] = finalizeView(s.views.assetBalances, version, height, s.listener)
	trees.Namespaces, errs[1] = finalizeView(s.views.namespaces, version, height, s.listener)
	trees.Contracts, errs[2] = finalizeView(s.views.contracts, version, height, s.listener)
	trees.Encumbrances, errs[3] = finalizeView(s.views.encumbrances, version, height, s.listener)
	trees.LockedAssets, errs[4] = finalizeView(s.views.lockedAssets, version, height, s.listener)
	trees.SignNodes, errs[5] = finalizeView(s.views.signNodes, version, height, s.listener)
	trees.PowersOfAttorney, errs[6] = finalizeView(s.views.powersOfAttorney, version, height, s.listener)
	if err := errors.Join(errs[:]...); err != nil {
		return nil, fmt.Errorf("failed to finalize block %d: %w", height, err)
	}

	header := Header{
		ChainID:   prev.ChainID(),
		Version:   version,
		Height:    height,
		Timestamp: block.Timestamp,
	}
	next, err := Restore(header, prev.config.With(config), trees, prev.params)
	if err != nil {
		return nil, fmt.Errorf("failed to finalize block %d: %w", height, err)
	}
	next.header.BlockHash, err = computeBlockHash(next.header, prev.BlockHash(), block.PayloadHash)
	if err != nil {
		return nil, fmt.Errorf("failed to hash block %d: %w", height, err)
	}

	finalizeTimer.UpdateSince(start)
	log.Info("Finalized block", "height", height, "changes", changes, "state", next.StateHash(), "block", next.BlockHash(), "elapsed", time.Since(start))
	return next, nil
}

// finalizeView writes the changes of a top-level view into a tree. Trees
// without changes are shared with the previous State, modified trees are
// copied first.
func finalizeView[T merkle.Entry[T]](view MutableMerkle[T], version int, height uint64, listener ChangeListener) (*merkle.Tree[T], error) {
	switch v := view.(type) {
	case *Implementation[T]:
		if v.GetChangedEntriesCount() == 0 {
			return v.Tree(), nil
		}
		v.detach()
		if err := v.Commit(version, height, listener); err != nil {
			return nil, err
		}
		return v.Tree(), nil
	case *Initial[T]:
		if !v.HasInsert() {
			return nil, nil
		}
		tree := merkle.NewTree[T]()
		if err := v.WriteTo(version, height, tree, listener); err != nil {
			return nil, err
		}
		return tree, nil
	}
	return nil, fmt.Errorf("unsupported top-level view %T", view)
}
