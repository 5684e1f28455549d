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
	"fmt"

	"github.com/Fantom-foundation/Ledger/backend/merkle"
	"github.com/Fantom-foundation/Ledger/common"
	"github.com/Fantom-foundation/Ledger/state/entry"
	"github.com/ethereum/go-ethereum/rlp"
	"golang.org/x/sync/errgroup"
)

const (
	ErrSnapshotCorrupted = common.ConstError("state snapshot is corrupted")
	ErrSnapshotFinalized = common.ConstError("state snapshot is already finalized")
	ErrNotTopLevel       = common.ConstError("only top-level snapshots can be finalized")
	ErrHashMismatch      = common.ConstError("state hash mismatch")
)

// Parameters are settings of the in-memory handling of a state which do not
// influence its content.
type Parameters struct {
	// ReadCacheSize is the capacity of the read cache of each collection view.
	ReadCacheSize int
}

// Header identifies a State.
type Header struct {
	ChainID   uint64
	Version   int
	Height    uint64
	Timestamp uint64
	BlockHash common.Hash
	StateHash common.Hash
}

// Trees are the backing trees of the state collections. A nil tree is an
// empty collection that never had an entry.
type Trees struct {
	AssetBalances    *merkle.Tree[*entry.AddressEntry]
	Namespaces       *merkle.Tree[*entry.NamespaceEntry]
	Contracts        *merkle.Tree[*entry.ContractEntry]
	Encumbrances     *merkle.Tree[*entry.AddressEncumbrances]
	LockedAssets     *merkle.Tree[*entry.LockedAsset]
	SignNodes        *merkle.Tree[*entry.SignNodeEntry]
	PowersOfAttorney *merkle.Tree[*entry.PoaEntry]
}

// hasher is a source of a root hash entering the state hash.
type hasher interface {
	GetHash() (common.Hash, error)
}

// hashers lists the trees in the order their roots enter the state hash.
func (t *Trees) hashers() []hasher {
	return []hasher{
		orEmpty(t.AssetBalances),
		orEmpty(t.Namespaces),
		orEmpty(t.Contracts),
		orEmpty(t.Encumbrances),
		orEmpty(t.LockedAssets),
		orEmpty(t.SignNodes),
		orEmpty(t.PowersOfAttorney),
	}
}

func orEmpty[T merkle.Entry[T]](tree *merkle.Tree[T]) Merkle[T] {
	if tree == nil {
		return emptyMerkle[T]{}
	}
	return tree
}

// State is an immutable state of the ledger after a block. States are
// derived from each other by applying changes to a StateSnapshot and
// finalizing the block. Unchanged trees are shared between States.
type State struct {
	header Header
	params Parameters
	config *ConfigMap
	trees  Trees
}

// NewEmptyState creates the state before the genesis block, with no
// collections and an empty configuration.
func NewEmptyState(chainID uint64, version int, params Parameters) (*State, error) {
	return Restore(Header{ChainID: chainID, Version: version}, nil, Trees{}, params)
}

// Restore creates a State from its parts. The state hash is recomputed and,
// if the header carries a state hash, verified.
func Restore(header Header, config *ConfigMap, trees Trees, params Parameters) (*State, error) {
	if config == nil {
		config = NewConfigMap(nil)
	}
	res := &State{header: header, params: params, config: config, trees: trees}
	hash, err := res.computeStateHash()
	if err != nil {
		return nil, err
	}
	if !header.StateHash.IsZero() && header.StateHash != hash {
		return nil, fmt.Errorf("%w: state hash was required to be %v but is %v", ErrHashMismatch, header.StateHash, hash)
	}
	res.header.StateHash = hash
	return res, nil
}

func (s *State) Header() Header {
	return s.header
}

func (s *State) ChainID() uint64 {
	return s.header.ChainID
}

func (s *State) Version() int {
	return s.header.Version
}

func (s *State) Height() uint64 {
	return s.header.Height
}

func (s *State) Timestamp() uint64 {
	return s.header.Timestamp
}

func (s *State) BlockHash() common.Hash {
	return s.header.BlockHash
}

// StateHash is a hash over all collection roots and the configuration.
func (s *State) StateHash() common.Hash {
	return s.header.StateHash
}

func (s *State) Parameters() Parameters {
	return s.params
}

func (s *State) Config() *ConfigMap {
	return s.config
}

// Trees provides the backing trees. They must not be modified.
func (s *State) Trees() Trees {
	return s.trees
}

func (s *State) GetConfigValue(key string) (string, bool) {
	return s.config.Get(key)
}

func (s *State) AssetBalances() Merkle[*entry.AddressEntry] {
	return orEmpty(s.trees.AssetBalances)
}

func (s *State) Namespaces() Merkle[*entry.NamespaceEntry] {
	return orEmpty(s.trees.Namespaces)
}

func (s *State) Contracts() Merkle[*entry.ContractEntry] {
	return orEmpty(s.trees.Contracts)
}

func (s *State) Encumbrances() Merkle[*entry.AddressEncumbrances] {
	return orEmpty(s.trees.Encumbrances)
}

func (s *State) LockedAssets() Merkle[*entry.LockedAsset] {
	return orEmpty(s.trees.LockedAssets)
}

func (s *State) SignNodes() Merkle[*entry.SignNodeEntry] {
	return orEmpty(s.trees.SignNodes)
}

func (s *State) PowersOfAttorney() Merkle[*entry.PoaEntry] {
	return orEmpty(s.trees.PowersOfAttorney)
}

// CreateSnapshot creates a top-level snapshot for building the next block.
func (s *State) CreateSnapshot() *StateSnapshot {
	return s.CreateSnapshotWithListener(nil)
}

// CreateSnapshotWithListener creates a top-level snapshot informing the
// listener about all changes written when the block is finalized.
func (s *State) CreateSnapshotWithListener(listener ChangeListener) *StateSnapshot {
	return newTopLevelSnapshot(s, listener)
}

// computeStateHash hashes the roots of all collections, computed in
// parallel, together with the hash of the configuration.
func (s *State) computeStateHash() (common.Hash, error) {
	hashers := s.trees.hashers()
	roots := make([]common.Hash, len(hashers)+1)
	var group errgroup.Group
	for i, h := range hashers {
		i, h := i, h
		group.Go(func() error {
			hash, err := h.GetHash()
			roots[i] = hash
			return err
		})
	}
	group.Go(func() error {
		hash, err := s.config.Hash()
		roots[len(hashers)] = hash
		return err
	})
	if err := group.Wait(); err != nil {
		return common.Hash{}, fmt.Errorf("failed to compute state hash: %w", err)
	}
	data, err := rlp.EncodeToBytes(roots)
	if err != nil {
		return common.Hash{}, err
	}
	return common.Keccak256(data), nil
}

// blockRecord is the hashed content of a block.
type blockRecord struct {
	ChainID   uint64
	Version   uint64
	Height    uint64
	Timestamp uint64
	Previous  common.Hash
	StateHash common.Hash
	Payload   common.Hash
}

func computeBlockHash(header Header, previous common.Hash, payload common.Hash) (common.Hash, error) {
	data, err := rlp.EncodeToBytes(&blockRecord{
		ChainID:   header.ChainID,
		Version:   uint64(header.Version),
		Height:    header.Height,
		Timestamp: header.Timestamp,
		Previous:  previous,
		StateHash: header.StateHash,
		Payload:   payload,
	})
	if err != nil {
		return common.Hash{}, err
	}
	return common.Keccak256(data), nil
}
