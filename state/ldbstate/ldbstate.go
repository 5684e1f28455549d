// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package ldbstate persists States in a LevelDB. A database holds a single
// State, which is replaced on every save.
package ldbstate

import (
	"errors"
	"fmt"

	"github.com/Fantom-foundation/Ledger/backend"
	"github.com/Fantom-foundation/Ledger/backend/merkle"
	"github.com/Fantom-foundation/Ledger/common"
	"github.com/Fantom-foundation/Ledger/state"
	"github.com/Fantom-foundation/Ledger/state/entry"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/syndtr/goleveldb/leveldb"
	"golang.org/x/exp/slices"
)

const ErrNoState = common.ConstError("no state stored in database")

// metadata is the persisted form of a state header.
type metadata struct {
	ChainID   uint64
	Version   uint64
	Height    uint64
	Timestamp uint64
	BlockHash common.Hash
	StateHash common.Hash
}

var metadataKey = backend.ToDBKey(backend.MetadataKey, nil)

// tableSpaces lists all table spaces owned by a stored state.
var tableSpaces = []backend.TableSpace{
	backend.MetadataKey,
	backend.ConfigKey,
	backend.AssetBalanceKey,
	backend.NamespaceKey,
	backend.ContractKey,
	backend.EncumbranceKey,
	backend.LockedAssetKey,
	backend.SignNodeKey,
	backend.PoaKey,
}

// Save replaces the state stored in the database by the given state. All
// data is written in a single batch.
func Save(db backend.LevelDB, s *state.State) error {
	batch := new(leveldb.Batch)
	for _, space := range tableSpaces {
		if err := clearTableSpace(db, batch, space); err != nil {
			return err
		}
	}

	header := s.Header()
	data, err := rlp.EncodeToBytes(&metadata{
		ChainID:   header.ChainID,
		Version:   uint64(header.Version),
		Height:    header.Height,
		Timestamp: header.Timestamp,
		BlockHash: header.BlockHash,
		StateHash: header.StateHash,
	})
	if err != nil {
		return err
	}
	batch.Put(metadataKey, data)

	s.Config().ForEach(func(key, value string) bool {
		batch.Put(backend.ToDBKey(backend.ConfigKey, []byte(key)), []byte(value))
		return true
	})

	trees := s.Trees()
	err = errors.Join(
		saveTree(batch, backend.AssetBalanceKey, trees.AssetBalances),
		saveTree(batch, backend.NamespaceKey, trees.Namespaces),
		saveTree(batch, backend.ContractKey, trees.Contracts),
		saveTree(batch, backend.EncumbranceKey, trees.Encumbrances),
		saveTree(batch, backend.LockedAssetKey, trees.LockedAssets),
		saveTree(batch, backend.SignNodeKey, trees.SignNodes),
		saveTree(batch, backend.PoaKey, trees.PowersOfAttorney),
	)
	if err != nil {
		return fmt.Errorf("failed to encode state at height %d: %w", header.Height, err)
	}

	if err := db.Write(batch, nil); err != nil {
		return fmt.Errorf("failed to write state at height %d: %w", header.Height, err)
	}
	log.Debug("Saved state", "height", header.Height, "state", header.StateHash, "records", batch.Len())
	return nil
}

func clearTableSpace(db backend.LevelDBReader, batch *leveldb.Batch, space backend.TableSpace) error {
	it := db.NewIterator(backend.TableRange(space), nil)
	defer it.Release()
	for it.Next() {
		batch.Delete(it.Key())
	}
	return it.Error()
}

func saveTree[T merkle.Entry[T]](batch *leveldb.Batch, space backend.TableSpace, tree *merkle.Tree[T]) error {
	if tree == nil {
		return nil
	}
	for i := 0; i < tree.NumLeaves(); i++ {
		data, err := tree.GetLeaf(i)
		if err != nil {
			return err
		}
		batch.Put(backend.ToIndexKey(space, i), data)
	}
	return nil
}

// Load reads the stored state and verifies its state hash. ErrNoState is
// returned for a database without a state.
func Load(db backend.LevelDBReader, params state.Parameters) (*state.State, error) {
	data, err := db.Get(metadataKey, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, ErrNoState
	}
	if err != nil {
		return nil, err
	}
	var meta metadata
	if err := rlp.DecodeBytes(data, &meta); err != nil {
		return nil, fmt.Errorf("failed to decode state metadata: %w", err)
	}

	config, err := loadConfig(db)
	if err != nil {
		return nil, err
	}

	var trees state.Trees
	var errs [7]error
	trees.AssetBalances, errs[0] = loadTree[*entry.AddressEntry](db, backend.AssetBalanceKey)
	trees.Namespaces, errs[1] = loadTree[*entry.NamespaceEntry](db, backend.NamespaceKey)
	trees.Contracts, errs[2] = loadTree[*entry.ContractEntry](db, backend.ContractKey)
	trees.Encumbrances, errs[3] = loadTree[*entry.AddressEncumbrances](db, backend.EncumbranceKey)
	trees.LockedAssets, errs[4] = loadTree[*entry.LockedAsset](db, backend.LockedAssetKey)
	trees.SignNodes, errs[5] = loadTree[*entry.SignNodeEntry](db, backend.SignNodeKey)
	trees.PowersOfAttorney, errs[6] = loadTree[*entry.PoaEntry](db, backend.PoaKey)
	if err := errors.Join(errs[:]...); err != nil {
		return nil, fmt.Errorf("failed to load state at height %d: %w", meta.Height, err)
	}

	header := state.Header{
		ChainID:   meta.ChainID,
		Version:   int(meta.Version),
		Height:    meta.Height,
		Timestamp: meta.Timestamp,
		BlockHash: meta.BlockHash,
		StateHash: meta.StateHash,
	}
	res, err := state.Restore(header, config, trees, params)
	if err != nil {
		return nil, fmt.Errorf("failed to restore state at height %d: %w", meta.Height, err)
	}
	log.Debug("Loaded state", "height", meta.Height, "state", meta.StateHash)
	return res, nil
}

func loadConfig(db backend.LevelDBReader) (*state.ConfigMap, error) {
	values := map[string]string{}
	it := db.NewIterator(backend.TableRange(backend.ConfigKey), nil)
	defer it.Release()
	for it.Next() {
		values[string(it.Key()[1:])] = string(it.Value())
	}
	if err := it.Error(); err != nil {
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}
	return state.NewConfigMap(values), nil
}

func loadTree[T merkle.Entry[T]](db backend.LevelDBReader, space backend.TableSpace) (*merkle.Tree[T], error) {
	var leaves []merkle.Leaf[T]
	it := db.NewIterator(backend.TableRange(space), nil)
	defer it.Release()
	for it.Next() {
		_, index, err := backend.FromIndexKey(it.Key())
		if err != nil {
			return nil, err
		}
		if index != len(leaves) {
			return nil, fmt.Errorf("missing leaf %d in table space %c", len(leaves), space)
		}
		leaf, err := merkle.DecodeLeaf[T](slices.Clone(it.Value()))
		if err != nil {
			return nil, fmt.Errorf("invalid leaf %d in table space %c: %w", index, space, err)
		}
		leaves = append(leaves, leaf)
	}
	if err := it.Error(); err != nil {
		return nil, err
	}
	if len(leaves) == 0 {
		return nil, nil
	}
	return merkle.Restore(leaves)
}
