// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package backend

import (
	"encoding/binary"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// TableSpace divide key-value storage into spaces by adding a prefix to the key.
type TableSpace byte

const (
	// MetadataKey is a tablespace for the chain id, height and hashes of a state
	MetadataKey TableSpace = 'M'
	// ConfigKey is a tablespace for state configuration values
	ConfigKey TableSpace = 'G'
	// AssetBalanceKey is a tablespace for asset balance leaves
	AssetBalanceKey TableSpace = 'B'
	// NamespaceKey is a tablespace for namespace leaves
	NamespaceKey TableSpace = 'N'
	// ContractKey is a tablespace for contract leaves
	ContractKey TableSpace = 'C'
	// EncumbranceKey is a tablespace for encumbrance leaves
	EncumbranceKey TableSpace = 'E'
	// LockedAssetKey is a tablespace for locked asset leaves
	LockedAssetKey TableSpace = 'L'
	// SignNodeKey is a tablespace for sign node leaves
	SignNodeKey TableSpace = 'S'
	// PoaKey is a tablespace for power of attorney leaves
	PoaKey TableSpace = 'P'
)

// ToDBKey prefixes the input key with its table space.
func ToDBKey(t TableSpace, key []byte) []byte {
	res := make([]byte, 1+len(key))
	res[0] = byte(t)
	copy(res[1:], key)
	return res
}

// ToIndexKey converts a leaf index into a table space key. Keys of
// consecutive indexes sort in index order.
func ToIndexKey(t TableSpace, index int) []byte {
	if index < 0 || uint64(index) > uint64(^uint32(0)) {
		panic(fmt.Sprintf("leaf index out of range: %d", index))
	}
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(index))
	return ToDBKey(t, buf[:])
}

// FromIndexKey is the inverse of ToIndexKey.
func FromIndexKey(key []byte) (TableSpace, int, error) {
	if len(key) != 5 {
		return 0, 0, fmt.Errorf("invalid index key length: %d", len(key))
	}
	return TableSpace(key[0]), int(binary.BigEndian.Uint32(key[1:])), nil
}

// TableRange covers all keys of the given table space.
func TableRange(t TableSpace) *util.Range {
	return util.BytesPrefix([]byte{byte(t)})
}

// LevelDB contains methods common for the LevelDB instance and its
// Transactions, so code can be written against either of them.
type LevelDB interface {
	LevelDBReader

	// Put sets the value for the given key, overwriting any previous value.
	Put(key, value []byte, wo *opt.WriteOptions) error

	// Delete deletes the value for the given key.
	Delete(key []byte, wo *opt.WriteOptions) error

	// Write applies the given batch to the DB atomically.
	Write(batch *leveldb.Batch, wo *opt.WriteOptions) error
}

// LevelDBReader contains methods common for the LevelDB instance and its Snapshots.
type LevelDBReader interface {
	// Get gets the value for the given key. It returns ErrNotFound if the
	// DB does not contain the key.
	Get(key []byte, ro *opt.ReadOptions) (value []byte, err error)

	// Has returns true if the DB does contain the given key.
	Has(key []byte, ro *opt.ReadOptions) (bool, error)

	// NewIterator returns an iterator over the given key range. The iterator
	// must be released after use.
	NewIterator(slice *util.Range, ro *opt.ReadOptions) iterator.Iterator
}

// OpenLevelDb opens the LevelDB in the given directory, creating it if missing.
func OpenLevelDb(path string, options *opt.Options) (*leveldb.DB, error) {
	db, err := leveldb.OpenFile(path, options)
	if err != nil {
		return nil, fmt.Errorf("failed to open LevelDB in %s: %w", path, err)
	}
	return db, nil
}
