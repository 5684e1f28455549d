// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package common

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"

	"golang.org/x/crypto/sha3"
)

const HashSize = 32

// Hash is a 32 byte digest, used for Merkle roots, state hashes and block hashes.
type Hash [HashSize]byte

// String renders the hash as a lower-case hex string.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// IsZero is true for the all-zero hash, which is the root of an empty tree.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// Sha256 hashes the concatenation of the given byte slices.
func Sha256(parts ...[]byte) Hash {
	hasher := sha256.New()
	for _, part := range parts {
		hasher.Write(part)
	}
	var res Hash
	hasher.Sum(res[:0])
	return res
}

var keccakHasherPool = sync.Pool{New: func() any { return sha3.NewLegacyKeccak256() }}

type keccakHasher interface {
	Reset()
	Write(in []byte) (int, error)
	Read(out []byte) (int, error)
}

// Keccak256 computes the legacy (Ethereum) Keccak-256 digest of data.
func Keccak256(data []byte) Hash {
	hasher := keccakHasherPool.Get().(keccakHasher)
	hasher.Reset()
	hasher.Write(data)
	var res Hash
	hasher.Read(res[:])
	keccakHasherPool.Put(hasher)
	return res
}
