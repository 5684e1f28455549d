// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package entry

// LockType is the kind of lock placed on an asset or namespace.
type LockType uint8

const (
	NoLock LockType = iota
	FullLock
	HoldOnly // holdings may decrease but not increase
)

// LockedAsset records a lock placed on an asset class or a whole namespace.
type LockedAsset struct {
	Asset        string
	Type         LockType
	UpdateHeight uint64
}

func (e *LockedAsset) GetKey() string {
	return e.Asset
}

func (e *LockedAsset) Copy() *LockedAsset {
	res := *e
	return &res
}

func (e *LockedAsset) SetUpdateHeight(height uint64) {
	e.UpdateHeight = height
}
