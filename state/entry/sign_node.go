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

import "github.com/Fantom-foundation/Ledger/common/amount"

// SignNodeEntry is a validator bonded with a stake.
type SignNodeEntry struct {
	PublicKey     string // hex encoded
	ReturnAddress string // receives the stake when unbonded
	Stake         amount.Amount
	Nonce         uint64
	UpdateHeight  uint64
}

func (e *SignNodeEntry) GetKey() string {
	return e.PublicKey
}

func (e *SignNodeEntry) Copy() *SignNodeEntry {
	res := *e
	return &res
}

func (e *SignNodeEntry) SetUpdateHeight(height uint64) {
	e.UpdateHeight = height
}
