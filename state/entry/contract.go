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

// ContractEntry holds the state of a contract between parties.
type ContractEntry struct {
	Address      string
	Function     string
	Parties      []string
	Data         []byte
	Expiry       uint64
	UpdateHeight uint64
}

func (e *ContractEntry) GetKey() string {
	return e.Address
}

func (e *ContractEntry) Copy() *ContractEntry {
	res := *e
	res.Parties = append([]string(nil), e.Parties...)
	res.Data = append([]byte(nil), e.Data...)
	return &res
}

func (e *ContractEntry) SetUpdateHeight(height uint64) {
	e.UpdateHeight = height
}
