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

// Encumbrance reserves an amount of an asset for a beneficiary.
type Encumbrance struct {
	Reference   string
	Asset       string
	Beneficiary string
	Amount      amount.Amount
	Expiry      uint64
}

// AddressEncumbrances lists the encumbrances placed on the holdings of an address.
type AddressEncumbrances struct {
	Address      string
	Encumbrances []Encumbrance
	UpdateHeight uint64
}

func (e *AddressEncumbrances) GetKey() string {
	return e.Address
}

func (e *AddressEncumbrances) Copy() *AddressEncumbrances {
	res := *e
	res.Encumbrances = append([]Encumbrance(nil), e.Encumbrances...)
	return &res
}

func (e *AddressEncumbrances) SetUpdateHeight(height uint64) {
	e.UpdateHeight = height
}

// Total sums up the encumbered amount of the given asset.
func (e *AddressEncumbrances) Total(asset string) amount.Amount {
	total := amount.New()
	for _, cur := range e.Encumbrances {
		if cur.Asset == asset {
			total = amount.Add(total, cur.Amount)
		}
	}
	return total
}

// Remove drops the encumbrance with the given reference.
func (e *AddressEncumbrances) Remove(reference string) bool {
	for i, cur := range e.Encumbrances {
		if cur.Reference == reference {
			e.Encumbrances = append(e.Encumbrances[:i], e.Encumbrances[i+1:]...)
			return true
		}
	}
	return false
}
