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

// PoaItem allows the attorney to use a transaction type on an asset, up to an amount.
type PoaItem struct {
	TxType string
	Asset  string
	Amount amount.Amount
}

// PoaEntry is a power of attorney granted by an address.
type PoaEntry struct {
	Reference    string
	Issuer       string
	Attorney     string
	Start        uint64
	Expiry       uint64
	Items        []PoaItem
	UpdateHeight uint64
}

// PoaKey creates the key of the power of attorney with the given reference.
func PoaKey(issuer, reference string) string {
	return issuer + "|" + reference
}

func (e *PoaEntry) GetKey() string {
	return PoaKey(e.Issuer, e.Reference)
}

func (e *PoaEntry) Copy() *PoaEntry {
	res := *e
	res.Items = append([]PoaItem(nil), e.Items...)
	return &res
}

func (e *PoaEntry) SetUpdateHeight(height uint64) {
	e.UpdateHeight = height
}

// IsActive tests whether the power can be used at the given time.
func (e *PoaEntry) IsActive(now uint64) bool {
	return e.Start <= now && (e.Expiry == 0 || now < e.Expiry)
}
