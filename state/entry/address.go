// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package entry defines the values stored in the named state collections.
// All types are RLP encodable and implement merkle.Entry. Heights recorded
// in UpdateHeight fields are the height of the block last changing the entry,
// zero if never recorded.
package entry

import (
	"sort"

	"github.com/Fantom-foundation/Ledger/common/amount"
)

// Balance is the holding of a single asset.
type Balance struct {
	Asset  string // full asset id, namespace|class
	Amount amount.Amount
}

// AddressEntry holds the nonce and the asset balances of an address.
type AddressEntry struct {
	Address      string
	Nonce        uint64
	Metadata     string
	Balances     []Balance // sorted by asset
	UpdateHeight uint64
}

func NewAddressEntry(address string) *AddressEntry {
	return &AddressEntry{Address: address}
}

func (e *AddressEntry) GetKey() string {
	return e.Address
}

func (e *AddressEntry) Copy() *AddressEntry {
	res := *e
	res.Balances = append([]Balance(nil), e.Balances...)
	return &res
}

func (e *AddressEntry) SetUpdateHeight(height uint64) {
	e.UpdateHeight = height
}

// GetBalance returns the balance of the given asset, zero if not held.
func (e *AddressEntry) GetBalance(asset string) amount.Amount {
	if i, found := e.find(asset); found {
		return e.Balances[i].Amount
	}
	return amount.New()
}

// SetBalance updates the balance of the given asset. A zero balance removes
// the asset from the entry.
func (e *AddressEntry) SetBalance(asset string, value amount.Amount) {
	i, found := e.find(asset)
	switch {
	case found && value.IsZero():
		e.Balances = append(e.Balances[:i], e.Balances[i+1:]...)
	case found:
		e.Balances[i].Amount = value
	case !value.IsZero():
		e.Balances = append(e.Balances, Balance{})
		copy(e.Balances[i+1:], e.Balances[i:])
		e.Balances[i] = Balance{Asset: asset, Amount: value}
	}
}

func (e *AddressEntry) find(asset string) (int, bool) {
	i := sort.Search(len(e.Balances), func(i int) bool {
		return e.Balances[i].Asset >= asset
	})
	return i, i < len(e.Balances) && e.Balances[i].Asset == asset
}
