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

//go:generate mockgen -source listener.go -destination listener_mocks.go -package state

// Collection is the name of a keyed state collection.
type Collection string

const (
	AssetBalances    = Collection("assetBalances")
	Namespaces       = Collection("namespaces")
	Contracts        = Collection("contracts")
	Encumbrances     = Collection("encumbrances")
	LockedAssets     = Collection("lockedAssets")
	SignNodes        = Collection("signNodes")
	PowersOfAttorney = Collection("powersOfAttorney")
)

// ChangeListener is informed about every key changed by writing a block into
// the backing trees.
type ChangeListener interface {
	// OnChange is called once per changed key. The old value is nil for
	// inserted keys, the new value is nil for deleted keys.
	OnChange(collection Collection, key string, oldValue, newValue any)
}

// NoOpListener ignores all changes.
type NoOpListener struct{}

func (NoOpListener) OnChange(Collection, string, any, any) {}

// ChangeListenerFunc adapts a function to the ChangeListener interface.
type ChangeListenerFunc func(collection Collection, key string, oldValue, newValue any)

func (f ChangeListenerFunc) OnChange(collection Collection, key string, oldValue, newValue any) {
	f(collection, key, oldValue, newValue)
}
