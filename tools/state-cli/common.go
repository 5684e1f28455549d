// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package main

import (
	"errors"
	"fmt"
	"os"
	"runtime/pprof"

	"github.com/Fantom-foundation/Ledger/backend"
	"github.com/Fantom-foundation/Ledger/backend/merkle"
	"github.com/Fantom-foundation/Ledger/state"
	"github.com/Fantom-foundation/Ledger/state/ldbstate"
	"github.com/syndtr/goleveldb/leveldb/opt"
)

// open loads the State stored in a ledger directory. The directory is not
// modified.
func open(dir string) (*state.State, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, err
	}
	db, err := backend.OpenLevelDb(dir, &opt.Options{ReadOnly: true})
	if err != nil {
		return nil, err
	}
	s, err := ldbstate.Load(db, state.Parameters{})
	return s, errors.Join(err, db.Close())
}

// collection summarizes the backing tree of a state collection.
type collection struct {
	name   state.Collection
	live   int
	leaves int
	verify func() error
}

func describe[T merkle.Entry[T]](name state.Collection, tree *merkle.Tree[T]) collection {
	if tree == nil {
		return collection{name: name, verify: func() error { return nil }}
	}
	return collection{name: name, live: tree.Len(), leaves: tree.NumLeaves(), verify: tree.VerifyHash}
}

func collections(s *state.State) []collection {
	trees := s.Trees()
	return []collection{
		describe(state.AssetBalances, trees.AssetBalances),
		describe(state.Namespaces, trees.Namespaces),
		describe(state.Contracts, trees.Contracts),
		describe(state.Encumbrances, trees.Encumbrances),
		describe(state.LockedAssets, trees.LockedAssets),
		describe(state.SignNodes, trees.SignNodes),
		describe(state.PowersOfAttorney, trees.PowersOfAttorney),
	}
}

func StartCPUProfile(profileName string) error {
	f, err := os.Create(profileName)
	if err != nil {
		return fmt.Errorf("could not create CPU profile: %s", err)
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		return fmt.Errorf("could not start CPU profile: %s", err)
	}
	return nil
}

func StopCPUProfile() {
	pprof.StopCPUProfile()
}
