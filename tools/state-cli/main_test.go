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
	"bytes"
	"strings"
	"testing"

	"github.com/Fantom-foundation/Ledger/backend"
	"github.com/Fantom-foundation/Ledger/state"
	"github.com/Fantom-foundation/Ledger/state/entry"
	"github.com/Fantom-foundation/Ledger/state/ldbstate"
)

func createLedgerDir(t *testing.T) (string, *state.State) {
	t.Helper()
	empty, err := state.NewEmptyState(3, state.VersionUseUpdateHeight, state.Parameters{})
	if err != nil {
		t.Fatalf("failed to create state: %v", err)
	}
	snapshot := empty.CreateSnapshot()
	snapshot.AssetBalances().Add(entry.NewAddressEntry("alice"))
	snapshot.AssetBalances().Add(entry.NewAddressEntry("bob"))
	snapshot.AssetBalances().Delete("bob")
	snapshot.SignNodes().Add(&entry.SignNodeEntry{PublicKey: "node"})
	s, err := snapshot.FinalizeBlock(state.BlockMetadata{Timestamp: 4})
	if err != nil {
		t.Fatalf("failed to finalize block: %v", err)
	}

	dir := t.TempDir()
	db, err := backend.OpenLevelDb(dir, nil)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	if err := ldbstate.Save(db, s); err != nil {
		t.Fatalf("failed to save state: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("failed to close database: %v", err)
	}
	return dir, s
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	err := app.Run(append([]string{"state"}, args...))
	return out.String(), err
}

func TestInfo_PrintsSummary(t *testing.T) {
	dir, s := createLedgerDir(t)
	out, err := run(t, "info", "--dir", dir)
	if err != nil {
		t.Fatalf("info failed: %v", err)
	}
	for _, want := range []string{
		"Height:     1",
		"State hash: " + s.StateHash().String(),
		"Block hash: " + s.BlockHash().String(),
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output does not contain %q:\n%s", want, out)
		}
	}
	if !strings.Contains(out, string(state.AssetBalances)) {
		t.Errorf("output does not list collections:\n%s", out)
	}
}

func TestVerify_AcceptsValidState(t *testing.T) {
	dir, s := createLedgerDir(t)
	out, err := run(t, "verify", "--dir", dir)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if !strings.Contains(out, s.StateHash().String()) {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestOpen_FailsForMissingDirectory(t *testing.T) {
	if _, err := run(t, "info", "--dir", t.TempDir()+"/missing"); err == nil {
		t.Errorf("opening a missing directory should fail")
	}
}
