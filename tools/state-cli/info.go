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
	"fmt"
	"log"

	"github.com/urfave/cli/v2"
)

var (
	dbDirectoryFlag = cli.StringFlag{
		Name:     "dir",
		Usage:    "the targeted directory",
		Required: true,
	}
)

var getInfoCommand = cli.Command{
	Action: getInfo,
	Name:   "info",
	Usage:  "prints summary information about a ledger state directory",
	Flags: []cli.Flag{
		&dbDirectoryFlag,
	},
}

func getInfo(ctx *cli.Context) error {
	dir := ctx.String(dbDirectoryFlag.Name)
	log.Printf("Loading state in %v ...", dir)
	s, err := open(dir)
	if err != nil {
		return err
	}

	out := ctx.App.Writer
	fmt.Fprintf(out, "Chain:      %d\n", s.ChainID())
	fmt.Fprintf(out, "Version:    %d\n", s.Version())
	fmt.Fprintf(out, "Height:     %d\n", s.Height())
	fmt.Fprintf(out, "Timestamp:  %d\n", s.Timestamp())
	fmt.Fprintf(out, "Block hash: %v\n", s.BlockHash())
	fmt.Fprintf(out, "State hash: %v\n", s.StateHash())
	fmt.Fprintf(out, "Config:     %d entries\n", s.Config().Len())
	for _, c := range collections(s) {
		fmt.Fprintf(out, "  %-18s %8d live %8d leaves\n", c.name, c.live, c.leaves)
	}
	return nil
}
