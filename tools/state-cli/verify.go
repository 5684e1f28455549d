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
	"log"
	"time"

	"github.com/urfave/cli/v2"
)

var (
	cpuProfilingFlag = cli.StringFlag{
		Name:  "cpu-profile",
		Usage: "enable the recording of a CPU profile",
	}
)

var verifyCommand = cli.Command{
	Action: verify,
	Name:   "verify",
	Usage:  "recomputes all hashes of a ledger state directory from scratch",
	Flags: []cli.Flag{
		&dbDirectoryFlag,
		&cpuProfilingFlag,
	},
}

func verify(ctx *cli.Context) error {
	profileTarget := ctx.String(cpuProfilingFlag.Name)
	if len(profileTarget) != 0 {
		if err := StartCPUProfile(profileTarget); err != nil {
			return err
		}
		defer StopCPUProfile()
	}

	dir := ctx.String(dbDirectoryFlag.Name)
	log.Printf("Loading state in %v ...", dir)
	start := time.Now()
	s, err := open(dir)
	if err != nil {
		return err
	}
	log.Printf("State hash of block %d verified", s.Height())

	var errs []error
	for _, c := range collections(s) {
		log.Printf("Verifying %v ...", c.name)
		if err := c.verify(); err != nil {
			errs = append(errs, fmt.Errorf("invalid %v: %w", c.name, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}
	log.Printf("Verification took %.1f seconds", time.Since(start).Seconds())
	fmt.Fprintf(ctx.App.Writer, "State hash: %v\n", s.StateHash())
	return nil
}
