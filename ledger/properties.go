// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package ledger

import (
	"fmt"
	"strconv"
)

// Property is an optional parameter for configuring a Ledger instance.
type Property string

const (
	// ChainID is the chain a new ledger is created for. Opening an existing
	// ledger with a different chain id fails.
	ChainID = Property("ChainID")
	// Version is the state version of a newly created ledger.
	Version = Property("Version")
	// ReadCacheSize is the capacity of the read cache of each collection.
	ReadCacheSize = Property("ReadCacheSize")
	// Workers is the number of transactions applied in parallel.
	Workers = Property("Workers")
)

// Properties are optional settings of a Ledger. Missing properties take
// their default values.
type Properties map[Property]string

// GetInteger is a utility function for Properties to retrieve numeric values.
func (p *Properties) GetInteger(name Property, fallback int) (int, error) {
	if value, found := (*p)[name]; found {
		res, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid value for '%s' property: %v", name, value)
		}
		return res, nil
	}
	return fallback, nil
}

// SetInteger is a utility function for Properties to set numeric values.
func (p *Properties) SetInteger(name Property, value int) {
	if *p == nil {
		*p = map[Property]string{}
	}
	(*p)[name] = strconv.Itoa(value)
}
