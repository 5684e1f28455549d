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

import "golang.org/x/exp/slices"

// NamespaceEntry describes a namespace, its owner and the asset classes
// defined in it.
type NamespaceEntry struct {
	Name         string
	Owner        string
	Metadata     string
	Classes      []string // sorted
	UpdateHeight uint64
}

func (e *NamespaceEntry) GetKey() string {
	return e.Name
}

func (e *NamespaceEntry) Copy() *NamespaceEntry {
	res := *e
	res.Classes = append([]string(nil), e.Classes...)
	return &res
}

func (e *NamespaceEntry) SetUpdateHeight(height uint64) {
	e.UpdateHeight = height
}

// AddClass registers an asset class, returns false if it already exists.
func (e *NamespaceEntry) AddClass(class string) bool {
	i, found := slices.BinarySearch(e.Classes, class)
	if found {
		return false
	}
	e.Classes = slices.Insert(e.Classes, i, class)
	return true
}

func (e *NamespaceEntry) HasClass(class string) bool {
	_, found := slices.BinarySearch(e.Classes, class)
	return found
}
