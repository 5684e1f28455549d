// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package addrset provides immutable sorted sets of addresses and a lock
// manager serializing transactions whose address sets intersect.
package addrset

import (
	"hash/fnv"
	"strings"

	"golang.org/x/exp/slices"
)

// kind names the internal representation of an AddressSet.
type kind uint8

const (
	empty kind = iota
	one
	two
	three
	small // sorted slice, linear scan
	large // sorted slice, binary search
)

// smallLimit is the smallest size using the binary searched representation.
const smallLimit = 8

// AddressSet is an immutable, deduplicated and sorted set of addresses. Sets
// of up to three members are stored inline. The representation does not
// influence equality, ordering or hashing, which are all defined over the
// sorted members.
//
// The zero value is the empty set.
type AddressSet struct {
	kind    kind
	inline  [3]string
	members []string
}

// Of creates a set holding the given addresses.
func Of(addresses ...string) AddressSet {
	return FromSlice(addresses)
}

// FromSlice creates a set holding the addresses of the given slice. The
// slice is not retained.
func FromSlice(addresses []string) AddressSet {
	sorted := append([]string(nil), addresses...)
	slices.Sort(sorted)
	return build(slices.Compact(sorted))
}

// FromSet creates a set holding the keys of the given map.
func FromSet(addresses map[string]struct{}) AddressSet {
	sorted := make([]string, 0, len(addresses))
	for address := range addresses {
		sorted = append(sorted, address)
	}
	slices.Sort(sorted)
	return build(sorted)
}

// build selects the representation for a sorted, duplicate free slice.
func build(sorted []string) AddressSet {
	switch len(sorted) {
	case 0:
		return AddressSet{}
	case 1:
		return AddressSet{kind: one, inline: [3]string{sorted[0]}}
	case 2:
		return AddressSet{kind: two, inline: [3]string{sorted[0], sorted[1]}}
	case 3:
		return AddressSet{kind: three, inline: [3]string{sorted[0], sorted[1], sorted[2]}}
	}
	if len(sorted) < smallLimit {
		return AddressSet{kind: small, members: sorted}
	}
	return AddressSet{kind: large, members: sorted}
}

// Len is the number of addresses in the set.
func (s AddressSet) Len() int {
	switch s.kind {
	case empty:
		return 0
	case one:
		return 1
	case two:
		return 2
	case three:
		return 3
	}
	return len(s.members)
}

// At returns the i-th smallest address. It panics if i is out of range.
func (s AddressSet) At(i int) string {
	if s.kind <= three {
		if i < 0 || i >= s.Len() {
			panic("address index out of range")
		}
		return s.inline[i]
	}
	return s.members[i]
}

// Members returns the addresses in ascending order.
func (s AddressSet) Members() []string {
	if s.kind <= three {
		return append([]string(nil), s.inline[:s.Len()]...)
	}
	return append([]string(nil), s.members...)
}

// Contains tests whether the address is a member of the set.
func (s AddressSet) Contains(address string) bool {
	switch s.kind {
	case empty:
		return false
	case one, two, three:
		for _, member := range s.inline[:s.Len()] {
			if member == address {
				return true
			}
		}
		return false
	case small:
		for _, member := range s.members {
			if member == address {
				return true
			}
		}
		return false
	}
	_, found := slices.BinarySearch(s.members, address)
	return found
}

// Intersects tests whether the two sets share at least one address.
func (s AddressSet) Intersects(other AddressSet) bool {
	i, j := 0, 0
	for i < s.Len() && j < other.Len() {
		a, b := s.At(i), other.At(j)
		switch {
		case a == b:
			return true
		case a < b:
			i++
		default:
			j++
		}
	}
	return false
}

// Union creates a set holding the members of both sets.
func (s AddressSet) Union(other AddressSet) AddressSet {
	merged := make([]string, 0, s.Len()+other.Len())
	i, j := 0, 0
	for i < s.Len() || j < other.Len() {
		switch {
		case j == other.Len() || (i < s.Len() && s.At(i) < other.At(j)):
			merged = append(merged, s.At(i))
			i++
		case i == s.Len() || other.At(j) < s.At(i):
			merged = append(merged, other.At(j))
			j++
		default:
			merged = append(merged, s.At(i))
			i++
			j++
		}
	}
	return build(merged)
}

// Equal is true if both sets hold the same addresses.
func (s AddressSet) Equal(other AddressSet) bool {
	return s.Compare(other) == 0
}

// Compare orders sets lexicographically by their sorted members. A set that
// is a prefix of another set is smaller.
func (s AddressSet) Compare(other AddressSet) int {
	for i := 0; i < s.Len() && i < other.Len(); i++ {
		if c := strings.Compare(s.At(i), other.At(i)); c != 0 {
			return c
		}
	}
	switch {
	case s.Len() < other.Len():
		return -1
	case s.Len() > other.Len():
		return 1
	}
	return 0
}

// Hash is a hash of the sorted members.
func (s AddressSet) Hash() uint64 {
	hasher := fnv.New64a()
	for i := 0; i < s.Len(); i++ {
		hasher.Write([]byte(s.At(i)))
		hasher.Write([]byte{0})
	}
	return hasher.Sum64()
}

// String renders the set as [a,b,c].
func (s AddressSet) String() string {
	var builder strings.Builder
	builder.WriteByte('[')
	for i := 0; i < s.Len(); i++ {
		if i > 0 {
			builder.WriteByte(',')
		}
		builder.WriteString(s.At(i))
	}
	builder.WriteByte(']')
	return builder.String()
}
