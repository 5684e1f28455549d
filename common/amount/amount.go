// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package amount

import (
	"fmt"
	"io"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
)

// Amount is a 256-bit unsigned integer used for asset quantities like
// balances and encumbrances.
type Amount struct {
	internal uint256.Int
}

// New creates a new Amount from up to 4 uint64 arguments given in big endian
// order. No argument results in zero. More than 4 arguments panic.
func New(args ...uint64) Amount {
	if len(args) > 4 {
		panic("too many arguments")
	}
	result := Amount{}
	offset := 4 - len(args)
	for i := 0; i < len(args); i++ {
		result.internal[3-i-offset] = args[i]
	}
	return result
}

// NewFromBigInt creates a new Amount instance from a big.Int.
func NewFromBigInt(b *big.Int) (Amount, error) {
	if b == nil {
		return New(), nil
	}
	if b.Sign() < 0 {
		return Amount{}, fmt.Errorf("cannot construct Amount from negative big.Int")
	}
	result := uint256.Int{}
	if overflow := result.SetFromBig(b); overflow {
		return Amount{}, fmt.Errorf("big.Int has more than 256 bits")
	}
	return Amount{internal: result}, nil
}

// Uint64 is only valid if IsUint64 is true.
func (a Amount) Uint64() uint64 {
	return a.internal.Uint64()
}

func (a Amount) IsUint64() bool {
	return a.internal.IsUint64()
}

func (a Amount) IsZero() bool {
	return a.internal.IsZero()
}

// Cmp returns -1, 0 or +1 if a is smaller, equal or larger than b.
func (a Amount) Cmp(b Amount) int {
	return a.internal.Cmp(&b.internal)
}

func (a Amount) ToBig() *big.Int {
	return a.internal.ToBig()
}

func (a Amount) String() string {
	return a.internal.String()
}

// Add returns the sum of two amounts, wrapping on overflow.
func Add(a, b Amount) Amount {
	result := Amount{}
	result.internal.Add(&a.internal, &b.internal)
	return result
}

// AddOverflow returns the sum of two amounts and whether it overflowed.
func AddOverflow(a, b Amount) (Amount, bool) {
	result := Amount{}
	_, overflow := result.internal.AddOverflow(&a.internal, &b.internal)
	return result, overflow
}

// Sub returns the difference of two amounts, wrapping on underflow.
func Sub(a, b Amount) Amount {
	result := Amount{}
	result.internal.Sub(&a.internal, &b.internal)
	return result
}

// SubUnderflow returns the difference of two amounts and whether it underflowed.
func SubUnderflow(a, b Amount) (Amount, bool) {
	result := Amount{}
	_, underflow := result.internal.SubOverflow(&a.internal, &b.internal)
	return result, underflow
}

// EncodeRLP encodes the amount as an RLP big integer.
func (a Amount) EncodeRLP(w io.Writer) error {
	return rlp.Encode(w, a.internal.ToBig())
}

// DecodeRLP decodes an RLP big integer of at most 256 bits.
func (a *Amount) DecodeRLP(s *rlp.Stream) error {
	b, err := s.BigInt()
	if err != nil {
		return err
	}
	res, err := NewFromBigInt(b)
	if err != nil {
		return err
	}
	*a = res
	return nil
}
