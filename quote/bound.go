// Copyright 2024 The Erigon Authors
// This file is part of Erigon.
//
// Erigon is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Erigon is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Erigon. If not, see <http://www.gnu.org/licenses/>.

package quote

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// Tolerance is the distance, in units of the compared amount, a declared
// amount may have from the simulated one. Pools round their own integer
// math, so an exact match is not always reachable.
const Tolerance = 1

var (
	ErrInvalidSlippage    = errors.New("slippage must be within [0, 1]")
	ErrSimulationMismatch = errors.New("simulation mismatch")
)

var one = decimal.NewFromInt(1)

// Slippage is the fraction an execution may deviate from its quote.
type Slippage struct {
	d decimal.Decimal
}

func NewSlippage(d decimal.Decimal) (Slippage, error) {
	if d.IsNegative() || d.GreaterThan(one) {
		return Slippage{}, fmt.Errorf("%w: %s", ErrInvalidSlippage, d)
	}
	return Slippage{d: d}, nil
}

// ParseSlippage reads a decimal fraction such as "0.005".
func ParseSlippage(s string) (Slippage, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Slippage{}, fmt.Errorf("%w: %q", ErrInvalidSlippage, s)
	}
	return NewSlippage(d)
}

func MustSlippage(s string) Slippage {
	sl, err := ParseSlippage(s)
	if err != nil {
		panic(err)
	}
	return sl
}

func (s Slippage) Decimal() decimal.Decimal {
	return s.d
}

func (s Slippage) String() string {
	return s.d.String()
}

type BoundKind uint8

const (
	// MinOut bounds the output of an exact-in operation from below.
	MinOut BoundKind = iota
	// MaxIn bounds the input of an exact-out operation from above.
	MaxIn
)

func (k BoundKind) String() string {
	switch k {
	case MinOut:
		return "minOut"
	case MaxIn:
		return "maxIn"
	default:
		return fmt.Sprintf("BoundKind(%d)", uint8(k))
	}
}

// DeriveBound is floor(x*(1-s)) for MinOut and ceil(x*(1+s)) for MaxIn.
func DeriveBound(kind BoundKind, x *big.Int, s Slippage) *big.Int {
	xd := decimal.NewFromBigInt(x, 0)
	switch kind {
	case MaxIn:
		return xd.Mul(one.Add(s.d)).Ceil().BigInt()
	default:
		return xd.Mul(one.Sub(s.d)).Floor().BigInt()
	}
}

// BoundEach derives one bound per simulated amount, as needed by
// operations returning several amounts such as proportional exits.
func BoundEach(kind BoundKind, xs []*big.Int, s Slippage) []*big.Int {
	bounds := make([]*big.Int, len(xs))
	for i, x := range xs {
		bounds[i] = DeriveBound(kind, x, s)
	}
	return bounds
}

func WithinTolerance(declared, simulated *big.Int) bool {
	diff := new(big.Int).Sub(declared, simulated)
	return diff.CmpAbs(big.NewInt(Tolerance)) <= 0
}
