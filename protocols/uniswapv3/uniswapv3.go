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

package uniswapv3

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/erigontech/rolesmod/callspec"
	"github.com/erigontech/rolesmod/quote"
)

// DefaultFee is the 0.01% tier used by stable pairs.
const DefaultFee = 100

var (
	address = callspec.Primitive("address")
	uint256 = callspec.Primitive("uint256")
	feeTier = callspec.Primitive("uint24")
	price   = callspec.Primitive("uint160")
)

var (
	// QuoteExactInputSingleMethod is the QuoterV2 entry point.
	QuoteExactInputSingleMethod = callspec.Method{
		Name: "quoteExactInputSingle",
		Inputs: callspec.Signature{{Name: "params", Type: callspec.Tuple(
			callspec.Arg{Name: "token_in", Type: address},
			callspec.Arg{Name: "token_out", Type: address},
			callspec.Arg{Name: "amount_in", Type: uint256},
			callspec.Arg{Name: "fee", Type: feeTier},
			callspec.Arg{Name: "sqrt_price_limit_x96", Type: price},
		)}},
		Outputs: callspec.Signature{
			{Name: "amount_out", Type: uint256},
			{Name: "sqrt_price_x96_after", Type: price},
			{Name: "initialized_ticks_crossed", Type: callspec.Primitive("uint32")},
			{Name: "gas_estimate", Type: uint256},
		},
		Fixed: callspec.FixedArguments{"sqrt_price_limit_x96": callspec.Literal(0)},
	}

	// ExactInputSingleMethod is the SwapRouter02 entry point.
	ExactInputSingleMethod = callspec.Method{
		Name: "exactInputSingle",
		Inputs: callspec.Signature{{Name: "params", Type: callspec.Tuple(
			callspec.Arg{Name: "token_in", Type: address},
			callspec.Arg{Name: "token_out", Type: address},
			callspec.Arg{Name: "fee", Type: feeTier},
			callspec.Arg{Name: "recipient", Type: address},
			callspec.Arg{Name: "amount_in", Type: uint256},
			callspec.Arg{Name: "amount_out_minimum", Type: uint256},
			callspec.Arg{Name: "sqrt_price_limit_x96", Type: price},
		)}},
		Outputs:         callspec.Signature{{Name: "amount_out", Type: uint256}},
		Fixed:           callspec.FixedArguments{"recipient": callspec.Avatar, "sqrt_price_limit_x96": callspec.Literal(0)},
		StateMutability: "payable",
	}
)

type Swap struct {
	TokenIn  common.Address
	TokenOut common.Address
	Fee      uint32
	AmountIn *big.Int
}

func (s Swap) fee() uint32 {
	if s.Fee == 0 {
		return DefaultFee
	}
	return s.Fee
}

func QuoteExactInputSingle(quoter common.Address, s Swap) (callspec.CallSpec, error) {
	args := callspec.Args{"token_in": s.TokenIn, "token_out": s.TokenOut, "amount_in": s.AmountIn, "fee": s.fee()}
	return callspec.NewCallSpec(quoter, QuoteExactInputSingleMethod, args, callspec.Binding{})
}

// ExactInputSingle swaps s.AmountIn for at least minOut, paid to the avatar.
func ExactInputSingle(router, avatar common.Address, s Swap, minOut *big.Int) (callspec.CallSpec, error) {
	args := callspec.Args{
		"token_in":           s.TokenIn,
		"token_out":          s.TokenOut,
		"fee":                s.fee(),
		"amount_in":          s.AmountIn,
		"amount_out_minimum": minOut,
	}
	return callspec.NewCallSpec(router, ExactInputSingleMethod, args, callspec.BindTo(avatar))
}

// SwapPlan quotes s and bounds the swap output by the quoted amount,
// which must match expectedOut.
func SwapPlan(quoter, router, avatar common.Address, s Swap, expectedOut *big.Int) (quote.Plan, error) {
	q, err := QuoteExactInputSingle(quoter, s)
	if err != nil {
		return quote.Plan{}, err
	}

	return quote.Plan{
		Quote:    q,
		Declared: []*big.Int{expectedOut},
		Kind:     quote.MinOut,
		Extract: func(outputs []any) ([]*big.Int, []*big.Int, error) {
			out, err := quote.Uint(outputs, 0)
			if err != nil {
				return nil, nil, err
			}
			return []*big.Int{out}, []*big.Int{out}, nil
		},
		Build: func(bounds []*big.Int) (callspec.CallSpec, error) {
			return ExactInputSingle(router, avatar, s, bounds[0])
		},
	}, nil
}
