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

package balancer

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"

	"github.com/erigontech/rolesmod/callspec"
	"github.com/erigontech/rolesmod/quote"
)

type SwapKind uint8

const (
	GivenIn SwapKind = iota
	GivenOut
)

func (k SwapKind) String() string {
	switch k {
	case GivenIn:
		return "givenIn"
	case GivenOut:
		return "givenOut"
	default:
		return fmt.Sprintf("SwapKind(%d)", uint8(k))
	}
}

var (
	singleSwap = callspec.Arg{Name: "single_swap", Type: callspec.Tuple(
		poolID,
		callspec.Arg{Name: "kind", Type: callspec.Primitive("uint8")},
		callspec.Arg{Name: "asset_in", Type: address},
		callspec.Arg{Name: "asset_out", Type: address},
		callspec.Arg{Name: "amount", Type: uint256},
		callspec.Arg{Name: "user_data", Type: callspec.Primitive("bytes")},
	)}
	funds = callspec.Arg{Name: "funds", Type: callspec.Tuple(
		callspec.Arg{Name: "sender", Type: address},
		callspec.Arg{Name: "from_internal_balance", Type: boolean},
		callspec.Arg{Name: "recipient", Type: address},
		callspec.Arg{Name: "to_internal_balance", Type: boolean},
	)}
	swapFixed = callspec.FixedArguments{
		"user_data":             callspec.Literal([]byte{}),
		"sender":                callspec.Avatar,
		"from_internal_balance": callspec.Literal(false),
		"recipient":             callspec.Avatar,
		"to_internal_balance":   callspec.Literal(false),
	}
)

var (
	SwapMethod = callspec.Method{
		Name: "swap",
		Inputs: callspec.Signature{
			singleSwap,
			funds,
			{Name: "limit", Type: uint256},
			{Name: "deadline", Type: uint256},
		},
		Outputs:         callspec.Signature{{Name: "amount_calculated", Type: uint256}},
		Fixed:           swapFixed,
		StateMutability: "payable",
	}

	// QuerySwapMethod lives on the queries contract and takes no limit
	// or deadline.
	QuerySwapMethod = callspec.Method{
		Name:    "querySwap",
		Inputs:  callspec.Signature{singleSwap, funds},
		Outputs: callspec.Signature{{Name: "amount_calculated", Type: uint256}},
		Fixed:   swapFixed,
	}
)

// SingleSwap trades through one pool. Amount is the exact input for
// GivenIn and the exact output for GivenOut. A nil Deadline never expires.
type SingleSwap struct {
	PoolID   common.Hash
	Kind     SwapKind
	AssetIn  common.Address
	AssetOut common.Address
	Amount   *big.Int
	Deadline *big.Int
}

func (s SingleSwap) args() callspec.Args {
	return callspec.Args{
		"pool_id":   s.PoolID,
		"kind":      uint8(s.Kind),
		"asset_in":  s.AssetIn,
		"asset_out": s.AssetOut,
		"amount":    s.Amount,
	}
}

func (s SingleSwap) boundKind() (quote.BoundKind, error) {
	switch s.Kind {
	case GivenIn:
		return quote.MinOut, nil
	case GivenOut:
		return quote.MaxIn, nil
	default:
		return 0, fmt.Errorf("%w: swap kind %s", callspec.ErrInvalidEnumValue, s.Kind)
	}
}

// Swap trades on the vault for the avatar. limit is the minimum amount out
// of a GivenIn swap and the maximum amount in of a GivenOut one.
func Swap(vault, avatar common.Address, s SingleSwap, limit *big.Int) (callspec.CallSpec, error) {
	args := s.args()
	args["limit"] = limit
	if s.Deadline != nil {
		args["deadline"] = s.Deadline
	} else {
		args["deadline"] = math.MaxBig256
	}
	return callspec.NewCallSpec(vault, SwapMethod, args, callspec.BindTo(avatar))
}

func QuerySwap(queries common.Address, s SingleSwap) (callspec.CallSpec, error) {
	return callspec.NewCallSpec(queries, QuerySwapMethod, s.args(), callspec.BindTo(common.Address{}))
}

// SwapPlan quotes s and bounds the calculated amount. expected is the
// amount out of a GivenIn swap or the amount in of a GivenOut one, and
// must match the quote.
func (b Balancer) SwapPlan(s SingleSwap, expected *big.Int) (quote.Plan, error) {
	kind, err := s.boundKind()
	if err != nil {
		return quote.Plan{}, err
	}
	q, err := QuerySwap(b.Queries, s)
	if err != nil {
		return quote.Plan{}, err
	}

	return quote.Plan{
		Quote:    q,
		Declared: []*big.Int{expected},
		Kind:     kind,
		Extract: func(outputs []any) ([]*big.Int, []*big.Int, error) {
			amount, err := quote.Uint(outputs, 0)
			if err != nil {
				return nil, nil, err
			}
			return []*big.Int{amount}, []*big.Int{amount}, nil
		},
		Build: func(bounds []*big.Int) (callspec.CallSpec, error) {
			return Swap(b.Vault, b.Avatar, s, bounds[0])
		},
	}, nil
}
