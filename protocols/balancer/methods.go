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

// Package balancer builds joins, exits and single swaps of Balancer v2
// pools. Every state changing operation has a query twin on the
// BalancerQueries contract with the same inputs, which is what slippage
// plans quote.
package balancer

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/erigontech/rolesmod/callspec"
)

var (
	address   = callspec.Primitive("address")
	addresses = callspec.ArrayOf(address)
	uint256   = callspec.Primitive("uint256")
	uint256s  = callspec.ArrayOf(uint256)
	boolean   = callspec.Primitive("bool")
	poolID    = callspec.Arg{Name: "pool_id", Type: callspec.Primitive("bytes32")}
)

var (
	ExitPoolMethod = callspec.Method{
		Name: "exitPool",
		Inputs: callspec.Signature{
			poolID,
			{Name: "sender", Type: address},
			{Name: "recipient", Type: address},
			{Name: "request", Type: callspec.Tuple(
				callspec.Arg{Name: "assets", Type: addresses},
				callspec.Arg{Name: "min_amounts_out", Type: uint256s},
				callspec.Arg{Name: "user_data", Type: callspec.Primitive("bytes")},
				callspec.Arg{Name: "to_internal_balance", Type: boolean},
			)},
		},
		Fixed: callspec.FixedArguments{
			"sender":              callspec.Avatar,
			"recipient":           callspec.Avatar,
			"to_internal_balance": callspec.Literal(false),
		},
	}

	QueryExitMethod = ExitPoolMethod.Rename("queryExit", callspec.Signature{
		{Name: "bpt_in", Type: uint256},
		{Name: "amounts_out", Type: uint256s},
	})

	JoinPoolMethod = callspec.Method{
		Name: "joinPool",
		Inputs: callspec.Signature{
			poolID,
			{Name: "sender", Type: address},
			{Name: "recipient", Type: address},
			{Name: "request", Type: callspec.Tuple(
				callspec.Arg{Name: "assets", Type: addresses},
				callspec.Arg{Name: "max_amounts_in", Type: uint256s},
				callspec.Arg{Name: "user_data", Type: callspec.Primitive("bytes")},
				callspec.Arg{Name: "from_internal_balance", Type: boolean},
			)},
		},
		Fixed: callspec.FixedArguments{
			"sender":                callspec.Avatar,
			"recipient":             callspec.Avatar,
			"from_internal_balance": callspec.Literal(false),
		},
		StateMutability: "payable",
	}

	QueryJoinMethod = JoinPoolMethod.Rename("queryJoin", callspec.Signature{
		{Name: "bpt_out", Type: uint256},
		{Name: "amounts_in", Type: uint256s},
	})

	GetPoolMethod = callspec.Method{
		Name:    "getPool",
		Inputs:  callspec.Signature{poolID},
		Outputs: callspec.Signature{{Name: "pool", Type: address}, {Name: "specialization", Type: callspec.Primitive("uint8")}},
	}

	GetPoolTokensMethod = callspec.Method{
		Name:   "getPoolTokens",
		Inputs: callspec.Signature{poolID},
		Outputs: callspec.Signature{
			{Name: "tokens", Type: addresses},
			{Name: "balances", Type: uint256s},
			{Name: "last_change_block", Type: uint256},
		},
	}

	getNormalizedWeights = callspec.Method{Name: "getNormalizedWeights", Outputs: callspec.Signature{{Name: "weights", Type: uint256s}}}
	getBptIndex          = callspec.Method{Name: "getBptIndex", Outputs: callspec.Signature{{Name: "index", Type: uint256}}}
	inRecoveryMode       = callspec.Method{Name: "inRecoveryMode", Outputs: callspec.Signature{{Name: "enabled", Type: boolean}}}
)

// ExitRequest is the request tuple of exitPool and queryExit.
type ExitRequest struct {
	Assets        []common.Address
	MinAmountsOut []*big.Int
	UserData      []byte
}

func (r ExitRequest) args(id common.Hash) callspec.Args {
	return callspec.Args{"pool_id": id, "assets": r.Assets, "min_amounts_out": r.MinAmountsOut, "user_data": r.UserData}
}

// JoinRequest is the request tuple of joinPool and queryJoin.
type JoinRequest struct {
	Assets       []common.Address
	MaxAmountsIn []*big.Int
	UserData     []byte
}

func (r JoinRequest) args(id common.Hash) callspec.Args {
	return callspec.Args{"pool_id": id, "assets": r.Assets, "max_amounts_in": r.MaxAmountsIn, "user_data": r.UserData}
}

// Exit burns the avatar's BPT on the vault, paying the tokens to the avatar.
func Exit(vault, avatar common.Address, id common.Hash, r ExitRequest) (callspec.CallSpec, error) {
	return callspec.NewCallSpec(vault, ExitPoolMethod, r.args(id), callspec.BindTo(avatar))
}

// QueryExit is the read only twin of Exit. The queries contract ignores
// sender and recipient, they are set to the zero address.
func QueryExit(queries common.Address, id common.Hash, r ExitRequest) (callspec.CallSpec, error) {
	return callspec.NewCallSpec(queries, QueryExitMethod, r.args(id), callspec.BindTo(common.Address{}))
}

func Join(vault, avatar common.Address, id common.Hash, r JoinRequest) (callspec.CallSpec, error) {
	return callspec.NewCallSpec(vault, JoinPoolMethod, r.args(id), callspec.BindTo(avatar))
}

func QueryJoin(queries common.Address, id common.Hash, r JoinRequest) (callspec.CallSpec, error) {
	return callspec.NewCallSpec(queries, QueryJoinMethod, r.args(id), callspec.BindTo(common.Address{}))
}
