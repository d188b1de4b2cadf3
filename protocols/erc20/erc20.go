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

package erc20

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"

	"github.com/erigontech/rolesmod/callspec"
	"github.com/erigontech/rolesmod/chain"
)

var uint256Type = callspec.Primitive("uint256")

var (
	ApproveMethod = callspec.Method{
		Name: "approve",
		Inputs: callspec.Signature{
			{Name: "spender", Type: callspec.Primitive("address")},
			{Name: "amount", Type: uint256Type},
		},
		Outputs: callspec.Signature{{Name: "ok", Type: callspec.Primitive("bool")}},
	}

	TransferMethod = callspec.Method{
		Name: "transfer",
		Inputs: callspec.Signature{
			{Name: "recipient", Type: callspec.Primitive("address")},
			{Name: "amount", Type: uint256Type},
		},
		Outputs: callspec.Signature{{Name: "ok", Type: callspec.Primitive("bool")}},
	}

	AllowanceMethod = callspec.Method{
		Name: "allowance",
		Inputs: callspec.Signature{
			{Name: "owner", Type: callspec.Primitive("address")},
			{Name: "spender", Type: callspec.Primitive("address")},
		},
		Outputs: callspec.Signature{{Name: "remaining", Type: uint256Type}},
	}

	BalanceOfMethod = callspec.Method{
		Name:    "balanceOf",
		Inputs:  callspec.Signature{{Name: "account", Type: callspec.Primitive("address")}},
		Outputs: callspec.Signature{{Name: "balance", Type: uint256Type}},
	}
)

// MaxAmount is the conventional unlimited approval.
var MaxAmount = math.MaxBig256

func Approve(token, spender common.Address, amount *big.Int) (callspec.CallSpec, error) {
	return callspec.NewCallSpec(token, ApproveMethod, callspec.Args{"spender": spender, "amount": amount}, callspec.Binding{})
}

func Transfer(token, recipient common.Address, amount *big.Int) (callspec.CallSpec, error) {
	return callspec.NewCallSpec(token, TransferMethod, callspec.Args{"recipient": recipient, "amount": amount}, callspec.Binding{})
}

func Allowance(ctx context.Context, caller chain.Caller, token, owner, spender common.Address) (*big.Int, error) {
	c, err := callspec.NewCallSpec(token, AllowanceMethod, callspec.Args{"owner": owner, "spender": spender}, callspec.Binding{})
	if err != nil {
		return nil, err
	}
	return readUint(ctx, caller, c)
}

func BalanceOf(ctx context.Context, caller chain.Caller, token, account common.Address) (*big.Int, error) {
	c, err := callspec.NewCallSpec(token, BalanceOfMethod, callspec.Args{"account": account}, callspec.Binding{})
	if err != nil {
		return nil, err
	}
	return readUint(ctx, caller, c)
}

// ApproveIfNeeded returns the approval the avatar needs before spender can
// pull amount of token, or no call when the allowance already covers it.
func ApproveIfNeeded(ctx context.Context, caller chain.Caller, avatar, token, spender common.Address, amount *big.Int) ([]callspec.CallSpec, error) {
	allowance, err := Allowance(ctx, caller, token, avatar, spender)
	if err != nil {
		return nil, err
	}
	if allowance.Cmp(amount) >= 0 {
		return nil, nil
	}

	c, err := Approve(token, spender, amount)
	if err != nil {
		return nil, err
	}
	return []callspec.CallSpec{c}, nil
}

func readUint(ctx context.Context, caller chain.Caller, c callspec.CallSpec) (*big.Int, error) {
	out, err := chain.Read(ctx, caller, common.Address{}, c, nil)
	if err != nil {
		return nil, err
	}
	v, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("%s: unexpected output %T", c.Method(), out[0])
	}
	return v, nil
}
