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

// Package aave builds calls to the Aave v3 lending pool made on behalf of
// the avatar.
package aave

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/erigontech/rolesmod/callspec"
)

type InterestRateMode uint8

const (
	Stable   InterestRateMode = 1
	Variable InterestRateMode = 2
)

func (m InterestRateMode) Validate() error {
	return callspec.CheckEnum("interest_rate_mode", m, Stable, Variable)
}

var (
	address = callspec.Primitive("address")
	amount  = callspec.Primitive("uint256")
)

var (
	SupplyMethod = callspec.Method{
		Name: "supply",
		Inputs: callspec.Signature{
			{Name: "asset", Type: address},
			{Name: "amount", Type: amount},
			{Name: "on_behalf_of", Type: address},
			{Name: "referral_code", Type: callspec.Primitive("uint16")},
		},
		Fixed: callspec.FixedArguments{"on_behalf_of": callspec.Avatar, "referral_code": callspec.Literal(0)},
	}

	WithdrawMethod = callspec.Method{
		Name: "withdraw",
		Inputs: callspec.Signature{
			{Name: "asset", Type: address},
			{Name: "amount", Type: amount},
			{Name: "to", Type: address},
		},
		Outputs: callspec.Signature{{Name: "withdrawn", Type: amount}},
		Fixed:   callspec.FixedArguments{"to": callspec.Avatar},
	}

	BorrowMethod = callspec.Method{
		Name: "borrow",
		Inputs: callspec.Signature{
			{Name: "asset", Type: address},
			{Name: "amount", Type: amount},
			{Name: "interest_rate_mode", Type: amount},
			{Name: "referral_code", Type: callspec.Primitive("uint16")},
			{Name: "on_behalf_of", Type: address},
		},
		Fixed: callspec.FixedArguments{"on_behalf_of": callspec.Avatar, "referral_code": callspec.Literal(0)},
	}

	RepayMethod = callspec.Method{
		Name: "repay",
		Inputs: callspec.Signature{
			{Name: "asset", Type: address},
			{Name: "amount", Type: amount},
			{Name: "interest_rate_mode", Type: amount},
			{Name: "on_behalf_of", Type: address},
		},
		Outputs: callspec.Signature{{Name: "repaid", Type: amount}},
		Fixed:   callspec.FixedArguments{"on_behalf_of": callspec.Avatar},
	}

	CollateralMethod = callspec.Method{
		Name: "setUserUseReserveAsCollateral",
		Inputs: callspec.Signature{
			{Name: "asset", Type: address},
			{Name: "use_as_collateral", Type: callspec.Primitive("bool")},
		},
	}
)

// Deposit supplies amount of asset, crediting the aTokens to the avatar.
func Deposit(pool, avatar, asset common.Address, amt *big.Int) (callspec.CallSpec, error) {
	return callspec.NewCallSpec(pool, SupplyMethod, callspec.Args{"asset": asset, "amount": amt}, callspec.BindTo(avatar))
}

func Withdraw(pool, avatar, asset common.Address, amt *big.Int) (callspec.CallSpec, error) {
	return callspec.NewCallSpec(pool, WithdrawMethod, callspec.Args{"asset": asset, "amount": amt}, callspec.BindTo(avatar))
}

func Borrow(pool, avatar, asset common.Address, amt *big.Int, mode InterestRateMode) (callspec.CallSpec, error) {
	if err := mode.Validate(); err != nil {
		return callspec.CallSpec{}, err
	}
	args := callspec.Args{"asset": asset, "amount": amt, "interest_rate_mode": uint8(mode)}
	return callspec.NewCallSpec(pool, BorrowMethod, args, callspec.BindTo(avatar))
}

func Repay(pool, avatar, asset common.Address, amt *big.Int, mode InterestRateMode) (callspec.CallSpec, error) {
	if err := mode.Validate(); err != nil {
		return callspec.CallSpec{}, err
	}
	args := callspec.Args{"asset": asset, "amount": amt, "interest_rate_mode": uint8(mode)}
	return callspec.NewCallSpec(pool, RepayMethod, args, callspec.BindTo(avatar))
}

func SetCollateral(pool, asset common.Address, use bool) (callspec.CallSpec, error) {
	return callspec.NewCallSpec(pool, CollateralMethod, callspec.Args{"asset": asset, "use_as_collateral": use}, callspec.Binding{})
}
