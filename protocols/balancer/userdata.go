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
	"math/big"

	"github.com/erigontech/rolesmod/callspec"
)

// Exit kinds. Weighted, stable and meta stable pools share one numbering,
// composable stable pools swap the proportional and exact tokens kinds.
const (
	exactBptInForOneTokenOut = 0
	exactBptInForTokensOut   = 1
	bptInForExactTokensOut   = 2

	composableBptInForExactTokensOut = 1
	composableExactBptInForTokensOut = 2
	recoveryModeExit                 = 255
)

// Join kinds, identical for every pool kind used here.
const (
	exactTokensInForBptOut    = 1
	tokenInForExactBptOut     = 2
	allTokensInForExactBptOut = 3
)

func (p *Pool) proportionalExitKind() int {
	if p.Kind == ComposableStablePool {
		return composableExactBptInForTokensOut
	}
	return exactBptInForTokensOut
}

func (p *Pool) exactTokensExitKind() int {
	if p.Kind == ComposableStablePool {
		return composableBptInForExactTokensOut
	}
	return bptInForExactTokensOut
}

func userData(sig callspec.Signature, values ...any) ([]byte, error) {
	return callspec.EncodeArguments(sig, values)
}

var (
	kindAmountIndex = callspec.Signature{
		{Name: "kind", Type: uint256},
		{Name: "amount", Type: uint256},
		{Name: "index", Type: uint256},
	}
	kindAmount = callspec.Signature{
		{Name: "kind", Type: uint256},
		{Name: "amount", Type: uint256},
	}
	kindAmountsBound = callspec.Signature{
		{Name: "kind", Type: uint256},
		{Name: "amounts", Type: uint256s},
		{Name: "bound", Type: uint256},
	}
)

func (p *Pool) exactBptSingleTokenExitData(bptIn *big.Int, index int) ([]byte, error) {
	return userData(kindAmountIndex, exactBptInForOneTokenOut, bptIn, p.userIndex(index))
}

func (p *Pool) exactBptProportionalExitData(bptIn *big.Int) ([]byte, error) {
	return userData(kindAmount, p.proportionalExitKind(), bptIn)
}

func (p *Pool) exactTokensExitData(amountsOut []*big.Int, maxBptIn *big.Int) ([]byte, error) {
	return userData(kindAmountsBound, p.exactTokensExitKind(), p.userAmounts(amountsOut), maxBptIn)
}

func recoveryModeExitData(bptIn *big.Int) ([]byte, error) {
	return userData(kindAmount, recoveryModeExit, bptIn)
}

func (p *Pool) exactTokensJoinData(amountsIn []*big.Int, minBptOut *big.Int) ([]byte, error) {
	return userData(kindAmountsBound, exactTokensInForBptOut, p.userAmounts(amountsIn), minBptOut)
}

func (p *Pool) exactBptSingleTokenJoinData(bptOut *big.Int, index int) ([]byte, error) {
	return userData(kindAmountIndex, tokenInForExactBptOut, bptOut, p.userIndex(index))
}

func exactBptProportionalJoinData(bptOut *big.Int) ([]byte, error) {
	return userData(kindAmount, allTokensInForExactBptOut, bptOut)
}
