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

package curve

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/erigontech/rolesmod/callspec"
	"github.com/erigontech/rolesmod/quote"
)

var (
	coin   = callspec.Primitive("int128")
	amount = callspec.Primitive("uint256")
)

var (
	GetDyMethod = callspec.Method{
		Name:    "get_dy",
		Inputs:  callspec.Signature{{Name: "i", Type: coin}, {Name: "j", Type: coin}, {Name: "dx", Type: amount}},
		Outputs: callspec.Signature{{Name: "dy", Type: amount}},
	}

	ExchangeMethod = callspec.Method{
		Name: "exchange",
		Inputs: callspec.Signature{
			{Name: "i", Type: coin},
			{Name: "j", Type: coin},
			{Name: "dx", Type: amount},
			{Name: "min_dy", Type: amount},
		},
		Outputs: callspec.Signature{{Name: "dy", Type: amount}},
	}
)

// Exchange of dx of coin i for coin j on a stable swap pool. Coins are
// addressed by their index in the pool.
type Exchange struct {
	Pool common.Address
	I, J int64
	Dx   *big.Int
}

func (e Exchange) args() callspec.Args {
	return callspec.Args{"i": e.I, "j": e.J, "dx": e.Dx}
}

func QuoteGetDy(e Exchange) (callspec.CallSpec, error) {
	return callspec.NewCallSpec(e.Pool, GetDyMethod, e.args(), callspec.Binding{})
}

func Swap(e Exchange, minDy *big.Int) (callspec.CallSpec, error) {
	args := e.args()
	args["min_dy"] = minDy
	return callspec.NewCallSpec(e.Pool, ExchangeMethod, args, callspec.Binding{})
}

func SwapPlan(e Exchange, expectedDy *big.Int) (quote.Plan, error) {
	q, err := QuoteGetDy(e)
	if err != nil {
		return quote.Plan{}, err
	}

	return quote.Plan{
		Quote:    q,
		Declared: []*big.Int{expectedDy},
		Kind:     quote.MinOut,
		Extract: func(outputs []any) ([]*big.Int, []*big.Int, error) {
			dy, err := quote.Uint(outputs, 0)
			if err != nil {
				return nil, nil, err
			}
			return []*big.Int{dy}, []*big.Int{dy}, nil
		},
		Build: func(bounds []*big.Int) (callspec.CallSpec, error) {
			return Swap(e, bounds[0])
		},
	}, nil
}
