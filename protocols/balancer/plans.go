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

// Balancer holds the contracts and the avatar slippage plans are built for.
type Balancer struct {
	Vault   common.Address
	Queries common.Address
	Avatar  common.Address
}

// ExactBptSingleTokenExit burns exactly bptIn for an unknown amount of
// tokenOut, bounded from below.
func (b Balancer) ExactBptSingleTokenExit(p *Pool, bptIn *big.Int, tokenOut common.Address) (quote.Plan, error) {
	idx, err := p.TokenIndex(tokenOut)
	if err != nil {
		return quote.Plan{}, err
	}
	data, err := p.exactBptSingleTokenExitData(bptIn, idx)
	if err != nil {
		return quote.Plan{}, err
	}

	q, err := QueryExit(b.Queries, p.ID, ExitRequest{Assets: p.Tokens, MinAmountsOut: p.zeros(), UserData: data})
	if err != nil {
		return quote.Plan{}, err
	}

	return quote.Plan{
		Quote:    q,
		Declared: []*big.Int{bptIn},
		Kind:     quote.MinOut,
		Extract: func(outputs []any) ([]*big.Int, []*big.Int, error) {
			bpt, amounts, err := exitOutputs(outputs, len(p.Tokens))
			if err != nil {
				return nil, nil, err
			}
			return []*big.Int{bpt}, []*big.Int{amounts[idx]}, nil
		},
		Build: func(bounds []*big.Int) (callspec.CallSpec, error) {
			minOut := p.zeros()
			minOut[idx] = bounds[0]
			return Exit(b.Vault, b.Avatar, p.ID, ExitRequest{Assets: p.Tokens, MinAmountsOut: minOut, UserData: data})
		},
	}, nil
}

// ExactBptProportionalExit burns exactly bptIn for every token of the pool
// in proportion to the balances, each bounded from below.
func (b Balancer) ExactBptProportionalExit(p *Pool, bptIn *big.Int) (quote.Plan, error) {
	data, err := p.exactBptProportionalExitData(bptIn)
	if err != nil {
		return quote.Plan{}, err
	}

	q, err := QueryExit(b.Queries, p.ID, ExitRequest{Assets: p.Tokens, MinAmountsOut: p.zeros(), UserData: data})
	if err != nil {
		return quote.Plan{}, err
	}

	return quote.Plan{
		Quote:    q,
		Declared: []*big.Int{bptIn},
		Kind:     quote.MinOut,
		Extract: func(outputs []any) ([]*big.Int, []*big.Int, error) {
			bpt, amounts, err := exitOutputs(outputs, len(p.Tokens))
			if err != nil {
				return nil, nil, err
			}
			return []*big.Int{bpt}, amounts, nil
		},
		Build: func(bounds []*big.Int) (callspec.CallSpec, error) {
			return Exit(b.Vault, b.Avatar, p.ID, ExitRequest{Assets: p.Tokens, MinAmountsOut: bounds, UserData: data})
		},
	}, nil
}

// ExactTokensExit withdraws exactly amountsOut, one entry per pool token,
// burning an unknown amount of BPT bounded from above.
func (b Balancer) ExactTokensExit(p *Pool, amountsOut []*big.Int) (quote.Plan, error) {
	if len(amountsOut) != len(p.Tokens) {
		return quote.Plan{}, fmt.Errorf("%w: %d amounts for %d tokens", callspec.ErrInvalidArgument, len(amountsOut), len(p.Tokens))
	}

	queryData, err := p.exactTokensExitData(amountsOut, math.MaxBig256)
	if err != nil {
		return quote.Plan{}, err
	}
	q, err := QueryExit(b.Queries, p.ID, ExitRequest{Assets: p.Tokens, MinAmountsOut: amountsOut, UserData: queryData})
	if err != nil {
		return quote.Plan{}, err
	}

	return quote.Plan{
		Quote:    q,
		Declared: amountsOut,
		Kind:     quote.MaxIn,
		Extract: func(outputs []any) ([]*big.Int, []*big.Int, error) {
			bpt, amounts, err := exitOutputs(outputs, len(p.Tokens))
			if err != nil {
				return nil, nil, err
			}
			return amounts, []*big.Int{bpt}, nil
		},
		Build: func(bounds []*big.Int) (callspec.CallSpec, error) {
			data, err := p.exactTokensExitData(amountsOut, bounds[0])
			if err != nil {
				return callspec.CallSpec{}, err
			}
			return Exit(b.Vault, b.Avatar, p.ID, ExitRequest{Assets: p.Tokens, MinAmountsOut: amountsOut, UserData: data})
		},
	}, nil
}

// ExactSingleTokenExit withdraws exactly amountOut of tokenOut.
func (b Balancer) ExactSingleTokenExit(p *Pool, tokenOut common.Address, amountOut *big.Int) (quote.Plan, error) {
	idx, err := p.TokenIndex(tokenOut)
	if err != nil {
		return quote.Plan{}, err
	}
	amounts := p.zeros()
	amounts[idx] = amountOut
	return b.ExactTokensExit(p, amounts)
}

// ExactSingleTokenProportionalExit withdraws exactly amountOut of tokenOut
// together with every other token in proportion to the pool balances.
func (b Balancer) ExactSingleTokenProportionalExit(p *Pool, tokenOut common.Address, amountOut *big.Int) (quote.Plan, error) {
	idx, err := p.TokenIndex(tokenOut)
	if err != nil {
		return quote.Plan{}, err
	}
	amounts, err := p.proportionalAmounts(idx, amountOut)
	if err != nil {
		return quote.Plan{}, err
	}
	return b.ExactTokensExit(p, amounts)
}

// RecoveryModeExit leaves a pool in recovery mode proportionally. Pools in
// recovery mode cannot be queried, so nothing bounds the amounts out.
func (b Balancer) RecoveryModeExit(p *Pool, bptIn *big.Int) (callspec.CallSpec, error) {
	data, err := recoveryModeExitData(bptIn)
	if err != nil {
		return callspec.CallSpec{}, err
	}
	return Exit(b.Vault, b.Avatar, p.ID, ExitRequest{Assets: p.Tokens, MinAmountsOut: p.zeros(), UserData: data})
}

// ExactTokensJoin deposits exactly amountsIn, one entry per pool token, for
// an unknown amount of BPT bounded from below.
func (b Balancer) ExactTokensJoin(p *Pool, amountsIn []*big.Int) (quote.Plan, error) {
	if len(amountsIn) != len(p.Tokens) {
		return quote.Plan{}, fmt.Errorf("%w: %d amounts for %d tokens", callspec.ErrInvalidArgument, len(amountsIn), len(p.Tokens))
	}

	queryData, err := p.exactTokensJoinData(amountsIn, new(big.Int))
	if err != nil {
		return quote.Plan{}, err
	}
	q, err := QueryJoin(b.Queries, p.ID, JoinRequest{Assets: p.Tokens, MaxAmountsIn: amountsIn, UserData: queryData})
	if err != nil {
		return quote.Plan{}, err
	}

	return quote.Plan{
		Quote:    q,
		Declared: amountsIn,
		Kind:     quote.MinOut,
		Extract: func(outputs []any) ([]*big.Int, []*big.Int, error) {
			bpt, amounts, err := exitOutputs(outputs, len(p.Tokens))
			if err != nil {
				return nil, nil, err
			}
			return amounts, []*big.Int{bpt}, nil
		},
		Build: func(bounds []*big.Int) (callspec.CallSpec, error) {
			data, err := p.exactTokensJoinData(amountsIn, bounds[0])
			if err != nil {
				return callspec.CallSpec{}, err
			}
			return Join(b.Vault, b.Avatar, p.ID, JoinRequest{Assets: p.Tokens, MaxAmountsIn: amountsIn, UserData: data})
		},
	}, nil
}

// ExactBptSingleTokenJoin mints exactly bptOut paying an unknown amount of
// tokenIn, bounded from above.
func (b Balancer) ExactBptSingleTokenJoin(p *Pool, bptOut *big.Int, tokenIn common.Address) (quote.Plan, error) {
	idx, err := p.TokenIndex(tokenIn)
	if err != nil {
		return quote.Plan{}, err
	}
	data, err := p.exactBptSingleTokenJoinData(bptOut, idx)
	if err != nil {
		return quote.Plan{}, err
	}

	maxIn := p.zeros()
	maxIn[idx] = math.MaxBig256
	q, err := QueryJoin(b.Queries, p.ID, JoinRequest{Assets: p.Tokens, MaxAmountsIn: maxIn, UserData: data})
	if err != nil {
		return quote.Plan{}, err
	}

	return quote.Plan{
		Quote:    q,
		Declared: []*big.Int{bptOut},
		Kind:     quote.MaxIn,
		Extract: func(outputs []any) ([]*big.Int, []*big.Int, error) {
			bpt, amounts, err := exitOutputs(outputs, len(p.Tokens))
			if err != nil {
				return nil, nil, err
			}
			return []*big.Int{bpt}, []*big.Int{amounts[idx]}, nil
		},
		Build: func(bounds []*big.Int) (callspec.CallSpec, error) {
			maxIn := p.zeros()
			maxIn[idx] = bounds[0]
			return Join(b.Vault, b.Avatar, p.ID, JoinRequest{Assets: p.Tokens, MaxAmountsIn: maxIn, UserData: data})
		},
	}, nil
}

// ExactSingleTokenJoin deposits exactly amountIn of tokenIn.
func (b Balancer) ExactSingleTokenJoin(p *Pool, tokenIn common.Address, amountIn *big.Int) (quote.Plan, error) {
	idx, err := p.TokenIndex(tokenIn)
	if err != nil {
		return quote.Plan{}, err
	}
	amounts := p.zeros()
	amounts[idx] = amountIn
	return b.ExactTokensJoin(p, amounts)
}

// ExactSingleTokenProportionalJoin deposits exactly amountIn of tokenIn
// and every other token in proportion to the pool balances.
func (b Balancer) ExactSingleTokenProportionalJoin(p *Pool, tokenIn common.Address, amountIn *big.Int) (quote.Plan, error) {
	idx, err := p.TokenIndex(tokenIn)
	if err != nil {
		return quote.Plan{}, err
	}
	amounts, err := p.proportionalAmounts(idx, amountIn)
	if err != nil {
		return quote.Plan{}, err
	}
	return b.ExactTokensJoin(p, amounts)
}

// ExactBptProportionalJoin mints exactly bptOut paying every token of the
// pool in proportion to the balances, each bounded from above.
func (b Balancer) ExactBptProportionalJoin(p *Pool, bptOut *big.Int) (quote.Plan, error) {
	data, err := exactBptProportionalJoinData(bptOut)
	if err != nil {
		return quote.Plan{}, err
	}

	maxIn := make([]*big.Int, len(p.Tokens))
	for i := range maxIn {
		maxIn[i] = math.MaxBig256
	}
	q, err := QueryJoin(b.Queries, p.ID, JoinRequest{Assets: p.Tokens, MaxAmountsIn: maxIn, UserData: data})
	if err != nil {
		return quote.Plan{}, err
	}

	return quote.Plan{
		Quote:    q,
		Declared: []*big.Int{bptOut},
		Kind:     quote.MaxIn,
		Extract: func(outputs []any) ([]*big.Int, []*big.Int, error) {
			bpt, amounts, err := exitOutputs(outputs, len(p.Tokens))
			if err != nil {
				return nil, nil, err
			}
			return []*big.Int{bpt}, amounts, nil
		},
		Build: func(bounds []*big.Int) (callspec.CallSpec, error) {
			return Join(b.Vault, b.Avatar, p.ID, JoinRequest{Assets: p.Tokens, MaxAmountsIn: bounds, UserData: data})
		},
	}, nil
}

// exitOutputs reads the (bpt, amounts) pair returned by both queryExit and
// queryJoin.
func exitOutputs(outputs []any, tokens int) (*big.Int, []*big.Int, error) {
	bpt, err := quote.Uint(outputs, 0)
	if err != nil {
		return nil, nil, err
	}
	amounts, err := quote.Uints(outputs, 1)
	if err != nil {
		return nil, nil, err
	}
	if len(amounts) != tokens {
		return nil, nil, fmt.Errorf("query returned %d amounts for %d tokens", len(amounts), tokens)
	}
	return bpt, amounts, nil
}
