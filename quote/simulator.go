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
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/erigontech/rolesmod/callspec"
	"github.com/erigontech/rolesmod/chain"
)

// Simulator evaluates a read only call and returns its raw return data.
type Simulator interface {
	Simulate(ctx context.Context, c callspec.CallSpec) ([]byte, error)
}

type SimulatorFunc func(ctx context.Context, c callspec.CallSpec) ([]byte, error)

func (f SimulatorFunc) Simulate(ctx context.Context, c callspec.CallSpec) ([]byte, error) {
	return f(ctx, c)
}

// ChainSimulator runs quotes as eth_call against a node. Query contracts
// do not look at the sender, so From is usually the zero address.
type ChainSimulator struct {
	Caller chain.Caller
	From   common.Address
	Block  *big.Int
}

func (s ChainSimulator) Simulate(ctx context.Context, c callspec.CallSpec) ([]byte, error) {
	ret, err := s.Caller.CallContract(ctx, chain.CallMsg(s.From, c), s.Block)
	if err != nil {
		if reason, ok := chain.RevertReason(err); ok {
			return nil, fmt.Errorf("%s reverted: %s", c.Method(), reason)
		}
		return nil, fmt.Errorf("%s: %w", c.Method(), err)
	}
	return ret, nil
}
