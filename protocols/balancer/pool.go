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
	"context"
	"errors"
	"fmt"
	"math/big"
	"slices"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"

	"github.com/erigontech/rolesmod/callspec"
	"github.com/erigontech/rolesmod/chain"
)

var ErrTokenNotInPool = errors.New("token not in pool")

type PoolKind uint8

const (
	WeightedPool PoolKind = iota
	ComposableStablePool
	StablePool
	MetaStablePool
)

func (k PoolKind) String() string {
	switch k {
	case WeightedPool:
		return "weighted"
	case ComposableStablePool:
		return "composableStable"
	case StablePool:
		return "stable"
	case MetaStablePool:
		return "metaStable"
	default:
		return fmt.Sprintf("PoolKind(%d)", uint8(k))
	}
}

// Pool is the vault's view of a pool. Tokens are sorted by address, as the
// vault expects them in every request. Composable stable pools register
// their own BPT as one of the tokens, at BptIndex.
type Pool struct {
	ID             common.Hash
	Address        common.Address
	Specialization uint8
	Kind           PoolKind
	Tokens         []common.Address
	Balances       []*big.Int
	BptIndex       int
}

func (p *Pool) TokenIndex(token common.Address) (int, error) {
	i := slices.Index(p.Tokens, token)
	if i < 0 {
		return 0, fmt.Errorf("%w: %s in %s", ErrTokenNotInPool, token, p.ID)
	}
	return i, nil
}

// userIndex maps a token index to its index in user data, which skips the
// BPT of composable stable pools.
func (p *Pool) userIndex(i int) int {
	if p.Kind == ComposableStablePool && p.BptIndex >= 0 && i > p.BptIndex {
		return i - 1
	}
	return i
}

// userAmounts drops the BPT slot from a per token amount list.
func (p *Pool) userAmounts(amounts []*big.Int) []*big.Int {
	if p.Kind != ComposableStablePool || p.BptIndex < 0 || p.BptIndex >= len(amounts) {
		return amounts
	}
	return slices.Delete(slices.Clone(amounts), p.BptIndex, p.BptIndex+1)
}

// proportionalAmounts scales the pool balances so that token idx gets
// exactly amount. The BPT slot of composable stable pools stays zero.
func (p *Pool) proportionalAmounts(idx int, amount *big.Int) ([]*big.Int, error) {
	if p.Kind == ComposableStablePool && idx == p.BptIndex {
		return nil, fmt.Errorf("%w: pool token %s is the BPT", callspec.ErrInvalidArgument, p.Tokens[idx])
	}
	if len(p.Balances) != len(p.Tokens) {
		return nil, fmt.Errorf("pool %s: %d balances for %d tokens", p.ID, len(p.Balances), len(p.Tokens))
	}
	ref := p.Balances[idx]
	if ref == nil || ref.Sign() == 0 {
		return nil, fmt.Errorf("pool %s: no balance of %s", p.ID, p.Tokens[idx])
	}

	out := p.zeros()
	for i, balance := range p.Balances {
		if p.Kind == ComposableStablePool && i == p.BptIndex {
			continue
		}
		out[i].Div(new(big.Int).Mul(balance, amount), ref)
	}
	return out, nil
}

func (p *Pool) zeros() []*big.Int {
	out := make([]*big.Int, len(p.Tokens))
	for i := range out {
		out[i] = new(big.Int)
	}
	return out
}

// LoadPool reads the pool registration and its tokens from the vault, then
// detects the pool kind by probing the pool contract.
func LoadPool(ctx context.Context, caller chain.Caller, vault common.Address, id common.Hash) (*Pool, error) {
	p := &Pool{ID: id, BptIndex: -1}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		out, err := read(gctx, caller, vault, GetPoolMethod, callspec.Args{"pool_id": id})
		if err != nil {
			return err
		}
		p.Address, _ = out[0].(common.Address)
		p.Specialization, _ = out[1].(uint8)
		return nil
	})
	g.Go(func() error {
		out, err := read(gctx, caller, vault, GetPoolTokensMethod, callspec.Args{"pool_id": id})
		if err != nil {
			return err
		}
		p.Tokens, _ = out[0].([]common.Address)
		p.Balances, _ = out[1].([]*big.Int)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load pool %s: %w", id, err)
	}
	if p.Address == (common.Address{}) {
		return nil, fmt.Errorf("load pool %s: not registered", id)
	}

	if err := p.detectKind(ctx, caller); err != nil {
		return nil, fmt.Errorf("load pool %s: %w", id, err)
	}
	return p, nil
}

func (p *Pool) detectKind(ctx context.Context, caller chain.Caller) error {
	if ok, _, err := probe(ctx, caller, p.Address, getNormalizedWeights); err != nil || ok {
		p.Kind = WeightedPool
		return err
	}

	ok, out, err := probe(ctx, caller, p.Address, getBptIndex)
	if err != nil {
		return err
	}
	if ok {
		idx, _ := out[0].(*big.Int)
		if idx == nil || !idx.IsInt64() || int(idx.Int64()) >= len(p.Tokens) {
			return fmt.Errorf("bpt index %v out of range", idx)
		}
		p.Kind, p.BptIndex = ComposableStablePool, int(idx.Int64())
		return nil
	}

	if ok, _, err = probe(ctx, caller, p.Address, inRecoveryMode); err != nil {
		return err
	}
	if ok {
		p.Kind = StablePool
	} else {
		p.Kind = MetaStablePool
	}
	return nil
}

// probe calls m on the pool, a revert or an undecodable answer means the
// pool does not implement it.
func probe(ctx context.Context, caller chain.Caller, pool common.Address, m callspec.Method) (bool, []any, error) {
	c, err := callspec.NewCallSpec(pool, m, nil, callspec.Binding{})
	if err != nil {
		return false, nil, err
	}
	ret, err := caller.CallContract(ctx, chain.CallMsg(common.Address{}, c), nil)
	if err != nil {
		if _, reverted := chain.RevertReason(err); reverted {
			return false, nil, nil
		}
		return false, nil, fmt.Errorf("%s: %w", m.Name, err)
	}
	out, err := c.DecodeOutputs(ret)
	if err != nil {
		return false, nil, nil
	}
	return true, out, nil
}

func read(ctx context.Context, caller chain.Caller, to common.Address, m callspec.Method, args callspec.Args) ([]any, error) {
	c, err := callspec.NewCallSpec(to, m, args, callspec.Binding{})
	if err != nil {
		return nil, err
	}
	return chain.Read(ctx, caller, common.Address{}, c, nil)
}
