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
	"math/big"
	"reflect"
	"strings"
	"testing"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/erigontech/rolesmod/callspec"
	"github.com/erigontech/rolesmod/chain"
	"github.com/erigontech/rolesmod/quote"
)

var (
	vault   = common.HexToAddress("0xBA12222222228d8Ba445958a75a0704d566BF2C8")
	queries = common.HexToAddress("0xE39B5e3B6D74016b2F6A9673D7d7493B6DF549d5")
	avatar  = common.HexToAddress("0x849D52316331967b6fF1198e5E32A0eB168D039d")

	wstETH = common.HexToAddress("0x7f39C581F595B53c5cb19bD0b3f8dA6c935E2Ca0")
	weth   = common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
	bpt    = common.HexToAddress("0x93d199263632a4EF4Bb438F1feB99e57b4b5f0BD")

	poolIDHash = common.HexToHash("0x93d199263632a4ef4bb438f1feb99e57b4b5f0bd0000000000000000000005c2")
)

type revertErr struct{}

func (revertErr) Error() string  { return "execution reverted" }
func (revertErr) ErrorCode() int { return 3 }

// fakeVault answers calls by selector.
type fakeVault map[[4]byte]func(data []byte) ([]byte, error)

func (f fakeVault) on(t *testing.T, m callspec.Method, values ...any) {
	t.Helper()
	ret, err := callspec.EncodeArguments(m.Outputs, values)
	require.NoError(t, err)
	f[m.Selector()] = func([]byte) ([]byte, error) { return ret, nil }
}

func (f fakeVault) caller(t *testing.T) chain.Caller {
	c := chain.NewMockCaller(gomock.NewController(t))
	c.EXPECT().CallContract(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
			if h, ok := f[[4]byte(msg.Data[:4])]; ok {
				return h(msg.Data[4:])
			}
			return nil, revertErr{}
		}).AnyTimes()
	return c
}

func composablePool(t *testing.T) fakeVault {
	f := fakeVault{}
	f.on(t, GetPoolMethod, bpt, uint8(0))
	f.on(t, GetPoolTokensMethod, []common.Address{wstETH, bpt, weth}, []*big.Int{big.NewInt(100), big.NewInt(1e6), big.NewInt(110)}, big.NewInt(1))
	f.on(t, getBptIndex, big.NewInt(1))
	return f
}

func TestLoadPool(t *testing.T) {
	ctx := context.Background()

	p, err := LoadPool(ctx, composablePool(t).caller(t), vault, poolIDHash)
	require.NoError(t, err)
	require.Equal(t, bpt, p.Address)
	require.Equal(t, ComposableStablePool, p.Kind)
	require.Equal(t, 1, p.BptIndex)
	require.Equal(t, []common.Address{wstETH, bpt, weth}, p.Tokens)

	weighted := fakeVault{}
	weighted.on(t, GetPoolMethod, bpt, uint8(2))
	weighted.on(t, GetPoolTokensMethod, []common.Address{wstETH, weth}, []*big.Int{big.NewInt(1), big.NewInt(2)}, big.NewInt(1))
	weighted.on(t, getNormalizedWeights, []*big.Int{big.NewInt(5e17), big.NewInt(5e17)})
	p, err = LoadPool(ctx, weighted.caller(t), vault, poolIDHash)
	require.NoError(t, err)
	require.Equal(t, WeightedPool, p.Kind)
	require.Equal(t, -1, p.BptIndex)

	meta := fakeVault{}
	meta.on(t, GetPoolMethod, bpt, uint8(2))
	meta.on(t, GetPoolTokensMethod, []common.Address{wstETH, weth}, []*big.Int{big.NewInt(1), big.NewInt(2)}, big.NewInt(1))
	p, err = LoadPool(ctx, meta.caller(t), vault, poolIDHash)
	require.NoError(t, err)
	require.Equal(t, MetaStablePool, p.Kind)
}

func TestLoadPoolTransportError(t *testing.T) {
	f := composablePool(t)
	boom := errors.New("connection refused")
	f[GetPoolTokensMethod.Selector()] = func([]byte) ([]byte, error) { return nil, boom }

	_, err := LoadPool(context.Background(), f.caller(t), vault, poolIDHash)
	require.ErrorIs(t, err, boom)
}

func TestSelectors(t *testing.T) {
	require.Equal(t, "exitPool(bytes32,address,address,(address[],uint256[],bytes,bool))", ExitPoolMethod.TypeString())
	require.Equal(t, "queryExit(bytes32,address,address,(address[],uint256[],bytes,bool))", QueryExitMethod.TypeString())
	require.Equal(t, "joinPool(bytes32,address,address,(address[],uint256[],bytes,bool))", JoinPoolMethod.TypeString())
	require.Equal(t, "queryJoin(bytes32,address,address,(address[],uint256[],bytes,bool))", QueryJoinMethod.TypeString())
}

// querying returns fixed query outputs and records the quoted call.
func querying(t *testing.T, m callspec.Method, bptAmount *big.Int, amounts ...*big.Int) (quote.Simulator, *callspec.CallSpec) {
	t.Helper()
	ret, err := callspec.EncodeArguments(m.Outputs, []any{bptAmount, amounts})
	require.NoError(t, err)

	var quoted callspec.CallSpec
	return quote.SimulatorFunc(func(_ context.Context, c callspec.CallSpec) ([]byte, error) {
		quoted = c
		return ret, nil
	}), &quoted
}

type request struct {
	sender, recipient common.Address
	assets            []common.Address
	limits            []*big.Int
	userData          []byte
}

// decodeRequest reads back the arguments of exitPool or joinPool. The
// request tuple decodes to a struct with the fields in declaration order.
func decodeRequest(t *testing.T, m callspec.Method, c *callspec.CallSpec) request {
	t.Helper()
	require.NotNil(t, c)

	args, err := callspec.DecodeArguments(m.Inputs, c.Data()[4:])
	require.NoError(t, err)

	r := reflect.ValueOf(args[3])
	return request{
		sender:    args[1].(common.Address),
		recipient: args[2].(common.Address),
		assets:    r.Field(0).Interface().([]common.Address),
		limits:    r.Field(1).Interface().([]*big.Int),
		userData:  r.Field(2).Interface().([]byte),
	}
}

func exitRequest(t *testing.T, c *callspec.CallSpec) request {
	t.Helper()
	return decodeRequest(t, ExitPoolMethod, c)
}

func joinUserData(t *testing.T, c *callspec.CallSpec) []byte {
	t.Helper()
	return decodeRequest(t, JoinPoolMethod, c).userData
}

func amountsString(amounts []*big.Int) string {
	parts := make([]string, len(amounts))
	for i, a := range amounts {
		parts[i] = a.String()
	}
	return strings.Join(parts, " ")
}

func TestExactBptSingleTokenExit(t *testing.T) {
	p := &Pool{ID: poolIDHash, Kind: ComposableStablePool, Tokens: []common.Address{wstETH, bpt, weth}, BptIndex: 1}
	b := Balancer{Vault: vault, Queries: queries, Avatar: avatar}

	plan, err := b.ExactBptSingleTokenExit(p, big.NewInt(1_000), weth)
	require.NoError(t, err)

	sim, quoted := querying(t, QueryExitMethod, big.NewInt(1_000), big.NewInt(0), big.NewInt(0), big.NewInt(1_050))
	res, err := quote.NewBuilder(sim, nil).Run(context.Background(), plan, quote.MustSlippage("0.01"))
	require.NoError(t, err)
	require.Equal(t, queries, quoted.To())
	require.Equal(t, vault, res.Call.To())
	require.Equal(t, []*big.Int{big.NewInt(1_039)}, res.Bounds) // floor(1050 * 0.99)

	req := exitRequest(t, res.Call)
	require.Equal(t, avatar, req.sender)
	require.Equal(t, avatar, req.recipient)
	require.Equal(t, []common.Address{wstETH, bpt, weth}, req.assets)
	require.Equal(t, "0 0 1039", amountsString(req.limits))

	// weth sits after the BPT, so its user data index is 1
	ud, err := callspec.DecodeArguments(kindAmountIndex, req.userData)
	require.NoError(t, err)
	require.Equal(t, "0 1000 1", amountsString([]*big.Int{ud[0].(*big.Int), ud[1].(*big.Int), ud[2].(*big.Int)}))
}

func TestExactBptProportionalExit(t *testing.T) {
	p := &Pool{ID: poolIDHash, Kind: WeightedPool, Tokens: []common.Address{wstETH, weth}, BptIndex: -1}
	b := Balancer{Vault: vault, Queries: queries, Avatar: avatar}

	plan, err := b.ExactBptProportionalExit(p, big.NewInt(500))
	require.NoError(t, err)

	sim, _ := querying(t, QueryExitMethod, big.NewInt(501), big.NewInt(200), big.NewInt(301))
	res, err := quote.NewBuilder(sim, nil).Run(context.Background(), plan, quote.MustSlippage("0.1"))
	require.NoError(t, err)

	req := exitRequest(t, res.Call)
	require.Equal(t, "180 270", amountsString(req.limits))

	ud, err := callspec.DecodeArguments(kindAmount, req.userData)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(exactBptInForTokensOut), ud[0])
}

func TestExactSingleTokenExitMismatch(t *testing.T) {
	p := &Pool{ID: poolIDHash, Kind: WeightedPool, Tokens: []common.Address{wstETH, weth}, BptIndex: -1}
	b := Balancer{Vault: vault, Queries: queries, Avatar: avatar}

	plan, err := b.ExactSingleTokenExit(p, weth, big.NewInt(1_000))
	require.NoError(t, err)

	sim, _ := querying(t, QueryExitMethod, big.NewInt(900), big.NewInt(0), big.NewInt(990))
	res, err := quote.NewBuilder(sim, nil).Run(context.Background(), plan, quote.MustSlippage("0.01"))
	require.ErrorIs(t, err, quote.ErrSimulationMismatch)
	require.Nil(t, res.Call)
}

func TestExactSingleTokenExitBoundsBpt(t *testing.T) {
	p := &Pool{ID: poolIDHash, Kind: WeightedPool, Tokens: []common.Address{wstETH, weth}, BptIndex: -1}
	b := Balancer{Vault: vault, Queries: queries, Avatar: avatar}

	plan, err := b.ExactSingleTokenExit(p, weth, big.NewInt(1_000))
	require.NoError(t, err)

	sim, _ := querying(t, QueryExitMethod, big.NewInt(900), big.NewInt(0), big.NewInt(1_001))
	res, err := quote.NewBuilder(sim, nil).Run(context.Background(), plan, quote.MustSlippage("0.005"))
	require.NoError(t, err)

	req := exitRequest(t, res.Call)
	require.Equal(t, "0 1000", amountsString(req.limits))

	ud, err := callspec.DecodeArguments(kindAmountsBound, req.userData)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(bptInForExactTokensOut), ud[0])
	require.Equal(t, big.NewInt(905), ud[2]) // ceil(900 * 1.005) = ceil(904.5)
}

func TestExactTokensJoin(t *testing.T) {
	p := &Pool{ID: poolIDHash, Kind: ComposableStablePool, Tokens: []common.Address{wstETH, bpt, weth}, BptIndex: 1}
	b := Balancer{Vault: vault, Queries: queries, Avatar: avatar}

	amountsIn := []*big.Int{big.NewInt(10), big.NewInt(0), big.NewInt(20)}
	plan, err := b.ExactTokensJoin(p, amountsIn)
	require.NoError(t, err)

	sim, _ := querying(t, QueryJoinMethod, big.NewInt(3_000), big.NewInt(10), big.NewInt(0), big.NewInt(20))
	res, err := quote.NewBuilder(sim, nil).Run(context.Background(), plan, quote.MustSlippage("0.01"))
	require.NoError(t, err)
	require.Equal(t, vault, res.Call.To())

	args, err := callspec.DecodeArguments(JoinPoolMethod.Inputs, res.Call.Data()[4:])
	require.NoError(t, err)
	require.Equal(t, avatar, args[1])

	ud, err := callspec.DecodeArguments(kindAmountsBound, joinUserData(t, res.Call))
	require.NoError(t, err)
	require.Equal(t, big.NewInt(exactTokensInForBptOut), ud[0])
	require.Equal(t, "10 20", amountsString(ud[1].([]*big.Int)))
	require.Equal(t, big.NewInt(2_970), ud[2])
}

func TestExactTokensJoinRejectsWrongLength(t *testing.T) {
	p := &Pool{ID: poolIDHash, Kind: WeightedPool, Tokens: []common.Address{wstETH, weth}, BptIndex: -1}
	_, err := Balancer{Vault: vault, Queries: queries, Avatar: avatar}.ExactTokensJoin(p, []*big.Int{big.NewInt(1)})
	require.ErrorIs(t, err, callspec.ErrInvalidArgument)
}

func TestTokenNotInPool(t *testing.T) {
	p := &Pool{ID: poolIDHash, Kind: WeightedPool, Tokens: []common.Address{wstETH, weth}, BptIndex: -1}
	_, err := Balancer{Vault: vault, Queries: queries, Avatar: avatar}.ExactBptSingleTokenExit(p, big.NewInt(1), bpt)
	require.ErrorIs(t, err, ErrTokenNotInPool)
}

func TestExactBptProportionalJoin(t *testing.T) {
	p := &Pool{ID: poolIDHash, Kind: ComposableStablePool, Tokens: []common.Address{wstETH, bpt, weth}, BptIndex: 1}
	b := Balancer{Vault: vault, Queries: queries, Avatar: avatar}

	plan, err := b.ExactBptProportionalJoin(p, big.NewInt(1_000))
	require.NoError(t, err)

	sim, quoted := querying(t, QueryJoinMethod, big.NewInt(1_000), big.NewInt(100), big.NewInt(0), big.NewInt(210))
	res, err := quote.NewBuilder(sim, nil).Run(context.Background(), plan, quote.MustSlippage("0.01"))
	require.NoError(t, err)

	q := decodeRequest(t, QueryJoinMethod, quoted)
	for _, limit := range q.limits {
		require.Zero(t, math.MaxBig256.Cmp(limit))
	}

	req := decodeRequest(t, JoinPoolMethod, res.Call)
	require.Equal(t, avatar, req.sender)
	require.Equal(t, []common.Address{wstETH, bpt, weth}, req.assets)
	require.Equal(t, "101 0 213", amountsString(req.limits)) // ceil(100 * 1.01), ceil(210 * 1.01)

	ud, err := callspec.DecodeArguments(kindAmount, req.userData)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(allTokensInForExactBptOut), ud[0])
	require.Equal(t, big.NewInt(1_000), ud[1])
}

func TestExactBptProportionalJoinMismatch(t *testing.T) {
	p := &Pool{ID: poolIDHash, Kind: WeightedPool, Tokens: []common.Address{wstETH, weth}, BptIndex: -1}
	plan, err := Balancer{Vault: vault, Queries: queries, Avatar: avatar}.ExactBptProportionalJoin(p, big.NewInt(1_000))
	require.NoError(t, err)

	sim, _ := querying(t, QueryJoinMethod, big.NewInt(990), big.NewInt(100), big.NewInt(210))
	res, err := quote.NewBuilder(sim, nil).Run(context.Background(), plan, quote.MustSlippage("0.01"))
	require.ErrorIs(t, err, quote.ErrSimulationMismatch)
	require.Nil(t, res.Call)
}

func TestExactSingleTokenJoin(t *testing.T) {
	p := &Pool{ID: poolIDHash, Kind: WeightedPool, Tokens: []common.Address{wstETH, weth}, BptIndex: -1}
	b := Balancer{Vault: vault, Queries: queries, Avatar: avatar}

	plan, err := b.ExactSingleTokenJoin(p, weth, big.NewInt(500))
	require.NoError(t, err)

	sim, _ := querying(t, QueryJoinMethod, big.NewInt(2_000), big.NewInt(0), big.NewInt(500))
	res, err := quote.NewBuilder(sim, nil).Run(context.Background(), plan, quote.MustSlippage("0.05"))
	require.NoError(t, err)

	req := decodeRequest(t, JoinPoolMethod, res.Call)
	require.Equal(t, "0 500", amountsString(req.limits))

	ud, err := callspec.DecodeArguments(kindAmountsBound, req.userData)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(exactTokensInForBptOut), ud[0])
	require.Equal(t, "0 500", amountsString(ud[1].([]*big.Int)))
	require.Equal(t, big.NewInt(1_900), ud[2])

	sim, _ = querying(t, QueryJoinMethod, big.NewInt(2_000), big.NewInt(0), big.NewInt(490))
	_, err = quote.NewBuilder(sim, nil).Run(context.Background(), plan, quote.MustSlippage("0.05"))
	require.ErrorIs(t, err, quote.ErrSimulationMismatch)
}

func TestExactSingleTokenProportionalJoin(t *testing.T) {
	p := &Pool{
		ID:       poolIDHash,
		Kind:     ComposableStablePool,
		Tokens:   []common.Address{wstETH, bpt, weth},
		Balances: []*big.Int{big.NewInt(100), big.NewInt(1e6), big.NewInt(110)},
		BptIndex: 1,
	}
	b := Balancer{Vault: vault, Queries: queries, Avatar: avatar}

	plan, err := b.ExactSingleTokenProportionalJoin(p, wstETH, big.NewInt(50))
	require.NoError(t, err)
	require.Equal(t, "50 0 55", amountsString(plan.Declared))

	sim, _ := querying(t, QueryJoinMethod, big.NewInt(1_000), big.NewInt(50), big.NewInt(0), big.NewInt(55))
	res, err := quote.NewBuilder(sim, nil).Run(context.Background(), plan, quote.MustSlippage("0.01"))
	require.NoError(t, err)

	req := decodeRequest(t, JoinPoolMethod, res.Call)
	require.Equal(t, "50 0 55", amountsString(req.limits))

	// user data skips the BPT slot
	ud, err := callspec.DecodeArguments(kindAmountsBound, req.userData)
	require.NoError(t, err)
	require.Equal(t, "50 55", amountsString(ud[1].([]*big.Int)))
	require.Equal(t, big.NewInt(990), ud[2])

	_, err = b.ExactSingleTokenProportionalJoin(p, bpt, big.NewInt(50))
	require.ErrorIs(t, err, callspec.ErrInvalidArgument)
}

func TestExactSingleTokenProportionalExit(t *testing.T) {
	p := &Pool{
		ID:       poolIDHash,
		Kind:     WeightedPool,
		Tokens:   []common.Address{wstETH, weth},
		Balances: []*big.Int{big.NewInt(300), big.NewInt(700)},
		BptIndex: -1,
	}
	b := Balancer{Vault: vault, Queries: queries, Avatar: avatar}

	plan, err := b.ExactSingleTokenProportionalExit(p, weth, big.NewInt(70))
	require.NoError(t, err)

	sim, _ := querying(t, QueryExitMethod, big.NewInt(500), big.NewInt(30), big.NewInt(70))
	res, err := quote.NewBuilder(sim, nil).Run(context.Background(), plan, quote.MustSlippage("0.02"))
	require.NoError(t, err)

	req := exitRequest(t, res.Call)
	require.Equal(t, "30 70", amountsString(req.limits))

	ud, err := callspec.DecodeArguments(kindAmountsBound, req.userData)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(bptInForExactTokensOut), ud[0])
	require.Equal(t, "30 70", amountsString(ud[1].([]*big.Int)))
	require.Equal(t, big.NewInt(510), ud[2])
}

func TestProportionalAmountsNeedBalances(t *testing.T) {
	b := Balancer{Vault: vault, Queries: queries, Avatar: avatar}

	p := &Pool{ID: poolIDHash, Kind: WeightedPool, Tokens: []common.Address{wstETH, weth}, BptIndex: -1}
	_, err := b.ExactSingleTokenProportionalExit(p, weth, big.NewInt(1))
	require.Error(t, err)

	p.Balances = []*big.Int{big.NewInt(1), big.NewInt(0)}
	_, err = b.ExactSingleTokenProportionalJoin(p, weth, big.NewInt(1))
	require.Error(t, err)
}

func swapQuoting(t *testing.T, amount *big.Int) (quote.Simulator, *callspec.CallSpec) {
	t.Helper()
	ret, err := callspec.EncodeArguments(QuerySwapMethod.Outputs, []any{amount})
	require.NoError(t, err)

	var quoted callspec.CallSpec
	return quote.SimulatorFunc(func(_ context.Context, c callspec.CallSpec) ([]byte, error) {
		quoted = c
		return ret, nil
	}), &quoted
}

type swapCall struct {
	kind              uint8
	assetIn, assetOut common.Address
	amount            *big.Int
	sender, recipient common.Address
	limit, deadline   *big.Int
}

func decodeSwap(t *testing.T, c *callspec.CallSpec) swapCall {
	t.Helper()
	require.NotNil(t, c)

	args, err := callspec.DecodeArguments(SwapMethod.Inputs, c.Data()[4:])
	require.NoError(t, err)

	s, f := reflect.ValueOf(args[0]), reflect.ValueOf(args[1])
	require.Equal(t, [32]byte(poolIDHash), s.Field(0).Interface())
	return swapCall{
		kind:      s.Field(1).Interface().(uint8),
		assetIn:   s.Field(2).Interface().(common.Address),
		assetOut:  s.Field(3).Interface().(common.Address),
		amount:    s.Field(4).Interface().(*big.Int),
		sender:    f.Field(0).Interface().(common.Address),
		recipient: f.Field(2).Interface().(common.Address),
		limit:     args[2].(*big.Int),
		deadline:  args[3].(*big.Int),
	}
}

func TestSwapSelectors(t *testing.T) {
	require.Equal(t, "swap((bytes32,uint8,address,address,uint256,bytes),(address,bool,address,bool),uint256,uint256)", SwapMethod.TypeString())
	require.Equal(t, [4]byte{0x52, 0xbb, 0xbe, 0x29}, SwapMethod.Selector())
	require.Equal(t, "querySwap((bytes32,uint8,address,address,uint256,bytes),(address,bool,address,bool))", QuerySwapMethod.TypeString())
}

func TestSwapPlanGivenIn(t *testing.T) {
	b := Balancer{Vault: vault, Queries: queries, Avatar: avatar}
	s := SingleSwap{PoolID: poolIDHash, Kind: GivenIn, AssetIn: wstETH, AssetOut: weth, Amount: big.NewInt(1_000)}

	plan, err := b.SwapPlan(s, big.NewInt(1_150))
	require.NoError(t, err)
	require.Equal(t, quote.MinOut, plan.Kind)

	sim, quoted := swapQuoting(t, big.NewInt(1_150))
	res, err := quote.NewBuilder(sim, nil).Run(context.Background(), plan, quote.MustSlippage("0.01"))
	require.NoError(t, err)
	require.Equal(t, queries, quoted.To())
	require.Equal(t, vault, res.Call.To())

	swap := decodeSwap(t, res.Call)
	require.Equal(t, uint8(GivenIn), swap.kind)
	require.Equal(t, wstETH, swap.assetIn)
	require.Equal(t, weth, swap.assetOut)
	require.Equal(t, big.NewInt(1_000), swap.amount)
	require.Equal(t, avatar, swap.sender)
	require.Equal(t, avatar, swap.recipient)
	require.Equal(t, big.NewInt(1_138), swap.limit) // floor(1150 * 0.99)
	require.Zero(t, math.MaxBig256.Cmp(swap.deadline))
}

func TestSwapPlanGivenOut(t *testing.T) {
	b := Balancer{Vault: vault, Queries: queries, Avatar: avatar}
	s := SingleSwap{PoolID: poolIDHash, Kind: GivenOut, AssetIn: wstETH, AssetOut: weth, Amount: big.NewInt(1_000), Deadline: big.NewInt(1_700_000_000)}

	plan, err := b.SwapPlan(s, big.NewInt(900))
	require.NoError(t, err)
	require.Equal(t, quote.MaxIn, plan.Kind)

	sim, _ := swapQuoting(t, big.NewInt(901))
	res, err := quote.NewBuilder(sim, nil).Run(context.Background(), plan, quote.MustSlippage("0.01"))
	require.NoError(t, err)

	swap := decodeSwap(t, res.Call)
	require.Equal(t, uint8(GivenOut), swap.kind)
	require.Equal(t, big.NewInt(911), swap.limit) // ceil(901 * 1.01)
	require.Equal(t, big.NewInt(1_700_000_000), swap.deadline)

	sim, _ = swapQuoting(t, big.NewInt(1_100))
	res, err = quote.NewBuilder(sim, nil).Run(context.Background(), plan, quote.MustSlippage("0.01"))
	require.ErrorIs(t, err, quote.ErrSimulationMismatch)
	require.Nil(t, res.Call)
}

func TestSwapPlanRejectsUnknownKind(t *testing.T) {
	_, err := Balancer{Vault: vault, Queries: queries, Avatar: avatar}.SwapPlan(SingleSwap{PoolID: poolIDHash, Kind: SwapKind(5), Amount: big.NewInt(1)}, big.NewInt(1))
	require.ErrorIs(t, err, callspec.ErrInvalidEnumValue)
}
