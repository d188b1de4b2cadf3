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


package main

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/urfave/cli/v2"

	"github.com/erigontech/rolesmod/addressbook"
	"github.com/erigontech/rolesmod/callspec"
	"github.com/erigontech/rolesmod/protocols/balancer"
	"github.com/erigontech/rolesmod/protocols/curve"
	"github.com/erigontech/rolesmod/protocols/erc20"
	"github.com/erigontech/rolesmod/protocols/uniswapv3"
	"github.com/erigontech/rolesmod/quote"
)

var (
	TokenInFlag = cli.StringFlag{
		Name:  "token.in",
		Usage: "Token paid by the avatar",
	}

	TokenOutFlag = cli.StringFlag{
		Name:  "token.out",
		Usage: "Token received by the avatar",
	}

	AmountInFlag = cli.StringFlag{
		Name:     "amount.in",
		Usage:    "Exact amount paid, in token units",
		Required: true,
	}

	ExpectedOutFlag = cli.StringFlag{
		Name:     "expected.out",
		Usage:    "Amount the caller expects to receive, the quote must match it",
		Required: true,
	}

	FeeFlag = cli.UintFlag{
		Name:  "fee",
		Usage: "Uniswap v3 fee tier in hundredths of a bip",
		Value: uniswapv3.DefaultFee,
	}

	PoolFlag = cli.StringFlag{
		Name:     "pool",
		Usage:    "Curve pool address",
		Required: true,
	}

	CoinInFlag = cli.Int64Flag{
		Name:  "i",
		Usage: "Index of the coin paid",
	}

	CoinOutFlag = cli.Int64Flag{
		Name:  "j",
		Usage: "Index of the coin received",
	}

	PoolIDFlag = cli.StringFlag{
		Name:     "pool.id",
		Usage:    "Balancer pool id",
		Required: true,
	}

	AmountOutFlag = cli.StringFlag{
		Name:     "amount.out",
		Usage:    "Exact amount received, in token units",
		Required: true,
	}

	JoinAmountFlag = cli.StringFlag{
		Name:  "amount.in",
		Usage: "Exact amount of --token.in paid, in token units",
	}

	BptOutFlag = cli.StringFlag{
		Name:  "bpt.out",
		Usage: "Exact amount of BPT minted by a proportional join",
	}

	ProportionalFlag = cli.BoolFlag{
		Name:  "proportional",
		Usage: "Move every other pool token too, in proportion to the pool balances",
	}

	RecoveryFlag = cli.BoolFlag{
		Name:  "recovery",
		Usage: "Exit a pool in recovery mode, no bounds apply",
	}
)

var boundedFlags = []cli.Flag{&SlippageFlag, &ActionFlag}

var uniswapCommand = &cli.Command{
	Name:  "uniswap-swap",
	Usage: "Swap an exact input on Uniswap v3, bounded by a quote",
	Flags: append([]cli.Flag{&TokenInFlag, &TokenOutFlag, &AmountInFlag, &ExpectedOutFlag, &FeeFlag}, boundedFlags...),
	Action: func(ctx *cli.Context) error {
		return withEnv(ctx, func(e *env, avatar common.Address) error {
			s := uniswapv3.Swap{Fee: uint32(ctx.Uint(FeeFlag.Name))}
			var err error
			if s.TokenIn, err = addressFlag(ctx, TokenInFlag); err != nil {
				return err
			}
			if s.TokenOut, err = addressFlag(ctx, TokenOutFlag); err != nil {
				return err
			}
			if s.AmountIn, err = amountFlag(ctx, AmountInFlag); err != nil {
				return err
			}
			expected, err := amountFlag(ctx, ExpectedOutFlag)
			if err != nil {
				return err
			}

			quoter, err := e.lookup(addressbook.UniswapV3Quoter)
			if err != nil {
				return err
			}
			router, err := e.lookup(addressbook.UniswapV3SwapRouter)
			if err != nil {
				return err
			}

			plan, err := uniswapv3.SwapPlan(quoter, router, avatar, s, expected)
			if err != nil {
				return err
			}
			return e.runBounded(ctx, avatar, plan, fixedApprovals(approval{token: s.TokenIn, spender: router, amount: s.AmountIn}))
		})
	},
}

var curveCommand = &cli.Command{
	Name:  "curve-swap",
	Usage: "Exchange coins on a Curve pool, bounded by get_dy",
	Flags: append([]cli.Flag{&PoolFlag, &CoinInFlag, &CoinOutFlag, &AmountInFlag, &ExpectedOutFlag, &TokenInFlag}, boundedFlags...),
	Action: func(ctx *cli.Context) error {
		return withEnv(ctx, func(e *env, avatar common.Address) error {
			x := curve.Exchange{I: ctx.Int64(CoinInFlag.Name), J: ctx.Int64(CoinOutFlag.Name)}
			var err error
			if x.Pool, err = addressFlag(ctx, PoolFlag); err != nil {
				return err
			}
			if x.Dx, err = amountFlag(ctx, AmountInFlag); err != nil {
				return err
			}
			expected, err := amountFlag(ctx, ExpectedOutFlag)
			if err != nil {
				return err
			}

			plan, err := curve.SwapPlan(x, expected)
			if err != nil {
				return err
			}

			var approvals []approval
			if ctx.IsSet(TokenInFlag.Name) {
				token, err := addressFlag(ctx, TokenInFlag)
				if err != nil {
					return err
				}
				approvals = append(approvals, approval{token: token, spender: x.Pool, amount: x.Dx})
			}
			return e.runBounded(ctx, avatar, plan, fixedApprovals(approvals...))
		})
	},
}

var balancerExitCommand = &cli.Command{
	Name:  "balancer-exit",
	Usage: "Burn an exact amount of BPT, for one token with --token.out or for all of them",
	Flags: append([]cli.Flag{&PoolIDFlag, &AmountInFlag, &TokenOutFlag, &RecoveryFlag}, boundedFlags...),
	Action: func(ctx *cli.Context) error {
		return withEnv(ctx, func(e *env, avatar common.Address) error {
			bptIn, err := amountFlag(ctx, AmountInFlag)
			if err != nil {
				return err
			}
			b, pool, err := e.loadBalancerPool(ctx, avatar)
			if err != nil {
				return err
			}

			if ctx.Bool(RecoveryFlag.Name) {
				call, err := b.RecoveryModeExit(pool, bptIn)
				if err != nil {
					return err
				}
				return e.run(ctx, ctx.String(ActionFlag.Name), call)
			}

			var plan quote.Plan
			if ctx.IsSet(TokenOutFlag.Name) {
				token, err := addressFlag(ctx, TokenOutFlag)
				if err != nil {
					return err
				}
				plan, err = b.ExactBptSingleTokenExit(pool, bptIn, token)
				if err != nil {
					return err
				}
			} else if plan, err = b.ExactBptProportionalExit(pool, bptIn); err != nil {
				return err
			}
			return e.runBounded(ctx, avatar, plan, nil)
		})
	},
}

var balancerWithdrawCommand = &cli.Command{
	Name:  "balancer-withdraw",
	Usage: "Withdraw an exact amount of one token, alone or with the others in pool proportion, burning bounded BPT",
	Flags: append([]cli.Flag{&PoolIDFlag, &TokenOutFlag, &AmountOutFlag, &ProportionalFlag}, boundedFlags...),
	Action: func(ctx *cli.Context) error {
		return withEnv(ctx, func(e *env, avatar common.Address) error {
			token, err := addressFlag(ctx, TokenOutFlag)
			if err != nil {
				return err
			}
			amountOut, err := amountFlag(ctx, AmountOutFlag)
			if err != nil {
				return err
			}
			b, pool, err := e.loadBalancerPool(ctx, avatar)
			if err != nil {
				return err
			}

			var plan quote.Plan
			if ctx.Bool(ProportionalFlag.Name) {
				plan, err = b.ExactSingleTokenProportionalExit(pool, token, amountOut)
			} else {
				plan, err = b.ExactSingleTokenExit(pool, token, amountOut)
			}
			if err != nil {
				return err
			}
			return e.runBounded(ctx, avatar, plan, nil)
		})
	},
}

var balancerJoinCommand = &cli.Command{
	Name:  "balancer-join",
	Usage: "Join a pool with an exact amount of --token.in, or mint exactly --bpt.out paying every token in proportion",
	Flags: append([]cli.Flag{&PoolIDFlag, &TokenInFlag, &JoinAmountFlag, &BptOutFlag, &ProportionalFlag}, boundedFlags...),
	Action: func(ctx *cli.Context) error {
		return withEnv(ctx, func(e *env, avatar common.Address) error {
			b, pool, err := e.loadBalancerPool(ctx, avatar)
			if err != nil {
				return err
			}

			var plan quote.Plan
			switch {
			case ctx.IsSet(BptOutFlag.Name):
				bptOut, err := amountFlag(ctx, BptOutFlag)
				if err != nil {
					return err
				}
				if plan, err = b.ExactBptProportionalJoin(pool, bptOut); err != nil {
					return err
				}
			case ctx.IsSet(TokenInFlag.Name):
				token, err := addressFlag(ctx, TokenInFlag)
				if err != nil {
					return err
				}
				amountIn, err := amountFlag(ctx, JoinAmountFlag)
				if err != nil {
					return err
				}
				if ctx.Bool(ProportionalFlag.Name) {
					plan, err = b.ExactSingleTokenProportionalJoin(pool, token, amountIn)
				} else {
					plan, err = b.ExactSingleTokenJoin(pool, token, amountIn)
				}
				if err != nil {
					return err
				}
			default:
				return fmt.Errorf("one of --%s or --%s is required", BptOutFlag.Name, TokenInFlag.Name)
			}
			return e.runBounded(ctx, avatar, plan, joinApprovals(pool, b.Vault))
		})
	},
}

var balancerSwapCommand = &cli.Command{
	Name:  "balancer-swap",
	Usage: "Swap an exact input through one Balancer pool, bounded by querySwap",
	Flags: append([]cli.Flag{&PoolIDFlag, &TokenInFlag, &TokenOutFlag, &AmountInFlag, &ExpectedOutFlag}, boundedFlags...),
	Action: func(ctx *cli.Context) error {
		return withEnv(ctx, func(e *env, avatar common.Address) error {
			s := balancer.SingleSwap{Kind: balancer.GivenIn}
			var err error
			if s.PoolID, err = poolIDFlag(ctx); err != nil {
				return err
			}
			if s.AssetIn, err = addressFlag(ctx, TokenInFlag); err != nil {
				return err
			}
			if s.AssetOut, err = addressFlag(ctx, TokenOutFlag); err != nil {
				return err
			}
			if s.Amount, err = amountFlag(ctx, AmountInFlag); err != nil {
				return err
			}
			expected, err := amountFlag(ctx, ExpectedOutFlag)
			if err != nil {
				return err
			}

			b, err := e.balancer(avatar)
			if err != nil {
				return err
			}
			plan, err := b.SwapPlan(s, expected)
			if err != nil {
				return err
			}
			return e.runBounded(ctx, avatar, plan, fixedApprovals(approval{token: s.AssetIn, spender: b.Vault, amount: s.Amount}))
		})
	},
}

func poolIDFlag(ctx *cli.Context) (common.Hash, error) {
	id := ctx.String(PoolIDFlag.Name)
	if len(common.FromHex(id)) != common.HashLength {
		return common.Hash{}, fmt.Errorf("--%s: invalid pool id %q", PoolIDFlag.Name, id)
	}
	return common.HexToHash(id), nil
}

func (e *env) balancer(avatar common.Address) (balancer.Balancer, error) {
	b := balancer.Balancer{Avatar: avatar}
	var err error
	if b.Vault, err = e.lookup(addressbook.BalancerVault); err != nil {
		return b, err
	}
	if b.Queries, err = e.lookup(addressbook.BalancerQueries); err != nil {
		return b, err
	}
	return b, nil
}

func (e *env) loadBalancerPool(ctx *cli.Context, avatar common.Address) (balancer.Balancer, *balancer.Pool, error) {
	id, err := poolIDFlag(ctx)
	if err != nil {
		return balancer.Balancer{}, nil, err
	}
	b, err := e.balancer(avatar)
	if err != nil {
		return b, nil, err
	}

	pool, err := balancer.LoadPool(ctx.Context, e.client, b.Vault, id)
	if err != nil {
		return b, nil, err
	}
	e.logger.Info("Loaded pool", "id", pool.ID, "kind", pool.Kind, "tokens", len(pool.Tokens))
	return b, pool, nil
}

type approval struct {
	token   common.Address
	spender common.Address
	amount  *big.Int
}

func fixedApprovals(approvals ...approval) func(*quote.Result) []approval {
	return func(*quote.Result) []approval {
		return approvals
	}
}

// joinApprovals lets the vault pull every pool token the join may take:
// the declared amounts of an exact tokens join or the bounds of a
// proportional one.
func joinApprovals(pool *balancer.Pool, vault common.Address) func(*quote.Result) []approval {
	return func(res *quote.Result) []approval {
		amounts := res.Checked
		if len(res.Bounds) == len(pool.Tokens) {
			amounts = res.Bounds
		}

		var approvals []approval
		for i, token := range pool.Tokens {
			if i == pool.BptIndex || i >= len(amounts) || amounts[i].Sign() == 0 {
				continue
			}
			approvals = append(approvals, approval{token: token, spender: vault, amount: amounts[i]})
		}
		return approvals
	}
}

func withEnv(ctx *cli.Context, f func(e *env, avatar common.Address) error) error {
	if !ctx.IsSet(AvatarFlag.Name) {
		return errNoAvatar
	}
	avatar, err := addressFlag(ctx, AvatarFlag)
	if err != nil {
		return err
	}
	e, err := newEnv(ctx)
	if err != nil {
		return err
	}
	defer e.Close()
	return f(e, avatar)
}

func amountFlag(ctx *cli.Context, flag cli.StringFlag) (*big.Int, error) {
	s := ctx.String(flag.Name)
	n, ok := new(big.Int).SetString(s, 0)
	if !ok || n.Sign() < 0 {
		return nil, fmt.Errorf("--%s: invalid amount %q", flag.Name, s)
	}
	return n, nil
}

// runBounded quotes plan as the avatar and hands the bounded call, after
// the approvals it needs, to the requested action.
func (e *env) runBounded(ctx *cli.Context, avatar common.Address, plan quote.Plan, approvals func(*quote.Result) []approval) error {
	slippage, err := quote.ParseSlippage(ctx.String(SlippageFlag.Name))
	if err != nil {
		return err
	}

	builder := quote.NewBuilder(quote.ChainSimulator{Caller: e.client, From: avatar, Block: e.block}, e.logger)
	res, err := builder.Run(ctx.Context, plan, slippage)
	if err != nil {
		return err
	}
	e.logger.Info("Bounded operation built", "method", res.Call.Method(), "simulated", res.Simulated, "bounds", res.Bounds, "slippage", slippage)

	var calls []callspec.CallSpec
	if approvals != nil {
		for _, a := range approvals(res) {
			approve, err := erc20.ApproveIfNeeded(ctx.Context, e.client, avatar, a.token, a.spender, a.amount)
			if err != nil {
				return err
			}
			calls = append(calls, approve...)
		}
	}
	calls = append(calls, *res.Call)
	return e.run(ctx, ctx.String(ActionFlag.Name), calls...)
}
