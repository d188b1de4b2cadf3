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

package roles

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ledgerwatch/log/v3"
	"github.com/shopspring/decimal"

	"github.com/erigontech/rolesmod/callspec"
	"github.com/erigontech/rolesmod/chain"
	"github.com/erigontech/rolesmod/multisend"
)

type Config struct {
	// MultiSend batches more than one call.
	MultiSend common.Address
	// UseModuleMultiSend reads the multisend address from v1 modules,
	// which are bound to the contract they were deployed with.
	UseModuleMultiSend bool

	// Block the check simulates against, nil for latest.
	Block *big.Int

	PollInterval time.Duration
	PollAttempts uint64

	FeeMultiplier      decimal.Decimal
	GasLimitMultiplier decimal.Decimal
	MaxPriorityFee     *big.Int
	MaxFeePerGas       *big.Int
	// Nonce overrides the pending nonce of the account.
	Nonce *uint64
}

var DefaultConfig = Config{
	PollInterval:       2 * time.Second,
	PollAttempts:       60,
	FeeMultiplier:      decimal.RequireFromString("1.2"),
	GasLimitMultiplier: decimal.RequireFromString("1.1"),
}

// RoleContext identifies who executes a call, and under which role.
type RoleContext struct {
	Module       common.Address
	Role         Role
	Account      common.Address
	ShouldRevert bool
}

// UnsignedTx is the output of Build: the wrapped call and a dynamic fee
// transaction ready for an external signer.
type UnsignedTx struct {
	Call callspec.CallSpec
	Tx   *types.DynamicFeeTx
}

func (u *UnsignedTx) Transaction() *types.Transaction {
	return types.NewTx(u.Tx)
}

// Gateway routes calls through a roles modifier.
type Gateway struct {
	client ChainClient
	cfg    Config
	waiter Waiter
	logger log.Logger
}

func New(client ChainClient, cfg Config, logger log.Logger) *Gateway {
	if logger == nil {
		logger = log.Root()
	}
	if cfg.FeeMultiplier.IsZero() {
		cfg.FeeMultiplier = DefaultConfig.FeeMultiplier
	}
	if cfg.GasLimitMultiplier.IsZero() {
		cfg.GasLimitMultiplier = DefaultConfig.GasLimitMultiplier
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = DefaultConfig.PollInterval
	}
	if cfg.PollAttempts == 0 {
		cfg.PollAttempts = DefaultConfig.PollAttempts
	}

	return &Gateway{
		client: client,
		cfg:    cfg,
		waiter: ReceiptWaiter(client, cfg.PollInterval, cfg.PollAttempts, logger),
		logger: logger,
	}
}

// WithWaiter replaces the receipt waiter used by Send.
func (g *Gateway) WithWaiter(w Waiter) *Gateway {
	g.waiter = w
	return g
}

// Wrap batches calls if needed and wraps the result into
// execTransactionWithRole.
func (g *Gateway) Wrap(ctx context.Context, rc RoleContext, calls ...callspec.CallSpec) (callspec.CallSpec, error) {
	target, err := g.multiSendFor(ctx, rc, len(calls))
	if err != nil {
		return callspec.CallSpec{}, err
	}

	inner, err := multisend.MultiOrOne(target, calls...)
	if err != nil {
		return callspec.CallSpec{}, err
	}

	return ExecTransactionWithRole(rc.Module, rc.Role, inner, rc.ShouldRevert)
}

var multiSendGetter = callspec.Method{
	Name:    "multisend",
	Outputs: callspec.Signature{{Name: "multisend", Type: callspec.Primitive("address")}},
}

func (g *Gateway) multiSendFor(ctx context.Context, rc RoleContext, n int) (common.Address, error) {
	if n < 2 {
		return g.cfg.MultiSend, nil
	}

	if g.cfg.UseModuleMultiSend && VersionOf(rc.Role) == V1 {
		getter, err := callspec.NewCallSpec(rc.Module, multiSendGetter, nil, callspec.Binding{})
		if err != nil {
			return common.Address{}, err
		}
		out, err := chain.Read(ctx, g.client, rc.Account, getter, nil)
		if err == nil {
			if addr, ok := out[0].(common.Address); ok && addr != (common.Address{}) {
				return addr, nil
			}
		}
		g.logger.Debug("Module multisend not readable, using configured one", "module", rc.Module, "err", err)
	}

	if g.cfg.MultiSend == (common.Address{}) {
		return common.Address{}, ErrNoMultiSend
	}
	return g.cfg.MultiSend, nil
}

// Check simulates the wrapped calls from the account. Reverts and a false
// success flag are reported as a denied CheckResult, only node failures
// are errors. Check never changes chain state.
func (g *Gateway) Check(ctx context.Context, rc RoleContext, calls ...callspec.CallSpec) (CheckResult, error) {
	call, err := g.Wrap(ctx, rc, calls...)
	if err != nil {
		return CheckResult{}, err
	}
	return g.check(ctx, rc, call)
}

func (g *Gateway) check(ctx context.Context, rc RoleContext, call callspec.CallSpec) (CheckResult, error) {
	ret, err := g.client.CallContract(ctx, chain.CallMsg(rc.Account, call), g.cfg.Block)
	if err != nil {
		reason, reverted := chain.RevertReason(err)
		if !reverted {
			return CheckResult{}, fmt.Errorf("check: %w", err)
		}
		checkDenied.Inc()
		g.logger.Info("Check denied", "module", rc.Module, "role", rc.Role, "account", rc.Account, "reason", reason)
		return CheckResult{Reason: reason}, nil
	}

	out, err := call.DecodeOutputs(ret)
	if err != nil {
		return CheckResult{}, fmt.Errorf("check: %w", err)
	}
	if success, _ := out[0].(bool); !success {
		checkDenied.Inc()
		g.logger.Info("Check denied", "module", rc.Module, "role", rc.Role, "account", rc.Account, "reason", "inner call failed")
		return CheckResult{Reason: "inner call failed"}, nil
	}

	checkAllowed.Inc()
	return CheckResult{Allowed: true}, nil
}

// Build produces the unsigned transaction executing calls through the
// module. Fees follow tip + baseFee*FeeMultiplier, the gas limit is the
// estimate times GasLimitMultiplier.
func (g *Gateway) Build(ctx context.Context, rc RoleContext, calls ...callspec.CallSpec) (*UnsignedTx, error) {
	call, err := g.Wrap(ctx, rc, calls...)
	if err != nil {
		return nil, err
	}
	return g.build(ctx, rc, call)
}

func (g *Gateway) build(ctx context.Context, rc RoleContext, call callspec.CallSpec) (*UnsignedTx, error) {
	chainID, err := g.client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("chain id: %w", err)
	}

	tip := g.cfg.MaxPriorityFee
	if tip == nil {
		if tip, err = g.client.SuggestGasTipCap(ctx); err != nil {
			return nil, fmt.Errorf("suggest tip: %w", err)
		}
	}

	feeCap := g.cfg.MaxFeePerGas
	if feeCap == nil {
		head, err := g.client.HeaderByNumber(ctx, nil)
		if err != nil {
			return nil, fmt.Errorf("latest header: %w", err)
		}
		if head.BaseFee == nil {
			return nil, ErrBaseFeeNotAvailable
		}
		feeCap = new(big.Int).Add(tip, mulFloor(head.BaseFee, g.cfg.FeeMultiplier))
	}

	estimate, err := g.client.EstimateGas(ctx, chain.CallMsg(rc.Account, call))
	if err != nil {
		return nil, fmt.Errorf("estimate gas: %w", err)
	}
	gas := mulFloor(new(big.Int).SetUint64(estimate), g.cfg.GasLimitMultiplier).Uint64()

	var nonce uint64
	if g.cfg.Nonce != nil {
		nonce = *g.cfg.Nonce
	} else if nonce, err = g.client.PendingNonceAt(ctx, rc.Account); err != nil {
		return nil, fmt.Errorf("pending nonce: %w", err)
	}

	to := call.To()
	return &UnsignedTx{
		Call: call,
		Tx: &types.DynamicFeeTx{
			ChainID:   chainID,
			Nonce:     nonce,
			GasTipCap: tip,
			GasFeeCap: feeCap,
			Gas:       gas,
			To:        &to,
			Value:     new(big.Int),
			Data:      call.Data(),
		},
	}, nil
}

// Send checks, builds, signs and broadcasts the calls once, then waits
// for the receipt. A denied check returns a Denied outcome without
// signing anything. The transaction is never resubmitted. An empty
// rc.Account defaults to opts.From, any other account must match it.
func (g *Gateway) Send(ctx context.Context, rc RoleContext, opts *bind.TransactOpts, calls ...callspec.CallSpec) (*Outcome, error) {
	if opts == nil || opts.Signer == nil {
		return nil, ErrMissingTransactOpts
	}
	if rc.Account == (common.Address{}) {
		rc.Account = opts.From
	} else if rc.Account != opts.From {
		return nil, fmt.Errorf("%w: %s != %s", ErrAccountMismatch, rc.Account, opts.From)
	}

	call, err := g.Wrap(ctx, rc, calls...)
	if err != nil {
		return nil, err
	}

	res, err := g.check(ctx, rc, call)
	if err != nil {
		return nil, err
	}
	if !res.Allowed {
		sendTotal(Denied).Inc()
		return &Outcome{Status: Denied, Reason: res.Reason}, nil
	}

	utx, err := g.build(ctx, rc, call)
	if err != nil {
		return nil, err
	}

	signed, err := opts.Signer(opts.From, utx.Transaction())
	if err != nil {
		return nil, fmt.Errorf("sign: %w", err)
	}

	if err := g.client.SendTransaction(ctx, signed); err != nil {
		return nil, fmt.Errorf("send transaction: %w", err)
	}
	g.logger.Info("Transaction sent", "txHash", signed.Hash(), "nonce", signed.Nonce(), "module", rc.Module, "role", rc.Role)

	outcome, err := g.waiter.Await(ctx, signed.Hash())
	if outcome != nil {
		sendTotal(outcome.Status).Inc()
	}
	if err != nil {
		return outcome, err
	}

	g.logger.Info("Transaction finished", "txHash", signed.Hash(), "status", outcome.Status)
	return outcome, nil
}

func mulFloor(x *big.Int, m decimal.Decimal) *big.Int {
	return decimal.NewFromBigInt(x, 0).Mul(m).Floor().BigInt()
}
