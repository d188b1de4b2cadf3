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
	"errors"
	"fmt"
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ledgerwatch/log/v3"
	"github.com/urfave/cli/v2"

	"github.com/erigontech/rolesmod/accounts"
	"github.com/erigontech/rolesmod/addressbook"
	"github.com/erigontech/rolesmod/callspec"
	"github.com/erigontech/rolesmod/chain"
	"github.com/erigontech/rolesmod/multisend"
	"github.com/erigontech/rolesmod/roles"
)

// env is what every module command needs: the node, the addresses of the
// chain and the role the calls execute under.
type env struct {
	client  *ethclient.Client
	chainID *big.Int
	book    addressbook.Book
	gateway *roles.Gateway
	rc      roles.RoleContext
	account *accounts.Account
	block   *big.Int
	logger  log.Logger
}

func addressFlag(ctx *cli.Context, flag cli.StringFlag) (common.Address, error) {
	s := ctx.String(flag.Name)
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("--%s: invalid address %q", flag.Name, s)
	}
	return common.HexToAddress(s), nil
}

func loadBook(ctx *cli.Context) (addressbook.Book, error) {
	if path := ctx.String(AddressBookFlag.Name); path != "" {
		return addressbook.Load(path)
	}
	return addressbook.Default(), nil
}

func newEnv(ctx *cli.Context) (*env, error) {
	e := &env{logger: log.Root()}

	module, err := addressFlag(ctx, ModuleFlag)
	if err != nil {
		return nil, err
	}
	role, err := roles.ParseRole(ctx.String(RoleFlag.Name))
	if err != nil {
		return nil, fmt.Errorf("--%s: %w", RoleFlag.Name, err)
	}
	e.rc = roles.RoleContext{Module: module, Role: role, ShouldRevert: ctx.Bool(ShouldRevertFlag.Name)}

	if key := ctx.String(AccountKeyFlag.Name); key != "" {
		if e.account, err = accounts.FromHex("operator", key); err != nil {
			return nil, err
		}
		e.rc.Account = e.account.Address
	}
	if ctx.IsSet(AccountFlag.Name) {
		if e.rc.Account, err = addressFlag(ctx, AccountFlag); err != nil {
			return nil, err
		}
		if e.account != nil && e.account.Address != e.rc.Account {
			return nil, fmt.Errorf("--%s %s does not match the address of --%s", AccountFlag.Name, e.rc.Account, AccountKeyFlag.Name)
		}
	}
	if e.rc.Account == (common.Address{}) {
		return nil, fmt.Errorf("one of --%s or --%s is required", AccountFlag.Name, AccountKeyFlag.Name)
	}

	if e.block, err = chain.ParseBlock(ctx.String(BlockFlag.Name)); err != nil {
		return nil, err
	}
	if e.book, err = loadBook(ctx); err != nil {
		return nil, err
	}

	if e.client, err = chain.Dial(ctx.Context, ctx.String(RpcUrlFlag.Name)); err != nil {
		return nil, err
	}
	if e.chainID, err = e.client.ChainID(ctx.Context); err != nil {
		e.client.Close()
		return nil, fmt.Errorf("chain id: %w", err)
	}

	cfg := roles.DefaultConfig
	cfg.Block = e.block
	cfg.UseModuleMultiSend = ctx.Bool(ModuleMultiSendFlag.Name)
	cfg.PollAttempts = ctx.Uint64(PollAttemptsFlag.Name)
	if d := ctx.Duration(PollIntervalFlag.Name); d > 0 {
		cfg.PollInterval = d
	}
	if ctx.IsSet(NonceFlag.Name) {
		nonce := ctx.Uint64(NonceFlag.Name)
		cfg.Nonce = &nonce
	}
	if ctx.IsSet(MultiSendFlag.Name) {
		if cfg.MultiSend, err = addressFlag(ctx, MultiSendFlag); err != nil {
			e.client.Close()
			return nil, err
		}
	} else if ms, err := e.book.Address(e.chainID.Uint64(), addressbook.MultiSend); err == nil {
		cfg.MultiSend = ms
	}

	e.gateway = roles.New(e.client, cfg, e.logger)
	e.logger.Debug("Connected", "chainId", e.chainID, "module", module, "role", role, "account", e.rc.Account)
	return e, nil
}

func (e *env) Close() {
	e.client.Close()
}

func (e *env) transactOpts() (*bind.TransactOpts, error) {
	if e.account == nil {
		return nil, fmt.Errorf("--%s is required to send", AccountKeyFlag.Name)
	}
	return e.account.TransactOpts(e.chainID)
}

// lookup resolves a contract of the connected chain.
func (e *env) lookup(name string) (common.Address, error) {
	return e.book.Address(e.chainID.Uint64(), name)
}

func (e *env) check(ctx *cli.Context, calls ...callspec.CallSpec) error {
	res, err := e.gateway.Check(ctx.Context, e.rc, calls...)
	if err != nil {
		return err
	}
	return printJSON(checkJSON{Allowed: res.Allowed, Reason: res.Reason})
}

func (e *env) build(ctx *cli.Context, calls ...callspec.CallSpec) error {
	utx, err := e.gateway.Build(ctx.Context, e.rc, calls...)
	if err != nil {
		return err
	}
	return printJSON(buildJSON{Call: toCallJSON(utx.Call), Tx: utx.Transaction()})
}

func (e *env) send(ctx *cli.Context, calls ...callspec.CallSpec) error {
	opts, err := e.transactOpts()
	if err != nil {
		return err
	}
	opts.Context = ctx.Context

	outcome, err := e.gateway.Send(ctx.Context, e.rc, opts, calls...)
	if outcome != nil {
		if perr := printJSON(toOutcomeJSON(outcome)); perr != nil {
			return perr
		}
	}
	if err != nil {
		return err
	}
	return outcome.Err()
}

func (e *env) run(ctx *cli.Context, action string, calls ...callspec.CallSpec) error {
	switch action {
	case "check":
		return e.check(ctx, calls...)
	case "build":
		return e.build(ctx, calls...)
	case "send":
		return e.send(ctx, calls...)
	}
	return fmt.Errorf("--%s: unknown action %q", ActionFlag.Name, action)
}

func moduleAction(action string) cli.ActionFunc {
	return func(ctx *cli.Context) error {
		calls, err := callsFromCtx(ctx)
		if err != nil {
			return err
		}
		e, err := newEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()
		return e.run(ctx, action, calls...)
	}
}

var (
	checkAction = moduleAction("check")
	buildAction = moduleAction("build")
	sendAction  = moduleAction("send")
)

func multiSendAction(ctx *cli.Context) error {
	calls, err := callsFromCtx(ctx)
	if err != nil {
		return err
	}
	if len(calls) == 0 {
		return multisend.ErrEmptyBatch
	}

	out := multiSendJSON{Transactions: hexutil.Encode(multisend.Encode(calls...))}
	if ctx.IsSet(MultiSendFlag.Name) {
		target, err := addressFlag(ctx, MultiSendFlag)
		if err != nil {
			return err
		}
		c, err := multisend.New(target, calls...)
		if err != nil {
			return err
		}
		call := toCallJSON(c)
		out.Call = &call
	}
	return printJSON(out)
}

type callJSON struct {
	To        common.Address `json:"to"`
	Value     string         `json:"value"`
	Operation string         `json:"operation"`
	Method    string         `json:"method,omitempty"`
	Data      hexutil.Bytes  `json:"data"`
}

func toCallJSON(c callspec.CallSpec) callJSON {
	return callJSON{To: c.To(), Value: c.Value().Dec(), Operation: c.Operation().String(), Method: c.Method(), Data: c.Data()}
}

type checkJSON struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

type buildJSON struct {
	Call callJSON `json:"call"`
	Tx   any      `json:"tx"`
}

type outcomeJSON struct {
	Status   string      `json:"status"`
	TxHash   common.Hash `json:"txHash,omitempty"`
	Reason   string      `json:"reason,omitempty"`
	Attempts uint64      `json:"attempts,omitempty"`
	Block    *big.Int    `json:"block,omitempty"`
	GasUsed  uint64      `json:"gasUsed,omitempty"`
}

func toOutcomeJSON(o *roles.Outcome) outcomeJSON {
	out := outcomeJSON{Status: o.Status.String(), TxHash: o.TxHash, Reason: o.Reason, Attempts: o.Attempts}
	if o.Receipt != nil {
		out.Block, out.GasUsed = o.Receipt.BlockNumber, o.Receipt.GasUsed
	}
	return out
}

type multiSendJSON struct {
	Transactions string    `json:"transactions"`
	Call         *callJSON `json:"call,omitempty"`
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(os.Stdout, string(data))
	return err
}

var errNoAvatar = errors.New("--avatar is required for protocol operations")
