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
	"net/http"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/erigontech/rolesmod/logging"
	"github.com/erigontech/rolesmod/metrics"
)

var (
	RpcUrlFlag = cli.StringFlag{
		Name:    "rpc.url",
		Usage:   "JSON-RPC endpoint of the node",
		Value:   "http://localhost:8545",
		EnvVars: []string{"ROLESMOD_RPC_URL"},
	}

	ModuleFlag = cli.StringFlag{
		Name:  "module",
		Usage: "Address of the roles modifier",
	}

	RoleFlag = cli.StringFlag{
		Name:  "role",
		Usage: "Role to execute with, a number selects roles v1 and anything else a v2 role key. Prefix with key: for a v2 key made of digits",
	}

	AccountFlag = cli.StringFlag{
		Name:  "account",
		Usage: "Address checks and builds are made from, defaults to the address of --account.key",
	}

	AccountKeyFlag = cli.StringFlag{
		Name:    "account.key",
		Usage:   "Hex private key signing sent transactions",
		EnvVars: []string{"ROLESMOD_ACCOUNT_KEY"},
	}

	AvatarFlag = cli.StringFlag{
		Name:  "avatar",
		Usage: "Avatar the module executes for, receives the output of protocol operations",
	}

	AddressBookFlag = cli.StringFlag{
		Name:  "addressbook",
		Usage: "TOML or YAML file merged over the built-in contract addresses",
	}

	BlockFlag = cli.StringFlag{
		Name:  "block",
		Usage: "Block checks and quotes simulate against",
		Value: "latest",
	}

	ShouldRevertFlag = cli.BoolFlag{
		Name:  "should-revert",
		Usage: "Make the module revert when the inner call fails",
	}

	MultiSendFlag = cli.StringFlag{
		Name:  "multisend",
		Usage: "MultiSend contract batching calls, defaults to the addressbook entry",
	}

	ModuleMultiSendFlag = cli.BoolFlag{
		Name:  "multisend.module",
		Usage: "Read the MultiSend contract from roles v1 modules",
	}

	NonceFlag = cli.Uint64Flag{
		Name:  "nonce",
		Usage: "Override the pending nonce of the account",
	}

	PollAttemptsFlag = cli.Uint64Flag{
		Name:  "poll.attempts",
		Usage: "Receipt polls before a sent transaction times out",
		Value: 60,
	}

	PollIntervalFlag = cli.DurationFlag{
		Name:  "poll.interval",
		Usage: "Delay between receipt polls (default 2s)",
	}

	CallsFlag = cli.StringFlag{
		Name:  "calls",
		Usage: "JSON file with the calls to execute, instead of a call on the command line",
	}

	ValueFlag = cli.StringFlag{
		Name:  "value",
		Usage: "Native value of the command line call, in wei",
		Value: "0",
	}

	OperationFlag = cli.StringFlag{
		Name:  "operation",
		Usage: "Operation of the command line call (Call, DelegateCall)",
		Value: "Call",
	}

	SlippageFlag = cli.StringFlag{
		Name:  "slippage",
		Usage: "Accepted slippage as a fraction between 0 and 1",
		Value: "0.01",
	}

	ActionFlag = cli.StringFlag{
		Name:  "action",
		Usage: "What to do with a bounded operation (check, build, send)",
		Value: "check",
	}

	MetricsAddrFlag = cli.StringFlag{
		Name:  "metrics.addr",
		Usage: "Serve prometheus metrics on this address while the command runs",
	}
)

var callFlags = []cli.Flag{&CallsFlag, &ValueFlag, &OperationFlag}

var metricsServer *http.Server

func main() {
	app := cli.NewApp()
	app.Name = "rolesmod"
	app.Usage = "Check, build and send calls through a Zodiac roles modifier"

	app.Flags = append([]cli.Flag{
		&RpcUrlFlag,
		&ModuleFlag,
		&RoleFlag,
		&AccountFlag,
		&AccountKeyFlag,
		&AvatarFlag,
		&AddressBookFlag,
		&BlockFlag,
		&ShouldRevertFlag,
		&MultiSendFlag,
		&ModuleMultiSendFlag,
		&NonceFlag,
		&PollAttemptsFlag,
		&PollIntervalFlag,
		&MetricsAddrFlag,
	}, logging.Flags...)

	app.Commands = []*cli.Command{
		{
			Name:      "check",
			Usage:     "Simulate calls through the module and report whether the role allows them",
			ArgsUsage: "[<to> <signature> [args...]]",
			Flags:     callFlags,
			Action:    checkAction,
		},
		{
			Name:      "build",
			Usage:     "Build the unsigned transaction executing calls through the module",
			ArgsUsage: "[<to> <signature> [args...]]",
			Flags:     callFlags,
			Action:    buildAction,
		},
		{
			Name:      "send",
			Usage:     "Check, sign and send calls through the module, then wait for the receipt",
			ArgsUsage: "[<to> <signature> [args...]]",
			Flags:     callFlags,
			Action:    sendAction,
		},
		{
			Name:      "multisend",
			Usage:     "Print the MultiSend encoding of calls",
			ArgsUsage: "[<to> <signature> [args...]]",
			Flags:     callFlags,
			Action:    multiSendAction,
		},
		uniswapCommand,
		curveCommand,
		balancerExitCommand,
		balancerWithdrawCommand,
		balancerJoinCommand,
		balancerSwapCommand,
		addressesCommand,
	}

	app.Before = func(ctx *cli.Context) error {
		logger := logging.SetupLoggerCtx("rolesmod", ctx)
		if addr := ctx.String(MetricsAddrFlag.Name); addr != "" {
			metricsServer = metrics.Setup(addr, logger)
		}
		return nil
	}

	app.After = func(ctx *cli.Context) error {
		metrics.Shutdown(metricsServer)
		return nil
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
