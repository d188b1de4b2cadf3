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

package chain

import (
	"context"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/erigontech/rolesmod/callspec"
)

//go:generate mockgen -destination=./caller_mock.go -package=chain . Caller

// Caller executes read only calls against a node.
type Caller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

func Dial(ctx context.Context, url string) (*ethclient.Client, error) {
	client, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return client, nil
}

// CallMsg is the message executing c from the given account.
func CallMsg(from common.Address, c callspec.CallSpec) ethereum.CallMsg {
	to := c.To()
	return ethereum.CallMsg{
		From:  from,
		To:    &to,
		Value: c.Value().ToBig(),
		Data:  c.Data(),
	}
}

// Read executes c as a static call and decodes its outputs.
func Read(ctx context.Context, caller Caller, from common.Address, c callspec.CallSpec, block *big.Int) ([]any, error) {
	ret, err := caller.CallContract(ctx, CallMsg(from, c), block)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.Method(), err)
	}
	return c.DecodeOutputs(ret)
}

// ParseBlock reads a block number or one of the latest, pending, safe and
// finalized tags. Latest is returned as nil.
func ParseBlock(s string) (*big.Int, error) {
	switch strings.ToLower(s) {
	case "", "latest":
		return nil, nil
	case "pending":
		return big.NewInt(int64(rpc.PendingBlockNumber)), nil
	case "safe":
		return big.NewInt(int64(rpc.SafeBlockNumber)), nil
	case "finalized":
		return big.NewInt(int64(rpc.FinalizedBlockNumber)), nil
	}

	if strings.HasPrefix(s, "0x") {
		n, ok := new(big.Int).SetString(s[2:], 16)
		if !ok {
			return nil, fmt.Errorf("invalid block %q", s)
		}
		return n, nil
	}

	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid block %q", s)
	}
	return new(big.Int).SetUint64(n), nil
}
