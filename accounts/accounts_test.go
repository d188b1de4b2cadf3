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


package accounts_test

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"

	"github.com/erigontech/rolesmod/accounts"
)

// Well known hardhat account #0.
const (
	testKey     = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	testAddress = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
)

func TestFromHex(t *testing.T) {
	a, err := accounts.FromHex("operator", testKey)
	require.NoError(t, err)
	require.Equal(t, common.HexToAddress(testAddress), a.Address)

	got, err := accounts.GetAccount("operator")
	require.NoError(t, err)
	require.Same(t, a, got)
	require.NotNil(t, accounts.SigKey(a.Address))

	_, err = accounts.FromHex("broken", "0x1234")
	require.Error(t, err)

	_, err = accounts.GetAccount("nobody")
	require.ErrorIs(t, err, accounts.ErrUnknownAccount)
}

func TestNewAccountIsStable(t *testing.T) {
	a := accounts.NewAccount("fresh")
	require.Same(t, a, accounts.NewAccount("fresh"))
	require.NotEqual(t, common.Address{}, a.Address)
}

func TestTransactOptsSigns(t *testing.T) {
	a, err := accounts.FromHex("signer", testKey)
	require.NoError(t, err)

	chainID := big.NewInt(100)
	opts, err := a.TransactOpts(chainID)
	require.NoError(t, err)
	require.Equal(t, a.Address, opts.From)

	to := common.HexToAddress("0x1000000000000000000000000000000000000001")
	tx := types.NewTx(&types.DynamicFeeTx{ChainID: chainID, Nonce: 7, Gas: 21000, To: &to, Value: new(big.Int), GasTipCap: big.NewInt(1), GasFeeCap: big.NewInt(2)})
	signed, err := opts.Signer(a.Address, tx)
	require.NoError(t, err)

	sender, err := types.Sender(types.LatestSignerForChainID(chainID), signed)
	require.NoError(t, err)
	require.Equal(t, a.Address, sender)
}
