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

package multisend

import (
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/erigontech/rolesmod/callspec"
)

var (
	auraBooster = common.HexToAddress("0xA57b8d98dAE62B26Ec3bcC4a365338157060B234")
	token       = common.HexToAddress("0xba100000625a3754423978a60c9317c58a424e3D")
	multiSend   = common.HexToAddress("0x40A2aCCbd92BCA938b02010E17A5b8929b49130D")
)

const approve123 = "095ea7b3" +
	"000000000000000000000000a57b8d98dae62b26ec3bcc4a365338157060b234" +
	"000000000000000000000000000000000000000000000000000000000000007b"

func rawCall(t *testing.T, to common.Address, data string, opts ...callspec.Option) callspec.CallSpec {
	t.Helper()
	c, err := callspec.NewRawCallSpec(to, common.FromHex(data), opts...)
	require.NoError(t, err)
	return c
}

func TestEncodeSingleApprove(t *testing.T) {
	c := rawCall(t, auraBooster, approve123)

	expected := "00" +
		"a57b8d98dae62b26ec3bcc4a365338157060b234" +
		strings.Repeat("00", 32) +
		"0000000000000000000000000000000000000000000000000000000000000044" +
		approve123

	require.Equal(t, "0x"+expected, hexutil.Encode(Encode(c)))
}

func TestEncodeValueAndOperation(t *testing.T) {
	c := rawCall(t, token, "0x", callspec.WithValue(uint256.NewInt(256)), callspec.WithOperation(callspec.DelegateCall))

	out := Encode(c)
	require.Len(t, out, headerLen)
	require.Equal(t, byte(1), out[0])
	require.Equal(t, token.Bytes(), out[1:21])
	require.Equal(t, common.LeftPadBytes([]byte{1, 0}, 32), out[21:53])
	require.Equal(t, make([]byte, 32), out[53:85])
}

func TestEncodeIsAssociative(t *testing.T) {
	a := rawCall(t, auraBooster, approve123)
	b := rawCall(t, token, "0xdeadbeef", callspec.WithValue(uint256.NewInt(1)))
	c := rawCall(t, multiSend, "0x", callspec.WithOperation(callspec.DelegateCall))

	whole := Encode(a, b, c)
	require.Equal(t, whole, append(Encode(a, b), Encode(c)...))
	require.Equal(t, whole, append(Encode(a), Encode(b, c)...))
	require.Empty(t, Encode())
}

func TestMultiOrOne(t *testing.T) {
	a := rawCall(t, auraBooster, approve123)
	b := rawCall(t, token, "0xdeadbeef")

	_, err := MultiOrOne(multiSend)
	require.ErrorIs(t, err, ErrEmptyBatch)

	one, err := MultiOrOne(multiSend, a)
	require.NoError(t, err)
	require.Equal(t, a, one)

	batch, err := MultiOrOne(multiSend, a, b)
	require.NoError(t, err)
	require.Equal(t, multiSend, batch.To())
	require.Equal(t, callspec.DelegateCall, batch.Operation())
	require.True(t, batch.Value().IsZero())

	data := batch.Data()
	require.Equal(t, "0x8d80ff0a", hexutil.Encode(data[:4]))

	values, err := callspec.DecodeArguments(Method.Inputs, data[4:])
	require.NoError(t, err)
	require.Equal(t, Encode(a, b), values[0])
}
