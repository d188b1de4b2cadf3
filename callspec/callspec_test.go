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

package callspec

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

var (
	auraBooster = common.HexToAddress("0xA57b8d98dAE62B26Ec3bcC4a365338157060B234")
	token       = common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F")
	avatar      = common.HexToAddress("0x0000000000000000000000000000000000000a11")
)

var approve = Method{
	Name:   "approve",
	Inputs: Signature{{"spender", Primitive("address")}, {"amount", Primitive("uint256")}},
}

const approve123 = "0x095ea7b3" +
	"000000000000000000000000a57b8d98dae62b26ec3bcc4a365338157060b234" +
	"000000000000000000000000000000000000000000000000000000000000007b"

func TestEncodeApprove(t *testing.T) {
	for _, amount := range []any{123, uint64(123), big.NewInt(123), uint256.NewInt(123), "0x7b", "123"} {
		data, err := approve.Encode(Args{"spender": auraBooster, "amount": amount}, Binding{})
		require.NoError(t, err)
		require.Equal(t, approve123, hexutil.Encode(data), "%T", amount)
	}

	data, err := approve.Encode(Args{"spender": auraBooster.Hex(), "amount": 123}, Binding{})
	require.NoError(t, err)
	require.Equal(t, approve123, hexutil.Encode(data))
}

func TestCompileArgs(t *testing.T) {
	poolID := common.HexToHash("0x32296969ef14eb0c6d29669c550d4a0449130230000200000000000000000080")

	request := Args{
		"assets":          []common.Address{token, auraBooster},
		"min_amounts_out": []*big.Int{big.NewInt(1), big.NewInt(2)},
		"user_data":       []byte{0x01},
	}

	exit := Method{Name: "exitPool", Inputs: exitPoolInputs}.WithFixed(FixedArguments{
		"sender":              Avatar,
		"recipient":           Avatar,
		"to_internal_balance": Literal(false),
	})

	t.Run("nested args", func(t *testing.T) {
		values, err := CompileArgs(exit.Inputs, Args{"pool_id": poolID, "request": request}, exit.Fixed, BindTo(avatar))
		require.NoError(t, err)
		require.Len(t, values, 4)
		require.Equal(t, avatar, values[1])
		require.Equal(t, avatar, values[2])

		tuple, ok := values[3].([]any)
		require.True(t, ok)
		require.Len(t, tuple, 4)
		require.Equal(t, false, tuple[3])
	})

	t.Run("flat args", func(t *testing.T) {
		flat := Args{"pool_id": poolID}
		for k, v := range request {
			flat[k] = v
		}

		values, err := CompileArgs(exit.Inputs, flat, exit.Fixed, BindTo(avatar))
		require.NoError(t, err)

		nested, err := CompileArgs(exit.Inputs, Args{"pool_id": poolID, "request": request}, exit.Fixed, BindTo(avatar))
		require.NoError(t, err)
		require.Equal(t, nested, values)

		data, err := EncodeCalldata(exit.Name, exit.Inputs, values)
		require.NoError(t, err)

		sel := exit.Selector()
		require.Equal(t, sel[:], data[:4])
	})

	t.Run("missing leaf", func(t *testing.T) {
		_, err := CompileArgs(exit.Inputs, Args{"pool_id": poolID, "request": Args{"assets": request["assets"]}}, exit.Fixed, BindTo(avatar))
		require.ErrorIs(t, err, ErrMissingArgument)
		require.ErrorContains(t, err, "request.min_amounts_out")
	})

	t.Run("unresolved avatar", func(t *testing.T) {
		_, err := CompileArgs(exit.Inputs, Args{"pool_id": poolID, "request": request}, exit.Fixed, Binding{})
		require.ErrorIs(t, err, ErrUnresolvedBinding)
	})

	t.Run("fixed wins over args", func(t *testing.T) {
		values, err := CompileArgs(approve.Inputs, Args{"spender": token, "amount": 1},
			FixedArguments{"spender": Literal(auraBooster)}, Binding{})
		require.NoError(t, err)
		require.Equal(t, auraBooster, values[0])
	})

	t.Run("unknown fixed name", func(t *testing.T) {
		_, err := CompileArgs(approve.Inputs, Args{"spender": token, "amount": 1},
			FixedArguments{"owner": Avatar}, BindTo(avatar))
		require.ErrorIs(t, err, ErrUnknownFixedArgument)
	})
}

func TestEncodeStaticTupleMatchesFlatEncoding(t *testing.T) {
	flat := Signature{{"to", Primitive("address")}, {"amount", Primitive("uint256")}}
	nested := Signature{{"p", Tuple(Arg{"to", Primitive("address")}, Arg{"amount", Primitive("uint256")})}}

	a, err := EncodeArguments(flat, []any{token, 7})
	require.NoError(t, err)
	b, err := EncodeArguments(nested, []any{[]any{token, 7}})
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestEncodeDecodeDynamic(t *testing.T) {
	sig := Signature{{"amounts", Primitive("uint256[]")}, {"memo", Primitive("string")}, {"key", Primitive("bytes32")}}

	data, err := EncodeArguments(sig, []any{[]int{1, 2, 3}, "hi", common.HexToHash("0x01")})
	require.NoError(t, err)

	values, err := DecodeArguments(sig, data)
	require.NoError(t, err)
	require.Equal(t, []*big.Int{big.NewInt(1), big.NewInt(2), big.NewInt(3)}, values[0])
	require.Equal(t, "hi", values[1])
	require.Equal(t, [32]byte(common.HexToHash("0x01")), values[2])
}

func TestEncodeRejectsBadValues(t *testing.T) {
	tests := []struct {
		name  string
		sig   Signature
		value any
	}{
		{"uint8 overflow", Signature{{"x", Primitive("uint8")}}, 256},
		{"negative uint", Signature{{"x", Primitive("uint256")}}, -1},
		{"int8 overflow", Signature{{"x", Primitive("int8")}}, 128},
		{"bad address", Signature{{"x", Primitive("address")}}, "0x1234"},
		{"short bytes32", Signature{{"x", Primitive("bytes32")}}, []byte{1}},
		{"bool from int", Signature{{"x", Primitive("bool")}}, 1},
		{"fixed array length", Signature{{"x", FixedArrayOf(Primitive("uint256"), 2)}}, []int{1}},
		{"tuple arity", Signature{{"x", Tuple(Arg{"a", Primitive("bool")})}}, []any{true, false}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := EncodeArguments(tt.sig, []any{tt.value})
			require.ErrorIs(t, err, ErrInvalidArgument)
		})
	}
}

func TestNewCallSpec(t *testing.T) {
	c, err := NewCallSpec(token, approve, Args{"spender": auraBooster, "amount": 123}, Binding{},
		WithValue(uint256.NewInt(5)))
	require.NoError(t, err)
	require.Equal(t, token, c.To())
	require.Equal(t, uint64(5), c.Value().Uint64())
	require.Equal(t, Call, c.Operation())
	require.Equal(t, approve123, hexutil.Encode(c.Data()))
	require.Equal(t, "approve", c.Method())

	// accessors hand out copies
	c.Data()[0] = 0xff
	c.Value().SetUint64(9)
	require.Equal(t, approve123, hexutil.Encode(c.Data()))
	require.Equal(t, uint64(5), c.Value().Uint64())

	_, err = NewCallSpec(common.Address{}, approve, Args{"spender": auraBooster, "amount": 1}, Binding{})
	require.ErrorIs(t, err, ErrZeroTarget)

	_, err = NewCallSpec(token, approve, Args{"spender": auraBooster, "amount": 1}, Binding{}, WithOperation(Operation(2)))
	require.ErrorIs(t, err, ErrInvalidEnumValue)

	_, err = NewCallSpec(token, Method{Name: "f", Inputs: Signature{{"a", Primitive("bool")}, {"a", Primitive("bool")}}}, Args{"a": true}, Binding{})
	require.ErrorIs(t, err, ErrInvalidSignature)
}

func TestDecodeOutputs(t *testing.T) {
	balanceOf := Method{
		Name:    "balanceOf",
		Inputs:  Signature{{"account", Primitive("address")}},
		Outputs: Signature{{"balance", Primitive("uint256")}},
	}

	c, err := NewCallSpec(token, balanceOf, Args{"account": avatar}, Binding{})
	require.NoError(t, err)

	out, err := c.DecodeOutputs(common.LeftPadBytes([]byte{0x2a}, 32))
	require.NoError(t, err)
	require.Equal(t, big.NewInt(42), out[0])

	c, err = NewCallSpec(token, approve, Args{"spender": auraBooster, "amount": 1}, Binding{})
	require.NoError(t, err)
	_, err = c.DecodeOutputs(nil)
	require.ErrorIs(t, err, ErrInvalidSignature)
}

func TestOperationEnum(t *testing.T) {
	require.NoError(t, Call.Validate())
	require.NoError(t, DelegateCall.Validate())
	require.ErrorIs(t, Operation(7).Validate(), ErrInvalidEnumValue)

	op, err := ParseOperation("DelegateCall")
	require.NoError(t, err)
	require.Equal(t, DelegateCall, op)

	_, err = ParseOperation("staticcall")
	require.ErrorIs(t, err, ErrInvalidEnumValue)
}

func TestMethodABI(t *testing.T) {
	m := approve
	m.Outputs = Signature{{"ok", Primitive("bool")}}

	am, err := m.ABI()
	require.NoError(t, err)
	sel := m.Selector()
	require.Equal(t, sel[:], am.ID)
	require.Equal(t, "approve(address,uint256)", am.Sig)

	packed, err := am.Inputs.Pack(auraBooster, big.NewInt(123))
	require.NoError(t, err)
	require.Equal(t, approve123, hexutil.Encode(append(am.ID, packed...)))
}
