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
	"bytes"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/stretchr/testify/require"
)

var exitPoolInputs = Signature{
	{Name: "pool_id", Type: Primitive("bytes32")},
	{Name: "sender", Type: Primitive("address")},
	{Name: "recipient", Type: Primitive("address")},
	{Name: "request", Type: Tuple(
		Arg{Name: "assets", Type: Primitive("address[]")},
		Arg{Name: "min_amounts_out", Type: Primitive("uint256[]")},
		Arg{Name: "user_data", Type: Primitive("bytes")},
		Arg{Name: "to_internal_balance", Type: Primitive("bool")},
	)},
}

func TestFlattenTypeString(t *testing.T) {
	tests := []struct {
		name     string
		sig      Signature
		expected string
	}{
		{"approve", Signature{{"spender", Primitive("address")}, {"amount", Primitive("uint256")}}, "approve(address,uint256)"},
		{"exitPool", exitPoolInputs, "exitPool(bytes32,address,address,(address[],uint256[],bytes,bool))"},
		{"batch", Signature{{"steps", ArrayOf(Tuple(Arg{"kind", Primitive("uint8")}, Arg{"amounts", FixedArrayOf(Primitive("uint256"), 2)}))}}, "batch((uint8,uint256[2])[])"},
		{"noop", nil, "noop()"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, FlattenTypeString(tt.name, tt.sig))
		})
	}
}

func TestSelectorMatchesAbiMethodID(t *testing.T) {
	require.Equal(t, [4]byte{0x09, 0x5e, 0xa7, 0xb3}, Selector("approve", Signature{{"spender", Primitive("address")}, {"amount", Primitive("uint256")}}))

	args, err := exitPoolInputs.arguments()
	require.NoError(t, err)
	method := abi.NewMethod("exitPool", "exitPool", abi.Function, "nonpayable", false, false, args, nil)

	sel := Selector("exitPool", exitPoolInputs)
	require.Equal(t, method.ID, sel[:])
	require.Equal(t, method.Sig, FlattenTypeString("exitPool", exitPoolInputs))

	// served from the cache the second time
	require.Equal(t, sel, Selector("exitPool", exitPoolInputs))
}

func TestParseTypeStringRoundTrip(t *testing.T) {
	sigs := []Signature{
		exitPoolInputs,
		{{"a", Tuple(Arg{"b", Tuple(Arg{"c", Primitive("address")}, Arg{"d", ArrayOf(Tuple(Arg{"e", Primitive("bytes")}))})})}},
		{{"x", FixedArrayOf(ArrayOf(Primitive("uint256")), 3)}, {"y", Primitive("bool")}},
		{},
	}

	for _, sig := range sigs {
		flat := FlattenTypeString("f", sig)
		name, parsed, err := ParseTypeString(flat)
		require.NoError(t, err, flat)
		require.Equal(t, "f", name)
		require.Len(t, parsed, len(sig))
		require.Equal(t, sig.Depth(), parsed.Depth(), flat)
		require.Equal(t, flat, FlattenTypeString(name, parsed))
		require.NoError(t, parsed.Validate())
	}
}

func TestParseTypeStringErrors(t *testing.T) {
	for _, s := range []string{"", "f", "(uint256)", "f(uint256", "f(uint256,)", "f(uint256[x])", "f((address)"} {
		_, _, err := ParseTypeString(s)
		require.ErrorIs(t, err, ErrInvalidSignature, s)
	}
}

func TestValidateNestedNames(t *testing.T) {
	require.NoError(t, exitPoolInputs.Validate())

	// the same name on different levels is fine
	require.NoError(t, Signature{{"a", Tuple(Arg{"a", Primitive("uint256")})}}.Validate())

	tests := []struct {
		name string
		sig  Signature
	}{
		{"tuple", Signature{{"p", Tuple(Arg{"a", Primitive("uint256")}, Arg{"a", Primitive("address")})}}},
		{"arrayOfTuple", Signature{{"steps", ArrayOf(Tuple(Arg{"kind", Primitive("uint8")}, Arg{"kind", Primitive("uint8")}))}}},
		{"deep", Signature{{"p", Tuple(Arg{"q", FixedArrayOf(Tuple(Arg{"x", Primitive("bool")}, Arg{"x", Primitive("bool")}), 2)})}}},
		{"unnamedLeaf", Signature{{"p", Tuple(Arg{"", Primitive("uint256")})}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorIs(t, tt.sig.Validate(), ErrInvalidSignature)
		})
	}
}

func TestDescriptorIsReadableByAbiJSON(t *testing.T) {
	outputs := Signature{{"amounts_out", Primitive("uint256[]")}, {"bpt_in", Primitive("uint256")}}

	desc, err := Descriptor("queryExit", exitPoolInputs, outputs)
	require.NoError(t, err)

	parsed, err := abi.JSON(bytes.NewReader(desc))
	require.NoError(t, err)

	method, ok := parsed.Methods["queryExit"]
	require.True(t, ok)
	require.Equal(t, "queryExit(bytes32,address,address,(address[],uint256[],bytes,bool))", method.Sig)
	require.Len(t, method.Outputs, 2)
	require.Equal(t, "view", method.StateMutability)

	sel := Selector("queryExit", exitPoolInputs)
	require.Equal(t, method.ID, sel[:])
}
