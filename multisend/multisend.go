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

// Package multisend packs calls into the payload of the Safe MultiSend
// contract. Each entry is
//
//	operation (1 byte) | to (20 bytes) | value (32 bytes) | data length (32 bytes) | data
//
// with entries concatenated without any padding between them.
package multisend

import (
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/erigontech/rolesmod/callspec"
)

const headerLen = 1 + common.AddressLength + 32 + 32

var ErrEmptyBatch = errors.New("no calls to send")

var Method = callspec.Method{
	Name:   "multiSend",
	Inputs: callspec.Signature{{Name: "transactions", Type: callspec.Primitive("bytes")}},
}

// Encode packs calls in order.
func Encode(calls ...callspec.CallSpec) []byte {
	size := 0
	for _, c := range calls {
		size += headerLen + len(c.Data())
	}

	out := make([]byte, 0, size)
	for _, c := range calls {
		out = appendCall(out, c)
	}
	return out
}

func appendCall(out []byte, c callspec.CallSpec) []byte {
	data := c.Data()
	to := c.To()
	value := c.Value().Bytes32()
	length := uint256.NewInt(uint64(len(data))).Bytes32()

	out = append(out, byte(c.Operation()))
	out = append(out, to[:]...)
	out = append(out, value[:]...)
	out = append(out, length[:]...)
	return append(out, data...)
}

// New wraps calls into a delegate call to the MultiSend contract at address.
func New(address common.Address, calls ...callspec.CallSpec) (callspec.CallSpec, error) {
	return callspec.NewCallSpec(address, Method, callspec.Args{"transactions": Encode(calls...)}, callspec.Binding{},
		callspec.WithOperation(callspec.DelegateCall))
}

// MultiOrOne returns a single call unchanged and batches anything longer.
func MultiOrOne(address common.Address, calls ...callspec.CallSpec) (callspec.CallSpec, error) {
	switch len(calls) {
	case 0:
		return callspec.CallSpec{}, ErrEmptyBatch
	case 1:
		return calls[0], nil
	default:
		return New(address, calls...)
	}
}
