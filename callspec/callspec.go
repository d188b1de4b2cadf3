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
	"fmt"
	"maps"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
)

// Method is the declarative description of a contract function. Adapters
// specialise a Method by adding fixed arguments with WithFixed.
type Method struct {
	Name            string
	Inputs          Signature
	Outputs         Signature
	Fixed           FixedArguments
	StateMutability string
}

// WithFixed returns a copy of m with fixed merged over m.Fixed.
func (m Method) WithFixed(fixed FixedArguments) Method {
	merged := make(FixedArguments, len(m.Fixed)+len(fixed))
	maps.Copy(merged, m.Fixed)
	maps.Copy(merged, fixed)
	m.Fixed = merged
	return m
}

// Rename returns a copy of m under another function name, as used by read
// only variants that share the inputs of a state changing function.
func (m Method) Rename(name string, outputs Signature) Method {
	m.Name = name
	m.Outputs = outputs
	m.StateMutability = ""
	return m
}

func (m Method) TypeString() string {
	return FlattenTypeString(m.Name, m.Inputs)
}

func (m Method) Selector() [4]byte {
	return Selector(m.Name, m.Inputs)
}

func (m Method) Encode(args Args, binding Binding) ([]byte, error) {
	values, err := CompileArgs(m.Inputs, args, m.Fixed, binding)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", m.Name, err)
	}
	return EncodeCalldata(m.Name, m.Inputs, values)
}

// ABI is m as a go-ethereum method, for callers that unpack with the
// abi package directly.
func (m Method) ABI() (abi.Method, error) {
	inputs, err := m.Inputs.arguments()
	if err != nil {
		return abi.Method{}, fmt.Errorf("%s inputs: %w", m.Name, err)
	}
	outputs, err := m.Outputs.arguments()
	if err != nil {
		return abi.Method{}, fmt.Errorf("%s outputs: %w", m.Name, err)
	}
	mutability := m.StateMutability
	if mutability == "" {
		mutability = "nonpayable"
	}
	return abi.NewMethod(m.Name, m.Name, abi.Function, mutability, false, mutability == "payable", inputs, outputs), nil
}

func (m Method) Descriptor() ([]byte, error) {
	if m.StateMutability == "" {
		return Descriptor(m.Name, m.Inputs, m.Outputs)
	}
	return descriptor(m.Name, m.StateMutability, m.Inputs, m.Outputs)
}

// CallSpec is an immutable, fully encoded call made by the avatar.
type CallSpec struct {
	to        common.Address
	value     uint256.Int
	operation Operation
	data      []byte
	outputs   Signature
	method    string
}

type Option func(*CallSpec)

func WithValue(v *uint256.Int) Option {
	return func(c *CallSpec) {
		if v != nil {
			c.value.Set(v)
		}
	}
}

func WithOperation(op Operation) Option {
	return func(c *CallSpec) {
		c.operation = op
	}
}

// NewCallSpec compiles args against m and binding and encodes the result
// into a call to the contract at to.
func NewCallSpec(to common.Address, m Method, args Args, binding Binding, opts ...Option) (CallSpec, error) {
	if err := m.Inputs.Validate(); err != nil {
		return CallSpec{}, fmt.Errorf("%s: %w", m.Name, err)
	}

	data, err := m.Encode(args, binding)
	if err != nil {
		return CallSpec{}, err
	}

	c, err := NewRawCallSpec(to, data, opts...)
	if err != nil {
		return CallSpec{}, fmt.Errorf("%s: %w", m.Name, err)
	}
	c.outputs = m.Outputs
	c.method = m.Name
	return c, nil
}

// NewRawCallSpec wraps already encoded calldata.
func NewRawCallSpec(to common.Address, data []byte, opts ...Option) (CallSpec, error) {
	if to == (common.Address{}) {
		return CallSpec{}, ErrZeroTarget
	}

	c := CallSpec{to: to, data: bytes.Clone(data)}
	for _, opt := range opts {
		opt(&c)
	}

	if err := c.operation.Validate(); err != nil {
		return CallSpec{}, err
	}
	return c, nil
}

func (c CallSpec) To() common.Address {
	return c.to
}

func (c CallSpec) Value() *uint256.Int {
	return new(uint256.Int).Set(&c.value)
}

func (c CallSpec) Operation() Operation {
	return c.operation
}

func (c CallSpec) Data() []byte {
	return bytes.Clone(c.data)
}

func (c CallSpec) Outputs() Signature {
	return c.outputs
}

func (c CallSpec) Method() string {
	return c.method
}

// DecodeOutputs unpacks the return data of a read call.
func (c CallSpec) DecodeOutputs(ret []byte) ([]any, error) {
	if len(c.outputs) == 0 {
		return nil, fmt.Errorf("%w: %s has no outputs", ErrInvalidSignature, c.method)
	}
	return DecodeArguments(c.outputs, ret)
}

func (c CallSpec) String() string {
	method := c.method
	if method == "" {
		method = "raw"
	}
	return fmt.Sprintf("%s %s to=%s value=%s data=%s", c.operation, method, c.to.Hex(), c.value.Dec(), hexutil.Encode(c.data))
}
