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
	"os"
	"reflect"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
	jsoniter "github.com/json-iterator/go"
	"github.com/urfave/cli/v2"

	"github.com/erigontech/rolesmod/callspec"
)

var json = jsoniter.Config{
	EscapeHTML:             true,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
	UseNumber:              true,
}.Froze()

var errNoCalls = errors.New("no calls given, pass <to> <signature> [args...] or --calls")

// callEntry is one call of a --calls file. Either Signature and Args or
// raw Data are given.
type callEntry struct {
	To        string `json:"to"`
	Value     string `json:"value,omitempty"`
	Operation string `json:"operation,omitempty"`
	Signature string `json:"signature,omitempty"`
	Args      []any  `json:"args,omitempty"`
	Data      string `json:"data,omitempty"`
}

func (e callEntry) callSpec() (callspec.CallSpec, error) {
	if !common.IsHexAddress(e.To) {
		return callspec.CallSpec{}, fmt.Errorf("invalid target %q", e.To)
	}
	to := common.HexToAddress(e.To)

	value, err := parseValue(e.Value)
	if err != nil {
		return callspec.CallSpec{}, err
	}
	op := callspec.Call
	if e.Operation != "" {
		if op, err = callspec.ParseOperation(e.Operation); err != nil {
			return callspec.CallSpec{}, err
		}
	}
	opts := []callspec.Option{callspec.WithValue(value), callspec.WithOperation(op)}

	if e.Data != "" {
		if e.Signature != "" {
			return callspec.CallSpec{}, fmt.Errorf("call to %s: both data and signature given", e.To)
		}
		data, err := hexutil.Decode(e.Data)
		if err != nil {
			return callspec.CallSpec{}, fmt.Errorf("call to %s: data: %w", e.To, err)
		}
		return callspec.NewRawCallSpec(to, data, opts...)
	}

	name, inputs, err := callspec.ParseTypeString(strings.ReplaceAll(e.Signature, " ", ""))
	if err != nil {
		return callspec.CallSpec{}, err
	}
	if len(e.Args) != len(inputs) {
		return callspec.CallSpec{}, fmt.Errorf("%s: %d arguments for %d inputs", e.Signature, len(e.Args), len(inputs))
	}

	args := make(callspec.Args, len(inputs))
	for i, in := range inputs {
		args[in.Name] = plain(e.Args[i])
	}
	return callspec.NewCallSpec(to, callspec.Method{Name: name, Inputs: inputs}, args, callspec.Binding{}, opts...)
}

// plain turns decoded JSON into values the encoder accepts: numbers become
// their decimal string, arrays are walked.
func plain(v any) any {
	switch v := v.(type) {
	case []any:
		out := make([]any, len(v))
		for i := range v {
			out[i] = plain(v[i])
		}
		return out
	case nil, bool, string:
		return v
	}
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.String {
		return rv.String()
	}
	return v
}

func parseValue(s string) (*uint256.Int, error) {
	if s == "" {
		return new(uint256.Int), nil
	}
	if strings.HasPrefix(s, "0x") {
		v, err := uint256.FromHex(s)
		if err != nil {
			return nil, fmt.Errorf("invalid value %q: %w", s, err)
		}
		return v, nil
	}
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, fmt.Errorf("invalid value %q: %w", s, err)
	}
	return v, nil
}

// parseArg reads one command line argument. Arrays and tuples are given
// as JSON, anything else is passed through as a string.
func parseArg(s string) (any, error) {
	if !strings.HasPrefix(s, "[") {
		return s, nil
	}
	var v []any
	if err := json.UnmarshalFromString(s, &v); err != nil {
		return nil, fmt.Errorf("argument %q: %w", s, err)
	}
	return plain(v), nil
}

// loadCalls reads the --calls file.
func loadCalls(path string) ([]callspec.CallSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var entries []callEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return toCallSpecs(entries)
}

func toCallSpecs(entries []callEntry) ([]callspec.CallSpec, error) {
	calls := make([]callspec.CallSpec, 0, len(entries))
	for i, e := range entries {
		c, err := e.callSpec()
		if err != nil {
			return nil, fmt.Errorf("call %d: %w", i, err)
		}
		calls = append(calls, c)
	}
	return calls, nil
}

// callsFromCtx reads the calls of a command, from --calls or from the
// positional <to> <signature> [args...].
func callsFromCtx(ctx *cli.Context) ([]callspec.CallSpec, error) {
	if path := ctx.String(CallsFlag.Name); path != "" {
		if ctx.Args().Present() {
			return nil, errors.New("--calls and a command line call are exclusive")
		}
		return loadCalls(path)
	}

	if ctx.NArg() < 2 {
		return nil, errNoCalls
	}
	e := callEntry{
		To:        ctx.Args().Get(0),
		Signature: ctx.Args().Get(1),
		Value:     ctx.String(ValueFlag.Name),
		Operation: ctx.String(OperationFlag.Name),
	}
	for _, s := range ctx.Args().Slice()[2:] {
		v, err := parseArg(s)
		if err != nil {
			return nil, err
		}
		e.Args = append(e.Args, v)
	}
	return toCallSpecs([]callEntry{e})
}
