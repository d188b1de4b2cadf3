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
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

type DeferredKind uint8

const (
	// BindAvatar is replaced by the avatar address of the active Binding.
	BindAvatar DeferredKind = iota + 1
)

func (k DeferredKind) String() string {
	switch k {
	case BindAvatar:
		return "avatar"
	default:
		return fmt.Sprintf("DeferredKind(%d)", uint8(k))
	}
}

// FixedValue is either a literal or a placeholder resolved against a
// Binding when the call is compiled.
type FixedValue struct {
	literal  any
	deferred DeferredKind
}

func Literal(v any) FixedValue {
	return FixedValue{literal: v}
}

func Deferred(kind DeferredKind) FixedValue {
	return FixedValue{deferred: kind}
}

// Avatar is shorthand for Deferred(BindAvatar).
var Avatar = Deferred(BindAvatar)

func (v FixedValue) IsDeferred() bool {
	return v.deferred != 0
}

func (v FixedValue) resolve(b Binding) (any, error) {
	switch v.deferred {
	case 0:
		return v.literal, nil
	case BindAvatar:
		if b.Avatar == nil {
			return nil, fmt.Errorf("%w: %s", ErrUnresolvedBinding, v.deferred)
		}
		return *b.Avatar, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnresolvedBinding, v.deferred)
	}
}

type FixedArguments map[string]FixedValue

// Binding carries the values that deferred fixed arguments resolve to.
type Binding struct {
	Avatar *common.Address
}

func BindTo(avatar common.Address) Binding {
	return Binding{Avatar: &avatar}
}

// Args holds caller supplied argument values by name. A tuple argument may
// be given as a nested Args under its own name, otherwise its components
// are looked up in the enclosing Args.
type Args map[string]any

// CompileArgs orders args, fixed values and resolved bindings following sig.
// Tuples produce nested []any values, fixed values win over args.
func CompileArgs(sig Signature, args Args, fixed FixedArguments, binding Binding) ([]any, error) {
	for name := range fixed {
		if !sig.Has(name) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownFixedArgument, name)
		}
	}
	return compile(sig, args, fixed, binding, "")
}

func compile(sig Signature, args Args, fixed FixedArguments, binding Binding, path string) ([]any, error) {
	values := make([]any, 0, len(sig))

	for _, arg := range sig {
		argPath := arg.Name
		if path != "" {
			argPath = path + "." + arg.Name
		}

		if fv, ok := fixed[arg.Name]; ok {
			v, err := fv.resolve(binding)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", argPath, err)
			}
			values = append(values, v)
			continue
		}

		if arg.Type.Kind == KindTuple {
			inner := args
			if nested, ok := args[arg.Name]; ok {
				switch nested := nested.(type) {
				case Args:
					inner = nested
				case map[string]any:
					inner = nested
				default:
					// already compiled positional value
					values = append(values, nested)
					continue
				}
			}

			v, err := compile(arg.Type.Components, inner, fixed, binding, argPath)
			if err != nil {
				return nil, err
			}
			values = append(values, v)
			continue
		}

		v, ok := args[arg.Name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingArgument, argPath)
		}
		values = append(values, v)
	}

	return values, nil
}
