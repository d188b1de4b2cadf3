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
	"strconv"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/ethereum/go-ethereum/accounts/abi"
)

type Kind uint8

const (
	KindPrimitive Kind = iota
	KindTuple
	KindArray
)

// ArgType is a wire type: a primitive, a tuple of named arguments, or an
// array of another ArgType. Length zero marks a dynamic array.
type ArgType struct {
	Kind       Kind
	Primitive  string
	Components Signature
	Elem       *ArgType
	Len        int
}

func Primitive(t string) ArgType {
	return ArgType{Kind: KindPrimitive, Primitive: t}
}

func Tuple(args ...Arg) ArgType {
	return ArgType{Kind: KindTuple, Components: Signature(args)}
}

func ArrayOf(t ArgType) ArgType {
	return ArgType{Kind: KindArray, Elem: &t}
}

func FixedArrayOf(t ArgType, n int) ArgType {
	return ArgType{Kind: KindArray, Elem: &t, Len: n}
}

// String renders the canonical type, tuples as (t1,t2) and arrays with
// their dimensions appended.
func (t ArgType) String() string {
	switch t.Kind {
	case KindTuple:
		return "(" + t.Components.typeList() + ")"
	case KindArray:
		if t.Len > 0 {
			return t.Elem.String() + "[" + strconv.Itoa(t.Len) + "]"
		}
		return t.Elem.String() + "[]"
	default:
		return t.Primitive
	}
}

// Depth is the tuple nesting depth, arrays do not count.
func (t ArgType) Depth() int {
	switch t.Kind {
	case KindTuple:
		return 1 + t.Components.Depth()
	case KindArray:
		return t.Elem.Depth()
	default:
		return 0
	}
}

// marshaling converts the type into the json shape go-ethereum builds its
// abi.Type values from.
func (t ArgType) marshaling(name string) abi.ArgumentMarshaling {
	base := t
	var dims string
	for base.Kind == KindArray {
		if base.Len > 0 {
			dims = "[" + strconv.Itoa(base.Len) + "]" + dims
		} else {
			dims = "[]" + dims
		}
		base = *base.Elem
	}

	if base.Kind == KindPrimitive {
		return abi.ArgumentMarshaling{Name: name, Type: base.Primitive + dims}
	}

	comps := make([]abi.ArgumentMarshaling, len(base.Components))
	for i, c := range base.Components {
		comps[i] = c.Type.marshaling(c.Name)
	}

	return abi.ArgumentMarshaling{Name: name, Type: "tuple" + dims, Components: comps}
}

func (t ArgType) abiType() (abi.Type, error) {
	m := t.marshaling("")
	typ, err := abi.NewType(m.Type, "", m.Components)
	if err != nil {
		return abi.Type{}, fmt.Errorf("%w: %s: %v", ErrInvalidSignature, t, err)
	}
	return typ, nil
}

type Arg struct {
	Name string
	Type ArgType
}

// Signature is the ordered argument list of a contract function.
type Signature []Arg

func (s Signature) typeList() string {
	types := make([]string, len(s))
	for i, a := range s {
		types[i] = a.Type.String()
	}
	return strings.Join(types, ",")
}

func (s Signature) Depth() int {
	depth := 0
	for _, a := range s {
		if d := a.Type.Depth(); d > depth {
			depth = d
		}
	}
	return depth
}

// Validate reports duplicate or empty names at any level and leaves that
// are not valid wire types.
func (s Signature) Validate() error {
	seen := mapset.NewThreadUnsafeSetWithSize[string](len(s))
	for _, a := range s {
		if a.Name == "" {
			return fmt.Errorf("%w: unnamed argument of type %s", ErrInvalidSignature, a.Type)
		}
		if !seen.Add(a.Name) {
			return fmt.Errorf("%w: duplicate argument %q", ErrInvalidSignature, a.Name)
		}

		if _, err := a.Type.abiType(); err != nil {
			return err
		}

		base := a.Type
		for base.Kind == KindArray {
			base = *base.Elem
		}
		if base.Kind == KindTuple {
			if err := base.Components.Validate(); err != nil {
				return fmt.Errorf("%s: %w", a.Name, err)
			}
		}
	}
	return nil
}

// Has reports whether name is declared at any level of the signature.
func (s Signature) Has(name string) bool {
	for _, a := range s {
		if a.Name == name {
			return true
		}
		base := a.Type
		for base.Kind == KindArray {
			base = *base.Elem
		}
		if base.Kind == KindTuple && base.Components.Has(name) {
			return true
		}
	}
	return false
}

func (s Signature) arguments() (abi.Arguments, error) {
	args := make(abi.Arguments, len(s))
	for i, a := range s {
		typ, err := a.Type.abiType()
		if err != nil {
			return nil, err
		}
		args[i] = abi.Argument{Name: a.Name, Type: typ}
	}
	return args, nil
}
