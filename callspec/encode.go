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
	"math/big"
	"reflect"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
)

// EncodeCalldata returns the selector of name(sig) followed by the abi
// encoding of values, as produced by CompileArgs.
func EncodeCalldata(name string, sig Signature, values []any) ([]byte, error) {
	packed, err := EncodeArguments(sig, values)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	sel := Selector(name, sig)
	return append(sel[:], packed...), nil
}

// EncodeArguments abi encodes values without a selector.
func EncodeArguments(sig Signature, values []any) ([]byte, error) {
	if len(values) != len(sig) {
		return nil, fmt.Errorf("%w: have %d values for %d arguments", ErrInvalidArgument, len(values), len(sig))
	}

	args, err := sig.arguments()
	if err != nil {
		return nil, err
	}

	coerced := make([]any, len(values))
	for i, v := range values {
		rv, err := coerce(args[i].Type, v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", sig[i].Name, err)
		}
		coerced[i] = rv.Interface()
	}

	return args.Pack(coerced...)
}

// DecodeArguments unpacks abi encoded data described by sig.
func DecodeArguments(sig Signature, data []byte) ([]any, error) {
	args, err := sig.arguments()
	if err != nil {
		return nil, err
	}
	return args.Unpack(data)
}

// coerce converts v into the exact go type the abi packer expects for t.
func coerce(t abi.Type, v any) (reflect.Value, error) {
	switch t.T {
	case abi.IntTy, abi.UintTy:
		n, err := toBig(v)
		if err != nil {
			return reflect.Value{}, err
		}
		return bigToType(t, n)

	case abi.BoolTy:
		b, ok := v.(bool)
		if !ok {
			return reflect.Value{}, invalid(t, v)
		}
		return reflect.ValueOf(b), nil

	case abi.StringTy:
		s, ok := v.(string)
		if !ok {
			return reflect.Value{}, invalid(t, v)
		}
		return reflect.ValueOf(s), nil

	case abi.AddressTy:
		addr, err := toAddress(v)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(addr), nil

	case abi.BytesTy:
		b, err := toBytes(v)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(b), nil

	case abi.FixedBytesTy:
		b, err := toBytes(v)
		if err != nil {
			return reflect.Value{}, err
		}
		if len(b) != t.Size {
			return reflect.Value{}, fmt.Errorf("%w: %s needs %d bytes, have %d", ErrInvalidArgument, t, t.Size, len(b))
		}
		arr := reflect.New(t.GetType()).Elem()
		reflect.Copy(arr, reflect.ValueOf(b))
		return arr, nil

	case abi.SliceTy, abi.ArrayTy:
		in := reflect.ValueOf(v)
		if in.Kind() != reflect.Slice && in.Kind() != reflect.Array {
			return reflect.Value{}, invalid(t, v)
		}
		if t.T == abi.ArrayTy && in.Len() != t.Size {
			return reflect.Value{}, fmt.Errorf("%w: %s needs %d elements, have %d", ErrInvalidArgument, t, t.Size, in.Len())
		}

		out := reflect.MakeSlice(reflect.SliceOf(t.Elem.GetType()), in.Len(), in.Len())
		for i := 0; i < in.Len(); i++ {
			ev, err := coerce(*t.Elem, in.Index(i).Interface())
			if err != nil {
				return reflect.Value{}, fmt.Errorf("[%d]: %w", i, err)
			}
			out.Index(i).Set(ev)
		}
		if t.T == abi.SliceTy {
			return out, nil
		}
		arr := reflect.New(t.GetType()).Elem()
		reflect.Copy(arr, out)
		return arr, nil

	case abi.TupleTy:
		fields, ok := v.([]any)
		if !ok {
			return reflect.Value{}, invalid(t, v)
		}
		if len(fields) != len(t.TupleElems) {
			return reflect.Value{}, fmt.Errorf("%w: %s needs %d fields, have %d", ErrInvalidArgument, t, len(t.TupleElems), len(fields))
		}

		st := reflect.New(t.TupleType).Elem()
		for i, elem := range t.TupleElems {
			fv, err := coerce(*elem, fields[i])
			if err != nil {
				return reflect.Value{}, fmt.Errorf("%s: %w", t.TupleRawNames[i], err)
			}
			st.Field(i).Set(fv)
		}
		return st, nil
	}

	return reflect.Value{}, fmt.Errorf("%w: unsupported type %s", ErrInvalidArgument, t)
}

func invalid(t abi.Type, v any) error {
	return fmt.Errorf("%w: %T for %s", ErrInvalidArgument, v, t)
}

func toBig(v any) (*big.Int, error) {
	switch n := v.(type) {
	case *big.Int:
		if n == nil {
			return nil, fmt.Errorf("%w: nil integer", ErrInvalidArgument)
		}
		return new(big.Int).Set(n), nil
	case big.Int:
		return new(big.Int).Set(&n), nil
	case *uint256.Int:
		if n == nil {
			return nil, fmt.Errorf("%w: nil integer", ErrInvalidArgument)
		}
		return n.ToBig(), nil
	case uint256.Int:
		return n.ToBig(), nil
	case int:
		return big.NewInt(int64(n)), nil
	case int8:
		return big.NewInt(int64(n)), nil
	case int16:
		return big.NewInt(int64(n)), nil
	case int32:
		return big.NewInt(int64(n)), nil
	case int64:
		return big.NewInt(n), nil
	case uint:
		return new(big.Int).SetUint64(uint64(n)), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(n)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(n)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(n)), nil
	case uint64:
		return new(big.Int).SetUint64(n), nil
	case string:
		b, ok := new(big.Int).SetString(n, 0)
		if !ok {
			return nil, fmt.Errorf("%w: %q is not an integer", ErrInvalidArgument, n)
		}
		return b, nil
	}

	// named integer types such as enums
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return big.NewInt(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return new(big.Int).SetUint64(rv.Uint()), nil
	}

	return nil, fmt.Errorf("%w: %T is not an integer", ErrInvalidArgument, v)
}

func bigToType(t abi.Type, n *big.Int) (reflect.Value, error) {
	if t.T == abi.UintTy {
		if n.Sign() < 0 || n.BitLen() > t.Size {
			return reflect.Value{}, fmt.Errorf("%w: %s out of range for %s", ErrInvalidArgument, n, t)
		}
	} else {
		limit := new(big.Int).Lsh(big.NewInt(1), uint(t.Size-1))
		if n.Cmp(limit) >= 0 || n.Cmp(new(big.Int).Neg(limit)) < 0 {
			return reflect.Value{}, fmt.Errorf("%w: %s out of range for %s", ErrInvalidArgument, n, t)
		}
	}

	goType := t.GetType()
	if goType == reflect.TypeOf(&big.Int{}) {
		return reflect.ValueOf(n), nil
	}

	out := reflect.New(goType).Elem()
	if t.T == abi.UintTy {
		out.SetUint(n.Uint64())
	} else {
		out.SetInt(n.Int64())
	}
	return out, nil
}

func toAddress(v any) (common.Address, error) {
	switch a := v.(type) {
	case common.Address:
		return a, nil
	case *common.Address:
		if a == nil {
			return common.Address{}, fmt.Errorf("%w: nil address", ErrInvalidArgument)
		}
		return *a, nil
	case [20]byte:
		return common.Address(a), nil
	case string:
		if !common.IsHexAddress(a) {
			return common.Address{}, fmt.Errorf("%w: %q is not an address", ErrInvalidArgument, a)
		}
		return common.HexToAddress(a), nil
	}

	return common.Address{}, fmt.Errorf("%w: %T is not an address", ErrInvalidArgument, v)
}

func toBytes(v any) ([]byte, error) {
	switch b := v.(type) {
	case []byte:
		return b, nil
	case hexutil.Bytes:
		return b, nil
	case common.Hash:
		return b.Bytes(), nil
	case [32]byte:
		return b[:], nil
	case string:
		if !strings.HasPrefix(b, "0x") && !strings.HasPrefix(b, "0X") {
			return nil, fmt.Errorf("%w: %q is not 0x prefixed hex", ErrInvalidArgument, b)
		}
		return hexutil.Decode(b)
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Array && rv.Type().Elem().Kind() == reflect.Uint8 {
		out := make([]byte, rv.Len())
		reflect.Copy(reflect.ValueOf(out), rv)
		return out, nil
	}

	return nil, fmt.Errorf("%w: %T is not bytes", ErrInvalidArgument, v)
}
