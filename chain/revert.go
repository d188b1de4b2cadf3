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

package chain

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/erigontech/rolesmod/callspec"
)

// custom errors raised by the roles modifier contracts
var knownErrors = []struct {
	name string
	args callspec.Signature
}{
	{"NotAuthorized", callspec.Signature{{Name: "module", Type: callspec.Primitive("address")}}},
	{"ConditionViolation", callspec.Signature{{Name: "status", Type: callspec.Primitive("uint8")}, {Name: "info", Type: callspec.Primitive("bytes32")}}},
	{"ModuleTransactionFailed", nil},
	{"NoMembership", nil},
	{"TargetAddressNotAllowed", nil},
	{"FunctionNotAllowed", nil},
	{"ParameterNotAllowed", nil},
	{"SendNotAllowed", nil},
	{"DelegateCallNotAllowed", nil},
	{"NoRolesSet", nil},
}

// RevertReason reports whether err is a contract level revert returned by
// a node, and its decoded reason. Node errors such as "header not found"
// carry a json-rpc error object too but are not reverts.
func RevertReason(err error) (string, bool) {
	if err == nil {
		return "", false
	}

	var de rpc.DataError
	if errors.As(err, &de) {
		if s, ok := de.ErrorData().(string); ok {
			if data, decErr := hexutil.Decode(s); decErr == nil && len(data) > 0 {
				return DecodeRevert(data), true
			}
		}
	}

	var re rpc.Error
	if errors.As(err, &re) && re.ErrorCode() == 3 {
		return re.Error(), true
	}

	if strings.Contains(err.Error(), "execution reverted") {
		return err.Error(), true
	}

	return "", false
}

// DecodeRevert renders revert data as Error(string) reason, a known roles
// modifier error, or hex.
func DecodeRevert(data []byte) string {
	if reason, err := abi.UnpackRevert(data); err == nil {
		return reason
	}

	if len(data) >= 4 {
		for _, e := range knownErrors {
			sel := callspec.Selector(e.name, e.args)
			if !bytes.Equal(sel[:], data[:4]) {
				continue
			}

			values, err := callspec.DecodeArguments(e.args, data[4:])
			if err != nil {
				break
			}

			parts := make([]string, len(values))
			for i, v := range values {
				parts[i] = formatValue(v)
			}
			return e.name + "(" + strings.Join(parts, ",") + ")"
		}
	}

	return hexutil.Encode(data)
}

func formatValue(v any) string {
	switch v := v.(type) {
	case [32]byte:
		return hexutil.Encode(v[:])
	default:
		return fmt.Sprint(v)
	}
}
