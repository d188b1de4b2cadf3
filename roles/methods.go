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

package roles

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/erigontech/rolesmod/callspec"
)

var (
	execV1 = callspec.Method{
		Name: "execTransactionWithRole",
		Inputs: callspec.Signature{
			{Name: "to", Type: callspec.Primitive("address")},
			{Name: "value", Type: callspec.Primitive("uint256")},
			{Name: "data", Type: callspec.Primitive("bytes")},
			{Name: "operation", Type: callspec.Primitive("uint8")},
			{Name: "role", Type: callspec.Primitive("uint16")},
			{Name: "should_revert", Type: callspec.Primitive("bool")},
		},
		Outputs: callspec.Signature{{Name: "success", Type: callspec.Primitive("bool")}},
	}

	execV2 = callspec.Method{
		Name: "execTransactionWithRole",
		Inputs: callspec.Signature{
			{Name: "to", Type: callspec.Primitive("address")},
			{Name: "value", Type: callspec.Primitive("uint256")},
			{Name: "data", Type: callspec.Primitive("bytes")},
			{Name: "operation", Type: callspec.Primitive("uint8")},
			{Name: "role_key", Type: callspec.Primitive("bytes32")},
			{Name: "should_revert", Type: callspec.Primitive("bool")},
		},
		Outputs: callspec.Signature{{Name: "success", Type: callspec.Primitive("bool")}},
	}

	enableModule = callspec.Method{
		Name:   "enableModule",
		Inputs: callspec.Signature{{Name: "module", Type: callspec.Primitive("address")}},
	}

	assignRolesV1 = callspec.Method{
		Name: "assignRoles",
		Inputs: callspec.Signature{
			{Name: "module", Type: callspec.Primitive("address")},
			{Name: "roles", Type: callspec.ArrayOf(callspec.Primitive("uint16"))},
			{Name: "member_of", Type: callspec.ArrayOf(callspec.Primitive("bool"))},
		},
	}

	assignRolesV2 = callspec.Method{
		Name: "assignRoles",
		Inputs: callspec.Signature{
			{Name: "module", Type: callspec.Primitive("address")},
			{Name: "role_keys", Type: callspec.ArrayOf(callspec.Primitive("bytes32"))},
			{Name: "member_of", Type: callspec.ArrayOf(callspec.Primitive("bool"))},
		},
	}
)

// ExecMethod returns the execTransactionWithRole variant used for role.
func ExecMethod(role Role) callspec.Method {
	if VersionOf(role) == V2 {
		return execV2
	}
	return execV1
}

// ExecTransactionWithRole wraps inner into a call to the roles modifier at
// module. The inner value travels as the value argument, the wrapping call
// itself carries none.
func ExecTransactionWithRole(module common.Address, role Role, inner callspec.CallSpec, shouldRevert bool) (callspec.CallSpec, error) {
	rv, err := roleValue(role)
	if err != nil {
		return callspec.CallSpec{}, err
	}

	args := callspec.Args{
		"to":            inner.To(),
		"value":         inner.Value(),
		"data":          inner.Data(),
		"operation":     uint8(inner.Operation()),
		"should_revert": shouldRevert,
	}
	if VersionOf(role) == V2 {
		args["role_key"] = rv
	} else {
		args["role"] = rv
	}

	return callspec.NewCallSpec(module, ExecMethod(role), args, callspec.Binding{})
}

// EnableModule lets module call the roles modifier at address.
func EnableModule(address, module common.Address) (callspec.CallSpec, error) {
	return callspec.NewCallSpec(address, enableModule, callspec.Args{"module": module}, callspec.Binding{})
}

// AssignRoles grants module every role in assign and revokes every role in
// revoke. All roles must be of the same version.
func AssignRoles(address, module common.Address, assign, revoke []Role) (callspec.CallSpec, error) {
	all := append(append([]Role{}, assign...), revoke...)
	if len(all) == 0 {
		return callspec.CallSpec{}, fmt.Errorf("assignRoles: no roles given")
	}

	version := VersionOf(all[0])
	values := make([]any, len(all))
	memberOf := make([]bool, len(all))
	for i, r := range all {
		if VersionOf(r) != version {
			return callspec.CallSpec{}, fmt.Errorf("assignRoles: mixed role versions %s and %s", version, VersionOf(r))
		}
		v, err := roleValue(r)
		if err != nil {
			return callspec.CallSpec{}, err
		}
		values[i] = v
		memberOf[i] = i < len(assign)
	}

	method, rolesArg := assignRolesV1, "roles"
	if version == V2 {
		method, rolesArg = assignRolesV2, "role_keys"
	}

	return callspec.NewCallSpec(address, method, callspec.Args{
		"module":    module,
		rolesArg:    values,
		"member_of": memberOf,
	}, callspec.Binding{})
}
