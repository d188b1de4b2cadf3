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

import "fmt"

// Operation is the execution kind of a call made by the avatar.
type Operation uint8

const (
	Call         Operation = 0
	DelegateCall Operation = 1
)

func (op Operation) String() string {
	switch op {
	case Call:
		return "Call"
	case DelegateCall:
		return "DelegateCall"
	default:
		return fmt.Sprintf("Operation(%d)", uint8(op))
	}
}

func (op Operation) Validate() error {
	return CheckEnum("operation", op, Call, DelegateCall)
}

// ParseOperation accepts the names produced by String as well as the
// numeric wire values.
func ParseOperation(s string) (Operation, error) {
	switch s {
	case "Call", "call", "0":
		return Call, nil
	case "DelegateCall", "delegatecall", "1":
		return DelegateCall, nil
	}

	return 0, fmt.Errorf("%w: operation=%q", ErrInvalidEnumValue, s)
}
