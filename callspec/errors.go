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
	"errors"
	"fmt"
)

var (
	ErrMissingArgument      = errors.New("missing argument")
	ErrUnresolvedBinding    = errors.New("unresolved binding")
	ErrInvalidEnumValue     = errors.New("invalid enum value")
	ErrInvalidArgument      = errors.New("invalid argument")
	ErrUnknownFixedArgument = errors.New("fixed argument not in signature")
	ErrInvalidSignature     = errors.New("invalid signature")
	ErrZeroTarget           = errors.New("call target is the zero address")
)

// CheckEnum fails with ErrInvalidEnumValue unless value is one of allowed.
func CheckEnum[T comparable](name string, value T, allowed ...T) error {
	for _, a := range allowed {
		if a == value {
			return nil
		}
	}

	return fmt.Errorf("%w: %s=%v, allowed %v", ErrInvalidEnumValue, name, value, allowed)
}
