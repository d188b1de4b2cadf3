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
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

var ErrRoleKeyTooLong = errors.New("role key longer than 32 bytes")

// Role identifies the role a call is executed under. The concrete type
// selects the roles modifier version: RoleID for v1, RoleKey for v2.
type Role interface {
	fmt.Stringer
	isRole()
}

// RoleID is a roles modifier v1 role.
type RoleID uint16

func (r RoleID) String() string {
	return strconv.FormatUint(uint64(r), 10)
}

func (RoleID) isRole() {}

// RoleKey is a roles modifier v2 role key, either a short human readable
// name or the 0x prefixed hex of the full 32 byte key.
type RoleKey string

func (r RoleKey) String() string {
	return string(r)
}

func (RoleKey) isRole() {}

// Bytes32 returns the on-chain key. Names are stored left aligned and
// zero filled, as ethers formatBytes32String does.
func (r RoleKey) Bytes32() ([32]byte, error) {
	var key [32]byte

	if strings.HasPrefix(string(r), "0x") {
		b, err := hexutil.Decode(string(r))
		if err != nil {
			return key, fmt.Errorf("role key %q: %w", r, err)
		}
		if len(b) != 32 {
			return key, fmt.Errorf("role key %q: need 32 bytes, have %d", r, len(b))
		}
		copy(key[:], b)
		return key, nil
	}

	if len(r) > 32 {
		return key, fmt.Errorf("%w: %q", ErrRoleKeyTooLong, r)
	}
	copy(key[:], r)
	return key, nil
}

type Version int

const (
	V1 Version = 1
	V2 Version = 2
)

func (v Version) String() string {
	return "v" + strconv.Itoa(int(v))
}

// VersionOf is a pure function of the role's type.
func VersionOf(r Role) Version {
	switch r.(type) {
	case RoleID:
		return V1
	case RoleKey:
		return V2
	}
	panic(fmt.Sprintf("unknown role type %T", r))
}

// RoleKeyPrefix forces ParseRole to read the rest as a v2 role key, so a
// key made of digits can still be given.
const RoleKeyPrefix = "key:"

// ParseRole reads a decimal role as a v1 RoleID and anything else as a v2
// RoleKey. "key:1" is the v2 role key "1".
func ParseRole(s string) (Role, error) {
	if s == "" {
		return nil, errors.New("empty role")
	}

	if rest, ok := strings.CutPrefix(s, RoleKeyPrefix); ok {
		if rest == "" {
			return nil, errors.New("empty role key")
		}
		s = rest
	} else if n, err := strconv.ParseUint(s, 10, 16); err == nil {
		return RoleID(n), nil
	}

	key := RoleKey(s)
	if _, err := key.Bytes32(); err != nil {
		return nil, err
	}
	return key, nil
}

func roleValue(r Role) (any, error) {
	switch r := r.(type) {
	case RoleID:
		return uint16(r), nil
	case RoleKey:
		key, err := r.Bytes32()
		if err != nil {
			return nil, err
		}
		return common.Hash(key), nil
	}
	return nil, fmt.Errorf("unknown role type %T", r)
}
