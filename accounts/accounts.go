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


// Package accounts keeps the signing keys of the accounts that send role
// transactions, by name and by address.
package accounts

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var ErrUnknownAccount = errors.New("unknown account")

type Account struct {
	Name    string
	Address common.Address
	sigKey  *ecdsa.PrivateKey
}

// TransactOpts signs for the account on the given chain.
func (a *Account) TransactOpts(chainID *big.Int) (*bind.TransactOpts, error) {
	opts, err := bind.NewKeyedTransactorWithChainID(a.sigKey, chainID)
	if err != nil {
		return nil, fmt.Errorf("account %s: %w", a.Name, err)
	}
	return opts, nil
}

var (
	mu                sync.RWMutex
	accountsByAddress = map[common.Address]*Account{}
	accountsByName    = map[string]*Account{}
)

// NewAccount generates a fresh key under name, or returns the account
// already registered with that name.
func NewAccount(name string) *Account {
	mu.Lock()
	defer mu.Unlock()

	if account, ok := accountsByName[name]; ok {
		return account
	}

	sigKey, _ := crypto.GenerateKey()
	return register(name, sigKey)
}

// FromHex registers the hex encoded private key under name.
func FromHex(name, key string) (*Account, error) {
	sigKey, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(key), "0x"))
	if err != nil {
		return nil, fmt.Errorf("account %s: invalid key: %w", name, err)
	}

	mu.Lock()
	defer mu.Unlock()
	return register(name, sigKey), nil
}

func register(name string, sigKey *ecdsa.PrivateKey) *Account {
	account := &Account{
		Name:    name,
		Address: crypto.PubkeyToAddress(sigKey.PublicKey),
		sigKey:  sigKey,
	}

	accountsByAddress[account.Address] = account
	accountsByName[name] = account
	return account
}

func GetAccount(name string) (*Account, error) {
	mu.RLock()
	defer mu.RUnlock()

	if account, ok := accountsByName[name]; ok {
		return account, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownAccount, name)
}

func SigKey(address common.Address) *ecdsa.PrivateKey {
	mu.RLock()
	defer mu.RUnlock()

	if account, ok := accountsByAddress[address]; ok {
		return account.sigKey
	}
	return nil
}
