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


// Package addressbook maps chain ids and contract names to deployed
// addresses and optional JSON ABIs. Nothing resolves an address
// implicitly: callers pass a Book, either Default() or one loaded from a
// config file.
package addressbook

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

var (
	ErrUnknownContract = errors.New("unknown contract")
	ErrUnsupportedFile = errors.New("unsupported addressbook file")
)

const (
	Ethereum uint64 = 1
	Gnosis   uint64 = 100
)

const (
	MultiSend           = "MultiSend"
	BalancerVault       = "BalancerVault"
	BalancerQueries     = "BalancerQueries"
	AaveV3Pool          = "AaveV3Pool"
	UniswapV3Quoter     = "UniswapV3QuoterV2"
	UniswapV3SwapRouter = "UniswapV3SwapRouter02"
)

type Entry struct {
	Address common.Address
	// ABI is a JSON ABI, empty when the contract is only reached through
	// the built-in methods.
	ABI string
}

// ParseABI parses the entry ABI.
func (e Entry) ParseABI() (abi.ABI, error) {
	if e.ABI == "" {
		return abi.ABI{}, fmt.Errorf("no abi for %s", e.Address)
	}
	return abi.JSON(strings.NewReader(e.ABI))
}

type Book map[uint64]map[string]Entry

// Default returns a fresh book with the well known deployments.
func Default() Book {
	b := Book{}
	for _, chainID := range []uint64{Ethereum, Gnosis} {
		b.Set(chainID, MultiSend, Entry{Address: common.HexToAddress("0x40A2aCCbd92BCA938b02010E17A5b8929b49130D")})
		b.Set(chainID, BalancerVault, Entry{Address: common.HexToAddress("0xBA12222222228d8Ba445958a75a0704d566BF2C8")})
	}

	b.Set(Ethereum, BalancerQueries, Entry{Address: common.HexToAddress("0xE39B5e3B6D74016b2F6A9673D7d7493B6DF549d5")})
	b.Set(Ethereum, AaveV3Pool, Entry{Address: common.HexToAddress("0x87870Bca3F3fD6335C3F4ce8392D69350B4fA4E2")})
	b.Set(Ethereum, UniswapV3Quoter, Entry{Address: common.HexToAddress("0x61fFE014bA17989E743c5F6cB21bF9697530B21e")})
	b.Set(Ethereum, UniswapV3SwapRouter, Entry{Address: common.HexToAddress("0x68b3465833fb72A70ecDF485E0e4C7bD8665Fc45")})

	b.Set(Gnosis, BalancerQueries, Entry{Address: common.HexToAddress("0x0F3e0c4218b7b0108a3643cFe9D3ec0d4F57c54e")})
	b.Set(Gnosis, AaveV3Pool, Entry{Address: common.HexToAddress("0xb50201558B00496A145fE76f7424749556E326D8")})
	return b
}

func (b Book) Set(chainID uint64, name string, e Entry) {
	if b[chainID] == nil {
		b[chainID] = map[string]Entry{}
	}
	b[chainID][name] = e
}

func (b Book) Lookup(chainID uint64, name string) (Entry, error) {
	e, ok := b[chainID][name]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s on chain %d", ErrUnknownContract, name, chainID)
	}
	return e, nil
}

// Address is Lookup without the ABI.
func (b Book) Address(chainID uint64, name string) (common.Address, error) {
	e, err := b.Lookup(chainID, name)
	return e.Address, err
}

// Names lists the contracts known on a chain, sorted.
func (b Book) Names(chainID uint64) []string {
	names := make([]string, 0, len(b[chainID]))
	for name := range b[chainID] {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type fileEntry struct {
	Chain   uint64 `toml:"chain" yaml:"chain"`
	Name    string `toml:"name" yaml:"name"`
	Address string `toml:"address" yaml:"address"`
	ABI     string `toml:"abi" yaml:"abi"`
}

type file struct {
	Contracts []fileEntry `toml:"contracts" yaml:"contracts"`
}

// Load reads a .toml or .yaml file and merges its entries over b. Entries
// in the file replace entries of the same chain and name.
func (b Book) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var f file
	switch ext := filepath.Ext(path); ext {
	case ".toml":
		err = toml.Unmarshal(data, &f)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &f)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFile, path)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	for i, e := range f.Contracts {
		if e.Chain == 0 || e.Name == "" {
			return fmt.Errorf("%s: contract %d: chain and name are required", path, i)
		}
		if !common.IsHexAddress(e.Address) {
			return fmt.Errorf("%s: %s on chain %d: invalid address %q", path, e.Name, e.Chain, e.Address)
		}
		entry := Entry{Address: common.HexToAddress(e.Address), ABI: e.ABI}
		if entry.ABI != "" {
			if _, err := entry.ParseABI(); err != nil {
				return fmt.Errorf("%s: %s on chain %d: %w", path, e.Name, e.Chain, err)
			}
		}
		b.Set(e.Chain, e.Name, entry)
	}
	return nil
}

// Load returns Default() with the file at path merged over it.
func Load(path string) (Book, error) {
	b := Default()
	if err := b.Load(path); err != nil {
		return nil, err
	}
	return b, nil
}
