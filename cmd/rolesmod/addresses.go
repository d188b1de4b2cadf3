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


package main

import (
	"io"
	"os"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v2"

	"github.com/erigontech/rolesmod/addressbook"
)

var ChainFlag = cli.Uint64Flag{
	Name:  "chain",
	Usage: "Only list the contracts of this chain id",
}

var addressesCommand = &cli.Command{
	Name:  "addresses",
	Usage: "List the contracts of the addressbook",
	Flags: []cli.Flag{&ChainFlag},
	Action: func(ctx *cli.Context) error {
		book, err := loadBook(ctx)
		if err != nil {
			return err
		}
		var chains []uint64
		if ctx.IsSet(ChainFlag.Name) {
			chains = []uint64{ctx.Uint64(ChainFlag.Name)}
		}
		renderBook(os.Stdout, book, chains...)
		return nil
	},
}

// renderBook writes the contracts of chains, or of every chain of the book
// when none is given, as a table.
func renderBook(w io.Writer, book addressbook.Book, chains ...uint64) {
	if len(chains) == 0 {
		for chainID := range book {
			chains = append(chains, chainID)
		}
		sort.Slice(chains, func(i, j int) bool { return chains[i] < chains[j] })
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Chain", "Contract", "Address", "ABI"})
	for _, chainID := range chains {
		for _, name := range book.Names(chainID) {
			e := book[chainID][name]
			hasABI := "-"
			if e.ABI != "" {
				hasABI = "yes"
			}
			t.AppendRow(table.Row{chainID, name, e.Address.Hex(), hasABI})
		}
	}
	t.Render()
}
