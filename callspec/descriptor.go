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
	"github.com/ethereum/go-ethereum/accounts/abi"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type descriptorEntry struct {
	Name            string      `json:"name"`
	Type            string      `json:"type"`
	StateMutability string      `json:"stateMutability"`
	Inputs          []fieldJSON `json:"inputs"`
	Outputs         []fieldJSON `json:"outputs"`
}

type fieldJSON struct {
	Name       string      `json:"name"`
	Type       string      `json:"type"`
	Components []fieldJSON `json:"components,omitempty"`
}

func toFieldJSON(m abi.ArgumentMarshaling) fieldJSON {
	f := fieldJSON{Name: m.Name, Type: m.Type}
	for _, c := range m.Components {
		f.Components = append(f.Components, toFieldJSON(c))
	}
	return f
}

func fieldsJSON(sig Signature) []fieldJSON {
	fields := make([]fieldJSON, len(sig))
	for i, a := range sig {
		fields[i] = toFieldJSON(a.Type.marshaling(a.Name))
	}
	return fields
}

// Descriptor renders the json interface fragment of a single function, in
// the format go-ethereum's abi.JSON reads. Functions with outputs are
// marked view.
func Descriptor(name string, inputs, outputs Signature) ([]byte, error) {
	mutability := "nonpayable"
	if len(outputs) > 0 {
		mutability = "view"
	}
	return descriptor(name, mutability, inputs, outputs)
}

func descriptor(name, mutability string, inputs, outputs Signature) ([]byte, error) {
	return json.Marshal([]descriptorEntry{{
		Name:            name,
		Type:            "function",
		StateMutability: mutability,
		Inputs:          fieldsJSON(inputs),
		Outputs:         fieldsJSON(outputs),
	}})
}
