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
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	lru "github.com/hashicorp/golang-lru/v2"
)

const selectorCacheSize = 1024

var selectors *lru.Cache[string, [4]byte]

func init() {
	var err error
	if selectors, err = lru.New[string, [4]byte](selectorCacheSize); err != nil {
		panic(err)
	}
}

// FlattenTypeString renders name(t1,(t2,t3)[],...), the form the function
// selector is hashed from.
func FlattenTypeString(name string, sig Signature) string {
	return name + "(" + sig.typeList() + ")"
}

func Selector(name string, sig Signature) [4]byte {
	return selectorOf(FlattenTypeString(name, sig))
}

func selectorOf(typeString string) [4]byte {
	if sel, ok := selectors.Get(typeString); ok {
		return sel
	}

	var sel [4]byte
	copy(sel[:], crypto.Keccak256([]byte(typeString))[:4])
	selectors.Add(typeString, sel)
	return sel
}

// ParseTypeString is the structural inverse of FlattenTypeString. Names are
// not part of the flattened form, so arguments come back as arg0, arg1...
func ParseTypeString(s string) (string, Signature, error) {
	open := strings.IndexByte(s, '(')
	if open <= 0 || !strings.HasSuffix(s, ")") {
		return "", nil, fmt.Errorf("%w: %q", ErrInvalidSignature, s)
	}

	p := &typeParser{src: s, pos: open}
	sig, err := p.tuple()
	if err != nil {
		return "", nil, err
	}
	if p.pos != len(s) {
		return "", nil, fmt.Errorf("%w: trailing input at %d in %q", ErrInvalidSignature, p.pos, s)
	}

	return s[:open], sig, nil
}

type typeParser struct {
	src string
	pos int
}

func (p *typeParser) errorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s at %d in %q", ErrInvalidSignature, fmt.Sprintf(format, args...), p.pos, p.src)
}

func (p *typeParser) tuple() (Signature, error) {
	if p.pos >= len(p.src) || p.src[p.pos] != '(' {
		return nil, p.errorf("expected (")
	}
	p.pos++

	var sig Signature
	if p.pos < len(p.src) && p.src[p.pos] == ')' {
		p.pos++
		return sig, nil
	}

	for {
		t, err := p.typ()
		if err != nil {
			return nil, err
		}
		sig = append(sig, Arg{Name: "arg" + strconv.Itoa(len(sig)), Type: t})

		if p.pos >= len(p.src) {
			return nil, p.errorf("unterminated tuple")
		}
		switch p.src[p.pos] {
		case ',':
			p.pos++
		case ')':
			p.pos++
			return sig, nil
		default:
			return nil, p.errorf("unexpected %q", p.src[p.pos])
		}
	}
}

func (p *typeParser) typ() (ArgType, error) {
	var t ArgType

	if p.pos < len(p.src) && p.src[p.pos] == '(' {
		comps, err := p.tuple()
		if err != nil {
			return ArgType{}, err
		}
		t = Tuple(comps...)
	} else {
		start := p.pos
		for p.pos < len(p.src) && isIdentByte(p.src[p.pos]) {
			p.pos++
		}
		if start == p.pos {
			return ArgType{}, p.errorf("expected type")
		}
		t = Primitive(p.src[start:p.pos])
	}

	for p.pos < len(p.src) && p.src[p.pos] == '[' {
		end := strings.IndexByte(p.src[p.pos:], ']')
		if end < 0 {
			return ArgType{}, p.errorf("unterminated array")
		}
		dim := p.src[p.pos+1 : p.pos+end]
		p.pos += end + 1

		if dim == "" {
			t = ArrayOf(t)
			continue
		}
		n, err := strconv.Atoi(dim)
		if err != nil || n <= 0 {
			return ArgType{}, p.errorf("bad array length %q", dim)
		}
		t = FixedArrayOf(t, n)
	}

	return t, nil
}

func isIdentByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_'
}
