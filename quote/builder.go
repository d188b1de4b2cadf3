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

package quote

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ledgerwatch/log/v3"

	"github.com/erigontech/rolesmod/callspec"
	"github.com/erigontech/rolesmod/metrics"
)

var (
	builtTotal    = metrics.GetOrCreateCounter(`rolesmod_quote_total{result="built"}`)
	mismatchTotal = metrics.GetOrCreateCounter(`rolesmod_quote_total{result="mismatch"}`)
)

type State uint8

const (
	Quoting State = iota
	Comparing
	Bounding
	Built
	MismatchFailed
)

func (s State) String() string {
	switch s {
	case Quoting:
		return "quoting"
	case Comparing:
		return "comparing"
	case Bounding:
		return "bounding"
	case Built:
		return "built"
	case MismatchFailed:
		return "mismatchFailed"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// Plan pairs the read only variant of an operation with the function
// building the state changing one.
//
// Extract picks from the decoded quote outputs the amounts compared with
// Declared and the amounts the bounds are derived from. Build receives one
// bound per bounded amount.
type Plan struct {
	Quote    callspec.CallSpec
	Declared []*big.Int
	Kind     BoundKind
	Extract  func(outputs []any) (checked, bounded []*big.Int, err error)
	Build    func(bounds []*big.Int) (callspec.CallSpec, error)
}

type Result struct {
	State     State
	Checked   []*big.Int
	Simulated []*big.Int
	Bounds    []*big.Int
	// Call is nil unless State is Built.
	Call *callspec.CallSpec
}

// Builder runs plans: it simulates the quote, compares it with the
// declared amounts and only then builds the bounded call.
type Builder struct {
	sim    Simulator
	logger log.Logger
}

func NewBuilder(sim Simulator, logger log.Logger) *Builder {
	if logger == nil {
		logger = log.Root()
	}
	return &Builder{sim: sim, logger: logger}
}

func (b *Builder) Run(ctx context.Context, plan Plan, s Slippage) (*Result, error) {
	if plan.Extract == nil || plan.Build == nil {
		return nil, errors.New("quote plan needs Extract and Build")
	}

	res := &Result{State: Quoting}

	ret, err := b.sim.Simulate(ctx, plan.Quote)
	if err != nil {
		return res, fmt.Errorf("quote: %w", err)
	}
	outputs, err := plan.Quote.DecodeOutputs(ret)
	if err != nil {
		return res, fmt.Errorf("quote: %w", err)
	}

	res.State = Comparing
	if res.Checked, res.Simulated, err = plan.Extract(outputs); err != nil {
		return res, fmt.Errorf("quote %s: %w", plan.Quote.Method(), err)
	}
	if len(res.Checked) != len(plan.Declared) {
		return res, fmt.Errorf("quote %s: %d declared amounts, %d simulated", plan.Quote.Method(), len(plan.Declared), len(res.Checked))
	}
	for i, declared := range plan.Declared {
		if !WithinTolerance(declared, res.Checked[i]) {
			res.State = MismatchFailed
			mismatchTotal.Inc()
			b.logger.Warn("Quote does not match declared amount", "method", plan.Quote.Method(), "index", i, "declared", declared, "simulated", res.Checked[i])
			return res, fmt.Errorf("%w: %s declared %s, simulated %s", ErrSimulationMismatch, plan.Quote.Method(), declared, res.Checked[i])
		}
	}

	res.State = Bounding
	res.Bounds = BoundEach(plan.Kind, res.Simulated, s)

	call, err := plan.Build(res.Bounds)
	if err != nil {
		return res, err
	}

	res.State = Built
	res.Call = &call
	builtTotal.Inc()
	b.logger.Debug("Quote bounded", "method", plan.Quote.Method(), "kind", plan.Kind, "slippage", s, "simulated", res.Simulated, "bounds", res.Bounds)
	return res, nil
}

// Uint returns outputs[i] as an integer.
func Uint(outputs []any, i int) (*big.Int, error) {
	if i < 0 || i >= len(outputs) {
		return nil, fmt.Errorf("output %d out of range (%d outputs)", i, len(outputs))
	}
	v, ok := outputs[i].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("output %d is %T, not an integer", i, outputs[i])
	}
	return v, nil
}

// Uints returns outputs[i] as an integer list.
func Uints(outputs []any, i int) ([]*big.Int, error) {
	if i < 0 || i >= len(outputs) {
		return nil, fmt.Errorf("output %d out of range (%d outputs)", i, len(outputs))
	}
	v, ok := outputs[i].([]*big.Int)
	if !ok {
		return nil, fmt.Errorf("output %d is %T, not an integer list", i, outputs[i])
	}
	return v, nil
}
