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

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

var (
	ErrPermissionDenied    = errors.New("permission denied")
	ErrReceiptTimeout      = errors.New("receipt not found in time")
	ErrTransactionReverted = errors.New("transaction reverted")
	ErrNoMultiSend         = errors.New("no multisend contract configured")
	ErrMissingTransactOpts = errors.New("missing transact opts")
	ErrBaseFeeNotAvailable = errors.New("latest header has no base fee")
	ErrAccountMismatch     = errors.New("role account differs from signer")
)

type Status int

const (
	Pending Status = iota
	Confirmed
	Reverted
	Timeout
	Denied
)

func (s Status) String() string {
	switch s {
	case Pending:
		return "pending"
	case Confirmed:
		return "confirmed"
	case Reverted:
		return "reverted"
	case Timeout:
		return "timeout"
	case Denied:
		return "denied"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

func (s Status) Terminal() bool {
	return s != Pending
}

// CheckResult is the verdict of a static simulation. A denial is an
// expected outcome, not an error.
type CheckResult struct {
	Allowed bool
	Reason  string
}

// Outcome is the result of Send. Timeout means the transaction state is
// unknown: it may still be mined.
type Outcome struct {
	Status   Status
	TxHash   common.Hash
	Receipt  *types.Receipt
	Reason   string
	Attempts uint64
}

// Err maps non successful outcomes to ErrPermissionDenied,
// ErrReceiptTimeout or ErrTransactionReverted.
func (o *Outcome) Err() error {
	switch o.Status {
	case Confirmed:
		return nil
	case Denied:
		return fmt.Errorf("%w: %s", ErrPermissionDenied, o.Reason)
	case Timeout:
		return fmt.Errorf("%w: %s after %d attempts", ErrReceiptTimeout, o.TxHash, o.Attempts)
	case Reverted:
		return fmt.Errorf("%w: %s", ErrTransactionReverted, o.TxHash)
	default:
		return fmt.Errorf("transaction %s still pending", o.TxHash)
	}
}
