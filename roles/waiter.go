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
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ledgerwatch/log/v3"
)

type Waiter interface {
	Await(ctx context.Context, hash common.Hash) (*Outcome, error)
}

type WaiterFunc func(ctx context.Context, hash common.Hash) (*Outcome, error)

func (f WaiterFunc) Await(ctx context.Context, hash common.Hash) (*Outcome, error) {
	return f(ctx, hash)
}

// ReceiptWaiter polls for receipts every interval, giving up after attempts
// lookups. It never resubmits the transaction.
func ReceiptWaiter(client ReceiptFetcher, interval time.Duration, attempts uint64, logger log.Logger) Waiter {
	return WaiterFunc(func(ctx context.Context, hash common.Hash) (*Outcome, error) {
		return NewReceiptPoller(client, hash, attempts, logger).Await(ctx, interval)
	})
}

// ReceiptPoller tracks one transaction through Pending to Confirmed,
// Reverted or Timeout. Poll performs a single lookup so the poller can be
// driven by any scheduler; Await drives it with a fixed delay.
type ReceiptPoller struct {
	client      ReceiptFetcher
	hash        common.Hash
	maxAttempts uint64
	attempts    uint64
	status      Status
	receipt     *types.Receipt
	logger      log.Logger
}

func NewReceiptPoller(client ReceiptFetcher, hash common.Hash, maxAttempts uint64, logger log.Logger) *ReceiptPoller {
	if maxAttempts == 0 {
		maxAttempts = 1
	}
	if logger == nil {
		logger = log.Root()
	}
	return &ReceiptPoller{
		client:      client,
		hash:        hash,
		maxAttempts: maxAttempts,
		status:      Pending,
		logger:      logger,
	}
}

func (p *ReceiptPoller) Status() Status {
	return p.status
}

// Poll looks the receipt up once. Lookup errors use up the attempt like a
// missing receipt does and are returned for the caller to log.
func (p *ReceiptPoller) Poll(ctx context.Context) (Status, error) {
	if p.status.Terminal() {
		return p.status, nil
	}

	p.attempts++
	receipt, err := p.client.TransactionReceipt(ctx, p.hash)

	switch {
	case err == nil && receipt != nil:
		p.receipt = receipt
		if receipt.Status == types.ReceiptStatusSuccessful {
			p.status = Confirmed
		} else {
			p.status = Reverted
		}
		return p.status, nil
	case err != nil && !errors.Is(err, ethereum.NotFound):
		if p.attempts >= p.maxAttempts {
			p.status = Timeout
		}
		return p.status, err
	}

	if p.attempts >= p.maxAttempts {
		p.status = Timeout
	}
	return p.status, nil
}

func (p *ReceiptPoller) Outcome() *Outcome {
	return &Outcome{
		Status:   p.status,
		TxHash:   p.hash,
		Receipt:  p.receipt,
		Attempts: p.attempts,
	}
}

var errPending = errors.New("receipt pending")

// Await polls until a terminal status is reached or ctx is done. A done
// context returns the Pending outcome together with the context error.
func (p *ReceiptPoller) Await(ctx context.Context, interval time.Duration) (*Outcome, error) {
	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(interval), p.maxAttempts), ctx)

	err := backoff.Retry(func() error {
		status, err := p.Poll(ctx)
		if err != nil {
			p.logger.Warn("Receipt lookup failed", "txHash", p.hash, "attempt", p.attempts, "err", err)
		}
		if status.Terminal() {
			return nil
		}
		return errPending
	}, b)

	if err != nil && !p.status.Terminal() {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return p.Outcome(), ctxErr
		}
		p.status = Timeout
	}

	p.logger.Debug("Receipt polling finished", "txHash", p.hash, "status", p.status, "attempts", p.attempts)
	return p.Outcome(), nil
}
