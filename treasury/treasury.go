// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package treasury implements the FeeTreasury component (spec §4.5):
// the protocol fee rate and treasury sink address, admin-gated, the way
// vms/platformvm/reward.Config holds a handful of admin-set parameters
// alongside read accessors.
package treasury

import (
	"errors"
	"math/big"
	"sync"

	"go.uber.org/zap"

	"github.com/ava-labs/airoyalty/ids"
	"github.com/ava-labs/airoyalty/internal/events"
	"github.com/ava-labs/airoyalty/internal/logging"
	"github.com/ava-labs/airoyalty/roles"
)

// MaxFeeBps is the upper bound enforced by SetFeeBps (spec §6).
const MaxFeeBps = 1000

var (
	ErrFeeTooHigh  = errors.New("fee_bps exceeds MAX_FEE_BPS")
	ErrZeroAddress = errors.New("treasury sink cannot be the zero address")
)

// Treasury holds the admin-settable fee rate and sink.
type Treasury struct {
	gate   *roles.Gate
	events *events.Recorder
	log    logging.Logger

	lock     sync.RWMutex
	feeBps   uint16
	sink     ids.Principal
}

// New constructs a Treasury with the given initial fee and sink. The
// initial values bypass admin gating, mirroring construction-time
// configuration elsewhere in this engine.
func New(gate *roles.Gate, rec *events.Recorder, log logging.Logger, initialFeeBps uint16, initialSink ids.Principal) (*Treasury, error) {
	if log == nil {
		log = logging.NoLog{}
	}
	if initialFeeBps > MaxFeeBps {
		return nil, ErrFeeTooHigh
	}
	if initialSink.IsZero() {
		return nil, ErrZeroAddress
	}
	return &Treasury{
		gate:   gate,
		events: rec,
		log:    log,
		feeBps: initialFeeBps,
		sink:   initialSink,
	}, nil
}

// SetFeeBps updates the protocol fee. caller must hold DEFAULT_ADMIN.
func (t *Treasury) SetFeeBps(caller ids.Principal, newBps uint16) error {
	if err := t.gate.Require(roles.DefaultAdmin, caller); err != nil {
		return err
	}
	if newBps > MaxFeeBps {
		return ErrFeeTooHigh
	}

	t.lock.Lock()
	t.feeBps = newBps
	t.lock.Unlock()

	t.events.Emit(events.FeeUpdated{NewFeeBps: newBps})
	t.log.Info("fee updated", zap.Uint16("fee_bps", newBps))
	return nil
}

// SetTreasurySink updates the fee-recipient address. caller must hold
// DEFAULT_ADMIN.
func (t *Treasury) SetTreasurySink(caller ids.Principal, addr ids.Principal) error {
	if err := t.gate.Require(roles.DefaultAdmin, caller); err != nil {
		return err
	}
	if addr.IsZero() {
		return ErrZeroAddress
	}

	t.lock.Lock()
	t.sink = addr
	t.lock.Unlock()

	t.events.Emit(events.TreasuryUpdated{NewSink: addr})
	return nil
}

// FeeBps returns the current protocol fee, in basis points.
func (t *Treasury) FeeBps() uint16 {
	t.lock.RLock()
	defer t.lock.RUnlock()
	return t.feeBps
}

// TreasurySink returns the current fee-recipient address.
func (t *Treasury) TreasurySink() ids.Principal {
	t.lock.RLock()
	defer t.lock.RUnlock()
	return t.sink
}

// Split computes the fee-split distribution shared subroutine (spec
// §4.8): fee = floor(amount*feeBps/10000), remainder = amount-fee.
// Because feeBps <= MaxFeeBps and amount is unbounded, any residual
// from the floor division accrues to the remainder (the splitter),
// never to the fee (the treasury) — mirroring the delay-rounding style
// of vms/platformvm/reward.Split.
func Split(amount uint64, feeBps uint16) (fee uint64, remainder uint64) {
	feeBig := new(big.Int).SetUint64(amount)
	feeBig.Mul(feeBig, big.NewInt(int64(feeBps)))
	feeBig.Div(feeBig, big.NewInt(10_000))
	fee = feeBig.Uint64()
	remainder = amount - fee
	return fee, remainder
}
