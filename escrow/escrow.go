// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package escrow implements the Escrow component (spec §4.7): a
// time-locked hold with disputability, arbiter resolution, and
// fee-splitting release. Status transitions follow
// Held -> {Disputed, Released}, Disputed -> {Released, Refunded} with
// no skipping, the same discipline vms/platformvm/txs/executor applies
// to state mutation: every precondition is checked before any state
// changes or external transfer is issued (checks-effects-interactions,
// spec §5).
package escrow

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/ava-labs/airoyalty/ids"
	"github.com/ava-labs/airoyalty/internal/events"
	"github.com/ava-labs/airoyalty/internal/logging"
	"github.com/ava-labs/airoyalty/internal/metrics"
	"github.com/ava-labs/airoyalty/internal/timer/mockable"
	"github.com/ava-labs/airoyalty/roles"
	"github.com/ava-labs/airoyalty/splitter"
	"github.com/ava-labs/airoyalty/token"
	"github.com/ava-labs/airoyalty/treasury"
)

// Status is a payment's position in the Held/Disputed/Released/Refunded
// state machine (spec §4.7).
type Status uint8

const (
	Held Status = iota
	Disputed
	Released
	Refunded
)

func (s Status) String() string {
	switch s {
	case Held:
		return "Held"
	case Disputed:
		return "Disputed"
	case Released:
		return "Released"
	case Refunded:
		return "Refunded"
	default:
		return "Unknown"
	}
}

var (
	ErrNotUser      = errors.New("caller is not the payment's user")
	ErrInvalidStatus = errors.New("payment is not in the required status")
	ErrStillLocked  = errors.New("operation not permitted at this point of the dispute window")
	ErrNoSuchPayment = errors.New("no such payment")
)

// Payment is an EscrowedPayment (spec §3).
type Payment struct {
	AssetID     ids.AssetID
	User        ids.Principal
	Amount      uint64
	Splitter    *splitter.Splitter
	ReleaseTime uint64
	Status      Status
}

// Escrow is the Escrow collaborator. Self is the principal address this
// escrow instance holds pulled token balances at; ReceiptVerifier must
// pull funds to this address before calling HoldPayment.
type Escrow struct {
	gate     *roles.Gate
	treasury *treasury.Treasury
	tok      token.Token
	clock    *mockable.Clock
	events   *events.Recorder
	metrics  *metrics.Metrics
	log      logging.Logger

	self                 ids.Principal
	disputeWindowSeconds uint64

	lock          sync.Mutex
	nextPaymentID uint64
	payments      map[uint64]*Payment
}

// New constructs an Escrow. self is the address this instance's held
// balance is transferred from on release/refund.
func New(
	gate *roles.Gate,
	tr *treasury.Treasury,
	tok token.Token,
	clock *mockable.Clock,
	rec *events.Recorder,
	m *metrics.Metrics,
	log logging.Logger,
	self ids.Principal,
	disputeWindowSeconds uint64,
) *Escrow {
	if log == nil {
		log = logging.NoLog{}
	}
	return &Escrow{
		gate:                 gate,
		treasury:             tr,
		tok:                  tok,
		clock:                clock,
		events:               rec,
		metrics:              m,
		log:                  log,
		self:                 self,
		disputeWindowSeconds: disputeWindowSeconds,
		payments:             make(map[uint64]*Payment),
	}
}

// Self returns the address this escrow instance holds its balance at.
func (e *Escrow) Self() ids.Principal { return e.self }

// HoldPayment records a new escrowed payment and assigns its payment_id
// (spec §4.7). caller must hold VERIFIER; funds must already have been
// pulled to e.Self() by the caller (ReceiptVerifier).
func (e *Escrow) HoldPayment(caller ids.Principal, asset ids.AssetID, user ids.Principal, amount uint64, s *splitter.Splitter) (uint64, error) {
	if err := e.gate.Require(roles.Verifier, caller); err != nil {
		return 0, err
	}
	if err := e.gate.RequireUnpaused(); err != nil {
		return 0, err
	}

	e.lock.Lock()
	defer e.lock.Unlock()

	id := e.nextPaymentID
	e.nextPaymentID++

	p := &Payment{
		AssetID:     asset,
		User:        user,
		Amount:      amount,
		Splitter:    s,
		ReleaseTime: e.clock.Unix() + e.disputeWindowSeconds,
		Status:      Held,
	}
	e.payments[id] = p

	e.metrics.PaymentsHeld.Inc()
	e.events.Emit(events.PaymentHeld{PaymentID: id, AssetID: asset, User: user, Amount: amount})
	e.log.Info("payment held", zap.Uint64("payment_id", id), zap.Uint64("release_time", p.ReleaseTime))
	return id, nil
}

// OpenDispute lets the payer convert a still-held payment into a
// disputed one before its release time (spec §4.7).
func (e *Escrow) OpenDispute(caller ids.Principal, paymentID uint64) error {
	if err := e.gate.RequireUnpaused(); err != nil {
		return err
	}

	e.lock.Lock()
	defer e.lock.Unlock()

	p, ok := e.payments[paymentID]
	if !ok {
		return ErrNoSuchPayment
	}
	if caller != p.User {
		return ErrNotUser
	}
	if p.Status != Held {
		return ErrInvalidStatus
	}
	if e.clock.Unix() > p.ReleaseTime {
		return ErrStillLocked
	}

	p.Status = Disputed
	e.metrics.PaymentsDisputed.Inc()
	e.events.Emit(events.DisputeOpened{PaymentID: paymentID})
	return nil
}

// Release auto-releases a held payment past its release time to the
// fee-split distribution (spec §4.7, §4.8). Any caller may invoke it.
func (e *Escrow) Release(paymentID uint64) error {
	if err := e.gate.RequireUnpaused(); err != nil {
		return err
	}

	e.lock.Lock()
	defer e.lock.Unlock()

	p, ok := e.payments[paymentID]
	if !ok {
		return ErrNoSuchPayment
	}
	if p.Status != Held {
		return ErrInvalidStatus
	}
	if e.clock.Unix() < p.ReleaseTime {
		return ErrStillLocked
	}

	return e.distribute(paymentID, p)
}

// ResolveDispute lets the arbiter decide a disputed payment's fate
// (spec §4.7). If refundToUser, the full amount returns to the payer;
// otherwise the normal fee-split distribution runs.
func (e *Escrow) ResolveDispute(caller ids.Principal, paymentID uint64, refundToUser bool) error {
	if err := e.gate.Require(roles.Arbiter, caller); err != nil {
		return err
	}
	if err := e.gate.RequireUnpaused(); err != nil {
		return err
	}

	e.lock.Lock()
	defer e.lock.Unlock()

	p, ok := e.payments[paymentID]
	if !ok {
		return ErrNoSuchPayment
	}
	if p.Status != Disputed {
		return ErrInvalidStatus
	}

	if refundToUser {
		p.Status = Refunded
		if err := e.tok.Transfer(e.self, p.User, p.Amount); err != nil {
			p.Status = Disputed
			return err
		}
		e.metrics.PaymentsRefunded.Inc()
		e.events.Emit(events.PaymentRefunded{PaymentID: paymentID, User: p.User})
		return nil
	}

	return e.distribute(paymentID, p)
}

// distribute performs the fee-split distribution (spec §4.8): fee goes
// to the treasury sink, the remainder to the payment's splitter. Status
// flips to Released only after the effect is mutated, before the
// transfer, per checks-effects-interactions (spec §5). The two
// transfers cannot be made atomic against an adversarial token (spec
// §5), so if the fee leg lands but the remainder leg fails, the fee is
// reversed with a compensating transfer before the status write is
// rolled back — a retry of Release/ResolveDispute must not be able to
// pay the treasury twice.
func (e *Escrow) distribute(paymentID uint64, p *Payment) error {
	fee, remainder := treasury.Split(p.Amount, e.treasury.FeeBps())
	sink := e.treasury.TreasurySink()

	prevStatus := p.Status
	p.Status = Released

	if err := e.tok.Transfer(e.self, sink, fee); err != nil {
		p.Status = prevStatus
		return err
	}
	if err := e.tok.Transfer(e.self, p.Splitter.Address(), remainder); err != nil {
		p.Status = prevStatus
		if rerr := e.tok.Transfer(sink, e.self, fee); rerr != nil {
			return fmt.Errorf("remainder transfer failed (%w) and fee reversal failed (%v): payment %d requires manual reconciliation", err, rerr, paymentID)
		}
		return err
	}

	e.metrics.PaymentsReleased.Inc()
	e.events.Emit(events.PaymentReleased{PaymentID: paymentID, Destination: p.Splitter.Address().String()})
	e.log.Info("payment released", zap.Uint64("payment_id", paymentID), zap.Uint64("fee", fee), zap.Uint64("remainder", remainder))
	return nil
}

// GetPayment returns a copy of the recorded payment, for read-only
// inspection.
func (e *Escrow) GetPayment(paymentID uint64) (Payment, bool) {
	e.lock.Lock()
	defer e.lock.Unlock()
	p, ok := e.payments[paymentID]
	if !ok {
		return Payment{}, false
	}
	return *p, true
}
