// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package receipt implements the ReceiptVerifier component (spec
// §4.6): EIP-712 signature authentication of a UsageReceipt, nonce-based
// replay protection, and the fund pull that hands a verified payment
// off to Escrow. Grounded the same way internal/typeddata is: the wire
// format is fixed, so only the surrounding bookkeeping (nonces,
// deadlines, role gating) is generalized in the teacher's idiom.
package receipt

import (
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/ava-labs/airoyalty/escrow"
	"github.com/ava-labs/airoyalty/ids"
	"github.com/ava-labs/airoyalty/internal/events"
	"github.com/ava-labs/airoyalty/internal/logging"
	"github.com/ava-labs/airoyalty/internal/metrics"
	"github.com/ava-labs/airoyalty/internal/timer/mockable"
	"github.com/ava-labs/airoyalty/internal/typeddata"
	"github.com/ava-labs/airoyalty/roles"
	"github.com/ava-labs/airoyalty/splitter"
	"github.com/ava-labs/airoyalty/token"
)

var (
	ErrBadSignature    = errors.New("receipt signature does not recover to the claimed user")
	ErrReceiptExpired  = errors.New("receipt deadline has passed")
	ErrNonceReplayed   = errors.New("nonce has already been consumed")
	ErrNoSplitter      = errors.New("asset has no splitter; provenance graph must be finalized first")
)

// Verifier is the ReceiptVerifier collaborator: it authenticates a
// UsageReceipt, enforces strictly-increasing per-user nonces, pulls the
// receipt's amount from the user into escrow, and forwards it to
// Escrow.HoldPayment (spec §4.6).
type Verifier struct {
	gate     *roles.Gate
	splitter *splitter.Factory
	escrow   *escrow.Escrow
	tok      token.Token
	clock    *mockable.Clock
	events   *events.Recorder
	metrics  *metrics.Metrics
	log      logging.Logger

	domain typeddata.Domain
	self   ids.Principal

	lock   sync.Mutex
	nonces map[ids.Principal]uint64
}

// New constructs a Verifier fixed to domain and gated by self, the
// VERIFIER-role caller this instance signs off operations as when
// calling into Escrow.
func New(
	gate *roles.Gate,
	sf *splitter.Factory,
	esc *escrow.Escrow,
	tok token.Token,
	clock *mockable.Clock,
	rec *events.Recorder,
	m *metrics.Metrics,
	log logging.Logger,
	domain typeddata.Domain,
	self ids.Principal,
) *Verifier {
	if log == nil {
		log = logging.NoLog{}
	}
	return &Verifier{
		gate:     gate,
		splitter: sf,
		escrow:   esc,
		tok:      tok,
		clock:    clock,
		events:   rec,
		metrics:  m,
		log:      log,
		domain:   domain,
		self:     self,
		nonces:   make(map[ids.Principal]uint64),
	}
}

// NextNonce returns the next nonce user must sign, i.e. one past the
// last nonce this verifier has consumed for them.
func (v *Verifier) NextNonce(user ids.Principal) uint64 {
	v.lock.Lock()
	defer v.lock.Unlock()
	return v.nonces[user]
}

// Submit authenticates receipt against sig, enforces its deadline and
// nonce, pulls its amount from receipt.User into escrow custody, and
// opens an escrowed payment for it. Returns the new payment's id.
//
// Per spec §5, every check runs before any state mutation or external
// transfer, and the nonce is consumed before the fund pull; if the pull
// or the escrow hand-off fails, the nonce (and any pulled funds) are
// restored, so a rejected receipt leaves nonces, balances and escrow
// state untouched. Checks run in the order deadline, nonce, signature,
// splitter (spec §4.6) so a receipt violating more than one
// precondition at once always reports the same failure.
func (v *Verifier) Submit(receipt typeddata.UsageReceipt, sig []byte) (uint64, error) {
	if err := v.gate.RequireUnpaused(); err != nil {
		return 0, err
	}

	if v.clock.Unix() > receipt.Deadline {
		v.reject("expired")
		return 0, ErrReceiptExpired
	}

	v.lock.Lock()
	expected := v.nonces[receipt.User]
	v.lock.Unlock()
	if receipt.Nonce != expected {
		v.reject("replayed_nonce")
		return 0, ErrNonceReplayed
	}

	signer, err := typeddata.Recover(receipt.Digest(v.domain), sig)
	if err != nil {
		v.reject("bad_signature")
		return 0, err
	}
	if signer != receipt.User {
		v.reject("bad_signature")
		return 0, ErrBadSignature
	}

	s, ok := v.splitter.SplitterOf(receipt.AssetID)
	if !ok {
		v.reject("no_splitter")
		return 0, ErrNoSplitter
	}

	v.lock.Lock()
	if receipt.Nonce != v.nonces[receipt.User] {
		v.lock.Unlock()
		v.reject("replayed_nonce")
		return 0, ErrNonceReplayed
	}
	v.nonces[receipt.User] = receipt.Nonce + 1
	v.lock.Unlock()

	if err := v.tok.TransferFrom(v.self, receipt.User, v.escrow.Self(), receipt.Amount); err != nil {
		v.lock.Lock()
		if v.nonces[receipt.User] == receipt.Nonce+1 {
			v.nonces[receipt.User] = receipt.Nonce
		}
		v.lock.Unlock()
		v.reject("transfer_failed")
		return 0, err
	}

	id, err := v.escrow.HoldPayment(v.self, receipt.AssetID, receipt.User, receipt.Amount, s)
	if err != nil {
		if rerr := v.tok.Transfer(v.escrow.Self(), receipt.User, receipt.Amount); rerr != nil {
			return 0, errors.Join(err, rerr)
		}
		v.lock.Lock()
		if v.nonces[receipt.User] == receipt.Nonce+1 {
			v.nonces[receipt.User] = receipt.Nonce
		}
		v.lock.Unlock()
		return 0, err
	}

	v.metrics.ReceiptsVerified.Inc()
	v.events.Emit(events.ReceiptConsumed{AssetID: receipt.AssetID, User: receipt.User, Amount: receipt.Amount, Nonce: receipt.Nonce})
	v.log.Info("receipt consumed", zap.Uint64("asset", uint64(receipt.AssetID)), zap.Uint64("nonce", receipt.Nonce))
	return id, nil
}

func (v *Verifier) reject(reason string) {
	v.metrics.ReceiptsRejected.WithLabelValues(reason).Inc()
}
