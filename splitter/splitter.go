// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package splitter implements the SplitterFactory component (spec
// §4.4): one-shot materialization of a finalized ProvenanceGraph's
// contributor edges into an immutable payee/share table, plus the
// release accounting a PaymentSplitter exposes. The share-to-amount
// division mirrors vms/platformvm/reward.Split's floor-division,
// delay-rounding style.
package splitter

import (
	"crypto/sha256"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/ava-labs/airoyalty/ids"
	"github.com/ava-labs/airoyalty/internal/events"
	"github.com/ava-labs/airoyalty/internal/logging"
	"github.com/ava-labs/airoyalty/internal/mathutils"
	"github.com/ava-labs/airoyalty/internal/metrics"
	"github.com/ava-labs/airoyalty/provenance"
	"github.com/ava-labs/airoyalty/token"
)

var (
	ErrGraphNotFinalized   = errors.New("provenance graph is not finalized")
	ErrNoContributors      = errors.New("asset has no contributor edges")
	ErrSplitterAlreadyExists = errors.New("splitter already exists for this asset")
	ErrUnknownPayee        = errors.New("principal is not a payee of this splitter")
)

// Splitter is the materialized, immutable payee/share table for one
// finalized asset, together with its per-payee released-amount
// accounting (spec §4.4 PaymentSplitter).
//
// Normalization policy (spec §9, Open Question 2): if total_bps < 10000
// at creation time, shares are used as-is and amounts are computed as
// amount*share/totalShares — NOT rescaled to 10000. This means a
// contributor-edge sum below 10000 yields larger per-payee slices than
// the raw weights suggest, since the denominator shrinks along with the
// numerator. Implementations and asset owners should plan for this.
type Splitter struct {
	assetID     ids.AssetID
	address     ids.Principal
	payees      []ids.Principal
	shares      []uint16
	totalShares uint64

	lock     sync.Mutex
	released map[ids.Principal]uint64
}

// AddressFor derives the stable, deterministic principal a splitter for
// asset holds its token balance at. Escrow.Release transfers the
// post-fee remainder here; payees then pull their share via Release.
func AddressFor(asset ids.AssetID) ids.Principal {
	h := sha256.Sum256([]byte("airoyalty/splitter:" + asset.String()))
	p, _ := ids.PrincipalFromBytes(h[:20])
	return p
}

// Address returns the principal this splitter holds its balance at.
func (s *Splitter) Address() ids.Principal { return s.address }

// TotalShares returns the sum of all shares.
func (s *Splitter) TotalShares() uint64 { return s.totalShares }

// Payee returns the payee at index.
func (s *Splitter) Payee(index int) ids.Principal { return s.payees[index] }

// NumPayees returns the number of payees.
func (s *Splitter) NumPayees() int { return len(s.payees) }

// Shares returns payee's share, or 0 if payee is not part of this splitter.
func (s *Splitter) Shares(payee ids.Principal) uint16 {
	for i, p := range s.payees {
		if p == payee {
			return s.shares[i]
		}
	}
	return 0
}

// Released returns the amount already released to payee for token
// (this implementation tracks released amounts per payee across the
// single token the engine is configured with).
func (s *Splitter) Released(payee ids.Principal) uint64 {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.released[payee]
}

// Release pays payee their pro-rata share of everything this splitter
// has received, net of what they've already been released, per spec
// §4.4: with totalReceived = balance + sum of all amounts released so
// far, release(token, payee) = totalReceived*shares[payee]/totalShares,
// minus already-released.
func (s *Splitter) Release(tok token.Token, payee ids.Principal) (uint64, error) {
	share := uint64(0)
	found := false
	for i, p := range s.payees {
		if p == payee {
			share = uint64(s.shares[i])
			found = true
			break
		}
	}
	if !found {
		return 0, ErrUnknownPayee
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	balance := tok.BalanceOf(s.address)
	totalReceived := balance
	for _, r := range s.released {
		totalReceived += r
	}

	entitled, err := mathutils.Mul64(totalReceived, share)
	if err != nil {
		return 0, err
	}
	entitled /= s.totalShares

	already := s.released[payee]
	if entitled <= already {
		return 0, nil
	}
	owed := entitled - already

	if err := tok.Transfer(s.address, payee, owed); err != nil {
		return 0, err
	}
	s.released[payee] = already + owed
	return owed, nil
}

// Factory materializes Splitters from finalized ProvenanceGraphs,
// exactly once per asset (spec §4.4).
type Factory struct {
	graph   *provenance.Graph
	events  *events.Recorder
	metrics *metrics.Metrics
	log     logging.Logger

	lock      sync.RWMutex
	splitters map[ids.AssetID]*Splitter
}

// New constructs an empty Factory over graph.
func New(graph *provenance.Graph, rec *events.Recorder, m *metrics.Metrics, log logging.Logger) *Factory {
	if log == nil {
		log = logging.NoLog{}
	}
	return &Factory{
		graph:     graph,
		events:    rec,
		metrics:   m,
		log:       log,
		splitters: make(map[ids.AssetID]*Splitter),
	}
}

// CreateSplitter snapshots asset's finalized contributor edges into a
// new immutable Splitter. Per spec §4.4, this is strictly one-shot.
func (f *Factory) CreateSplitter(asset ids.AssetID) (*Splitter, error) {
	f.lock.Lock()
	defer f.lock.Unlock()

	if !f.graph.IsFinalized(asset) {
		return nil, ErrGraphNotFinalized
	}
	if _, ok := f.splitters[asset]; ok {
		return nil, ErrSplitterAlreadyExists
	}

	edges := f.graph.GetContributorEdges(asset)
	if len(edges) == 0 {
		return nil, ErrNoContributors
	}

	s := &Splitter{
		assetID:  asset,
		address:  AddressFor(asset),
		payees:   make([]ids.Principal, len(edges)),
		shares:   make([]uint16, len(edges)),
		released: make(map[ids.Principal]uint64),
	}
	var total uint64
	for i, e := range edges {
		s.payees[i] = e.Contributor
		s.shares[i] = e.WeightBps
		total += uint64(e.WeightBps)
	}
	s.totalShares = total

	f.splitters[asset] = s

	f.metrics.SplittersCreated.Inc()
	f.events.Emit(events.SplitterCreated{AssetID: asset, Payees: s.payees, Shares: s.shares})
	f.log.Info("splitter created", zap.Uint64("asset", uint64(asset)), zap.Uint64("total_shares", total))
	return s, nil
}

// SplitterOf returns the previously-created splitter for asset, if any.
func (f *Factory) SplitterOf(asset ids.AssetID) (*Splitter, bool) {
	f.lock.RLock()
	defer f.lock.RUnlock()
	s, ok := f.splitters[asset]
	return s, ok
}
