// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package events gives the external events named in spec §6
// (ContributorEdgeAdded, PaymentReleased, ...) a concrete in-process
// representation: typed structs appended to an in-process recorder,
// the way vms/platformvm/metrics turns abstract "marks" into concrete
// instrumented calls. The recorder itself does not log; components log
// separately through their own logger.
package events

import (
	"sync"

	"github.com/ava-labs/airoyalty/ids"
)

// Event is the common marker for every emitted event type.
type Event interface {
	Name() string
}

type ContributorEdgeAdded struct {
	AssetID     ids.AssetID
	Contributor ids.Principal
	WeightBps   uint16
}

func (ContributorEdgeAdded) Name() string { return "ContributorEdgeAdded" }

type ParentEdgeAdded struct {
	AssetID       ids.AssetID
	ParentAssetID ids.AssetID
	WeightBps     uint16
}

func (ParentEdgeAdded) Name() string { return "ParentEdgeAdded" }

type GraphFinalized struct {
	AssetID ids.AssetID
}

func (GraphFinalized) Name() string { return "GraphFinalized" }

type SplitterCreated struct {
	AssetID ids.AssetID
	Payees  []ids.Principal
	Shares  []uint16
}

func (SplitterCreated) Name() string { return "SplitterCreated" }

type ReceiptConsumed struct {
	AssetID ids.AssetID
	User    ids.Principal
	Amount  uint64
	Nonce   uint64
}

func (ReceiptConsumed) Name() string { return "ReceiptConsumed" }

type PaymentHeld struct {
	PaymentID uint64
	AssetID   ids.AssetID
	User      ids.Principal
	Amount    uint64
}

func (PaymentHeld) Name() string { return "PaymentHeld" }

type DisputeOpened struct {
	PaymentID uint64
}

func (DisputeOpened) Name() string { return "DisputeOpened" }

type PaymentReleased struct {
	PaymentID   uint64
	Destination string
}

func (PaymentReleased) Name() string { return "PaymentReleased" }

type PaymentRefunded struct {
	PaymentID uint64
	User      ids.Principal
}

func (PaymentRefunded) Name() string { return "PaymentRefunded" }

type FeeUpdated struct {
	NewFeeBps uint16
}

func (FeeUpdated) Name() string { return "FeeUpdated" }

type TreasuryUpdated struct {
	NewSink ids.Principal
}

func (TreasuryUpdated) Name() string { return "TreasuryUpdated" }

type Paused struct {
	By ids.Principal
}

func (Paused) Name() string { return "Paused" }

type Unpaused struct {
	By ids.Principal
}

func (Unpaused) Name() string { return "Unpaused" }

// Recorder is an in-process append-only event log. Components emit into
// it only on the success path of an operation, never on an error return,
// matching spec §7's "no partial success" propagation rule.
type Recorder struct {
	lock   sync.Mutex
	events []Event
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Emit appends e to the log.
func (r *Recorder) Emit(e Event) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.events = append(r.events, e)
}

// All returns a copy of every event recorded so far, oldest first.
func (r *Recorder) All() []Event {
	r.lock.Lock()
	defer r.lock.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}
