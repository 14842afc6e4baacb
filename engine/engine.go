// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package engine wires the seven collaborators (RolesGate,
// AssetDirectory, ProvenanceGraph, SplitterFactory, FeeTreasury,
// ReceiptVerifier, Escrow) into a single construction surface, the way
// node.Node wires chain managers, VMs and the API server behind one
// New/constructor call instead of making every caller assemble the
// graph by hand.
package engine

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ava-labs/airoyalty/assetdir"
	"github.com/ava-labs/airoyalty/escrow"
	"github.com/ava-labs/airoyalty/ids"
	"github.com/ava-labs/airoyalty/internal/events"
	"github.com/ava-labs/airoyalty/internal/logging"
	"github.com/ava-labs/airoyalty/internal/metrics"
	"github.com/ava-labs/airoyalty/internal/timer/mockable"
	"github.com/ava-labs/airoyalty/internal/typeddata"
	"github.com/ava-labs/airoyalty/provenance"
	"github.com/ava-labs/airoyalty/receipt"
	"github.com/ava-labs/airoyalty/roles"
	"github.com/ava-labs/airoyalty/splitter"
	"github.com/ava-labs/airoyalty/token"
	"github.com/ava-labs/airoyalty/treasury"
)

// Config fixes the construction-time parameters of an Engine.
type Config struct {
	Admin                ids.Principal
	VerifierSelf          ids.Principal
	EscrowSelf            ids.Principal
	TreasurySink          ids.Principal
	InitialFeeBps         uint16
	DisputeWindowSeconds  uint64
	EIP712Name            string
	EIP712Version         string
	ChainID               uint64
	MetricsNamespace      string
	// Registerer receives the engine's prometheus collectors. A fresh
	// registry is used if nil.
	Registerer prometheus.Registerer
}

// Engine is the assembled royalty-sharing core: every component spec
// §4 names, constructed against the same RolesGate, event recorder,
// metrics registry and logger.
type Engine struct {
	Gate      *roles.Gate
	Directory *assetdir.InMemory
	Graph     *provenance.Graph
	Splitters *splitter.Factory
	Treasury  *treasury.Treasury
	Verifier  *receipt.Verifier
	Escrow    *escrow.Escrow

	Token   token.Token
	Clock   *mockable.Clock
	Events  *events.Recorder
	Metrics *metrics.Metrics
	Log     logging.Logger
}

// New assembles an Engine. tok is the external payment-token
// collaborator (spec §1); log and clock may be nil to get a no-op
// logger and a real wall clock respectively.
func New(cfg Config, tok token.Token, log logging.Logger, clock *mockable.Clock) (*Engine, error) {
	if log == nil {
		log = logging.NoLog{}
	}
	if clock == nil {
		clock = &mockable.Clock{}
	}

	reg := cfg.Registerer
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m, err := metrics.New(cfg.MetricsNamespace, reg)
	if err != nil {
		return nil, err
	}

	rec := events.NewRecorder()
	gate := roles.New(log, cfg.Admin)
	if !cfg.Admin.IsZero() && !cfg.VerifierSelf.IsZero() {
		// VerifierSelf is the engine's own fund-pulling identity, not an
		// external operator; it is bootstrap-granted VERIFIER the same
		// way cfg.Admin is bootstrap-granted DEFAULT_ADMIN, so the engine
		// is immediately able to accept usage receipts.
		if err := gate.Grant(cfg.Admin, roles.Verifier, cfg.VerifierSelf); err != nil {
			return nil, err
		}
	}
	dir := assetdir.NewInMemory()
	graph := provenance.New(dir, gate, rec, m, log)
	splitters := splitter.New(graph, rec, m, log)

	tr, err := treasury.New(gate, rec, log, cfg.InitialFeeBps, cfg.TreasurySink)
	if err != nil {
		return nil, err
	}

	esc := escrow.New(gate, tr, tok, clock, rec, m, log, cfg.EscrowSelf, cfg.DisputeWindowSeconds)

	domain := typeddata.Domain{
		Name:              cfg.EIP712Name,
		Version:           cfg.EIP712Version,
		ChainID:           cfg.ChainID,
		VerifyingContract: cfg.VerifierSelf,
	}
	verifier := receipt.New(gate, splitters, esc, tok, clock, rec, m, log, domain, cfg.VerifierSelf)

	return &Engine{
		Gate:      gate,
		Directory: dir,
		Graph:     graph,
		Splitters: splitters,
		Treasury:  tr,
		Verifier:  verifier,
		Escrow:    esc,
		Token:     tok,
		Clock:     clock,
		Events:    rec,
		Metrics:   m,
		Log:       log,
	}, nil
}

// PayForUsage drives the full verify -> hold pipeline for a signed
// UsageReceipt (spec §4.6/§4.7): authenticate, pull funds, and open an
// escrowed payment. Call Escrow.Release once the dispute window has
// elapsed to complete distribution.
func (e *Engine) PayForUsage(r typeddata.UsageReceipt, sig []byte) (uint64, error) {
	return e.Verifier.Submit(r, sig)
}
