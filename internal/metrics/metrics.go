// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package metrics exposes the prometheus counters the engine's
// components increment on each operation, grounded on the
// vms/platformvm/metrics.Metrics "mark" pattern: a small struct of
// plain counter fields, backed by real prometheus collectors registered
// once at construction.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics is the surface every component calls into on completed
// operations. A nil *Metrics is never passed around; use NewNoOp for
// callers that don't want to register collectors.
type Metrics struct {
	ContributorEdgesAdded prometheus.Counter
	ParentEdgesAdded      prometheus.Counter
	GraphsFinalized       prometheus.Counter
	SplittersCreated      prometheus.Counter
	ReceiptsVerified      prometheus.Counter
	ReceiptsRejected      *prometheus.CounterVec
	PaymentsHeld          prometheus.Counter
	PaymentsDisputed      prometheus.Counter
	PaymentsReleased      prometheus.Counter
	PaymentsRefunded      prometheus.Counter
}

// New registers a fresh set of collectors against reg and returns the
// handle components call into.
func New(namespace string, reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		ContributorEdgesAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "contributor_edges_added_total",
			Help: "Number of contributor edges added to provenance graphs.",
		}),
		ParentEdgesAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "parent_edges_added_total",
			Help: "Number of parent edges added to provenance graphs.",
		}),
		GraphsFinalized: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "graphs_finalized_total",
			Help: "Number of provenance graphs finalized.",
		}),
		SplittersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "splitters_created_total",
			Help: "Number of payment splitters materialized.",
		}),
		ReceiptsVerified: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "receipts_verified_total",
			Help: "Number of usage receipts accepted.",
		}),
		ReceiptsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "receipts_rejected_total",
			Help: "Number of usage receipts rejected, by reason.",
		}, []string{"reason"}),
		PaymentsHeld: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "payments_held_total",
			Help: "Number of payments placed into escrow.",
		}),
		PaymentsDisputed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "payments_disputed_total",
			Help: "Number of payments disputed.",
		}),
		PaymentsReleased: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "payments_released_total",
			Help: "Number of payments released to a splitter and treasury.",
		}),
		PaymentsRefunded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "payments_refunded_total",
			Help: "Number of payments refunded to the payer.",
		}),
	}

	for _, c := range []prometheus.Collector{
		m.ContributorEdgesAdded,
		m.ParentEdgesAdded,
		m.GraphsFinalized,
		m.SplittersCreated,
		m.ReceiptsVerified,
		m.ReceiptsRejected,
		m.PaymentsHeld,
		m.PaymentsDisputed,
		m.PaymentsReleased,
		m.PaymentsRefunded,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// NewNoOp returns a Metrics whose collectors are registered only with a
// fresh private registry that nothing exposes, safe for tests and
// callers that don't care about observability.
func NewNoOp() *Metrics {
	m, err := New("airoyalty_noop", prometheus.NewRegistry())
	if err != nil {
		panic(err)
	}
	return m
}
