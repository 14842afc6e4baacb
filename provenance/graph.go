// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package provenance implements the ProvenanceGraph component (spec
// §4.3): the mutable build-up, validation, and one-way finalization of
// an asset's contributor and parent edges. Each asset's edge list is
// held in a guarded map the way vms/platformvm/state.diff keeps
// copy-on-write maps of per-subnet state, mutated only after every
// precondition in an operation has been checked.
package provenance

import (
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/ava-labs/airoyalty/assetdir"
	"github.com/ava-labs/airoyalty/ids"
	"github.com/ava-labs/airoyalty/internal/events"
	"github.com/ava-labs/airoyalty/internal/logging"
	"github.com/ava-labs/airoyalty/internal/mathutils"
	"github.com/ava-labs/airoyalty/internal/metrics"
	"github.com/ava-labs/airoyalty/roles"
)

// BPSDenominator is the basis-point normalization base (spec §6).
const BPSDenominator = 10_000

var (
	ErrNotAssetOwner      = errors.New("caller is not the asset owner")
	ErrAssetDoesNotExist  = errors.New("asset does not exist")
	ErrGraphIsFinalized   = errors.New("provenance graph is already finalized")
	ErrNotAContributor    = errors.New("principal does not hold the contributor role")
	ErrInvalidWeight      = errors.New("weight_bps must be in [1, 10000]")
	ErrTotalWeightExceeded = errors.New("total_bps would exceed 10000")
)

// ContributorEdge assigns a fractional revenue share to a human
// contributor.
type ContributorEdge struct {
	Contributor ids.Principal
	WeightBps   uint16
}

// ParentEdge records provenance metadata linking an asset to a parent
// asset it derives from. Parent edges never feed the splitter (spec
// §4.3) — they exist purely for off-core discovery.
type ParentEdge struct {
	ParentAssetID ids.AssetID
	WeightBps     uint16
}

type assetState struct {
	contributorEdges []ContributorEdge
	parentEdges      []ParentEdge
	totalBps         uint32
	finalized        bool
}

// Graph is the ProvenanceGraph collaborator. Ownership of every mutation
// is enforced by querying dir.OwnerOf at call time, per spec §4.3.
type Graph struct {
	dir     assetdir.Directory
	gate    *roles.Gate
	events  *events.Recorder
	metrics *metrics.Metrics
	log     logging.Logger

	lock   sync.RWMutex
	assets map[ids.AssetID]*assetState
}

// New constructs an empty Graph.
func New(dir assetdir.Directory, gate *roles.Gate, rec *events.Recorder, m *metrics.Metrics, log logging.Logger) *Graph {
	if log == nil {
		log = logging.NoLog{}
	}
	return &Graph{
		dir:     dir,
		gate:    gate,
		events:  rec,
		metrics: m,
		log:     log,
		assets:  make(map[ids.AssetID]*assetState),
	}
}

func (g *Graph) stateFor(asset ids.AssetID) *assetState {
	if s, ok := g.assets[asset]; ok {
		return s
	}
	s := &assetState{}
	g.assets[asset] = s
	return s
}

// requireMutable runs the pause/ownership/existence/finalization checks
// common to both edge-adding operations and Finalize. Caller must hold
// g.lock.
func (g *Graph) requireMutable(caller ids.Principal, asset ids.AssetID) (*assetState, error) {
	if err := g.gate.RequireUnpaused(); err != nil {
		return nil, err
	}
	if !g.dir.Exists(asset) {
		return nil, ErrAssetDoesNotExist
	}
	owner, _ := g.dir.OwnerOf(asset)
	if owner != caller {
		return nil, ErrNotAssetOwner
	}
	s := g.stateFor(asset)
	if s.finalized {
		return nil, ErrGraphIsFinalized
	}
	return s, nil
}

// AddContributorEdge appends a (contributor, weight) edge to asset's
// graph, per spec §4.3.
func (g *Graph) AddContributorEdge(caller ids.Principal, asset ids.AssetID, contributor ids.Principal, weightBps uint16) error {
	g.lock.Lock()
	defer g.lock.Unlock()

	s, err := g.requireMutable(caller, asset)
	if err != nil {
		return err
	}
	if !g.gate.Has(roles.Contributor, contributor) {
		return ErrNotAContributor
	}
	if weightBps < 1 || weightBps > BPSDenominator {
		return ErrInvalidWeight
	}
	newTotal, err := mathutils.Add(uint64(s.totalBps), uint64(weightBps))
	if err != nil || newTotal > BPSDenominator {
		return ErrTotalWeightExceeded
	}

	s.contributorEdges = append(s.contributorEdges, ContributorEdge{Contributor: contributor, WeightBps: weightBps})
	s.totalBps = uint32(newTotal)

	g.metrics.ContributorEdgesAdded.Inc()
	g.events.Emit(events.ContributorEdgeAdded{AssetID: asset, Contributor: contributor, WeightBps: weightBps})
	g.log.Debug("contributor edge added", zap.Uint64("asset", uint64(asset)), zap.Uint32("total_bps", s.totalBps))
	return nil
}

// AddParentEdge appends a (parent_asset, weight) provenance-metadata
// edge to asset's graph, per spec §4.3. Both assets must exist.
func (g *Graph) AddParentEdge(caller ids.Principal, asset ids.AssetID, parentAsset ids.AssetID, weightBps uint16) error {
	g.lock.Lock()
	defer g.lock.Unlock()

	if !g.dir.Exists(parentAsset) {
		return ErrAssetDoesNotExist
	}
	s, err := g.requireMutable(caller, asset)
	if err != nil {
		return err
	}
	if weightBps < 1 || weightBps > BPSDenominator {
		return ErrInvalidWeight
	}
	newTotal, err := mathutils.Add(uint64(s.totalBps), uint64(weightBps))
	if err != nil || newTotal > BPSDenominator {
		return ErrTotalWeightExceeded
	}

	s.parentEdges = append(s.parentEdges, ParentEdge{ParentAssetID: parentAsset, WeightBps: weightBps})
	s.totalBps = uint32(newTotal)

	g.metrics.ParentEdgesAdded.Inc()
	g.events.Emit(events.ParentEdgeAdded{AssetID: asset, ParentAssetID: parentAsset, WeightBps: weightBps})
	return nil
}

// Finalize makes asset's graph permanently read-only. Per spec §9, a
// zero-edge graph may be finalized; create_splitter is the sole gate
// against an empty payee table.
func (g *Graph) Finalize(caller ids.Principal, asset ids.AssetID) error {
	g.lock.Lock()
	defer g.lock.Unlock()

	s, err := g.requireMutable(caller, asset)
	if err != nil {
		return err
	}
	s.finalized = true

	g.metrics.GraphsFinalized.Inc()
	g.events.Emit(events.GraphFinalized{AssetID: asset})
	g.log.Info("provenance graph finalized", zap.Uint64("asset", uint64(asset)))
	return nil
}

// GetContributorEdges returns a copy of asset's contributor edges.
func (g *Graph) GetContributorEdges(asset ids.AssetID) []ContributorEdge {
	g.lock.RLock()
	defer g.lock.RUnlock()
	s, ok := g.assets[asset]
	if !ok {
		return nil
	}
	out := make([]ContributorEdge, len(s.contributorEdges))
	copy(out, s.contributorEdges)
	return out
}

// GetParentEdges returns a copy of asset's parent edges.
func (g *Graph) GetParentEdges(asset ids.AssetID) []ParentEdge {
	g.lock.RLock()
	defer g.lock.RUnlock()
	s, ok := g.assets[asset]
	if !ok {
		return nil
	}
	out := make([]ParentEdge, len(s.parentEdges))
	copy(out, s.parentEdges)
	return out
}

// GetTotalBps returns asset's running total_bps across both edge kinds.
func (g *Graph) GetTotalBps(asset ids.AssetID) uint32 {
	g.lock.RLock()
	defer g.lock.RUnlock()
	s, ok := g.assets[asset]
	if !ok {
		return 0
	}
	return s.totalBps
}

// IsFinalized reports whether asset's graph has been finalized.
func (g *Graph) IsFinalized(asset ids.AssetID) bool {
	g.lock.RLock()
	defer g.lock.RUnlock()
	s, ok := g.assets[asset]
	return ok && s.finalized
}
