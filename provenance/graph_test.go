// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package provenance

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ava-labs/airoyalty/assetdir"
	"github.com/ava-labs/airoyalty/ids"
	"github.com/ava-labs/airoyalty/internal/events"
	"github.com/ava-labs/airoyalty/internal/keychain"
	"github.com/ava-labs/airoyalty/internal/metrics"
	"github.com/ava-labs/airoyalty/roles"
)

type fixture struct {
	graph *Graph
	dir   *assetdir.InMemory
	gate  *roles.Gate
	owner ids.Principal
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	owner, err := keychain.RandomPrincipal()
	require.NoError(t, err)

	dir := assetdir.NewInMemory()
	gate := roles.New(nil, owner)
	g := New(dir, gate, events.NewRecorder(), metrics.NewNoOp(), nil)
	return &fixture{graph: g, dir: dir, gate: gate, owner: owner}
}

func (f *fixture) newContributor(t *testing.T) ids.Principal {
	t.Helper()
	p, err := keychain.RandomPrincipal()
	require.NoError(t, err)
	require.NoError(t, f.gate.Grant(f.owner, roles.Contributor, p))
	return p
}

func TestAddContributorEdgeHappyPath(t *testing.T) {
	require := require.New(t)
	f := newFixture(t)
	f.dir.Mint(ids.AssetID(1), f.owner)
	c1 := f.newContributor(t)

	require.NoError(f.graph.AddContributorEdge(f.owner, ids.AssetID(1), c1, 8000))
	require.Equal(uint32(8000), f.graph.GetTotalBps(ids.AssetID(1)))

	edges := f.graph.GetContributorEdges(ids.AssetID(1))
	require.Len(edges, 1)
	require.Equal(c1, edges[0].Contributor)
	require.Equal(uint16(8000), edges[0].WeightBps)
}

func TestAddContributorEdgeErrors(t *testing.T) {
	require := require.New(t)
	f := newFixture(t)
	f.dir.Mint(ids.AssetID(1), f.owner)
	c1 := f.newContributor(t)

	require.ErrorIs(f.graph.AddContributorEdge(f.owner, ids.AssetID(2), c1, 100), ErrAssetDoesNotExist)

	other, err := keychain.RandomPrincipal()
	require.NoError(err)
	require.ErrorIs(f.graph.AddContributorEdge(other, ids.AssetID(1), c1, 100), ErrNotAssetOwner)

	notContributor, err := keychain.RandomPrincipal()
	require.NoError(err)
	require.ErrorIs(f.graph.AddContributorEdge(f.owner, ids.AssetID(1), notContributor, 100), ErrNotAContributor)

	require.ErrorIs(f.graph.AddContributorEdge(f.owner, ids.AssetID(1), c1, 0), ErrInvalidWeight)
	require.ErrorIs(f.graph.AddContributorEdge(f.owner, ids.AssetID(1), c1, 10001), ErrInvalidWeight)
}

func TestTotalWeightExceeded(t *testing.T) {
	require := require.New(t)
	f := newFixture(t)
	f.dir.Mint(ids.AssetID(1), f.owner)
	c1 := f.newContributor(t)
	c2 := f.newContributor(t)

	require.NoError(f.graph.AddContributorEdge(f.owner, ids.AssetID(1), c1, 6000))
	err := f.graph.AddContributorEdge(f.owner, ids.AssetID(1), c2, 4001)
	require.ErrorIs(err, ErrTotalWeightExceeded)
	require.Equal(uint32(6000), f.graph.GetTotalBps(ids.AssetID(1)))
}

func TestFinalizeLocksGraph(t *testing.T) {
	require := require.New(t)
	f := newFixture(t)
	f.dir.Mint(ids.AssetID(1), f.owner)
	c1 := f.newContributor(t)

	require.NoError(f.graph.AddContributorEdge(f.owner, ids.AssetID(1), c1, 100))
	require.NoError(f.graph.Finalize(f.owner, ids.AssetID(1)))
	require.True(f.graph.IsFinalized(ids.AssetID(1)))

	err := f.graph.AddContributorEdge(f.owner, ids.AssetID(1), c1, 100)
	require.ErrorIs(err, ErrGraphIsFinalized)
}

func TestFinalizeEmptyGraphPermitted(t *testing.T) {
	require := require.New(t)
	f := newFixture(t)
	f.dir.Mint(ids.AssetID(1), f.owner)

	require.NoError(f.graph.Finalize(f.owner, ids.AssetID(1)))
	require.True(f.graph.IsFinalized(ids.AssetID(1)))
	require.Empty(f.graph.GetContributorEdges(ids.AssetID(1)))
}

func TestParentEdgeDoesNotGateOnContributorRole(t *testing.T) {
	require := require.New(t)
	f := newFixture(t)
	f.dir.Mint(ids.AssetID(1), f.owner)
	f.dir.Mint(ids.AssetID(2), f.owner)

	require.NoError(f.graph.AddParentEdge(f.owner, ids.AssetID(1), ids.AssetID(2), 500))
	edges := f.graph.GetParentEdges(ids.AssetID(1))
	require.Len(edges, 1)
	require.Equal(ids.AssetID(2), edges[0].ParentAssetID)
}
