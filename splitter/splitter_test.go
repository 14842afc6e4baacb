// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package splitter

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ava-labs/airoyalty/assetdir"
	"github.com/ava-labs/airoyalty/ids"
	"github.com/ava-labs/airoyalty/internal/events"
	"github.com/ava-labs/airoyalty/internal/keychain"
	"github.com/ava-labs/airoyalty/internal/metrics"
	"github.com/ava-labs/airoyalty/provenance"
	"github.com/ava-labs/airoyalty/roles"
	"github.com/ava-labs/airoyalty/token"
)

func setup(t *testing.T) (*Factory, *provenance.Graph, ids.Principal, ids.Principal, ids.Principal) {
	t.Helper()
	owner, err := keychain.RandomPrincipal()
	require.NoError(t, err)
	c1, err := keychain.RandomPrincipal()
	require.NoError(t, err)
	c2, err := keychain.RandomPrincipal()
	require.NoError(t, err)

	dir := assetdir.NewInMemory()
	dir.Mint(ids.AssetID(1), owner)
	gate := roles.New(nil, owner)
	require.NoError(t, gate.Grant(owner, roles.Contributor, c1))
	require.NoError(t, gate.Grant(owner, roles.Contributor, c2))

	g := provenance.New(dir, gate, events.NewRecorder(), metrics.NewNoOp(), nil)
	f := New(g, events.NewRecorder(), metrics.NewNoOp(), nil)
	return f, g, owner, c1, c2
}

func TestCreateSplitterHappyPath(t *testing.T) {
	require := require.New(t)
	f, g, owner, c1, c2 := setup(t)

	require.NoError(g.AddContributorEdge(owner, ids.AssetID(1), c1, 8000))
	require.NoError(g.AddContributorEdge(owner, ids.AssetID(1), c2, 2000))
	require.NoError(g.Finalize(owner, ids.AssetID(1)))

	s, err := f.CreateSplitter(ids.AssetID(1))
	require.NoError(err)
	require.Equal(uint64(10000), s.TotalShares())
	require.Equal(uint16(8000), s.Shares(c1))
	require.Equal(uint16(2000), s.Shares(c2))
}

func TestCreateSplitterIsOneShot(t *testing.T) {
	require := require.New(t)
	f, g, owner, c1, _ := setup(t)

	require.NoError(g.AddContributorEdge(owner, ids.AssetID(1), c1, 10000))
	require.NoError(g.Finalize(owner, ids.AssetID(1)))

	_, err := f.CreateSplitter(ids.AssetID(1))
	require.NoError(err)

	_, err = f.CreateSplitter(ids.AssetID(1))
	require.ErrorIs(err, ErrSplitterAlreadyExists)
}

func TestCreateSplitterRequiresFinalizedNonEmptyGraph(t *testing.T) {
	require := require.New(t)
	f, g, owner, c1, _ := setup(t)

	_, err := f.CreateSplitter(ids.AssetID(1))
	require.ErrorIs(err, ErrGraphNotFinalized)

	require.NoError(g.Finalize(owner, ids.AssetID(1)))
	_, err = f.CreateSplitter(ids.AssetID(1))
	require.ErrorIs(err, ErrNoContributors)

	_ = c1
}

func TestReleaseProRata(t *testing.T) {
	require := require.New(t)
	f, g, owner, c1, c2 := setup(t)

	require.NoError(g.AddContributorEdge(owner, ids.AssetID(1), c1, 8000))
	require.NoError(g.AddContributorEdge(owner, ids.AssetID(1), c2, 2000))
	require.NoError(g.Finalize(owner, ids.AssetID(1)))
	s, err := f.CreateSplitter(ids.AssetID(1))
	require.NoError(err)

	ledger := token.NewLedger()
	ledger.Mint(s.Address(), 97_500_000)

	paid, err := s.Release(ledger, c1)
	require.NoError(err)
	require.Equal(uint64(78_000_000), paid)

	paid, err = s.Release(ledger, c2)
	require.NoError(err)
	require.Equal(uint64(19_500_000), paid)

	// Second release for an already-paid payee pays nothing further.
	paid, err = s.Release(ledger, c1)
	require.NoError(err)
	require.Equal(uint64(0), paid)
}

func TestReleaseUnknownPayee(t *testing.T) {
	require := require.New(t)
	f, g, owner, c1, _ := setup(t)
	require.NoError(g.AddContributorEdge(owner, ids.AssetID(1), c1, 10000))
	require.NoError(g.Finalize(owner, ids.AssetID(1)))
	s, err := f.CreateSplitter(ids.AssetID(1))
	require.NoError(err)

	ledger := token.NewLedger()
	outsider, err := keychain.RandomPrincipal()
	require.NoError(err)

	_, err = s.Release(ledger, outsider)
	require.ErrorIs(err, ErrUnknownPayee)
}
