// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ava-labs/airoyalty/escrow"
	"github.com/ava-labs/airoyalty/ids"
	"github.com/ava-labs/airoyalty/internal/keychain"
	"github.com/ava-labs/airoyalty/internal/timer/mockable"
	"github.com/ava-labs/airoyalty/internal/typeddata"
	"github.com/ava-labs/airoyalty/provenance"
	"github.com/ava-labs/airoyalty/receipt"
	"github.com/ava-labs/airoyalty/roles"
	"github.com/ava-labs/airoyalty/splitter"
	"github.com/ava-labs/airoyalty/token"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type world struct {
	e            *Engine
	ledger       *token.Ledger
	admin        ids.Principal
	verifierSelf ids.Principal
	domain       typeddata.Domain
	c1, c2       ids.Principal
	user         *keychain.Key
	asset        ids.AssetID
}

func newWorld(t *testing.T) *world {
	t.Helper()
	admin, err := keychain.RandomPrincipal()
	require.NoError(t, err)
	verifierSelf, err := keychain.RandomPrincipal()
	require.NoError(t, err)
	escrowSelf, err := keychain.RandomPrincipal()
	require.NoError(t, err)
	sink, err := keychain.RandomPrincipal()
	require.NoError(t, err)
	c1, err := keychain.RandomPrincipal()
	require.NoError(t, err)
	c2, err := keychain.RandomPrincipal()
	require.NoError(t, err)
	userKey, err := keychain.NewKey()
	require.NoError(t, err)

	ledger := token.NewLedger()
	clock := &mockable.Clock{}
	clock.Set(time.Unix(2_000_000, 0))

	cfg := Config{
		Admin:                admin,
		VerifierSelf:         verifierSelf,
		EscrowSelf:           escrowSelf,
		TreasurySink:         sink,
		InitialFeeBps:        250,
		DisputeWindowSeconds: 3600,
		EIP712Name:           "airoyalty",
		EIP712Version:        "1",
		ChainID:              1,
		MetricsNamespace:     "airoyalty_test",
	}
	e, err := New(cfg, ledger, nil, clock)
	require.NoError(t, err)

	require.NoError(t, e.Gate.Grant(admin, roles.Verifier, verifierSelf))
	require.NoError(t, e.Gate.Grant(admin, roles.Contributor, c1))
	require.NoError(t, e.Gate.Grant(admin, roles.Contributor, c2))

	asset := ids.AssetID(1)
	e.Directory.Mint(asset, admin)

	ledger.Mint(userKey.Principal(), 1_000_000_000)
	ledger.Approve(userKey.Principal(), verifierSelf, 1_000_000_000)

	domain := typeddata.Domain{Name: "airoyalty", Version: "1", ChainID: 1, VerifyingContract: verifierSelf}

	return &world{
		e: e, ledger: ledger, admin: admin, verifierSelf: verifierSelf, domain: domain,
		c1: c1, c2: c2, user: userKey, asset: asset,
	}
}

func (w *world) sign(t *testing.T, r typeddata.UsageReceipt) []byte {
	t.Helper()
	sig, err := w.user.Sign(r.Digest(w.domain))
	require.NoError(t, err)
	return sig
}

func TestHappyPathEndToEnd(t *testing.T) {
	require := require.New(t)
	w := newWorld(t)

	require.NoError(w.e.Graph.AddContributorEdge(w.admin, w.asset, w.c1, 8000))
	require.NoError(w.e.Graph.AddContributorEdge(w.admin, w.asset, w.c2, 2000))
	require.NoError(w.e.Graph.Finalize(w.admin, w.asset))
	s, err := w.e.Splitters.CreateSplitter(w.asset)
	require.NoError(err)

	r := typeddata.UsageReceipt{
		AssetID: w.asset, Amount: 100_000_000, User: w.user.Principal(),
		Nonce: w.e.Verifier.NextNonce(w.user.Principal()), Deadline: w.e.Clock.Unix() + 100,
	}
	paymentID, err := w.e.PayForUsage(r, w.sign(t, r))
	require.NoError(err)

	w.e.Clock.Advance(3601 * time.Second)
	require.NoError(w.e.Escrow.Release(paymentID))

	require.Equal(uint64(2_500_000), w.ledger.BalanceOf(w.e.Treasury.TreasurySink()))
	require.Equal(uint64(97_500_000), w.ledger.BalanceOf(s.Address()))

	paid, err := s.Release(w.ledger, w.c1)
	require.NoError(err)
	require.Equal(uint64(78_000_000), paid)
	paid, err = s.Release(w.ledger, w.c2)
	require.NoError(err)
	require.Equal(uint64(19_500_000), paid)
}

func TestExpiredReceiptRejected(t *testing.T) {
	require := require.New(t)
	w := newWorld(t)

	require.NoError(w.e.Graph.AddContributorEdge(w.admin, w.asset, w.c1, 10000))
	require.NoError(w.e.Graph.Finalize(w.admin, w.asset))
	_, err := w.e.Splitters.CreateSplitter(w.asset)
	require.NoError(err)

	r := typeddata.UsageReceipt{
		AssetID: w.asset, Amount: 1_000_000, User: w.user.Principal(),
		Nonce: 0, Deadline: w.e.Clock.Unix() - 1,
	}
	_, err = w.e.PayForUsage(r, w.sign(t, r))
	require.ErrorIs(err, receipt.ErrReceiptExpired)
}

func TestReplayedReceiptRejected(t *testing.T) {
	require := require.New(t)
	w := newWorld(t)

	require.NoError(w.e.Graph.AddContributorEdge(w.admin, w.asset, w.c1, 10000))
	require.NoError(w.e.Graph.Finalize(w.admin, w.asset))
	_, err := w.e.Splitters.CreateSplitter(w.asset)
	require.NoError(err)

	r := typeddata.UsageReceipt{
		AssetID: w.asset, Amount: 1_000_000, User: w.user.Principal(),
		Nonce: 0, Deadline: w.e.Clock.Unix() + 100,
	}
	sig := w.sign(t, r)

	_, err = w.e.PayForUsage(r, sig)
	require.NoError(err)

	_, err = w.e.PayForUsage(r, sig)
	require.ErrorIs(err, receipt.ErrNonceReplayed)
}

func TestDisputeThenArbiterRefund(t *testing.T) {
	require := require.New(t)
	w := newWorld(t)

	require.NoError(w.e.Graph.AddContributorEdge(w.admin, w.asset, w.c1, 10000))
	require.NoError(w.e.Graph.Finalize(w.admin, w.asset))
	_, err := w.e.Splitters.CreateSplitter(w.asset)
	require.NoError(err)

	r := typeddata.UsageReceipt{
		AssetID: w.asset, Amount: 5_000_000, User: w.user.Principal(),
		Nonce: 0, Deadline: w.e.Clock.Unix() + 100,
	}
	paymentID, err := w.e.PayForUsage(r, w.sign(t, r))
	require.NoError(err)

	require.NoError(w.e.Escrow.OpenDispute(w.user.Principal(), paymentID))

	arbiter, err := keychain.RandomPrincipal()
	require.NoError(err)
	require.NoError(w.e.Gate.Grant(w.admin, roles.Arbiter, arbiter))

	require.NoError(w.e.Escrow.ResolveDispute(arbiter, paymentID, true))
	require.Equal(uint64(1_000_000_000), w.ledger.BalanceOf(w.user.Principal()))

	p, ok := w.e.Escrow.GetPayment(paymentID)
	require.True(ok)
	require.Equal(escrow.Refunded, p.Status)
}

func TestSplitterBeforeFinalizeRejected(t *testing.T) {
	require := require.New(t)
	w := newWorld(t)

	require.NoError(w.e.Graph.AddContributorEdge(w.admin, w.asset, w.c1, 10000))
	_, err := w.e.Splitters.CreateSplitter(w.asset)
	require.ErrorIs(err, splitter.ErrGraphNotFinalized)
}

func TestOverAllocatedEdgeRejected(t *testing.T) {
	require := require.New(t)
	w := newWorld(t)

	require.NoError(w.e.Graph.AddContributorEdge(w.admin, w.asset, w.c1, 6000))
	err := w.e.Graph.AddContributorEdge(w.admin, w.asset, w.c2, 4001)
	require.ErrorIs(err, provenance.ErrTotalWeightExceeded)
	require.Equal(uint32(6000), w.e.Graph.GetTotalBps(w.asset))
}
