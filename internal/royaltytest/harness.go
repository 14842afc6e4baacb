// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package royaltytest builds a populated engine.Engine fixture for
// tests across packages, mirroring the role txs/executor/helpers_test.go
// and wallet/supernet/primary/common/test_utxos.go play for the
// teacher: one shared constructor instead of every test package
// re-deriving the same wiring.
package royaltytest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ava-labs/airoyalty/engine"
	"github.com/ava-labs/airoyalty/ids"
	"github.com/ava-labs/airoyalty/internal/keychain"
	"github.com/ava-labs/airoyalty/internal/timer/mockable"
	"github.com/ava-labs/airoyalty/internal/typeddata"
	"github.com/ava-labs/airoyalty/roles"
	"github.com/ava-labs/airoyalty/token"
)

// Fixture is a fully wired engine plus the principals and keys its
// tests commonly need.
type Fixture struct {
	Engine *engine.Engine
	Ledger *token.Ledger
	Clock  *mockable.Clock
	Domain typeddata.Domain

	Admin    ids.Principal
	Arbiter  ids.Principal
	Sink     ids.Principal
	User     *keychain.Key
}

// New builds a Fixture with a fresh engine, dispute window of
// disputeWindowSeconds, and initialFeeBps as the starting protocol fee.
// The returned user key is pre-funded and pre-approved to the engine's
// verifier address.
func New(t *testing.T, initialFeeBps uint16, disputeWindowSeconds uint64) *Fixture {
	t.Helper()
	require := require.New(t)

	admin, err := keychain.RandomPrincipal()
	require.NoError(err)
	verifierSelf, err := keychain.RandomPrincipal()
	require.NoError(err)
	escrowSelf, err := keychain.RandomPrincipal()
	require.NoError(err)
	sink, err := keychain.RandomPrincipal()
	require.NoError(err)
	arbiter, err := keychain.RandomPrincipal()
	require.NoError(err)
	userKey, err := keychain.NewKey()
	require.NoError(err)

	ledger := token.NewLedger()
	clock := &mockable.Clock{}
	clock.Set(time.Unix(1_700_000_000, 0))

	cfg := engine.Config{
		Admin:                admin,
		VerifierSelf:         verifierSelf,
		EscrowSelf:           escrowSelf,
		TreasurySink:         sink,
		InitialFeeBps:        initialFeeBps,
		DisputeWindowSeconds: disputeWindowSeconds,
		EIP712Name:           "airoyalty-test",
		EIP712Version:        "1",
		ChainID:              1337,
		MetricsNamespace:     "airoyalty_harness",
	}
	e, err := engine.New(cfg, ledger, nil, clock)
	require.NoError(err)

	require.NoError(e.Gate.Grant(admin, roles.Verifier, verifierSelf))
	require.NoError(e.Gate.Grant(admin, roles.Arbiter, arbiter))

	ledger.Mint(userKey.Principal(), 1_000_000_000_000)
	ledger.Approve(userKey.Principal(), verifierSelf, 1_000_000_000_000)

	domain := typeddata.Domain{
		Name: cfg.EIP712Name, Version: cfg.EIP712Version,
		ChainID: cfg.ChainID, VerifyingContract: verifierSelf,
	}

	return &Fixture{
		Engine: e, Ledger: ledger, Clock: clock, Domain: domain,
		Admin: admin, Arbiter: arbiter, Sink: sink, User: userKey,
	}
}

// GrantContributor grants CONTRIBUTOR to principal as the fixture's admin.
func (f *Fixture) GrantContributor(t *testing.T, principal ids.Principal) {
	t.Helper()
	require.NoError(t, f.Engine.Gate.Grant(f.Admin, roles.Contributor, principal))
}

// Sign signs r with the fixture's user key under the fixture's domain.
func (f *Fixture) Sign(t *testing.T, r typeddata.UsageReceipt) []byte {
	t.Helper()
	sig, err := f.User.Sign(r.Digest(f.Domain))
	require.NoError(t, err)
	return sig
}
