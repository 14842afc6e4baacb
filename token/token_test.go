// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package token

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ava-labs/airoyalty/internal/keychain"
)

func TestTransferFrom(t *testing.T) {
	require := require.New(t)
	l := NewLedger()

	user, err := keychain.RandomPrincipal()
	require.NoError(err)
	verifier, err := keychain.RandomPrincipal()
	require.NoError(err)

	l.Mint(user, 100)
	l.Approve(user, verifier, 100)

	require.NoError(l.TransferFrom(verifier, user, verifier, 40))
	require.Equal(uint64(60), l.BalanceOf(user))
	require.Equal(uint64(40), l.BalanceOf(verifier))

	err = l.TransferFrom(verifier, user, verifier, 100)
	require.ErrorIs(err, ErrInsufficientAllowance)
}

func TestTransferInsufficientBalance(t *testing.T) {
	l := NewLedger()
	a, _ := keychain.RandomPrincipal()
	b, _ := keychain.RandomPrincipal()
	require.ErrorIs(t, l.Transfer(a, b, 1), ErrInsufficientBalance)
}
