// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package token spec's the IToken external collaborator (spec §1/§3):
// USD-stablecoin transfers the ReceiptVerifier and Escrow pull and push
// through. Out of scope for this core per spec; Ledger is the
// in-memory stand-in the engine and its tests drive.
package token

import (
	"errors"
	"sync"

	"github.com/ava-labs/airoyalty/ids"
)

var ErrInsufficientBalance = errors.New("insufficient balance")
var ErrInsufficientAllowance = errors.New("insufficient allowance")

// Token is the external payment-token surface the engine depends on.
type Token interface {
	BalanceOf(owner ids.Principal) uint64
	// TransferFrom moves amount from `from` to `to`, spending down the
	// allowance `from` granted to `spender`. Returns ErrInsufficientAllowance
	// or ErrInsufficientBalance if either precondition fails, with no
	// state change.
	TransferFrom(spender, from, to ids.Principal, amount uint64) error
	Transfer(from, to ids.Principal, amount uint64) error
}

var _ Token = (*Ledger)(nil)

// Ledger is a minimal in-memory IToken implementation, guarded the same
// way every other in-memory component in this engine is.
type Ledger struct {
	lock       sync.Mutex
	balances   map[ids.Principal]uint64
	allowances map[ids.Principal]map[ids.Principal]uint64
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		balances:   make(map[ids.Principal]uint64),
		allowances: make(map[ids.Principal]map[ids.Principal]uint64),
	}
}

// Mint credits owner with amount, for test setup.
func (l *Ledger) Mint(owner ids.Principal, amount uint64) {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.balances[owner] += amount
}

// Approve lets spender later pull up to amount from owner via TransferFrom.
func (l *Ledger) Approve(owner, spender ids.Principal, amount uint64) {
	l.lock.Lock()
	defer l.lock.Unlock()
	if l.allowances[owner] == nil {
		l.allowances[owner] = make(map[ids.Principal]uint64)
	}
	l.allowances[owner][spender] = amount
}

func (l *Ledger) BalanceOf(owner ids.Principal) uint64 {
	l.lock.Lock()
	defer l.lock.Unlock()
	return l.balances[owner]
}

func (l *Ledger) TransferFrom(spender, from, to ids.Principal, amount uint64) error {
	l.lock.Lock()
	defer l.lock.Unlock()

	allowed := l.allowances[from][spender]
	if allowed < amount {
		return ErrInsufficientAllowance
	}
	if l.balances[from] < amount {
		return ErrInsufficientBalance
	}

	l.allowances[from][spender] = allowed - amount
	l.balances[from] -= amount
	l.balances[to] += amount
	return nil
}

func (l *Ledger) Transfer(from, to ids.Principal, amount uint64) error {
	l.lock.Lock()
	defer l.lock.Unlock()

	if l.balances[from] < amount {
		return ErrInsufficientBalance
	}
	l.balances[from] -= amount
	l.balances[to] += amount
	return nil
}
