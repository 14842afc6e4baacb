// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package ids defines the identifier types shared across the royalty
// engine: opaque asset identifiers and the 20-byte principal addresses
// used for contributors, owners, payers and arbiters.
package ids

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/mr-tron/base58"
)

var (
	ErrZeroAssetID  = errors.New("asset id cannot be zero")
	ErrZeroPrincipal = errors.New("principal cannot be the zero address")

	empty Principal
)

// AssetID is an opaque, non-zero identifier for a dataset or model.
type AssetID uint64

func (id AssetID) String() string {
	return fmt.Sprintf("Asset-%d", uint64(id))
}

// Validate reports whether id is a well-formed, non-zero asset identifier.
func (id AssetID) Validate() error {
	if id == 0 {
		return ErrZeroAssetID
	}
	return nil
}

// Principal is a 20-byte address identifying a human contributor, asset
// owner, payer, or arbiter. It mirrors the wire size of an Ethereum-style
// address so that signatures produced by external wallets recover
// directly into a Principal.
type Principal [20]byte

// PrincipalFromBytes copies b into a Principal. b must be exactly 20 bytes.
func PrincipalFromBytes(b []byte) (Principal, error) {
	var p Principal
	if len(b) != len(p) {
		return p, fmt.Errorf("expected %d bytes, got %d", len(p), len(b))
	}
	copy(p[:], b)
	return p, nil
}

// IsZero reports whether p is the zero address.
func (p Principal) IsZero() bool {
	return p == empty
}

// Validate reports whether p is a non-zero principal.
func (p Principal) Validate() error {
	if p.IsZero() {
		return ErrZeroPrincipal
	}
	return nil
}

func (p Principal) String() string {
	return base58.Encode(p[:])
}

// Hex renders p as a 0x-prefixed hex string, matching the layout external
// EIP-712 signers use for their `user` field.
func (p Principal) Hex() string {
	return "0x" + hex.EncodeToString(p[:])
}
