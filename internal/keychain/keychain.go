// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package keychain gives tests a deterministic signer for UsageReceipt
// digests, mirroring the role wallet/chain/p.signerVisitor plays for
// signing real transactions: generate a random secp256k1 key, expose
// its Principal, and sign arbitrary 32-byte digests. Keys cannot be
// loaded from existing key material.
package keychain

import (
	"crypto/ecdsa"
	"crypto/rand"
	"math/big"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/ava-labs/airoyalty/ids"
)

// Key is a single secp256k1 keypair able to sign EIP-712 digests.
type Key struct {
	priv *secp256k1.PrivateKey
}

// NewKey generates a fresh random keypair.
func NewKey() (*Key, error) {
	priv, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, err
	}
	return &Key{priv: priv}, nil
}

// Principal derives the 20-byte address this key signs on behalf of.
// The address derivation (keccak256(pubkey)[12:]) matches what
// typeddata.Recover extracts from a signature, so a receipt signed by
// this key is attributed to exactly this Principal.
func (k *Key) Principal() ids.Principal {
	ecdsaPub := k.priv.PubKey().ToECDSA()
	addr := crypto.PubkeyToAddress(*ecdsaPub)
	p, _ := ids.PrincipalFromBytes(addr.Bytes())
	return p
}

// Sign produces a 65-byte r‖s‖v signature over digest using go-ethereum's
// recoverable-signature format, compatible with typeddata.Recover.
func (k *Key) Sign(digest [32]byte) ([]byte, error) {
	// go-ethereum's crypto.Sign wants a standard-library *ecdsa.PrivateKey;
	// it recomputes it from the same scalar the decred key holds.
	ecdsaPriv := new(ecdsa.PrivateKey)
	ecdsaPriv.PublicKey = *k.priv.PubKey().ToECDSA()
	scalarBytes := k.priv.Key.Bytes()
	ecdsaPriv.D = new(big.Int).SetBytes(scalarBytes[:])
	return crypto.Sign(digest[:], ecdsaPriv)
}

// RandomPrincipal is a convenience for tests that only need an address,
// not a usable signer (e.g. contributors who never sign receipts).
func RandomPrincipal() (ids.Principal, error) {
	b := make([]byte, 20)
	if _, err := rand.Read(b); err != nil {
		return ids.Principal{}, err
	}
	return ids.PrincipalFromBytes(b)
}
