// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package typeddata implements the EIP-712-style domain separation and
// digest construction the ReceiptVerifier uses to authenticate signed
// UsageReceipt messages. The byte layout is fixed by spec: any deviation
// breaks interoperability with external wallets/HSMs producing the
// signatures, so this package intentionally does not generalize beyond
// the single UsageReceipt struct it is built for.
package typeddata

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/ava-labs/airoyalty/ids"
)

// domainTypeHash is keccak256("EIP712Domain(string name,string version,uint256 chainId,address verifyingContract)").
var domainTypeHash = crypto.Keccak256([]byte("EIP712Domain(string name,string version,uint256 chainId,address verifyingContract)"))

// usageReceiptTypeHash is keccak256("UsageReceipt(uint256 assetId,uint256 amount,address user,uint256 nonce,uint256 deadline)").
var usageReceiptTypeHash = crypto.Keccak256([]byte("UsageReceipt(uint256 assetId,uint256 amount,address user,uint256 nonce,uint256 deadline)"))

var eip191Prefix = []byte{0x19, 0x01}

// Domain fixes the signing domain at ReceiptVerifier construction time,
// matching §6 of the spec: name, version, chain_id, verifying_contract.
type Domain struct {
	Name              string
	Version           string
	ChainID           uint64
	VerifyingContract ids.Principal
}

// Separator computes the EIP-712 domain separator for d.
func (d Domain) Separator() [32]byte {
	buf := make([]byte, 0, 128)
	buf = append(buf, domainTypeHash...)
	buf = append(buf, crypto.Keccak256([]byte(d.Name))...)
	buf = append(buf, crypto.Keccak256([]byte(d.Version))...)
	buf = append(buf, leftPad32(new(big.Int).SetUint64(d.ChainID))...)
	buf = append(buf, leftPadAddress(d.VerifyingContract)...)
	var out [32]byte
	copy(out[:], crypto.Keccak256(buf))
	return out
}

// UsageReceipt is the typed message a payer signs to authorize a payment,
// per spec §4.6/§6.
type UsageReceipt struct {
	AssetID  ids.AssetID
	Amount   uint64
	User     ids.Principal
	Nonce    uint64
	Deadline uint64
}

// structHash computes keccak256(typeHash ‖ encodeData(fields)), the
// EIP-712 hashStruct for UsageReceipt.
func (r UsageReceipt) structHash() []byte {
	buf := make([]byte, 0, 192)
	buf = append(buf, usageReceiptTypeHash...)
	buf = append(buf, leftPad32(new(big.Int).SetUint64(uint64(r.AssetID)))...)
	buf = append(buf, leftPad32(new(big.Int).SetUint64(r.Amount))...)
	buf = append(buf, leftPadAddress(r.User)...)
	buf = append(buf, leftPad32(new(big.Int).SetUint64(r.Nonce))...)
	buf = append(buf, leftPad32(new(big.Int).SetUint64(r.Deadline))...)
	return crypto.Keccak256(buf)
}

// Digest computes the final tagged digest: keccak256(0x1901 ‖ domainSeparator ‖ structHash).
func (r UsageReceipt) Digest(domain Domain) [32]byte {
	sep := domain.Separator()
	buf := make([]byte, 0, 2+32+32)
	buf = append(buf, eip191Prefix...)
	buf = append(buf, sep[:]...)
	buf = append(buf, r.structHash()...)
	var out [32]byte
	copy(out[:], crypto.Keccak256(buf))
	return out
}

var ErrInvalidSignatureLength = errors.New("signature must be 65 bytes")

// Recover recovers the signing Principal from a 65-byte r‖s‖v signature
// over digest.
func Recover(digest [32]byte, sig []byte) (ids.Principal, error) {
	var zero ids.Principal
	if len(sig) != 65 {
		return zero, ErrInvalidSignatureLength
	}
	// crypto.Ecrecover expects v in {0,1}; accept the {27,28} convention
	// some wallets use as well.
	normalized := make([]byte, 65)
	copy(normalized, sig)
	if normalized[64] >= 27 {
		normalized[64] -= 27
	}
	pub, err := crypto.SigToPub(digest[:], normalized)
	if err != nil {
		return zero, err
	}
	addr := crypto.PubkeyToAddress(*pub)
	return ids.PrincipalFromBytes(addr.Bytes())
}

func leftPad32(v *big.Int) []byte {
	b := v.Bytes()
	out := make([]byte, 32)
	copy(out[32-len(b):], b)
	return out
}

func leftPadAddress(p ids.Principal) []byte {
	out := make([]byte, 32)
	copy(out[12:], p[:])
	return out
}
