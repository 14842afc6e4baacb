// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package config turns a bound *viper.Viper (flags merged with any
// config file) into an engine.Config, the way config.GetNodeConfig
// turns flags into node.Config: one function per concern, validated
// before the caller ever sees a usable struct.
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/ava-labs/airoyalty/engine"
	"github.com/ava-labs/airoyalty/ids"
)

const (
	AdminKey                = "admin"
	VerifierSelfKey          = "verifier-self"
	EscrowSelfKey            = "escrow-self"
	TreasurySinkKey          = "treasury-sink"
	InitialFeeBpsKey         = "initial-fee-bps"
	DisputeWindowSecondsKey  = "dispute-window-seconds"
	EIP712NameKey            = "eip712-name"
	EIP712VersionKey         = "eip712-version"
	ChainIDKey               = "chain-id"
	MetricsNamespaceKey      = "metrics-namespace"
)

var errMissingRequiredAddress = errors.New("config: a required address flag was not set")

func principalFromHex(v *viper.Viper, key string) (ids.Principal, error) {
	s := v.GetString(key)
	if s == "" {
		return ids.Principal{}, fmt.Errorf("%w: --%s", errMissingRequiredAddress, key)
	}
	s = strings.TrimPrefix(s, "0x")
	b, err := hex.DecodeString(s)
	if err != nil {
		return ids.Principal{}, fmt.Errorf("config: %s: %w", key, err)
	}
	return ids.PrincipalFromBytes(b)
}

// GetEngineConfig builds an engine.Config from v, applying the same
// bound-flags-plus-defaults discipline as config.GetNodeConfig.
func GetEngineConfig(v *viper.Viper) (engine.Config, error) {
	admin, err := principalFromHex(v, AdminKey)
	if err != nil {
		return engine.Config{}, err
	}
	verifierSelf, err := principalFromHex(v, VerifierSelfKey)
	if err != nil {
		return engine.Config{}, err
	}
	escrowSelf, err := principalFromHex(v, EscrowSelfKey)
	if err != nil {
		return engine.Config{}, err
	}
	treasurySink, err := principalFromHex(v, TreasurySinkKey)
	if err != nil {
		return engine.Config{}, err
	}

	feeBps := v.GetUint(InitialFeeBpsKey)
	if feeBps > 0xFFFF {
		return engine.Config{}, fmt.Errorf("config: %s out of range: %d", InitialFeeBpsKey, feeBps)
	}

	return engine.Config{
		Admin:                admin,
		VerifierSelf:         verifierSelf,
		EscrowSelf:           escrowSelf,
		TreasurySink:         treasurySink,
		InitialFeeBps:        uint16(feeBps),
		DisputeWindowSeconds: v.GetUint64(DisputeWindowSecondsKey),
		EIP712Name:           v.GetString(EIP712NameKey),
		EIP712Version:        v.GetString(EIP712VersionKey),
		ChainID:              v.GetUint64(ChainIDKey),
		MetricsNamespace:     v.GetString(MetricsNamespaceKey),
	}, nil
}
