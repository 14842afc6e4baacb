// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ava-labs/airoyalty/config"
	"github.com/ava-labs/airoyalty/engine"
	"github.com/ava-labs/airoyalty/internal/logging"
	"github.com/ava-labs/airoyalty/token"
)

func init() {
	cobra.EnablePrefixMatching = true
}

func runCommand() *cobra.Command {
	v := viper.New()

	c := &cobra.Command{
		Use:   "royaltyengine",
		Short: "Runs the pay-per-use royalty sharing engine",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := v.BindPFlags(cmd.Flags()); err != nil {
				return err
			}
			return run(v)
		},
	}

	var fs *pflag.FlagSet = c.Flags()
	fs.SortFlags = false // list flags in declaration order in --help
	fs.String(config.AdminKey, "", "0x-prefixed address granted DEFAULT_ADMIN at startup")
	fs.String(config.VerifierSelfKey, "", "0x-prefixed address the engine pulls receipt funds as")
	fs.String(config.EscrowSelfKey, "", "0x-prefixed address escrow holds pulled funds at")
	fs.String(config.TreasurySinkKey, "", "0x-prefixed address the protocol fee is paid to")
	fs.Uint(config.InitialFeeBpsKey, 250, "initial protocol fee, in basis points")
	fs.Uint64(config.DisputeWindowSecondsKey, 86400, "seconds a held payment stays disputable before auto-release")
	fs.String(config.EIP712NameKey, "airoyalty", "EIP-712 domain name")
	fs.String(config.EIP712VersionKey, "1", "EIP-712 domain version")
	fs.Uint64(config.ChainIDKey, 1, "EIP-712 domain chain id")
	fs.String(config.MetricsNamespaceKey, "airoyalty", "prometheus metrics namespace")

	for _, required := range []string{
		config.AdminKey, config.VerifierSelfKey, config.EscrowSelfKey, config.TreasurySinkKey,
	} {
		_ = c.MarkFlagRequired(required)
	}

	return c
}

func run(v *viper.Viper) error {
	cfg, err := config.GetEngineConfig(v)
	if err != nil {
		return err
	}

	log, err := logging.NewProduction()
	if err != nil {
		return err
	}

	e, err := engine.New(cfg, token.NewLedger(), log, nil)
	if err != nil {
		return err
	}

	log.Info("royalty engine ready")
	_ = e
	return nil
}

func main() {
	cmd := runCommand()
	ctx := context.Background()
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "command failed: %v\n", err)
		os.Exit(1)
	}
}
