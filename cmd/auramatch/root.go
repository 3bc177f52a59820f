// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AuraMatch Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/auramatch/auramatch/internal/config"
	"github.com/auramatch/auramatch/internal/xdg"
)

// Global flags available to all subcommands.
var (
	configFile string
	envFile    string
)

// serviceName identifies this process in logs.
const serviceName = "auramatch"

// NewRootCmd creates the root command for the AuraMatch CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auramatch",
		Short: "AuraMatch - account and session service",
		Long: `AuraMatch serves account registration, login and cookie-based
sessions over a JSON HTTP API backed by PostgreSQL.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (default: XDG_CONFIG_HOME/auramatch/config.yaml if present)")
	cmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewSweepCmd())

	return cmd
}

// loadConfig layers defaults, the config file, the environment and cmd's flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	file := configFile
	if file == "" {
		file = xdg.ExistingConfigFile()
	}
	return config.Load(config.LoadOptions{
		File:    file,
		EnvFile: envFile,
		Flags:   cmd.Flags(),
	})
}
