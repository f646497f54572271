// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
i18nbundle builds localized template bundles.

For every configured language it compiles the template sources of a node together with
the node's keysets into one executable file, the way the bem-tools i18n tech does.
*/
package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"codeberg.org/pixivfe/i18nbundle/config"
	"codeberg.org/pixivfe/i18nbundle/core/audit"
)

// main is the entry point of the application.
func main() {
	audit.SetDefaultLogger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	err := newRootCommand().ExecuteContext(ctx)

	stop()

	if err != nil {
		log.Fatal().Err(err).Msg("i18nbundle failed")
	}
}

func newRootCommand() *cobra.Command {
	buildCmd := newBuildCommand()

	cmd := &cobra.Command{
		Use:   "i18nbundle",
		Short: "Build localized template bundles",
		Long: `Build localized template bundles.

Template sources are collected from the configured levels, compiled, and merged with the
node's keysets for each language. Running without a sub-command is the same as "build".`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          buildCmd.RunE,
	}

	cmd.CompletionOptions.DisableDefaultCmd = true

	config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(buildCmd, newVersionCommand())

	return cmd
}

func newBuildCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Build the bundle of every configured language",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.Global.LoadConfig(cmd.Flags()); err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			return build(cmd.Context(), &config.Global)
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			release, revision, goVersion := config.Version()

			fmt.Fprintf(cmd.OutOrStdout(), "i18nbundle %s (%s, %s)\n", release, revision, goVersion)
		},
	}
}
