package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:          "bytebot-api",
		Short:        "ByteBot loan officer API",
		Long:         "bytebot-api serves the ByteBot chat API: a tool-calling loan officer with a keyword fallback when every model backend is down.",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")

	serve := newServeCmd(&configPath)
	rootCmd.RunE = serve.RunE
	rootCmd.Flags().AddFlagSet(serve.Flags())

	rootCmd.AddCommand(
		serve,
		newSeedLoansCmd(&configPath),
	)
	return rootCmd
}
