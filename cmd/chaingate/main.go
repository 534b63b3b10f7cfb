// Package main provides the CLI entry point for the chaingate read
// gateway.
//
// Chaingate serves the chain-state query surface of a node: blocks,
// transactions, accounts, mosaics, and namespaces, paged by cursor from a
// MongoDB replica of the node's state.
//
// # Basic Usage
//
// Start the server:
//
//	chaingate serve --config chaingate.yaml
//
// # Environment Variables
//
//   - CHAINGATE_CONFIG: Path to configuration file (default: chaingate.yaml)
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Build information - populated by ldflags during build.
//
// Example build command:
//
//	go build -ldflags "-X main.version=v1.0.0 -X main.commit=$(git rev-parse HEAD)"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	root := &cobra.Command{
		Use:           "chaingate",
		Short:         "Read gateway for chain state",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	var configPath string
	var debug bool

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP gateway",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), configPath, debug)
		},
	}
	serveCmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath(), "path to configuration file")
	serveCmd.Flags().BoolVar(&debug, "debug", false, "force debug logging")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("chaingate %s (commit %s, built %s)\n", version, commit, date)
		},
	}

	root.AddCommand(serveCmd, versionCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func defaultConfigPath() string {
	if path := os.Getenv("CHAINGATE_CONFIG"); path != "" {
		return path
	}
	return "chaingate.yaml"
}
