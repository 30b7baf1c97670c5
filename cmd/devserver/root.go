package main

import (
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/devserver/pkg/cli"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "devserver",
	Short: "Development server with restart on change",
	Long: `Devserver serves a web application during development.

It provides:
  - HTTP or HTTPS serving under a configurable root URL
  - An optional custom server module (mock routes, reverse proxies)
  - Addon middleware (logging, request IDs, CORS, metrics, no-cache)
  - Restart on file change with debouncing and forced connection close
  - A journal of lifecycle events`,
	Version:       Version,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command and exits with a status derived from the
// returned error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		cli.NewConsole(os.Stdout, os.Stderr).Fatal(err)
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "devserver.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")
}
