// Package main is the entry point for the gridctl CLI.
//
// gridctl provisions an ephemeral Selenium-grid test cluster on
// Kubernetes, waits for it to become healthy, launches the test
// controller pod and follows the test run to completion.
//
// Commands: deploy, cleanup, version.
//
// For detailed usage information, run:
//
//	gridctl --help
package main

import (
	"fmt"
	"os"

	"github.com/qaops/gridctl/cmd/gridctl/commands"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)
	if err := commands.Root().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
