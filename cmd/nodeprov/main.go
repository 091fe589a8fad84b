// Package main is the entry point for the nodeprov CLI.
//
// nodeprov switches cloud nodes onto a pinned kernel, power-cycles them and
// installs the node agent over SSH.
//
// Commands: provision, kernels, power-cycle, plan, check, version.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/imamik/nodeprov/cmd/nodeprov/commands"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	commands.SetVersionInfo(version, commit, date)
	err := commands.Root().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
