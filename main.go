// Package main is the entry point for the statdash CLI.
package main

import (
	"fmt"
	"os"

	"github.com/huangsam/statdash/cmd"
	"github.com/huangsam/statdash/internal/contract"
	"github.com/huangsam/statdash/internal/iocache"
)

func main() {
	os.Exit(run())
}

// run executes the root command and returns the process exit code.
// Deferred cleanup runs before main exits.
func run() int {
	defer iocache.CloseCaching()
	defer contract.SyncLogger()

	if err := cmd.Execute(); err != nil {
		_ = cmd.StopProfiling()
		return 1
	}
	if err := cmd.StopProfiling(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to stop profiling: %v\n", err)
		return 1
	}
	return 0
}
