// Command ftharness runs the staged workload under an FT manager and resumes
// it from the shared checkpoint after a crash or on a replica.
//
// Usage:
//
//	ftharness run <role-or-name> <expected-units> [flags]
//	ftharness inspect [flags]
package main

import (
	"context"
	"os"
)

// Version information, injected via ldflags at build time.
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
