package main

import (
	"os"

	"github.com/fatih/color"
)

var (
	// Version information - set at build time
	Version   = "dev"
	GitCommit = "unknown"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		color.New(color.FgRed, color.Bold).Fprintf(os.Stderr, "✗ %v\n", err)
		// Unreadable input exits with 2, resolution failures with 1.
		if isLoadError(err) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
