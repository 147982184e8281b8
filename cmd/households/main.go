// Package main provides the CLI for households wealth redistribution.
package main

import (
	"os"

	"github.com/leapstack-labs/households/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
