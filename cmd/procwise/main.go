// Package main provides the entry point for the procwise CLI.
package main

import (
	"os"

	"github.com/raphaelgruber/procwise/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
