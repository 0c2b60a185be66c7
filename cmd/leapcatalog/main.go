// Package main is the entrypoint for the leapcatalog CLI.
package main

import (
	"os"

	"github.com/leapstack-labs/leapcatalog/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
