// Package main provides the entry point for the finder CLI.
package main

import (
	"os"

	"github.com/contentkit/finder/cmd/finder/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
