// Package main provides the entry point for the boardwalk CLI.
package main

import (
	"os"

	"github.com/mpelletier/boardwalk/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
