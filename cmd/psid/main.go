// Package main provides the CLI for the PSID panel builder.
package main

import (
	"fmt"
	"os"

	"github.com/hxia920/PSID/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
