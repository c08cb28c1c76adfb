// Package main is the entry point for the histree playground CLI.
package main

import (
	"fmt"
	"os"

	"github.com/histree-dev/histree/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
