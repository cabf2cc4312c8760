// Package main is the entry point for the paperscan CLI.
package main

import (
	"os"

	"github.com/paperscan/paperscan/cmd/paperscan/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
