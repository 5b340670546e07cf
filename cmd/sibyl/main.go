package main

import (
	"os"

	"github.com/jmoretti/sibyl/cmd/sibyl/commands"
)

// Unified CLI entry point: go run ./cmd/sibyl [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
