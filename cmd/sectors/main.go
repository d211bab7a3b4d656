package main

import (
	"os"

	"github.com/wonny/sectorpulse/cmd/sectors/commands"
)

// main is the entry point for the sectors CLI
// ⭐ Unified CLI entry point: go run ./cmd/sectors [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
