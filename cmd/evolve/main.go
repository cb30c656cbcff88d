package main

import (
	"os"

	"github.com/wonny/aegis/v13/optimizer/cmd/evolve/commands"
)

// main is the entry point for the optimizer CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/evolve [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
