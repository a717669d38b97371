package main

import (
	"os"

	"github.com/wonny/twstock/cmd/twstock/commands"
)

// main is the entry point for the twstock CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/twstock [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
