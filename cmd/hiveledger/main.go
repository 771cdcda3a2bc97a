package main

import (
	"os"

	"github.com/hiveledger-dev/hiveledger/internal/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
