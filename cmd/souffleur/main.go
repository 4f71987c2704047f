package main

import (
	"os"

	"github.com/msto63/souffleur/cmd/souffleur/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
