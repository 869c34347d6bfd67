package main

import (
	"os"

	"github.com/rustyeddy/bondrisk/cmd/bondrisk/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
