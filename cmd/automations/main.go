package main

import (
	"os"

	"github.com/ledgerd/automations/cmd/automations/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
