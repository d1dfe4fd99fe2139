package main

import (
	"os"

	"github.com/xaenox/return-analyzer/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
