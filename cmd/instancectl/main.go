package main

import (
	"os"

	"github.com/chunga-ict/instancectl/cmd/instancectl/subcmd"
)

func main() {
	if err := subcmd.Execute(); err != nil {
		os.Exit(1)
	}
}
