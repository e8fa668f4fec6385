package main

import (
	"os"

	"github.com/tkingovr/filtertools/cmd/filtertools/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
