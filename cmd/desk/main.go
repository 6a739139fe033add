package main

import (
	"os"

	"github.com/inkpress/desk/cmd/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
