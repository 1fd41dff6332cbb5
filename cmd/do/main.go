package main

import (
	"os"

	"github.com/gradnet/gradnet/cmd/do/cmd"
)

func main() {
	if err := cmd.RootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
