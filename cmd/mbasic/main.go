package main

import (
	"os"

	"github.com/msto63/mbasic/cmd/mbasic/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
