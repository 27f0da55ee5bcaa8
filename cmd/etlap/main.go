package main

import (
	"os"

	"github.com/msto63/etlap/cmd/etlap/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
