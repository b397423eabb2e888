package main

import (
	"os"

	"github.com/abhisek/doceo/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
