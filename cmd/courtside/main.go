package main

import (
	"os"

	"github.com/courtside/client/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
