package main

import (
	"os"

	"github.com/barysiuk/linkrow/cmd/linkrow/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
