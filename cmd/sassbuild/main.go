package main

import (
	"os"

	"github.com/bianoble/sassbuild/cmd/sassbuild/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
