// Package main is the entry point for the circle CLI.
package main

import (
	"os"

	"circle/cmd/circle/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
