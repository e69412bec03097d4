// Package main provides the entry point for the faqd CLI.
package main

import (
	"os"

	"github.com/speaksense/faqd/cmd/faqd/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
