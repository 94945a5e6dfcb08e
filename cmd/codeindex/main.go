// Package main provides the entry point for the codeindex CLI.
package main

import (
	"fmt"
	"os"

	"github.com/RepairYourTech/Roo-Code-Knowledge-sub005/cmd/codeindex/cmd"
	cierrors "github.com/RepairYourTech/Roo-Code-Knowledge-sub005/internal/errors"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprint(os.Stderr, cierrors.FormatForCLI(err))
		os.Exit(1)
	}
}
