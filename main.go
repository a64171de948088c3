// Package main is the entry point of the print-layout command.
package main

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"

	"print-layout/cmd"
	"print-layout/internal/version"
)

func main() {
	root := cmd.NewRootCmd()

	if err := fang.Execute(
		context.Background(),
		root,
		fang.WithVersion(version.String()),
		fang.WithNotifySignal(os.Interrupt, os.Kill),
	); err != nil {
		os.Exit(1)
	}
}
