package main

import (
	"os"

	"github.com/fatih/color"
	"github.com/tessro/cassette/internal/cli"
	"github.com/tessro/cassette/internal/errors"
)

func main() {
	if err := cli.Execute(); err != nil {
		_, _ = color.New(color.FgRed).Fprintln(os.Stderr, errors.Format(err))
		os.Exit(1)
	}
}
