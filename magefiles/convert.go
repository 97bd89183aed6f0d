//go:build mage

package main

import (
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Convert builds the CLI and converts everything in input_files/ into
// output_markdown/, writing a run report to reports/last-run.yaml.
func Convert() error {
	mg.Deps(Build, Init)
	return sh.RunV(filepath.Join(binDir, binName), "convert", "input_files",
		"--output-dir", "output_markdown",
		"--report", filepath.Join("reports", "last-run.yaml"))
}

// Capabilities builds the CLI and prints which formats can be extracted.
func Capabilities() error {
	mg.Deps(Build)
	return sh.RunV(filepath.Join(binDir, binName), "capabilities")
}
