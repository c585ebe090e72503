//go:build mage

// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binLint  = "golangci-lint"
	binGofmt = "gofmt"
)

// lintDirs are the source trees checked by Fmt.
var lintDirs = []string{"cmd", "internal", "pkg", "tests", "magefiles"}

// Check runs Fmt, Vet and Lint.
func Check() {
	mg.SerialDeps(Fmt, Vet, Lint)
}

// Lint runs golangci-lint.
func Lint() error {
	return sh.RunV(binLint, "run", "--timeout", "5m", "./...")
}

// Vet runs go vet, including the integration tests.
func Vet() error {
	return sh.RunV(binGo, "vet", "./...")
}

// Fmt fails when any file under lintDirs is not gofmt-clean.
func Fmt() error {
	out, err := sh.Output(binGofmt, append([]string{"-l"}, lintDirs...)...)
	if err != nil {
		return err
	}
	if files := strings.TrimSpace(out); files != "" {
		return fmt.Errorf("files need gofmt:\n%s", files)
	}
	return nil
}
