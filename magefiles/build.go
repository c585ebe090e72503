//go:build mage

// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package main provides build targets for wlsqlite using Mage.
//
// Usage:
//
//	mage build       Compile the wlsqlite binary to bin/
//	mage test:all    Run all tests
//	mage test:race   Run all tests with the race detector
//	mage test:cover  Run all tests and write coverage.out
//	mage check       Run fmt, vet and lint
//	mage lint        Run golangci-lint
//	mage fmt         Fail on files that are not gofmt-clean
//	mage vet         Run go vet
//	mage clean       Remove build artifacts
//	mage install     Install wlsqlite to GOPATH/bin
//	mage stats       Print Go line counts per package
package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binGo      = "go"
	binaryName = "wlsqlite"
	binaryDir  = "bin"
	cmdDir     = "./cmd/wlsqlite"
	versionVar = "github.com/mesh-intelligence/wlsqlite/internal/cli.Version"
)

// ldflags stamps the version from `git describe` when it is available.
func ldflags() string {
	version, err := sh.Output("git", "describe", "--tags", "--always", "--dirty")
	if err != nil || strings.TrimSpace(version) == "" {
		return ""
	}
	return "-X " + versionVar + "=" + strings.TrimSpace(version)
}

// Build compiles the wlsqlite binary to bin/.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	args := []string{"build", "-v", "-o", filepath.Join(binaryDir, binaryName)}
	if flags := ldflags(); flags != "" {
		args = append(args, "-ldflags", flags)
	}
	return sh.RunV(binGo, append(args, cmdDir)...)
}

// Clean removes build artifacts.
func Clean() error {
	if err := os.RemoveAll(binaryDir); err != nil {
		return err
	}
	if err := os.RemoveAll(coverProfile); err != nil {
		return err
	}
	return sh.RunV(binGo, "clean")
}

// Install builds and copies the binary to GOPATH/bin.
func Install() error {
	mg.Deps(Build)
	gopath, err := sh.Output(binGo, "env", "GOPATH")
	if err != nil {
		return err
	}
	src := filepath.Join(binaryDir, binaryName)
	dst := filepath.Join(gopath, "bin", binaryName)
	return sh.Copy(dst, src)
}
