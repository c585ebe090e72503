// Package main provides the wlsqlite CLI.
package main

import (
	"os"

	"github.com/mesh-intelligence/wlsqlite/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
