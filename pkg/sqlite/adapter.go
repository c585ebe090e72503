// Package sqlite provides the public API of the SQLite adapter. It
// exposes the factory and options while keeping the implementation
// internal.
package sqlite

import (
	"github.com/mesh-intelligence/wlsqlite/internal/sqlite"
)

// Adapter owns registered connections and runs the adapter operations
// against them.
type Adapter = sqlite.Adapter

// Option configures an Adapter.
type Option = sqlite.Option

// Populator resolves join instructions for one connection.
type Populator = sqlite.Populator

// Opener opens the database handle of a connection.
type Opener = sqlite.Opener

// Options re-exported from the implementation.
var (
	WithLogger    = sqlite.WithLogger
	WithPopulator = sqlite.WithPopulator
	WithOpener    = sqlite.WithOpener
)

// NewAdapter creates an Adapter with no connections.
//
// Example:
//
//	a := sqlite.NewAdapter()
//	err := a.RegisterConnection(ctx, types.ConnectionConfig{
//	    Identity: "default",
//	    Filename: "app.sqlite",
//	}, collections)
//	defer a.TeardownAll()
func NewAdapter(opts ...Option) *Adapter {
	return sqlite.New(opts...)
}
