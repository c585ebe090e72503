package sqlite

import (
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/wlsqlite/pkg/types"
)

// DriverName is the database/sql driver the adapter opens.
const DriverName = "sqlite"

// Open opens the database described by cfg with the modernc driver.
func Open(cfg types.ConnectionConfig) (*sql.DB, error) {
	return sql.Open(DriverName, DSN(cfg))
}

// DSN builds the driver data source name for cfg. Write transactions
// begin IMMEDIATE so that the write lock is held from the first read of
// a read-modify-write sequence. An ephemeral connection gets a private
// in-memory database named by a fresh UUID. A filename that is already a
// file: URI keeps its own query parameters.
func DSN(cfg types.ConnectionConfig) string {
	name := strings.TrimPrefix(cfg.Filename, "file:")
	q := url.Values{}
	if i := strings.IndexByte(name, '?'); i >= 0 {
		if parsed, err := url.ParseQuery(name[i+1:]); err == nil {
			q = parsed
		}
		name = name[:i]
	}
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", cfg.BusyTimeout.Milliseconds()))
	q.Add("_pragma", "foreign_keys(1)")
	q.Set("_txlock", "immediate")

	if cfg.Ephemeral {
		name = uuid.NewString()
		q.Set("mode", "memory")
		q.Set("cache", "shared")
	}
	return "file:" + name + "?" + q.Encode()
}
