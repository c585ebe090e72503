package types

import (
	"os"
	"time"
)

// Adapter defaults applied by ConnectionConfig.ApplyDefaults.
const (
	DefaultFilename    = "waterlinedb.sqlite"
	DefaultBusyTimeout = 5 * time.Second
)

// EnvDebugSQL, when non-empty, turns on SQL logging for every connection.
const EnvDebugSQL = "WLSQLITE_DEBUG_SQL"

// ConnectionConfig holds the parameters of one logical connection.
type ConnectionConfig struct {
	// Identity is the unique logical name of the connection.
	Identity string `mapstructure:"identity" json:"identity" yaml:"identity"`

	// Filename is the database file. Ignored when Ephemeral is set.
	Filename string `mapstructure:"filename" json:"filename" yaml:"filename"`

	// Ephemeral selects a private in-memory database that disappears on
	// teardown.
	Ephemeral bool `mapstructure:"ephemeral" json:"ephemeral" yaml:"ephemeral"`

	// Debug logs every statement the connection executes.
	Debug bool `mapstructure:"debug" json:"debug" yaml:"debug"`

	// StrictTypes rejects attributes with an unrecognized semantic type
	// instead of falling back to TEXT.
	StrictTypes bool `mapstructure:"strict_types" json:"strict_types" yaml:"strict_types"`

	// BusyTimeout bounds how long a statement waits on a lock held by
	// another process.
	BusyTimeout time.Duration `mapstructure:"busy_timeout" json:"busy_timeout" yaml:"busy_timeout"`
}

// ApplyDefaults fills unset fields with the adapter defaults.
func (c *ConnectionConfig) ApplyDefaults() {
	if c.Filename == "" {
		c.Filename = DefaultFilename
	}
	if c.BusyTimeout <= 0 {
		c.BusyTimeout = DefaultBusyTimeout
	}
	if os.Getenv(EnvDebugSQL) != "" {
		c.Debug = true
	}
}

// Validate checks that the config names a logical identity.
func (c ConnectionConfig) Validate() error {
	if c.Identity == "" {
		return ErrIdentityMissing
	}
	return nil
}
