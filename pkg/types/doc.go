// Package types defines the attribute, collection, criteria and record
// types shared by the SQLite adapter and its callers, together with the
// connection configuration and the adapter's error taxonomy.
package types
