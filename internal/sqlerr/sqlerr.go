// Package sqlerr normalizes SQLite failures into the adapter's error
// taxonomy. Failures it does not recognize are returned unchanged.
package sqlerr

import (
	"errors"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/mesh-intelligence/wlsqlite/pkg/types"
)

// wrappers maps primary SQLite result codes to the structured error
// they become.
var wrappers = map[int]func(native *sqlite.Error, chain error) error{
	sqlite3.SQLITE_CONSTRAINT: func(native *sqlite.Error, chain error) error {
		return types.NewError(types.CodeUnique, native.Error(), chain)
	},
}

// Wrap relabels a recognized engine failure and passes anything else
// through. It never retries and never drops an error.
func Wrap(err error) error {
	if err == nil {
		return nil
	}

	var done *types.Error
	if errors.As(err, &done) {
		return err
	}

	var native *sqlite.Error
	if !errors.As(err, &native) {
		return err
	}

	// Extended result codes carry the primary code in the low byte.
	wrap, ok := wrappers[native.Code()&0xff]
	if !ok {
		return err
	}
	return wrap(native, err)
}

// Code returns the primary SQLite result code in err's chain, or 0.
func Code(err error) int {
	var native *sqlite.Error
	if errors.As(err, &native) {
		return native.Code() & 0xff
	}
	return 0
}
