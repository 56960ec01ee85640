//go:build native_sqlite
// +build native_sqlite

package docstore

import (
	"database/sql/driver"
	"errors"

	sqlite "modernc.org/sqlite"
)

func init() {
	sqlite.MustRegisterDeterministicScalarFunction(
		"regexp",
		2,
		func(ctx *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
			pattern, ok := args[0].(string)
			if !ok {
				return nil, errors.New("expected argv[0] to be text")
			}
			s, ok := args[1].(string)
			if !ok {
				return nil, errors.New("expected argv[1] to be text")
			}
			return sqlRegexp(pattern, s)
		},
	)
}

const SQLiteDriverName = "sqlite"
