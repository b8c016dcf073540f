//go:build !sqlite

package storage

import "errors"

var errSQLiteUnavailable = errors.New("sqlite run store unavailable in this build; rebuild with -tags sqlite")

func newSQLiteStore(_ string) (Store, error) {
	return nil, errSQLiteUnavailable
}
