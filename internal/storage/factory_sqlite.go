//go:build sqlite

package storage

import "errors"

// DefaultStoreKind is the backend used when none is configured.
func DefaultStoreKind() string {
	return KindSQLite
}

func newSQLiteStore(path string) (Store, error) {
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}
	return NewSQLiteStore(path), nil
}
