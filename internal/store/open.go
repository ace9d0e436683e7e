package store

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
)

// Backend names accepted by Open.
const (
	DriverSQLite = "sqlite"
	DriverFile   = "file"
	DriverMemory = "memory"
)

// DatabaseFileName is the SQLite file created inside the config directory.
const DatabaseFileName = "subsleuth.db"

// Open returns a Store for the named driver rooted at dir.
func Open(ctx context.Context, driver, dir string) (*KVStore, error) {
	var (
		kv  KV
		err error
	)
	switch driver {
	case DriverSQLite, "":
		kv, err = OpenSQLite(ctx, filepath.Join(dir, DatabaseFileName))
	case DriverFile:
		kv, err = NewFileKV(afero.NewOsFs(), filepath.Join(dir, "store"))
	case DriverMemory:
		kv = NewMemoryKV()
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
	if err != nil {
		return nil, err
	}
	return New(kv), nil
}
