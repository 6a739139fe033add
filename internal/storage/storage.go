// Package storage persists small string values (the session credential) across
// process restarts.
package storage

import (
	"fmt"
	"strings"
)

type Driver string

const (
	DriverFile   Driver = "file"
	DriverSQLite Driver = "sqlite"
	DriverMemory Driver = "memory"
)

// Storage is a synchronous key/value store. Get never fails: an unreadable
// value is reported as absent.
type Storage interface {
	Get(key string) (string, bool)
	Set(key string, value string) error
	Remove(key string) error
}

type Options struct {
	Driver Driver
	// Path is the directory for the file driver and the database file for sqlite.
	Path string
	// Namespace separates credentials of different API servers.
	Namespace string
}

// Open creates the storage selected by opts.Driver.
func Open(opts Options) (Storage, error) {
	switch Driver(strings.ToLower(string(opts.Driver))) {
	case DriverFile, "":
		return NewFileStorage(opts.Path, opts.Namespace)
	case DriverSQLite:
		return NewSQLStorage(opts.Path, opts.Namespace)
	case DriverMemory:
		return NewMemoryStorage(), nil
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", opts.Driver)
	}
}
