// Package storage provides the key-value backends the execution host keeps
// contract state in. Every backend applies a batch of writes atomically.
package storage

import (
	"context"
	"errors"
)

// Driver identifies a backend implementation.
type Driver string

const (
	DriverMemory   Driver = "memory"   // in-process (tests, dev)
	DriverLevelDB  Driver = "leveldb"  // embedded, default
	DriverSQLite   Driver = "sqlite"   // embedded, single file
	DriverPostgres Driver = "postgres" // shared
	DriverRedis    Driver = "redis"    // shared
)

var ErrClosed = errors.New("storage: backend closed")

// Write sets Key to Value.
type Write struct {
	Key   string
	Value []byte
}

// Backend is a flat byte-string namespace.
type Backend interface {
	// Get returns ok=false when key has never been written.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	// Apply stores every write or none of them.
	Apply(ctx context.Context, writes []Write) error
	Ping(ctx context.Context) error
	Close() error
	Driver() Driver
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
