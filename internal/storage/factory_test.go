package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/hackgods/patient-ledger/internal/config"
)

func TestOpenEmbeddedDrivers(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Config{
		LevelDBPath: filepath.Join(dir, "ledger.leveldb"),
		SQLitePath:  filepath.Join(dir, "ledger.db"),
	}

	for _, driver := range []Driver{DriverMemory, DriverLevelDB, DriverSQLite} {
		t.Run(string(driver), func(t *testing.T) {
			cfg.StorageDriver = string(driver)
			b, err := Open(context.Background(), cfg, nil)
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			defer b.Close()
			if b.Driver() != driver {
				t.Fatalf("driver = %s, want %s", b.Driver(), driver)
			}
		})
	}
}

func TestOpenRejects(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.Config
	}{
		{name: "unknown driver", cfg: config.Config{StorageDriver: "etcd"}},
		{name: "redis without client", cfg: config.Config{StorageDriver: "redis"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Open(context.Background(), tt.cfg, nil); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}
