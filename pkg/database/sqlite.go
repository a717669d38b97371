package database

import (
	"fmt"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/wonny/twstock/pkg/config"
	"github.com/wonny/twstock/pkg/logger"
)

// OpenSQLite opens a sqlite file (or ":memory:") through gorm.
// The pool is pinned to one connection: sqlite allows a single writer and
// an in-memory database lives only as long as its connection.
func OpenSQLite(path string, log *logger.Logger) (*gorm.DB, error) {
	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?_busy_timeout=5000"
	}

	gdb, err := gorm.Open(sqlite.Open(dsn), gormConfig(log))
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite %s: %w", path, err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sqlite handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	return gdb, nil
}

func newSQLite(path string, log *logger.Logger) (*DB, error) {
	gdb, err := OpenSQLite(path, log)
	if err != nil {
		return nil, err
	}

	sqlDB, _ := gdb.DB()
	return &DB{Gorm: gdb, Driver: config.DriverSQLite, sqlDB: sqlDB}, nil
}
