package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/wonny/twstock/pkg/config"
	"github.com/wonny/twstock/pkg/logger"
)

func sqliteConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Store: config.StoreConfig{
			Driver: config.DriverSQLite,
			Path:   filepath.Join(t.TempDir(), "tw_stock.db"),
		},
	}
}

func TestNewSQLite(t *testing.T) {
	db, err := New(sqliteConfig(t), logger.Nop())
	if err != nil {
		t.Fatalf("Failed to open sqlite: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	status, err := db.HealthCheck(ctx)
	if err != nil {
		t.Fatalf("HealthCheck failed: %v", err)
	}

	if !status.Healthy {
		t.Error("Expected database to be healthy")
	}

	if status.Driver != config.DriverSQLite {
		t.Errorf("Expected sqlite driver, got %s", status.Driver)
	}

	if status.Stats != nil {
		t.Error("Expected no pool stats for sqlite")
	}
}

func TestNewUnsupportedDriver(t *testing.T) {
	cfg := &config.Config{Store: config.StoreConfig{Driver: "oracle"}}

	if _, err := New(cfg, logger.Nop()); err == nil {
		t.Error("Expected error for unsupported driver, got nil")
	}
}

func TestNewWithInvalidURL(t *testing.T) {
	cfg := &config.Config{
		Store: config.StoreConfig{
			Driver:          config.DriverPostgres,
			URL:             "invalid://url",
			MaxConns:        10,
			MinConns:        1,
			MaxConnLifetime: time.Hour,
			MaxConnIdleTime: 30 * time.Minute,
		},
	}

	if _, err := New(cfg, logger.Nop()); err == nil {
		t.Error("Expected error with invalid database URL, got nil")
	}
}

func TestNewPostgres(t *testing.T) {
	// Skip if DATABASE_URL is not set
	if os.Getenv("DATABASE_URL") == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	cfg := &config.Config{
		Store: config.StoreConfig{
			Driver:          config.DriverPostgres,
			URL:             os.Getenv("DATABASE_URL"),
			MaxConns:        4,
			MinConns:        1,
			MaxConnLifetime: time.Hour,
			MaxConnIdleTime: 30 * time.Minute,
		},
	}

	db, err := New(cfg, logger.Nop())
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	defer db.Close()

	if stats := db.Stats(); stats.MaxConns == 0 {
		t.Error("Expected MaxConns to be greater than 0")
	}
}

func TestCloseTwice(t *testing.T) {
	db, err := New(sqliteConfig(t), logger.Nop())
	if err != nil {
		t.Fatalf("Failed to open sqlite: %v", err)
	}

	// Close should not panic
	db.Close()
	db.Close()
}
