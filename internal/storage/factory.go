package storage

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMongoDB  = "mongodb"
	DriverMemory   = "memory"
)

// DefaultMongoDatabase is used when the mongodb driver has no database name.
const DefaultMongoDatabase = "specrag"

var drivers = []string{DriverSQLite, DriverPostgres, DriverMongoDB, DriverMemory}

// Drivers lists the accepted Config.Driver values.
func Drivers() []string {
	return slices.Clone(drivers)
}

// ErrCollectionNotFound is returned when operating on a collection that was never created
var ErrCollectionNotFound = errors.New("collection not found")

func errCollectionNotFound(name string) error {
	return fmt.Errorf("%w: %s", ErrCollectionNotFound, name)
}

// Config selects a backend and carries its connection settings. Only the
// fields of the chosen driver are read.
type Config struct {
	Driver string

	SQLitePath string

	PostgresDSN string

	MongoDBURI      string
	MongoDBDatabase string
}

// New opens the vector store named by cfg.Driver.
func New(ctx context.Context, cfg Config) (Storage, error) {
	switch cfg.Driver {
	case DriverMemory:
		return NewMemory(), nil

	case DriverSQLite:
		if cfg.SQLitePath == "" {
			return nil, fmt.Errorf("sqlite path is required")
		}
		return NewSQLite(cfg.SQLitePath)

	case DriverPostgres:
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("postgres DSN is required")
		}
		return NewPostgres(ctx, cfg.PostgresDSN)

	case DriverMongoDB:
		if cfg.MongoDBURI == "" {
			return nil, fmt.Errorf("mongodb URI is required")
		}
		db := cfg.MongoDBDatabase
		if db == "" {
			db = DefaultMongoDatabase
		}
		return NewMongoDB(ctx, cfg.MongoDBURI, db)
	}
	return nil, fmt.Errorf("unknown storage driver: %s (allowed: %s)", cfg.Driver, strings.Join(drivers, ", "))
}
