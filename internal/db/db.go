package db

import (
	"database/sql"
	"fmt"

	// Registers the "libsql" driver with database/sql. Handles remote URLs
	// (libsql://, https://, wss://).
	_ "github.com/tursodatabase/libsql-client-go/libsql"

	// Pure-Go SQLite driver; libsql-client-go delegates file: URLs to it, so
	// per-case databases need no cgo.
	_ "modernc.org/sqlite"
)

// driverName is the database/sql driver to use. Package-level for tests;
// production always uses "libsql".
var driverName = "libsql"

// Connect opens a database connection and verifies it with a ping.
//
// Supported URL schemes:
//
//	Local file:  "file:path/to/intelligence.db"
//	Remote:      "libsql://[db-name].turso.io?authToken=[token]"
func Connect(dbURL string) (*sql.DB, error) {
	if dbURL == "" {
		return nil, fmt.Errorf("database URL must not be empty")
	}

	db, err := sql.Open(driverName, dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}
