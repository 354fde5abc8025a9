// Package database opens the SQLite databases used by the task and auth modules.
package database

import (
	"fmt"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// MemoryPath is the SQLite path of a private in-memory database.
const MemoryPath = ":memory:"

// IsMemory reports whether path names an in-memory SQLite database.
func IsMemory(path string) bool {
	return path == MemoryPath || strings.HasPrefix(path, "file::memory:") || strings.Contains(path, "mode=memory")
}

// OpenSQLite opens path with GORM error translation and a silent logger.
// Every pooled connection to an in-memory database is a separate, empty
// database, so in-memory databases are held to a single connection.
func OpenSQLite(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if IsMemory(path) {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database handle: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	return db, nil
}
