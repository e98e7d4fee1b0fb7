// db.go: database connection
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package ledger

import (
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// MemoryDSN opens a private in-memory database.
const MemoryDSN = ":memory:"

// Open connects to the SQLite database at dsn and migrates the schema.
// glebarez/sqlite is a pure Go driver, no CGO is required.
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, storageError("open", err)
	}

	// Every connection to :memory: sees its own empty database.
	if dsn == MemoryDSN {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, storageError("open", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(&Account{}, &Transaction{}); err != nil {
		return nil, storageError("migrate", err)
	}
	return db, nil
}
