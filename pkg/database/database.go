// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

// Package database holds the relational facades: ranked top-sites lists
// and ground-truth rows. Analysis results live in the document store
// (pkg/docstore), not here.
package database

import (
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/socsys/fidentikit/pkg/config"
	"github.com/socsys/fidentikit/pkg/errors"
)

var db *gorm.DB

// InitDatabase opens the relational store and migrates the tables the
// dispatcher reads.
func InitDatabase(cfg config.RelationalStoreConfig) error {
	conn, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return errors.NewError().WithCode(errors.CodeDatabaseError).
			WithMessage("failed to connect to relational store").WithError(err)
	}
	db = conn
	return nil
}

// SetDB injects a database handle, used by tests (sqlite/sqlmock).
func SetDB(conn *gorm.DB) {
	db = conn
}

// GetDB returns the shared handle.
func GetDB() *gorm.DB {
	return db
}
