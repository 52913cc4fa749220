package db

import (
	"errors"
	"fmt"
	"strings"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const sqlitePrefix = "sqlite:"

var ErrNoDSN = errors.New("db: DB_DSN is empty")

// Open picks the driver from the DSN: "sqlite:<path>" uses the pure-Go sqlite
// driver, anything else is treated as a MySQL DSN such as
// app:apppass@tcp(127.0.0.1:3306)/mockai?charset=utf8mb4&parseTime=true&loc=Local
func Open(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, ErrNoDSN
	}
	cfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)}

	var dialector gorm.Dialector
	if path, ok := strings.CutPrefix(dsn, sqlitePrefix); ok {
		dialector = gormsqlite.Open(path)
	} else {
		dialector = mysql.Open(dsn)
	}

	gdb, err := gorm.Open(dialector, cfg)
	if err != nil {
		return nil, fmt.Errorf("db: open: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("db: pool: %w", err)
	}
	if dialector.Name() == "sqlite" {
		// sqlite allows one writer
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(20)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}
	return gdb, nil
}

func Close(gdb *gorm.DB) error {
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
