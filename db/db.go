// Package db opens the gorm handle shared by the user and todo repositories.
package db

import (
	"fmt"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/ichigozero/todokit/todosvc"
	"github.com/ichigozero/todokit/usersvc"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	libgorm "gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// Open connects to the database named by driver. An empty url with the
// sqlite driver opens gorm.db in the working directory.
func Open(driver, url string) (*libgorm.DB, error) {
	var dialector libgorm.Dialector
	switch driver {
	case DriverPostgres:
		dialector = postgres.Open(url)
	case DriverMySQL:
		cfg, err := mysqldriver.ParseDSN(url)
		if err != nil {
			return nil, err
		}
		// Report matched rather than changed rows, as SQLite and PostgreSQL
		// do, so an update that keeps the stored values still finds its row.
		cfg.ClientFoundRows = true
		dialector = mysql.Open(cfg.FormatDSN())
	case DriverSQLite, "":
		if url == "" {
			url = "gorm.db"
		}
		dialector = sqlite.Open(url)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := libgorm.Open(dialector, &libgorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	if driver == DriverSQLite || driver == "" {
		// SQLite allows a single writer; one connection keeps in-memory
		// databases alive and transactions serialized.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	return db, nil
}

func Migrate(db *libgorm.DB) error {
	return db.AutoMigrate(&usersvc.User{}, &todosvc.Todo{})
}
