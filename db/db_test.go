package db_test

import (
	"testing"

	"github.com/ichigozero/todokit/db"
	"github.com/ichigozero/todokit/todosvc"
	"github.com/ichigozero/todokit/usersvc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenUnsupportedDriver(t *testing.T) {
	_, err := db.Open("oracle", "")
	assert.Error(t, err)
}

func TestOpenMySQLInvalidDSN(t *testing.T) {
	_, err := db.Open(db.DriverMySQL, "not a dsn")
	assert.Error(t, err)
}

func TestMigrate(t *testing.T) {
	database, err := db.Open(db.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, _ := database.DB()
		sqlDB.Close()
	})

	require.NoError(t, db.Migrate(database))

	assert.True(t, database.Migrator().HasTable(&usersvc.User{}))
	assert.True(t, database.Migrator().HasTable(&todosvc.Todo{}))
	assert.True(t, database.Migrator().HasIndex(&usersvc.User{}, "idx_users_email"))

	// Migrating twice leaves the schema as is.
	assert.NoError(t, db.Migrate(database))
}
