package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeMySQLDSN(t *testing.T) {
	dsn, err := NormalizeMySQLDSN("user:pass@tcp(localhost:3306)/eventease")
	require.NoError(t, err)
	assert.Contains(t, dsn, "parseTime=true")

	_, err = NormalizeMySQLDSN("not a dsn")
	assert.Error(t, err)
}

func TestConnectAndMigrateSQLite(t *testing.T) {
	database, err := ConnectDatabase("sqlite", "file::memory:")
	require.NoError(t, err)

	sqlDB, err := database.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	defer sqlDB.Close()

	require.NoError(t, MigrateDatabase(database))

	for _, table := range []string{"users", "events", "tasks", "chat_sessions", "event_participants", "task_assignments", "friendships"} {
		assert.True(t, database.Migrator().HasTable(table), "missing table %s", table)
	}
}

func TestConnectUnsupportedDriver(t *testing.T) {
	_, err := ConnectDatabase("oracle", "dsn")
	assert.Error(t, err)
}
