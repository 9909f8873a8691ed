package database

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenSQLiteMemory(t *testing.T) {
	db, err := Open(DriverSQLite, ":memory:")
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
	assert.Nil(t, TxOptions(db))
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open("mysql", "whatever")
	assert.Error(t, err)
}

func TestConnectSetsGlobal(t *testing.T) {
	require.NoError(t, Connect("", ":memory:"))
	assert.NotNil(t, GetDB())
}

func TestReadCommittedConstant(t *testing.T) {
	opts := &sql.TxOptions{Isolation: sql.LevelReadCommitted}
	assert.Equal(t, "Read Committed", opts.Isolation.String())
}
