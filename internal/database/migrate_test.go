package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisteredMigrations(t *testing.T) {
	ms := GetMigrations()
	require.NotEmpty(t, ms)

	for i := 1; i < len(ms); i++ {
		assert.Less(t, ms[i-1].Version, ms[i].Version, "migrations must be sorted by version")
	}

	first := GetMigrationByVersion(1)
	require.NotNil(t, first)
	assert.Equal(t, "init_schema", first.Name)
	assert.Contains(t, first.UpScript, "ON DELETE CASCADE")
	assert.NotEmpty(t, first.DownScript)
	assert.Equal(t, "000001_init_schema", first.String())

	assert.Nil(t, GetMigrationByVersion(999999))
}

func TestNewTestDB_EnforcesForeignKeys(t *testing.T) {
	db := NewTestDB(t)

	var fkOn int
	require.NoError(t, db.Raw("PRAGMA foreign_keys").Scan(&fkOn).Error)
	assert.Equal(t, 1, fkOn)
}
