package db

import (
	"testing"

	"github.com/phmhse/csmstrack/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMySQLDSN(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"csms:pw@tcp(db:3306)/csms", "csms:pw@tcp(db:3306)/csms?parseTime=true"},
		{"csms:pw@tcp(db:3306)/csms?charset=utf8mb4", "csms:pw@tcp(db:3306)/csms?charset=utf8mb4&parseTime=true"},
		{"csms:pw@tcp(db:3306)/csms?parseTime=false", "csms:pw@tcp(db:3306)/csms?parseTime=false"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MySQLDSN(tt.in), "MySQLDSN(%q)", tt.in)
	}
}

func TestDialector_UnknownDriver(t *testing.T) {
	_, err := Dialector("oracle", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported driver")
}

func TestDialector_KnownDrivers(t *testing.T) {
	for _, d := range []string{"postgres", "mysql", "sqlite"} {
		dialector, err := Dialector(d, "dsn")
		require.NoError(t, err, d)
		assert.NotNil(t, dialector, d)
	}
}

func TestConnect_SQLiteMigrateAndDrop(t *testing.T) {
	gdb, err := Connect("sqlite", ":memory:")
	require.NoError(t, err)
	require.NoError(t, Ping(gdb))
	require.NoError(t, AutoMigrate(gdb))

	for _, m := range AllModels() {
		assert.True(t, gdb.Migrator().HasTable(m), "table for %T", m)
	}
	assert.True(t, gdb.Migrator().HasColumn(&models.Task{}, "attachments"))
	assert.True(t, gdb.Migrator().HasIndex(&models.CsmsPB{}, "idx_pb_project_period"))

	// Idempotent.
	require.NoError(t, AutoMigrate(gdb))

	require.NoError(t, DropAll(gdb))
	for _, m := range AllModels() {
		assert.False(t, gdb.Migrator().HasTable(m), "table for %T after drop", m)
	}
}
