package migration

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	for _, dialect := range []string{"mysql", "postgres"} {
		entries, err := fs.ReadDir(embeddedMigrations, "sql/"+dialect)
		require.NoError(t, err)

		ups, downs := 0, 0
		for _, e := range entries {
			switch {
			case strings.HasSuffix(e.Name(), ".up.sql"):
				ups++
			case strings.HasSuffix(e.Name(), ".down.sql"):
				downs++
			}
		}
		assert.Equal(t, 3, ups, dialect)
		assert.Equal(t, ups, downs, dialect)
	}
}

func TestRunMigrationsRejectsNilHandle(t *testing.T) {
	assert.Error(t, RunMigrations(nil, "mysql"))
}

func TestAutoMigrateCreatesReferenceTables(t *testing.T) {
	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, AutoMigrate(conn))
	for _, table := range []string{"providers", "trucks", "rates"} {
		assert.True(t, conn.Migrator().HasTable(table), table)
	}
}
