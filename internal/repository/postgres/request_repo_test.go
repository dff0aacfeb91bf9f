package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormpg "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func dryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(gormpg.New(gormpg.Config{DSN: "host=localhost user=singr dbname=singr sslmode=disable"}), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
	})
	require.NoError(t, err)
	return db
}

func TestLockVenue_SelectsForUpdate(t *testing.T) {
	stmt := lockVenue(dryRunDB(t), "venue-1").Statement

	sql := stmt.SQL.String()
	assert.Contains(t, sql, `FROM "venues"`)
	assert.Contains(t, sql, "FOR UPDATE")
	assert.Contains(t, stmt.Vars, "venue-1")
}
