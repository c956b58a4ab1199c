package db

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const migrationsDir = "../../migrations"

func TestMigrationFiles_Ordered(t *testing.T) {
	names, err := migrationFiles(migrationsDir)
	require.NoError(t, err)
	require.NotEmpty(t, names)
	assert.Equal(t, "0001_users.sql", names[0])
	assert.IsIncreasing(t, names)
}

// Последнее объявление типа каждой частной оценки должно хранить её без
// округления, иначе GetMatch вернёт не ту разбивку, что посчитал скорер.
func TestMigrations_SubScoresKeepPrecision(t *testing.T) {
	names, err := migrationFiles(migrationsDir)
	require.NoError(t, err)

	columnType := regexp.MustCompile(`(?i)(score_(?:route|capacity|timing|price|rating))\s+(?:TYPE\s+)?(NUMERIC\([^)]*\)|DOUBLE PRECISION)`)
	effective := map[string]string{}
	for _, name := range names {
		body, err := os.ReadFile(filepath.Join(migrationsDir, name))
		require.NoError(t, err)
		for _, m := range columnType.FindAllStringSubmatch(string(body), -1) {
			effective[m[1]] = m[2]
		}
	}

	require.Len(t, effective, 5)
	for column, typ := range effective {
		assert.Equal(t, "DOUBLE PRECISION", typ, column)
	}
}
