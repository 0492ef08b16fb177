package persistence

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/digistore/backend/internal/domain/audit"
	"github.com/digistore/backend/internal/domain/fulfillment"
	"github.com/digistore/backend/internal/domain/imports"
	"github.com/digistore/backend/internal/domain/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/schema"
)

// readMigrationDDL concatenates every up migration so tables split
// across migration files can be checked in one pass.
func readMigrationDDL(t *testing.T) string {
	t.Helper()

	dir := filepath.Join("..", "..", "..", "migrations")
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	var ddl strings.Builder
	for _, entry := range entries {
		if !strings.HasSuffix(entry.Name(), ".up.sql") {
			continue
		}
		content, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		require.NoError(t, err)
		ddl.Write(content)
		ddl.WriteString("\n")
	}
	return ddl.String()
}

// createTableBlock extracts the column list of one CREATE TABLE
// statement from the combined DDL.
func createTableBlock(t *testing.T, ddl, table string) string {
	t.Helper()

	pattern := regexp.MustCompile(`(?s)CREATE TABLE IF NOT EXISTS ` + table + `\s*\((.*?)\);`)
	match := pattern.FindStringSubmatch(ddl)
	require.NotNil(t, match, "no CREATE TABLE statement for %s", table)
	return match[1]
}

// The migrations must declare every column the models persist. A column
// the models read but the DDL omits only surfaces in environments that
// provision the schema from migrations instead of AutoMigrate, so it is
// pinned here. The version column in particular backs optimistic
// locking on every aggregate root.
func TestMigrationsDeclareModelColumns(t *testing.T) {
	ddl := readMigrationDDL(t)

	models := []any{
		&ledger.InventoryRecord{},
		&imports.ImportBatch{},
		&imports.ImportBatchItem{},
		&fulfillment.Order{},
		&fulfillment.OrderItem{},
		&audit.Entry{},
	}

	for _, model := range models {
		parsed, err := schema.Parse(model, &sync.Map{}, schema.NamingStrategy{})
		require.NoError(t, err)

		t.Run(parsed.Table, func(t *testing.T) {
			block := createTableBlock(t, ddl, parsed.Table)
			for _, field := range parsed.Fields {
				if field.DBName == "" {
					continue
				}
				columnLine := regexp.MustCompile(`(?m)^\s*` + field.DBName + `\s`)
				assert.Regexp(t, columnLine, block,
					"column %s.%s missing from migration DDL", parsed.Table, field.DBName)
			}
		})
	}
}

func TestMigrationsDeclareVersionForAggregateRoots(t *testing.T) {
	ddl := readMigrationDDL(t)

	for _, table := range []string{"inventory_records", "import_batches", "orders"} {
		block := createTableBlock(t, ddl, table)
		assert.Regexp(t, `(?m)^\s*version\s+BIGINT NOT NULL DEFAULT 1`, block,
			"aggregate table %s needs a version column for optimistic locking", table)
	}
}
