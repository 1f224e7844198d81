package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// The repositories address these columns by name; a schema that misses one
// breaks every authenticated request at runtime.
func TestSchemaCoversRepositoryColumns(t *testing.T) {
	tables := map[string][]string{
		"profiles":   {"id", "full_name", "role", "hotel_id", "active"},
		"areas":      {"id", "hotel_id", "name"},
		"user_areas": {"user_id", "hotel_id", "area_id"},
		"templates":  {"id", "hotel_id", "name"},
		"sections":   {"id", "template_id", "position"},
		"questions":  {"id", "section_id", "position", "active", "created_at"},
		"audit_logs": {"actor_id", "action", "entity", "entity_id", "meta", "occurred_at"},
	}

	for table, columns := range tables {
		ddl := tableDDL(t, table)
		for _, column := range columns {
			require.Contains(t, ddl, column, "table %s", table)
		}
	}
}

// Emails live in the identity provider; the profile row must not carry one,
// least of all behind a NOT NULL constraint the application never satisfies.
func TestProfilesTableHasNoEmailColumn(t *testing.T) {
	require.NotContains(t, tableDDL(t, "profiles"), "email")
}

func tableDDL(t *testing.T, table string) string {
	t.Helper()
	marker := "CREATE TABLE IF NOT EXISTS " + table + " ("
	start := strings.Index(schema, marker)
	require.GreaterOrEqual(t, start, 0, "no DDL for table %s", table)
	rest := schema[start:]
	end := strings.Index(rest, ");")
	require.GreaterOrEqual(t, end, 0, "unterminated DDL for table %s", table)
	return rest[:end]
}
