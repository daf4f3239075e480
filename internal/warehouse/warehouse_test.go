package warehouse

import (
	"errors"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsComeInPairs(t *testing.T) {
	entries, err := migrations.ReadDir("migrations")
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		default:
			t.Errorf("unexpected migration file %q", name)
		}
	}

	assert.Equal(t, keys(ups), keys(downs), "every up migration needs a matching down")
}

func keys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func TestSchemaMigrationCreatesStarTables(t *testing.T) {
	data, err := migrations.ReadFile("migrations/000001_star_schema.up.sql")
	require.NoError(t, err)

	ddl := string(data)
	for _, table := range []string{"customer_dim", "product_dim", "date_dim", "sales_fact"} {
		assert.Contains(t, ddl, "CREATE TABLE "+table)
	}

	// Full reloads rely on dimension deletes cascading into facts.
	assert.Equal(t, 3, strings.Count(ddl, "ON DELETE CASCADE"))
}

func TestInsertStatementsMatchSchemaArity(t *testing.T) {
	tests := []struct {
		name         string
		sql          string
		placeholders int
	}{
		{name: "customer_dim", sql: insertCustomerDimSQL, placeholders: 6},
		{name: "product_dim", sql: insertProductDimSQL, placeholders: 4},
		{name: "date_dim", sql: insertDateDimSQL, placeholders: 6},
		{name: "sales_fact", sql: insertSalesFactSQL, placeholders: 7},
		{name: "etl_runs", sql: insertRunSQL, placeholders: 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.placeholders, strings.Count(tt.sql, "$"))
			// Column list arity matches placeholder arity.
			open := strings.Index(tt.sql, "(")
			closing := strings.Index(tt.sql, ")")
			require.True(t, open >= 0 && closing > open)
			columns := strings.Split(tt.sql[open+1:closing], ",")
			assert.Len(t, columns, tt.placeholders)
		})
	}
}

func TestTableResultFailed(t *testing.T) {
	assert.False(t, TableResult{Table: "customer_dim", Rows: 3}.Failed())
	assert.True(t, TableResult{Table: "sales_fact", Err: errors.New("boom")}.Failed())
}
