package dataset

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		columns []string
		wantErr bool
		want    []string
	}{
		{
			name:    "plain columns",
			columns: []string{"customer_id", "name", "region"},
			want:    []string{"customer_id", "name", "region"},
		},
		{
			name:    "headers normalized",
			columns: []string{" Customer_ID ", "Product Name"},
			want:    []string{"customer_id", "product_name"},
		},
		{
			name:    "duplicate column rejected",
			columns: []string{"customer_id", "Customer_ID"},
			wantErr: true,
		},
		{
			name:    "no columns rejected",
			columns: nil,
			wantErr: true,
		},
		{
			name:    "blank column rejected",
			columns: []string{"customer_id", "  "},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := New("customers", tt.columns)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, table.Columns())
			assert.Equal(t, "customers", table.Name())
		})
	}
}

func TestTable_AppendRowAndCells(t *testing.T) {
	table, err := New("sales", []string{"sale_id", "sale_amount"})
	require.NoError(t, err)

	require.NoError(t, table.AppendRow([]any{"1", "10.50"}))
	require.NoError(t, table.AppendRow([]any{"2", "99"}))
	assert.Equal(t, 2, table.RowCount())

	// Arity mismatch is a structural error, not a data error.
	assert.Error(t, table.AppendRow([]any{"3"}))

	v, err := table.Cell(0, "sale_amount")
	require.NoError(t, err)
	assert.Equal(t, "10.50", v)

	require.NoError(t, table.SetCell(0, "sale_amount", float64(10.5)))
	v, err = table.Cell(0, "sale_amount")
	require.NoError(t, err)
	assert.Equal(t, float64(10.5), v)

	_, err = table.Cell(0, "missing")
	assert.Error(t, err)
}

func TestTable_Keep(t *testing.T) {
	table, err := New("customers", []string{"customer_id"})
	require.NoError(t, err)
	for _, id := range []string{"1", "2", "3", "4"} {
		require.NoError(t, table.AppendRow([]any{id}))
	}

	table.Keep([]int{0, 2})
	require.Equal(t, 2, table.RowCount())

	first, _ := table.Cell(0, "customer_id")
	second, _ := table.Cell(1, "customer_id")
	assert.Equal(t, "1", first)
	assert.Equal(t, "3", second)
}

func TestTable_WriteCSVFile(t *testing.T) {
	table, err := New("sales", []string{"sale_id", "sale_date", "sale_amount"})
	require.NoError(t, err)
	require.NoError(t, table.AppendRow([]any{
		int64(100), time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC), float64(120.5),
	}))
	require.NoError(t, table.AppendRow([]any{int64(101), nil, float64(30)}))

	// Parent directories are created on demand.
	path := filepath.Join(t.TempDir(), "processed", "sales_clean.csv")
	require.NoError(t, table.WriteCSVFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t,
		"sale_id,sale_date,sale_amount\n100,2024-01-07,120.5\n101,,30\n",
		string(data))
}

func TestIsNull(t *testing.T) {
	assert.True(t, IsNull(nil))
	assert.True(t, IsNull(""))
	assert.True(t, IsNull("  "))
	assert.True(t, IsNull("N/A"))
	assert.True(t, IsNull("null"))
	assert.True(t, IsNull("NaN"))
	assert.False(t, IsNull("0"))
	assert.False(t, IsNull(int64(0)))
	assert.False(t, IsNull(float64(0)))
}

func TestCoerce(t *testing.T) {
	tests := []struct {
		name    string
		value   any
		kind    Kind
		want    any
		wantErr bool
	}{
		{name: "int from string", value: "42", kind: KindInt, want: int64(42)},
		{name: "int with thousands separator", value: "1,234", kind: KindInt, want: int64(1234)},
		{name: "int rendered as float", value: "17.0", kind: KindInt, want: int64(17)},
		{name: "int from float cell", value: float64(7), kind: KindInt, want: int64(7)},
		{name: "fractional rejected as int", value: "17.5", kind: KindInt, wantErr: true},
		{name: "garbage rejected as int", value: "abc", kind: KindInt, wantErr: true},
		{name: "float from string", value: "10.25", kind: KindFloat, want: float64(10.25)},
		{name: "float with separator", value: "1,234.50", kind: KindFloat, want: float64(1234.5)},
		{name: "garbage rejected as float", value: "ten", kind: KindFloat, wantErr: true},
		{name: "iso date", value: "2024-03-15", kind: KindDate, want: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
		{name: "us date", value: "03/15/2024", kind: KindDate, want: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
		{name: "garbage rejected as date", value: "someday", kind: KindDate, wantErr: true},
		{name: "null passes through", value: "", kind: KindInt, want: nil},
		{name: "string passthrough", value: "hello", kind: KindString, want: "hello"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Coerce(tt.value, tt.kind)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind(" Float ")
	require.NoError(t, err)
	assert.Equal(t, KindFloat, k)

	_, err = ParseKind("decimal")
	assert.Error(t, err)
}
