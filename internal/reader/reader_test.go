package reader

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	pipeerrors "salesdw/internal/errors"
	"salesdw/internal/shared/testutil"
)

func writeCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReader_Read(t *testing.T) {
	path := writeCSV(t, "customers_data.csv",
		"Customer_ID,Name,Region,Lifetime_Value\n"+
			"1,Ada,North,1200\n"+
			"2,Grace,South,300\n")

	r := New(slog.Default())
	table, err := r.Read("customers", path, []string{"customer_id", "name", "region", "lifetime_value"})
	require.NoError(t, err)

	assert.Equal(t, 2, table.RowCount())
	assert.Equal(t, []string{"customer_id", "name", "region", "lifetime_value"}, table.Columns())

	v, err := table.Cell(0, "name")
	require.NoError(t, err)
	assert.Equal(t, "Ada", v)
}

func TestReader_Read_SourceUnavailable(t *testing.T) {
	logger, handler := testutil.NewLogger(t)
	r := New(logger)

	_, err := r.Read("customers", filepath.Join(t.TempDir(), "nope.csv"), []string{"customer_id"})
	require.Error(t, err)

	assert.True(t, pipeerrors.IsCode(err, pipeerrors.CodeSourceUnavailable))
	testutil.AssertLogged(t, handler, slog.LevelError, "source read failed")
}

func TestReader_Read_SchemaMismatch(t *testing.T) {
	path := writeCSV(t, "products_data.csv",
		"product_id,product_name\n1,Widget\n")

	logger, handler := testutil.NewLogger(t)
	r := New(logger)

	_, err := r.Read("products", path, []string{"product_id", "product_name", "category"})
	require.Error(t, err)

	assert.True(t, pipeerrors.IsCode(err, pipeerrors.CodeSchemaMismatch))
	assert.True(t, handler.ContainsAttr("source", "products"))
	testutil.AssertLogged(t, handler, slog.LevelError, "schema mismatch")
}

func TestReader_Read_EmptyFileIsSchemaMismatch(t *testing.T) {
	path := writeCSV(t, "sales_data.csv", "")

	r := New(slog.Default())
	_, err := r.Read("sales", path, []string{"sale_id"})
	require.Error(t, err)
	assert.True(t, pipeerrors.IsCode(err, pipeerrors.CodeSchemaMismatch))
}

func TestReader_Read_ShortRowsPadded(t *testing.T) {
	path := writeCSV(t, "sales_data.csv",
		"sale_id,customer_id,product_id,sale_date,sale_amount\n"+
			"1,7,2,2024-01-03,19.99\n"+
			"2,7\n")

	r := New(slog.Default())
	table, err := r.Read("sales", path, []string{"sale_id", "customer_id"})
	require.NoError(t, err)
	require.Equal(t, 2, table.RowCount())

	v, err := table.Cell(1, "sale_amount")
	require.NoError(t, err)
	assert.Equal(t, "", v)
}

func TestReader_Read_XLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "customers_data.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"customer_id", "name", "region", "lifetime_value"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"1", "Ada", "North", "1200"}))
	require.NoError(t, f.SaveAs(path))

	r := New(slog.Default())
	table, err := r.Read("customers", path, []string{"customer_id", "name"})
	require.NoError(t, err)

	assert.Equal(t, 1, table.RowCount())
	v, err := table.Cell(0, "region")
	require.NoError(t, err)
	assert.Equal(t, "North", v)
}
