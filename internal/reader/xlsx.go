package reader

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	pipeerrors "salesdw/internal/errors"
)

// readXLSX reads the first sheet of a workbook: first row as header,
// remaining rows as data. Spreadsheet sources show up when an upstream
// team exports from Excel instead of dumping CSV; the rest of the
// pipeline treats them identically.
func readXLSX(path string) ([]string, [][]string, error) {
	source := sourceFromPath(path)

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, pipeerrors.NewSourceUnavailable(stageName, source, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, pipeerrors.NewSourceUnavailable(stageName, source,
			fmt.Errorf("workbook has no sheets"))
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, pipeerrors.NewSourceUnavailable(stageName, source,
			fmt.Errorf("read sheet %q: %w", sheets[0], err))
	}
	if len(rows) == 0 {
		return nil, nil, pipeerrors.NewSchemaMismatch(stageName, source, []string{"<header row>"})
	}

	return rows[0], rows[1:], nil
}
