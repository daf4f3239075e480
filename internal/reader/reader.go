// Package reader loads raw source files into in-memory tables.
//
// A source is read whole: header row first, then every data row as
// untyped strings. The reader verifies the configured required columns
// and reports SourceUnavailable or SchemaMismatch conditions; it never
// interprets cell contents, which is the scrubber's job. One failed
// source must not abort the run, so every failure is returned to the
// caller for a skip decision rather than handled here.
package reader

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"salesdw/internal/dataset"
	pipeerrors "salesdw/internal/errors"
)

const stageName = "read"

// Reader loads raw source files.
type Reader struct {
	logger *slog.Logger
}

// New creates a Reader that logs through the given logger.
func New(logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{logger: logger.With(slog.String("stage", stageName))}
}

// Read loads the source file at path into a table named name and
// verifies that every required column is present. CSV is the primary
// format; files ending in .xlsx are read through the spreadsheet
// parser.
func (r *Reader) Read(name, path string, required []string) (*dataset.Table, error) {
	log := r.logger.With(slog.String("source", name), slog.String("path", path))
	log.Info("reading source file")

	var (
		header []string
		rows   [][]string
		err    error
	)
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		header, rows, err = readXLSX(path)
	} else {
		header, rows, err = readCSV(path)
	}
	if err != nil {
		log.Error("source read failed", slog.String("error", err.Error()))
		return nil, err
	}

	table, err := dataset.New(name, header)
	if err != nil {
		log.Error("source header invalid", slog.String("error", err.Error()))
		return nil, pipeerrors.NewStructural(stageName, name, err.Error())
	}

	if missing := missingColumns(table, required); len(missing) > 0 {
		err := pipeerrors.NewSchemaMismatch(stageName, name, missing)
		log.Error("schema mismatch", slog.Any("missing_columns", missing))
		return nil, err
	}

	for _, cells := range rows {
		row := make([]any, len(header))
		for i := range header {
			if i < len(cells) {
				row[i] = cells[i]
			} else {
				// Short rows are padded; the null checks downstream
				// decide whether the row survives.
				row[i] = ""
			}
		}
		if err := table.AppendRow(row); err != nil {
			return nil, pipeerrors.NewStructural(stageName, name, err.Error())
		}
	}

	log.Info("source file read",
		slog.Int("row_count", table.RowCount()),
		slog.Any("columns", table.Columns()),
		slog.Any("preview", preview(rows, 3)))
	return table, nil
}

func readCSV(path string) ([]string, [][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, pipeerrors.NewSourceUnavailable(stageName, sourceFromPath(path), err)
	}
	defer file.Close()

	cr := csv.NewReader(file)
	// Ragged rows are a data problem, not a structural one; let the
	// scrubber reject them instead of failing the whole file.
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil, pipeerrors.NewSchemaMismatch(stageName, sourceFromPath(path), []string{"<header row>"})
	}
	if err != nil {
		return nil, nil, pipeerrors.NewSourceUnavailable(stageName, sourceFromPath(path), err)
	}

	var rows [][]string
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, pipeerrors.NewSourceUnavailable(stageName, sourceFromPath(path),
				fmt.Errorf("read csv row: %w", err))
		}
		rows = append(rows, record)
	}
	return header, rows, nil
}

func missingColumns(table *dataset.Table, required []string) []string {
	var missing []string
	for _, col := range required {
		if !table.HasColumn(col) {
			missing = append(missing, dataset.NormalizeColumn(col))
		}
	}
	return missing
}

func preview(rows [][]string, n int) [][]string {
	if len(rows) < n {
		n = len(rows)
	}
	return rows[:n]
}

func sourceFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
