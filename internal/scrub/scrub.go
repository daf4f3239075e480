// Package scrub normalizes and validates one raw table in place.
//
// Scrubbing never fails on bad data: rows that cannot be repaired are
// rejected, counted per reason, and logged as an aggregate. The only
// errors a Scrub call returns are structural, such as an option naming
// a column the table does not declare.
//
// The steps run in a fixed order, each independently toggleable:
//
//  1. trim whitespace and standardize case of text cells
//  2. coerce declared columns to their target types (reject failures)
//  3. drop rows with nulls in required columns
//  4. de-duplicate on the natural key columns, keeping the first
//     occurrence in encounter order
//  5. clip negative values in semantically non-negative columns
package scrub

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"salesdw/internal/config"
	"salesdw/internal/dataset"
	pipeerrors "salesdw/internal/errors"
)

const stageName = "scrub"

// Options declares which scrubbing steps run and on which columns.
type Options struct {
	TrimStrings      bool
	StandardizeCase  string // "", "upper", "lower", or "title"
	CoerceTypes      map[string]dataset.Kind
	DropNullsIn      []string
	DropDuplicatesOn []string
	ClipNegative     []string
}

// FromSource converts a source configuration into scrubbing options.
func FromSource(src config.SourceConfig) (Options, error) {
	opts := Options{
		TrimStrings:      src.TrimStrings,
		StandardizeCase:  src.StandardizeCase,
		DropNullsIn:      src.DropNullsIn,
		DropDuplicatesOn: src.DropDuplicates,
		ClipNegative:     src.ClipNegative,
	}
	if len(src.CoerceTypes) > 0 {
		opts.CoerceTypes = make(map[string]dataset.Kind, len(src.CoerceTypes))
		for col, kindName := range src.CoerceTypes {
			kind, err := dataset.ParseKind(kindName)
			if err != nil {
				return Options{}, fmt.Errorf("column %s: %w", col, err)
			}
			opts.CoerceTypes[dataset.NormalizeColumn(col)] = kind
		}
	}
	return opts, nil
}

// Rejections counts rows removed per reason, plus values clipped in
// place (clipped rows survive).
type Rejections struct {
	Coercion   int
	Nulls      int
	Duplicates int
	Clipped    int
}

// Total returns the number of rows rejected (clipped rows are kept, so
// clipping does not contribute).
func (r Rejections) Total() int {
	return r.Coercion + r.Nulls + r.Duplicates
}

// Result is the outcome of scrubbing one table.
type Result struct {
	Table    *dataset.Table
	Rejected Rejections
}

// Scrubber cleans raw tables.
type Scrubber struct {
	logger *slog.Logger
}

// New creates a Scrubber that logs through the given logger.
func New(logger *slog.Logger) *Scrubber {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scrubber{logger: logger.With(slog.String("stage", stageName))}
}

// Scrub runs the configured steps against the table, mutating it in
// place, and reports the rejection counts.
func (s *Scrubber) Scrub(table *dataset.Table, opts Options) (*Result, error) {
	log := s.logger.With(slog.String("source", table.Name()))
	log.Info("scrubbing table", slog.Int("row_count", table.RowCount()))

	if err := s.checkColumns(table, opts); err != nil {
		return nil, err
	}

	var rejected Rejections

	if opts.TrimStrings || opts.StandardizeCase != "" {
		s.normalizeText(table, opts)
	}

	if len(opts.CoerceTypes) > 0 {
		rejected.Coercion = s.coerceColumns(table, opts.CoerceTypes)
	}

	if len(opts.DropNullsIn) > 0 {
		rejected.Nulls = s.dropNulls(table, opts.DropNullsIn)
	}

	if len(opts.DropDuplicatesOn) > 0 {
		rejected.Duplicates = s.dropDuplicates(table, opts.DropDuplicatesOn)
	}

	if len(opts.ClipNegative) > 0 {
		rejected.Clipped = s.clipNegatives(table, opts.ClipNegative)
	}

	log.Info("table scrubbed",
		slog.Int("row_count", table.RowCount()),
		slog.Int("rejected_coercion", rejected.Coercion),
		slog.Int("rejected_nulls", rejected.Nulls),
		slog.Int("rejected_duplicates", rejected.Duplicates),
		slog.Int("values_clipped", rejected.Clipped))

	return &Result{Table: table, Rejected: rejected}, nil
}

// checkColumns verifies every column an option names exists in the
// table. A miss here is a configuration fault, not a data problem.
func (s *Scrubber) checkColumns(table *dataset.Table, opts Options) error {
	var declared []string
	for col := range opts.CoerceTypes {
		declared = append(declared, col)
	}
	declared = append(declared, opts.DropNullsIn...)
	declared = append(declared, opts.DropDuplicatesOn...)
	declared = append(declared, opts.ClipNegative...)

	for _, col := range declared {
		if !table.HasColumn(col) {
			return pipeerrors.NewStructural(stageName, table.Name(),
				fmt.Sprintf("scrub option references unknown column %q", dataset.NormalizeColumn(col)))
		}
	}
	return nil
}

func (s *Scrubber) normalizeText(table *dataset.Table, opts Options) {
	for i := 0; i < table.RowCount(); i++ {
		row := table.Row(i)
		for j, cell := range row {
			str, ok := cell.(string)
			if !ok {
				continue
			}
			if opts.TrimStrings {
				str = strings.TrimSpace(str)
			}
			switch opts.StandardizeCase {
			case "upper":
				str = strings.ToUpper(str)
			case "lower":
				str = strings.ToLower(str)
			case "title":
				str = titleCase(str)
			}
			row[j] = str
		}
	}
}

// titleCase uppercases the first letter of each space-separated word
// and lowercases the rest ("nOrTh aMERICA" -> "North America").
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		runes := []rune(strings.ToLower(w))
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

// coerceColumns converts declared columns to their target kinds. A row
// with any cell that fails coercion is rejected whole; partial rows
// would poison the dimension joins downstream.
func (s *Scrubber) coerceColumns(table *dataset.Table, kinds map[string]dataset.Kind) int {
	var keep []int
	rejectedRows := 0

	for i := 0; i < table.RowCount(); i++ {
		rowOK := true
		row := table.Row(i)
		for col, kind := range kinds {
			idx, err := table.ColumnIndex(col)
			if err != nil {
				// Columns were checked up front.
				continue
			}
			value, err := dataset.Coerce(row[idx], kind)
			if err != nil {
				rowOK = false
				break
			}
			row[idx] = value
		}
		if rowOK {
			keep = append(keep, i)
		} else {
			rejectedRows++
		}
	}

	if rejectedRows > 0 {
		table.Keep(keep)
	}
	return rejectedRows
}

func (s *Scrubber) dropNulls(table *dataset.Table, required []string) int {
	var keep []int
	rejected := 0

	for i := 0; i < table.RowCount(); i++ {
		rowOK := true
		for _, col := range required {
			value, err := table.Cell(i, col)
			if err == nil && dataset.IsNull(value) {
				rowOK = false
				break
			}
		}
		if rowOK {
			keep = append(keep, i)
		} else {
			rejected++
		}
	}

	if rejected > 0 {
		table.Keep(keep)
	}
	return rejected
}

// dropDuplicates keeps the first occurrence, in encounter order, of
// each natural key. Deterministic first-wins behavior is load-bearing:
// duplicate customer_id rows with conflicting attributes have blocked
// downstream joins before.
func (s *Scrubber) dropDuplicates(table *dataset.Table, keyColumns []string) int {
	seen := make(map[string]struct{}, table.RowCount())
	var keep []int
	rejected := 0

	for i := 0; i < table.RowCount(); i++ {
		key := rowKey(table, i, keyColumns)
		if _, dup := seen[key]; dup {
			rejected++
			continue
		}
		seen[key] = struct{}{}
		keep = append(keep, i)
	}

	if rejected > 0 {
		table.Keep(keep)
	}
	return rejected
}

// rowKey builds a composite key over the given columns. Values are
// rendered post-coercion, so "7" and 7 never alias.
func rowKey(table *dataset.Table, row int, columns []string) string {
	parts := make([]string, 0, len(columns))
	for _, col := range columns {
		value, err := table.Cell(row, col)
		if err != nil {
			continue
		}
		switch v := value.(type) {
		case time.Time:
			parts = append(parts, v.Format("2006-01-02"))
		default:
			parts = append(parts, fmt.Sprintf("%T:%v", v, v))
		}
	}
	return strings.Join(parts, "\x1f")
}

// clipNegatives raises negative numerics in the given columns to zero.
// The row survives; only the value count is reported.
func (s *Scrubber) clipNegatives(table *dataset.Table, columns []string) int {
	clipped := 0
	for _, col := range columns {
		idx, err := table.ColumnIndex(col)
		if err != nil {
			continue
		}
		for i := 0; i < table.RowCount(); i++ {
			row := table.Row(i)
			switch v := row[idx].(type) {
			case float64:
				if v < 0 {
					row[idx] = float64(0)
					clipped++
				}
			case int64:
				if v < 0 {
					row[idx] = int64(0)
					clipped++
				}
			}
		}
	}
	return clipped
}
