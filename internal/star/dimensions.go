package star

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"salesdw/internal/dataset"
	pipeerrors "salesdw/internal/errors"
)

const dimensionStage = "dimensions"

// Builder constructs dimension and fact tables from scrubbed inputs.
type Builder struct {
	logger     *slog.Logger
	thresholds Thresholds
}

// NewBuilder creates a Builder with the given tier thresholds.
func NewBuilder(logger *slog.Logger, thresholds Thresholds) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{
		logger:     logger.With(slog.String("stage", dimensionStage)),
		thresholds: thresholds,
	}
}

// BuildCustomerDimension transforms scrubbed customer rows into the
// customer dimension. Surrogate keys count up from 1 in first-seen
// order. The scrubber has already de-duplicated natural keys; a
// duplicate surviving to this point is skipped defensively so the
// uniqueness invariant holds regardless.
func (b *Builder) BuildCustomerDimension(customers *dataset.Table) ([]CustomerDim, error) {
	log := b.logger.With(slog.String("table", "customer_dim"))

	for _, col := range []string{"customer_id", "name", "region", "lifetime_value"} {
		if !customers.HasColumn(col) {
			return nil, pipeerrors.NewStructural(dimensionStage, customers.Name(),
				fmt.Sprintf("customer input missing column %q", col))
		}
	}

	seen := make(map[int64]struct{}, customers.RowCount())
	dims := make([]CustomerDim, 0, customers.RowCount())

	for i := 0; i < customers.RowCount(); i++ {
		id, ok := intCell(customers, i, "customer_id")
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			log.Warn("duplicate natural key reached dimension builder",
				slog.Int64("customer_id", id))
			continue
		}
		seen[id] = struct{}{}

		lifetimeValue, _ := floatCell(customers, i, "lifetime_value")
		dims = append(dims, CustomerDim{
			Key:           len(dims) + 1,
			CustomerID:    id,
			Name:          stringCell(customers, i, "name"),
			Region:        stringCell(customers, i, "region"),
			LifetimeValue: lifetimeValue,
			Tier:          b.thresholds.Classify(lifetimeValue),
		})
	}

	log.Info("dimension built", slog.Int("row_count", len(dims)))
	return dims, nil
}

// BuildProductDimension transforms scrubbed product rows into the
// product dimension, with the same key assignment rules as customers.
func (b *Builder) BuildProductDimension(products *dataset.Table) ([]ProductDim, error) {
	log := b.logger.With(slog.String("table", "product_dim"))

	for _, col := range []string{"product_id", "product_name", "category"} {
		if !products.HasColumn(col) {
			return nil, pipeerrors.NewStructural(dimensionStage, products.Name(),
				fmt.Sprintf("product input missing column %q", col))
		}
	}

	seen := make(map[int64]struct{}, products.RowCount())
	dims := make([]ProductDim, 0, products.RowCount())

	for i := 0; i < products.RowCount(); i++ {
		id, ok := intCell(products, i, "product_id")
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			log.Warn("duplicate natural key reached dimension builder",
				slog.Int64("product_id", id))
			continue
		}
		seen[id] = struct{}{}

		dims = append(dims, ProductDim{
			Key:         len(dims) + 1,
			ProductID:   id,
			ProductName: stringCell(products, i, "product_name"),
			Category:    stringCell(products, i, "category"),
		})
	}

	log.Info("dimension built", slog.Int("row_count", len(dims)))
	return dims, nil
}

// BuildDateDimension derives the date dimension from the distinct sale
// dates observed in the scrubbed sales input. Dates are keyed in
// ascending calendar order, which keeps the dimension deterministic
// regardless of sales row order.
func (b *Builder) BuildDateDimension(sales *dataset.Table) ([]DateDim, error) {
	log := b.logger.With(slog.String("table", "date_dim"))

	if !sales.HasColumn("sale_date") {
		return nil, pipeerrors.NewStructural(dimensionStage, sales.Name(),
			`sales input missing column "sale_date"`)
	}

	distinct := make(map[time.Time]struct{})
	for i := 0; i < sales.RowCount(); i++ {
		cell, err := sales.Cell(i, "sale_date")
		if err != nil {
			continue
		}
		if d, ok := cell.(time.Time); ok {
			distinct[d] = struct{}{}
		}
	}

	dates := make([]time.Time, 0, len(distinct))
	for d := range distinct {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	dims := make([]DateDim, 0, len(dates))
	for i, d := range dates {
		dims = append(dims, DateDim{
			Key:       i + 1,
			Date:      d,
			Year:      d.Year(),
			Quarter:   quarter(d.Month()),
			Month:     int(d.Month()),
			DayOfWeek: dayOfWeek(d),
		})
	}

	log.Info("dimension built", slog.Int("row_count", len(dims)))
	return dims, nil
}

// Typed cell accessors. Scrubbed tables carry coerced values, but a
// source configured without coercion may still hold strings; these
// helpers fail soft so a single odd cell never panics the builder.

func intCell(t *dataset.Table, row int, col string) (int64, bool) {
	cell, err := t.Cell(row, col)
	if err != nil {
		return 0, false
	}
	coerced, err := dataset.Coerce(cell, dataset.KindInt)
	if err != nil || coerced == nil {
		return 0, false
	}
	return coerced.(int64), true
}

func floatCell(t *dataset.Table, row int, col string) (float64, bool) {
	cell, err := t.Cell(row, col)
	if err != nil {
		return 0, false
	}
	coerced, err := dataset.Coerce(cell, dataset.KindFloat)
	if err != nil || coerced == nil {
		return 0, false
	}
	return coerced.(float64), true
}

func stringCell(t *dataset.Table, row int, col string) string {
	cell, err := t.Cell(row, col)
	if err != nil || cell == nil {
		return ""
	}
	if s, ok := cell.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", cell)
}

func dateCell(t *dataset.Table, row int, col string) (time.Time, bool) {
	cell, err := t.Cell(row, col)
	if err != nil {
		return time.Time{}, false
	}
	d, ok := cell.(time.Time)
	return d, ok
}
