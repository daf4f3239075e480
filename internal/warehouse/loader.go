package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	pipeerrors "salesdw/internal/errors"
	"salesdw/internal/star"
)

// TableResult is the outcome of loading one warehouse table.
type TableResult struct {
	Table string
	Rows  int
	Err   error
}

// Failed reports whether the load was rolled back.
func (r TableResult) Failed() bool {
	return r.Err != nil
}

// LoadAll replaces every star-schema table with the given model. Tables
// load in dependency order; a failed table is rolled back, recorded,
// and does not stop the remaining tables. Note that a failed dimension
// usually makes the dependent fact load fail too, since the new facts
// reference surrogate keys the old dimension rows do not carry.
func (s *Store) LoadAll(
	ctx context.Context,
	customers []star.CustomerDim,
	products []star.ProductDim,
	dates []star.DateDim,
	facts []star.SalesFact,
) []TableResult {
	results := []TableResult{
		s.load(ctx, "customer_dim", len(customers), func(tx *sql.Tx) error {
			return insertCustomerDims(ctx, tx, customers)
		}),
		s.load(ctx, "product_dim", len(products), func(tx *sql.Tx) error {
			return insertProductDims(ctx, tx, products)
		}),
		s.load(ctx, "date_dim", len(dates), func(tx *sql.Tx) error {
			return insertDateDims(ctx, tx, dates)
		}),
		s.load(ctx, "sales_fact", len(facts), func(tx *sql.Tx) error {
			return insertSalesFacts(ctx, tx, facts)
		}),
	}

	loaded, failed := 0, 0
	for _, r := range results {
		if r.Failed() {
			failed++
			continue
		}
		loaded += r.Rows
	}
	s.logger.Info("warehouse load finished",
		slog.Int("tables_loaded", len(results)-failed),
		slog.Int("tables_failed", failed),
		slog.Int("rows_loaded", loaded))

	return results
}

// load replaces one table inside a transaction: delete everything, then
// insert the new rows. Any failure rolls the table back to its previous
// contents.
func (s *Store) load(ctx context.Context, table string, rows int, insert func(*sql.Tx) error) TableResult {
	log := s.logger.With(slog.String("table", table))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		err = pipeerrors.NewStoreWriteFailure(table, fmt.Errorf("begin transaction: %w", err))
		log.Error("table load failed", slog.Any("error", err))
		return TableResult{Table: table, Err: err}
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
		err = pipeerrors.NewStoreWriteFailure(table, fmt.Errorf("clear table: %w", err))
		log.Error("table load failed", slog.Any("error", err))
		return TableResult{Table: table, Err: err}
	}

	if err := insert(tx); err != nil {
		err = pipeerrors.NewStoreWriteFailure(table, err)
		log.Error("table load failed", slog.Any("error", err))
		return TableResult{Table: table, Err: err}
	}

	if err := tx.Commit(); err != nil {
		err = pipeerrors.NewStoreWriteFailure(table, fmt.Errorf("commit: %w", err))
		log.Error("table load failed", slog.Any("error", err))
		return TableResult{Table: table, Err: err}
	}

	log.Info("table replaced", slog.Int("row_count", rows))
	return TableResult{Table: table, Rows: rows}
}

const insertCustomerDimSQL = `
	INSERT INTO customer_dim (customer_key, customer_id, name, region, lifetime_value, tier)
	VALUES ($1, $2, $3, $4, $5, $6)`

func insertCustomerDims(ctx context.Context, tx *sql.Tx, dims []star.CustomerDim) error {
	stmt, err := tx.PrepareContext(ctx, insertCustomerDimSQL)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, d := range dims {
		if _, err := stmt.ExecContext(ctx, d.Key, d.CustomerID, d.Name, d.Region, d.LifetimeValue, string(d.Tier)); err != nil {
			return fmt.Errorf("insert customer_key=%d: %w", d.Key, err)
		}
	}
	return nil
}

const insertProductDimSQL = `
	INSERT INTO product_dim (product_key, product_id, product_name, category)
	VALUES ($1, $2, $3, $4)`

func insertProductDims(ctx context.Context, tx *sql.Tx, dims []star.ProductDim) error {
	stmt, err := tx.PrepareContext(ctx, insertProductDimSQL)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, d := range dims {
		if _, err := stmt.ExecContext(ctx, d.Key, d.ProductID, d.ProductName, d.Category); err != nil {
			return fmt.Errorf("insert product_key=%d: %w", d.Key, err)
		}
	}
	return nil
}

const insertDateDimSQL = `
	INSERT INTO date_dim (date_key, full_date, year, quarter, month, day_of_week)
	VALUES ($1, $2, $3, $4, $5, $6)`

func insertDateDims(ctx context.Context, tx *sql.Tx, dims []star.DateDim) error {
	stmt, err := tx.PrepareContext(ctx, insertDateDimSQL)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, d := range dims {
		if _, err := stmt.ExecContext(ctx, d.Key, d.Date, d.Year, d.Quarter, d.Month, d.DayOfWeek); err != nil {
			return fmt.Errorf("insert date_key=%d: %w", d.Key, err)
		}
	}
	return nil
}

const insertSalesFactSQL = `
	INSERT INTO sales_fact (sales_key, sale_id, customer_key, product_key, date_key, sale_amount, quantity)
	VALUES ($1, $2, $3, $4, $5, $6, $7)`

func insertSalesFacts(ctx context.Context, tx *sql.Tx, facts []star.SalesFact) error {
	stmt, err := tx.PrepareContext(ctx, insertSalesFactSQL)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, f := range facts {
		if _, err := stmt.ExecContext(ctx, f.Key, f.SaleID, f.CustomerKey, f.ProductKey, f.DateKey, f.SaleAmount, f.Quantity); err != nil {
			return fmt.Errorf("insert sales_key=%d: %w", f.Key, err)
		}
	}
	return nil
}
