package star

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
)

// CubeRow is one pre-aggregated OLAP cube row: sale_amount summarized
// by (customer, product, day-of-week, category). Reporting dashboards
// consume this extract directly instead of re-aggregating facts.
type CubeRow struct {
	CustomerID  int64
	ProductID   int64
	DayOfWeek   int
	Category    string
	AmountSum   float64
	AmountMean  float64
	AmountCount int
}

// BuildCube aggregates fact rows into the OLAP cube extract. Output is
// sorted by (customer, product, day-of-week, category) so two runs on
// identical input produce byte-identical extracts.
func BuildCube(facts []SalesFact, customers []CustomerDim, products []ProductDim, dates []DateDim) []CubeRow {
	customerByKey := make(map[int]CustomerDim, len(customers))
	for _, c := range customers {
		customerByKey[c.Key] = c
	}
	productByKey := make(map[int]ProductDim, len(products))
	for _, p := range products {
		productByKey[p.Key] = p
	}
	dateByKey := make(map[int]DateDim, len(dates))
	for _, d := range dates {
		dateByKey[d.Key] = d
	}

	type groupKey struct {
		customerID int64
		productID  int64
		dayOfWeek  int
		category   string
	}
	groups := make(map[groupKey]*CubeRow)

	for _, f := range facts {
		customer := customerByKey[f.CustomerKey]
		product := productByKey[f.ProductKey]
		date := dateByKey[f.DateKey]

		k := groupKey{
			customerID: customer.CustomerID,
			productID:  product.ProductID,
			dayOfWeek:  date.DayOfWeek,
			category:   product.Category,
		}
		row, ok := groups[k]
		if !ok {
			row = &CubeRow{
				CustomerID: k.customerID,
				ProductID:  k.productID,
				DayOfWeek:  k.dayOfWeek,
				Category:   k.category,
			}
			groups[k] = row
		}
		row.AmountSum += f.SaleAmount
		row.AmountCount++
	}

	cube := make([]CubeRow, 0, len(groups))
	for _, row := range groups {
		row.AmountMean = row.AmountSum / float64(row.AmountCount)
		cube = append(cube, *row)
	}

	sort.Slice(cube, func(i, j int) bool {
		a, b := cube[i], cube[j]
		if a.CustomerID != b.CustomerID {
			return a.CustomerID < b.CustomerID
		}
		if a.ProductID != b.ProductID {
			return a.ProductID < b.ProductID
		}
		if a.DayOfWeek != b.DayOfWeek {
			return a.DayOfWeek < b.DayOfWeek
		}
		return a.Category < b.Category
	})
	return cube
}

// CustomerValue is one row of the high-value-customer extract: total
// observed sales per customer, descending.
type CustomerValue struct {
	CustomerID int64
	Name       string
	TotalSales float64
}

// BuildCustomerValues sums fact sale amounts per customer and returns
// the ranking, highest total first. Ties break on natural key so the
// output order is stable.
func BuildCustomerValues(facts []SalesFact, customers []CustomerDim) []CustomerValue {
	byKey := make(map[int]CustomerDim, len(customers))
	for _, c := range customers {
		byKey[c.Key] = c
	}

	totals := make(map[int64]*CustomerValue)
	for _, f := range facts {
		c := byKey[f.CustomerKey]
		v, ok := totals[c.CustomerID]
		if !ok {
			v = &CustomerValue{CustomerID: c.CustomerID, Name: c.Name}
			totals[c.CustomerID] = v
		}
		v.TotalSales += f.SaleAmount
	}

	values := make([]CustomerValue, 0, len(totals))
	for _, v := range totals {
		values = append(values, *v)
	}
	sort.Slice(values, func(i, j int) bool {
		if values[i].TotalSales != values[j].TotalSales {
			return values[i].TotalSales > values[j].TotalSales
		}
		return values[i].CustomerID < values[j].CustomerID
	})
	return values
}

// WriteCubeCSV writes the cube extract.
func WriteCubeCSV(cube []CubeRow, w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{
		"customer_id", "product_id", "day_of_week", "category",
		"sale_amount_sum", "sale_amount_mean", "sale_amount_count",
	}); err != nil {
		return err
	}
	for _, row := range cube {
		if err := cw.Write([]string{
			strconv.FormatInt(row.CustomerID, 10),
			strconv.FormatInt(row.ProductID, 10),
			strconv.Itoa(row.DayOfWeek),
			row.Category,
			strconv.FormatFloat(row.AmountSum, 'f', 2, 64),
			strconv.FormatFloat(row.AmountMean, 'f', 2, 64),
			strconv.Itoa(row.AmountCount),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCustomerValueCSV writes the high-value-customer extract.
func WriteCustomerValueCSV(values []CustomerValue, w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"customer_id", "name", "total_sales"}); err != nil {
		return err
	}
	for _, v := range values {
		if err := cw.Write([]string{
			strconv.FormatInt(v.CustomerID, 10),
			v.Name,
			strconv.FormatFloat(v.TotalSales, 'f', 2, 64),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteExtractFile writes one extract to dir/name via the given writer
// function, creating the directory if needed.
func WriteExtractFile(dir, name string, write func(io.Writer) error) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create extract directory: %w", err)
	}
	path := filepath.Join(dir, name)
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer file.Close()

	if err := write(file); err != nil {
		return err
	}
	return file.Close()
}
