package star

import (
	"fmt"
	"log/slog"
	"time"

	"salesdw/internal/dataset"
	pipeerrors "salesdw/internal/errors"
)

const factStage = "facts"

// FactResult is the outcome of building the fact table.
type FactResult struct {
	Facts []SalesFact

	// Unresolved counts sales rows dropped because a natural key did
	// not resolve to a dimension row. The fact table never carries a
	// null or dangling foreign key; rejection is the only outcome.
	Unresolved int
}

// BuildSalesFacts resolves each scrubbed sales row's natural keys
// against the three dimensions and emits fact rows with surrogate
// keys. Rows with any unresolvable key are dropped and counted.
func (b *Builder) BuildSalesFacts(
	sales *dataset.Table,
	customers []CustomerDim,
	products []ProductDim,
	dates []DateDim,
) (*FactResult, error) {
	log := b.logger.With(slog.String("stage", factStage), slog.String("table", "sales_fact"))

	for _, col := range []string{"sale_id", "customer_id", "product_id", "sale_date", "sale_amount"} {
		if !sales.HasColumn(col) {
			return nil, pipeerrors.NewStructural(factStage, sales.Name(),
				fmt.Sprintf("sales input missing column %q", col))
		}
	}

	customerKeys := make(map[int64]int, len(customers))
	for _, c := range customers {
		customerKeys[c.CustomerID] = c.Key
	}
	productKeys := make(map[int64]int, len(products))
	for _, p := range products {
		productKeys[p.ProductID] = p.Key
	}
	dateKeys := make(map[time.Time]int, len(dates))
	for _, d := range dates {
		dateKeys[d.Date] = d.Key
	}

	result := &FactResult{Facts: make([]SalesFact, 0, sales.RowCount())}

	for i := 0; i < sales.RowCount(); i++ {
		customerID, okCustomer := intCell(sales, i, "customer_id")
		productID, okProduct := intCell(sales, i, "product_id")
		saleDate, okDate := dateCell(sales, i, "sale_date")
		if !okCustomer || !okProduct || !okDate {
			result.Unresolved++
			continue
		}

		customerKey, haveCustomer := customerKeys[customerID]
		productKey, haveProduct := productKeys[productID]
		dateKey, haveDate := dateKeys[saleDate]
		if !haveCustomer || !haveProduct || !haveDate {
			result.Unresolved++
			log.Debug("fact row rejected: unresolved foreign key",
				slog.Int64("customer_id", customerID),
				slog.Int64("product_id", productID),
				slog.String("sale_date", saleDate.Format("2006-01-02")),
				slog.Bool("customer_resolved", haveCustomer),
				slog.Bool("product_resolved", haveProduct),
				slog.Bool("date_resolved", haveDate))
			continue
		}

		saleID, _ := intCell(sales, i, "sale_id")
		amount, _ := floatCell(sales, i, "sale_amount")

		result.Facts = append(result.Facts, SalesFact{
			Key:         len(result.Facts) + 1,
			SaleID:      saleID,
			CustomerKey: customerKey,
			ProductKey:  productKey,
			DateKey:     dateKey,
			SaleAmount:  amount,
			Quantity:    1,
		})
	}

	if result.Unresolved > 0 {
		log.Warn("fact rows rejected with unresolved foreign keys",
			slog.Int("rejected_count", result.Unresolved))
	}
	log.Info("fact table built",
		slog.Int("row_count", len(result.Facts)),
		slog.Int("unresolved", result.Unresolved))

	return result, nil
}
