package star

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesdw/internal/dataset"
	pipeerrors "salesdw/internal/errors"
)

var testThresholds = Thresholds{Silver: 1000, Gold: 5000, Platinum: 20000}

func customersTable(t *testing.T, rows ...[]any) *dataset.Table {
	t.Helper()
	table, err := dataset.New("customers", []string{"customer_id", "name", "region", "lifetime_value"})
	require.NoError(t, err)
	for _, row := range rows {
		require.NoError(t, table.AppendRow(row))
	}
	return table
}

func salesTable(t *testing.T, rows ...[]any) *dataset.Table {
	t.Helper()
	table, err := dataset.New("sales", []string{"sale_id", "customer_id", "product_id", "sale_date", "sale_amount"})
	require.NoError(t, err)
	for _, row := range rows {
		require.NoError(t, table.AppendRow(row))
	}
	return table
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestThresholds_Classify(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		want  Tier
	}{
		{name: "zero is bronze", value: 0, want: TierBronze},
		{name: "below silver", value: 999.99, want: TierBronze},
		{name: "silver boundary maps up", value: 1000, want: TierSilver},
		{name: "mid silver", value: 2500, want: TierSilver},
		{name: "gold boundary maps up", value: 5000, want: TierGold},
		{name: "platinum boundary maps up", value: 20000, want: TierPlatinum},
		{name: "above platinum", value: 1e6, want: TierPlatinum},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, testThresholds.Classify(tt.value))
		})
	}
}

func TestThresholds_ClassifyMonotonic(t *testing.T) {
	// A strictly higher lifetime value never yields a lower tier.
	rank := map[Tier]int{TierBronze: 0, TierSilver: 1, TierGold: 2, TierPlatinum: 3}

	values := []float64{0, 1, 999, 1000, 1001, 4999, 5000, 19999, 20000, 50000}
	prev := -1
	for _, v := range values {
		r := rank[testThresholds.Classify(v)]
		assert.GreaterOrEqual(t, r, prev, "tier rank regressed at lifetime value %v", v)
		prev = r
	}
}

func TestBuildCustomerDimension(t *testing.T) {
	table := customersTable(t,
		[]any{int64(7), "Ada", "North", float64(21000)},
		[]any{int64(3), "Grace", "South", float64(400)},
		[]any{int64(9), "Edsger", "East", float64(5000)},
	)

	b := NewBuilder(slog.Default(), testThresholds)
	dims, err := b.BuildCustomerDimension(table)
	require.NoError(t, err)
	require.Len(t, dims, 3)

	// First-seen order drives surrogate key assignment from 1.
	assert.Equal(t, 1, dims[0].Key)
	assert.Equal(t, int64(7), dims[0].CustomerID)
	assert.Equal(t, TierPlatinum, dims[0].Tier)

	assert.Equal(t, 2, dims[1].Key)
	assert.Equal(t, TierBronze, dims[1].Tier)

	assert.Equal(t, 3, dims[2].Key)
	assert.Equal(t, TierGold, dims[2].Tier, "boundary value maps to the higher tier")
}

func TestBuildCustomerDimension_SkipsResidualDuplicates(t *testing.T) {
	table := customersTable(t,
		[]any{int64(3), "Grace", "North", float64(100)},
		[]any{int64(3), "Grace", "West", float64(100)},
	)

	b := NewBuilder(slog.Default(), testThresholds)
	dims, err := b.BuildCustomerDimension(table)
	require.NoError(t, err)

	require.Len(t, dims, 1)
	assert.Equal(t, "North", dims[0].Region, "first-seen row wins")
}

func TestBuildCustomerDimension_MissingColumn(t *testing.T) {
	table, err := dataset.New("customers", []string{"customer_id", "name"})
	require.NoError(t, err)

	b := NewBuilder(slog.Default(), testThresholds)
	_, err = b.BuildCustomerDimension(table)
	require.Error(t, err)
	assert.True(t, pipeerrors.IsCode(err, pipeerrors.CodeStructural))
}

func TestBuildProductDimension(t *testing.T) {
	table, err := dataset.New("products", []string{"product_id", "product_name", "category"})
	require.NoError(t, err)
	require.NoError(t, table.AppendRow([]any{int64(11), "Widget", "Hardware"}))
	require.NoError(t, table.AppendRow([]any{int64(4), "Gizmo", "Hardware"}))

	b := NewBuilder(slog.Default(), testThresholds)
	dims, err := b.BuildProductDimension(table)
	require.NoError(t, err)

	require.Len(t, dims, 2)
	assert.Equal(t, 1, dims[0].Key)
	assert.Equal(t, int64(11), dims[0].ProductID)
	assert.Equal(t, 2, dims[1].Key)
}

func TestBuildDateDimension(t *testing.T) {
	table := salesTable(t,
		[]any{int64(1), int64(7), int64(11), date(2024, 3, 18), float64(10)}, // Monday
		[]any{int64(2), int64(7), int64(11), date(2024, 1, 7), float64(20)},  // Sunday
		[]any{int64(3), int64(7), int64(11), date(2024, 3, 18), float64(30)}, // duplicate date
	)

	b := NewBuilder(slog.Default(), testThresholds)
	dims, err := b.BuildDateDimension(table)
	require.NoError(t, err)

	// Distinct dates, ascending, keys from 1.
	require.Len(t, dims, 2)
	assert.Equal(t, 1, dims[0].Key)
	assert.Equal(t, date(2024, 1, 7), dims[0].Date)
	assert.Equal(t, 6, dims[0].DayOfWeek, "Sunday is 6 under the Monday=0 convention")
	assert.Equal(t, 1, dims[0].Quarter)

	assert.Equal(t, 2, dims[1].Key)
	assert.Equal(t, 0, dims[1].DayOfWeek, "Monday is 0")
	assert.Equal(t, 1, dims[1].Quarter)
	assert.Equal(t, 3, dims[1].Month)
	assert.Equal(t, 2024, dims[1].Year)
}

func TestQuarter(t *testing.T) {
	assert.Equal(t, 1, quarter(time.March))
	assert.Equal(t, 2, quarter(time.April))
	assert.Equal(t, 3, quarter(time.September))
	assert.Equal(t, 4, quarter(time.December))
}
