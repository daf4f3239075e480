package star

import "time"

// Tier is a customer's lifetime-value classification.
type Tier string

const (
	TierBronze   Tier = "Bronze"
	TierSilver   Tier = "Silver"
	TierGold     Tier = "Gold"
	TierPlatinum Tier = "Platinum"
)

// Thresholds are the ascending lifetime-value boundaries. A value equal
// to a boundary belongs to the higher tier.
type Thresholds struct {
	Silver   float64
	Gold     float64
	Platinum float64
}

// Classify maps a lifetime value to its tier. The mapping is a pure
// function: equal inputs always yield equal tiers.
func (t Thresholds) Classify(lifetimeValue float64) Tier {
	switch {
	case lifetimeValue >= t.Platinum:
		return TierPlatinum
	case lifetimeValue >= t.Gold:
		return TierGold
	case lifetimeValue >= t.Silver:
		return TierSilver
	default:
		return TierBronze
	}
}

// CustomerDim is one customer dimension row.
type CustomerDim struct {
	Key           int
	CustomerID    int64
	Name          string
	Region        string
	LifetimeValue float64
	Tier          Tier
}

// ProductDim is one product dimension row.
type ProductDim struct {
	Key         int
	ProductID   int64
	ProductName string
	Category    string
}

// DateDim is one date dimension row. DayOfWeek is Monday=0 .. Sunday=6.
type DateDim struct {
	Key       int
	Date      time.Time
	Year      int
	Quarter   int
	Month     int
	DayOfWeek int
}

// SalesFact is one fact row. Every *Key field references an existing
// dimension row; unresolved rows never reach this type. Quantity is the
// transaction count contribution, always 1 pre-aggregation.
type SalesFact struct {
	Key         int
	SaleID      int64
	CustomerKey int
	ProductKey  int
	DateKey     int
	SaleAmount  float64
	Quantity    int
}

// dayOfWeek converts Go's Sunday=0 weekday to the Monday=0 convention.
func dayOfWeek(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// quarter returns the calendar quarter (1-4) for a month (1-12).
func quarter(month time.Month) int {
	return (int(month)-1)/3 + 1
}
