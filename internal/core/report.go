package core

import "time"

// TrendBucket selects the granularity of trend aggregation.
type TrendBucket string

const (
	BucketDay   TrendBucket = "day"
	BucketWeek  TrendBucket = "week"
	BucketMonth TrendBucket = "month"
)

// CategorySpending is the summed amount for one category within a filter.
type CategorySpending struct {
	CategoryID int64
	Name       string
	Total      Money
}

// SupplierSpending is the summed amount for one supplier within a filter.
type SupplierSpending struct {
	SupplierID int64
	Name       string
	Total      Money
}

// TrendPoint is one chart bucket. Key is the bucket label in ascending
// order ("2024-03-07", "2024-09" or "2024-36" depending on the bucket).
type TrendPoint struct {
	Key   string
	Total Money
}

// ProductReportRow combines a product's total spend with the cheapest
// single purchase ever recorded for it and the supplier it came from.
type ProductReportRow struct {
	ProductID        int64
	Name             string
	Total            Money
	LowestPrice      Money
	LowestSupplier   string
	TransactionCount int64
}

// Overview bundles the report aggregates the reports screen shows for one
// filter selection.
type Overview struct {
	Total      Money
	ByCategory []CategorySpending
	BySupplier []SupplierSpending
	Trend      []TrendPoint
	Products   []ProductReportRow
}

// Averages are all-time habit metrics. They deliberately ignore the active
// filter: they describe overall behavior, not the current view.
type Averages struct {
	Daily   Money
	Monthly Money
}

// ComputeAverages derives daily and monthly averages from the lifetime
// total and the first expense ever recorded. Days and months are floored
// at one so a first-day user sees the total itself, and the current
// partial month counts as a month.
func ComputeAverages(totalCents int64, first, now time.Time) Averages {
	days := int64(now.Sub(first).Hours() / 24)
	if days < 1 {
		days = 1
	}
	months := int64((now.Year()-first.Year())*12+int(now.Month())-int(first.Month())) + 1
	if months < 1 {
		months = 1
	}
	return Averages{
		Daily:   Money{Cents: totalCents / days},
		Monthly: Money{Cents: totalCents / months},
	}
}
