package services

import (
	"log/slog"
	"slices"
	"time"

	"vegledger/internal/core"
	applog "vegledger/internal/log"
)

// DefaultRecentSales is the size of the dashboard's recent-sales list.
const DefaultRecentSales = 5

// TodaysSales returns the records whose date equals today, in input order.
func TodaysSales(records []core.SaleRecord, today core.Date) []core.SaleRecord {
	out := make([]core.SaleRecord, 0)
	for _, r := range records {
		if r.Date.SameDay(today) {
			out = append(out, r)
		}
	}
	return out
}

// TodaysTotal sums TotalAmount over the given records.
func TodaysTotal(sales []core.SaleRecord) float64 {
	var total float64
	for _, r := range sales {
		total += r.TotalAmount
	}
	return total
}

// MostSoldVegetable counts line-item occurrences per vegetable name and
// returns the most frequent one with its summed weight. Ties keep the name
// seen first. With no items it returns the NoBestSeller sentinel.
func MostSoldVegetable(sales []core.SaleRecord) core.BestSeller {
	type tally struct {
		count  int
		weight float64
	}
	var order []string
	tallies := make(map[string]*tally)
	for _, r := range sales {
		for _, it := range r.Items {
			t, ok := tallies[it.VegetableName]
			if !ok {
				t = &tally{}
				tallies[it.VegetableName] = t
				order = append(order, it.VegetableName)
			}
			t.count++
			t.weight += it.Weight
		}
	}

	best := core.BestSeller{Name: core.NoBestSeller}
	for _, name := range order {
		t := tallies[name]
		if t.count > best.Count {
			best = core.BestSeller{Name: name, Count: t.count, Weight: t.weight}
		}
	}
	return best
}

// RecentSales returns at most n records, newest date first. Records sharing
// a date keep their relative order. n <= 0 selects DefaultRecentSales.
func RecentSales(records []core.SaleRecord, n int) []core.SaleRecord {
	if n <= 0 {
		n = DefaultRecentSales
	}
	sorted := slices.Clone(records)
	slices.SortStableFunc(sorted, func(a, b core.SaleRecord) int {
		return b.Date.Compare(a.Date.Time)
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// DistinctCustomersToday counts distinct CustomerIDs in sales.
func DistinctCustomersToday(sales []core.SaleRecord) int {
	seen := make(map[string]struct{}, len(sales))
	for _, r := range sales {
		seen[r.CustomerID] = struct{}{}
	}
	return len(seen)
}

// SaleSource supplies the records the dashboard aggregates.
type SaleSource interface {
	Records() []core.SaleRecord
}

// CustomerCounter supplies the customer total.
type CustomerCounter interface {
	Count() int
}

// Dashboard derives the summary view from the ledger and customer registry.
// It holds no state of its own.
type Dashboard struct {
	sales     SaleSource
	customers CustomerCounter
	now       func() time.Time
}

// NewDashboard builds a Dashboard. A nil clock uses time.Now.
func NewDashboard(sales SaleSource, customers CustomerCounter, now func() time.Time) *Dashboard {
	if now == nil {
		now = time.Now
	}
	return &Dashboard{sales: sales, customers: customers, now: now}
}

// Today is the current calendar date in UTC.
func (d *Dashboard) Today() core.Date {
	return core.DateOf(d.now().UTC())
}

// Summary aggregates every dashboard figure for the given day.
func (d *Dashboard) Summary(today core.Date) core.DashboardSummary {
	if today.IsZero() {
		today = d.Today()
	}
	records := d.sales.Records()
	todays := TodaysSales(records, today)

	summary := core.DashboardSummary{
		Date:              today,
		TodayTotal:        TodaysTotal(todays),
		TodayTransactions: len(todays),
		MostSold:          MostSoldVegetable(todays),
		TotalCustomers:    d.customers.Count(),
		CustomersToday:    DistinctCustomersToday(todays),
		RecentSales:       RecentSales(records, DefaultRecentSales),
	}

	slog.Debug("Dashboard summary computed",
		applog.FieldComponent, applog.ComponentDashboard,
		applog.FieldSaleDate, today.String(),
		applog.FieldRecordCount, len(records))

	return summary
}
