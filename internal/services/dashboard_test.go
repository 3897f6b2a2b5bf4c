package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vegledger/internal/core"
	"vegledger/internal/ident"
	"vegledger/internal/store/memory"
)

func TestTodaysSales(t *testing.T) {
	today := core.NewDate(2024, 5, 1)
	records := []core.SaleRecord{
		sale("a", today, "A", 60),
		sale("b", core.NewDate(2024, 4, 30), "B", 40),
		sale("c", today, "C", 20),
	}

	todays := TodaysSales(records, today)
	assert.Equal(t, []string{"a", "c"}, ids(todays))
	assert.Equal(t, 80.0, TodaysTotal(todays))
	assert.Equal(t, 2, DistinctCustomersToday(todays))
}

func TestTodaysSalesEmpty(t *testing.T) {
	todays := TodaysSales(nil, core.NewDate(2024, 5, 1))
	assert.Empty(t, todays)
	assert.Zero(t, TodaysTotal(todays))
	assert.Zero(t, DistinctCustomersToday(todays))
}

func TestMostSoldVegetable(t *testing.T) {
	day := core.NewDate(2024, 5, 1)
	withItems := func(id string, items ...core.LineItem) core.SaleRecord {
		r := sale(id, day, "A", 0)
		r.Items = items
		return r
	}

	t.Run("counts occurrences and sums weight", func(t *testing.T) {
		sales := []core.SaleRecord{
			withItems("a",
				core.LineItem{VegetableName: "Tomato", Weight: 2},
				core.LineItem{VegetableName: "Onion", Weight: 5}),
			withItems("b", core.LineItem{VegetableName: "Tomato", Weight: 1.5}),
		}
		assert.Equal(t, core.BestSeller{Name: "Tomato", Count: 2, Weight: 3.5}, MostSoldVegetable(sales))
	})

	t.Run("tie keeps first seen", func(t *testing.T) {
		sales := []core.SaleRecord{
			withItems("a", core.LineItem{VegetableName: "Onion", Weight: 1}),
			withItems("b", core.LineItem{VegetableName: "Tomato", Weight: 9}),
		}
		assert.Equal(t, "Onion", MostSoldVegetable(sales).Name)
	})

	t.Run("no sales", func(t *testing.T) {
		assert.Equal(t, core.BestSeller{Name: core.NoBestSeller}, MostSoldVegetable(nil))
	})

	t.Run("sales without items", func(t *testing.T) {
		assert.Equal(t, core.BestSeller{Name: core.NoBestSeller}, MostSoldVegetable([]core.SaleRecord{withItems("a")}))
	})
}

func TestRecentSales(t *testing.T) {
	var records []core.SaleRecord
	for i, id := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		records = append(records, sale(id, core.NewDate(2024, 5, 1+i%4), "A", 0))
	}
	// days: a=1 b=2 c=3 d=4 e=1 f=2 g=3

	assert.Equal(t, []string{"d", "c", "g", "b", "f"}, ids(RecentSales(records, 0)))
	assert.Equal(t, []string{"d", "c"}, ids(RecentSales(records, 2)))
	assert.Len(t, RecentSales(records[:3], 5), 3)
	assert.Equal(t, "a", records[0].ID, "input is not reordered")
}

func TestDashboardSummary(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	customers, err := NewCustomerRegistry(ctx, st, ident.NewSequence("c"))
	require.NoError(t, err)
	ledger, err := NewSalesLedger(ctx, st, ident.NewSequence("s"), nil)
	require.NoError(t, err)

	today := core.NewDate(2024, 5, 1)
	rajesh, _ := customers.GetByID("1")
	priya, _ := customers.GetByID("2")
	for _, in := range []core.SaleInput{
		{Date: today, CustomerID: rajesh.ID, Customer: rajesh, Items: []core.LineItem{
			{VegetableName: "Tomato", Weight: 2, PricePerUnit: 30, TotalPrice: 60},
		}},
		{Date: today, CustomerID: rajesh.ID, Customer: rajesh, Items: []core.LineItem{
			{VegetableName: "Onion", Weight: 1, PricePerUnit: 20, TotalPrice: 20},
			{VegetableName: "Tomato", Weight: 1, PricePerUnit: 30, TotalPrice: 30},
		}},
		{Date: core.NewDate(2024, 4, 30), CustomerID: priya.ID, Customer: priya, Items: []core.LineItem{
			{VegetableName: "Potato", Weight: 10, PricePerUnit: 15, TotalPrice: 150},
		}},
	} {
		_, err := ledger.CreateRecord(ctx, in)
		require.NoError(t, err)
	}

	clock := func() time.Time { return time.Date(2024, 5, 1, 18, 30, 0, 0, time.UTC) }
	d := NewDashboard(ledger, customers, clock)
	assert.Equal(t, today, d.Today())

	got := d.Summary(core.Date{})
	assert.Equal(t, today, got.Date)
	assert.Equal(t, 110.0, got.TodayTotal)
	assert.Equal(t, 2, got.TodayTransactions)
	assert.Equal(t, core.BestSeller{Name: "Tomato", Count: 2, Weight: 3}, got.MostSold)
	assert.Equal(t, 6, got.TotalCustomers)
	assert.Equal(t, 1, got.CustomersToday)
	require.Len(t, got.RecentSales, 3)
	assert.Equal(t, core.NewDate(2024, 4, 30), got.RecentSales[2].Date)

	empty := d.Summary(core.NewDate(2024, 1, 1))
	assert.Zero(t, empty.TodayTotal)
	assert.Zero(t, empty.TodayTransactions)
	assert.Equal(t, core.NoBestSeller, empty.MostSold.Name)
}
