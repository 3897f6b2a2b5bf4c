package core

// NoBestSeller is the name reported when no sales exist for the day.
const NoBestSeller = "None"

// BestSeller is the vegetable sold in the most line items on a day.
type BestSeller struct {
	Name   string  `json:"name"`
	Count  int     `json:"count"`
	Weight float64 `json:"weight"`
}

// DashboardSummary is the read-only overview for a single day.
type DashboardSummary struct {
	Date              Date         `json:"date"`
	TodayTotal        float64      `json:"todayTotal"`
	TodayTransactions int          `json:"todayTransactions"`
	MostSold          BestSeller   `json:"mostSold"`
	TotalCustomers    int          `json:"totalCustomers"`
	CustomersToday    int          `json:"customersToday"`
	RecentSales       []SaleRecord `json:"recentSales"`
}
