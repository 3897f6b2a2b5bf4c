package services

import (
	"cmp"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"vegledger/internal/core"
)

type SortField string

const (
	SortByDate     SortField = "date"
	SortByCustomer SortField = "customer"
	SortByTotal    SortField = "totalAmount"
)

type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// SaleQuery narrows and orders the sales list. Zero values mean no search,
// no date filter and newest first.
type SaleQuery struct {
	Search    string
	Date      core.Date
	SortBy    SortField
	Direction SortDirection
}

// ParseSortField maps a request value onto a known field, defaulting to date.
func ParseSortField(s string) SortField {
	switch SortField(s) {
	case SortByCustomer, SortByTotal:
		return SortField(s)
	default:
		return SortByDate
	}
}

// ParseSortDirection defaults to descending.
func ParseSortDirection(s string) SortDirection {
	if SortDirection(strings.ToLower(s)) == SortAsc {
		return SortAsc
	}
	return SortDesc
}

// FilterSales applies q to records and returns a new slice. The search term
// matches the customer name or any vegetable name, case-insensitively.
func FilterSales(records []core.SaleRecord, q SaleQuery) []core.SaleRecord {
	term := strings.ToLower(strings.TrimSpace(q.Search))
	out := make([]core.SaleRecord, 0, len(records))
	for _, r := range records {
		if term != "" && !matchesSearch(r, term) {
			continue
		}
		if !q.Date.IsZero() && !r.Date.SameDay(q.Date) {
			continue
		}
		out = append(out, r)
	}

	compare := compareBy(ParseSortField(string(q.SortBy)))
	desc := q.Direction != SortAsc
	slices.SortStableFunc(out, func(a, b core.SaleRecord) int {
		if desc {
			return compare(b, a)
		}
		return compare(a, b)
	})
	return out
}

func matchesSearch(r core.SaleRecord, term string) bool {
	if strings.Contains(strings.ToLower(r.Customer.Name), term) {
		return true
	}
	return slices.ContainsFunc(r.Items, func(it core.LineItem) bool {
		return strings.Contains(strings.ToLower(it.VegetableName), term)
	})
}

func compareBy(field SortField) func(a, b core.SaleRecord) int {
	switch field {
	case SortByCustomer:
		col := collate.New(language.English, collate.IgnoreCase)
		return func(a, b core.SaleRecord) int {
			return col.CompareString(a.Customer.Name, b.Customer.Name)
		}
	case SortByTotal:
		return func(a, b core.SaleRecord) int {
			return cmp.Compare(a.TotalAmount, b.TotalAmount)
		}
	default:
		return func(a, b core.SaleRecord) int {
			return a.Date.Compare(b.Date.Time)
		}
	}
}
