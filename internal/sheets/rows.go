package sheets

import (
	"github.com/shopspring/decimal"

	"vegledger/internal/core"
)

// Header is the first row of every export.
var Header = []any{"Date", "Sale ID", "Customer", "Phone", "Vegetable", "Weight (kg)", "Price/kg", "Line total", "Sale total"}

// Columns is the A1 column span covered by Header.
const Columns = "A:I"

// SaleRows flattens records into sheet rows, header first. Each line item is
// one row; the sale total appears only on a sale's first row so column sums
// stay correct. Sales without items still get a row.
func SaleRows(records []core.SaleRecord) [][]any {
	rows := make([][]any, 0, len(records)+1)
	rows = append(rows, Header)
	for _, r := range records {
		base := []any{r.Date.String(), r.ID, r.Customer.Name, r.Customer.Phone}
		if len(r.Items) == 0 {
			rows = append(rows, append(base, "", "", "", "", round(r.TotalAmount, 2)))
			continue
		}
		for i, it := range r.Items {
			var saleTotal any = ""
			if i == 0 {
				saleTotal = round(r.TotalAmount, 2)
			}
			row := append(append([]any(nil), base...),
				it.VegetableName,
				round(it.Weight, 3),
				round(it.PricePerUnit, 2),
				round(it.TotalPrice, 2),
				saleTotal)
			rows = append(rows, row)
		}
	}
	return rows
}

func round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}
