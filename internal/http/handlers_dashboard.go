package http

import (
	"bytes"
	"html/template"
	"net/http"

	"vegledger/internal/core"
	applog "vegledger/internal/log"
)

// View selects which section of the page is rendered.
type View string

const (
	ViewDashboard View = "dashboard"
	ViewSales     View = "sales"
	ViewCustomers View = "customers"
)

// ParseView maps ?view= onto a known view, defaulting to the dashboard.
func ParseView(s string) View {
	switch View(s) {
	case ViewSales, ViewCustomers:
		return View(s)
	default:
		return ViewDashboard
	}
}

var templateFuncs = template.FuncMap{
	"amount": core.FormatAmount,
	"weight": core.FormatWeight,
}

type navLink struct {
	View   View
	Label  string
	Active bool
}

type salesFilter struct {
	Search string
	Date   string
	Sort   string
	Dir    string
}

type pageData struct {
	View      View
	Nav       []navLink
	Notice    string
	Dashboard core.DashboardSummary

	Sales       []core.SaleRecord
	SalesFilter salesFilter

	Customers      []core.Customer
	CustomerSearch string
}

func navFor(active View) []navLink {
	links := []navLink{
		{View: ViewDashboard, Label: "Dashboard"},
		{View: ViewSales, Label: "Sales"},
		{View: ViewCustomers, Label: "Customers"},
	}
	for i := range links {
		links[i].Active = links[i].View == active
	}
	return links
}

// handleIndex renders the page for the view named in ?view=.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	view := ParseView(q.Get("view"))
	data := pageData{View: view, Nav: navFor(view)}

	switch view {
	case ViewSales:
		query, err := ParseSaleQuery(q)
		if err != nil {
			data.Notice = "Invalid date filter ignored."
			q.Del("date")
			query, _ = ParseSaleQuery(q)
		}
		data.Sales = s.sales.Query(query)
		data.SalesFilter = salesFilter{
			Search: query.Search,
			Date:   query.Date.String(),
			Sort:   string(query.SortBy),
			Dir:    string(query.Direction),
		}
	case ViewCustomers:
		data.CustomerSearch = sanitizeInput(q.Get("q"))
		if data.CustomerSearch != "" {
			data.Customers = s.customers.Search(data.CustomerSearch)
		} else {
			data.Customers = s.customers.List()
		}
	default:
		today, err := ParseToday(q, s.dashboard.Today())
		if err != nil {
			data.Notice = "Invalid date ignored, showing today."
			today = s.dashboard.Today()
		}
		data.Dashboard = s.dashboard.Summary(today)
	}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "index.html", data); err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Template execution failed",
			applog.FieldError, err.Error(),
			applog.FieldOperation, applog.OpRender)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

// handleDashboard returns the summary for ?today=, defaulting to the current UTC date.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	today, err := ParseToday(r.URL.Query(), s.dashboard.Today())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, s.dashboard.Summary(today))
}
