package http

import (
	"errors"
	"fmt"
	"net/http"

	"vegledger/internal/core"
	applog "vegledger/internal/log"
)

var (
	errUnknownCustomer = errors.New("selected customer does not exist")
	errMissingItemID   = errors.New("item id is required when replacing a sale")
	errDuplicateItemID = errors.New("item id appears more than once")
)

// saleRequest is the body of POST and PUT /api/sales. The id, customer and
// totalAmount fields are accepted so a fetched record can be sent back as is,
// but they are ignored: the customer is resolved from customerId and the
// totals are derived.
type saleRequest struct {
	ID          string         `json:"id,omitempty"`
	Date        core.Date      `json:"date"`
	CustomerID  string         `json:"customerId"`
	Customer    *core.Customer `json:"customer,omitempty"`
	Items       []itemRequest  `json:"items"`
	TotalAmount float64        `json:"totalAmount,omitempty"`
}

type itemRequest struct {
	ID            string  `json:"id,omitempty"`
	VegetableName string  `json:"vegetableName"`
	Weight        float64 `json:"weight"`
	PricePerUnit  float64 `json:"pricePerUnit"`
	TotalPrice    float64 `json:"totalPrice,omitempty"`
}

func (it itemRequest) input() core.ItemInput {
	return core.ItemInput{
		VegetableName: sanitizeInput(it.VegetableName),
		Weight:        it.Weight,
		PricePerUnit:  it.PricePerUnit,
	}
}

func (it itemRequest) lineItem() core.LineItem {
	in := it.input()
	li := core.LineItem{
		ID:            it.ID,
		VegetableName: in.VegetableName,
		Weight:        in.Weight,
		PricePerUnit:  in.PricePerUnit,
	}
	li.Recompute()
	return li
}

func (req saleRequest) input() core.SaleInput {
	items := make([]core.LineItem, len(req.Items))
	for i, it := range req.Items {
		items[i] = it.lineItem()
	}
	return core.SaleInput{
		Date:       req.Date,
		CustomerID: sanitizeInput(req.CustomerID),
		Items:      items,
	}
}

func (s *Server) resolveCustomer(id string) (core.Customer, error) {
	c, ok := s.customers.GetByID(id)
	if !ok {
		return core.Customer{}, &core.ValidationError{Field: "customerId", Err: errUnknownCustomer}
	}
	return c, nil
}

// handleListSales returns the sales list filtered and ordered by
// ?search=&date=&sort=&dir=.
func (s *Server) handleListSales(w http.ResponseWriter, r *http.Request) {
	q, err := ParseSaleQuery(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, s.sales.Query(q))
}

func (s *Server) handleGetSale(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.sales.GetByID(r.PathValue("id"))
	if !ok {
		writeError(w, r, core.ErrNotFound)
		return
	}
	writeJSON(w, r, http.StatusOK, rec)
}

func (s *Server) handleCreateSale(w http.ResponseWriter, r *http.Request) {
	var req saleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	in := req.input()
	if err := in.Validate(); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := s.resolveCustomer(in.CustomerID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	in.Customer = c

	id, err := s.sales.CreateRecord(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rec, _ := s.sales.GetByID(id)

	applog.NewStructuredLogger(applog.FromContext(r.Context())).
		LogSaleRecorded(r.Context(), applog.OpCreate, rec.ID, rec.Date.String(), len(rec.Items), rec.TotalAmount)
	w.Header().Set("Location", "/api/sales/"+id)
	writeJSON(w, r, http.StatusCreated, rec)
}

// handleUpdateSale replaces a sale. Every item must carry its id; new items
// are added through the items endpoint. The customer copy is kept unless the
// customer changes.
func (s *Server) handleUpdateSale(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	existing, ok := s.sales.GetByID(id)
	if !ok {
		writeError(w, r, core.ErrNotFound)
		return
	}

	var req saleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	in := req.input()
	if err := in.Validate(); err != nil {
		writeError(w, r, err)
		return
	}
	seen := make(map[string]bool, len(in.Items))
	for i, it := range in.Items {
		field := fmt.Sprintf("items[%d].id", i)
		if it.ID == "" {
			writeError(w, r, &core.ValidationError{Field: field, Err: errMissingItemID})
			return
		}
		if seen[it.ID] {
			writeError(w, r, &core.ValidationError{Field: field, Err: errDuplicateItemID})
			return
		}
		seen[it.ID] = true
	}

	customer := existing.Customer
	if in.CustomerID != existing.CustomerID {
		c, err := s.resolveCustomer(in.CustomerID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		customer = c
	}

	rec := core.SaleRecord{
		ID:         id,
		Date:       in.Date,
		CustomerID: in.CustomerID,
		Customer:   customer,
		Items:      in.Items,
	}
	if err := s.sales.UpdateRecord(r.Context(), rec); err != nil {
		writeError(w, r, err)
		return
	}
	rec, _ = s.sales.GetByID(id)
	writeJSON(w, r, http.StatusOK, rec)
}

func (s *Server) handleDeleteSale(w http.ResponseWriter, r *http.Request) {
	if err := s.sales.DeleteRecord(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleAddItem appends an item and responds with the updated sale.
func (s *Server) handleAddItem(w http.ResponseWriter, r *http.Request) {
	saleID := r.PathValue("id")

	var req itemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	in := req.input()
	if err := in.Validate(); err != nil {
		writeError(w, r, err)
		return
	}

	itemID, err := s.sales.AddItem(r.Context(), saleID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rec, _ := s.sales.GetByID(saleID)
	w.Header().Set("Location", "/api/sales/"+saleID+"/items/"+itemID)
	writeJSON(w, r, http.StatusCreated, rec)
}

func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	saleID := r.PathValue("id")

	var req itemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := req.input().Validate(); err != nil {
		writeError(w, r, err)
		return
	}
	req.ID = r.PathValue("itemId")

	if err := s.sales.UpdateItem(r.Context(), saleID, req.lineItem()); err != nil {
		writeError(w, r, err)
		return
	}
	rec, _ := s.sales.GetByID(saleID)
	writeJSON(w, r, http.StatusOK, rec)
}

func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	if err := s.sales.DeleteItem(r.Context(), r.PathValue("id"), r.PathValue("itemId")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
