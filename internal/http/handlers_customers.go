package http

import (
	"net/http"

	"vegledger/internal/core"
	applog "vegledger/internal/log"
)

// handleListCustomers returns all customers, or those matching ?q= by name or phone.
func (s *Server) handleListCustomers(w http.ResponseWriter, r *http.Request) {
	customers := s.customers.List()
	if term := sanitizeInput(r.URL.Query().Get("q")); term != "" {
		customers = s.customers.Search(term)
	}
	writeJSON(w, r, http.StatusOK, customers)
}

func (s *Server) handleGetCustomer(w http.ResponseWriter, r *http.Request) {
	c, ok := s.customers.GetByID(r.PathValue("id"))
	if !ok {
		writeError(w, r, core.ErrNotFound)
		return
	}
	writeJSON(w, r, http.StatusOK, c)
}

func (s *Server) handleCreateCustomer(w http.ResponseWriter, r *http.Request) {
	var in core.CustomerInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	in = sanitizeCustomer(in)
	if err := in.Validate(); err != nil {
		writeError(w, r, err)
		return
	}

	id, err := s.customers.Create(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	c, _ := s.customers.GetByID(id)

	applog.FromContext(r.Context()).InfoContext(r.Context(), "Customer created",
		applog.FieldCustomerID, id,
		applog.FieldOperation, applog.OpCreate)
	w.Header().Set("Location", "/api/customers/"+id)
	writeJSON(w, r, http.StatusCreated, c)
}

func (s *Server) handleUpdateCustomer(w http.ResponseWriter, r *http.Request) {
	var in core.CustomerInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	in = sanitizeCustomer(in)
	if err := in.Validate(); err != nil {
		writeError(w, r, err)
		return
	}

	c := core.Customer{ID: r.PathValue("id"), Name: in.Name, Phone: in.Phone, Address: in.Address}
	if err := s.customers.Update(r.Context(), c); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, c)
}

func (s *Server) handleDeleteCustomer(w http.ResponseWriter, r *http.Request) {
	if err := s.customers.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func sanitizeCustomer(in core.CustomerInput) core.CustomerInput {
	return core.CustomerInput{
		Name:    sanitizeInput(in.Name),
		Phone:   sanitizeInput(in.Phone),
		Address: sanitizeInput(in.Address),
	}.Normalize()
}
