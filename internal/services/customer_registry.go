package services

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"vegledger/internal/core"
	"vegledger/internal/ident"
	applog "vegledger/internal/log"
	"vegledger/internal/store"
)

// CustomerRegistry owns the customer collection.
//
// The published snapshot is never modified in place: every mutation builds a
// new slice, persists it and only then swaps it in, so readers always see a
// complete collection and a failed save leaves the registry unchanged.
type CustomerRegistry struct {
	mu        sync.Mutex
	store     store.SnapshotStore
	ids       ident.Generator
	customers []core.Customer
}

// NewCustomerRegistry loads the customers slot, falling back to the seed list
// on first run.
func NewCustomerRegistry(ctx context.Context, st store.SnapshotStore, ids ident.Generator) (*CustomerRegistry, error) {
	customers, err := store.LoadSlot(ctx, st, core.SlotCustomers, core.DefaultCustomers())
	if err != nil {
		return nil, fmt.Errorf("load customers: %w", err)
	}
	if customers == nil {
		customers = []core.Customer{}
	}

	slog.InfoContext(ctx, "Customer registry loaded",
		applog.FieldComponent, applog.ComponentCustomers,
		applog.FieldRecordCount, len(customers))

	return &CustomerRegistry{store: st, ids: ids, customers: customers}, nil
}

// List returns a copy of the current snapshot in insertion order.
func (r *CustomerRegistry) List() []core.Customer {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.customers)
}

// Count returns the number of customers.
func (r *CustomerRegistry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.customers)
}

// GetByID is a point lookup.
func (r *CustomerRegistry) GetByID(id string) (core.Customer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := slices.IndexFunc(r.customers, func(c core.Customer) bool { return c.ID == id })
	if i < 0 {
		return core.Customer{}, false
	}
	return r.customers[i], true
}

// Create appends a new customer and returns its id. Duplicate names or
// phones are allowed.
func (r *CustomerRegistry) Create(ctx context.Context, in core.CustomerInput) (string, error) {
	in = in.Normalize()
	c := core.Customer{
		ID:      r.ids.NewID(),
		Name:    in.Name,
		Phone:   in.Phone,
		Address: in.Address,
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	next := append(slices.Clone(r.customers), c)
	if err := r.commit(ctx, next); err != nil {
		return "", err
	}

	slog.InfoContext(ctx, "Customer created",
		applog.FieldComponent, applog.ComponentCustomers,
		applog.FieldOperation, applog.OpCreate,
		applog.FieldCustomerID, c.ID)

	return c.ID, nil
}

// Update replaces the stored customer with the same id. Past sale records
// keep their own copy and are not touched.
func (r *CustomerRegistry) Update(ctx context.Context, c core.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := slices.IndexFunc(r.customers, func(x core.Customer) bool { return x.ID == c.ID })
	if i < 0 {
		return fmt.Errorf("customer %s: %w", c.ID, core.ErrNotFound)
	}
	next := slices.Clone(r.customers)
	next[i] = c
	if err := r.commit(ctx, next); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Customer updated",
		applog.FieldComponent, applog.ComponentCustomers,
		applog.FieldOperation, applog.OpUpdate,
		applog.FieldCustomerID, c.ID)
	return nil
}

// Delete removes the customer. Sale records referencing it are kept.
func (r *CustomerRegistry) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !slices.ContainsFunc(r.customers, func(x core.Customer) bool { return x.ID == id }) {
		return fmt.Errorf("customer %s: %w", id, core.ErrNotFound)
	}
	next := slices.DeleteFunc(slices.Clone(r.customers), func(x core.Customer) bool { return x.ID == id })
	if err := r.commit(ctx, next); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Customer deleted",
		applog.FieldComponent, applog.ComponentCustomers,
		applog.FieldOperation, applog.OpDelete,
		applog.FieldCustomerID, id)
	return nil
}

// Search filters by case-insensitive name substring or phone substring.
// An empty term returns every customer.
func (r *CustomerRegistry) Search(term string) []core.Customer {
	all := r.List()
	term = strings.TrimSpace(term)
	if term == "" {
		return all
	}
	lower := strings.ToLower(term)
	out := make([]core.Customer, 0, len(all))
	for _, c := range all {
		if strings.Contains(strings.ToLower(c.Name), lower) || strings.Contains(c.Phone, term) {
			out = append(out, c)
		}
	}
	return out
}

// commit must be called with r.mu held.
func (r *CustomerRegistry) commit(ctx context.Context, next []core.Customer) error {
	if err := store.SaveSlot(ctx, r.store, core.SlotCustomers, next); err != nil {
		slog.ErrorContext(ctx, "Failed to persist customers",
			applog.FieldComponent, applog.ComponentCustomers,
			applog.FieldSlot, core.SlotCustomers,
			applog.FieldError, err)
		return fmt.Errorf("%w: %w", core.ErrPersistence, err)
	}
	r.customers = next
	return nil
}
