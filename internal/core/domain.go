package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar-date layout used in snapshots and request parameters.
const DateLayout = "2006-01-02"

// Snapshot slot names
const (
	SlotCustomers    = "customers"
	SlotSalesRecords = "salesRecords"
)

type (
	// Date is a calendar date without a time component (UTC midnight).
	Date struct {
		time.Time
	}

	Customer struct {
		ID      string `json:"id"`
		Name    string `json:"name"`
		Phone   string `json:"phone"`
		Address string `json:"address,omitempty"`
	}

	// LineItem is one vegetable entry of a sale. TotalPrice is derived.
	LineItem struct {
		ID            string  `json:"id"`
		VegetableName string  `json:"vegetableName"`
		Weight        float64 `json:"weight"`       // kg
		PricePerUnit  float64 `json:"pricePerUnit"` // per kg
		TotalPrice    float64 `json:"totalPrice"`
	}

	// SaleRecord owns its items. Customer is a point-in-time copy of the
	// referenced customer, not a live link.
	SaleRecord struct {
		ID          string     `json:"id"`
		Date        Date       `json:"date"`
		CustomerID  string     `json:"customerId"`
		Customer    Customer   `json:"customer"`
		Items       []LineItem `json:"items"`
		TotalAmount float64    `json:"totalAmount"`
	}

	CustomerInput struct {
		Name    string `json:"name"`
		Phone   string `json:"phone"`
		Address string `json:"address,omitempty"`
	}

	ItemInput struct {
		VegetableName string  `json:"vegetableName"`
		Weight        float64 `json:"weight"`
		PricePerUnit  float64 `json:"pricePerUnit"`
	}

	SaleInput struct {
		Date       Date       `json:"date"`
		CustomerID string     `json:"customerId"`
		Customer   Customer   `json:"customer"`
		Items      []LineItem `json:"items"`
	}
)

var (
	ErrNotFound    = errors.New("not found")
	ErrPersistence = errors.New("persistence failure")

	ErrEmptyName       = errors.New("name is required")
	ErrEmptyPhone      = errors.New("phone number is required")
	ErrInvalidPhone    = errors.New("phone must be 10 digits")
	ErrEmptyVegetable  = errors.New("vegetable name is required")
	ErrInvalidWeight   = errors.New("weight must be greater than 0")
	ErrInvalidPrice    = errors.New("price must be greater than 0")
	ErrInvalidDate     = errors.New("date is required")
	ErrMissingCustomer = errors.New("please select a customer")
	ErrNoItems         = errors.New("at least one item is required")
)

// ValidationError reports which input field was rejected.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func invalid(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar date in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// SameDay reports calendar-date equality.
func (d Date) SameDay(o Date) bool {
	y1, m1, d1 := d.Date()
	y2, m2, d2 := o.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	// Accept full timestamps from older snapshots, keep the date part.
	if len(s) > len(DateLayout) {
		s = s[:len(DateLayout)]
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return fmt.Errorf("parse date %q: %w", s, err)
	}
	*d = parsed
	return nil
}

// Recompute sets TotalPrice from Weight and PricePerUnit.
func (it *LineItem) Recompute() {
	it.TotalPrice = it.Weight * it.PricePerUnit
}

// SumItems returns the plain sum of item totals. No rounding is applied.
func SumItems(items []LineItem) float64 {
	var total float64
	for _, it := range items {
		total += it.TotalPrice
	}
	return total
}

// Clone returns a copy of the record that shares no item storage with r.
func (r SaleRecord) Clone() SaleRecord {
	out := r
	if r.Items != nil {
		out.Items = make([]LineItem, len(r.Items))
		copy(out.Items, r.Items)
	}
	return out
}

// Normalize trims the input the way the customer form does.
func (in CustomerInput) Normalize() CustomerInput {
	return CustomerInput{
		Name:    strings.TrimSpace(in.Name),
		Phone:   strings.TrimSpace(in.Phone),
		Address: strings.TrimSpace(in.Address),
	}
}

func (in CustomerInput) Validate() error {
	in = in.Normalize()
	if in.Name == "" {
		return invalid("name", ErrEmptyName)
	}
	if in.Phone == "" {
		return invalid("phone", ErrEmptyPhone)
	}
	if !isTenDigits(in.Phone) {
		return invalid("phone", ErrInvalidPhone)
	}
	return nil
}

// Validate checks an edited customer; the id must be present.
func (c Customer) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return invalid("id", ErrNotFound)
	}
	return CustomerInput{Name: c.Name, Phone: c.Phone, Address: c.Address}.Validate()
}

func (in ItemInput) Validate() error {
	if strings.TrimSpace(in.VegetableName) == "" {
		return invalid("vegetableName", ErrEmptyVegetable)
	}
	if !(in.Weight > 0) {
		return invalid("weight", ErrInvalidWeight)
	}
	if !(in.PricePerUnit > 0) {
		return invalid("pricePerUnit", ErrInvalidPrice)
	}
	return nil
}

func (it LineItem) Validate() error {
	return ItemInput{VegetableName: it.VegetableName, Weight: it.Weight, PricePerUnit: it.PricePerUnit}.Validate()
}

func (in SaleInput) Validate() error {
	if err := in.Date.Validate(); err != nil {
		return invalid("date", err)
	}
	if strings.TrimSpace(in.CustomerID) == "" {
		return invalid("customerId", ErrMissingCustomer)
	}
	if len(in.Items) == 0 {
		return invalid("items", ErrNoItems)
	}
	for i, it := range in.Items {
		if err := it.Validate(); err != nil {
			var ve *ValidationError
			if errors.As(err, &ve) {
				return invalid(fmt.Sprintf("items[%d].%s", i, ve.Field), ve.Err)
			}
			return err
		}
	}
	return nil
}

func isTenDigits(s string) bool {
	if len(s) != 10 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// DefaultCustomers is the seed list used when the customers slot is empty.
func DefaultCustomers() []Customer {
	return []Customer{
		{ID: "1", Name: "Rajesh Kumar", Phone: "9876543210", Address: "Market Area, Delhi"},
		{ID: "2", Name: "Priya Sharma", Phone: "8765432109", Address: "Gandhi Road, Mumbai"},
		{ID: "3", Name: "Amit Patel", Phone: "7654321098", Address: "Vegetable Market, Ahmedabad"},
		{ID: "4", Name: "Sunita Verma", Phone: "6543210987", Address: "Main Bazaar, Jaipur"},
		{ID: "5", Name: "Mohammed Khan", Phone: "5432109876", Address: "Wholesale Market, Lucknow"},
		{ID: "6", Name: "Lakshmi Rao", Phone: "4321098765", Address: "Market Complex, Bangalore"},
	}
}
