// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data:
// JSON bodies, sales list query parameters and the dashboard date.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"vegledger/internal/core"
	"vegledger/internal/services"
)

const maxBodyBytes = 1 << 20

var errMalformedBody = errors.New("malformed request body")

// decodeJSON reads a single JSON object into dst. Unknown fields, trailing
// data and oversized bodies are rejected.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", errMalformedBody, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: unexpected data after JSON object", errMalformedBody)
	}
	return nil
}

// ParseSaleQuery reads search, date, sort and dir from the query string.
// An empty date means no filter; a malformed one is a validation error.
func ParseSaleQuery(q url.Values) (services.SaleQuery, error) {
	query := services.SaleQuery{
		Search:    sanitizeInput(q.Get("search")),
		SortBy:    services.ParseSortField(strings.TrimSpace(q.Get("sort"))),
		Direction: services.ParseSortDirection(strings.TrimSpace(q.Get("dir"))),
	}
	if v := strings.TrimSpace(q.Get("date")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return services.SaleQuery{}, &core.ValidationError{Field: "date", Err: err}
		}
		query.Date = d
	}
	return query, nil
}

// ParseToday reads the optional today parameter, falling back to fallback.
func ParseToday(q url.Values, fallback core.Date) (core.Date, error) {
	v := strings.TrimSpace(q.Get("today"))
	if v == "" {
		return fallback, nil
	}
	d, err := core.ParseDate(v)
	if err != nil {
		return core.Date{}, &core.ValidationError{Field: "today", Err: err}
	}
	return d, nil
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
