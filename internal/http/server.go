package http

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"vegledger/internal/core"
	applog "vegledger/internal/log"
	"vegledger/internal/middleware/ratelimit"
	"vegledger/internal/middleware/security"
	"vegledger/internal/middleware/trace"
	"vegledger/internal/services"
	appweb "vegledger/web"
)

// CustomerService is the subset of the customer registry the handlers use.
type CustomerService interface {
	List() []core.Customer
	Count() int
	GetByID(id string) (core.Customer, bool)
	Search(term string) []core.Customer
	Create(ctx context.Context, in core.CustomerInput) (string, error)
	Update(ctx context.Context, c core.Customer) error
	Delete(ctx context.Context, id string) error
}

// SalesService is the subset of the sales ledger the handlers use.
type SalesService interface {
	Records() []core.SaleRecord
	GetByID(id string) (core.SaleRecord, bool)
	Query(q services.SaleQuery) []core.SaleRecord
	CreateRecord(ctx context.Context, in core.SaleInput) (string, error)
	UpdateRecord(ctx context.Context, rec core.SaleRecord) error
	DeleteRecord(ctx context.Context, id string) error
	AddItem(ctx context.Context, saleID string, in core.ItemInput) (string, error)
	UpdateItem(ctx context.Context, saleID string, item core.LineItem) error
	DeleteItem(ctx context.Context, saleID, itemID string) error
}

type DashboardService interface {
	Today() core.Date
	Summary(today core.Date) core.DashboardSummary
}

// Options wires the server to its collaborators.
type Options struct {
	Addr               string
	Customers          CustomerService
	Sales              SalesService
	Dashboard          DashboardService
	Logger             *applog.Logger
	RateLimitPerMinute int
	// Ready reports whether the backing store is reachable. Nil means always ready.
	Ready func(context.Context) error
}

type Server struct {
	http.Server
	templates *template.Template
	customers CustomerService
	sales     SalesService
	dashboard DashboardService
	logger    *applog.Logger
	limiter   *ratelimit.Limiter
	tracer    *trace.Middleware
	ready     func(context.Context) error
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(opts Options) (*Server, error) {
	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	t, err := template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	limiterCfg := ratelimit.DefaultConfig()
	if opts.RateLimitPerMinute > 0 {
		limiterCfg.RequestsPerMinute = opts.RateLimitPerMinute
	}

	s := &Server{
		templates: t,
		customers: opts.Customers,
		sales:     opts.Sales,
		dashboard: opts.Dashboard,
		logger:    logger,
		limiter:   ratelimit.NewLimiter(limiterCfg),
		tracer:    trace.NewMiddleware(logger, security.ClientIP),
		ready:     opts.Ready,
	}

	mux := http.NewServeMux()
	if err := s.routes(mux); err != nil {
		s.limiter.Stop()
		return nil, err
	}

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	limited := s.limiter.Middleware(security.ClientIP, s.handleRateLimited)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           s.tracer.Middleware(headers.Middleware(limited(mux))),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

func (s *Server) routes(mux *http.ServeMux) error {
	sub, err := fs.Sub(appweb.StaticFS, "static")
	if err != nil {
		return fmt.Errorf("mount static assets: %w", err)
	}
	static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
	mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/customers", s.handleListCustomers)
	mux.HandleFunc("POST /api/customers", s.handleCreateCustomer)
	mux.HandleFunc("GET /api/customers/{id}", s.handleGetCustomer)
	mux.HandleFunc("PUT /api/customers/{id}", s.handleUpdateCustomer)
	mux.HandleFunc("DELETE /api/customers/{id}", s.handleDeleteCustomer)

	mux.HandleFunc("GET /api/sales", s.handleListSales)
	mux.HandleFunc("POST /api/sales", s.handleCreateSale)
	mux.HandleFunc("GET /api/sales/{id}", s.handleGetSale)
	mux.HandleFunc("PUT /api/sales/{id}", s.handleUpdateSale)
	mux.HandleFunc("DELETE /api/sales/{id}", s.handleDeleteSale)
	mux.HandleFunc("POST /api/sales/{id}/items", s.handleAddItem)
	mux.HandleFunc("PUT /api/sales/{id}/items/{itemId}", s.handleUpdateItem)
	mux.HandleFunc("DELETE /api/sales/{id}/items/{itemId}", s.handleDeleteItem)

	mux.HandleFunc("GET /api/dashboard", s.handleDashboard)
	return nil
}

// Shutdown stops background goroutines and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.Stop()
	s.logger.InfoContext(ctx, "HTTP server shutting down", applog.FieldOperation, applog.OpShutdown)
	return s.Server.Shutdown(ctx)
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldClientIP, security.ClientIP(r),
		applog.FieldMethod, r.Method,
		applog.FieldPath, r.URL.Path)

	if strings.HasPrefix(r.URL.Path, "/api/") {
		_ = NewJSONResponse().
			Status(http.StatusTooManyRequests).
			JSON(errorBody{Error: "rate limit exceeded, try again later"}).
			Send(w)
		return
	}
	http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", applog.FieldError, err.Error())
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
