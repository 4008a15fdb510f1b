package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	_ "github.com/lib/pq"

	"github.com/amathziah/bizmitra/advisor"
	"github.com/amathziah/bizmitra/domain"
	"github.com/amathziah/bizmitra/internal/logger"
	"github.com/amathziah/bizmitra/repository"
	"github.com/amathziah/bizmitra/rules"
)

type Server struct {
	db        *sql.DB // nil in demo (in-memory) mode
	store     *repository.Store
	ruleStore rules.RuleStore
	engine    *rules.Engine
	advisor   *advisor.Service
	router    *chi.Mux
}

// NewServer wires storage, the rule engine and the advisor together. With
// an empty databaseURL everything runs in memory, which is how the demo
// deployment works. rulesFile optionally replaces the built-in rule table.
func NewServer(databaseURL, rulesFile string) (*Server, error) {
	baseRules := rules.BuiltinRules()
	if rulesFile != "" {
		loaded, err := rules.LoadFile(rulesFile)
		if err != nil {
			return nil, err
		}
		baseRules = loaded
	}

	var db *sql.DB
	var store *repository.Store
	var ruleStore rules.RuleStore

	if databaseURL != "" {
		var err error
		db, err = sql.Open("postgres", databaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		if err := db.Ping(); err != nil {
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}

		store = repository.NewPostgresStore(db)
		pgRules := rules.NewPostgresRuleStore(db)
		if err := seedRuleStore(pgRules, baseRules); err != nil {
			return nil, err
		}
		ruleStore = pgRules
	} else {
		logger.Info("DATABASE_URL not set, using in-memory storage")
		store = repository.NewMemoryStore()
		seeded, err := rules.NewSeededRuleStore(baseRules)
		if err != nil {
			return nil, err
		}
		ruleStore = seeded
	}

	engine, err := rules.NewEngine(ruleStore)
	if err != nil {
		return nil, err
	}

	s := &Server{
		db:        db,
		store:     store,
		ruleStore: ruleStore,
		engine:    engine,
		advisor:   advisor.NewService(engine, store),
	}
	s.setupRoutes()
	return s, nil
}

// seedRuleStore populates an empty persistent rule store with the base rule
// table. A store that already has rules is left alone.
func seedRuleStore(store rules.RuleStore, baseRules []*rules.Rule) error {
	existing, err := store.List()
	if err != nil {
		return fmt.Errorf("failed to inspect rule store: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}
	for _, r := range baseRules {
		if err := store.Add(r); err != nil {
			return fmt.Errorf("failed to seed rule %s: %w", r.ID, err)
		}
	}
	return nil
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/api/v1/health", s.handleHealth)
	r.Post("/api/v1/evaluate", s.handleEvaluate)

	r.Get("/api/v1/insights/dashboard", s.handleDashboardInsights)
	r.Get("/api/v1/insights/inventory", s.handleInventoryInsights)

	r.Route("/api/v1/rules", func(r chi.Router) {
		r.Get("/", s.handleListRules)
		r.Post("/", s.handleCreateRule)
		r.Get("/{ruleId}", s.handleGetRule)
		r.Put("/{ruleId}", s.handleUpdateRule)
		r.Delete("/{ruleId}", s.handleDeleteRule)
	})

	r.Route("/api/v1/customers", func(r chi.Router) {
		r.Get("/", s.handleListCustomers)
		r.Post("/", s.handleSaveCustomer)
		r.Get("/{id}", s.handleGetCustomer)
		r.Put("/{id}", s.handleSaveCustomer)
		r.Delete("/{id}", s.handleDeleteCustomer)
		r.Get("/{id}/suggestions", s.handleCustomerSuggestions)
	})

	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", s.handleListProducts)
		r.Post("/", s.handleSaveProduct)
		r.Get("/{id}", s.handleGetProduct)
		r.Put("/{id}", s.handleSaveProduct)
		r.Delete("/{id}", s.handleDeleteProduct)
		r.Get("/{id}/suggestions", s.handleProductSuggestions)
	})

	r.Route("/api/v1/invoices", func(r chi.Router) {
		r.Get("/", s.handleListInvoices)
		r.Post("/", s.handleCreateInvoice)
		r.Get("/{id}", s.handleGetInvoice)
		r.Put("/{id}", s.handleUpdateInvoice)
		r.Delete("/{id}", s.handleDeleteInvoice)
		r.Get("/{id}/suggestions", s.handleInvoiceSuggestions)
		r.Post("/{id}/reminder", s.handleInvoiceReminder)
	})

	r.Route("/api/v1/payments", func(r chi.Router) {
		r.Get("/", s.handleListPayments)
		r.Post("/", s.handleCreatePayment)
	})

	r.Route("/api/v1/expenses", func(r chi.Router) {
		r.Get("/", s.handleListExpenses)
		r.Post("/", s.handleSaveExpense)
		r.Delete("/{id}", s.handleDeleteExpense)
	})

	s.router = r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		if err := s.db.Ping(); err != nil {
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unhealthy",
				"error":  err.Error(),
			})
			return
		}
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.Context == nil {
		respondError(w, http.StatusBadRequest, "context is required", nil)
		return
	}

	start := time.Now()
	suggestions := s.engine.Evaluate(rules.NewContext(req.Context))

	respondJSON(w, http.StatusOK, evaluateResponse{
		Suggestions:    suggestions,
		EvaluationTime: time.Since(start).String(),
	})
}

func (s *Server) handleDashboardInsights(w http.ResponseWriter, r *http.Request) {
	insights, err := s.advisor.DashboardInsights()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to compute insights", err)
		return
	}
	respondJSON(w, http.StatusOK, suggestionsResponse{Suggestions: insights})
}

func (s *Server) handleInventoryInsights(w http.ResponseWriter, r *http.Request) {
	insights, err := s.advisor.InventoryInsights()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to compute insights", err)
		return
	}
	respondJSON(w, http.StatusOK, suggestionsResponse{Suggestions: insights})
}

// Rule management

func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request) {
	all, err := s.ruleStore.List()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list rules", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"rules": all})
}

func (s *Server) handleCreateRule(w http.ResponseWriter, r *http.Request) {
	var req ruleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	rule := req.toRule()
	if err := s.engine.AddRule(rule); err != nil {
		respondError(w, http.StatusBadRequest, "failed to add rule", err)
		return
	}
	respondJSON(w, http.StatusCreated, rule)
}

func (s *Server) handleGetRule(w http.ResponseWriter, r *http.Request) {
	ruleID := chi.URLParam(r, "ruleId")
	rule, err := s.ruleStore.Get(ruleID)
	if err != nil {
		respondError(w, http.StatusNotFound, "rule not found", err)
		return
	}
	respondJSON(w, http.StatusOK, rule)
}

func (s *Server) handleUpdateRule(w http.ResponseWriter, r *http.Request) {
	ruleID := chi.URLParam(r, "ruleId")

	var req ruleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	rule := req.toRule()
	rule.ID = ruleID
	if err := s.engine.UpdateRule(rule); err != nil {
		respondError(w, http.StatusBadRequest, "failed to update rule", err)
		return
	}
	respondJSON(w, http.StatusOK, rule)
}

func (s *Server) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	ruleID := chi.URLParam(r, "ruleId")
	if err := s.engine.DeleteRule(ruleID); err != nil {
		respondError(w, http.StatusNotFound, "rule not found", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Customers

func (s *Server) handleListCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := s.store.Customers.List()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list customers", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"customers": customers})
}

func (s *Server) handleSaveCustomer(w http.ResponseWriter, r *http.Request) {
	var c domain.Customer
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if id := chi.URLParam(r, "id"); id != "" {
		c.ID = id
	}
	if c.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required", nil)
		return
	}
	if err := s.store.Customers.Save(&c); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to save customer", err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

func (s *Server) handleGetCustomer(w http.ResponseWriter, r *http.Request) {
	c, err := s.store.Customers.Get(chi.URLParam(r, "id"))
	if err != nil {
		respondNotFoundOrError(w, "customer", err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

func (s *Server) handleDeleteCustomer(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Customers.Delete(chi.URLParam(r, "id")); err != nil {
		respondNotFoundOrError(w, "customer", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCustomerSuggestions(w http.ResponseWriter, r *http.Request) {
	c, err := s.store.Customers.Get(chi.URLParam(r, "id"))
	if err != nil {
		respondNotFoundOrError(w, "customer", err)
		return
	}
	suggestions, err := s.advisor.AnalyzeCustomer(c)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "analysis failed", err)
		return
	}
	respondJSON(w, http.StatusOK, suggestionsResponse{Suggestions: suggestions})
}

// Products

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.store.Products.List()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list products", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"products": products})
}

func (s *Server) handleSaveProduct(w http.ResponseWriter, r *http.Request) {
	var p domain.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if id := chi.URLParam(r, "id"); id != "" {
		p.ID = id
	}
	if p.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required", nil)
		return
	}
	if err := s.store.Products.Save(&p); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to save product", err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := s.store.Products.Get(chi.URLParam(r, "id"))
	if err != nil {
		respondNotFoundOrError(w, "product", err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (s *Server) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Products.Delete(chi.URLParam(r, "id")); err != nil {
		respondNotFoundOrError(w, "product", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleProductSuggestions(w http.ResponseWriter, r *http.Request) {
	p, err := s.store.Products.Get(chi.URLParam(r, "id"))
	if err != nil {
		respondNotFoundOrError(w, "product", err)
		return
	}
	suggestions, err := s.advisor.AnalyzeProduct(p)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "analysis failed", err)
		return
	}
	respondJSON(w, http.StatusOK, suggestionsResponse{Suggestions: suggestions})
}

// Invoices

func (s *Server) handleListInvoices(w http.ResponseWriter, r *http.Request) {
	invoices, err := s.store.Invoices.List()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list invoices", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"invoices": invoices})
}

func (s *Server) handleCreateInvoice(w http.ResponseWriter, r *http.Request) {
	var inv domain.Invoice
	if err := json.NewDecoder(r.Body).Decode(&inv); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if inv.CustomerID == "" {
		respondError(w, http.StatusBadRequest, "customerId is required", nil)
		return
	}
	if inv.Status == "" {
		inv.Status = domain.InvoiceDraft
	}
	if inv.Type == "" {
		inv.Type = domain.TypeInvoice
	}
	if inv.InvoiceNumber == "" {
		number, err := s.store.Invoices.NextInvoiceNumber()
		if err != nil {
			respondError(w, http.StatusInternalServerError, "failed to assign invoice number", err)
			return
		}
		inv.InvoiceNumber = number
	}

	if err := s.store.Invoices.Save(&inv); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to save invoice", err)
		return
	}

	// Regular invoices consume stock; credit notes do not.
	if inv.Type == domain.TypeInvoice {
		for _, item := range inv.Items {
			if err := s.store.Products.AdjustStock(item.ProductID, item.Quantity); err != nil {
				logger.Warn("failed to adjust stock", "product", item.ProductID, "error", err)
			}
		}
	}

	respondJSON(w, http.StatusCreated, inv)
}

func (s *Server) handleUpdateInvoice(w http.ResponseWriter, r *http.Request) {
	var inv domain.Invoice
	if err := json.NewDecoder(r.Body).Decode(&inv); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	inv.ID = chi.URLParam(r, "id")
	existing, err := s.store.Invoices.Get(inv.ID)
	if err != nil {
		respondNotFoundOrError(w, "invoice", err)
		return
	}
	// The request body carries the new state; the creation timestamp is
	// immutable.
	inv.CreatedAt = existing.CreatedAt
	if err := s.store.Invoices.Save(&inv); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to save invoice", err)
		return
	}
	respondJSON(w, http.StatusOK, inv)
}

func (s *Server) handleGetInvoice(w http.ResponseWriter, r *http.Request) {
	inv, err := s.store.Invoices.Get(chi.URLParam(r, "id"))
	if err != nil {
		respondNotFoundOrError(w, "invoice", err)
		return
	}
	respondJSON(w, http.StatusOK, inv)
}

func (s *Server) handleDeleteInvoice(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Invoices.Delete(chi.URLParam(r, "id")); err != nil {
		respondNotFoundOrError(w, "invoice", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleInvoiceSuggestions(w http.ResponseWriter, r *http.Request) {
	inv, err := s.store.Invoices.Get(chi.URLParam(r, "id"))
	if err != nil {
		respondNotFoundOrError(w, "invoice", err)
		return
	}
	respondJSON(w, http.StatusOK, suggestionsResponse{
		Suggestions: s.advisor.AnalyzeInvoice(inv),
	})
}

func (s *Server) handleInvoiceReminder(w http.ResponseWriter, r *http.Request) {
	inv, err := s.store.Invoices.Get(chi.URLParam(r, "id"))
	if err != nil {
		respondNotFoundOrError(w, "invoice", err)
		return
	}

	var req reminderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.Channel == "" {
		req.Channel = "whatsapp"
	}

	message := s.advisor.PaymentReminder(inv, advisor.Tone(req.Tone), advisor.Language(req.Language))

	link := ""
	if req.Channel == "whatsapp" {
		if c, err := s.store.Customers.Get(inv.CustomerID); err == nil {
			link = s.advisor.WhatsAppLink(c.Phone, message)
		}
	}

	reminder := domain.Reminder{
		InvoiceID:   inv.ID,
		Channel:     req.Channel,
		Tone:        req.Tone,
		Language:    req.Language,
		ScheduledAt: time.Now(),
		Status:      "scheduled",
		Message:     message,
	}
	if err := s.store.Reminders.Save(&reminder); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to save reminder", err)
		return
	}

	respondJSON(w, http.StatusCreated, reminderResponse{
		Message:      message,
		WhatsAppLink: link,
	})
}

// Payments

func (s *Server) handleListPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := s.store.Payments.List()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list payments", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"payments": payments})
}

func (s *Server) handleCreatePayment(w http.ResponseWriter, r *http.Request) {
	var p domain.Payment
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if p.InvoiceID == "" {
		respondError(w, http.StatusBadRequest, "invoiceId is required", nil)
		return
	}

	inv, err := s.store.Invoices.Get(p.InvoiceID)
	if err != nil {
		respondNotFoundOrError(w, "invoice", err)
		return
	}

	if err := s.store.Payments.Save(&p); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to save payment", err)
		return
	}

	// Mark the invoice paid once completed payments cover its total.
	if p.Status == domain.PaymentCompleted {
		payments, err := s.store.Payments.ListByInvoice(p.InvoiceID)
		if err == nil {
			paid := 0.0
			for _, existing := range payments {
				if existing.Status == domain.PaymentCompleted {
					paid += existing.Amount
				}
			}
			if paid >= inv.Total && inv.Status != domain.InvoicePaid {
				inv.Status = domain.InvoicePaid
				if err := s.store.Invoices.Save(&inv); err != nil {
					logger.Warn("failed to mark invoice paid", "invoice", inv.ID, "error", err)
				}
			}
		}
	}

	respondJSON(w, http.StatusCreated, p)
}

// Expenses

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	expenses, err := s.store.Expenses.List()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list expenses", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"expenses": expenses})
}

func (s *Server) handleSaveExpense(w http.ResponseWriter, r *http.Request) {
	var e domain.Expense
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if err := s.store.Expenses.Save(&e); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to save expense", err)
		return
	}
	respondJSON(w, http.StatusCreated, e)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Expenses.Delete(chi.URLParam(r, "id")); err != nil {
		respondNotFoundOrError(w, "expense", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Helpers

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string, err error) {
	response := map[string]string{"error": message}
	if err != nil {
		response["details"] = err.Error()
	}
	respondJSON(w, status, response)
}

func respondNotFoundOrError(w http.ResponseWriter, entity string, err error) {
	if errors.Is(err, repository.ErrNotFound) {
		respondError(w, http.StatusNotFound, entity+" not found", err)
		return
	}
	respondError(w, http.StatusInternalServerError, "failed to load "+entity, err)
}

func main() {
	databaseURL := os.Getenv("DATABASE_URL")
	rulesFile := os.Getenv("RULES_FILE")

	server, err := NewServer(databaseURL, rulesFile)
	if err != nil {
		logger.Fatal("failed to create server", "error", err)
	}
	if server.db != nil {
		defer server.db.Close()
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      server,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", "port", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed to start", "error", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}
	if err := logger.Shutdown(ctx); err != nil {
		logger.Error("log export shutdown error", "error", err)
	}
}
