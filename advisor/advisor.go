// Package advisor builds evaluation contexts from invoicing records and runs
// them through the rule engine, producing advisory suggestions for the UI.
package advisor

import (
	"fmt"
	"math"
	"time"

	"github.com/amathziah/bizmitra/domain"
	"github.com/amathziah/bizmitra/repository"
	"github.com/amathziah/bizmitra/rules"
)

const (
	// defaultCreditLimit applies when a customer record carries no override.
	defaultCreditLimit = 100000

	// salesLookbackDays is the window used to estimate daily sales velocity.
	salesLookbackDays = 30
)

// Service composes contexts from the repositories and evaluates them. All
// analysis entry points are pure over their inputs and the rule table; the
// only errors they return are repository read failures.
type Service struct {
	engine     *rules.Engine
	store      *repository.Store
	now        func() time.Time
	replaceAll bool
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the service clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithGlobalPlaceholderReplace makes reminder templates substitute every
// occurrence of a placeholder instead of only the first. The historical
// behavior is first-occurrence-only; this flag exists so both contracts stay
// testable until the intended one is settled.
func WithGlobalPlaceholderReplace() Option {
	return func(s *Service) { s.replaceAll = true }
}

// NewService creates an advisor over the given engine and store.
func NewService(engine *rules.Engine, store *repository.Store, opts ...Option) *Service {
	s := &Service{
		engine: engine,
		store:  store,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AnalyzeInvoice evaluates the rule table against an invoice, enriched with
// the customer name, total line quantity, invoice age in days and the
// current date.
func (s *Service) AnalyzeInvoice(inv domain.Invoice) []rules.Suggestion {
	now := s.now()

	customerName := ""
	if c, err := s.store.Customers.Get(inv.CustomerID); err == nil {
		customerName = c.Name
	}

	totalQuantity := 0.0
	for _, item := range inv.Items {
		totalQuantity += item.Quantity
	}

	ctx := invoiceContext(inv)
	ctx["customerName"] = rules.String(customerName)
	ctx["totalQuantity"] = rules.Number(totalQuantity)
	ctx["daysSinceInvoice"] = rules.Number(math.Floor(now.Sub(inv.CreatedAt).Hours() / 24))
	ctx["today"] = rules.Time(now)

	return s.engine.Evaluate(ctx)
}

// AnalyzeCustomer evaluates the rule table against a customer, enriched
// with their outstanding amount across unpaid invoices, invoice count and
// effective credit limit.
func (s *Service) AnalyzeCustomer(cust domain.Customer) ([]rules.Suggestion, error) {
	invoices, err := s.store.Invoices.ListByCustomer(cust.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load invoices for customer %s: %w", cust.ID, err)
	}

	outstanding := 0.0
	for _, inv := range invoices {
		if inv.Status != domain.InvoicePaid && inv.Status != domain.InvoiceCancelled {
			outstanding += inv.Total
		}
	}

	creditLimit := cust.CreditLimit
	if creditLimit == 0 {
		creditLimit = defaultCreditLimit
	}

	ctx := customerContext(cust)
	ctx["outstandingAmount"] = rules.Number(outstanding)
	ctx["invoiceCount"] = rules.Number(float64(len(invoices)))
	ctx["creditLimit"] = rules.Number(creditLimit)

	return s.engine.Evaluate(ctx), nil
}

// AnalyzeProduct evaluates the rule table against a product, enriched with
// historical sales totals, estimated daily sales velocity and the derived
// reorder point.
func (s *Service) AnalyzeProduct(prod domain.Product) ([]rules.Suggestion, error) {
	invoices, err := s.store.Invoices.List()
	if err != nil {
		return nil, fmt.Errorf("failed to load invoices: %w", err)
	}

	totalSold := 0.0
	for _, inv := range invoices {
		for _, item := range inv.Items {
			if item.ProductID == prod.ID {
				totalSold += item.Quantity
			}
		}
	}

	averageDailySales := totalSold / salesLookbackDays
	reorderPoint := math.Ceil(averageDailySales * 7)

	ctx := productContext(prod)
	ctx["totalSold"] = rules.Number(totalSold)
	ctx["averageDailySales"] = rules.Number(averageDailySales)
	ctx["reorderPoint"] = rules.Number(reorderPoint)
	// Zero-based month index, matching the rule table's seasonal values.
	ctx["month"] = rules.Number(float64(int(s.now().Month()) - 1))

	return s.engine.Evaluate(ctx), nil
}

// InventoryInsights runs AnalyzeProduct over every product and concatenates
// the results.
func (s *Service) InventoryInsights() ([]rules.Suggestion, error) {
	products, err := s.store.Products.List()
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}

	var all []rules.Suggestion
	for _, prod := range products {
		suggestions, err := s.AnalyzeProduct(prod)
		if err != nil {
			return nil, err
		}
		all = append(all, suggestions...)
	}
	return all, nil
}

func invoiceContext(inv domain.Invoice) rules.Context {
	items := make([]any, len(inv.Items))
	for i, item := range inv.Items {
		items[i] = map[string]any{
			"productId": item.ProductID,
			"quantity":  item.Quantity,
			"unitPrice": item.UnitPrice,
			"discount":  item.Discount,
			"gstRate":   item.GSTRate,
			"total":     item.Total,
		}
	}

	return rules.NewContext(map[string]any{
		"id":            inv.ID,
		"invoiceNumber": inv.InvoiceNumber,
		"customerId":    inv.CustomerID,
		"items":         items,
		"subtotal":      inv.Subtotal,
		"gstAmount":     inv.GSTAmount,
		"total":         inv.Total,
		"status":        string(inv.Status),
		"dueDate":       inv.DueDate,
		"createdAt":     inv.CreatedAt,
		"notes":         inv.Notes,
		"type":          string(inv.Type),
	})
}

func customerContext(cust domain.Customer) rules.Context {
	tags := make([]any, len(cust.Tags))
	for i, tag := range cust.Tags {
		tags[i] = tag
	}

	return rules.NewContext(map[string]any{
		"id":      cust.ID,
		"name":    cust.Name,
		"email":   cust.Email,
		"phone":   cust.Phone,
		"address": cust.Address,
		"gstin":   cust.GSTIN,
		"tags":    tags,
	})
}

func productContext(prod domain.Product) rules.Context {
	return rules.NewContext(map[string]any{
		"id":          prod.ID,
		"name":        prod.Name,
		"description": prod.Description,
		"price":       prod.Price,
		"stock":       prod.Stock,
		"minStock":    prod.MinStock,
		"unit":        prod.Unit,
		"category":    prod.Category,
		"gstRate":     prod.GSTRate,
	})
}
