// Package repository provides persistence for the invoicing records the
// advisory service analyzes. Storage is passed explicitly to whatever needs
// it; there is no ambient global state.
package repository

import (
	"errors"

	"github.com/amathziah/bizmitra/domain"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

type CustomerRepository interface {
	List() ([]domain.Customer, error)
	Get(id string) (domain.Customer, error)
	Save(c *domain.Customer) error
	Delete(id string) error
}

type ProductRepository interface {
	List() ([]domain.Product, error)
	Get(id string) (domain.Product, error)
	Save(p *domain.Product) error
	Delete(id string) error

	// AdjustStock decrements stock by quantity, clamping at zero.
	AdjustStock(id string, quantity float64) error
}

type InvoiceRepository interface {
	List() ([]domain.Invoice, error)
	Get(id string) (domain.Invoice, error)
	ListByCustomer(customerID string) ([]domain.Invoice, error)
	Save(inv *domain.Invoice) error
	Delete(id string) error

	// NextInvoiceNumber mints an INV-<year>-NNNN sequence number.
	NextInvoiceNumber() (string, error)
}

type PaymentRepository interface {
	List() ([]domain.Payment, error)
	ListByInvoice(invoiceID string) ([]domain.Payment, error)
	Save(p *domain.Payment) error
}

type ExpenseRepository interface {
	List() ([]domain.Expense, error)
	Save(e *domain.Expense) error
	Delete(id string) error
}

type ReminderRepository interface {
	List() ([]domain.Reminder, error)
	Save(r *domain.Reminder) error
}

// Store bundles the per-entity repositories behind one handle.
type Store struct {
	Customers CustomerRepository
	Products  ProductRepository
	Invoices  InvoiceRepository
	Payments  PaymentRepository
	Expenses  ExpenseRepository
	Reminders ReminderRepository
}
