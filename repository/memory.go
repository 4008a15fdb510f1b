package repository

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/amathziah/bizmitra/domain"
)

// NewMemoryStore creates a Store backed entirely by in-memory maps. Used for
// demo mode and tests; data does not survive a restart.
func NewMemoryStore() *Store {
	return &Store{
		Customers: &memoryCustomers{items: make(map[string]domain.Customer)},
		Products:  &memoryProducts{items: make(map[string]domain.Product)},
		Invoices:  &memoryInvoices{items: make(map[string]domain.Invoice)},
		Payments:  &memoryPayments{},
		Expenses:  &memoryExpenses{items: make(map[string]domain.Expense)},
		Reminders: &memoryReminders{},
	}
}

type memoryCustomers struct {
	items map[string]domain.Customer
	mu    sync.RWMutex
}

func (m *memoryCustomers) List() ([]domain.Customer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.Customer, 0, len(m.items))
	for _, c := range m.items {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *memoryCustomers) Get(id string) (domain.Customer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.items[id]
	if !ok {
		return domain.Customer{}, fmt.Errorf("customer %s: %w", id, ErrNotFound)
	}
	return c, nil
}

func (m *memoryCustomers) Save(c *domain.Customer) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	m.items[c.ID] = *c
	return nil
}

func (m *memoryCustomers) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.items[id]; !ok {
		return fmt.Errorf("customer %s: %w", id, ErrNotFound)
	}
	delete(m.items, id)
	return nil
}

type memoryProducts struct {
	items map[string]domain.Product
	mu    sync.RWMutex
}

func (m *memoryProducts) List() ([]domain.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.Product, 0, len(m.items))
	for _, p := range m.items {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *memoryProducts) Get(id string) (domain.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.items[id]
	if !ok {
		return domain.Product{}, fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	return p, nil
}

func (m *memoryProducts) Save(p *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	m.items[p.ID] = *p
	return nil
}

func (m *memoryProducts) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.items[id]; !ok {
		return fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	delete(m.items, id)
	return nil
}

func (m *memoryProducts) AdjustStock(id string, quantity float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.items[id]
	if !ok {
		return fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	p.Stock -= quantity
	if p.Stock < 0 {
		p.Stock = 0
	}
	p.UpdatedAt = time.Now()
	m.items[id] = p
	return nil
}

type memoryInvoices struct {
	items map[string]domain.Invoice
	mu    sync.RWMutex
}

func (m *memoryInvoices) List() ([]domain.Invoice, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.Invoice, 0, len(m.items))
	for _, inv := range m.items {
		out = append(out, inv)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *memoryInvoices) Get(id string) (domain.Invoice, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	inv, ok := m.items[id]
	if !ok {
		return domain.Invoice{}, fmt.Errorf("invoice %s: %w", id, ErrNotFound)
	}
	return inv, nil
}

func (m *memoryInvoices) ListByCustomer(customerID string) ([]domain.Invoice, error) {
	all, _ := m.List()
	var out []domain.Invoice
	for _, inv := range all {
		if inv.CustomerID == customerID {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (m *memoryInvoices) Save(inv *domain.Invoice) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}
	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = now
	}
	inv.UpdatedAt = now
	m.items[inv.ID] = *inv
	return nil
}

func (m *memoryInvoices) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.items[id]; !ok {
		return fmt.Errorf("invoice %s: %w", id, ErrNotFound)
	}
	delete(m.items, id)
	return nil
}

func (m *memoryInvoices) NextInvoiceNumber() (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	year := time.Now().Year()
	count := 1
	for _, inv := range m.items {
		if strings.Contains(inv.InvoiceNumber, fmt.Sprint(year)) {
			count++
		}
	}
	return fmt.Sprintf("INV-%d-%04d", year, count), nil
}

type memoryPayments struct {
	items []domain.Payment
	mu    sync.RWMutex
}

func (m *memoryPayments) List() ([]domain.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.Payment, len(m.items))
	copy(out, m.items)
	return out, nil
}

func (m *memoryPayments) ListByInvoice(invoiceID string) ([]domain.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []domain.Payment
	for _, p := range m.items {
		if p.InvoiceID == invoiceID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memoryPayments) Save(p *domain.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.CreatedAt = time.Now()
	m.items = append(m.items, *p)
	return nil
}

type memoryExpenses struct {
	items map[string]domain.Expense
	mu    sync.RWMutex
}

func (m *memoryExpenses) List() ([]domain.Expense, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.Expense, 0, len(m.items))
	for _, e := range m.items {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *memoryExpenses) Save(e *domain.Expense) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	m.items[e.ID] = *e
	return nil
}

func (m *memoryExpenses) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.items[id]; !ok {
		return fmt.Errorf("expense %s: %w", id, ErrNotFound)
	}
	delete(m.items, id)
	return nil
}

type memoryReminders struct {
	items []domain.Reminder
	mu    sync.RWMutex
}

func (m *memoryReminders) List() ([]domain.Reminder, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.Reminder, len(m.items))
	copy(out, m.items)
	return out, nil
}

func (m *memoryReminders) Save(r *domain.Reminder) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	m.items = append(m.items, *r)
	return nil
}
