package repository

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/amathziah/bizmitra/domain"
)

// NewPostgresStore creates a Store backed by PostgreSQL.
func NewPostgresStore(db *sql.DB) *Store {
	return &Store{
		Customers: &pgCustomers{db: db},
		Products:  &pgProducts{db: db},
		Invoices:  &pgInvoices{db: db},
		Payments:  &pgPayments{db: db},
		Expenses:  &pgExpenses{db: db},
		Reminders: &pgReminders{db: db},
	}
}

type pgCustomers struct {
	db *sql.DB
}

func (r *pgCustomers) List() ([]domain.Customer, error) {
	rows, err := r.db.Query(`
		SELECT id, name, email, phone, address, gstin, tags, credit_limit, created_at, updated_at
		FROM customers
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	defer rows.Close()

	var out []domain.Customer
	for rows.Next() {
		var c domain.Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Address, &c.GSTIN,
			pq.Array(&c.Tags), &c.CreditLimit, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *pgCustomers) Get(id string) (domain.Customer, error) {
	var c domain.Customer
	err := r.db.QueryRow(`
		SELECT id, name, email, phone, address, gstin, tags, credit_limit, created_at, updated_at
		FROM customers
		WHERE id = $1
	`, id).Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Address, &c.GSTIN,
		pq.Array(&c.Tags), &c.CreditLimit, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Customer{}, fmt.Errorf("customer %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return domain.Customer{}, fmt.Errorf("failed to get customer: %w", err)
	}
	return c, nil
}

func (r *pgCustomers) Save(c *domain.Customer) error {
	now := time.Now()
	if c.ID == "" {
		c.ID = uuid.NewString()
		c.CreatedAt = now
	}
	c.UpdatedAt = now

	_, err := r.db.Exec(`
		INSERT INTO customers (id, name, email, phone, address, gstin, tags, credit_limit, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE
		SET name = $2, email = $3, phone = $4, address = $5, gstin = $6, tags = $7, credit_limit = $8, updated_at = $10
	`, c.ID, c.Name, c.Email, c.Phone, c.Address, c.GSTIN, pq.Array(c.Tags), c.CreditLimit, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save customer: %w", err)
	}
	return nil
}

func (r *pgCustomers) Delete(id string) error {
	return execAffectingOne(r.db, `DELETE FROM customers WHERE id = $1`, "customer", id)
}

type pgProducts struct {
	db *sql.DB
}

func (r *pgProducts) List() ([]domain.Product, error) {
	rows, err := r.db.Query(`
		SELECT id, name, description, price, stock, min_stock, unit, category, gst_rate, created_at, updated_at
		FROM products
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	var out []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.MinStock,
			&p.Unit, &p.Category, &p.GSTRate, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *pgProducts) Get(id string) (domain.Product, error) {
	var p domain.Product
	err := r.db.QueryRow(`
		SELECT id, name, description, price, stock, min_stock, unit, category, gst_rate, created_at, updated_at
		FROM products
		WHERE id = $1
	`, id).Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.MinStock,
		&p.Unit, &p.Category, &p.GSTRate, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return domain.Product{}, fmt.Errorf("failed to get product: %w", err)
	}
	return p, nil
}

func (r *pgProducts) Save(p *domain.Product) error {
	now := time.Now()
	if p.ID == "" {
		p.ID = uuid.NewString()
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	_, err := r.db.Exec(`
		INSERT INTO products (id, name, description, price, stock, min_stock, unit, category, gst_rate, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE
		SET name = $2, description = $3, price = $4, stock = $5, min_stock = $6, unit = $7, category = $8, gst_rate = $9, updated_at = $11
	`, p.ID, p.Name, p.Description, p.Price, p.Stock, p.MinStock, p.Unit, p.Category, p.GSTRate, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save product: %w", err)
	}
	return nil
}

func (r *pgProducts) Delete(id string) error {
	return execAffectingOne(r.db, `DELETE FROM products WHERE id = $1`, "product", id)
}

func (r *pgProducts) AdjustStock(id string, quantity float64) error {
	return execAffectingOne(r.db, `
		UPDATE products
		SET stock = GREATEST(stock - $2, 0), updated_at = NOW()
		WHERE id = $1
	`, "product", id, quantity)
}

type pgInvoices struct {
	db *sql.DB
}

const invoiceColumns = `id, invoice_number, customer_id, items, subtotal, gst_amount, total, status, due_date, created_at, updated_at, notes, type, original_invoice_id`

func (r *pgInvoices) List() ([]domain.Invoice, error) {
	return r.list(`SELECT `+invoiceColumns+` FROM invoices ORDER BY created_at ASC`, nil)
}

func (r *pgInvoices) ListByCustomer(customerID string) ([]domain.Invoice, error) {
	return r.list(`SELECT `+invoiceColumns+` FROM invoices WHERE customer_id = $1 ORDER BY created_at ASC`, []any{customerID})
}

func (r *pgInvoices) list(query string, args []any) ([]domain.Invoice, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	defer rows.Close()

	var out []domain.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

func (r *pgInvoices) Get(id string) (domain.Invoice, error) {
	row := r.db.QueryRow(`SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id)
	inv, err := scanInvoice(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Invoice{}, fmt.Errorf("invoice %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return domain.Invoice{}, fmt.Errorf("failed to get invoice: %w", err)
	}
	return inv, nil
}

func scanInvoice(row interface{ Scan(...any) error }) (domain.Invoice, error) {
	var inv domain.Invoice
	var items []byte
	err := row.Scan(&inv.ID, &inv.InvoiceNumber, &inv.CustomerID, &items, &inv.Subtotal,
		&inv.GSTAmount, &inv.Total, &inv.Status, &inv.DueDate, &inv.CreatedAt,
		&inv.UpdatedAt, &inv.Notes, &inv.Type, &inv.OriginalInvoiceID)
	if err != nil {
		return domain.Invoice{}, err
	}
	if len(items) > 0 {
		if err := json.Unmarshal(items, &inv.Items); err != nil {
			return domain.Invoice{}, fmt.Errorf("failed to unmarshal invoice items: %w", err)
		}
	}
	return inv, nil
}

func (r *pgInvoices) Save(inv *domain.Invoice) error {
	now := time.Now()
	if inv.ID == "" {
		inv.ID = uuid.NewString()
		inv.CreatedAt = now
	}
	inv.UpdatedAt = now

	items, err := json.Marshal(inv.Items)
	if err != nil {
		return fmt.Errorf("failed to marshal invoice items: %w", err)
	}

	_, err = r.db.Exec(`
		INSERT INTO invoices (`+invoiceColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO UPDATE
		SET invoice_number = $2, customer_id = $3, items = $4, subtotal = $5, gst_amount = $6,
		    total = $7, status = $8, due_date = $9, updated_at = $11, notes = $12, type = $13,
		    original_invoice_id = $14
	`, inv.ID, inv.InvoiceNumber, inv.CustomerID, items, inv.Subtotal, inv.GSTAmount,
		inv.Total, inv.Status, inv.DueDate, inv.CreatedAt, inv.UpdatedAt, inv.Notes,
		inv.Type, inv.OriginalInvoiceID)
	if err != nil {
		return fmt.Errorf("failed to save invoice: %w", err)
	}
	return nil
}

func (r *pgInvoices) Delete(id string) error {
	return execAffectingOne(r.db, `DELETE FROM invoices WHERE id = $1`, "invoice", id)
}

func (r *pgInvoices) NextInvoiceNumber() (string, error) {
	year := time.Now().Year()
	var count int
	err := r.db.QueryRow(`
		SELECT COUNT(*) FROM invoices WHERE invoice_number LIKE '%' || $1::text || '%'
	`, year).Scan(&count)
	if err != nil {
		return "", fmt.Errorf("failed to count invoices: %w", err)
	}
	return fmt.Sprintf("INV-%d-%04d", year, count+1), nil
}

type pgPayments struct {
	db *sql.DB
}

func (r *pgPayments) List() ([]domain.Payment, error) {
	return r.list(`SELECT id, invoice_id, amount, method, status, transaction_id, created_at, notes FROM payments ORDER BY created_at ASC`, nil)
}

func (r *pgPayments) ListByInvoice(invoiceID string) ([]domain.Payment, error) {
	return r.list(`SELECT id, invoice_id, amount, method, status, transaction_id, created_at, notes FROM payments WHERE invoice_id = $1 ORDER BY created_at ASC`, []any{invoiceID})
}

func (r *pgPayments) list(query string, args []any) ([]domain.Payment, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	var out []domain.Payment
	for rows.Next() {
		var p domain.Payment
		if err := rows.Scan(&p.ID, &p.InvoiceID, &p.Amount, &p.Method, &p.Status,
			&p.TransactionID, &p.CreatedAt, &p.Notes); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *pgPayments) Save(p *domain.Payment) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.CreatedAt = time.Now()

	_, err := r.db.Exec(`
		INSERT INTO payments (id, invoice_id, amount, method, status, transaction_id, created_at, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, p.ID, p.InvoiceID, p.Amount, p.Method, p.Status, p.TransactionID, p.CreatedAt, p.Notes)
	if err != nil {
		return fmt.Errorf("failed to save payment: %w", err)
	}
	return nil
}

type pgExpenses struct {
	db *sql.DB
}

func (r *pgExpenses) List() ([]domain.Expense, error) {
	rows, err := r.db.Query(`
		SELECT id, amount, category, description, date, gst_amount, created_at, receipt_url
		FROM expenses
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var out []domain.Expense
	for rows.Next() {
		var e domain.Expense
		if err := rows.Scan(&e.ID, &e.Amount, &e.Category, &e.Description, &e.Date,
			&e.GSTAmount, &e.CreatedAt, &e.ReceiptURL); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *pgExpenses) Save(e *domain.Expense) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
		e.CreatedAt = time.Now()
	}

	_, err := r.db.Exec(`
		INSERT INTO expenses (id, amount, category, description, date, gst_amount, created_at, receipt_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE
		SET amount = $2, category = $3, description = $4, date = $5, gst_amount = $6, receipt_url = $8
	`, e.ID, e.Amount, e.Category, e.Description, e.Date, e.GSTAmount, e.CreatedAt, e.ReceiptURL)
	if err != nil {
		return fmt.Errorf("failed to save expense: %w", err)
	}
	return nil
}

func (r *pgExpenses) Delete(id string) error {
	return execAffectingOne(r.db, `DELETE FROM expenses WHERE id = $1`, "expense", id)
}

type pgReminders struct {
	db *sql.DB
}

func (r *pgReminders) List() ([]domain.Reminder, error) {
	rows, err := r.db.Query(`
		SELECT id, invoice_id, channel, tone, language, scheduled_at, sent_at, status, message
		FROM reminders
		ORDER BY scheduled_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list reminders: %w", err)
	}
	defer rows.Close()

	var out []domain.Reminder
	for rows.Next() {
		var rem domain.Reminder
		if err := rows.Scan(&rem.ID, &rem.InvoiceID, &rem.Channel, &rem.Tone, &rem.Language,
			&rem.ScheduledAt, &rem.SentAt, &rem.Status, &rem.Message); err != nil {
			return nil, fmt.Errorf("failed to scan reminder: %w", err)
		}
		out = append(out, rem)
	}
	return out, rows.Err()
}

func (r *pgReminders) Save(rem *domain.Reminder) error {
	if rem.ID == "" {
		rem.ID = uuid.NewString()
	}

	_, err := r.db.Exec(`
		INSERT INTO reminders (id, invoice_id, channel, tone, language, scheduled_at, sent_at, status, message)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, rem.ID, rem.InvoiceID, rem.Channel, rem.Tone, rem.Language, rem.ScheduledAt, rem.SentAt, rem.Status, rem.Message)
	if err != nil {
		return fmt.Errorf("failed to save reminder: %w", err)
	}
	return nil
}

func execAffectingOne(db *sql.DB, query, entity string, args ...any) error {
	result, err := db.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", entity, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%s %s: %w", entity, fmt.Sprint(args[0]), ErrNotFound)
	}
	return nil
}
