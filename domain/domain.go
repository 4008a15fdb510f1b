// Package domain holds the record types the advisory service operates on.
package domain

import "time"

type InvoiceStatus string

const (
	InvoiceDraft     InvoiceStatus = "draft"
	InvoiceSent      InvoiceStatus = "sent"
	InvoicePaid      InvoiceStatus = "paid"
	InvoiceOverdue   InvoiceStatus = "overdue"
	InvoiceCancelled InvoiceStatus = "cancelled"
)

type InvoiceType string

const (
	TypeInvoice    InvoiceType = "invoice"
	TypeCreditNote InvoiceType = "credit_note"
)

type PaymentMethod string

const (
	PaymentCash         PaymentMethod = "cash"
	PaymentUPI          PaymentMethod = "upi"
	PaymentCard         PaymentMethod = "card"
	PaymentBankTransfer PaymentMethod = "bank_transfer"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

type Customer struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	Address     string    `json:"address"`
	GSTIN       string    `json:"gstin,omitempty"`
	Tags        []string  `json:"tags"`
	CreditLimit float64   `json:"creditLimit,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Stock       float64   `json:"stock"`
	MinStock    float64   `json:"minStock"`
	Unit        string    `json:"unit"`
	Category    string    `json:"category"`
	GSTRate     float64   `json:"gstRate"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type InvoiceItem struct {
	ProductID string  `json:"productId"`
	Quantity  float64 `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
	Discount  float64 `json:"discount"`
	GSTRate   float64 `json:"gstRate"`
	Total     float64 `json:"total"`
}

type Invoice struct {
	ID                string        `json:"id"`
	InvoiceNumber     string        `json:"invoiceNumber"`
	CustomerID        string        `json:"customerId"`
	Items             []InvoiceItem `json:"items"`
	Subtotal          float64       `json:"subtotal"`
	GSTAmount         float64       `json:"gstAmount"`
	Total             float64       `json:"total"`
	Status            InvoiceStatus `json:"status"`
	DueDate           time.Time     `json:"dueDate"`
	CreatedAt         time.Time     `json:"createdAt"`
	UpdatedAt         time.Time     `json:"updatedAt"`
	Notes             string        `json:"notes,omitempty"`
	Type              InvoiceType   `json:"type"`
	OriginalInvoiceID string        `json:"originalInvoiceId,omitempty"`
}

type Payment struct {
	ID            string        `json:"id"`
	InvoiceID     string        `json:"invoiceId"`
	Amount        float64       `json:"amount"`
	Method        PaymentMethod `json:"method"`
	Status        PaymentStatus `json:"status"`
	TransactionID string        `json:"transactionId,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
	Notes         string        `json:"notes,omitempty"`
}

type Expense struct {
	ID          string    `json:"id"`
	Amount      float64   `json:"amount"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
	GSTAmount   float64   `json:"gstAmount"`
	CreatedAt   time.Time `json:"createdAt"`
	ReceiptURL  string    `json:"receiptUrl,omitempty"`
}

type Reminder struct {
	ID          string     `json:"id"`
	InvoiceID   string     `json:"invoiceId"`
	Channel     string     `json:"channel"`
	Tone        string     `json:"tone"`
	Language    string     `json:"language"`
	ScheduledAt time.Time  `json:"scheduledAt"`
	SentAt      *time.Time `json:"sentAt,omitempty"`
	Status      string     `json:"status"`
	Message     string     `json:"message"`
}
