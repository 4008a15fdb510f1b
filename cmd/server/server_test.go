package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	server, err := NewServer("", "")
	if err != nil {
		t.Fatalf("Failed to create server: %v", err)
	}
	ts := httptest.NewServer(server)
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("Failed to make %s request to %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	var decoded map[string]any
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &decoded); err != nil {
			t.Fatalf("Failed to decode response %q: %v", raw, err)
		}
	}
	return resp, decoded
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp, body := doJSON(t, "GET", ts.URL+"/api/v1/health", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	if body["status"] != "healthy" {
		t.Errorf("Expected healthy status, got %v", body)
	}
}

func TestEvaluateEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp, body := doJSON(t, "POST", ts.URL+"/api/v1/evaluate", map[string]any{
		"context": map[string]any{
			"stock":    2,
			"minStock": 5,
		},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %v", resp.StatusCode, body)
	}

	suggestions, ok := body["suggestions"].([]any)
	if !ok || len(suggestions) == 0 {
		t.Fatalf("Expected suggestions, got %v", body)
	}
	first := suggestions[0].(map[string]any)
	if first["id"] != "low-stock-alert" {
		t.Errorf("Expected low-stock-alert, got %v", first["id"])
	}
	if body["evaluationTime"] == nil {
		t.Error("Expected evaluationTime in the response")
	}
}

func TestEvaluateEndpoint_RequiresContext(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := doJSON(t, "POST", ts.URL+"/api/v1/evaluate", map[string]any{})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400 without a context, got %d", resp.StatusCode)
	}
}

func TestCustomerLifecycle(t *testing.T) {
	ts := newTestServer(t)

	resp, created := doJSON(t, "POST", ts.URL+"/api/v1/customers", map[string]any{
		"name":  "Acme Traders",
		"phone": "+91 9876543210",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200 creating customer, got %d: %v", resp.StatusCode, created)
	}
	id, _ := created["id"].(string)
	if id == "" {
		t.Fatal("Expected a minted customer ID")
	}

	resp, got := doJSON(t, "GET", ts.URL+"/api/v1/customers/"+id, nil)
	if resp.StatusCode != http.StatusOK || got["name"] != "Acme Traders" {
		t.Errorf("Expected to fetch the customer back, got %d %v", resp.StatusCode, got)
	}

	resp, _ = doJSON(t, "DELETE", ts.URL+"/api/v1/customers/"+id, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("Expected 204 deleting customer, got %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, "GET", ts.URL+"/api/v1/customers/"+id, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404 after delete, got %d", resp.StatusCode)
	}
}

func TestCreateCustomer_RequiresName(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := doJSON(t, "POST", ts.URL+"/api/v1/customers", map[string]any{"phone": "123"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400 without a name, got %d", resp.StatusCode)
	}
}

func TestCreateInvoice_MintsNumberAndAdjustsStock(t *testing.T) {
	ts := newTestServer(t)

	_, customer := doJSON(t, "POST", ts.URL+"/api/v1/customers", map[string]any{"name": "Acme"})
	customerID := customer["id"].(string)

	_, product := doJSON(t, "POST", ts.URL+"/api/v1/products", map[string]any{
		"name":     "Widget",
		"stock":    10,
		"minStock": 2,
	})
	productID := product["id"].(string)

	resp, invoice := doJSON(t, "POST", ts.URL+"/api/v1/invoices", map[string]any{
		"customerId": customerID,
		"items": []map[string]any{
			{"productId": productID, "quantity": 4, "unitPrice": 100, "total": 400},
		},
		"total":   400,
		"dueDate": time.Now().AddDate(0, 0, 15).Format(time.RFC3339),
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Expected 201 creating invoice, got %d: %v", resp.StatusCode, invoice)
	}

	number, _ := invoice["invoiceNumber"].(string)
	if !strings.HasPrefix(number, fmt.Sprintf("INV-%d-", time.Now().Year())) {
		t.Errorf("Expected a minted invoice number, got %q", number)
	}
	if invoice["status"] != "draft" {
		t.Errorf("Expected default status draft, got %v", invoice["status"])
	}

	_, got := doJSON(t, "GET", ts.URL+"/api/v1/products/"+productID, nil)
	if got["stock"].(float64) != 6 {
		t.Errorf("Expected stock reduced to 6, got %v", got["stock"])
	}
}

func TestUpdateInvoice_PreservesCreatedAt(t *testing.T) {
	ts := newTestServer(t)

	_, customer := doJSON(t, "POST", ts.URL+"/api/v1/customers", map[string]any{"name": "Acme"})

	_, invoice := doJSON(t, "POST", ts.URL+"/api/v1/invoices", map[string]any{
		"customerId": customer["id"],
		"total":      1200,
	})
	invoiceID := invoice["id"].(string)
	createdAt := invoice["createdAt"].(string)

	resp, updated := doJSON(t, "PUT", ts.URL+"/api/v1/invoices/"+invoiceID, map[string]any{
		"customerId": customer["id"],
		"total":      1500,
		"status":     "sent",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200 updating invoice, got %d", resp.StatusCode)
	}
	if updated["total"].(float64) != 1500 {
		t.Errorf("Expected total updated to 1500, got %v", updated["total"])
	}
	if updated["createdAt"].(string) != createdAt {
		t.Errorf("Expected createdAt %q preserved on update, got %q", createdAt, updated["createdAt"])
	}
}

func TestCreateInvoice_RequiresCustomer(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := doJSON(t, "POST", ts.URL+"/api/v1/invoices", map[string]any{"total": 100})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400 without a customer, got %d", resp.StatusCode)
	}
}

func TestInvoiceSuggestions(t *testing.T) {
	ts := newTestServer(t)

	_, customer := doJSON(t, "POST", ts.URL+"/api/v1/customers", map[string]any{"name": "Acme"})
	customerID := customer["id"].(string)

	_, invoice := doJSON(t, "POST", ts.URL+"/api/v1/invoices", map[string]any{
		"customerId": customerID,
		"items": []map[string]any{
			{"productId": "p1", "quantity": 20, "unitPrice": 100, "total": 2000},
		},
		"total":   2000,
		"status":  "sent",
		"dueDate": time.Now().AddDate(0, 0, 30).Format(time.RFC3339),
	})

	resp, body := doJSON(t, "GET", ts.URL+"/api/v1/invoices/"+invoice["id"].(string)+"/suggestions", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %v", resp.StatusCode, body)
	}

	suggestions, _ := body["suggestions"].([]any)
	found := false
	for _, s := range suggestions {
		if s.(map[string]any)["id"] == "large-order-discount" {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected large-order-discount for a 20-unit order, got %v", body)
	}
}

func TestPaymentMarksInvoicePaid(t *testing.T) {
	ts := newTestServer(t)

	_, customer := doJSON(t, "POST", ts.URL+"/api/v1/customers", map[string]any{"name": "Acme"})
	customerID := customer["id"].(string)

	_, invoice := doJSON(t, "POST", ts.URL+"/api/v1/invoices", map[string]any{
		"customerId": customerID,
		"total":      1000,
		"status":     "sent",
		"dueDate":    time.Now().AddDate(0, 0, 15).Format(time.RFC3339),
	})
	invoiceID := invoice["id"].(string)

	// A partial payment must not settle the invoice.
	resp, _ := doJSON(t, "POST", ts.URL+"/api/v1/payments", map[string]any{
		"invoiceId": invoiceID,
		"amount":    400,
		"method":    "upi",
		"status":    "completed",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Expected 201 creating payment, got %d", resp.StatusCode)
	}

	_, got := doJSON(t, "GET", ts.URL+"/api/v1/invoices/"+invoiceID, nil)
	if got["status"] != "sent" {
		t.Errorf("Expected invoice to stay sent after a partial payment, got %v", got["status"])
	}

	doJSON(t, "POST", ts.URL+"/api/v1/payments", map[string]any{
		"invoiceId": invoiceID,
		"amount":    600,
		"method":    "upi",
		"status":    "completed",
	})

	_, got = doJSON(t, "GET", ts.URL+"/api/v1/invoices/"+invoiceID, nil)
	if got["status"] != "paid" {
		t.Errorf("Expected invoice paid after full settlement, got %v", got["status"])
	}
}

func TestPayment_RequiresExistingInvoice(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := doJSON(t, "POST", ts.URL+"/api/v1/payments", map[string]any{
		"invoiceId": "ghost",
		"amount":    100,
	})
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404 for a missing invoice, got %d", resp.StatusCode)
	}
}

func TestInvoiceReminder(t *testing.T) {
	ts := newTestServer(t)

	_, customer := doJSON(t, "POST", ts.URL+"/api/v1/customers", map[string]any{
		"name":  "Acme Traders",
		"phone": "+91 98765 43210",
	})
	customerID := customer["id"].(string)

	_, invoice := doJSON(t, "POST", ts.URL+"/api/v1/invoices", map[string]any{
		"customerId":    customerID,
		"invoiceNumber": "INV-2024-0007",
		"total":         4500,
		"status":        "sent",
		"dueDate":       time.Now().AddDate(0, 0, -5).Format(time.RFC3339),
	})
	invoiceID := invoice["id"].(string)

	resp, body := doJSON(t, "POST", ts.URL+"/api/v1/invoices/"+invoiceID+"/reminder", map[string]any{
		"tone":     "urgent",
		"language": "en",
		"channel":  "whatsapp",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %v", resp.StatusCode, body)
	}

	message, _ := body["message"].(string)
	if !strings.Contains(message, "INV-2024-0007") || !strings.Contains(message, "4500") {
		t.Errorf("Expected the reminder to carry invoice details, got %q", message)
	}
	link, _ := body["whatsappLink"].(string)
	if !strings.HasPrefix(link, "https://wa.me/919876543210?text=") {
		t.Errorf("Expected a wa.me link, got %q", link)
	}
}

func TestDashboardInsightsEndpoint(t *testing.T) {
	ts := newTestServer(t)

	_, customer := doJSON(t, "POST", ts.URL+"/api/v1/customers", map[string]any{"name": "Acme"})
	customerID := customer["id"].(string)

	doJSON(t, "POST", ts.URL+"/api/v1/invoices", map[string]any{
		"customerId": customerID,
		"total":      1000,
		"status":     "sent",
		"dueDate":    time.Now().AddDate(0, 0, -10).Format(time.RFC3339),
	})

	resp, body := doJSON(t, "GET", ts.URL+"/api/v1/insights/dashboard", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %v", resp.StatusCode, body)
	}

	suggestions, _ := body["suggestions"].([]any)
	if len(suggestions) == 0 {
		t.Fatalf("Expected an overdue insight, got %v", body)
	}
	first := suggestions[0].(map[string]any)
	if first["id"] != "dashboard-overdue" {
		t.Errorf("Expected dashboard-overdue, got %v", first["id"])
	}
}

func TestRuleLifecycle(t *testing.T) {
	ts := newTestServer(t)

	resp, created := doJSON(t, "POST", ts.URL+"/api/v1/rules", map[string]any{
		"id":   "vip-order",
		"name": "VIP Order",
		"conditions": []map[string]any{
			{"field": "total", "operator": "gt", "value": 50000},
		},
		"action": map[string]any{
			"type":    "suggest",
			"message": "Large order from a VIP customer.",
		},
		"priority": 1,
		"enabled":  true,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Expected 201 creating rule, got %d: %v", resp.StatusCode, created)
	}

	// The new rule must take part in evaluation immediately.
	_, eval := doJSON(t, "POST", ts.URL+"/api/v1/evaluate", map[string]any{
		"context": map[string]any{"total": 60000},
	})
	suggestions, _ := eval["suggestions"].([]any)
	found := false
	for _, s := range suggestions {
		if s.(map[string]any)["id"] == "vip-order" {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected vip-order to fire after creation, got %v", eval)
	}

	resp, got := doJSON(t, "GET", ts.URL+"/api/v1/rules/vip-order", nil)
	if resp.StatusCode != http.StatusOK || got["name"] != "VIP Order" {
		t.Errorf("Expected to fetch the rule back, got %d %v", resp.StatusCode, got)
	}

	resp, _ = doJSON(t, "PUT", ts.URL+"/api/v1/rules/vip-order", map[string]any{
		"name": "VIP Order",
		"conditions": []map[string]any{
			{"field": "total", "operator": "gt", "value": 100000},
		},
		"action":  map[string]any{"type": "suggest", "message": "Huge order."},
		"enabled": true,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200 updating rule, got %d", resp.StatusCode)
	}

	_, eval = doJSON(t, "POST", ts.URL+"/api/v1/evaluate", map[string]any{
		"context": map[string]any{"total": 60000},
	})
	suggestions, _ = eval["suggestions"].([]any)
	for _, s := range suggestions {
		if s.(map[string]any)["id"] == "vip-order" {
			t.Error("Expected vip-order to stop firing after raising the threshold")
		}
	}

	resp, _ = doJSON(t, "DELETE", ts.URL+"/api/v1/rules/vip-order", nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("Expected 204 deleting rule, got %d", resp.StatusCode)
	}
	resp, _ = doJSON(t, "GET", ts.URL+"/api/v1/rules/vip-order", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404 after delete, got %d", resp.StatusCode)
	}
}

func TestCreateRule_RejectsInvalidDefinition(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := doJSON(t, "POST", ts.URL+"/api/v1/rules", map[string]any{
		"id":   "bad-op",
		"name": "Bad Op",
		"conditions": []map[string]any{
			{"field": "x", "operator": "between", "value": 1},
		},
		"enabled": true,
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400 for an unknown operator, got %d", resp.StatusCode)
	}
}

func TestListRules_IncludesBuiltins(t *testing.T) {
	ts := newTestServer(t)

	resp, body := doJSON(t, "GET", ts.URL+"/api/v1/rules", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	list, _ := body["rules"].([]any)
	if len(list) < 10 {
		t.Errorf("Expected the builtin rule table, got %d rules", len(list))
	}
}
