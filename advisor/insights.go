package advisor

import (
	"fmt"
	"time"

	"github.com/amathziah/bizmitra/domain"
	"github.com/amathziah/bizmitra/rules"
)

// DashboardInsights computes the dashboard's three aggregate signals
// directly, independent of the rule table: overdue invoice count, low-stock
// product count, and month-over-month paid revenue growth above 20%. The
// shape of each suggestion is fixed.
func (s *Service) DashboardInsights() ([]rules.Suggestion, error) {
	invoices, err := s.store.Invoices.List()
	if err != nil {
		return nil, fmt.Errorf("failed to load invoices: %w", err)
	}
	products, err := s.store.Products.List()
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}

	now := s.now()
	insights := []rules.Suggestion{}

	overdue := 0
	for _, inv := range invoices {
		if !inv.DueDate.IsZero() && inv.DueDate.Before(now) &&
			inv.Status != domain.InvoicePaid && inv.Status != domain.InvoiceCancelled {
			overdue++
		}
	}
	if overdue > 0 {
		insights = append(insights, rules.Suggestion{
			ID:       "dashboard-overdue",
			Type:     rules.ActionWarn,
			Message:  fmt.Sprintf("You have %d overdue invoices requiring attention.", overdue),
			Data:     map[string]any{"count": overdue},
			Priority: 1,
		})
	}

	lowStock := 0
	for _, p := range products {
		if p.Stock <= p.MinStock {
			lowStock++
		}
	}
	if lowStock > 0 {
		insights = append(insights, rules.Suggestion{
			ID:       "dashboard-low-stock",
			Type:     rules.ActionWarn,
			Message:  fmt.Sprintf("%d products are running low on stock.", lowStock),
			Data:     map[string]any{"count": lowStock},
			Priority: 2,
		})
	}

	firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	thisMonth := monthRevenue(invoices, now)
	lastMonth := monthRevenue(invoices, firstOfMonth.AddDate(0, -1, 0))
	if lastMonth > 0 && thisMonth > lastMonth*1.2 {
		growth := fmt.Sprintf("%.1f", (thisMonth/lastMonth-1)*100)
		insights = append(insights, rules.Suggestion{
			ID:       "dashboard-growth",
			Type:     rules.ActionSuggest,
			Message:  fmt.Sprintf("Great work! Revenue is up %s%% this month.", growth),
			Data:     map[string]any{"growth": growth},
			Priority: 3,
		})
	}

	return insights, nil
}

// monthRevenue sums paid invoice totals created in the same calendar month
// as ref.
func monthRevenue(invoices []domain.Invoice, ref time.Time) float64 {
	total := 0.0
	for _, inv := range invoices {
		if inv.Status != domain.InvoicePaid {
			continue
		}
		if inv.CreatedAt.Year() == ref.Year() && inv.CreatedAt.Month() == ref.Month() {
			total += inv.Total
		}
	}
	return total
}
