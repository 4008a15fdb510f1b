package rules

// BuiltinRules returns the stock rule table the service ships with. Rules
// compare context fields against literals or against other context fields
// through explicit $cross-references; the analyzers in the advisor package
// are responsible for putting the referenced fields into the context.
func BuiltinRules() []*Rule {
	return []*Rule{
		{
			ID:          "low-stock-alert",
			Name:        "Low Stock Alert",
			Description: "Alert when product stock is at or below its minimum threshold",
			Conditions: []Condition{
				{Field: "stock", Operator: OpLte, Value: "$minStock"},
			},
			Action: Action{
				Type:    ActionWarn,
				Message: "Stock is running low. Consider reordering soon.",
				Data:    map[string]any{"severity": "medium"},
			},
			Priority: 1,
			Enabled:  true,
		},
		{
			ID:          "overdue-payment-reminder",
			Name:        "Overdue Payment Reminder",
			Description: "Suggest sending a reminder for overdue invoices",
			Conditions: []Condition{
				{Field: "dueDate", Operator: OpLt, Value: "today"},
				{Field: "status", Operator: OpEq, Value: "sent"},
			},
			Action: Action{
				Type:    ActionSuggest,
				Message: "This invoice is overdue. Send a payment reminder?",
				Data:    map[string]any{"action": "send_reminder"},
			},
			Priority: 2,
			Enabled:  true,
		},
		{
			ID:          "large-order-discount",
			Name:        "Large Order Discount Suggestion",
			Description: "Suggest a discount for large quantity orders",
			Conditions: []Condition{
				{Field: "totalQuantity", Operator: OpGte, Value: 10},
			},
			Action: Action{
				Type:    ActionSuggest,
				Message: "Consider offering a bulk discount for this large order.",
				Data:    map[string]any{"suggestedDiscount": 5},
			},
			Priority: 3,
			Enabled:  true,
		},
		{
			ID:          "duplicate-customer-check",
			Name:        "Duplicate Customer Check",
			Description: "Warn about potential duplicate customers",
			Conditions: []Condition{
				{Field: "phone", Operator: OpEq, Value: "$existingPhone"},
			},
			Action: Action{
				Type:    ActionWarn,
				Message: "A customer with this phone number already exists.",
				Data:    map[string]any{"severity": "high"},
			},
			Priority: 1,
			Enabled:  true,
		},
		{
			ID:          "gst-validation",
			Name:        "GST Number Validation",
			Description: "Warn when a GSTIN has been flagged invalid",
			Conditions: []Condition{
				{Field: "gstin", Operator: OpContains, Value: "INVALID"},
			},
			Action: Action{
				Type:    ActionWarn,
				Message: "GST number format appears invalid. Please verify.",
				Data:    map[string]any{"severity": "high"},
			},
			Priority: 1,
			Enabled:  true,
		},
		{
			ID:          "payment-follow-up",
			Name:        "Payment Follow-up",
			Description: "Suggest a follow-up call for aging unpaid invoices",
			Conditions: []Condition{
				{Field: "daysSinceInvoice", Operator: OpGte, Value: 15},
				{Field: "status", Operator: OpEq, Value: "sent"},
			},
			Action: Action{
				Type:    ActionSuggest,
				Message: "This invoice is 15+ days old. Consider a follow-up call.",
				Data:    map[string]any{"action": "schedule_call"},
			},
			Priority: 2,
			Enabled:  true,
		},
		{
			ID:          "inventory-reorder-point",
			Name:        "Inventory Reorder Point",
			Description: "Reorder prompt based on sales velocity",
			Conditions: []Condition{
				{Field: "averageDailySales", Operator: OpGt, Value: 0},
				{Field: "stock", Operator: OpLte, Value: "$reorderPoint"},
			},
			Action: Action{
				Type:    ActionSuggest,
				Message: "Based on sales velocity, reorder this item soon.",
				Data:    map[string]any{"suggestedQuantity": "calculated"},
			},
			Priority: 2,
			Enabled:  true,
		},
		{
			ID:          "seasonal-demand-forecast",
			Name:        "Seasonal Demand Forecast",
			Description: "Stock-up prompt ahead of the festive season",
			Conditions: []Condition{
				// Zero-based month indexes: September through November.
				{Field: "month", Operator: OpIn, Value: []any{8, 9, 10}},
			},
			Action: Action{
				Type:    ActionSuggest,
				Message: "Peak season approaching. Consider stocking up on popular items.",
				Data:    map[string]any{"factor": 1.5},
			},
			Priority: 3,
			Enabled:  true,
		},
		{
			ID:          "customer-credit-limit",
			Name:        "Customer Credit Limit Check",
			Description: "Warn when outstanding amount reaches the credit limit",
			Conditions: []Condition{
				{Field: "outstandingAmount", Operator: OpGte, Value: "$creditLimit"},
			},
			Action: Action{
				Type:    ActionWarn,
				Message: "Customer has reached their credit limit.",
				Data:    map[string]any{"severity": "high"},
			},
			Priority: 1,
			Enabled:  true,
		},
		{
			ID:          "tax-compliance-check",
			Name:        "Tax Compliance Check",
			Description: "Warn about high-value transactions without GST",
			Conditions: []Condition{
				{Field: "gstRate", Operator: OpEq, Value: 0},
				{Field: "total", Operator: OpGt, Value: 10000},
			},
			Action: Action{
				Type:    ActionWarn,
				Message: "High-value transaction without GST. Please verify.",
				Data:    map[string]any{"severity": "high"},
			},
			Priority: 1,
			Enabled:  true,
		},
	}
}
