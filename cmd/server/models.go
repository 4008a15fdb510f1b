package main

import (
	"github.com/amathziah/bizmitra/rules"
)

// evaluateRequest is a generic evaluation call: the caller supplies a raw
// context and gets back whichever rules fired.
type evaluateRequest struct {
	Context map[string]any `json:"context"`
}

type evaluateResponse struct {
	Suggestions    []rules.Suggestion `json:"suggestions"`
	EvaluationTime string             `json:"evaluationTime"`
}

type suggestionsResponse struct {
	Suggestions []rules.Suggestion `json:"suggestions"`
}

// reminderRequest selects the tone, language and delivery channel for a
// payment reminder.
type reminderRequest struct {
	Tone     string `json:"tone"`
	Language string `json:"language"`
	Channel  string `json:"channel,omitempty"`
}

type reminderResponse struct {
	Message      string `json:"message"`
	WhatsAppLink string `json:"whatsappLink,omitempty"`
}

type ruleRequest struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Conditions  []rules.Condition `json:"conditions,omitempty"`
	Expression  string            `json:"expression,omitempty"`
	Action      rules.Action      `json:"action"`
	Priority    int               `json:"priority,omitempty"`
	Enabled     bool              `json:"enabled"`
}

func (r ruleRequest) toRule() *rules.Rule {
	return &rules.Rule{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Conditions:  r.Conditions,
		Expression:  r.Expression,
		Action:      r.Action,
		Priority:    r.Priority,
		Enabled:     r.Enabled,
	}
}
