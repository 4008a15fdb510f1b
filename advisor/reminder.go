package advisor

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/amathziah/bizmitra/domain"
)

var nonDigits = regexp.MustCompile(`[^\d]`)

// PaymentReminder renders a canned reminder message for an invoice in the
// requested tone and language. An empty language defaults to English; a
// missing tone/language combination falls back to a generic template.
//
// Placeholder substitution replaces only the first occurrence of each token
// unless the service was built with WithGlobalPlaceholderReplace. A template
// repeating {amount} twice therefore keeps its second occurrence literal;
// that matches the historical behavior and is deliberate.
func (s *Service) PaymentReminder(inv domain.Invoice, tone Tone, lang Language) string {
	if lang == "" {
		lang = LangEnglish
	}

	customerName := "Customer"
	if c, err := s.store.Customers.Get(inv.CustomerID); err == nil && c.Name != "" {
		customerName = c.Name
	}

	n := 1
	if s.replaceAll {
		n = -1
	}

	msg := lookupTemplate("payment_reminder", lang, tone)
	msg = strings.Replace(msg, "{customerName}", customerName, n)
	msg = strings.Replace(msg, "{invoiceNumber}", inv.InvoiceNumber, n)
	msg = strings.Replace(msg, "{amount}", strconv.FormatFloat(inv.Total, 'f', -1, 64), n)
	return msg
}

// WhatsAppLink builds a wa.me deep link carrying the message. The phone
// number is stripped to digits; callers must include the country code. An
// empty phone yields an empty link.
func (s *Service) WhatsAppLink(phone, message string) string {
	if phone == "" {
		return ""
	}
	clean := nonDigits.ReplaceAllString(phone, "")
	// Query-escape, but with %20 for spaces as wa.me links conventionally
	// carry.
	text := strings.ReplaceAll(url.QueryEscape(message), "+", "%20")
	return "https://wa.me/" + clean + "?text=" + text
}
